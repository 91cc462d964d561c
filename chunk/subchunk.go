package chunk

import (
	"github.com/finevox/voxelcore/container"
	"github.com/finevox/voxelcore/intern"
)

// Size is the edge length of a SubChunk in blocks.
const Size = 16

// Volume is the number of blocks in a SubChunk.
const Volume = Size * Size * Size // 4096

// SubChunk is a 16x16x16 palette-compressed block volume, one of the
// (currently unbounded-height) vertical slices that make up a Column.
// Blocks are addressed by the same y*256+z*16+x layout BlockPos.Local
// produces, so a caller holding a BlockPos never needs a second index
// formula.
type SubChunk struct {
	palette      *Palette
	blocks       [Volume]LocalIndex
	usageCounts  []uint32
	nonAirCount  int32
	blockVersion uint64

	// data holds per-block sidecars (sign text, inventory contents...),
	// keyed by the same local index used in blocks. Most subchunks never
	// populate this; it is allocated lazily on first use.
	data map[int32]*container.DataContainer
}

// NewSubChunk returns an empty (all-air) SubChunk.
func NewSubChunk() *SubChunk {
	return &SubChunk{
		palette:     NewPalette(),
		usageCounts: make([]uint32, 1, 16),
	}
}

// ToIndex converts local coordinates (each 0-15) to a block array index.
func ToIndex(x, y, z int32) int32 { return y*256 + z*16 + x }

// Block returns the block type at local coordinates.
func (s *SubChunk) Block(x, y, z int32) intern.BlockTypeID {
	return s.BlockAt(ToIndex(x, y, z))
}

// BlockAt returns the block type at a raw local index.
func (s *SubChunk) BlockAt(index int32) intern.BlockTypeID {
	return s.palette.GlobalID(s.blocks[index])
}

// SetBlock sets the block type at local coordinates, managing palette
// membership and reference counts automatically.
func (s *SubChunk) SetBlock(x, y, z int32, id intern.BlockTypeID) {
	s.SetBlockAt(ToIndex(x, y, z), id)
}

// SetBlockAt sets the block type at a raw local index.
func (s *SubChunk) SetBlockAt(index int32, id intern.BlockTypeID) {
	oldIdx := s.blocks[index]
	oldID := s.palette.GlobalID(oldIdx)
	if oldID == id {
		return
	}

	newIdx := s.palette.AddType(id)
	s.blocks[index] = newIdx
	s.growUsageCounts()
	s.decrementUsage(oldIdx)
	s.incrementUsage(newIdx)
	s.blockVersion++

	wasAir := oldID == intern.AirBlockType
	isAir := id == intern.AirBlockType
	switch {
	case wasAir && !isAir:
		s.nonAirCount++
	case !wasAir && isAir:
		s.nonAirCount--
	}
}

func (s *SubChunk) growUsageCounts() {
	need := int(s.palette.MaxIndex()) + 1
	if len(s.usageCounts) >= need {
		return
	}
	grown := make([]uint32, need)
	copy(grown, s.usageCounts)
	s.usageCounts = grown
}

func (s *SubChunk) decrementUsage(idx LocalIndex) {
	if idx == 0 || int(idx) >= len(s.usageCounts) {
		return // air's refcount is not tracked
	}
	if s.usageCounts[idx] > 0 {
		s.usageCounts[idx]--
	}
	if s.usageCounts[idx] == 0 {
		s.palette.RemoveType(s.palette.GlobalID(idx))
	}
}

func (s *SubChunk) incrementUsage(idx LocalIndex) {
	if idx == 0 {
		return
	}
	s.usageCounts[idx]++
}

// IsEmpty reports whether the subchunk contains only air.
func (s *SubChunk) IsEmpty() bool { return s.nonAirCount == 0 }

// NonAirCount returns the number of non-air blocks.
func (s *SubChunk) NonAirCount() int32 { return s.nonAirCount }

// BlockVersion returns a counter incremented on every block change,
// used by the lighting and mesh workers to detect staleness cheaply
// without hashing the whole subchunk.
func (s *SubChunk) BlockVersion() uint64 { return s.blockVersion }

// Palette returns the subchunk's palette, for serialization.
func (s *SubChunk) Palette() *Palette { return s.palette }

// Blocks returns the raw local-index array, for serialization.
func (s *SubChunk) Blocks() *[Volume]LocalIndex { return &s.blocks }

// NeedsCompaction reports whether the palette has reclaimable free slots.
func (s *SubChunk) NeedsCompaction() bool { return s.palette.NeedsCompaction() }

// CompactPalette compacts the palette and rewrites the block array to
// match, returning the old->new index mapping the palette produced.
func (s *SubChunk) CompactPalette() []LocalIndex {
	remap := s.palette.Compact(s.usageCounts)
	for i, idx := range s.blocks {
		s.blocks[i] = remap[idx]
	}
	newCounts := make([]uint32, len(s.palette.Entries()))
	for old, count := range s.usageCounts {
		if old == 0 || count == 0 {
			continue
		}
		newCounts[remap[old]] = count
	}
	s.usageCounts = newCounts

	if len(s.data) > 0 {
		relocated := make(map[int32]*container.DataContainer, len(s.data))
		for index, dc := range s.data {
			relocated[index] = dc
		}
		s.data = relocated
	}
	return remap
}

// Clear resets the subchunk to all-air.
func (s *SubChunk) Clear() {
	s.palette = NewPalette()
	s.blocks = [Volume]LocalIndex{}
	s.usageCounts = make([]uint32, 1, 16)
	s.nonAirCount = 0
	s.blockVersion++
	s.data = nil
}

// Fill sets every block in the subchunk to id in a single pass.
func (s *SubChunk) Fill(id intern.BlockTypeID) {
	s.Clear()
	if id == intern.AirBlockType {
		return
	}
	idx := s.palette.AddType(id)
	for i := range s.blocks {
		s.blocks[i] = idx
	}
	s.growUsageCounts()
	s.usageCounts[idx] = Volume
	s.nonAirCount = Volume
	s.blockVersion++
}

// LoadSubChunk reconstructs a SubChunk from a previously-compacted
// palette (entry 0 must be air) and its raw, already bit-unpacked local
// index array, as read back from a region file (regionfile.DecodeSubChunk
// produces both). Usage counts are rederived by scanning the block array
// once rather than trusting a persisted count, so a corrupt or
// short-written count on disk can never desynchronize from the blocks
// actually present.
func LoadSubChunk(paletteIDs []intern.BlockTypeID, blocks [Volume]LocalIndex) *SubChunk {
	entries := append([]intern.BlockTypeID(nil), paletteIDs...)
	if len(entries) == 0 {
		entries = []intern.BlockTypeID{intern.AirBlockType}
	}
	reverse := make(map[intern.BlockTypeID]LocalIndex, len(entries))
	for idx, id := range entries {
		reverse[id] = LocalIndex(idx)
	}
	s := &SubChunk{
		palette: &Palette{entries: entries, reverse: reverse, maxIndex: LocalIndex(len(entries) - 1)},
		blocks:  blocks,
	}
	s.usageCounts = make([]uint32, len(entries))
	var nonAir int32
	for _, idx := range blocks {
		if int(idx) < len(s.usageCounts) {
			s.usageCounts[idx]++
		}
		if s.palette.GlobalID(idx) != intern.AirBlockType {
			nonAir++
		}
	}
	s.nonAirCount = nonAir
	s.blockVersion = 1
	return s
}

// UsageCounts returns the per-index reference counts backing the
// palette, for serialization and Compact calls.
func (s *SubChunk) UsageCounts() []uint32 { return s.usageCounts }

// BlockData returns the sidecar data container at a raw local index, if
// one has been attached.
func (s *SubChunk) BlockData(index int32) (*container.DataContainer, bool) {
	if s.data == nil {
		return nil, false
	}
	dc, ok := s.data[index]
	return dc, ok
}

// SetBlockData attaches (or replaces) a sidecar data container at a raw
// local index. Passing nil removes it.
func (s *SubChunk) SetBlockData(index int32, dc *container.DataContainer) {
	if dc == nil {
		if s.data != nil {
			delete(s.data, index)
		}
		return
	}
	if s.data == nil {
		s.data = make(map[int32]*container.DataContainer)
	}
	s.data[index] = dc
}
