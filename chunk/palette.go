// Package chunk implements the 16x16x16 block-storage unit (SubChunk)
// and the per-subchunk block-type palette that backs it, following the
// same compact-indices-plus-free-list design dragonfly's own chunk
// package uses for its block palettes, generalized here to the core's
// interned BlockTypeID space.
package chunk

import (
	"math/bits"

	"github.com/finevox/voxelcore/intern"
)

// LocalIndex addresses a palette entry within a single SubChunk.
type LocalIndex = uint16

// InvalidLocalIndex marks "not present in the palette".
const InvalidLocalIndex LocalIndex = 0xFFFF

// Palette maps a SubChunk's distinct block types to compact runtime
// indices. Index 0 is always air. Freed indices (usage dropping to zero)
// go onto a LIFO free list and are reused by the next addType call
// before any new index is allocated, so a subchunk that churns through
// many distinct types in place does not grow its palette unbounded.
type Palette struct {
	entries  []intern.BlockTypeID // index -> global id; InvalidLocalIndex sentinel lives out-of-band via reverse
	reverse  map[intern.BlockTypeID]LocalIndex
	freeList []LocalIndex
	maxIndex LocalIndex
}

// NewPalette returns a Palette with air pre-registered at index 0.
func NewPalette() *Palette {
	p := &Palette{
		entries: make([]intern.BlockTypeID, 1, 16),
		reverse: make(map[intern.BlockTypeID]LocalIndex, 16),
	}
	p.entries[0] = intern.AirBlockType
	p.reverse[intern.AirBlockType] = 0
	return p
}

// AddType returns id's local index, allocating one (reusing a freed slot
// if available) if id is not yet in the palette.
func (p *Palette) AddType(id intern.BlockTypeID) LocalIndex {
	if idx, ok := p.reverse[id]; ok {
		return idx
	}
	var idx LocalIndex
	if n := len(p.freeList); n > 0 {
		idx = p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		p.entries[idx] = id
	} else {
		idx = LocalIndex(len(p.entries))
		p.entries = append(p.entries, id)
	}
	p.reverse[id] = idx
	if idx > p.maxIndex {
		p.maxIndex = idx
	}
	return idx
}

// RemoveType drops id from the palette, freeing its index for reuse.
// Reports whether id was present.
func (p *Palette) RemoveType(id intern.BlockTypeID) bool {
	idx, ok := p.reverse[id]
	if !ok {
		return false
	}
	delete(p.reverse, id)
	p.entries[idx] = intern.AirBlockType
	p.freeList = append(p.freeList, idx)
	return true
}

// GlobalID returns the block type at idx, or air if idx is out of range
// or empty.
func (p *Palette) GlobalID(idx LocalIndex) intern.BlockTypeID {
	if int(idx) >= len(p.entries) {
		return intern.AirBlockType
	}
	return p.entries[idx]
}

// LocalIndex returns id's local index, or InvalidLocalIndex if id is not
// in the palette.
func (p *Palette) LocalIndex(id intern.BlockTypeID) LocalIndex {
	if idx, ok := p.reverse[id]; ok {
		return idx
	}
	return InvalidLocalIndex
}

// Contains reports whether id is present in the palette.
func (p *Palette) Contains(id intern.BlockTypeID) bool {
	_, ok := p.reverse[id]
	return ok
}

// ActiveCount returns the number of distinct block types currently
// occupying a slot.
func (p *Palette) ActiveCount() int { return len(p.reverse) }

// MaxIndex returns the highest index allocated since the last compaction
// or Clear (freeing an entry does not lower it), which determines the bit
// width needed to serialize this palette's block array.
func (p *Palette) MaxIndex() LocalIndex { return p.maxIndex }

// BitsForSerialization returns ceil(log2(MaxIndex()+1)), the minimum bit
// width that can represent every index currently in use. Callers should
// compact the palette first so this reflects the true minimum rather
// than a width inflated by stale freed slots.
func (p *Palette) BitsForSerialization() int {
	return ceilLog2(uint32(p.maxIndex) + 1)
}

// NeedsCompaction reports whether the palette has freed slots that a
// Compact call could reclaim.
func (p *Palette) NeedsCompaction() bool { return len(p.freeList) > 0 }

// Entries returns the raw index->id slice, including empty (freed)
// slots; callers that need only live entries must skip those slots.
func (p *Palette) Entries() []intern.BlockTypeID { return p.entries }

// Clear resets the palette back to only air at index 0.
func (p *Palette) Clear() {
	p.entries = p.entries[:1]
	for k := range p.reverse {
		delete(p.reverse, k)
	}
	p.reverse[intern.AirBlockType] = 0
	p.freeList = p.freeList[:0]
	p.maxIndex = 0
}

// Compact reassigns every live entry to a new, contiguous index
// (air stays at 0) and clears the free list. usageCounts must be indexed
// the same way as Entries(); entries with a zero usage count are
// dropped. The returned slice maps old index -> new index, with
// InvalidLocalIndex marking indices that were dropped; callers use it to
// rewrite a SubChunk's block array in place.
func (p *Palette) Compact(usageCounts []uint32) []LocalIndex {
	remap := make([]LocalIndex, len(p.entries))
	for i := range remap {
		remap[i] = InvalidLocalIndex
	}

	newEntries := make([]intern.BlockTypeID, 1, len(p.entries))
	newEntries[0] = intern.AirBlockType
	newReverse := make(map[intern.BlockTypeID]LocalIndex, len(p.reverse))
	newReverse[intern.AirBlockType] = 0
	remap[0] = 0

	for idx := LocalIndex(1); int(idx) < len(p.entries); idx++ {
		id := p.entries[idx]
		if id == intern.AirBlockType {
			continue // freed slot
		}
		if int(idx) < len(usageCounts) && usageCounts[idx] == 0 {
			continue
		}
		newIdx := LocalIndex(len(newEntries))
		newEntries = append(newEntries, id)
		newReverse[id] = newIdx
		remap[idx] = newIdx
	}

	p.entries = newEntries
	p.reverse = newReverse
	p.freeList = p.freeList[:0]
	p.maxIndex = LocalIndex(len(newEntries) - 1)
	return remap
}

// ceilLog2 computes the number of bits needed to represent values
// 0..n-1, returning 0 for n <= 1.
func ceilLog2(n uint32) int {
	if n <= 1 {
		return 0
	}
	return bits.Len32(n - 1)
}
