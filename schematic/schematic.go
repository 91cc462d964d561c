// Package schematic implements the clipboard region format spec.md §6/§8
// describes: a bounded box of blocks captured out of a World and later
// pasted back, round-tripping through a CBOR-on-disk encoding (see
// codec.go).
//
// Grounded on original_source's schematic.hpp/schematic_io.hpp/
// schematic.cpp/schematic_io.cpp: a BlockSnapshot keyed by a
// registry-independent type name (rather than a runtime BlockTypeID, so a
// saved clipboard survives a block registry reload the way regionfile's
// persistent IDs do) carrying a rotation, a displacement and an optional
// deep-copied data sidecar, assembled into a Schematic box. The
// world-generation "stamp a schematic while generating terrain" feature
// (feature_schematic.hpp) is out of scope; only the clipboard itself is.
package schematic

import (
	"fmt"

	"github.com/finevox/voxelcore/container"
	"github.com/finevox/voxelcore/cube"
	"github.com/finevox/voxelcore/intern"
	"github.com/finevox/voxelcore/world"
)

// BlockSnapshot is one captured block: its type by name (not by runtime
// intern.BlockTypeID, which is only stable within a single process's
// registry), the rotation it was placed with, a displacement carried
// through from the source (set when a multi-block structure's secondary
// positions reference an offset from their primary block), and an
// optional deep copy of its data sidecar.
type BlockSnapshot struct {
	TypeName     string
	Rotation     cube.Rotation
	Displacement cube.BlockPos
	ExtraData    *container.DataContainer
}

// cloneSnapshot deep-copies src, matching original_source's copySnapshotTo:
// ExtraData is cloned rather than shared, so mutating a pasted block's
// data never reaches back into the schematic it was pasted from.
func cloneSnapshot(src BlockSnapshot) BlockSnapshot {
	out := src
	if src.ExtraData != nil {
		out.ExtraData = src.ExtraData.Clone()
	}
	return out
}

// Schematic is a rectangular box of BlockSnapshots, addressed by a
// position local to the box's own origin (0,0,0 at one corner), so a
// captured region can be pasted at any anchor in any world.
type Schematic struct {
	Size   cube.BlockPos // extents along X/Y/Z, each >= 1
	blocks map[cube.BlockPos]BlockSnapshot
}

// New returns an empty schematic with the given extents. Air (an absent
// entry) is the implicit content of every position until Set is called.
func New(size cube.BlockPos) *Schematic {
	return &Schematic{Size: size, blocks: make(map[cube.BlockPos]BlockSnapshot)}
}

// inBounds reports whether local lies within s.Size.
func (s *Schematic) inBounds(local cube.BlockPos) bool {
	return local.X >= 0 && local.X < s.Size.X &&
		local.Y >= 0 && local.Y < s.Size.Y &&
		local.Z >= 0 && local.Z < s.Size.Z
}

// At returns the snapshot stored at local, and whether one is present
// (absence means air).
func (s *Schematic) At(local cube.BlockPos) (BlockSnapshot, bool) {
	snap, ok := s.blocks[local]
	return snap, ok
}

// Set stores snap at local, which must lie within s.Size.
func (s *Schematic) Set(local cube.BlockPos, snap BlockSnapshot) {
	if !s.inBounds(local) {
		panic("schematic: position out of bounds")
	}
	s.blocks[local] = cloneSnapshot(snap)
}

// ForEach visits every non-air position in ascending Y-Z-X order, the
// same order codec.go serializes blocks in.
func (s *Schematic) ForEach(fn func(local cube.BlockPos, snap BlockSnapshot)) {
	for _, local := range s.sortedPositions() {
		fn(local, s.blocks[local])
	}
}

func (s *Schematic) sortedPositions() []cube.BlockPos {
	out := make([]cube.BlockPos, 0, len(s.blocks))
	for p := range s.blocks {
		out = append(out, p)
	}
	// Insertion sort is fine here: schematics are clipboard-sized, not
	// world-sized, and this only runs on save/iterate, never per-tick.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && less(out[j], out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func less(a, b cube.BlockPos) bool {
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	if a.Z != b.Z {
		return a.Z < b.Z
	}
	return a.X < b.X
}

// Capture reads the box [min,max] (inclusive) out of w and returns a
// Schematic anchored so min maps to local origin (0,0,0). Reads go
// straight through World's column/subchunk accessors rather than the
// queued command API: capture is a point-in-time snapshot, not a
// mutation, so there is no single-writer concern to route around.
func Capture(w *world.World, min, max cube.BlockPos) (*Schematic, error) {
	if max.X < min.X || max.Y < min.Y || max.Z < min.Z {
		return nil, fmt.Errorf("schematic: capture: max must be >= min")
	}
	size := cube.BlockPos{X: max.X - min.X + 1, Y: max.Y - min.Y + 1, Z: max.Z - min.Z + 1}
	out := New(size)

	for y := min.Y; y <= max.Y; y++ {
		for z := min.Z; z <= max.Z; z++ {
			for x := min.X; x <= max.X; x++ {
				pos := cube.BlockPos{X: x, Y: y, Z: z}
				id := w.Block(pos)
				if id == intern.AirBlockType {
					continue
				}
				local := cube.BlockPos{X: x - min.X, Y: y - min.Y, Z: z - min.Z}
				out.blocks[local] = BlockSnapshot{
					TypeName:  id.Name(),
					ExtraData: cloneBlockData(w, pos),
				}
			}
		}
	}
	return out, nil
}

func cloneBlockData(w *world.World, pos cube.BlockPos) *container.DataContainer {
	col, ok := w.Column(pos.Column())
	if !ok {
		return nil
	}
	sc, ok := col.SubChunk(pos.Chunk().Y)
	if !ok {
		return nil
	}
	dc, ok := sc.BlockData(int32(pos.LocalIndex()))
	if !ok || dc == nil {
		return nil
	}
	return dc.Clone()
}

// Paste writes s into w with its local origin placed at anchor, creating
// any columns/subchunks it needs. Like Capture, this mutates World's
// storage directly rather than through the queued command API: Paste is
// meant for offline fixture-building and world-editing tools operating
// on a World with no live game.Session attached (spec.md §8's round-trip
// law is exercised this way in tests), not for pasting into a running
// world out from under its game thread.
func (s *Schematic) Paste(w *world.World, anchor cube.BlockPos) {
	s.ForEach(func(local cube.BlockPos, snap BlockSnapshot) {
		pos := anchor.Add(local)
		col := w.GetOrCreateColumn(pos.Column())
		sc := col.GetOrCreateSubChunk(pos.Chunk().Y)
		lx, ly, lz := pos.Local()
		sc.SetBlock(int32(lx), int32(ly), int32(lz), intern.BlockType(snap.TypeName))
		if snap.ExtraData != nil {
			sc.SetBlockData(int32(pos.LocalIndex()), snap.ExtraData.Clone())
		}
	})
	col, ok := w.Column(anchor.Column())
	if ok {
		col.MarkHeightmapDirty()
	}
}
