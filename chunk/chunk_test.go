package chunk_test

import (
	"testing"

	"github.com/finevox/voxelcore/chunk"
	"github.com/finevox/voxelcore/intern"
)

func TestNewSubChunkIsEmpty(t *testing.T) {
	s := chunk.NewSubChunk()
	if !s.IsEmpty() {
		t.Fatalf("fresh subchunk should be empty")
	}
	if s.Block(0, 0, 0) != intern.AirBlockType {
		t.Fatalf("fresh subchunk should read air everywhere")
	}
}

func TestSetBlockTracksNonAirCount(t *testing.T) {
	s := chunk.NewSubChunk()
	stone := intern.BlockType("stone")

	s.SetBlock(1, 2, 3, stone)
	if s.IsEmpty() || s.NonAirCount() != 1 {
		t.Fatalf("expected 1 non-air block, got %d", s.NonAirCount())
	}
	if got := s.Block(1, 2, 3); got != stone {
		t.Fatalf("Block(1,2,3) = %v, want %v", got, stone)
	}

	s.SetBlock(1, 2, 3, intern.AirBlockType)
	if !s.IsEmpty() {
		t.Fatalf("expected subchunk to be empty again after clearing the only block")
	}
}

func TestSetBlockReusesFreedPaletteSlot(t *testing.T) {
	s := chunk.NewSubChunk()
	dirt := intern.BlockType("dirt_unique_for_test")

	s.SetBlock(0, 0, 0, dirt)
	idx := s.Palette().LocalIndex(dirt)
	s.SetBlock(0, 0, 0, intern.AirBlockType) // usage drops to 0, frees idx

	if s.Palette().Contains(dirt) {
		t.Fatalf("palette should have dropped dirt once its usage reached zero")
	}
	if !s.Palette().NeedsCompaction() {
		t.Fatalf("expected a free slot after removal")
	}

	grass := intern.BlockType("grass_unique_for_test")
	s.SetBlock(5, 5, 5, grass)
	if got := s.Palette().LocalIndex(grass); got != idx {
		t.Fatalf("expected freed index %d to be reused, got %d", idx, got)
	}
}

func TestCompactPaletteDropsDeadEntriesAndRewritesBlocks(t *testing.T) {
	s := chunk.NewSubChunk()
	a := intern.BlockType("compact_test_a")
	b := intern.BlockType("compact_test_b")

	s.SetBlock(0, 0, 0, a)
	s.SetBlock(1, 0, 0, b)
	s.SetBlock(0, 0, 0, intern.AirBlockType) // a's usage -> 0, freed

	if !s.NeedsCompaction() {
		t.Fatalf("expected compaction to be needed")
	}
	s.CompactPalette()
	if s.NeedsCompaction() {
		t.Fatalf("compaction should clear the free list")
	}
	if got := s.Block(1, 0, 0); got != b {
		t.Fatalf("compaction corrupted block storage: got %v, want %v", got, b)
	}
	if s.Palette().BitsForSerialization() != 1 {
		t.Fatalf("expected 1 bit to represent max index after compaction, got %d", s.Palette().BitsForSerialization())
	}
}

func TestFillSetsEveryBlock(t *testing.T) {
	s := chunk.NewSubChunk()
	water := intern.BlockType("fill_test_water")
	s.Fill(water)

	if s.NonAirCount() != chunk.Volume {
		t.Fatalf("Fill should set every block, got non-air count %d", s.NonAirCount())
	}
	if got := s.Block(15, 15, 15); got != water {
		t.Fatalf("corner block = %v, want %v", got, water)
	}
}

func TestBlockVersionIncrementsOnChange(t *testing.T) {
	s := chunk.NewSubChunk()
	v0 := s.BlockVersion()
	s.SetBlock(0, 0, 0, intern.BlockType("version_test"))
	if s.BlockVersion() == v0 {
		t.Fatalf("block version should change after a mutation")
	}
	v1 := s.BlockVersion()
	s.SetBlock(0, 0, 0, intern.BlockType("version_test")) // no-op, same type
	if s.BlockVersion() != v1 {
		t.Fatalf("block version should not change when the block type is unchanged")
	}
}

func TestBlockDataSidecar(t *testing.T) {
	s := chunk.NewSubChunk()
	idx := chunk.ToIndex(4, 4, 4)
	if _, ok := s.BlockData(idx); ok {
		t.Fatalf("no sidecar should be attached yet")
	}
}
