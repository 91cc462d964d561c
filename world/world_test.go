package world_test

import (
	"testing"

	"github.com/finevox/voxelcore/blocktype"
	"github.com/finevox/voxelcore/cube"
	"github.com/finevox/voxelcore/intern"
	"github.com/finevox/voxelcore/world"
)

func TestSetBlockThenGetRoundTrips(t *testing.T) {
	w := world.New()
	pos := cube.BlockPos{X: 5, Y: 70, Z: -3}
	stone := intern.BlockType("world_test_stone")

	w.SetBlock(pos, stone)
	if got := w.Block(pos); got != stone {
		t.Fatalf("Block(pos) = %v, want %v", got, stone)
	}
}

func TestSetBlockCreatesAndPrunesSubChunk(t *testing.T) {
	w := world.New()
	pos := cube.BlockPos{X: 0, Y: 0, Z: 0}
	dirt := intern.BlockType("world_test_dirt")

	w.SetBlock(pos, dirt)
	c, ok := w.Column(pos.Column())
	if !ok {
		t.Fatalf("expected column to be created")
	}
	if !c.HasSubChunk(0) {
		t.Fatalf("expected subchunk 0 to exist after a write")
	}

	w.SetBlock(pos, intern.AirBlockType)
	if c.HasSubChunk(0) {
		t.Fatalf("expected subchunk to be pruned once it went all-air")
	}
}

func TestUnloadedColumnReadsAsAir(t *testing.T) {
	w := world.New()
	pos := cube.BlockPos{X: 1000, Y: 0, Z: 1000}
	if got := w.Block(pos); got != intern.AirBlockType {
		t.Fatalf("Block(pos) in an unloaded column = %v, want air", got)
	}
}

func TestForceLoaderPinsWithinRadius(t *testing.T) {
	w := world.New()
	anchor := cube.BlockPos{X: 0, Y: 64, Z: 0}
	w.RegisterForceLoader(anchor, 1)

	if w.CanUnloadColumn(cube.ColumnPos{X: 0, Z: 0}) {
		t.Fatalf("expected the anchor's own column to be pinned")
	}
	if w.CanUnloadColumn(cube.ColumnPos{X: 1, Z: 1}) {
		t.Fatalf("expected a column within radius 1 to be pinned")
	}
	if !w.CanUnloadColumn(cube.ColumnPos{X: 2, Z: 0}) {
		t.Fatalf("expected a column outside the radius to be unloadable")
	}

	w.UnregisterForceLoader(anchor)
	if !w.CanUnloadColumn(cube.ColumnPos{X: 0, Z: 0}) {
		t.Fatalf("expected the anchor's column to be unloadable once unregistered")
	}
}

func TestAffectedSubChunksIncludesNeighboursAtBoundary(t *testing.T) {
	interior := cube.BlockPos{X: 5, Y: 5, Z: 5}
	if got := world.AffectedSubChunks(interior); len(got) != 1 {
		t.Fatalf("interior block should only affect its own subchunk, got %v", got)
	}

	corner := cube.BlockPos{X: 0, Y: 0, Z: 0}
	got := world.AffectedSubChunks(corner)
	if len(got) != 4 { // own + 3 boundary neighbours
		t.Fatalf("corner block should affect 4 subchunks, got %d: %v", len(got), got)
	}
}

func TestColumnHeightmapTracksPlacedBlocker(t *testing.T) {
	// Column.SetBlock reads BlocksSkyLight from the global block-type
	// registry, so the blocker is registered there.
	stone := blocktype.Global().Register("world_test_height_stone", blocktype.Properties{BlocksSkyLight: true, Opaque: true}, nil).ID
	col := world.NewColumn(cube.ColumnPos{X: 0, Z: 0})
	if h := col.Height(0, 0); h != world.MinHeight {
		t.Fatalf("fresh column height = %d, want %d", h, world.MinHeight)
	}
	col.SetBlock(0, 10, 0, stone)
	if h := col.Height(0, 0); h != 11 {
		t.Fatalf("height after placing a blocker at y=10 = %d, want 11", h)
	}
}
