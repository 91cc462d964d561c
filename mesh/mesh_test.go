package mesh_test

import (
	"testing"

	"github.com/finevox/voxelcore/cube"
	"github.com/finevox/voxelcore/intern"
	"github.com/finevox/voxelcore/lod"
	"github.com/finevox/voxelcore/mesh"
)

const solidStone = intern.BlockTypeID(1)

// singleBlockInput builds a BuildInput for one solid block surrounded by
// air, at the chunk origin.
func singleBlockInput(chunkPos cube.ChunkPos, blockPos cube.BlockPos) mesh.BuildInput {
	return mesh.BuildInput{
		ChunkPos: chunkPos,
		BlockAt: func(pos cube.BlockPos) intern.BlockTypeID {
			if pos == blockPos {
				return solidStone
			}
			return intern.AirBlockType
		},
		OpaqueAt: func(pos cube.BlockPos) bool {
			return pos == blockPos
		},
		LightAt: func(pos cube.BlockPos) uint8 {
			return 0xF0
		},
		TextureOf: func(id intern.BlockTypeID, face cube.Face) mesh.UVRect {
			return mesh.UVRect{U0: 0, V0: 0, U1: 1, V1: 1}
		},
	}
}

func TestBuildNaiveEmitsSixFacesForIsolatedBlock(t *testing.T) {
	chunkPos := cube.ChunkPos{X: 0, Y: 0, Z: 0}
	blockPos := cube.BlockPos{X: 5, Y: 5, Z: 5}
	data := mesh.BuildNaive(singleBlockInput(chunkPos, blockPos))

	if data.VertexCount != 6*4 {
		t.Fatalf("expected 24 vertices for 6 visible faces, got %d", data.VertexCount)
	}
	if data.TriangleCount != 6*2 {
		t.Fatalf("expected 12 triangles, got %d", data.TriangleCount)
	}
	for _, v := range data.Vertices {
		if v.Light>>4 != 0xF {
			t.Fatalf("expected sky light nibble 0xF, got %#x", v.Light)
		}
	}
}

func TestBuildGreedyMatchesNaiveVertexCountForSingleBlock(t *testing.T) {
	chunkPos := cube.ChunkPos{X: 0, Y: 0, Z: 0}
	blockPos := cube.BlockPos{X: 5, Y: 5, Z: 5}
	in := singleBlockInput(chunkPos, blockPos)

	naive := mesh.BuildNaive(in)
	greedy := mesh.BuildGreedy(in)

	// A single isolated block has no adjacent coplanar faces to merge,
	// so greedy meshing should produce exactly the same output size.
	if greedy.VertexCount != naive.VertexCount {
		t.Fatalf("expected greedy to match naive for an isolated block: naive=%d greedy=%d", naive.VertexCount, greedy.VertexCount)
	}
}

// flatSlabInput builds a 16x16 solid layer at y=0 that is opaque on
// every side but its top, so only the top face should ever be visible.
func flatSlabInput(chunkPos cube.ChunkPos) mesh.BuildInput {
	return mesh.BuildInput{
		ChunkPos: chunkPos,
		BlockAt: func(pos cube.BlockPos) intern.BlockTypeID {
			if pos.Y == 0 {
				return solidStone
			}
			return intern.AirBlockType
		},
		OpaqueAt: func(pos cube.BlockPos) bool {
			return pos.Y <= 0
		},
		LightAt:   func(pos cube.BlockPos) uint8 { return 0xFF },
		TextureOf: func(id intern.BlockTypeID, face cube.Face) mesh.UVRect { return mesh.UVRect{U0: 0, V0: 0, U1: 1, V1: 1} },
	}
}

func TestBuildGreedyMergesFlatSlab(t *testing.T) {
	data := mesh.BuildGreedy(flatSlabInput(cube.ChunkPos{X: 0, Y: 0, Z: 0}))
	// Only the top face of the 16x16 slab is visible (bottom and sides
	// are backed by more opaque slab), so greedy meshing should merge
	// the whole layer into a single quad.
	if data.VertexCount != 4 {
		t.Fatalf("expected a single merged quad (4 vertices), got %d vertices", data.VertexCount)
	}
}

func TestBuildLODLevelZeroMatchesGreedy(t *testing.T) {
	chunkPos := cube.ChunkPos{X: 0, Y: 0, Z: 0}
	blockPos := cube.BlockPos{X: 5, Y: 5, Z: 5}
	in := singleBlockInput(chunkPos, blockPos)

	greedy := mesh.BuildGreedy(in)
	l0 := mesh.BuildLOD(in, 0, lod.FullHeight)
	if l0.VertexCount != greedy.VertexCount {
		t.Fatalf("LOD level 0 should equal BuildGreedy: greedy=%d lod0=%d", greedy.VertexCount, l0.VertexCount)
	}
}

func TestBuildLODMergesGroupsAtHigherLevel(t *testing.T) {
	in := flatSlabInput(cube.ChunkPos{X: 0, Y: 0, Z: 0})

	data := mesh.BuildLOD(in, 2, lod.NoMerge)
	if data.VertexCount == 0 {
		t.Fatalf("expected BuildLOD to emit geometry for a solid slab")
	}
}
