// Package mesh builds renderable geometry from subchunk block data:
// a naive per-face builder, a greedy coplanar-quad merger, the LOD
// merge pass, and the worker pool + cache that keeps meshes up to date
// as block and light versions change.
//
// Grounded on dragonfly's own `server/block/cube` face-iteration idiom
// for "visible face = neighbour non-opaque or unloaded" and on
// original_source/include/finevox/core/mesh_builder.hpp for the vertex
// format and ambient-occlusion formula, which spec.md §4.7 states but
// does not derive.
package mesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/finevox/voxelcore/cube"
	"github.com/finevox/voxelcore/intern"
)

// Vertex is one face-quad corner: position, normal, UV, and two
// packed lighting/AO bytes (spec.md §4.7's vertex format).
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
	Light    uint8 // hi nibble sky, lo nibble block, same packing as light.Data
	AO       uint8 // 0-3, standard voxel corner ambient occlusion
}

// MeshData is the output of a mesh build: a flat vertex buffer plus
// triangle indices and the volume's bounds, ready for GPU upload.
type MeshData struct {
	Vertices      []Vertex
	Indices       []uint32
	BoundsMin     mgl32.Vec3
	BoundsMax     mgl32.Vec3
	VertexCount   int
	TriangleCount int
}

// UVRect is the texture-atlas rectangle (u0,v0,u1,v1) assigned to one
// face of one block type.
type UVRect struct {
	U0, V0, U1, V1 float32
}

// TextureProvider resolves the atlas rectangle for a (block type, face)
// pair. Implementations are expected to be cheap table lookups; the
// builder calls this once per visible face.
type TextureProvider func(id intern.BlockTypeID, face cube.Face) UVRect

// LightProvider resolves the packed sky/block light byte at a block
// position, matching light.Data.PackedLight's packing so the builder
// never needs to import the light package directly (same capability
// -interface decoupling light.BlockSource uses for world).
type LightProvider func(pos cube.BlockPos) uint8

// OpacityProvider reports whether the block at pos is opaque, for
// visible-face determination. A position outside the loaded area should
// report false (non-opaque), matching "neighbour is non-opaque or
// outside loaded area" from spec.md §4.7.
type OpacityProvider func(pos cube.BlockPos) bool

// BlockTypeProvider resolves the block type at a position, for face
// culling and palette lookups.
type BlockTypeProvider func(pos cube.BlockPos) intern.BlockTypeID

// BuildInput bundles everything a single mesh build call needs to read
// the subchunk it targets.
type BuildInput struct {
	ChunkPos  cube.ChunkPos
	BlockAt   BlockTypeProvider
	OpaqueAt  OpacityProvider
	LightAt   LightProvider
	TextureOf TextureProvider
}

func faceVisible(in BuildInput, pos cube.BlockPos, face cube.Face) bool {
	return !in.OpaqueAt(pos.Neighbour(face))
}
