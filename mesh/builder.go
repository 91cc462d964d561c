package mesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/finevox/voxelcore/chunk"
	"github.com/finevox/voxelcore/cube"
	"github.com/finevox/voxelcore/intern"
)

// faceGeometry describes one face's normal and the two in-plane axes
// (tangent, bitangent) used to generate its quad corners and sample its
// ambient-occlusion neighbours. tangent x bitangent is not required to
// equal normal; only a consistent, axis-aligned basis per face matters
// here since every quad on a face shares the same basis.
type faceGeometry struct {
	normal    [3]int32
	tangent   [3]int32
	bitangent [3]int32
}

var faceGeometries = [cube.FaceCount]faceGeometry{
	cube.NegX: {normal: [3]int32{-1, 0, 0}, tangent: [3]int32{0, 0, 1}, bitangent: [3]int32{0, 1, 0}},
	cube.PosX: {normal: [3]int32{1, 0, 0}, tangent: [3]int32{0, 0, -1}, bitangent: [3]int32{0, 1, 0}},
	cube.NegY: {normal: [3]int32{0, -1, 0}, tangent: [3]int32{1, 0, 0}, bitangent: [3]int32{0, 0, 1}},
	cube.PosY: {normal: [3]int32{0, 1, 0}, tangent: [3]int32{1, 0, 0}, bitangent: [3]int32{0, 0, -1}},
	cube.NegZ: {normal: [3]int32{0, 0, -1}, tangent: [3]int32{-1, 0, 0}, bitangent: [3]int32{0, 1, 0}},
	cube.PosZ: {normal: [3]int32{0, 0, 1}, tangent: [3]int32{1, 0, 0}, bitangent: [3]int32{0, 1, 0}},
}

// cornerSigns lists the four quad corners of a unit face in winding
// order, as (tangent sign, bitangent sign) pairs.
var cornerSigns = [4][2]int32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

func addInt(v [3]int32, x, y, z int32) [3]int32 {
	return [3]int32{v[0] + x, v[1] + y, v[2] + z}
}

func scaleInt(v [3]int32, s int32) [3]int32 {
	return [3]int32{v[0] * s, v[1] * s, v[2] * s}
}

func sumInt(a, b [3]int32) [3]int32 {
	return [3]int32{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func blockPosFromOffset(chunkOrigin cube.BlockPos, offset [3]int32) cube.BlockPos {
	return cube.BlockPos{X: chunkOrigin.X + offset[0], Y: chunkOrigin.Y + offset[1], Z: chunkOrigin.Z + offset[2]}
}

// cornerAO computes the standard voxel ambient-occlusion value (spec.md
// §4.7: "3 − (side_a_opaque + side_b_opaque + corner_opaque) clamped
// 0-3") for the corner of face f at signs (su,sv), around the block at
// neighbourPos (the cell just outside the visible face).
func cornerAO(in BuildInput, neighbourPos cube.BlockPos, g faceGeometry, su, sv int32) uint8 {
	sideA := sumInt([3]int32{neighbourPos.X, neighbourPos.Y, neighbourPos.Z}, scaleInt(g.tangent, su))
	sideB := sumInt([3]int32{neighbourPos.X, neighbourPos.Y, neighbourPos.Z}, scaleInt(g.bitangent, sv))
	corner := sumInt(sideA, scaleInt(g.bitangent, sv))

	count := 0
	if in.OpaqueAt(cube.BlockPos{X: sideA[0], Y: sideA[1], Z: sideA[2]}) {
		count++
	}
	if in.OpaqueAt(cube.BlockPos{X: sideB[0], Y: sideB[1], Z: sideB[2]}) {
		count++
	}
	if in.OpaqueAt(cube.BlockPos{X: corner[0], Y: corner[1], Z: corner[2]}) {
		count++
	}
	ao := 3 - count
	if ao < 0 {
		ao = 0
	}
	return uint8(ao)
}

// cornerLight averages the packed light of the face's neighbour cell
// with the two tangent/bitangent-adjacent cells and the diagonal cell
// sharing that corner, giving the "4-neighbour averaging of corner sky+block light" smooth
// lighting spec.md §4.7 describes for the naive builder.
func cornerLight(in BuildInput, neighbourPos cube.BlockPos, g faceGeometry, su, sv int32) uint8 {
	base := [3]int32{neighbourPos.X, neighbourPos.Y, neighbourPos.Z}
	sideA := sumInt(base, scaleInt(g.tangent, su))
	sideB := sumInt(base, scaleInt(g.bitangent, sv))
	corner := sumInt(sideA, scaleInt(g.bitangent, sv))

	samples := [4]cube.BlockPos{
		neighbourPos,
		{X: sideA[0], Y: sideA[1], Z: sideA[2]},
		{X: sideB[0], Y: sideB[1], Z: sideB[2]},
		{X: corner[0], Y: corner[1], Z: corner[2]},
	}
	var skySum, blockSum uint32
	for _, p := range samples {
		packed := in.LightAt(p)
		skySum += uint32(packed >> 4)
		blockSum += uint32(packed & 0x0F)
	}
	sky := uint8(skySum / 4)
	block := uint8(blockSum / 4)
	return (sky << 4) | (block & 0x0F)
}

// BuildNaive emits one quad per visible face of every non-air block in
// the subchunk at in.ChunkPos, with per-corner smooth lighting and
// ambient occlusion.
func BuildNaive(in BuildInput) MeshData {
	chunkOrigin := cube.BlockPos{X: in.ChunkPos.X * chunk.Size, Y: in.ChunkPos.Y * chunk.Size, Z: in.ChunkPos.Z * chunk.Size}

	var out MeshData
	boundsSet := false

	for lx := int32(0); lx < chunk.Size; lx++ {
		for ly := int32(0); ly < chunk.Size; ly++ {
			for lz := int32(0); lz < chunk.Size; lz++ {
				pos := cube.BlockPos{X: chunkOrigin.X + lx, Y: chunkOrigin.Y + ly, Z: chunkOrigin.Z + lz}
				id := in.BlockAt(pos)
				if id == intern.AirBlockType {
					continue
				}
				for _, face := range cube.Faces {
					if !faceVisible(in, pos, face) {
						continue
					}
					emitQuad(in, &out, pos, id, face)
					if !boundsSet {
						out.BoundsMin = mgl32.Vec3{float32(chunkOrigin.X), float32(chunkOrigin.Y), float32(chunkOrigin.Z)}
						out.BoundsMax = mgl32.Vec3{float32(chunkOrigin.X + chunk.Size), float32(chunkOrigin.Y + chunk.Size), float32(chunkOrigin.Z + chunk.Size)}
						boundsSet = true
					}
				}
			}
		}
	}

	out.VertexCount = len(out.Vertices)
	out.TriangleCount = len(out.Indices) / 3
	return out
}

func emitQuad(in BuildInput, out *MeshData, pos cube.BlockPos, id intern.BlockTypeID, face cube.Face) {
	g := faceGeometries[face]
	neighbour := pos.Neighbour(face)
	uv := in.TextureOf(id, face)
	uvCorners := [4]mgl32.Vec2{{uv.U0, uv.V1}, {uv.U1, uv.V1}, {uv.U1, uv.V0}, {uv.U0, uv.V0}}

	base := uint32(len(out.Vertices))
	normal := mgl32.Vec3{float32(g.normal[0]), float32(g.normal[1]), float32(g.normal[2])}
	faceCenter := mgl32.Vec3{float32(pos.X) + 0.5, float32(pos.Y) + 0.5, float32(pos.Z) + 0.5}
	faceCenter = faceCenter.Add(normal.Mul(0.5))
	tangent := mgl32.Vec3{float32(g.tangent[0]), float32(g.tangent[1]), float32(g.tangent[2])}.Mul(0.5)
	bitangent := mgl32.Vec3{float32(g.bitangent[0]), float32(g.bitangent[1]), float32(g.bitangent[2])}.Mul(0.5)

	for i, signs := range cornerSigns {
		su, sv := signs[0], signs[1]
		position := faceCenter.Add(tangent.Mul(float32(su))).Add(bitangent.Mul(float32(sv)))
		out.Vertices = append(out.Vertices, Vertex{
			Position: position,
			Normal:   normal,
			UV:       uvCorners[i],
			Light:    cornerLight(in, neighbour, g, su, sv),
			AO:       cornerAO(in, neighbour, g, su, sv),
		})
	}

	out.Indices = append(out.Indices,
		base+0, base+1, base+2,
		base+0, base+2, base+3,
	)
}
