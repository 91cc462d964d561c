package mesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/finevox/voxelcore/chunk"
	"github.com/finevox/voxelcore/cube"
	"github.com/finevox/voxelcore/intern"
)

// cellKey is the merge identity for one visible unit face: quads only
// merge when every field matches (spec.md §4.7: "merges coplanar
// adjacent quads that share (block type, face, UV tile, light value,
// ambient-occlusion class)"). Greedy merging necessarily uses one flat
// light/AO sample per unit face rather than BuildNaive's four
// independently-smoothed corners, since a merged quad can only carry a
// single set of corner values for its whole (possibly large) area.
type cellKey struct {
	id    intern.BlockTypeID
	uv    UVRect
	light uint8
	ao    uint8
	set   bool
}

// BuildGreedy performs one axis-aligned sweep per face direction,
// merging adjacent unit faces that share a cellKey into the largest
// possible rectangle before emitting a single quad for it.
func BuildGreedy(in BuildInput) MeshData {
	chunkOrigin := cube.BlockPos{X: in.ChunkPos.X * chunk.Size, Y: in.ChunkPos.Y * chunk.Size, Z: in.ChunkPos.Z * chunk.Size}

	var out MeshData
	for _, face := range cube.Faces {
		buildGreedyFace(in, &out, chunkOrigin, face)
	}
	out.VertexCount = len(out.Vertices)
	out.TriangleCount = len(out.Indices) / 3
	if out.VertexCount > 0 {
		out.BoundsMin = mgl32.Vec3{float32(chunkOrigin.X), float32(chunkOrigin.Y), float32(chunkOrigin.Z)}
		out.BoundsMax = mgl32.Vec3{float32(chunkOrigin.X + chunk.Size), float32(chunkOrigin.Y + chunk.Size), float32(chunkOrigin.Z + chunk.Size)}
	}
	return out
}

// layerAxes returns the axis the face's normal points along and the two
// axes that sweep the 16x16 mask plane, as indices into a [3]int32
// (0=x,1=y,2=z).
func layerAxes(face cube.Face) (normalAxis, uAxis, vAxis int) {
	switch face.Axis() {
	case cube.AxisX:
		return 0, 2, 1
	case cube.AxisY:
		return 1, 0, 2
	default:
		return 2, 0, 1
	}
}

func buildGreedyFace(in BuildInput, out *MeshData, chunkOrigin cube.BlockPos, face cube.Face) {
	g := faceGeometries[face]
	normalAxis, uAxis, vAxis := layerAxes(face)

	for layer := int32(0); layer < chunk.Size; layer++ {
		var mask [chunk.Size][chunk.Size]cellKey

		for u := int32(0); u < chunk.Size; u++ {
			for v := int32(0); v < chunk.Size; v++ {
				coord := [3]int32{}
				coord[normalAxis] = layer
				coord[uAxis] = u
				coord[vAxis] = v
				pos := blockPosFromOffset(chunkOrigin, coord)

				id := in.BlockAt(pos)
				if id == intern.AirBlockType || !faceVisible(in, pos, face) {
					continue
				}
				neighbour := pos.Neighbour(face)
				mask[u][v] = cellKey{
					id:    id,
					uv:    in.TextureOf(id, face),
					light: in.LightAt(neighbour),
					ao:    cornerAO(in, neighbour, g, -1, -1),
					set:   true,
				}
			}
		}

		mergeMaskIntoQuads(in, out, chunkOrigin, face, normalAxis, uAxis, vAxis, layer, mask)
	}
}

// mergeMaskIntoQuads runs the standard greedy-meshing sweep over mask,
// growing each unmerged cell first along u then along v to the largest
// matching rectangle, emitting one quad per rectangle and clearing its
// cells so they are not considered again.
func mergeMaskIntoQuads(in BuildInput, out *MeshData, chunkOrigin cube.BlockPos, face cube.Face, normalAxis, uAxis, vAxis int, layer int32, mask [chunk.Size][chunk.Size]cellKey) {
	var used [chunk.Size][chunk.Size]bool

	for u := 0; u < chunk.Size; u++ {
		for v := 0; v < chunk.Size; v++ {
			if used[u][v] || !mask[u][v].set {
				continue
			}
			key := mask[u][v]

			width := 1
			for u+width < chunk.Size && !used[u+width][v] && mask[u+width][v] == key {
				width++
			}

			height := 1
		heightLoop:
			for v+height < chunk.Size {
				for du := 0; du < width; du++ {
					if used[u+du][v+height] || mask[u+du][v+height] != key {
						break heightLoop
					}
				}
				height++
			}

			for du := 0; du < width; du++ {
				for dv := 0; dv < height; dv++ {
					used[u+du][v+dv] = true
				}
			}

			emitMergedQuad(in, out, chunkOrigin, face, normalAxis, uAxis, vAxis, layer, int32(u), int32(v), int32(width), int32(height), key)
		}
	}
}

func emitMergedQuad(in BuildInput, out *MeshData, chunkOrigin cube.BlockPos, face cube.Face, normalAxis, uAxis, vAxis int, layer, u, v, width, height int32, key cellKey) {
	g := faceGeometries[face]
	normal := mgl32.Vec3{float32(g.normal[0]), float32(g.normal[1]), float32(g.normal[2])}

	// minC/maxC are in block-grid units relative to the
	// subchunk; the face sits at layer + 1 along the normal when the
	// normal is positive, at layer otherwise.
	minC := [3]int32{}
	minC[normalAxis] = layer
	minC[uAxis] = u
	minC[vAxis] = v
	maxC := minC
	maxC[uAxis] = u + width
	maxC[vAxis] = v + height
	if g.normal[normalAxis] > 0 {
		minC[normalAxis] = layer + 1
		maxC[normalAxis] = layer + 1
	}

	toVec := func(c [3]int32) mgl32.Vec3 {
		return mgl32.Vec3{
			float32(chunkOrigin.X + c[0]),
			float32(chunkOrigin.Y + c[1]),
			float32(chunkOrigin.Z + c[2]),
		}
	}

	c00 := minC
	c10 := minC
	c10[uAxis] = maxC[uAxis]
	c11 := maxC
	c01 := minC
	c01[vAxis] = maxC[vAxis]

	corners := [4]mgl32.Vec3{toVec(c00), toVec(c10), toVec(c11), toVec(c01)}
	widthF, heightF := float32(width), float32(height)
	uvCorners := [4]mgl32.Vec2{
		{key.uv.U0, key.uv.V1},
		{key.uv.U0 + (key.uv.U1-key.uv.U0)*widthF, key.uv.V1},
		{key.uv.U0 + (key.uv.U1-key.uv.U0)*widthF, key.uv.V0 + (key.uv.V1-key.uv.V0)*heightF},
		{key.uv.U0, key.uv.V0 + (key.uv.V1-key.uv.V0)*heightF},
	}

	base := uint32(len(out.Vertices))
	for i, c := range corners {
		out.Vertices = append(out.Vertices, Vertex{
			Position: c,
			Normal:   normal,
			UV:       uvCorners[i],
			Light:    key.light,
			AO:       key.ao,
		})
	}
	out.Indices = append(out.Indices, base+0, base+1, base+2, base+0, base+2, base+3)
}
