package mesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/finevox/voxelcore/chunk"
	"github.com/finevox/voxelcore/cube"
	"github.com/finevox/voxelcore/intern"
	"github.com/finevox/voxelcore/lod"
)

// BuildLOD builds a subchunk's mesh at the given LOD level, merging
// groups of 2^level blocks into single coarse samples per spec.md §4.7:
// "Higher LOD levels merge NxNxN block groups to a single sample point
// (type = most-common non-air in block; light = average)". Level 0 is
// full detail and simply delegates to BuildGreedy. mode controls how
// aggressively vertical seams merge, per lod.MergeMode.
func BuildLOD(in BuildInput, level uint8, mode lod.MergeMode) MeshData {
	if level == 0 {
		return BuildGreedy(in)
	}
	group := int32(1) << level
	if group > chunk.Size {
		group = chunk.Size
	}

	vGroup := group
	switch mode {
	case lod.NoMerge:
		vGroup = 1
	case lod.HeightLimited:
		if vGroup > 4 {
			vGroup = 4
		}
	}

	cellsX := (chunk.Size + group - 1) / group
	cellsY := (chunk.Size + vGroup - 1) / vGroup
	cellsZ := (chunk.Size + group - 1) / group

	chunkOrigin := cube.BlockPos{X: in.ChunkPos.X * chunk.Size, Y: in.ChunkPos.Y * chunk.Size, Z: in.ChunkPos.Z * chunk.Size}

	grid := make([][][]coarseCell, cellsX)
	for cx := range grid {
		grid[cx] = make([][]coarseCell, cellsY)
		for cy := range grid[cx] {
			grid[cx][cy] = make([]coarseCell, cellsZ)
		}
	}

	for cx := int32(0); cx < cellsX; cx++ {
		for cy := int32(0); cy < cellsY; cy++ {
			for cz := int32(0); cz < cellsZ; cz++ {
				grid[cx][cy][cz] = sampleCoarseCell(in, chunkOrigin, cx*group, cy*vGroup, cz*group, group, vGroup, group)
			}
		}
	}

	var out MeshData
	for cx := int32(0); cx < cellsX; cx++ {
		for cy := int32(0); cy < cellsY; cy++ {
			for cz := int32(0); cz < cellsZ; cz++ {
				cell := grid[cx][cy][cz]
				if !cell.any {
					continue
				}
				min := cube.BlockPos{X: chunkOrigin.X + cx*group, Y: chunkOrigin.Y + cy*vGroup, Z: chunkOrigin.Z + cz*group}
				max := cube.BlockPos{X: min.X + group, Y: min.Y + vGroup, Z: min.Z + group}
				emitLODBox(&out, in, cell.id, cell.light, min, max)
			}
		}
	}

	out.VertexCount = len(out.Vertices)
	out.TriangleCount = len(out.Indices) / 3
	if out.VertexCount > 0 {
		out.BoundsMin = mgl32.Vec3{float32(chunkOrigin.X), float32(chunkOrigin.Y), float32(chunkOrigin.Z)}
		out.BoundsMax = mgl32.Vec3{float32(chunkOrigin.X + chunk.Size), float32(chunkOrigin.Y + chunk.Size), float32(chunkOrigin.Z + chunk.Size)}
	}
	return out
}

// coarseCell is one merged LOD sample: the majority-vote block type and
// averaged light across the group, or a cell with no non-air blocks at
// all (any == false) when nothing should be emitted there.
type coarseCell struct {
	id    intern.BlockTypeID
	light uint8
	any   bool
}

func sampleCoarseCell(in BuildInput, origin cube.BlockPos, ox, oy, oz, sx, sy, sz int32) coarseCell {
	counts := make(map[intern.BlockTypeID]int)
	var lightSum, lightN uint32

	for dx := int32(0); dx < sx && ox+dx < chunk.Size; dx++ {
		for dy := int32(0); dy < sy && oy+dy < chunk.Size; dy++ {
			for dz := int32(0); dz < sz && oz+dz < chunk.Size; dz++ {
				pos := cube.BlockPos{X: origin.X + ox + dx, Y: origin.Y + oy + dy, Z: origin.Z + oz + dz}
				id := in.BlockAt(pos)
				if id == intern.AirBlockType {
					continue
				}
				counts[id]++
				lightSum += uint32(in.LightAt(pos))
				lightN++
			}
		}
	}

	if len(counts) == 0 {
		return coarseCell{}
	}
	var best intern.BlockTypeID
	bestCount := -1
	for id, n := range counts {
		if n > bestCount {
			best, bestCount = id, n
		}
	}
	var light uint8
	if lightN > 0 {
		light = uint8(lightSum / lightN)
	}
	return coarseCell{id: best, light: light, any: true}
}

// emitLODBox emits one quad per visible face of a coarse merged box,
// using the center of its adjacent-face boundary to probe opacity since
// the actual neighbouring terrain can vary across the merged area.
func emitLODBox(out *MeshData, in BuildInput, id intern.BlockTypeID, light uint8, min, max cube.BlockPos) {
	uv := func(face cube.Face) UVRect { return in.TextureOf(id, face) }

	type faceBox struct {
		face   cube.Face
		probe  cube.BlockPos
		v0, v1 mgl32.Vec3 // opposite corners of the quad on this face
	}

	cx, cy, cz := (min.X+max.X)/2, (min.Y+max.Y)/2, (min.Z+max.Z)/2
	faces := []faceBox{
		{cube.NegX, cube.BlockPos{X: min.X - 1, Y: cy, Z: cz},
			mgl32.Vec3{float32(min.X), float32(min.Y), float32(min.Z)}, mgl32.Vec3{float32(min.X), float32(max.Y), float32(max.Z)}},
		{cube.PosX, cube.BlockPos{X: max.X, Y: cy, Z: cz},
			mgl32.Vec3{float32(max.X), float32(min.Y), float32(min.Z)}, mgl32.Vec3{float32(max.X), float32(max.Y), float32(max.Z)}},
		{cube.NegY, cube.BlockPos{X: cx, Y: min.Y - 1, Z: cz},
			mgl32.Vec3{float32(min.X), float32(min.Y), float32(min.Z)}, mgl32.Vec3{float32(max.X), float32(min.Y), float32(max.Z)}},
		{cube.PosY, cube.BlockPos{X: cx, Y: max.Y, Z: cz},
			mgl32.Vec3{float32(min.X), float32(max.Y), float32(min.Z)}, mgl32.Vec3{float32(max.X), float32(max.Y), float32(max.Z)}},
		{cube.NegZ, cube.BlockPos{X: cx, Y: cy, Z: min.Z - 1},
			mgl32.Vec3{float32(min.X), float32(min.Y), float32(min.Z)}, mgl32.Vec3{float32(max.X), float32(max.Y), float32(min.Z)}},
		{cube.PosZ, cube.BlockPos{X: cx, Y: cy, Z: max.Z},
			mgl32.Vec3{float32(min.X), float32(min.Y), float32(max.Z)}, mgl32.Vec3{float32(max.X), float32(max.Y), float32(max.Z)}},
	}

	for _, fb := range faces {
		if in.OpaqueAt(fb.probe) {
			continue
		}
		emitAxisQuad(out, fb.face, fb.v0, fb.v1, uv(fb.face), light)
	}
}

// emitAxisQuad emits a single axis-aligned rectangle spanning the two
// opposite corners v0,v1 on a face with the given constant axis implied
// by face; used by the LOD builder where quads can be larger than one
// unit block.
func emitAxisQuad(out *MeshData, face cube.Face, v0, v1 mgl32.Vec3, uv UVRect, light uint8) {
	g := faceGeometries[face]
	normal := mgl32.Vec3{float32(g.normal[0]), float32(g.normal[1]), float32(g.normal[2])}

	_, uAxis, _ := layerAxes(face)
	c00 := v0
	c11 := v1
	c10 := v0
	c01 := v0
	switch uAxis {
	case 0:
		c10[0] = v1[0]
		c01[1], c01[2] = v1[1], v1[2]
		c01[0] = v0[0]
	case 1:
		c10[1] = v1[1]
		c01[0], c01[2] = v1[0], v1[2]
		c01[1] = v0[1]
	default:
		c10[2] = v1[2]
		c01[0], c01[1] = v1[0], v1[1]
		c01[2] = v0[2]
	}

	base := uint32(len(out.Vertices))
	corners := [4]mgl32.Vec3{c00, c10, c11, c01}
	uvCorners := [4]mgl32.Vec2{{uv.U0, uv.V1}, {uv.U1, uv.V1}, {uv.U1, uv.V0}, {uv.U0, uv.V0}}
	for i, c := range corners {
		out.Vertices = append(out.Vertices, Vertex{Position: c, Normal: normal, UV: uvCorners[i], Light: light, AO: 3})
	}
	out.Indices = append(out.Indices, base+0, base+1, base+2, base+0, base+2, base+3)
}
