package light

import (
	"github.com/finevox/voxelcore/blocktype"
	"github.com/finevox/voxelcore/cube"
	"github.com/finevox/voxelcore/intern"
)

// BlockSource is the narrow view into the loaded world propagation
// needs: block types (to read opacity/emission/attenuation from the
// block-type registry), per-subchunk light storage, and the heightmap
// that tells sky-light propagation where to start. World implements
// this; light itself has no dependency on the world package, matching
// the capability-interface style used throughout the core.
type BlockSource interface {
	BlockTypeAt(pos cube.BlockPos) intern.BlockTypeID
	LightDataAt(chunkPos cube.ChunkPos) (*Data, bool)
	HeightAt(colPos cube.ColumnPos, localX, localZ int32) int32
}

// attenuationOf returns the per-step light loss for id, at least 1
// regardless of the registered attenuation, so every transparent block
// still costs something crossing it.
func attenuationOf(id intern.BlockTypeID) uint8 {
	t, ok := blocktype.Global().Get(id)
	if !ok || t.LightAttenuation < 1 {
		return 1
	}
	return t.LightAttenuation
}

func isOpaque(id intern.BlockTypeID) bool {
	t, ok := blocktype.Global().Get(id)
	return ok && t.Opaque
}

func emissionOf(id intern.BlockTypeID) uint8 {
	t, ok := blocktype.Global().Get(id)
	if !ok {
		return 0
	}
	return t.LightEmission
}

func readLevel(src BlockSource, pos cube.BlockPos, channel Channel) uint8 {
	d, ok := src.LightDataAt(pos.Chunk())
	if !ok {
		return 0
	}
	idx := pos.LocalIndex()
	if channel == ChannelSky {
		return d.SkyLightAt(int32(idx))
	}
	return d.BlockLightAt(int32(idx))
}

func writeLevel(src BlockSource, pos cube.BlockPos, channel Channel, level uint8) {
	d, ok := src.LightDataAt(pos.Chunk())
	if !ok {
		return
	}
	if channel == ChannelSky {
		d.SetSkyLight(pos.X&0xF, pos.Y&0xF, pos.Z&0xF, level)
		return
	}
	d.SetBlockLight(pos.X&0xF, pos.Y&0xF, pos.Z&0xF, level)
}

// Channel selects which of the two light values a propagation pass
// writes.
type Channel uint8

const (
	ChannelSky Channel = iota
	ChannelBlock
)

// bfs spreads light outward from frontier using breadth-first search,
// decrementing by attenuationOf(neighbour) (minimum 1) per step and
// stopping at opaque blocks or once a neighbour already holds a level
// at least as bright as the one being offered.
func bfs(src BlockSource, frontier []cube.BlockPos, channel Channel) {
	queue := append([]cube.BlockPos(nil), frontier...)
	for len(queue) > 0 {
		pos := queue[0]
		queue = queue[1:]

		level := readLevel(src, pos, channel)
		if level <= 1 {
			continue
		}
		for _, face := range cube.Faces {
			np := pos.Neighbour(face)
			id := src.BlockTypeAt(np)
			if isOpaque(id) {
				continue
			}
			step := attenuationOf(id)
			if step > level {
				continue
			}
			newLevel := level - step
			if newLevel <= readLevel(src, np, channel) {
				continue
			}
			writeLevel(src, np, channel, newLevel)
			queue = append(queue, np)
		}
	}
}

// PropagateSkyLightColumn fills sky light for one loaded column: every
// block at or above HeightAt(x,z) is set to MaxLight directly. A BFS
// frontier is then seeded at every directly-filled cell that borders a
// cell this pass did *not* direct-fill — whether that's the cell
// straight below it (the classic "topmost blocker" case), a horizontal
// neighbour whose own column is capped lower (an overhang's edge), or a
// neighbour across the loaded column's boundary, whose fill state this
// pass has no heightmap for and so must treat as open. BFS then spreads
// from every such boundary cell sideways and down into any overhang or
// cave reachable through non-opaque blocks; bfs's own monotonic-
// increase guard and isOpaque(BlockTypeAt(...)) check make over-seeding
// at a loaded column's edge harmless, since a neighbour that turns out
// to be solid rock or already lit simply isn't queued further.
// topChunkY, bottomChunkY bound the loaded subchunk range to scan.
func PropagateSkyLightColumn(src BlockSource, colPos cube.ColumnPos, topChunkY, bottomChunkY int32) {
	var heights [16][16]int32
	for localX := int32(0); localX < 16; localX++ {
		for localZ := int32(0); localZ < 16; localZ++ {
			heights[localX][localZ] = src.HeightAt(colPos, localX, localZ)
		}
	}

	// filled reports whether (localX, worldY, localZ) is direct-filled by
	// this pass. A position outside the loaded 16x16 grid belongs to a
	// neighbouring column this pass has no heightmap for, so it is always
	// treated as not-filled: better to seed an extra, harmless frontier
	// point than to silently wall off a column's edge.
	filled := func(localX, worldY, localZ int32) bool {
		if localX < 0 || localX >= 16 || localZ < 0 || localZ >= 16 {
			return false
		}
		return worldY >= heights[localX][localZ]
	}

	top := topChunkY*16 + 15

	var frontier []cube.BlockPos
	for localX := int32(0); localX < 16; localX++ {
		for localZ := int32(0); localZ < 16; localZ++ {
			height := heights[localX][localZ]
			worldX := colPos.X*16 + localX
			worldZ := colPos.Z*16 + localZ
			for chunkY := topChunkY; chunkY >= bottomChunkY; chunkY-- {
				for localY := int32(15); localY >= 0; localY-- {
					worldY := chunkY*16 + localY
					if worldY < height {
						continue
					}
					pos := cube.BlockPos{X: worldX, Y: worldY, Z: worldZ}
					writeLevel(src, pos, ChannelSky, MaxLight)

					boundary := worldY == top ||
						!filled(localX, worldY-1, localZ) ||
						!filled(localX-1, worldY, localZ) ||
						!filled(localX+1, worldY, localZ) ||
						!filled(localX, worldY, localZ-1) ||
						!filled(localX, worldY, localZ+1)
					if boundary {
						frontier = append(frontier, pos)
					}
				}
			}
		}
	}
	bfs(src, frontier, ChannelSky)
}

// RemoveSkyLightColumn clears sky light for every loaded subchunk in
// the given Y range and re-derives it via PropagateSkyLightColumn. A
// full clear-then-refill is simpler and cheap enough at column
// granularity to use instead of the dark-wave removal BFS a single
// block change would need; ResetLightInitialized plus this call is
// what the core uses after bulk terrain edits (world generation,
// schematic paste).
func RemoveSkyLightColumn(src BlockSource, colPos cube.ColumnPos, topChunkY, bottomChunkY int32) {
	for chunkY := topChunkY; chunkY >= bottomChunkY; chunkY-- {
		if d, ok := src.LightDataAt(cube.ChunkPos{X: colPos.X, Y: chunkY, Z: colPos.Z}); ok {
			d.FillSkyLight(NoLight)
		}
	}
	PropagateSkyLightColumn(src, colPos, topChunkY, bottomChunkY)
}

// PropagateBlockLightColumn seeds block light from every emitting block
// found in the given Y range of colPos and spreads it via BFS.
func PropagateBlockLightColumn(src BlockSource, colPos cube.ColumnPos, topChunkY, bottomChunkY int32) {
	var frontier []cube.BlockPos
	for chunkY := topChunkY; chunkY >= bottomChunkY; chunkY-- {
		for localX := int32(0); localX < 16; localX++ {
			for localY := int32(0); localY < 16; localY++ {
				for localZ := int32(0); localZ < 16; localZ++ {
					pos := cube.BlockPos{
						X: colPos.X*16 + localX,
						Y: chunkY*16 + localY,
						Z: colPos.Z*16 + localZ,
					}
					id := src.BlockTypeAt(pos)
					if e := emissionOf(id); e > 0 {
						writeLevel(src, pos, ChannelBlock, e)
						frontier = append(frontier, pos)
					}
				}
			}
		}
	}
	bfs(src, frontier, ChannelBlock)
}

// unbfs retracts light that chained outward from sources, each carrying
// the level it held immediately before its origin changed. Popping a
// position whose neighbour holds a strictly dimmer level confirms that
// neighbour was lit by this chain, so it is cleared to 0 and queued for
// further retraction; a neighbour at least as bright must be fed by some
// other, still-valid source, so it is returned in relight instead, for
// bfs to re-spread back into whatever the retraction just darkened.
func unbfs(src BlockSource, sources []cube.BlockPos, levels []uint8, channel Channel) []cube.BlockPos {
	type entry struct {
		pos   cube.BlockPos
		level uint8
	}
	queue := make([]entry, len(sources))
	for i, p := range sources {
		queue[i] = entry{p, levels[i]}
	}

	var relight []cube.BlockPos
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]
		if e.level == 0 {
			continue
		}
		for _, face := range cube.Faces {
			np := e.pos.Neighbour(face)
			level := readLevel(src, np, channel)
			if level == 0 {
				continue
			}
			if level < e.level {
				writeLevel(src, np, channel, 0)
				queue = append(queue, entry{np, level})
			} else {
				relight = append(relight, np)
			}
		}
	}
	return relight
}

// applyChannelChange sets pos's channel level to newLevel, retracting
// via unbfs first if that darkens pos, and returns the frontier a
// follow-up bfs call should re-propagate from: pos itself (so a level
// that rose, or a source that still emits, spreads outward) plus every
// immediate neighbour (so a level already held there can flow back into
// pos, covering the case where pos itself grew dimmer or newly
// transparent and needs lighting pulled in rather than pushed out).
func applyChannelChange(src BlockSource, pos cube.BlockPos, channel Channel, newLevel uint8) []cube.BlockPos {
	before := readLevel(src, pos, channel)
	var frontier []cube.BlockPos
	switch {
	case newLevel < before:
		writeLevel(src, pos, channel, newLevel)
		frontier = unbfs(src, []cube.BlockPos{pos}, []uint8{before}, channel)
	case newLevel > before:
		writeLevel(src, pos, channel, newLevel)
	}

	frontier = append(frontier, pos)
	for _, face := range cube.Faces {
		frontier = append(frontier, pos.Neighbour(face))
	}
	return frontier
}

// UpdateAfterBlockChange re-seeds lighting around a single changed
// block, in both directions: a block that now emits more, or that
// uncovered a path light used to be blocked from, brightens outward the
// way it always has; a block that now emits less, or that newly blocks
// a path light used to travel through, darkens via applyChannelChange's
// unbfs retraction, which clears exactly what was sourced through pos
// and hands back whatever neighbouring source is still valid for bfs to
// re-claim the darkened region from. Block light's new level is read
// straight from the block type's emission; sky light is forced to 0 at
// pos when the new type is opaque and otherwise left for bfs to settle
// from neighbours, matching how PropagateSkyLightColumn itself only
// ever derives sky light from direct-fill or lateral spread, never a
// per-block intrinsic value.
func UpdateAfterBlockChange(src BlockSource, pos cube.BlockPos) {
	id := src.BlockTypeAt(pos)

	blockFrontier := applyChannelChange(src, pos, ChannelBlock, emissionOf(id))
	bfs(src, blockFrontier, ChannelBlock)

	skyLevel := readLevel(src, pos, ChannelSky)
	if isOpaque(id) {
		skyLevel = 0
	}
	skyFrontier := applyChannelChange(src, pos, ChannelSky, skyLevel)
	bfs(src, skyFrontier, ChannelSky)
}
