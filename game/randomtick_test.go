package game_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/finevox/voxelcore/cube"
	"github.com/finevox/voxelcore/game"
)

func TestRandomTickerDeterministic(t *testing.T) {
	r := game.NewRandomTicker(4)
	chunk := cube.ChunkPos{X: 3, Y: -1, Z: 7}

	a := r.Positions(chunk, 100)
	b := r.Positions(chunk, 100)
	assert.Equal(t, a, b, "same (chunk, tick) must propose the same positions")

	c := r.Positions(chunk, 101)
	assert.NotEqual(t, a, c, "a different tick should (almost always) propose different positions")
}

func TestRandomTickerPositionsWithinChunkBounds(t *testing.T) {
	r := game.NewRandomTicker(8)
	chunk := cube.ChunkPos{X: -2, Y: 5, Z: 1}

	for _, pos := range r.Positions(chunk, 42) {
		assert.GreaterOrEqual(t, pos.X, chunk.X*16)
		assert.Less(t, pos.X, chunk.X*16+16)
		assert.GreaterOrEqual(t, pos.Y, chunk.Y*16)
		assert.Less(t, pos.Y, chunk.Y*16+16)
		assert.GreaterOrEqual(t, pos.Z, chunk.Z*16)
		assert.Less(t, pos.Z, chunk.Z*16+16)
	}
}

func TestRandomTickerZeroPerChunkDisabled(t *testing.T) {
	r := game.NewRandomTicker(0)
	assert.Nil(t, r.Positions(cube.ChunkPos{}, 1))

	r = game.NewRandomTicker(-5)
	assert.Equal(t, 0, r.PerChunk)
}

func TestRandomTickerCountMatchesPerChunk(t *testing.T) {
	r := game.NewRandomTicker(6)
	positions := r.Positions(cube.ChunkPos{X: 1, Y: 1, Z: 1}, 9)
	assert.Len(t, positions, 6)
}
