package game_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finevox/voxelcore/cube"
	"github.com/finevox/voxelcore/game"
)

func TestEntitySourceCapturesProviderSnapshotOntoQueue(t *testing.T) {
	want := []game.EntitySnapshot{{ID: uuid.New(), Pos: cube.BlockPos{X: 1, Y: 2, Z: 3}}}
	calls := 0
	src := game.NewEntitySource(func() []game.EntitySnapshot {
		calls++
		return want
	})

	_, ok := src.Queue().TryPop()
	require.False(t, ok, "queue should start empty")

	src.Capture()
	got, ok := src.Queue().TryPop()
	require.True(t, ok)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, calls)
}

func TestEntitySourceNilProviderNeverPushes(t *testing.T) {
	src := game.NewEntitySource(nil)
	src.Capture()
	_, ok := src.Queue().TryPop()
	assert.False(t, ok)
}

func TestEntitySourceProviderReturningNilSkipsPush(t *testing.T) {
	src := game.NewEntitySource(func() []game.EntitySnapshot { return nil })
	src.Capture()
	_, ok := src.Queue().TryPop()
	assert.False(t, ok)
}
