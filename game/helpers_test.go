package game_test

import (
	"testing"

	"github.com/finevox/voxelcore/blocktype"
	"github.com/finevox/voxelcore/game"
	"github.com/finevox/voxelcore/world"
)

// newTestSession returns a Session wired to a fresh World and a fresh
// per-test block-type registry, with no lighting worker, mesh pool or
// column loader attached: enough to exercise command dispatch, tick
// scheduling and zone tracking without pulling in disk or worker-pool
// setup those tests don't need.
func newTestSession(t *testing.T) *game.Session {
	t.Helper()
	w := world.New()
	registry := blocktype.NewRegistry()
	return game.NewSession(w, registry, nil, nil, nil, game.Config{}, nil)
}
