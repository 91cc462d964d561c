package game

import (
	"github.com/google/uuid"

	"github.com/finevox/voxelcore/cube"
	"github.com/finevox/voxelcore/queue"
)

// EntitySnapshot is the minimal per-entity state the game thread hands
// to the graphics collaborator once per tick (spec.md §4.5 step 6:
// "capture entity snapshots into the graphics event queue"). The core
// has no entity simulation of its own (spec.md's Non-goals: "no entity
// AI"); this is purely the transport format a game module's entity
// system publishes through.
type EntitySnapshot struct {
	ID       uuid.UUID
	Pos      cube.BlockPos
	Rotation cube.Rotation
}

// EntitySnapshotProvider is the capability collaborator an embedding
// game module implements: a pull of every entity's current render state
// as of the moment it's called, always on the game thread.
type EntitySnapshotProvider func() []EntitySnapshot

// EntitySource bridges a game module's EntitySnapshotProvider to the
// graphics thread: each Capture call pulls a fresh snapshot and
// pushes it onto a queue the graphics thread drains at its own pace,
// decoupling the two threads' cadences the same way every other
// cross-thread handoff in this core is a queue rather than a direct
// call (spec.md §9: "there is no direct cross-thread function calling").
type EntitySource struct {
	provider EntitySnapshotProvider
	outbox   *queue.Queue[[]EntitySnapshot]
}

// NewEntitySource returns an EntitySource pulling from provider.
func NewEntitySource(provider EntitySnapshotProvider) *EntitySource {
	return &EntitySource{provider: provider, outbox: queue.New[[]EntitySnapshot]()}
}

// Queue returns the graphics-facing queue of captured snapshots.
func (e *EntitySource) Queue() *queue.Queue[[]EntitySnapshot] { return e.outbox }

// Capture pulls one snapshot from provider and pushes it onto Queue, a
// no-op if provider is nil or returns nil. Session calls this once per
// tick; nothing stops an embedding game module from calling it directly
// too (e.g. to force an out-of-band snapshot after a bulk entity move).
func (e *EntitySource) Capture() {
	if e.provider == nil {
		return
	}
	snapshot := e.provider()
	if snapshot == nil {
		return
	}
	e.outbox.Push(snapshot)
}
