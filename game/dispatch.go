package game

import (
	"github.com/finevox/voxelcore/blocktype"
	"github.com/finevox/voxelcore/container"
	"github.com/finevox/voxelcore/cube"
	"github.com/finevox/voxelcore/event"
	"github.com/finevox/voxelcore/intern"
	"github.com/finevox/voxelcore/light"
	"github.com/finevox/voxelcore/world"
)

// applyCommand performs the mutation a queued Command asks for through
// World's internal (event-free) API, then raises the BlockEvent(s) the
// spec's external API promises (spec.md §4.1: "enqueues a BlockEvent to
// the game-thread inbox"). This is the only place those internal
// mutators are called from outside World itself, preserving "only the
// game thread mutates world blocks" (spec.md §5).
func (s *Session) applyCommand(cmd event.Command) {
	switch cmd.Kind {
	case event.CmdPlace:
		s.placeOne(cmd.Pos, cmd.BlockType, cmd.Rotation)
	case event.CmdBreak:
		s.breakOne(cmd.Pos)
	case event.CmdUse:
		s.interact(cmd.Pos, cmd.Face, event.PlayerUse)
	case event.CmdHit:
		s.interact(cmd.Pos, cmd.Face, event.PlayerHit)
	case event.CmdBulkPlace:
		for i := range cmd.Positions {
			if i < len(cmd.Types) {
				s.placeOne(cmd.Positions[i], cmd.Types[i], cube.Rotation{})
			}
		}
	}
}

func (s *Session) placeOne(pos cube.BlockPos, id intern.BlockTypeID, rot cube.Rotation) {
	previous := s.world.Block(pos)
	if previous == id {
		return
	}
	s.world.SetBlock(pos, id)
	s.afterBlockChange(pos, previous, id)

	kind := event.Changed
	switch {
	case previous == intern.AirBlockType && id != intern.AirBlockType:
		kind = event.Placed
	case previous != intern.AirBlockType && id == intern.AirBlockType:
		kind = event.Broken
	}
	s.outbox.Push(event.BlockEvent{
		Kind: kind, Pos: pos, ChunkPos: pos.Chunk(),
		BlockType: id, PreviousType: previous, Rotation: rot,
		Timestamp: event.Now(),
	})
	s.notifyNeighbours(pos)
}

func (s *Session) breakOne(pos cube.BlockPos) {
	s.placeOne(pos, intern.AirBlockType, cube.Rotation{})
}

func (s *Session) interact(pos cube.BlockPos, face cube.Face, kind event.Kind) {
	s.outbox.Push(event.BlockEvent{
		Kind: kind, Pos: pos, ChunkPos: pos.Chunk(),
		BlockType: s.world.Block(pos), Face: face, Timestamp: event.Now(),
	})
}

// notifyNeighbours raises NeighborChanged for every block adjacent to
// pos, face-masked toward pos, matching the BlockUpdate propagation
// spec.md §3's event-kind list implies (a place/break affects whatever
// is touching it, e.g. for redstone-like or falling-block handlers).
func (s *Session) notifyNeighbours(pos cube.BlockPos) {
	for _, face := range cube.Faces {
		n := pos.Neighbour(face)
		s.outbox.Push(event.BlockEvent{
			Kind: event.NeighborChanged, Pos: n, ChunkPos: n.Chunk(),
			BlockType: s.world.Block(n), Face: face.Opposite(),
			FaceMask: cube.FaceMask(0).Set(face.Opposite()),
			Timestamp: event.Now(),
		})
	}
}

// afterBlockChange runs the non-negotiable side effects of any block
// write regardless of whether the caller goes on to raise Placed,
// Broken or Changed: activity-timer refresh (so a burst of writes in
// one column doesn't let it unload mid-burst), lighting re-propagation,
// and mesh invalidation for every subchunk the change could affect.
func (s *Session) afterBlockChange(pos cube.BlockPos, oldType, newType intern.BlockTypeID) {
	colPos := pos.Column()
	if s.loader != nil {
		s.loader.Touch(colPos)
		s.loader.MarkDirty(colPos)
	}
	s.scheduleLighting(pos, oldType, newType)
}

// scheduleLighting hands a LightingUpdate to the lighting worker and
// honours the mesh-rebuild deferral policy of spec.md §4.6: if the
// lighting queue was empty before this push, the worker will push the
// affected subchunks' mesh invalidation itself once propagation
// finishes (OnLightingDirty, installed as the worker's DirtyFunc); otherwise the
// lighting queue was already backed up, so this pushes the mesh
// invalidation immediately and lets the worker keep batching lighting
// freely behind it.
func (s *Session) scheduleLighting(pos cube.BlockPos, oldType, newType intern.BlockTypeID) {
	if s.lightW == nil {
		s.invalidateMesh(pos)
		return
	}
	wasEmpty := s.lightW.Enqueue(light.LightingUpdate{Pos: pos, OldType: oldType, NewType: newType})
	if !wasEmpty {
		s.invalidateMesh(pos)
	}
}

func (s *Session) invalidateMesh(pos cube.BlockPos) {
	if s.meshPool == nil {
		return
	}
	for _, cp := range world.AffectedSubChunks(pos) {
		s.meshPool.Invalidate(cp)
	}
}

// OnLightingDirty is wired as the light.Worker's DirtyFunc: it pushes a
// mesh invalidation for every subchunk lighting touched, the deferred
// half of scheduleLighting's policy.
func (s *Session) OnLightingDirty(affected []cube.ChunkPos) {
	if s.meshPool == nil {
		return
	}
	for _, cp := range affected {
		s.meshPool.Invalidate(cp)
	}
}

// dispatchEvents drains the inbox and runs each BlockEvent through its
// target block type's Handler capabilities, per spec.md §4.5 step 5.
func (s *Session) dispatchEvents() {
	s.outbox.SwapTo(&s.inbox)
	for _, ev := range s.inbox.Drain() {
		s.dispatchOne(ev)
	}
}

func (s *Session) dispatchOne(ev event.BlockEvent) {
	// Broken dispatches against the type that was removed, not the air
	// now occupying the position, since that is whose behaviour fires on
	// removal; every other kind dispatches against the event's current
	// type.
	dispatchType := ev.BlockType
	if ev.Kind == event.Broken {
		dispatchType = ev.PreviousType
	}
	t := s.blocks.MustGet(dispatchType)
	if t.Handler == nil {
		return
	}
	ctx := s.buildContext(ev)
	switch ev.Kind {
	case event.Placed:
		if h, ok := t.Handler.(blocktype.PlaceHandler); ok {
			h.OnPlace(ctx)
		}
	case event.Broken:
		if h, ok := t.Handler.(blocktype.BreakHandler); ok {
			h.OnBreak(ctx)
		}
	case event.TickScheduled, event.TickRepeating, event.TickRandom:
		if h, ok := t.Handler.(blocktype.TickHandler); ok {
			h.OnTick(ctx, ev.TickKind)
		}
	case event.NeighborChanged:
		if h, ok := t.Handler.(blocktype.NeighborChangedHandler); ok {
			h.OnNeighborChanged(ctx, ev.Face)
		}
	case event.BlockUpdate:
		if h, ok := t.Handler.(blocktype.BlockUpdateHandler); ok {
			h.OnBlockUpdate(ctx)
		}
	case event.PlayerUse:
		if h, ok := t.Handler.(blocktype.UseHandler); ok {
			h.OnUse(ctx, ev.Face)
		}
	case event.PlayerHit:
		if h, ok := t.Handler.(blocktype.HitHandler); ok {
			h.OnHit(ctx, ev.Face)
		}
	case event.RepaintRequested:
		if h, ok := t.Handler.(blocktype.RepaintHandler); ok {
			h.OnRepaint(ctx)
		}
	}
}

func (s *Session) buildContext(ev event.BlockEvent) *blocktype.BlockContext {
	var sky, block uint8
	if d, ok := s.world.LightDataAt(ev.Pos.Chunk()); ok {
		lx, ly, lz := ev.Pos.Local()
		sky = d.SkyLight(int32(lx), int32(ly), int32(lz))
		block = d.BlockLight(int32(lx), int32(ly), int32(lz))
	}
	return &blocktype.BlockContext{
		Pos: ev.Pos, Current: ev.BlockType, Previous: ev.PreviousType,
		Rotation: ev.Rotation, SkyLight: sky, BlockLight: block,
		Data: s.blockData(ev.Pos),
	}
}

// blockData returns the per-block metadata sidecar at pos, if its
// column and subchunk are loaded and one has been attached.
func (s *Session) blockData(pos cube.BlockPos) *container.DataContainer {
	col, ok := s.world.Column(pos.Column())
	if !ok {
		return nil
	}
	sc, ok := col.SubChunk(pos.Chunk().Y)
	if !ok {
		return nil
	}
	dc, _ := sc.BlockData(int32(pos.LocalIndex()))
	return dc
}
