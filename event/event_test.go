package event_test

import (
	"testing"
	"time"

	"github.com/finevox/voxelcore/cube"
	"github.com/finevox/voxelcore/event"
	"github.com/finevox/voxelcore/intern"
)

func TestOutboxCoalescesRepeatedPlacement(t *testing.T) {
	o := event.NewOutbox()
	pos := cube.BlockPos{X: 1, Y: 2, Z: 3}
	t1 := intern.BlockType("event_test_t1")
	t2 := intern.BlockType("event_test_t2")

	base := time.Now()
	o.Push(event.BlockEvent{Kind: event.Placed, Pos: pos, PreviousType: intern.AirBlockType, BlockType: t1, Timestamp: base})
	o.Push(event.BlockEvent{Kind: event.Placed, Pos: pos, PreviousType: t1, BlockType: t2, Timestamp: base.Add(time.Millisecond)})

	var inbox event.Inbox
	o.SwapTo(&inbox)
	events := inbox.Drain()
	if len(events) != 1 {
		t.Fatalf("expected exactly one coalesced event, got %d", len(events))
	}
	ev := events[0]
	if ev.PreviousType != intern.AirBlockType {
		t.Fatalf("PreviousType = %v, want air (earliest)", ev.PreviousType)
	}
	if ev.BlockType != t2 {
		t.Fatalf("BlockType = %v, want t2 (latest)", ev.BlockType)
	}
	if !ev.Timestamp.Equal(base) {
		t.Fatalf("Timestamp = %v, want earliest %v", ev.Timestamp, base)
	}
}

func TestOutboxBreakCancelsPendingPlace(t *testing.T) {
	o := event.NewOutbox()
	pos := cube.BlockPos{X: 0, Y: 0, Z: 0}
	stone := intern.BlockType("event_test_stone")

	o.Push(event.BlockEvent{Kind: event.Placed, Pos: pos, PreviousType: intern.AirBlockType, BlockType: stone})
	o.Push(event.BlockEvent{Kind: event.Broken, Pos: pos, PreviousType: stone, BlockType: intern.AirBlockType})

	if n := o.Len(); n != 0 {
		t.Fatalf("expected place-then-break to cancel out, got %d pending entries", n)
	}
}

func TestOutboxPlaceReplacesPendingBreak(t *testing.T) {
	o := event.NewOutbox()
	pos := cube.BlockPos{X: 0, Y: 0, Z: 0}
	dirt := intern.BlockType("event_test_dirt")

	o.Push(event.BlockEvent{Kind: event.Broken, Pos: pos, PreviousType: dirt, BlockType: intern.AirBlockType})
	o.Push(event.BlockEvent{Kind: event.Placed, Pos: pos, PreviousType: intern.AirBlockType, BlockType: dirt})

	var inbox event.Inbox
	o.SwapTo(&inbox)
	events := inbox.Drain()
	if len(events) != 1 || events[0].Kind != event.Placed {
		t.Fatalf("expected a single surviving Placed event, got %+v", events)
	}
}

func TestOutboxNeighborChangedMergesFaceMask(t *testing.T) {
	o := event.NewOutbox()
	pos := cube.BlockPos{X: 4, Y: 4, Z: 4}

	o.Push(event.BlockEvent{Kind: event.NeighborChanged, Pos: pos, Face: cube.NegX, FaceMask: cube.FaceMask(0).Set(cube.NegX)})
	o.Push(event.BlockEvent{Kind: event.NeighborChanged, Pos: pos, Face: cube.PosY, FaceMask: cube.FaceMask(0).Set(cube.PosY)})

	var inbox event.Inbox
	o.SwapTo(&inbox)
	events := inbox.Drain()
	if len(events) != 1 {
		t.Fatalf("expected one coalesced NeighborChanged event, got %d", len(events))
	}
	mask := events[0].FaceMask
	if !mask.Has(cube.NegX) || !mask.Has(cube.PosY) {
		t.Fatalf("expected merged mask to include both faces, got %#x", mask)
	}
	if events[0].Face != cube.PosY {
		t.Fatalf("Face = %v, want most recent PosY", events[0].Face)
	}
}

func TestInboxDrainIsOrdered(t *testing.T) {
	o := event.NewOutbox()
	a := cube.BlockPos{X: 0, Y: 0, Z: 0}
	b := cube.BlockPos{X: 1, Y: 0, Z: 0}
	stone := intern.BlockType("event_test_order_stone")

	o.Push(event.BlockEvent{Kind: event.Placed, Pos: a, BlockType: stone})
	o.Push(event.BlockEvent{Kind: event.Placed, Pos: b, BlockType: stone})

	var inbox event.Inbox
	o.SwapTo(&inbox)
	events := inbox.Drain()
	if len(events) != 2 || events[0].Pos != a || events[1].Pos != b {
		t.Fatalf("expected insertion order [a, b], got %+v", events)
	}
}
