package event

import (
	"sync"
	"time"

	"github.com/finevox/voxelcore/cube"
)

// outboxKey identifies one coalescing slot: a (position, kind) pair, per
// spec.md §4.5 ("a hash map keyed by (pos, event_type)").
type outboxKey struct {
	Pos  cube.BlockPos
	Kind Kind
}

// Outbox is the producer-side coalescing map described in spec.md §4.5.
// Any thread may Push; a single consumer (the game thread) periodically
// calls SwapTo to atomically claim everything pending.
//
// Coalescing policy (spec.md §9 open question, resolved here): repeated
// pushes of the *same* kind at the same position merge so the earliest
// PreviousType and latest BlockType survive, the earliest Timestamp is
// kept, and for NeighborChanged the FaceMask accumulates via OR while
// Face retains the most recently pushed value. Across kinds at the same
// position, a Broken event fully supersedes any pending Placed (the net
// visible effect of place-then-break within one coalescing window is "no
// change", so both are dropped); a Placed event superseding a pending
// Broken replaces it outright, since placement is the newer ground
// truth. This mirrors one of the two outbox implementations the
// original source carried (key-by-(pos,type)) rather than the
// priority-replacement variant the other used.
type Outbox struct {
	mu      sync.Mutex
	entries map[outboxKey]*BlockEvent
	order   []outboxKey
}

// NewOutbox returns an empty Outbox.
func NewOutbox() *Outbox {
	return &Outbox{entries: make(map[outboxKey]*BlockEvent)}
}

// Push enqueues ev, coalescing it with any compatible pending entry.
func (o *Outbox) Push(ev BlockEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch ev.Kind {
	case Broken:
		placedKey := outboxKey{Pos: ev.Pos, Kind: Placed}
		if _, ok := o.entries[placedKey]; ok {
			o.removeLocked(placedKey)
			return // place-then-break within one window cancels out
		}
	case Placed:
		brokenKey := outboxKey{Pos: ev.Pos, Kind: Broken}
		if _, ok := o.entries[brokenKey]; ok {
			o.removeLocked(brokenKey)
		}
	}

	key := outboxKey{Pos: ev.Pos, Kind: ev.Kind}
	if existing, ok := o.entries[key]; ok {
		merged := mergeSameKind(existing, &ev)
		o.entries[key] = merged
		return
	}
	stored := ev
	o.entries[key] = &stored
	o.order = append(o.order, key)
}

// removeLocked deletes key from both the map and the order slice.
// Callers hold o.mu.
func (o *Outbox) removeLocked(key outboxKey) {
	delete(o.entries, key)
	for i, k := range o.order {
		if k == key {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
}

// mergeSameKind combines two pushes of the same (pos, kind) pair.
func mergeSameKind(existing, incoming *BlockEvent) *BlockEvent {
	merged := *incoming
	merged.PreviousType = existing.PreviousType
	if existing.Timestamp.Before(incoming.Timestamp) {
		merged.Timestamp = existing.Timestamp
	}
	if incoming.Kind == NeighborChanged {
		merged.FaceMask = existing.FaceMask | incoming.FaceMask
	}
	return &merged
}

// Len returns the number of distinct pending entries.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.order)
}

// SwapTo atomically drains every pending entry, in insertion order, into
// inbox and clears the outbox.
func (o *Outbox) SwapTo(inbox *Inbox) {
	o.mu.Lock()
	order := o.order
	entries := o.entries
	o.order = nil
	o.entries = make(map[outboxKey]*BlockEvent)
	o.mu.Unlock()

	for _, key := range order {
		inbox.events = append(inbox.events, *entries[key])
	}
}

// Inbox is the consumer-side vector the game thread drains each tick
// (spec.md §4.5: "a vector the game thread drains each tick").
type Inbox struct {
	events []BlockEvent
}

// Drain removes and returns every pending event, in the order they were
// swapped in.
func (i *Inbox) Drain() []BlockEvent {
	if len(i.events) == 0 {
		return nil
	}
	out := i.events
	i.events = nil
	return out
}

// Len returns the number of pending events.
func (i *Inbox) Len() int { return len(i.events) }

// nowFunc exists so tests can stub the clock; production code always
// uses time.Now.
var nowFunc = time.Now

// Now returns the current time, used by producers constructing
// BlockEvent.Timestamp.
func Now() time.Time { return nowFunc() }
