package game

import (
	"sync"

	"github.com/brentp/intintmap"
	"github.com/segmentio/fasthash/fnv1a"

	"github.com/finevox/voxelcore/blocktype"
	"github.com/finevox/voxelcore/cube"
)

// DueTick is one scheduled or repeating tick whose deadline has arrived,
// ready for dispatch as a TickScheduled/TickRepeating BlockEvent.
type DueTick struct {
	Pos  cube.BlockPos
	Kind blocktype.TickKind
}

type scheduledTick struct {
	pos         cube.BlockPos
	kind        blocktype.TickKind
	dueAt       uint64
	repeatEvery uint64
	cancelled   bool
}

// compactInterval is how many DueTicks calls (i.e. game ticks) pass
// between TickSchedule reclaiming cancelled/fired one-shot slots, ~60s
// at the default 20 TPS, matching colmgr.DefaultSaveInterval's cadence
// for "periodic housekeeping" in this pack.
const compactInterval = 1200

// TickSchedule is the scheduled/repeating half of spec.md §4.5 step 3
// ("process scheduled ticks whose deadline has passed"). Positions are
// looked up by a fasthash FNV-1a digest of (pos, kind) stored in an
// intintmap.Map, the teacher's own int64-keyed open-addressing map
// dependency, so re-scheduling a tick already pending at the same
// position replaces it in O(1) instead of appending a duplicate;
// cancelled and already-fired one-shot entries are only actually
// reclaimed by an occasional compaction pass rather than on every
// single cancellation, since intintmap itself offers no delete.
type TickSchedule struct {
	mu           sync.Mutex
	entries      []scheduledTick
	index        *intintmap.Map
	sinceCompact int
}

// NewTickSchedule returns an empty TickSchedule.
func NewTickSchedule() *TickSchedule {
	return &TickSchedule{index: intintmap.New(256, 0.75)}
}

func scheduleKey(pos cube.BlockPos, kind blocktype.TickKind) int64 {
	h := fnv1a.HashUint64(pos.Pack())
	h = fnv1a.AddUint64(h, uint64(kind))
	return int64(h)
}

// Schedule arranges for kind to fire at pos at now+delay, replacing any
// pending tick of the same kind already scheduled there. repeatEvery > 0
// re-arms the tick for another repeatEvery ticks after each firing
// (TickRepeating); pass 0 for a one-shot TickScheduled/TickRandom tick.
func (s *TickSchedule) Schedule(pos cube.BlockPos, kind blocktype.TickKind, now, delay, repeatEvery uint64) {
	key := scheduleKey(pos, kind)
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx, ok := s.index.Get(key); ok {
		if e := &s.entries[idx]; e.pos == pos && e.kind == kind {
			e.dueAt = now + delay
			e.repeatEvery = repeatEvery
			e.cancelled = false
			return
		}
	}
	s.entries = append(s.entries, scheduledTick{pos: pos, kind: kind, dueAt: now + delay, repeatEvery: repeatEvery})
	s.index.Put(key, int64(len(s.entries)-1))
}

// Cancel removes any pending tick of kind at pos.
func (s *TickSchedule) Cancel(pos cube.BlockPos, kind blocktype.TickKind) {
	key := scheduleKey(pos, kind)
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx, ok := s.index.Get(key); ok {
		if e := &s.entries[idx]; e.pos == pos && e.kind == kind {
			e.cancelled = true
		}
	}
}

// DueTicks returns every entry whose deadline is <= now, re-arming
// repeating entries for their next interval and retiring one-shot
// entries. Intended to be called exactly once per game tick.
func (s *TickSchedule) DueTicks(now uint64) []DueTick {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []DueTick
	for i := range s.entries {
		e := &s.entries[i]
		if e.cancelled || e.dueAt > now {
			continue
		}
		due = append(due, DueTick{Pos: e.pos, Kind: e.kind})
		if e.repeatEvery > 0 {
			e.dueAt = now + e.repeatEvery
		} else {
			e.cancelled = true
		}
	}

	s.sinceCompact++
	if s.sinceCompact >= compactInterval {
		s.compactLocked()
	}
	return due
}

// compactLocked drops every cancelled entry and rebuilds the index from
// scratch. Callers must hold s.mu.
func (s *TickSchedule) compactLocked() {
	s.sinceCompact = 0
	kept := s.entries[:0]
	for _, e := range s.entries {
		if !e.cancelled {
			kept = append(kept, e)
		}
	}
	s.entries = kept

	newIndex := intintmap.New(len(s.entries)+16, 0.75)
	for i, e := range s.entries {
		newIndex.Put(scheduleKey(e.pos, e.kind), int64(i))
	}
	s.index = newIndex
}

// Len returns the number of entries currently tracked, including
// cancelled ones awaiting the next compaction.
func (s *TickSchedule) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
