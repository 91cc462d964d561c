// Package game implements the single-consumer "game thread" spec.md
// §4.5/§9 describes as the sole mutation authority over World: it drains
// the command queue World's external block API feeds, applies scheduled
// and random ticks, dispatches BlockEvents to registered block handlers,
// and hands off lighting updates and mesh invalidations to their own
// worker threads, all on one goroutine woken by a single WakeSignal.
//
// Grounded on spec.md §4.5's six-step loop and dragonfly's own
// server/world/tick.go + server/world/world.go "single goroutine owns
// block mutation" shape (the teacher has no literal game-thread type
// since it folds the loop into World itself, but the one-owner-one-loop
// principle and the tick/entity-snapshot/random-tick split are the same
// idiom this package generalizes).
package game

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/finevox/voxelcore/blocktype"
	"github.com/finevox/voxelcore/cube"
	"github.com/finevox/voxelcore/event"
	"github.com/finevox/voxelcore/intern"
	"github.com/finevox/voxelcore/light"
	"github.com/finevox/voxelcore/mesh"
	"github.com/finevox/voxelcore/queue"
	"github.com/finevox/voxelcore/world"
)

// DefaultTickRate is 20 TPS, spec.md §4.5's default simulation rate.
const DefaultTickRate = 20

// Config bundles the session's tunables. Zero-value fields fall back to
// their spec-mandated defaults in NewSession.
type Config struct {
	// TickRate is how many ticks per second the session targets.
	TickRate int
	// RandomTicksPerChunk is how many random-tick candidate positions
	// are proposed per loaded chunk per tick (spec.md §4.5 step 4).
	RandomTicksPerChunk int
}

func (c Config) withDefaults() Config {
	if c.TickRate <= 0 {
		c.TickRate = DefaultTickRate
	}
	return c
}

// Loader is the narrow surface Session needs from colmgr: refreshing a
// column's activity timer and marking it dirty after a block write.
type Loader interface {
	Touch(pos cube.ColumnPos)
	MarkDirty(pos cube.ColumnPos)
}

// Session is the game thread: the only goroutine allowed to mutate
// World's blocks (spec.md §5: "Only the game thread mutates world
// blocks or enqueues handler-driven effects"). It owns the command
// inbox, the block-event outbox/inbox pair, the tick and random-tick
// schedules, and the handoffs to the lighting and mesh worker pools.
type Session struct {
	cfg Config
	log *slog.Logger

	world     *world.World
	blocks    *blocktype.Registry
	loader    Loader
	lightW    *light.Worker
	meshPool  *mesh.Pool
	entities  *EntitySource

	commands *queue.Queue[event.Command]
	wake     *queue.WakeSignal
	outbox   *event.Outbox
	inbox    event.Inbox

	ticks   *TickSchedule
	random  *RandomTicker
	// tickNum is read from ScheduleTick/Tick, which spec.md §4.1's
	// external block API calls from arbitrary caller goroutines, not
	// just the game thread itself; atomic access avoids a data race
	// against the game thread's own Step incrementing it.
	tickNum uint64

	running atomic32
	stopCh  chan struct{}
	wg      sync.WaitGroup

	mu          sync.Mutex
	simulated   map[cube.ChunkPos]struct{}
}

// atomic32 is a tiny mutex-guarded bool used for the single
// running/not-running check.
type atomic32 struct {
	mu  sync.Mutex
	set bool
}

func (a *atomic32) setTrue() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.set {
		return false
	}
	a.set = true
	return true
}

func (a *atomic32) clear() {
	a.mu.Lock()
	a.set = false
	a.mu.Unlock()
}

// NewSession wires a Session over w, dispatching through blocks and
// coordinating with loader (column activity/dirty tracking), lightW
// (the dedicated lighting thread) and meshPool (the mesh worker pool).
// w must not yet be bound to another UpdateScheduler.
func NewSession(w *world.World, blocks *blocktype.Registry, loader Loader, lightW *light.Worker, meshPool *mesh.Pool, cfg Config, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	if blocks == nil {
		blocks = blocktype.Global()
	}
	cfg = cfg.withDefaults()
	s := &Session{
		cfg:       cfg,
		log:       log,
		world:     w,
		blocks:    blocks,
		loader:    loader,
		lightW:    lightW,
		meshPool:  meshPool,
		commands:  queue.New[event.Command](),
		wake:      queue.NewWakeSignal(),
		outbox:    event.NewOutbox(),
		ticks:     NewTickSchedule(),
		random:    NewRandomTicker(cfg.RandomTicksPerChunk),
		simulated: make(map[cube.ChunkPos]struct{}),
	}
	s.commands.Attach(s.wake)
	w.BindScheduler(s)
	return s
}

// Submit implements world.UpdateScheduler: it enqueues cmd for the next
// tick's drain and always succeeds while the session is running.
func (s *Session) Submit(cmd event.Command) bool {
	if !s.isRunning() {
		return false
	}
	s.commands.Push(cmd)
	return true
}

func (s *Session) isRunning() bool {
	s.running.mu.Lock()
	defer s.running.mu.Unlock()
	return s.running.set
}

// PushEvent lets collaborators outside the command path (the column
// loader announcing ChunkLoaded/ChunkUnloaded) raise a BlockEvent
// directly onto the outbox without going through a Command.
func (s *Session) PushEvent(ev event.BlockEvent) { s.outbox.Push(ev) }

// Outbox exposes the producer-side coalescing map so other subsystems
// (chunk loader, repaint triggers) can push events the same way the
// command-driven path does.
func (s *Session) Outbox() *event.Outbox { return s.outbox }

// SetEntitySource installs the capability collaborator Session polls
// once per tick for a snapshot to forward to the graphics queue
// (spec.md §4.5 step 6). Passing nil disables snapshot capture.
func (s *Session) SetEntitySource(src *EntitySource) { s.entities = src }

// Tick returns the current world tick counter.
func (s *Session) Tick() uint64 { return atomic.LoadUint64(&s.tickNum) }

// ScheduleTick arranges for kind to fire at pos after delay ticks,
// replacing any pending tick of the same kind already scheduled there.
// repeatEvery > 0 re-arms the tick after it fires; 0 makes it one-shot.
func (s *Session) ScheduleTick(pos cube.BlockPos, kind blocktype.TickKind, delay, repeatEvery uint64) {
	s.ticks.Schedule(pos, kind, atomic.LoadUint64(&s.tickNum), delay, repeatEvery)
}

// CancelTick removes a pending scheduled/repeating tick at pos, if any.
func (s *Session) CancelTick(pos cube.BlockPos, kind blocktype.TickKind) {
	s.ticks.Cancel(pos, kind)
}

// TrackSimulated marks chunkPos as within simulation range, eligible for
// per-tick random ticking; UntrackSimulated removes it. The viewpoint
// owner (typically a ZoneTracker, see zones.go) calls these as chunks
// enter/leave the simulation radius.
func (s *Session) TrackSimulated(pos cube.ChunkPos) {
	s.mu.Lock()
	s.simulated[pos] = struct{}{}
	s.mu.Unlock()
}

// UntrackSimulated removes pos from the random-tick rotation.
func (s *Session) UntrackSimulated(pos cube.ChunkPos) {
	s.mu.Lock()
	delete(s.simulated, pos)
	s.mu.Unlock()
}

// SimulatedChunks returns the chunks currently tracked for random-tick
// eligibility, primarily useful for tests and debug overlays.
func (s *Session) SimulatedChunks() []cube.ChunkPos { return s.simulatedSnapshot() }

func (s *Session) simulatedSnapshot() []cube.ChunkPos {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]cube.ChunkPos, 0, len(s.simulated))
	for p := range s.simulated {
		out = append(out, p)
	}
	return out
}

// Start launches the game-thread goroutine. Calling it twice panics.
func (s *Session) Start() {
	if !s.running.setTrue() {
		panic("game: Session.Start called twice")
	}
	s.stopCh = make(chan struct{})
	s.wg.Add(1)
	go s.run(s.stopCh)
}

// Stop signals the loop to exit and waits for it, a two-phase stop
// matching spec.md §5's "request_stop on all, then join all" shutdown.
func (s *Session) Stop() {
	if !s.isRunning() {
		return
	}
	close(s.stopCh)
	s.commands.Shutdown()
	s.wake.Shutdown()
	s.wg.Wait()
	s.running.clear()
}

// run is the loop spec.md §4.5 describes: wait on a wake signal bound to
// the command queue and a tick alarm, drain whatever arrived, and run a
// full tick once the alarm's deadline is reached. A wake caused by a
// command push ahead of the next deadline just drains commands (so
// submitted commands are applied with low latency)
// without running ticks/lighting/mesh work early.
func (s *Session) run(stopCh chan struct{}) {
	defer s.wg.Done()
	interval := time.Second / time.Duration(s.cfg.TickRate)
	next := time.Now().Add(interval)
	s.wake.SetDeadline(next)

	for s.wake.Wait() {
		select {
		case <-stopCh:
			return
		default:
		}
		now := time.Now()
		if now.Before(next) {
			s.drainCommands()
			continue
		}
		s.Step()
		next = next.Add(interval)
		if next.Before(now) {
			next = now.Add(interval)
		}
		s.wake.SetDeadline(next)
	}
}

// Step runs one full tick of spec.md §4.5's loop body synchronously:
// drain commands, fire due ticks, advance world time with random
// ticking, dispatch the resulting events, and capture an entity
// snapshot. The run loop calls this on its own schedule once Start is
// called; callers driving a deterministic test harness or a
// single-step debug command may call it directly instead, but must not
// do so concurrently with a running session.
func (s *Session) Step() {
	s.drainCommands()
	s.runDueTicks()
	atomic.AddUint64(&s.tickNum, 1)
	s.runRandomTicks()
	s.dispatchEvents()
	s.captureEntitySnapshot()
}

func (s *Session) drainCommands() {
	cmds := s.commands.DrainAll()
	for _, cmd := range cmds {
		s.applyCommand(cmd)
	}
	if len(cmds) > 0 {
		s.dispatchEvents()
	}
}

func (s *Session) runDueTicks() {
	for _, dt := range s.ticks.DueTicks(atomic.LoadUint64(&s.tickNum)) {
		s.outbox.Push(event.BlockEvent{
			Kind:      tickEventKind(dt.Kind),
			Pos:       dt.Pos,
			ChunkPos:  dt.Pos.Chunk(),
			BlockType: s.world.Block(dt.Pos),
			TickKind:  dt.Kind,
			Timestamp: event.Now(),
		})
	}
}

func tickEventKind(k blocktype.TickKind) event.Kind {
	switch k {
	case blocktype.TickRepeating:
		return event.TickRepeating
	case blocktype.TickRandom:
		return event.TickRandom
	default:
		return event.TickScheduled
	}
}

func (s *Session) runRandomTicks() {
	if s.random.PerChunk <= 0 {
		return
	}
	for _, chunkPos := range s.simulatedSnapshot() {
		for _, pos := range s.random.Positions(chunkPos, atomic.LoadUint64(&s.tickNum)) {
			id := s.world.Block(pos)
			if id == intern.AirBlockType {
				continue
			}
			s.outbox.Push(event.BlockEvent{
				Kind:      event.TickRandom,
				Pos:       pos,
				ChunkPos:  chunkPos,
				BlockType: id,
				TickKind:  blocktype.TickRandom,
				Timestamp: event.Now(),
			})
		}
	}
}

func (s *Session) captureEntitySnapshot() {
	if s.entities == nil {
		return
	}
	s.entities.Capture()
}
