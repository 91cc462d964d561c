package regionfile

import (
	"container/list"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/finevox/voxelcore/cube"
	"github.com/finevox/voxelcore/nameregistry"
	"github.com/finevox/voxelcore/queue"
	"github.com/finevox/voxelcore/world"
)

// DefaultOpenRegions is the default size of the IOManager's bounded LRU
// of open Region handles (spec.md §4.4: "an LRU of at most a configured
// number of Regions with open file handles").
const DefaultOpenRegions = 16

// loadRequest is one pending request_load call.
type loadRequest struct {
	pos    cube.ColumnPos
	result chan<- LoadResult
}

// saveRequest pairs a column with the optional completion callback its
// queuer wants invoked once the write (or its failure) lands, so a
// caller such as colmgr can know when it's safe to leave its Saving
// state without the saver thread needing to know anything about column
// lifecycle.
type saveRequest struct {
	col  *world.Column
	done func(error)
}

type LoadResult struct {
	Column *world.Column
	OK     bool
	Err    error
}

// IOManager drives region file access from two dedicated threads, one
// handling loads and one handling saves, matching the columnmgr's own
// split producer/consumer design (spec.md §4.5's "state machine thread"
// pattern applied here to disk I/O instead of lifecycle transitions).
// Both threads share the same bounded LRU of open Region handles so a
// load and a save for the same region reuse one open file pair instead
// of racing to open it twice.
type IOManager struct {
	root     string
	registry *nameregistry.Registry
	log      *slog.Logger

	regionMu  sync.Mutex
	lru       *list.List // front = most recently used
	byCoord   map[RegionCoord]*list.Element
	maxOpen   int

	loadQueue *queue.KeyedQueue[cube.ColumnPos, loadRequest]
	saveQueue *queue.KeyedQueue[cube.ColumnPos, saveRequest]

	wg       sync.WaitGroup
	stopOnce sync.Once
}

type lruEntry struct {
	coord  RegionCoord
	region *Region
}

// NewIOManager returns an IOManager rooted at root (the "regions/<dim>"
// directory for one dimension), persisting block palettes through
// registry.
func NewIOManager(root string, registry *nameregistry.Registry, log *slog.Logger) *IOManager {
	if log == nil {
		log = slog.Default()
	}
	m := &IOManager{
		root:      root,
		registry:  registry,
		log:       log,
		lru:       list.New(),
		byCoord:   make(map[RegionCoord]*list.Element),
		maxOpen:   DefaultOpenRegions,
		loadQueue: queue.NewKeyed[cube.ColumnPos, loadRequest](),
		saveQueue: queue.NewKeyedWithMerge[cube.ColumnPos, saveRequest](func(existing, incoming saveRequest) saveRequest {
			// A newer save for the same column always supersedes a pending
			// older one; the superseded request's caller still needs its
			// own completion notice, so both callbacks fire once the
			// surviving (incoming) write actually lands.
			if existing.done == nil {
				return incoming
			}
			supersededDone := existing.done
			incomingDone := incoming.done
			incoming.done = func(err error) {
				supersededDone(err)
				if incomingDone != nil {
					incomingDone(err)
				}
			}
			return incoming
		}),
	}
	m.wg.Add(2)
	go m.loadLoop()
	go m.saveLoop()
	return m
}

// RequestLoad asynchronously loads the column at pos, delivering the
// Result on the returned channel exactly once. Callers that need a
// synchronous load can simply receive immediately.
func (m *IOManager) RequestLoad(pos cube.ColumnPos) <-chan LoadResult {
	ch := make(chan LoadResult, 1)
	m.loadQueue.Push(pos, loadRequest{pos: pos, result: ch})
	return ch
}

// QueueSave asynchronously persists col. A second QueueSave for the same
// column before the first runs replaces it, matching spec.md §4.5's "a
// dirty column can be re-queued any number of times before it is
// actually written; only the latest state is ever persisted".
func (m *IOManager) QueueSave(col *world.Column) {
	m.saveQueue.Push(col.Position(), saveRequest{col: col})
}

// QueueSaveWithDone behaves like QueueSave but additionally invokes done
// (with a non-nil error on failure) once the write for this request has
// landed, letting a caller such as colmgr know when it is safe to leave
// its Saving state for the column. done runs on the save worker thread.
func (m *IOManager) QueueSaveWithDone(col *world.Column, done func(error)) {
	m.saveQueue.Push(col.Position(), saveRequest{col: col, done: done})
}

// PendingSaves returns the number of columns queued but not yet written,
// for shutdown-drain progress reporting.
func (m *IOManager) PendingSaves() int { return m.saveQueue.Len() }

func (m *IOManager) loadLoop() {
	defer m.wg.Done()
	for m.loadQueue.WaitForWork() {
		_, reqs := m.loadQueue.DrainAll()
		for _, req := range reqs {
			col, ok, err := m.loadColumn(req.pos)
			req.result <- LoadResult{Column: col, OK: ok, Err: err}
			close(req.result)
		}
	}
}

func (m *IOManager) saveLoop() {
	defer m.wg.Done()
	for m.saveQueue.WaitForWork() {
		_, reqs := m.saveQueue.DrainAll()
		for _, req := range reqs {
			err := m.saveColumn(req.col)
			if err != nil {
				m.log.Error("regionfile: save failed", "column", req.col.Position(), "error", err)
			}
			if req.done != nil {
				req.done(err)
			}
		}
	}
}

func (m *IOManager) loadColumn(pos cube.ColumnPos) (*world.Column, bool, error) {
	region, err := m.regionFor(pos)
	if err != nil {
		return nil, false, err
	}
	raw, ok, err := region.Read(pos)
	if err != nil || !ok {
		return nil, false, err
	}
	col, err := DecodeColumn(pos, raw, m.registry)
	if err != nil {
		return nil, false, err
	}
	return col, true, nil
}

func (m *IOManager) saveColumn(col *world.Column) error {
	region, err := m.regionFor(col.Position())
	if err != nil {
		return err
	}
	raw, err := EncodeColumn(col, m.registry)
	if err != nil {
		return err
	}
	return region.Write(col.Position(), raw, uint64(time.Now().UnixNano()))
}

// regionFor returns (opening if necessary) the Region owning pos,
// touching it in the LRU and evicting the least-recently-used handle if
// this open pushed the manager over its configured limit.
func (m *IOManager) regionFor(pos cube.ColumnPos) (*Region, error) {
	rc := RegionCoordOf(pos)

	m.regionMu.Lock()
	if elem, ok := m.byCoord[rc]; ok {
		m.lru.MoveToFront(elem)
		region := elem.Value.(*lruEntry).region
		m.regionMu.Unlock()
		return region, nil
	}
	m.regionMu.Unlock()

	dataPath, tocPath := FileNames(m.root, rc)
	region, err := Open(dataPath, tocPath)
	if err != nil {
		return nil, fmt.Errorf("regionfile: open region %+v: %w", rc, err)
	}

	m.regionMu.Lock()
	defer m.regionMu.Unlock()
	if elem, ok := m.byCoord[rc]; ok {
		// Lost the race against a concurrent open; close the duplicate and
		// use the one that won.
		region.Close()
		m.lru.MoveToFront(elem)
		return elem.Value.(*lruEntry).region, nil
	}

	elem := m.lru.PushFront(&lruEntry{coord: rc, region: region})
	m.byCoord[rc] = elem
	m.evictIfOverLocked()
	return region, nil
}

func (m *IOManager) evictIfOverLocked() {
	for m.lru.Len() > m.maxOpen {
		back := m.lru.Back()
		if back == nil {
			return
		}
		entry := back.Value.(*lruEntry)
		m.lru.Remove(back)
		delete(m.byCoord, entry.coord)
		if err := entry.region.Close(); err != nil {
			m.log.Warn("regionfile: close evicted region", "region", entry.coord, "error", err)
		}
	}
}

// Stop shuts both queues down and closes every open region handle. It
// blocks until in-flight load/save work has finished; requests still
// queued when Stop is called are not processed.
func (m *IOManager) Stop() {
	m.stopOnce.Do(func() {
		m.loadQueue.Shutdown()
		m.saveQueue.Shutdown()
		m.wg.Wait()

		m.regionMu.Lock()
		defer m.regionMu.Unlock()
		for elem := m.lru.Front(); elem != nil; elem = elem.Next() {
			entry := elem.Value.(*lruEntry)
			if err := entry.region.Close(); err != nil {
				m.log.Warn("regionfile: close region on shutdown", "region", entry.coord, "error", err)
			}
		}
		m.lru.Init()
		m.byCoord = make(map[RegionCoord]*list.Element)
	})
}
