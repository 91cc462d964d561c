package colmgr

import (
	"time"

	"github.com/finevox/voxelcore/cube"
)

// Release lowers pos's ref count by one and, once it reaches zero, runs
// the transition spec.md §4.3 describes: a dirty column is queued for
// save; otherwise a column whose activity timer has expired and that
// the caller's CanUnloadFunc clears moves into the LRU; anything else
// stays Active, pinned by recent activity or a force-loader.
func (m *Manager) Release(pos cube.ColumnPos) {
	m.mu.Lock()
	mc, ok := m.active[pos]
	if !ok {
		m.mu.Unlock()
		return
	}
	if mc.refCount > 0 {
		mc.refCount--
	}
	if mc.refCount > 0 {
		m.mu.Unlock()
		return
	}
	m.applyReleaseTransitionLocked(pos, mc)
	m.mu.Unlock()
}

// applyReleaseTransitionLocked runs the dirty/unload/stay-active
// decision for a column whose ref count is already zero. Callers must
// hold m.mu; it may itself queue a save, which re-enters this same
// decision from the save's completion callback once the column is
// clean.
func (m *Manager) applyReleaseTransitionLocked(pos cube.ColumnPos, mc *managedColumn) {
	if mc.dirty {
		mc.state = SaveQueued
		m.queueSaveLocked(pos, mc)
		return
	}
	if time.Since(mc.lastAccessed) >= m.activityTimeout && m.canUnload(pos) {
		m.moveToLRULocked(pos, mc)
		return
	}
	mc.state = Active
}

// queueSaveLocked hands mc's column to the IO manager and arranges for
// the save's completion to re-run the release decision. Callers must
// hold m.mu; the IO manager call itself happens after unlocking since
// it may push work onto another goroutine that could otherwise deadlock
// trying to re-acquire m.mu from its own completion callback.
func (m *Manager) queueSaveLocked(pos cube.ColumnPos, mc *managedColumn) {
	mc.state = Saving
	col := mc.column
	go func() {
		m.io.QueueSaveWithDone(col, func(err error) {
			if err != nil {
				m.log.Error("colmgr: save failed", "column", pos, "error", err)
			}
			m.onSaveComplete(pos)
		})
	}()
}

func (m *Manager) onSaveComplete(pos cube.ColumnPos) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mc, ok := m.active[pos]
	if !ok || mc.state != Saving {
		return
	}
	mc.dirty = false
	if mc.refCount > 0 {
		mc.state = Active
		return
	}
	m.applyReleaseTransitionLocked(pos, mc)
}

// moveToLRULocked removes pos from the active set and pushes it onto
// the front of the LRU, evicting the least-recently-used entry (calling
// onEvict, if set) whenever this push puts the LRU over capacity.
// Callers must hold m.mu.
func (m *Manager) moveToLRULocked(pos cube.ColumnPos, mc *managedColumn) {
	delete(m.active, pos)
	mc.state = UnloadQueued
	elem := m.lru.PushFront(mc)
	m.lruIndex[pos] = elem
	m.evictOverflowLocked()
}

func (m *Manager) evictOverflowLocked() {
	for m.lru.Len() > m.lruCapacity {
		back := m.lru.Back()
		if back == nil {
			return
		}
		mc := back.Value.(*managedColumn)
		pos := mc.column.Position()
		m.lru.Remove(back)
		delete(m.lruIndex, pos)
		if m.onEvict != nil {
			m.onEvict(pos, mc.column)
		}
	}
}

// Start launches the manager's periodic-save background goroutine.
// Calling it twice panics.
func (m *Manager) Start() {
	m.mu.Lock()
	if m.stopCh != nil {
		m.mu.Unlock()
		panic("colmgr: Manager.Start called twice")
	}
	m.stopCh = make(chan struct{})
	stopCh := m.stopCh
	m.mu.Unlock()

	m.wg.Add(1)
	go m.periodicSaveLoop(stopCh)
}

// Stop signals the periodic-save goroutine to exit and waits for it.
func (m *Manager) Stop() {
	m.mu.Lock()
	stopCh := m.stopCh
	m.mu.Unlock()
	if stopCh == nil {
		return
	}
	close(stopCh)
	m.wg.Wait()
}

func (m *Manager) periodicSaveLoop(stopCh chan struct{}) {
	defer m.wg.Done()
	ticker := time.NewTicker(m.saveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			m.runPeriodicSave()
		}
	}
}

// runPeriodicSave enqueues a save for every Active dirty column without
// evicting it, per spec.md §4.3: "any Active dirty column is enqueued
// for save without requiring eviction".
func (m *Manager) runPeriodicSave() {
	m.mu.Lock()
	var due []cube.ColumnPos
	for pos, mc := range m.active {
		if mc.dirty && mc.state == Active {
			due = append(due, pos)
		}
	}
	for _, pos := range due {
		mc := m.active[pos]
		mc.state = SaveQueued
		m.queueSaveLocked(pos, mc)
	}
	m.mu.Unlock()
}
