package queue

import (
	"sync"
	"time"
)

// MergeFunc combines an existing entry with an incoming one pushed under
// the same key. The default (used by NewKeyed) discards existing and keeps
// incoming.
type MergeFunc[D any] func(existing, incoming D) D

// KeyedQueue is a FIFO that deduplicates by key: pushing an already
// present key merges its data via MergeFunc instead of enqueueing a
// second entry, while the key's position in FIFO order stays fixed at
// its first push. Used for work that coalesces naturally, such as mesh
// rebuild requests for the same chunk arriving faster than the mesh
// worker can drain them.
type KeyedQueue[K comparable, D any] struct {
	mu      sync.Mutex
	cond    *sync.Cond
	order   []K
	present map[K]bool
	data    map[K]D
	merge   MergeFunc[D]
	signal  *WakeSignal

	shutdown bool
	hasAlarm bool
	alarm    time.Time
}

// NewKeyed returns a KeyedQueue whose merge function keeps the incoming value
// on a duplicate push.
func NewKeyed[K comparable, D any]() *KeyedQueue[K, D] {
	return NewKeyedWithMerge[K, D](func(_, incoming D) D { return incoming })
}

// NewKeyedWithMerge returns a KeyedQueue using merge to combine data on
// duplicate pushes.
func NewKeyedWithMerge[K comparable, D any](merge MergeFunc[D]) *KeyedQueue[K, D] {
	q := &KeyedQueue[K, D]{
		present: make(map[K]bool),
		data:    make(map[K]D),
		merge:   merge,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Attach routes push notifications to signal; see Queue.Attach.
func (q *KeyedQueue[K, D]) Attach(signal *WakeSignal) {
	q.mu.Lock()
	q.signal = signal
	hasItems := len(q.order) > 0
	q.mu.Unlock()
	if signal != nil && hasItems {
		signal.Signal()
	}
}

// Detach stops routing notifications to any attached WakeSignal.
func (q *KeyedQueue[K, D]) Detach() {
	q.mu.Lock()
	q.signal = nil
	q.mu.Unlock()
}

// Push enqueues data under key, merging with any existing entry for the
// same key. Returns true if key was newly added, false if merged.
func (q *KeyedQueue[K, D]) Push(key K, data D) bool {
	q.mu.Lock()
	if q.shutdown {
		q.mu.Unlock()
		return false
	}
	isNew := false
	if q.present[key] {
		q.data[key] = q.merge(q.data[key], data)
	} else {
		q.order = append(q.order, key)
		q.present[key] = true
		q.data[key] = data
		isNew = true
	}
	signal := q.signal
	q.mu.Unlock()

	q.cond.Broadcast()
	if signal != nil {
		signal.Signal()
	}
	return isNew
}

// TryPop removes and returns the oldest (key, data) pair, if any.
func (q *KeyedQueue[K, D]) TryPop() (K, D, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.order) == 0 {
		var zk K
		var zd D
		return zk, zd, false
	}
	key := q.order[0]
	q.order = q.order[1:]
	data := q.data[key]
	delete(q.data, key)
	delete(q.present, key)
	return key, data, true
}

// DrainAll removes and returns every pending entry, oldest first.
func (q *KeyedQueue[K, D]) DrainAll() ([]K, []D) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.order) == 0 {
		return nil, nil
	}
	keys := q.order
	datas := make([]D, len(keys))
	for i, k := range keys {
		datas[i] = q.data[k]
		delete(q.data, k)
		delete(q.present, k)
	}
	q.order = nil
	return keys, datas
}

// Contains reports whether key currently has a pending entry.
func (q *KeyedQueue[K, D]) Contains(key K) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.present[key]
}

// Len returns the number of distinct pending keys.
func (q *KeyedQueue[K, D]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}

// SetAlarm schedules a wakeup no later than t, keeping the earliest of
// any previously set alarm (see Queue.SetAlarm).
func (q *KeyedQueue[K, D]) SetAlarm(t time.Time) {
	q.mu.Lock()
	if !q.hasAlarm || t.Before(q.alarm) {
		q.hasAlarm = true
		q.alarm = t
	}
	q.mu.Unlock()
	q.cond.Broadcast()
}

// ClearAlarm cancels any pending alarm.
func (q *KeyedQueue[K, D]) ClearAlarm() {
	q.mu.Lock()
	q.hasAlarm = false
	q.mu.Unlock()
}

// WaitForWork blocks until an entry is pushed, the alarm fires, or
// Shutdown is called, for single-queue consumers.
func (q *KeyedQueue[K, D]) WaitForWork() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for !q.shutdown && len(q.order) == 0 && !q.alarmDueLocked() {
		if q.hasAlarm {
			d := time.Until(q.alarm)
			if d <= 0 {
				break
			}
			q.waitWithTimeout(d)
		} else {
			q.cond.Wait()
		}
	}
	return !q.shutdown
}

func (q *KeyedQueue[K, D]) alarmDueLocked() bool {
	return q.hasAlarm && !time.Now().Before(q.alarm)
}

func (q *KeyedQueue[K, D]) waitWithTimeout(d time.Duration) {
	woken := make(chan struct{})
	timer := time.AfterFunc(d, func() {
		q.cond.Broadcast()
	})
	go func() {
		<-woken
		timer.Stop()
	}()
	q.cond.Wait()
	close(woken)
}

// Shutdown wakes every blocked waiter and attached WakeSignal; further
// pushes become silent no-ops. Idempotent.
func (q *KeyedQueue[K, D]) Shutdown() {
	q.mu.Lock()
	if q.shutdown {
		q.mu.Unlock()
		return
	}
	q.shutdown = true
	signal := q.signal
	q.mu.Unlock()

	q.cond.Broadcast()
	if signal != nil {
		signal.Signal()
	}
}

// Clear discards every pending entry without affecting shutdown state.
func (q *KeyedQueue[K, D]) Clear() {
	q.mu.Lock()
	q.order = nil
	for k := range q.present {
		delete(q.present, k)
	}
	for k := range q.data {
		delete(q.data, k)
	}
	q.mu.Unlock()
}
