// Package queue provides the single-consumer, multi-producer primitives
// the rest of the core builds its worker loops on: a generic FIFO
// Queue[T], a key-deduplicating KeyedQueue[K,D], and WakeSignal, the
// condition variable multiple queues attach to so one consumer can block
// on several of them at once.
package queue

import (
	"sync"
	"time"
)

// WakeSignal lets a single consumer block until any of several attached
// queues has work, an optional deadline passes, or the signal is shut
// down. Several Queue/KeyedQueue instances attach to the same
// WakeSignal so a worker loop only needs one wait point instead of
// selecting across each queue's own notification.
type WakeSignal struct {
	mu          sync.Mutex
	waitCh      chan struct{}
	shutdown    bool
	hasDeadline bool
	deadline    time.Time
}

// NewWakeSignal returns a ready-to-use WakeSignal.
func NewWakeSignal() *WakeSignal {
	return &WakeSignal{waitCh: make(chan struct{})}
}

// Signal wakes every goroutine currently blocked in Wait/WaitTimeout.
// Called by attached queues on push.
func (w *WakeSignal) Signal() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.shutdown {
		return
	}
	close(w.waitCh)
	w.waitCh = make(chan struct{})
}

// SetDeadline arranges for Wait to return at or after t even without a
// Signal call, for scheduled background work (light propagation alarms,
// periodic saves). A later call replaces any previously set deadline.
func (w *WakeSignal) SetDeadline(t time.Time) {
	w.mu.Lock()
	w.hasDeadline = true
	w.deadline = t
	w.mu.Unlock()
}

// ClearDeadline removes any deadline set by SetDeadline.
func (w *WakeSignal) ClearDeadline() {
	w.mu.Lock()
	w.hasDeadline = false
	w.mu.Unlock()
}

// Wait blocks until Signal is called, the configured deadline (if any)
// passes, or Shutdown is called. It returns false only when shutting
// down. After Wait returns, callers should drain every attached queue
// with TryPop/DrainAll since the wake reason isn't distinguished.
func (w *WakeSignal) Wait() bool {
	w.mu.Lock()
	if w.shutdown {
		w.mu.Unlock()
		return false
	}
	ch := w.waitCh
	var timerC <-chan time.Time
	if w.hasDeadline {
		if d := time.Until(w.deadline); d <= 0 {
			w.mu.Unlock()
			return true
		} else {
			timerC = time.After(d)
		}
	}
	w.mu.Unlock()

	select {
	case <-ch:
		return !w.ShuttingDown()
	case <-timerC:
		return true
	}
}

// WaitTimeout behaves like Wait but additionally returns after timeout
// elapses even with no deadline configured.
func (w *WakeSignal) WaitTimeout(timeout time.Duration) bool {
	w.mu.Lock()
	if w.shutdown {
		w.mu.Unlock()
		return false
	}
	ch := w.waitCh
	w.mu.Unlock()

	select {
	case <-ch:
		return !w.ShuttingDown()
	case <-time.After(timeout):
		return true
	}
}

// Shutdown permanently wakes every blocked and future Wait call.
// Idempotent.
func (w *WakeSignal) Shutdown() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.shutdown {
		return
	}
	w.shutdown = true
	close(w.waitCh)
}

// ShuttingDown reports whether Shutdown has been called.
func (w *WakeSignal) ShuttingDown() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.shutdown
}
