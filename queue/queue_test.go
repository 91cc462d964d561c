package queue_test

import (
	"testing"
	"time"

	"github.com/finevox/voxelcore/queue"
)

func TestQueuePushTryPopFIFO(t *testing.T) {
	q := queue.New[int]()
	q.Push(1)
	q.Push(2)
	q.Push(3)

	for _, want := range []int{1, 2, 3} {
		got, ok := q.TryPop()
		if !ok || got != want {
			t.Fatalf("TryPop() = (%d, %v), want (%d, true)", got, ok, want)
		}
	}
	if _, ok := q.TryPop(); ok {
		t.Fatalf("expected empty queue")
	}
}

func TestQueueDrainAllAndUpTo(t *testing.T) {
	q := queue.New[int]()
	q.PushBatch([]int{1, 2, 3, 4, 5})

	first := q.DrainUpTo(2)
	if len(first) != 2 || first[0] != 1 || first[1] != 2 {
		t.Fatalf("DrainUpTo(2) = %v", first)
	}
	rest := q.DrainAll()
	if len(rest) != 3 || rest[0] != 3 {
		t.Fatalf("DrainAll() = %v", rest)
	}
	if q.Len() != 0 {
		t.Fatalf("expected queue to be empty after draining")
	}
}

func TestQueueShutdownDropsSubsequentPushes(t *testing.T) {
	q := queue.New[int]()
	q.Push(1)
	q.Shutdown()
	q.Push(2)

	if q.Len() != 1 {
		t.Fatalf("push after shutdown should be a no-op, queue has %d items", q.Len())
	}
}

func TestQueueWaitForWorkWakesOnPush(t *testing.T) {
	q := queue.New[int]()
	done := make(chan bool, 1)
	go func() {
		done <- q.WaitForWork()
	}()

	time.Sleep(10 * time.Millisecond)
	q.Push(42)

	select {
	case woke := <-done:
		if !woke {
			t.Fatalf("WaitForWork returned false, want true")
		}
	case <-time.After(time.Second):
		t.Fatalf("WaitForWork did not wake up after a push")
	}
}

func TestQueueWaitForWorkWakesOnShutdown(t *testing.T) {
	q := queue.New[int]()
	done := make(chan bool, 1)
	go func() {
		done <- q.WaitForWork()
	}()

	time.Sleep(10 * time.Millisecond)
	q.Shutdown()

	select {
	case woke := <-done:
		if woke {
			t.Fatalf("WaitForWork returned true after shutdown, want false")
		}
	case <-time.After(time.Second):
		t.Fatalf("WaitForWork did not wake up after shutdown")
	}
}

func TestWakeSignalWakesAttachedQueueConsumer(t *testing.T) {
	signal := queue.NewWakeSignal()
	meshQueue := queue.New[string]()
	guiQueue := queue.New[string]()
	meshQueue.Attach(signal)
	guiQueue.Attach(signal)

	woke := make(chan bool, 1)
	go func() {
		woke <- signal.Wait()
	}()

	time.Sleep(10 * time.Millisecond)
	guiQueue.Push("refresh")

	select {
	case ok := <-woke:
		if !ok {
			t.Fatalf("signal.Wait() = false, want true")
		}
	case <-time.After(time.Second):
		t.Fatalf("WakeSignal did not wake for an attached queue's push")
	}
	item, ok := guiQueue.TryPop()
	if !ok || item != "refresh" {
		t.Fatalf("TryPop() = (%q, %v)", item, ok)
	}
}

func TestKeyedQueuePreservesFirstPushOrder(t *testing.T) {
	q := queue.NewKeyed[string, int]()
	q.Push("b", 1)
	q.Push("a", 2)
	q.Push("b", 3) // merges into "b", order unaffected

	keys, datas := q.DrainAll()
	if len(keys) != 2 || keys[0] != "b" || keys[1] != "a" {
		t.Fatalf("keys = %v, want [b a]", keys)
	}
	if datas[0] != 3 {
		t.Fatalf("expected default merge to keep the incoming value, got %d", datas[0])
	}
}

func TestKeyedQueueCustomMerge(t *testing.T) {
	type request struct{ priority, version int }
	q := queue.NewKeyedWithMerge[string, request](func(existing, incoming request) request {
		p := existing.priority
		if incoming.priority < p {
			p = incoming.priority
		}
		return request{priority: p, version: incoming.version}
	})

	q.Push("chunk", request{priority: 100, version: 1})
	q.Push("chunk", request{priority: 50, version: 2})

	_, data, ok := q.TryPop()
	if !ok || data.priority != 50 || data.version != 2 {
		t.Fatalf("merged request = %+v", data)
	}
}

func TestKeyedQueueShutdownDropsPushes(t *testing.T) {
	q := queue.NewKeyed[int, int]()
	q.Shutdown()
	if q.Push(1, 1) {
		t.Fatalf("push after shutdown should report not-added")
	}
	if q.Len() != 0 {
		t.Fatalf("expected no entries after shutdown push")
	}
}
