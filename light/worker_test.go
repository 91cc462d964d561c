package light_test

import (
	"sync"
	"testing"
	"time"

	"github.com/finevox/voxelcore/blocktype"
	"github.com/finevox/voxelcore/cube"
	"github.com/finevox/voxelcore/intern"
	"github.com/finevox/voxelcore/light"
)

func TestWorkerPropagatesQueuedUpdates(t *testing.T) {
	torch := intern.BlockType("light_worker_test_torch")
	blocktype.Global().Register("light_worker_test_torch", blocktype.Properties{LightEmission: 15}, nil)

	w := newFakeWorld()
	var mu sync.Mutex
	var dirtyCalls int
	worker := light.NewWorker(w, func(affected []cube.ChunkPos) {
		mu.Lock()
		dirtyCalls++
		mu.Unlock()
	}, nil)
	worker.Start()
	defer worker.Stop()

	pos := cube.BlockPos{X: 3, Y: 3, Z: 3}
	w.blocks[pos] = torch
	worker.Enqueue(light.LightingUpdate{Pos: pos, OldType: intern.AirBlockType, NewType: torch})

	deadline := time.Now().Add(2 * time.Second)
	for {
		d, _ := w.LightDataAt(pos.Chunk())
		if d.BlockLightAt(int32(pos.LocalIndex())) == 15 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for worker to propagate light")
		}
		time.Sleep(time.Millisecond)
	}

	mu.Lock()
	calls := dirtyCalls
	mu.Unlock()
	if calls == 0 {
		t.Fatalf("expected onDirty to be called at least once")
	}
}

func TestEnqueueReportsQueueWasEmpty(t *testing.T) {
	w := newFakeWorld()
	worker := light.NewWorker(w, nil, nil)

	first := worker.Enqueue(light.LightingUpdate{Pos: cube.BlockPos{X: 0, Y: 0, Z: 0}})
	if !first {
		t.Fatalf("first Enqueue on an empty queue should report wasEmpty=true")
	}
	worker.Start()
	defer worker.Stop()
}
