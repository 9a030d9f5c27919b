package worker

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const initialFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// noopProcessFunc returns a basic process function that does nothing.
func noopProcessFunc() ProcessFunc {
	return func(_ int, item WorkItem) ProcessResult {
		return ProcessResult{FEN: item.FEN, Index: item.Index}
	}
}

// countingProcessFunc returns a process function that increments a counter.
func countingProcessFunc(counter *int32) ProcessFunc {
	return func(_ int, item WorkItem) ProcessResult {
		atomic.AddInt32(counter, 1)
		return ProcessResult{FEN: item.FEN, Index: item.Index, Move: "e2e4"}
	}
}

// collectResults drains the result channel and returns the count.
func collectResults(pool *Pool) int {
	count := 0
	for range pool.Results() {
		count++
	}
	return count
}

func TestPoolBasic(t *testing.T) {
	var processed int32
	pool := NewPool(4, 10, countingProcessFunc(&processed))
	pool.Start()

	const numItems = 10
	for i := 0; i < numItems; i++ {
		pool.Submit(WorkItem{FEN: initialFEN, Index: i})
	}

	go pool.Close()

	resultCount := collectResults(pool)
	if resultCount != numItems {
		t.Errorf("results = %d; want %d", resultCount, numItems)
	}
	if got := atomic.LoadInt32(&processed); got != numItems {
		t.Errorf("processed = %d; want %d", got, numItems)
	}
}

func TestPoolSingleWorker(t *testing.T) {
	pool := NewPool(1, 5, noopProcessFunc())
	pool.Start()

	const numItems = 5
	for i := 0; i < numItems; i++ {
		pool.Submit(WorkItem{FEN: initialFEN, Index: i})
	}

	go pool.Close()

	if got := collectResults(pool); got != numItems {
		t.Errorf("results = %d; want %d", got, numItems)
	}
}

// TestPoolWorkerIDs checks that each worker sees a stable id below
// the worker count, so per-worker resources can be indexed without locking.
func TestPoolWorkerIDs(t *testing.T) {
	const numWorkers = 3
	var mu sync.Mutex
	seen := make(map[int]bool)

	pool := NewPool(numWorkers, 10, func(worker int, item WorkItem) ProcessResult {
		mu.Lock()
		seen[worker] = true
		mu.Unlock()
		time.Sleep(time.Millisecond)
		return ProcessResult{Index: item.Index}
	})
	pool.Start()

	results := pool.Run(items(30))
	for _, res := range results {
		if res.Worker < 0 || res.Worker >= numWorkers {
			t.Errorf("result %d produced by worker %d; want [0,%d)", res.Index, res.Worker, numWorkers)
		}
	}
	for id := range seen {
		if id < 0 || id >= numWorkers {
			t.Errorf("worker id %d out of range", id)
		}
	}
}

func TestPoolEarlyStop(t *testing.T) {
	var processedCount int32

	slowProcessFunc := func(_ int, item WorkItem) ProcessResult {
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&processedCount, 1)
		return ProcessResult{Index: item.Index}
	}

	pool := NewPool(2, 100, slowProcessFunc)
	pool.Start()

	const numItems = 50
	for i := 0; i < numItems; i++ {
		pool.Submit(WorkItem{FEN: initialFEN, Index: i})
	}

	time.Sleep(30 * time.Millisecond)
	pool.Stop()

	go pool.Close()
	collectResults(pool)

	if processed := atomic.LoadInt32(&processedCount); processed >= numItems {
		t.Logf("early stop may not have prevented all processing: %d processed", processed)
	}
}

func TestPoolIsStopped(t *testing.T) {
	pool := NewPool(2, 10, noopProcessFunc())
	pool.Start()

	if pool.IsStopped() {
		t.Error("pool should not be stopped initially")
	}

	pool.Stop()

	if !pool.IsStopped() {
		t.Error("pool should be stopped after Stop()")
	}

	pool.Close()
}

func TestPoolRun_Stopped(t *testing.T) {
	var counter int32
	pool := NewPool(2, 10, countingProcessFunc(&counter))
	pool.Start()
	pool.Stop()

	if results := pool.Run(items(10)); len(results) != 0 {
		t.Errorf("results after Stop = %d; want 0", len(results))
	}
	if got := atomic.LoadInt32(&counter); got != 0 {
		t.Errorf("processed after Stop = %d; want 0", got)
	}
}

func TestPoolWorkerCount(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected int
	}{
		{"valid workers", 4, 4},
		{"minimum workers", 1, 1},
		{"zero defaults to 1", 0, 1},
		{"negative defaults to 1", -1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := NewPool(tt.input, 10, noopProcessFunc())
			if got := pool.numWorkers; got != tt.expected {
				t.Errorf("numWorkers = %d; want %d", got, tt.expected)
			}
		})
	}
}

func TestPoolRun_InputOrder(t *testing.T) {
	variableDelayFunc := func(_ int, item WorkItem) ProcessResult {
		if item.Index%2 == 0 {
			time.Sleep(5 * time.Millisecond)
		}
		return ProcessResult{FEN: item.FEN, Index: item.Index, Move: fmt.Sprintf("m%d", item.Index)}
	}

	pool := NewPool(4, 20, variableDelayFunc)
	pool.Start()

	const numItems = 20
	results := pool.Run(items(numItems))

	if len(results) != numItems {
		t.Fatalf("received %d results; want %d", len(results), numItems)
	}
	for i, res := range results {
		if res.Index != i {
			t.Errorf("results[%d].Index = %d; want %d", i, res.Index, i)
		}
		if want := fmt.Sprintf("m%d", i); res.Move != want {
			t.Errorf("results[%d].Move = %q; want %q", i, res.Move, want)
		}
	}
}

func TestSortByIndex(t *testing.T) {
	results := []ProcessResult{{Index: 2}, {Index: 0}, {Index: 1}}
	SortByIndex(results)
	for i, res := range results {
		if res.Index != i {
			t.Errorf("results[%d].Index = %d; want %d", i, res.Index, i)
		}
	}
}

// TestPoolNoRace is designed to be run with -race flag.
func TestPoolNoRace(t *testing.T) {
	var counter int32
	pool := NewPool(8, 50, countingProcessFunc(&counter))
	pool.Start()

	const numItems = 100
	go func() {
		for i := 0; i < numItems; i++ {
			pool.Submit(WorkItem{FEN: initialFEN, Index: i})
		}
		pool.Close()
	}()

	collectResults(pool)

	if got := atomic.LoadInt32(&counter); got != numItems {
		t.Errorf("processed = %d; want %d", got, numItems)
	}
}

func TestNewPoolWithOptions(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		pool := NewPoolWithOptions(noopProcessFunc())
		if pool.numWorkers != 1 {
			t.Errorf("default workers = %d; want 1", pool.numWorkers)
		}
		if pool.bufferSize != 10 {
			t.Errorf("default bufferSize = %d; want 10", pool.bufferSize)
		}
	})

	t.Run("with multiple options", func(t *testing.T) {
		pool := NewPoolWithOptions(noopProcessFunc(), WithWorkers(8), WithBufferSize(100))
		if pool.numWorkers != 8 {
			t.Errorf("numWorkers = %d; want 8", pool.numWorkers)
		}
		if pool.bufferSize != 100 {
			t.Errorf("bufferSize = %d; want 100", pool.bufferSize)
		}
	})

	t.Run("invalid values ignored", func(t *testing.T) {
		pool := NewPoolWithOptions(noopProcessFunc(), WithWorkers(0), WithBufferSize(-5))
		if pool.numWorkers != 1 {
			t.Errorf("numWorkers = %d; want 1 (default)", pool.numWorkers)
		}
		if pool.bufferSize != 10 {
			t.Errorf("bufferSize = %d; want 10 (default)", pool.bufferSize)
		}
	})
}

func items(n int) []WorkItem {
	out := make([]WorkItem, n)
	for i := range out {
		out[i] = WorkItem{FEN: initialFEN, Index: i}
	}
	return out
}
