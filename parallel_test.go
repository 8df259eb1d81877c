package zcrack

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunWorkerPoolRunsEveryJob(t *testing.T) {
	const jobs = 500
	var seen [jobs]int32

	err := runWorkerPool(DefaultParallelConfig(), jobs, nil, func(i int) {
		atomic.AddInt32(&seen[i], 1)
	})
	if err != nil {
		t.Fatalf("runWorkerPool: %v", err)
	}
	for i, v := range seen {
		if v != 1 {
			t.Fatalf("job %d ran %d times, want exactly 1", i, v)
		}
	}
}

func TestRunWorkerPoolZeroJobs(t *testing.T) {
	called := false
	if err := runWorkerPool(DefaultParallelConfig(), 0, nil, func(int) { called = true }); err != nil {
		t.Fatalf("runWorkerPool: %v", err)
	}
	if called {
		t.Fatal("work should never be called for zero jobs")
	}
}

func TestRunWorkerPoolRecoversPanic(t *testing.T) {
	err := runWorkerPool(DefaultParallelConfig(), 10, nil, func(i int) {
		if i == 5 {
			panic("boom")
		}
	})
	if err == nil {
		t.Fatal("expected a panic in one worker to surface as an error")
	}
}

func TestRunWorkerPoolStopsOnCancel(t *testing.T) {
	prog := NewProgress(nil)
	var started int32
	var wg sync.WaitGroup
	wg.Add(1)

	const jobs = 10000
	go func() {
		defer wg.Done()
		runWorkerPool(ParallelConfig{MaxWorkers: 2}, jobs, prog, func(i int) {
			atomic.AddInt32(&started, 1)
			time.Sleep(time.Millisecond)
		})
	}()

	time.Sleep(5 * time.Millisecond)
	prog.SetCanceled()
	wg.Wait()

	if got := atomic.LoadInt32(&started); got >= jobs {
		t.Fatalf("cancellation did not stop dispatch early: ran %d of %d jobs", got, jobs)
	}
}
