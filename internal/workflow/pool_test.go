package workflow

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingRunner struct {
	active  atomic.Int32
	peak    atomic.Int32
	release chan struct{}
}

func (r *countingRunner) Process(ctx context.Context, path string, _ Options) (*Result, error) {
	n := r.active.Add(1)
	for {
		peak := r.peak.Load()
		if n <= peak || r.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	<-r.release
	r.active.Add(-1)
	return &Result{Source: path}, nil
}

func TestPoolBoundsConcurrency(t *testing.T) {
	runner := &countingRunner{release: make(chan struct{})}
	pool := NewPool(runner, 2)

	var futures []*Future
	for _, name := range []string{"a", "b", "c", "d"} {
		f, err := pool.Submit(context.Background(), name, Options{})
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		futures = append(futures, f)
	}
	time.Sleep(50 * time.Millisecond)
	close(runner.release)

	for _, f := range futures {
		result, err := f.Wait(context.Background())
		if err != nil || result.Source != f.Source {
			t.Fatalf("unexpected outcome for %s: %+v %v", f.Source, result, err)
		}
	}
	if peak := runner.peak.Load(); peak > 2 {
		t.Fatalf("expected at most 2 concurrent runs, saw %d", peak)
	}
	pool.Close()
}

func TestPoolRejectsAfterClose(t *testing.T) {
	runner := &countingRunner{release: make(chan struct{})}
	close(runner.release)
	pool := NewPool(runner, 1)
	pool.Close()
	if _, err := pool.Submit(context.Background(), "late", Options{}); !errors.Is(err, ErrPoolClosed) {
		t.Fatalf("expected ErrPoolClosed, got %v", err)
	}
}

func TestPoolCloseWaitsForInFlight(t *testing.T) {
	runner := &countingRunner{release: make(chan struct{})}
	pool := NewPool(runner, 1)
	f, err := pool.Submit(context.Background(), "a", Options{})
	if err != nil {
		t.Fatal(err)
	}

	var closed sync.WaitGroup
	closed.Add(1)
	go func() {
		defer closed.Done()
		pool.Close()
	}()
	select {
	case <-f.Done():
		t.Fatal("run finished before release")
	case <-time.After(20 * time.Millisecond):
	}
	close(runner.release)
	closed.Wait()
	select {
	case <-f.Done():
	default:
		t.Fatal("Close returned before the run finished")
	}
}

func TestFutureWaitHonoursContext(t *testing.T) {
	runner := &countingRunner{release: make(chan struct{})}
	pool := NewPool(runner, 1)
	f, err := pool.Submit(context.Background(), "a", Options{})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := f.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", err)
	}
	close(runner.release)
	pool.Close()
}
