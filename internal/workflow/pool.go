package workflow

import (
	"context"
	"errors"
	"sync"
)

// ErrPoolClosed is returned by Submit after Close.
var ErrPoolClosed = errors.New("workflow pool closed")

// Runner is the blocking pipeline entry point scheduled by Pool.
type Runner interface {
	Process(ctx context.Context, path string, opts Options) (*Result, error)
}

// Future is the pending outcome of a submitted run.
type Future struct {
	Source string

	done   chan struct{}
	result *Result
	err    error
}

func newFuture(source string) *Future {
	return &Future{Source: source, done: make(chan struct{})}
}

func (f *Future) complete(result *Result, err error) {
	f.result = result
	f.err = err
	close(f.done)
}

// Done is closed when the run finishes.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the run finishes or ctx is done. Giving up on ctx does
// not stop the run.
func (f *Future) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Pool runs submissions on worker goroutines, at most size at a time.
type Pool struct {
	runner Runner
	slots  chan struct{}

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewPool returns a pool running at most size concurrent runs; size <= 0
// means unbounded.
func NewPool(runner Runner, size int) *Pool {
	p := &Pool{runner: runner}
	if size > 0 {
		p.slots = make(chan struct{}, size)
	}
	return p
}

// Submit schedules a run and returns immediately. A run still waiting for a
// slot when ctx ends fails with ctx's error without starting.
func (p *Pool) Submit(ctx context.Context, path string, opts Options) (*Future, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	p.wg.Add(1)
	p.mu.Unlock()

	f := newFuture(path)
	go func() {
		defer p.wg.Done()
		if p.slots != nil {
			select {
			case p.slots <- struct{}{}:
				defer func() { <-p.slots }()
			case <-ctx.Done():
				f.complete(nil, ctx.Err())
				return
			}
		}
		f.complete(p.runner.Process(ctx, path, opts))
	}()
	return f, nil
}

// Run submits one run and waits for it to finish. Cancelling ctx stops the
// run before its next stage; Run still returns only after the run has
// released its artifacts, so the result matches a blocking Process call.
func (p *Pool) Run(ctx context.Context, path string, opts Options) (*Result, error) {
	future, err := p.Submit(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	<-future.Done()
	return future.result, future.err
}

// Close rejects further submissions and waits for in-flight runs.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.wg.Wait()
}
