// Package worker runs level sessions in parallel through a small
// fixed-size goroutine pool.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrNotStarted is returned by Submit before Start has been called.
var ErrNotStarted = errors.New("worker pool not started")

// Task is a unit of work the pool can run.
type Task interface {
	ID() string
	Execute(ctx context.Context) error
}

// Result reports the completion of one task.
type Result struct {
	TaskID string
	Error  error
}

// Config sizes the pool. Zero values pick sensible defaults.
type Config struct {
	Workers   int // goroutines draining the queue (default GOMAXPROCS)
	QueueSize int // buffered task slots (default Workers*2)
}

// Pool fans submitted tasks out to a fixed set of workers and delivers
// one Result per task on the Results channel.
type Pool struct {
	tasks   chan Task
	results chan Result

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	workers int

	running atomic.Bool
	done    atomic.Int64
	failed  atomic.Int64
}

// NewPool makes a pool. Call Start before submitting.
func NewPool(cfg Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	queue := cfg.QueueSize
	if queue <= 0 {
		queue = workers * 2
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		tasks:   make(chan Task, queue),
		results: make(chan Result, queue),
		ctx:     ctx,
		cancel:  cancel,
		workers: workers,
	}
}

// Start launches the workers. Calling it twice is a no-op.
func (p *Pool) Start() {
	if p.running.Swap(true) {
		return
	}
	for range p.workers {
		p.wg.Add(1)
		go p.drain()
	}
}

func (p *Pool) drain() {
	defer p.wg.Done()
	for {
		var task Task
		var ok bool
		select {
		case <-p.ctx.Done():
			return
		case task, ok = <-p.tasks:
			if !ok {
				return
			}
		}

		err := task.Execute(p.ctx)
		p.done.Add(1)
		if err != nil {
			p.failed.Add(1)
		}

		select {
		case p.results <- Result{TaskID: task.ID(), Error: err}:
		case <-p.ctx.Done():
			return
		}
	}
}

// Submit queues a task. It blocks while the queue is full and fails
// once the pool is stopping.
func (p *Pool) Submit(task Task) error {
	if !p.running.Load() {
		return ErrNotStarted
	}
	select {
	case p.tasks <- task:
		return nil
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

// Results delivers one entry per executed task.
func (p *Pool) Results() <-chan Result {
	return p.results
}

// Stop cancels in-flight work and waits for the workers to exit.
func (p *Pool) Stop() {
	p.cancel()
	close(p.tasks)
	p.wg.Wait()
	close(p.results)
}

// Stats is a point-in-time snapshot of pool activity.
type Stats struct {
	Workers   int
	Processed int64
	Errors    int64
	Pending   int
}

func (s Stats) String() string {
	return fmt.Sprintf("workers=%d processed=%d errors=%d pending=%d",
		s.Workers, s.Processed, s.Errors, s.Pending)
}

// Stats reports how much the pool has done so far.
func (p *Pool) Stats() Stats {
	return Stats{
		Workers:   p.workers,
		Processed: p.done.Load(),
		Errors:    p.failed.Load(),
		Pending:   len(p.tasks),
	}
}
