package dispatch

import (
	"context"
	"errors"
	"sync"

	"github.com/utafrali/cartrecords/internal/domain"
)

// ErrClosed is returned by RunAwait after the worker pool has been shut down.
var ErrClosed = errors.New("dispatch: pool is closed")

// Task is a unit of work producing a cart or an error.
type Task func(ctx context.Context) (*domain.Cart, error)

// Dispatcher decides where a task executes. Every implementation blocks the
// caller until the task finishes and hands back its result or error unchanged,
// so execution placement never changes the request/response contract.
type Dispatcher interface {
	RunAwait(ctx context.Context, task Task) (*domain.Cart, error)
}

// Inline executes tasks directly on the caller's goroutine.
type Inline struct{}

func (Inline) RunAwait(ctx context.Context, task Task) (*domain.Cart, error) {
	return task(ctx)
}

type job struct {
	ctx   context.Context
	task  Task
	reply chan result
}

type result struct {
	cart *domain.Cart
	err  error
}

// WorkerPool runs tasks on a fixed set of worker goroutines shared across all
// operations and users. Callers block on a per-task reply channel, so blocking
// I/O moves off the calling goroutine while the call itself stays synchronous.
type WorkerPool struct {
	jobs chan job
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewWorkerPool starts a pool with the given number of workers and queue depth.
// Values below one are bumped to one.
func NewWorkerPool(workers, queueDepth int) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	if queueDepth < 1 {
		queueDepth = 1
	}

	p := &WorkerPool{jobs: make(chan job, queueDepth)}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for j := range p.jobs {
		cart, err := j.task(j.ctx)
		j.reply <- result{cart: cart, err: err}
	}
}

// RunAwait submits the task to the pool and blocks until a worker has finished
// it. The task's error reaches the caller with the same classification it
// would have had inline. Waiting to enqueue respects ctx cancellation; once a
// worker picks the task up, the caller waits for the outcome.
func (p *WorkerPool) RunAwait(ctx context.Context, task Task) (*domain.Cart, error) {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return nil, ErrClosed
	}

	j := job{ctx: ctx, task: task, reply: make(chan result, 1)}
	select {
	case p.jobs <- j:
		p.mu.RUnlock()
	case <-ctx.Done():
		p.mu.RUnlock()
		return nil, ctx.Err()
	}

	res := <-j.reply
	return res.cart, res.err
}

// Close stops accepting tasks and waits for queued work to drain.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
}
