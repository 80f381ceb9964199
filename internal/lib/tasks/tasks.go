// Package tasks runs follow-up work off the request path on a fixed set of
// workers.
package tasks

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var (
	ErrQueueFull = errors.New("tasks: queue is full")
	ErrStopped   = errors.New("tasks: pool is stopped")
)

type Task = func(ctx context.Context)

type Pool struct {
	log        *slog.Logger
	tasks      chan Task
	maxWorkers int
	wg         sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	started bool
	stopped bool
}

func New(log *slog.Logger, maxWorkers int, maxTasksQueueSize int) *Pool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if maxTasksQueueSize < 1 {
		maxTasksQueueSize = maxWorkers
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		log:        log,
		tasks:      make(chan Task, maxTasksQueueSize),
		maxWorkers: maxWorkers,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run starts the workers. Calling it again is a no-op.
func (p *Pool) Run() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.stopped {
		return
	}
	p.started = true
	p.wg.Add(p.maxWorkers)
	for i := 0; i < p.maxWorkers; i++ {
		go p.work(i)
	}
}

func (p *Pool) work(id int) {
	log := p.log.With("worker", id)
	defer p.wg.Done()
	for task := range p.tasks {
		p.exec(log, task)
	}
}

func (p *Pool) exec(log *slog.Logger, task Task) {
	defer func() {
		if err := recover(); err != nil {
			log.Error("panic", "err", err)
		}
	}()
	task(p.ctx)
}

// Add enqueues task without blocking.
func (p *Pool) Add(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrStopped
	}
	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *Pool) Pending() int {
	return len(p.tasks)
}

// Shutdown stops accepting tasks and waits for the queued ones. When ctx
// expires first the context handed to running tasks is cancelled.
func (p *Pool) Shutdown(ctx context.Context) error {
	const op = "tasks.Pool.Shutdown"
	log := p.log.With("op", op)

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	started := p.started
	close(p.tasks)
	p.mu.Unlock()

	if !started {
		p.cancel()
		return nil
	}
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		p.cancel()
		log.Warn("graceful shutdown timed out.. forcing exit", "timeout", ctx.Err())
		return ctx.Err()
	case <-done:
		p.cancel()
		log.Debug("background tasks stopped")
		return nil
	}
}
