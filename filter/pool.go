package filter

import (
	"context"
	"errors"
	"sync"
)

// ErrPoolStopped is returned when work is submitted to a stopped pool
var ErrPoolStopped = errors.New("worker pool is stopped")

type workerPool struct {
	mu       sync.RWMutex
	stopped  bool
	work     chan func()
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewWorkerPool starts a pool with the given number of workers
func NewWorkerPool(workers int) WorkerPool {
	if workers <= 0 {
		workers = 1
	}

	p := &workerPool{
		work: make(chan func(), workers*2),
	}
	for range workers {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

func (p *workerPool) run() {
	defer p.wg.Done()

	for fn := range p.work {
		fn()
	}
}

func (p *workerPool) Submit(ctx context.Context, work func()) error {
	// Stop cannot close the channel while a send is in flight
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return ErrPoolStopped
	}

	select {
	case p.work <- work:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *workerPool) Stop(ctx context.Context) error {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.stopped = true
		close(p.work)
		p.mu.Unlock()
	})

	finished := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
