package worker

import (
	"context"
	"sync"
)

// Job is a unit of work producing a T
type Job[T any] interface {
	Execute(ctx context.Context) T
}

// JobFunc adapts a function to the Job interface
type JobFunc[T any] func(ctx context.Context) T

// Execute calls f
func (f JobFunc[T]) Execute(ctx context.Context) T {
	return f(ctx)
}

// Pool runs jobs on a fixed number of goroutines. Jobs may be submitted
// while results are being consumed, so a consumer can feed follow-up
// work back into the pool.
type Pool[T any] struct {
	workers   int
	jobs      chan Job[T]
	results   chan T
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	startOnce sync.Once
	closeJobs sync.Once
	closeOut  sync.Once
}

// NewPool creates a pool bound to ctx; cancelling ctx stops the workers
func NewPool[T any](ctx context.Context, workers int) *Pool[T] {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool[T]{
		workers: workers,
		jobs:    make(chan Job[T], workers*2),
		results: make(chan T, workers*2),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the workers. Further calls do nothing.
func (p *Pool[T]) Start() {
	p.startOnce.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go p.worker()
		}
		go func() {
			p.wg.Wait()
			p.closeOut.Do(func() { close(p.results) })
		}()
	})
}

func (p *Pool[T]) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			result := job.Execute(p.ctx)
			select {
			case p.results <- result:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Queue exposes the job queue. Consumers send on it in a select alongside
// Results so that follow-up jobs never deadlock the pool.
func (p *Pool[T]) Queue() chan<- Job[T] {
	return p.jobs
}

// Results streams job results; it is closed once all workers exit
func (p *Pool[T]) Results() <-chan T {
	return p.results
}

// Done is closed when the pool is shut down or its parent context ends
func (p *Pool[T]) Done() <-chan struct{} {
	return p.ctx.Done()
}

// Close stops accepting jobs; workers exit after draining the queue
func (p *Pool[T]) Close() {
	p.closeJobs.Do(func() { close(p.jobs) })
}

// Wait closes the queue and collects every remaining result
func (p *Pool[T]) Wait() []T {
	p.Close()

	var results []T
	for result := range p.results {
		results = append(results, result)
	}
	return results
}

// Shutdown stops the workers immediately
func (p *Pool[T]) Shutdown() {
	p.cancel()
	p.wg.Wait()
}
