package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// sleepJob returns its error after an optional delay
type sleepJob struct {
	duration time.Duration
	err      error
	executed *int32
}

func (j *sleepJob) Execute(ctx context.Context) error {
	if j.executed != nil {
		atomic.AddInt32(j.executed, 1)
	}
	if j.duration > 0 {
		select {
		case <-time.After(j.duration):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return j.err
}

func TestNewPool(t *testing.T) {
	assert.Equal(t, 5, NewPool[error](context.Background(), 5).workers)
	assert.Equal(t, 1, NewPool[error](context.Background(), 0).workers)
	assert.Equal(t, 1, NewPool[error](context.Background(), -1).workers)
}

func TestPool_Execution(t *testing.T) {
	pool := NewPool[error](context.Background(), 2)
	pool.Start()

	var executed int32
	for i := 0; i < 4; i++ {
		pool.Queue() <- &sleepJob{executed: &executed}
	}

	results := pool.Wait()
	assert.Len(t, results, 4)
	assert.Equal(t, int32(4), atomic.LoadInt32(&executed))
}

func TestPool_Concurrency(t *testing.T) {
	workers := 10
	pool := NewPool[int](context.Background(), workers)
	pool.Start()

	var current, maxConcurrent int32
	var mu sync.Mutex

	go func() {
		for i := 0; i < 50; i++ {
			pool.Queue() <- JobFunc[int](func(ctx context.Context) int {
				curr := atomic.AddInt32(&current, 1)
				mu.Lock()
				if curr > maxConcurrent {
					maxConcurrent = curr
				}
				mu.Unlock()
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&current, -1)
				return 1
			})
		}
		pool.Close()
	}()

	total := 0
	for n := range pool.Results() {
		total += n
	}

	assert.Equal(t, 50, total)
	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, maxConcurrent, int32(workers))
}

func TestPool_ErrorResults(t *testing.T) {
	pool := NewPool[error](context.Background(), 2)
	pool.Start()

	pool.Queue() <- &sleepJob{err: errors.New("job error")}
	pool.Queue() <- &sleepJob{}

	failed := 0
	for _, err := range pool.Wait() {
		if err != nil {
			failed++
		}
	}
	assert.Equal(t, 1, failed)
}

func TestPool_FollowUpJobs(t *testing.T) {
	pool := NewPool[int](context.Background(), 1)
	pool.Start()

	queue := []Job[int]{JobFunc[int](func(context.Context) int { return 3 })}
	inflight, seen := 0, 0
	for inflight > 0 || len(queue) > 0 {
		var send chan<- Job[int]
		var next Job[int]
		if len(queue) > 0 {
			send, next = pool.Queue(), queue[0]
		}
		select {
		case send <- next:
			queue = queue[1:]
			inflight++
		case n := <-pool.Results():
			inflight--
			seen++
			if n > 0 {
				queue = append(queue, JobFunc[int](func(context.Context) int { return n - 1 }))
			}
		}
	}
	pool.Close()

	assert.Equal(t, 4, seen)
}

func TestPool_DoneAfterShutdown(t *testing.T) {
	pool := NewPool[error](context.Background(), 2)
	pool.Start()

	select {
	case <-pool.Done():
		t.Fatal("pool done before shutdown")
	default:
	}

	pool.Shutdown()

	select {
	case <-pool.Done():
	case <-time.After(time.Second):
		t.Fatal("Done not closed after shutdown")
	}
}

func TestPool_DoneFollowsParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool[error](ctx, 1)
	pool.Start()
	defer pool.Shutdown()

	cancel()

	select {
	case <-pool.Done():
	case <-time.After(time.Second):
		t.Fatal("Done not closed after parent cancel")
	}
}

func TestPool_ShutdownClosesResults(t *testing.T) {
	pool := NewPool[error](context.Background(), 2)
	pool.Start()

	started := make(chan struct{})
	pool.Queue() <- JobFunc[error](func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	<-started
	pool.Shutdown()

	done := make(chan struct{})
	go func() {
		for range pool.Results() {
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("results not closed after shutdown")
	}
}
