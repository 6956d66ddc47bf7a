package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	ErrClosed    = errors.New("worker pool is closed")
	ErrQueueFull = errors.New("worker queue is full")
)

type StartOptions[J any] struct {
	Ctx    context.Context
	Sem    chan struct{}
	Jobs   <-chan J
	Handle func(context.Context, J)
	// Done is called once the loop exits.
	Done func()
}

// Start runs jobs from opts.Jobs one at a time, each holding a slot of the
// shared semaphore while it runs. The loop exits when Jobs is closed and
// drained or when Ctx is done.
func Start[J any](opts StartOptions[J]) {
	go func() {
		if opts.Done != nil {
			defer opts.Done()
		}
		for {
			select {
			case <-opts.Ctx.Done():
				return
			case job, ok := <-opts.Jobs:
				if !ok {
					return
				}
				select {
				case opts.Sem <- struct{}{}:
				case <-opts.Ctx.Done():
					return
				}
				func() {
					defer func() { <-opts.Sem }()
					opts.Handle(opts.Ctx, job)
				}()
			}
		}
	}()
}

// Enqueue hands job to jobs without waiting for space. A full queue
// returns ErrQueueFull so the caller's loop keeps serving other keys.
func Enqueue[J any](ctx, workersCtx context.Context, jobs chan<- J, job J) error {
	if ctx == nil {
		ctx = workersCtx
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := workersCtx.Err(); err != nil {
		return err
	}
	select {
	case jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

type PoolOptions[J any] struct {
	MaxConcurrency int
	QueueSize      int
	Handle         func(context.Context, J)
}

// Pool keeps one serial worker per key and bounds the number of jobs
// running at once across all keys.
type Pool[J any] struct {
	ctx       context.Context
	sem       chan struct{}
	queueSize int
	handle    func(context.Context, J)

	closeMu sync.RWMutex
	closed  bool

	mu     sync.Mutex
	queues map[string]chan J
	wg     sync.WaitGroup
}

func NewPool[J any](ctx context.Context, opts PoolOptions[J]) (*Pool[J], error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is required")
	}
	if opts.Handle == nil {
		return nil, fmt.Errorf("handle func is required")
	}
	if opts.MaxConcurrency <= 0 {
		return nil, fmt.Errorf("max_concurrency must be > 0")
	}
	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = 16
	}
	return &Pool[J]{
		ctx:       ctx,
		sem:       make(chan struct{}, opts.MaxConcurrency),
		queueSize: queueSize,
		handle:    opts.Handle,
		queues:    make(map[string]chan J),
	}, nil
}

// Submit queues job behind earlier jobs with the same key. It never blocks.
func (p *Pool[J]) Submit(ctx context.Context, key string, job J) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("worker key is required")
	}
	p.closeMu.RLock()
	defer p.closeMu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	return Enqueue(ctx, p.ctx, p.queueLocked(key), job)
}

func (p *Pool[J]) queueLocked(key string) chan J {
	p.mu.Lock()
	defer p.mu.Unlock()
	if q, ok := p.queues[key]; ok {
		return q
	}
	q := make(chan J, p.queueSize)
	p.queues[key] = q
	p.wg.Add(1)
	Start(StartOptions[J]{
		Ctx:    p.ctx,
		Sem:    p.sem,
		Jobs:   q,
		Handle: p.handle,
		Done:   p.wg.Done,
	})
	return q
}

// Close stops accepting jobs. Workers finish what is already queued unless
// the pool context is canceled first.
func (p *Pool[J]) Close() {
	p.closeMu.Lock()
	defer p.closeMu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, q := range p.queues {
		close(q)
	}
}

// Wait blocks until every worker has exited.
func (p *Pool[J]) Wait() {
	p.wg.Wait()
}
