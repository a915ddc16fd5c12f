package worker

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrPoolClosed is returned when submitting after Wait or Shutdown
var ErrPoolClosed = errors.New("worker pool closed")

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

type queued struct {
	seq int
	job Job
}

type done struct {
	seq    int
	result Result
}

// Pool runs jobs on a fixed set of goroutines. Wait returns results in
// submission order.
type Pool struct {
	workers    int
	jobQueue   chan queued
	results    chan done
	collected  []done
	collectWG  sync.WaitGroup
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc

	mu      sync.Mutex
	next    int
	closed  bool
	started bool

	finishOnce sync.Once
	final      []Result
}

// NewPool creates a pool with the given number of workers bound to ctx.
// Cancelling ctx stops workers after their current job.
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers:    workers,
		jobQueue:   make(chan queued, workers*2),
		results:    make(chan done, workers*2),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start launches the workers and the result collector
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	p.collectWG.Add(1)
	go func() {
		defer p.collectWG.Done()
		for d := range p.results {
			p.collected = append(p.collected, d)
		}
	}()
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case q, ok := <-p.jobQueue:
			if !ok {
				return
			}
			// Results always drain through the collector, so this send cannot block forever
			p.results <- done{seq: q.seq, result: q.job.Execute(p.ctx)}
		}
	}
}

// Submit queues a job, blocking while the queue is full. The pool must be
// started first.
func (p *Pool) Submit(job Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case <-p.ctx.Done():
		return p.ctx.Err()
	case p.jobQueue <- queued{seq: p.next, job: job}:
		p.next++
		return nil
	}
}

// Wait closes the queue, waits for queued jobs and returns their results
// in submission order. Jobs dropped by cancellation have no result.
func (p *Pool) Wait() []Result {
	p.finishOnce.Do(func() {
		p.close()
		p.wg.Wait()
		close(p.results)
		p.collectWG.Wait()
		p.cancelFunc()

		sort.Slice(p.collected, func(i, j int) bool {
			return p.collected[i].seq < p.collected[j].seq
		})

		p.final = make([]Result, len(p.collected))
		for i, d := range p.collected {
			p.final[i] = d.result
		}
	})
	return p.final
}

// Shutdown cancels running jobs and discards queued ones
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.Wait()
}

func (p *Pool) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.jobQueue)
	}
}
