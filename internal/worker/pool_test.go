package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// mockResult implements Result
type mockResult struct {
	id  int
	err error
}

func (r *mockResult) GetError() error {
	return r.err
}

// mockJob implements Job
type mockJob struct {
	id        int
	duration  time.Duration
	shouldErr bool
	executed  *int32
}

func (j *mockJob) Execute(ctx context.Context) Result {
	if j.executed != nil {
		atomic.AddInt32(j.executed, 1)
	}
	if j.duration > 0 {
		select {
		case <-time.After(j.duration):
		case <-ctx.Done():
			return &mockResult{id: j.id, err: ctx.Err()}
		}
	}
	if j.shouldErr {
		return &mockResult{id: j.id, err: errors.New("job error")}
	}
	return &mockResult{id: j.id}
}

func TestNewPool(t *testing.T) {
	tests := []struct {
		input, want int
	}{
		{5, 5},
		{0, 1},
		{-1, 1},
	}
	for _, tt := range tests {
		p := NewPool(context.Background(), tt.input)
		if p.workers != tt.want {
			t.Errorf("NewPool(%d) workers = %d, want %d", tt.input, p.workers, tt.want)
		}
		p.Shutdown()
	}
}

func TestPool_Execution(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()

	var executed int32
	count := 10

	for i := 0; i < count; i++ {
		if err := pool.Submit(&mockJob{id: i, executed: &executed}); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}

	results := pool.Wait()

	if len(results) != count {
		t.Errorf("expected %d results, got %d", count, len(results))
	}
	if got := atomic.LoadInt32(&executed); got != int32(count) {
		t.Errorf("expected %d executed jobs, got %d", count, got)
	}
}

func TestPool_ResultsInSubmissionOrder(t *testing.T) {
	pool := NewPool(context.Background(), 4)
	pool.Start()

	// Earlier jobs take longer so they finish last
	for i := 0; i < 8; i++ {
		_ = pool.Submit(&mockJob{id: i, duration: time.Duration(8-i) * 3 * time.Millisecond})
	}

	results := pool.Wait()
	for i, r := range results {
		if id := r.(*mockResult).id; id != i {
			t.Errorf("result %d has id %d", i, id)
		}
	}
}

func TestPool_Errors(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()

	_ = pool.Submit(&mockJob{id: 0})
	_ = pool.Submit(&mockJob{id: 1, shouldErr: true})

	results := pool.Wait()
	if results[0].GetError() != nil {
		t.Errorf("unexpected error: %v", results[0].GetError())
	}
	if results[1].GetError() == nil {
		t.Error("expected error from second job")
	}
}

func TestPool_SubmitAfterWait(t *testing.T) {
	pool := NewPool(context.Background(), 1)
	pool.Start()
	pool.Wait()

	if err := pool.Submit(&mockJob{}); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("expected ErrPoolClosed, got %v", err)
	}

	// Wait is idempotent
	if results := pool.Wait(); len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestPool_Shutdown(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()

	for i := 0; i < 4; i++ {
		_ = pool.Submit(&mockJob{id: i, duration: time.Second})
	}

	start := time.Now()
	pool.Shutdown()

	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Shutdown took %v, expected prompt cancellation", elapsed)
	}
}

func TestPool_ParentContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(ctx, 1)
	pool.Start()

	_ = pool.Submit(&mockJob{duration: time.Second})
	cancel()

	// Either rejected or queued; a queued job may still run
	_ = pool.Submit(&mockJob{})

	for _, r := range pool.Wait() {
		if !errors.Is(r.GetError(), context.Canceled) && r.GetError() != nil {
			t.Errorf("unexpected error %v", r.GetError())
		}
	}
}
