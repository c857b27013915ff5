package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeExecutor struct {
	err     error
	calls   int32
	block   chan struct{}
	mu      sync.Mutex
	ids     []uint
	lastCtx context.Context
}

func (f *fakeExecutor) Generate(ctx context.Context, presentationID uint) error {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	f.ids = append(f.ids, presentationID)
	f.lastCtx = ctx
	f.mu.Unlock()
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestEnqueueRunsJobOnce(t *testing.T) {
	executor := &fakeExecutor{err: errors.New("draft failed")}
	o, err := New(1, 4, executor)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	o.Start()
	defer o.Stop()

	if err := o.Enqueue(NewJob(7)); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	waitFor(t, func() bool { return atomic.LoadInt32(&executor.calls) == 1 })
	time.Sleep(50 * time.Millisecond)
	if got := atomic.LoadInt32(&executor.calls); got != 1 {
		t.Fatalf("failed generation must not be retried, got %d calls", got)
	}
}

func TestQueueFullRejects(t *testing.T) {
	o, err := New(1, 1, &fakeExecutor{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer o.pool.Release()

	if err := o.Enqueue(NewJob(1)); err != nil {
		t.Fatalf("first enqueue failed: %v", err)
	}
	if err := o.Enqueue(NewJob(2)); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

func TestCancelRunningJob(t *testing.T) {
	executor := &fakeExecutor{block: make(chan struct{})}
	o, err := New(1, 4, executor)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	o.Start()
	defer o.Stop()

	if o.Cancel(3) {
		t.Fatalf("cancel should report false for unknown job")
	}
	if err := o.Enqueue(NewJob(3)); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	waitFor(t, func() bool { return atomic.LoadInt32(&executor.calls) == 1 })
	waitFor(t, func() bool {
		o.activeMutex.Lock()
		defer o.activeMutex.Unlock()
		_, ok := o.active[3]
		return ok
	})

	if err := o.Enqueue(NewJob(3)); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
	if !o.Cancel(3) {
		t.Fatalf("cancel should find running job")
	}
	executor.mu.Lock()
	ctx := executor.lastCtx
	executor.mu.Unlock()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatalf("job context not cancelled")
	}
}

func TestEnqueueAfterStop(t *testing.T) {
	o, err := New(1, 4, &fakeExecutor{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	o.Start()
	o.Stop()
	if err := o.Enqueue(NewJob(1)); !errors.Is(err, ErrOrchestratorStopped) {
		t.Fatalf("expected ErrOrchestratorStopped, got %v", err)
	}
}

func TestTryDispatchGivesUpAfterSubmitRetries(t *testing.T) {
	executor := &fakeExecutor{}
	o, err := New(1, 4, executor)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	o.retryTicker.Stop()
	o.pool.Release()

	job := &Job{PresentationID: 9, SubmitRetries: 1}
	o.tryDispatch(job)
	if got := o.retryQueue.Len(); got != 1 {
		t.Fatalf("retry queue should hold the job, got %d", got)
	}
	if job.SubmitRetries != 0 {
		t.Fatalf("submit retries should be consumed, got %d", job.SubmitRetries)
	}

	o.tryDispatch(job)
	if got := o.retryQueue.Len(); got != 1 {
		t.Fatalf("job should be dropped after retries, queue=%d", got)
	}
	if atomic.LoadInt32(&executor.calls) != 0 {
		t.Fatalf("executor should not be called on a released pool")
	}
}
