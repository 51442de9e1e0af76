// Package task runs one unit of work in the background and lets the caller
// poll it, wait for it or cancel it.
package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFinished is returned by Result while the task is still running.
var ErrNotFinished = errors.New("task not finished")

// Status is the lifecycle state of a task.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// Func is the work executed by a Task.
type Func[T any] func(ctx context.Context) (T, error)

// Task is a handle to background work producing a T.
type Task[T any] struct {
	id        string
	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}

	mu       sync.Mutex
	status   Status
	value    T
	err      error
	finished time.Time
}

// Start launches fn on its own goroutine. Canceling ctx or calling Cancel
// cancels the context fn receives.
func Start[T any](ctx context.Context, fn Func[T]) *Task[T] {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task[T]{
		id:        uuid.NewString(),
		startedAt: time.Now(),
		cancel:    cancel,
		done:      make(chan struct{}),
		status:    StatusRunning,
	}
	go t.run(ctx, fn)
	return t
}

func (t *Task[T]) run(ctx context.Context, fn Func[T]) {
	var (
		value T
		err   error
	)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", t.id, r)
		}
		t.finish(ctx, value, err)
	}()
	value, err = fn(ctx)
}

func (t *Task[T]) finish(ctx context.Context, value T, err error) {
	t.mu.Lock()
	t.value = value
	t.err = err
	t.finished = time.Now()
	switch {
	case err == nil:
		t.status = StatusCompleted
	case errors.Is(err, context.Canceled) || ctx.Err() != nil:
		t.status = StatusCanceled
	default:
		t.status = StatusFailed
	}
	t.mu.Unlock()

	t.cancel()
	close(t.done)
}

func (t *Task[T]) ID() string { return t.id }

// Done is closed when the task finishes.
func (t *Task[T]) Done() <-chan struct{} { return t.done }

// Running reports whether the work is still executing.
func (t *Task[T]) Running() bool {
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}

func (t *Task[T]) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Elapsed is the run time so far, or the total once finished.
func (t *Task[T]) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished.IsZero() {
		return time.Since(t.startedAt)
	}
	return t.finished.Sub(t.startedAt)
}

// Cancel asks the work to stop. It does not wait.
func (t *Task[T]) Cancel() {
	t.cancel()
}

// Result returns the outcome of a finished task, or ErrNotFinished.
func (t *Task[T]) Result() (T, error) {
	if t.Running() {
		var zero T
		return zero, ErrNotFinished
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value, t.err
}

// Wait blocks until the task finishes or ctx is done.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.Result()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Await waits like Wait and calls onTick every interval until the task
// finishes. onTick runs on the caller's goroutine.
func (t *Task[T]) Await(ctx context.Context, interval time.Duration, onTick func(elapsed time.Duration)) (T, error) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return t.Result()
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-ticker.C:
			if onTick != nil {
				onTick(t.Elapsed())
			}
		}
	}
}
