package scripts

import (
	"context"
	"time"
)

// Task is a handle on work running in the background. Callers that need the
// result wait on it; everyone else may drop it.
type Task struct {
	done     chan struct{}
	err      error
	started  time.Time
	finished time.Time
}

// Go runs fn in a new goroutine and returns its handle.
func Go(ctx context.Context, fn func(context.Context) error) *Task {
	t := &Task{done: make(chan struct{}), started: time.Now()}
	go func() {
		defer close(t.done)
		t.err = fn(ctx)
		t.finished = time.Now()
	}()
	return t
}

// Done returns a task that has already completed with err.
func Done(err error) *Task {
	t := &Task{done: make(chan struct{}), err: err, started: time.Now()}
	t.finished = t.started
	close(t.done)
	return t
}

// Wait blocks until the task finishes or ctx is cancelled.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Finished reports whether the task has completed.
func (t *Task) Finished() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Duration is the run time of a finished task, or zero while it runs.
func (t *Task) Duration() time.Duration {
	if !t.Finished() {
		return 0
	}
	return t.finished.Sub(t.started)
}
