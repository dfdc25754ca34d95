// Package future provides Task, the handle of asynchronous work
// whose outcome is polled rather than awaited.
package future

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/xid"
)

// ErrCanceled is the cause of a Task that was canceled before completion.
var ErrCanceled = errors.New("task canceled")

// State is the completion state of a Task.
type State uint8

const (
	Pending State = iota
	Succeeded
	Failed
	Canceled
)

func (s State) String() string {
	switch s {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Canceled:
		return "canceled"
	default:
		return "pending"
	}
}

// Task is a handle to work running somewhere else.
// It is completed exactly once; later completions have no effect.
// A Task is safe for concurrent use.
type Task struct {
	id   xid.ID
	name string
	done chan struct{}

	mu    sync.Mutex // protects following fields
	state State
	err   error
}

// New returns a new pending Task. The name only shows up in logs.
func New(name string) *Task {
	return &Task{
		id:   xid.New(),
		name: name,
		done: make(chan struct{}),
	}
}

// Completed returns a Task that already succeeded.
func Completed(name string) *Task {
	t := New(name)
	t.Complete()
	return t
}

// ID returns the unique id of the task.
func (t *Task) ID() string { return t.id.String() }

// Name returns the task's name.
func (t *Task) Name() string { return t.name }

func (t *Task) String() string { return fmt.Sprintf("%s(%s)", t.name, t.id) }

// Complete marks the task as succeeded.
func (t *Task) Complete() bool { return t.resolve(Succeeded, nil) }

// Fail marks the task as failed with cause err.
// A nil err is treated as success.
func (t *Task) Fail(err error) bool {
	if err == nil {
		return t.Complete()
	}
	return t.resolve(Failed, err)
}

// Cancel marks the task as canceled.
func (t *Task) Cancel() bool { return t.resolve(Canceled, ErrCanceled) }

// Resolve completes the task from the result of the work.
// Context cancellation errors resolve the task as canceled.
func (t *Task) Resolve(err error) bool {
	switch {
	case err == nil:
		return t.Complete()
	case errors.Is(err, context.Canceled), errors.Is(err, ErrCanceled):
		return t.Cancel()
	default:
		return t.Fail(err)
	}
}

func (t *Task) resolve(s State, err error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != Pending {
		return false
	}
	t.state = s
	t.err = err
	close(t.done)
	return true
}

// Done returns a channel that is closed once the task is resolved.
func (t *Task) Done() <-chan struct{} { return t.done }

// IsDone reports whether the task is resolved.
func (t *Task) IsDone() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// State returns the current completion state.
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Err returns the failure cause, ErrCanceled for canceled
// tasks or nil for pending and succeeded tasks.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Wait blocks until the task is resolved or ctx is done.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}
