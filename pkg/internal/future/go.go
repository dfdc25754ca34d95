package future

import (
	"context"
	"fmt"
)

// Executor runs functions asynchronously.
type Executor interface {
	Go(fn func())
}

// Go runs fn on exec and returns the Task tracking it.
// The task is resolved with fn's result; a panic in fn fails the task.
// If ctx is done before fn starts, fn is skipped and the task canceled.
func Go(ctx context.Context, exec Executor, name string, fn func(ctx context.Context) error) *Task {
	t := New(name)
	exec.Go(func() {
		if ctx.Err() != nil {
			t.Cancel()
			return
		}
		defer func() {
			if r := recover(); r != nil {
				t.Fail(fmt.Errorf("panic in task %s: %v", name, r))
			}
		}()
		t.Resolve(fn(ctx))
	})
	return t
}

// ExecutorFunc adapts a func to an Executor.
type ExecutorFunc func(fn func())

func (f ExecutorFunc) Go(fn func()) { f(fn) }

// GoroutineExecutor runs every function in a new goroutine.
var GoroutineExecutor Executor = ExecutorFunc(func(fn func()) { go fn() })
