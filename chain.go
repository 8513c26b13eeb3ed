// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package lanes

import (
	"time"
)

// A WorkFunc computes the output of a root [Task]. It runs on a lane worker
// goroutine and must therefore be thread-safe with respect to anything it
// captures. If a WorkFunc panics, the whole program terminates as per
// [Handling panics] in The Go Programming Language Specification; recover
// inside the function itself if that is not acceptable.
//
// [Handling panics]: https://go.dev/ref/spec#Handling_panics
type WorkFunc[T any] = func() T

// A ThenFunc computes the output of a chained [Task] from its parent's
// output. The same execution and panic caveats as [WorkFunc] apply.
type ThenFunc[In, Out any] = func(In) Out

// Async creates a root task: fn is submitted to the given lane immediately
// and the returned handle's output slot is populated once it has run. Async
// itself never blocks.
func Async[T any](ex *Executor, lane *Lane, fn WorkFunc[T]) *Task[T] {
	return AsyncAfter(ex, lane, 0, fn)
}

// AsyncAfter is [Async] with a delay: fn is submitted to the lane once the
// delay has elapsed. The returned task is Scheduled for the whole delay and
// can be cancelled during it, in which case fn never runs.
func AsyncAfter[T any](ex *Executor, lane *Lane, delay time.Duration, fn WorkFunc[T]) *Task[T] {
	if fn == nil {
		panic("work function must be non-nil")
	}
	if ex == nil {
		panic("executor must be non-nil")
	}
	t := newTask[T](ex)
	t.schedule(lane, delay, fn)
	return t
}

// Then creates a child task that consumes the parent's output: once the
// parent completes, fn is submitted to the given lane with the parent's
// value as its argument. Then returns the child handle immediately, without
// waiting for either task.
//
// The child never starts before the parent has completed, and its input is
// exactly the parent's output — the chain is typed end to end, so a
// mismatched step is a compile error rather than a runtime surprise.
//
// If the parent is cancelled before it runs, the child is cancelled too,
// transitively down the chain; fn is never called with a value the parent
// never produced. Cancelling the child directly detaches it without
// affecting the parent.
func Then[In, Out any](parent *Task[In], lane *Lane, fn ThenFunc[In, Out]) *Task[Out] {
	return ThenAfter(parent, lane, 0, fn)
}

// ThenAfter is [Then] with a delay, measured from the parent's completion to
// the child's submission.
func ThenAfter[In, Out any](parent *Task[In], lane *Lane, delay time.Duration, fn ThenFunc[In, Out]) *Task[Out] {
	if fn == nil {
		panic("work function must be non-nil")
	}
	if parent == nil {
		panic("parent task must be non-nil")
	}
	child := newTask[Out](parent.ex)
	parent.onTerminal(func(oc outcome[In]) {
		if oc.cancelled {
			child.Cancel()
			return
		}
		child.schedule(lane, delay, func() Out {
			return fn(oc.value)
		})
	})
	return child
}
