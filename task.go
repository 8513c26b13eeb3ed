// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package lanes

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/petenewcomb/lanes-go/internal/timerp"
)

// TaskState is the lifecycle state of a [Task].
//
// A task starts Pending, becomes Scheduled when handed to its executor,
// Running when a lane worker picks it up, and Completed when its work
// function returns. Cancellation moves a Pending or Scheduled task directly
// to Cancelled; a task that has reached Running always runs to completion.
// Completed and Cancelled are terminal.
type TaskState int32

const (
	Pending TaskState = iota
	Scheduled
	Running
	Completed
	Cancelled
)

func (s TaskState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Scheduled:
		return "scheduled"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	default:
		return "invalid"
	}
}

// WaitResult reports how a wait call returned.
type WaitResult int

const (
	// WaitFinished means the awaited task or group reached a terminal state.
	WaitFinished WaitResult = iota
	// WaitTimedOut means the timeout elapsed first. The awaited task or
	// group is unaffected and may be waited on again.
	WaitTimedOut
)

func (r WaitResult) String() string {
	switch r {
	case WaitFinished:
		return "finished"
	case WaitTimedOut:
		return "timed out"
	default:
		return "invalid"
	}
}

// outcome is the terminal result of a task as delivered to its
// continuations: either the completed value or the fact of cancellation.
// Continuations receive the tag rather than a bare value so that a child can
// distinguish "parent produced the zero value" from "parent never ran".
type outcome[T any] struct {
	value     T
	cancelled bool
}

// A Task is a typed, cancellable unit of deferred work. Its output is a
// single-assignment slot: written exactly once, by the work function, and
// readable only after the task has completed. Tasks are created with [Async]
// or [AsyncAfter] and chained with [Then] or [ThenAfter].
//
// All methods are thread-safe. A Task holds no reference to its parent; a
// chain's tasks are independently owned and become garbage as their holders
// drop them.
type Task[T any] struct {
	ex    *Executor
	state atomic.Int32

	// value is the output slot. It is owned exclusively by the completing
	// goroutine until the Completed state is published; everyone else reads
	// it only after observing that publication, so no lock guards it.
	value T

	// done is closed on entry to either terminal state.
	done chan struct{}

	mu            sync.Mutex
	continuations []func(outcome[T])
}

func newTask[T any](ex *Executor) *Task[T] {
	return &Task[T]{ex: ex, done: make(chan struct{})}
}

// State returns the task's current lifecycle state. The value may be stale
// by the time the caller acts on it, except that Completed and Cancelled are
// terminal and final.
func (t *Task[T]) State() TaskState {
	return TaskState(t.state.Load())
}

// Output returns the task's output and true if the task has completed, or
// the zero value and false otherwise — including after cancellation, which
// leaves the slot forever unwritten. Output never blocks; callers that need
// the value should use [Task.Wait] or chain with [Then] rather than poll.
func (t *Task[T]) Output() (T, bool) {
	select {
	case <-t.done:
	default:
		var zero T
		return zero, false
	}
	if t.State() != Completed {
		var zero T
		return zero, false
	}
	return t.value, true
}

// Cancel requests that the task never run. If the task has not yet started,
// it moves to Cancelled, its work function will never be called, and any
// children chained from it are cancelled in turn. If the task is already
// running or has completed, Cancel has no effect. Cancel never blocks and is
// safe to call any number of times from any goroutine.
func (t *Task[T]) Cancel() {
	if t.state.CompareAndSwap(int32(Pending), int32(Cancelled)) ||
		t.state.CompareAndSwap(int32(Scheduled), int32(Cancelled)) {
		t.finish(outcome[T]{cancelled: true})
	}
}

// Wait blocks the calling goroutine until the task reaches Completed or
// Cancelled, or until ctx is done, whichever comes first. It returns
// [WaitFinished] in the former case and [WaitTimedOut] in the latter, and
// does not consume the task: waiting again after WaitFinished returns
// WaitFinished immediately.
//
// Wait is legal from within a unit running on a lane, but a body that waits
// on work scheduled behind it on the same serial lane will deadlock, and
// enough simultaneous in-body waits can exhaust a lane's width.
func (t *Task[T]) Wait(ctx context.Context) WaitResult {
	select {
	case <-t.done:
		return WaitFinished
	default:
	}
	select {
	case <-t.done:
		return WaitFinished
	case <-ctx.Done():
		return WaitTimedOut
	}
}

// WaitTimeout is [Task.Wait] with a duration bound instead of a context.
func (t *Task[T]) WaitTimeout(d time.Duration) WaitResult {
	select {
	case <-t.done:
		return WaitFinished
	default:
	}
	timer := timerp.Get(d)
	defer timerp.Put(timer)
	select {
	case <-t.done:
		return WaitFinished
	case <-timer.C:
		return WaitTimedOut
	}
}

// schedule moves the task from Pending to Scheduled and hands its work
// function to the executor. It does nothing if the task was cancelled while
// still Pending, which is how a chained child stays dead when it is
// cancelled before its parent completes.
func (t *Task[T]) schedule(lane *Lane, delay time.Duration, fn func() T) {
	if !t.state.CompareAndSwap(int32(Pending), int32(Scheduled)) {
		return
	}
	run := func() {
		// This is the cancellation checkpoint: a cancel request that lands
		// before this transition keeps the work function from ever running,
		// one that lands after it is dropped.
		if !t.state.CompareAndSwap(int32(Scheduled), int32(Running)) {
			return
		}
		t.complete(fn())
	}
	if delay > 0 {
		t.ex.SubmitAfter(lane, delay, run)
	} else {
		t.ex.Submit(lane, run)
	}
}

func (t *Task[T]) complete(v T) {
	t.value = v
	t.state.Store(int32(Completed))
	t.finish(outcome[T]{value: v})
}

// finish publishes the terminal state: it closes the done channel and
// delivers the outcome to every registered continuation. The continuation
// list is swapped out under the lock so that each registration fires exactly
// once.
func (t *Task[T]) finish(oc outcome[T]) {
	t.mu.Lock()
	conts := t.continuations
	t.continuations = nil
	close(t.done)
	t.mu.Unlock()
	for _, fn := range conts {
		fn(oc)
	}
}

// onTerminal registers fn to be called once with the task's terminal
// outcome. If the task is already terminal, fn runs immediately on the
// calling goroutine.
func (t *Task[T]) onTerminal(fn func(outcome[T])) {
	t.mu.Lock()
	select {
	case <-t.done:
	default:
		t.continuations = append(t.continuations, fn)
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	if t.State() == Completed {
		fn(outcome[T]{value: t.value})
	} else {
		fn(outcome[T]{cancelled: true})
	}
}
