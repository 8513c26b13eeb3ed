// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package lanes

import (
	"context"
	"sync"
	"time"

	"github.com/petenewcomb/lanes-go/internal/timerp"
)

// A Group is a reference-counted barrier over a dynamic set of in-flight
// units. Callers add to the set with [Group.Enter]/[Group.Leave],
// [Group.Submit], or [Track], then either block on [Group.Wait] or register
// a completion callback with [Group.Notify].
//
// A group may be reused for consecutive batches: once it has drained to
// zero, a new Enter or Submit opens a fresh batch. Notifications registered
// against one batch are consumed when that batch drains and never fire for a
// later one.
//
// A Group must be created with [NewGroup]. All methods are thread-safe.
type Group struct {
	ex *Executor

	mu      sync.Mutex
	pending int
	// drained is the current batch's broadcast channel, closed when the
	// count returns to zero and replaced on the next Enter. nil while the
	// group is idle.
	drained chan struct{}
	// notes is the current batch's notification mailbox. It is swapped out
	// in the same critical section that detects the drain, so registrations
	// for a subsequent batch can never be confused with the batch that just
	// drained.
	notes []notification
}

type notification struct {
	lane *Lane
	fn   func()
}

// NewGroup creates an empty group whose submissions and notifications run on
// the given executor.
func NewGroup(ex *Executor) *Group {
	if ex == nil {
		panic("executor must be non-nil")
	}
	return &Group{ex: ex}
}

// Enter adds one unit to the group's in-flight count. Every Enter must be
// balanced by exactly one [Group.Leave]; the group has no way to detect a
// missing Leave, which simply makes [Group.Wait] block forever.
func (g *Group) Enter() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == 0 {
		g.drained = make(chan struct{})
	}
	g.pending++
}

// Leave removes one unit from the group's in-flight count. If the count
// reaches zero, all waiters unblock and all registered notifications are
// submitted to their lanes. Leave without a matching [Group.Enter] panics.
func (g *Group) Leave() {
	g.mu.Lock()
	if g.pending <= 0 {
		g.mu.Unlock()
		panic("group count underflow: Leave without matching Enter")
	}
	g.pending--
	if g.pending > 0 {
		g.mu.Unlock()
		return
	}
	drained := g.drained
	notes := g.notes
	g.drained = nil
	g.notes = nil
	g.mu.Unlock()

	close(drained)
	for _, n := range notes {
		g.ex.Submit(n.lane, n.fn)
	}
}

// Submit runs fn on the given lane as a unit of this group: the group's
// count is incremented before submission and decremented when fn returns.
// Equivalent to an Enter/Leave pair around an ad hoc unit. Units submitted
// to the same group run concurrently, with no ordering among them.
func (g *Group) Submit(lane *Lane, fn func()) {
	g.submit(lane, 0, fn)
}

// SubmitAfter is [Group.Submit] with a delay. The group's count is
// incremented immediately, so a [Group.Wait] issued during the delay blocks
// until the delayed unit has run.
func (g *Group) SubmitAfter(lane *Lane, delay time.Duration, fn func()) {
	g.submit(lane, delay, fn)
}

func (g *Group) submit(lane *Lane, delay time.Duration, fn func()) {
	if fn == nil {
		panic("work function must be non-nil")
	}
	g.Enter()
	wrapped := func() {
		fn()
		g.Leave()
	}
	if delay > 0 {
		g.ex.SubmitAfter(lane, delay, wrapped)
	} else {
		g.ex.Submit(lane, wrapped)
	}
}

// Wait blocks the calling goroutine until the group's count reaches zero or
// ctx is done, returning [WaitFinished] or [WaitTimedOut] respectively. A
// group that is already at zero returns WaitFinished immediately.
//
// Wait may be called from a unit running on a lane, but every such waiter
// occupies one of the lane's slots while blocked; enough of them can leave
// no slot free to run the very units the group is waiting for.
func (g *Group) Wait(ctx context.Context) WaitResult {
	drained, ok := g.batch()
	if !ok {
		return WaitFinished
	}
	select {
	case <-drained:
		return WaitFinished
	case <-ctx.Done():
		return WaitTimedOut
	}
}

// WaitTimeout is [Group.Wait] with a duration bound instead of a context.
func (g *Group) WaitTimeout(d time.Duration) WaitResult {
	drained, ok := g.batch()
	if !ok {
		return WaitFinished
	}
	timer := timerp.Get(d)
	defer timerp.Put(timer)
	select {
	case <-drained:
		return WaitFinished
	case <-timer.C:
		return WaitTimedOut
	}
}

func (g *Group) batch() (chan struct{}, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == 0 {
		return nil, false
	}
	return g.drained, true
}

// Notify registers fn to be submitted to the given lane once the group's
// count reaches zero. Notify never blocks. If the group is already at zero,
// fn is submitted immediately. Multiple registrations are all honored when
// the current batch drains, in registration order, and are consumed by that
// drain: a group reused for a later batch does not fire them again.
func (g *Group) Notify(lane *Lane, fn func()) {
	if fn == nil {
		panic("work function must be non-nil")
	}
	if lane == nil || lane.ex != g.ex {
		panic("lane belongs to a different executor")
	}
	g.mu.Lock()
	if g.pending > 0 {
		g.notes = append(g.notes, notification{lane: lane, fn: fn})
		g.mu.Unlock()
		return
	}
	g.mu.Unlock()
	g.ex.Submit(lane, fn)
}

// Pending returns the group's current in-flight count. The value may be
// stale by the time the caller acts on it; use [Group.Wait] or
// [Group.Notify] to synchronize with the count reaching zero.
func (g *Group) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending
}

// Track attaches a task to the group: the group's count is incremented now
// and decremented when the task reaches Completed or Cancelled. It returns
// the task to allow attachment inline with a chaining call.
func Track[T any](g *Group, t *Task[T]) *Task[T] {
	if t == nil {
		panic("task must be non-nil")
	}
	g.Enter()
	t.onTerminal(func(outcome[T]) {
		g.Leave()
	})
	return t
}
