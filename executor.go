// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package lanes

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/petenewcomb/lanes-go/internal/delayq"
)

// Widths sets the concurrency width of each built-in lane class of an
// [Executor]. Zero or negative fields are replaced with the corresponding
// [DefaultWidths] value. The Main lane is always serial; its width cannot be
// configured.
type Widths struct {
	UserInteractive int
	UserInitiated   int
	Utility         int
	Background      int
}

// DefaultWidths returns lane widths scaled to the number of available CPUs:
// the interactive and initiated classes get one slot per CPU while the
// utility and background classes get progressively fewer, so urgent work is
// never starved by bulk work.
func DefaultWidths() Widths {
	n := runtime.GOMAXPROCS(0)
	return Widths{
		UserInteractive: n,
		UserInitiated:   n,
		Utility:         max(n/2, 1),
		Background:      max(n/4, 1),
	}
}

// An Executor owns a set of prioritized FIFO lanes and the worker goroutines
// that service them. It is the substrate beneath [Async], [Group], and
// [ParallelFor]: everything in this package ultimately becomes a unit of work
// submitted to one of an executor's lanes.
//
// An Executor must be created with [NewExecutor]. All methods are
// thread-safe. Once [Executor.Shutdown] has been called, submitting further
// work panics.
type Executor struct {
	classes [numClasses]*Lane
	delays  *delayq.Queue
	wg      sync.WaitGroup
	down    atomic.Bool
}

// NewExecutor creates an executor with the five built-in class lanes sized
// according to w. Use Widths{} to accept [DefaultWidths].
//
// Each call to NewExecutor should typically be followed by a deferred call to
// [Executor.Shutdown] so that an early exit from the calling function does
// not leave worker goroutines behind.
func NewExecutor(w Widths) *Executor {
	d := DefaultWidths()
	if w.UserInteractive <= 0 {
		w.UserInteractive = d.UserInteractive
	}
	if w.UserInitiated <= 0 {
		w.UserInitiated = d.UserInitiated
	}
	if w.Utility <= 0 {
		w.Utility = d.Utility
	}
	if w.Background <= 0 {
		w.Background = d.Background
	}
	e := &Executor{}
	widths := [numClasses]int{
		Main:            1,
		UserInteractive: w.UserInteractive,
		UserInitiated:   w.UserInitiated,
		Utility:         w.Utility,
		Background:      w.Background,
	}
	for c := Class(0); c < numClasses; c++ {
		e.classes[c] = &Lane{ex: e, name: c.String(), width: widths[c]}
	}
	e.delays = delayq.New()
	return e
}

// Lane returns the built-in lane for the given class.
func (e *Executor) Lane(c Class) *Lane {
	if c < 0 || c >= numClasses {
		panic("invalid lane class")
	}
	return e.classes[c]
}

// NewLane creates a custom lane with the given name and concurrency width. A
// width of one yields a serial lane, a negative width an unbounded one. A
// width of zero is not allowed, since a lane that can never run anything
// would make every submission hang.
func (e *Executor) NewLane(name string, width int) *Lane {
	if width == 0 {
		panic("lane width must be non-zero")
	}
	e.panicIfDown()
	return &Lane{ex: e, name: name, width: width}
}

// Submit enqueues fn on the given lane for eventual execution. It never
// blocks: fn starts as soon as the lane has a free slot and every unit
// submitted to the lane before it has started. Submit provides no way to
// observe fn's completion; use [Async] or [Group.Submit] when completion
// matters.
func (e *Executor) Submit(lane *Lane, fn func()) {
	e.vet(lane, fn)
	lane.enqueue(fn)
}

// SubmitAfter enqueues fn on the given lane once the delay has elapsed. A
// non-positive delay is equivalent to [Executor.Submit]. Delayed units that
// have not yet come due when [Executor.Shutdown] is called are dropped.
func (e *Executor) SubmitAfter(lane *Lane, delay time.Duration, fn func()) {
	e.vet(lane, fn)
	if delay <= 0 {
		lane.enqueue(fn)
		return
	}
	e.delays.Add(delay, func() {
		if !e.down.Load() {
			lane.enqueue(fn)
		}
	})
}

// RunBlocking submits fn to the given lane and blocks the calling goroutine
// until fn has returned. Calling RunBlocking from a unit already running on
// the same serial lane deadlocks, as fn can never reach the front of the
// queue while its caller occupies the lane's only slot.
func (e *Executor) RunBlocking(lane *Lane, fn func()) {
	e.vet(lane, fn)
	done := make(chan struct{})
	lane.enqueue(func() {
		defer close(done)
		fn()
	})
	<-done
}

// Shutdown stops the executor: pending delayed units are dropped, already
// queued units are drained, and Shutdown returns once every worker goroutine
// has exited. Subsequent submissions panic. Calling Shutdown more than once
// has no additional effect.
//
// Shutdown provides only best-effort protection against races with
// concurrent submissions; callers are expected to stop submitting before
// shutting down.
func (e *Executor) Shutdown() {
	if !e.down.CompareAndSwap(false, true) {
		return
	}
	e.delays.Close()
	e.wg.Wait()
}

func (e *Executor) vet(lane *Lane, fn func()) {
	if fn == nil {
		panic("work function must be non-nil")
	}
	if lane == nil {
		panic("lane must be non-nil")
	}
	if lane.ex != e {
		panic("lane belongs to a different executor")
	}
	e.panicIfDown()
}

func (e *Executor) panicIfDown() {
	if e.down.Load() {
		panic("executor has been shut down")
	}
}
