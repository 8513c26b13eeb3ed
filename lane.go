// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package lanes

import (
	"sync"

	"github.com/gammazero/deque"
)

// A Class identifies one of the built-in priority lanes that every [Executor]
// provides. Classes are ordered from most to least urgent. Work that belongs
// to none of the built-in classes can be run on a custom lane created with
// [Executor.NewLane].
type Class int

const (
	// Main is a serial lane (width one). Units submitted to it run one at a
	// time in submission order, which makes it suitable for work that mutates
	// state owned by a single logical thread.
	Main Class = iota

	// UserInteractive is the most urgent concurrent class, for work the user
	// is actively waiting on.
	UserInteractive

	// UserInitiated is for work started explicitly by the user that should
	// complete soon but is not blocking interaction.
	UserInitiated

	// Utility is for longer-running work with visible progress.
	Utility

	// Background is the least urgent class, for work the user is not aware
	// of.
	Background

	numClasses
)

func (c Class) String() string {
	switch c {
	case Main:
		return "main"
	case UserInteractive:
		return "user-interactive"
	case UserInitiated:
		return "user-initiated"
	case Utility:
		return "utility"
	case Background:
		return "background"
	default:
		return "invalid"
	}
}

// A Lane is a FIFO dispatch queue with a fixed concurrency width, owned by
// exactly one [Executor]. Units submitted to a lane are started in submission
// order, with at most width units running at once. A lane of width one is
// strictly serial.
//
// Lane handles are obtained from [Executor.Lane] or [Executor.NewLane] and
// are only valid with the executor that created them.
type Lane struct {
	ex    *Executor
	name  string
	width int

	mu      sync.Mutex
	queue   deque.Deque[func()]
	running int
}

// Name returns the name the lane was created with. Built-in lanes are named
// after their [Class].
func (l *Lane) Name() string {
	return l.name
}

// Width returns the lane's concurrency width. A negative width means the
// lane is unbounded.
func (l *Lane) Width() int {
	return l.width
}

func (l *Lane) enqueue(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.queue.PushBack(fn)
	if l.width < 0 || l.running < l.width {
		l.running++
		l.ex.wg.Add(1)
		go l.work()
	}
}

// work drains the lane's queue until it is empty, then exits. Each call
// occupies one of the lane's width slots; enqueue spawns a new worker only
// when a slot is free, so no more than width units ever run at once.
func (l *Lane) work() {
	defer l.ex.wg.Done()
	for {
		l.mu.Lock()
		if l.queue.Len() == 0 {
			l.running--
			l.mu.Unlock()
			return
		}
		fn := l.queue.PopFront()
		l.mu.Unlock()

		// Since this is the top-level call of a worker goroutine, a panic
		// here terminates the whole program. Units that must survive their
		// own failures are expected to recover within fn itself.
		fn()
	}
}
