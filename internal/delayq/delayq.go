// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package delayq provides a time-ordered queue of deferred function calls
// serviced by a single timer goroutine.
package delayq

import (
	"sync"
	"time"

	"github.com/addrummond/heap"
)

type entry struct {
	at time.Time
	fn func()
}

func (a *entry) Cmp(b *entry) int {
	return a.at.Compare(b.at)
}

// A Queue holds functions to be called once their deadlines arrive. Calls are
// made from the queue's own goroutine, in deadline order; functions are
// expected to hand real work off elsewhere rather than run it in place.
//
// A Queue must be created with [New].
type Queue struct {
	mu     sync.Mutex
	h      heap.Heap[entry, heap.Min]
	wake   chan struct{}
	done   chan struct{}
	exited chan struct{}
	closed bool
}

// New creates a queue and starts its timer goroutine.
func New() *Queue {
	q := &Queue{
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	go q.loop()
	return q
}

// Add schedules fn to be called once d has elapsed. Add after [Queue.Close]
// is a no-op.
func (q *Queue) Add(d time.Duration, fn func()) {
	at := time.Now().Add(d)
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	heap.PushOrderable(&q.h, entry{at: at, fn: fn})
	first, ok := heap.Peek(&q.h)
	q.mu.Unlock()

	// Wake the loop only when the new entry moved the front of the queue,
	// otherwise the timer already covers it.
	if ok && first.at.Equal(at) {
		select {
		case q.wake <- struct{}{}:
		default:
		}
	}
}

// Close stops the timer goroutine and discards entries that have not yet come
// due. It returns once the goroutine has exited. Calling Close more than once
// has no additional effect.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.exited
		return
	}
	q.closed = true
	q.mu.Unlock()
	close(q.done)
	<-q.exited
}

func (q *Queue) loop() {
	defer close(q.exited)
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()
	for {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		if wait, ok := q.next(); ok {
			timer.Reset(wait)
		}

		select {
		case <-q.done:
			return
		case <-timer.C:
			q.fireDue()
		case <-q.wake:
			// Front of the queue changed; recompute the timer.
		}
	}
}

// next returns how long to wait until the earliest entry is due. The second
// return value is false when the queue is empty and the timer should stay
// stopped.
func (q *Queue) next() (time.Duration, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	first, ok := heap.Peek(&q.h)
	if !ok {
		return 0, false
	}
	return max(time.Until(first.at), 0), true
}

func (q *Queue) fireDue() {
	now := time.Now()
	for {
		q.mu.Lock()
		first, ok := heap.Peek(&q.h)
		if !ok || first.at.After(now) {
			q.mu.Unlock()
			return
		}
		e, _ := heap.PopOrderable(&q.h)
		q.mu.Unlock()
		e.fn()
	}
}
