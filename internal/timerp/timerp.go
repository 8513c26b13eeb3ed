// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package timerp pools timers for timed waits so that short, frequent waits
// do not allocate.
package timerp

import (
	"sync"
	"time"
)

// This implementation relies on [Go 1.23+ behavior], under which an
// un-drained timer channel cannot deliver a stale tick after Reset.
//
// [Go 1.23+ behavior]: https://pkg.go.dev/time#NewTimer

var pool = sync.Pool{
	New: func() any {
		t := time.NewTimer(time.Hour)
		t.Stop()
		return t
	},
}

// Get returns a timer that will fire after d.
func Get(d time.Duration) *time.Timer {
	t := pool.Get().(*time.Timer)
	t.Reset(d)
	return t
}

// Put stops the timer and returns it to the pool.
func Put(t *time.Timer) {
	t.Stop()
	pool.Put(t)
}
