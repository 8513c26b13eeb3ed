// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package lanes

import "context"

// A BodyFunc is one iteration of a [ParallelFor] loop. It receives the
// iteration index. The same execution and panic caveats as [WorkFunc] apply.
type BodyFunc = func(i int)

// ParallelFor calls body once for every index in [0, n), running iterations
// concurrently on the given lane up to the lane's width, and blocks the
// calling goroutine until every iteration has returned. Iterations are
// started in index order but complete in no particular order; the only
// guarantee at return is that all of them have run. If n is zero or
// negative, ParallelFor returns immediately without calling body.
//
// There is no per-iteration cancellation and no result aggregation; body
// communicates through whatever thread-safe state it captures. Calling
// ParallelFor from a unit already running on the same lane consumes that
// unit's slot for the whole loop and deadlocks if the lane is serial.
func ParallelFor(ex *Executor, lane *Lane, n int, body BodyFunc) {
	if body == nil {
		panic("body function must be non-nil")
	}
	g := NewGroup(ex)
	for i := 0; i < n; i++ {
		g.Submit(lane, func() {
			body(i)
		})
	}
	g.Wait(context.Background())
}
