// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package lanes_test

import (
	"fmt"

	// Superfluous alias needed to work around
	// https://github.com/golang/go/issues/12794
	lanes "github.com/petenewcomb/lanes-go"
)

// ParallelFor fans a loop body out across a lane and joins before returning.
// Each iteration writes its own slice element, so no further synchronization
// is needed.
func Example_parallelFor() {
	ex := lanes.NewExecutor(lanes.Widths{})
	defer ex.Shutdown()

	squares := make([]int, 5)
	lanes.ParallelFor(ex, ex.Lane(lanes.Utility), len(squares), func(i int) {
		squares[i] = i * i
	})

	fmt.Println(squares)
	// Output: [0 1 4 9 16]
}
