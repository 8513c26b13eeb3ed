// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package lanes_test

import (
	"context"
	"fmt"
	"sync/atomic"

	// Superfluous alias needed to work around
	// https://github.com/golang/go/issues/12794
	lanes "github.com/petenewcomb/lanes-go"
)

// A group acts as a barrier over a batch of concurrent submissions.
func Example_group() {
	ex := lanes.NewExecutor(lanes.Widths{})
	defer ex.Shutdown()

	g := lanes.NewGroup(ex)
	var sum atomic.Int64
	for i := 1; i <= 10; i++ {
		g.Submit(ex.Lane(lanes.Background), func() {
			sum.Add(int64(i))
		})
	}
	g.Wait(context.Background())

	fmt.Println(sum.Load())
	// Output: 55
}
