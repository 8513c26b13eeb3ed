// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package lanes_test

import (
	"context"
	"fmt"

	// Superfluous alias needed to work around
	// https://github.com/golang/go/issues/12794
	lanes "github.com/petenewcomb/lanes-go"
)

// "Hello world" example that chains two tasks across lanes and waits for the
// result.
func Example_hello() {
	ex := lanes.NewExecutor(lanes.Widths{})
	defer ex.Shutdown()

	task := lanes.Async(ex, ex.Lane(lanes.UserInitiated), func() string {
		return "Hello"
	})
	task = lanes.Then(task, ex.Lane(lanes.Background), func(s string) string {
		return s + " world!"
	})

	task.Wait(context.Background())
	greeting, _ := task.Output()
	fmt.Println(greeting)
	// Output: Hello world!
}
