// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package lanes_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/petenewcomb/lanes-go"
	"github.com/stretchr/testify/require"
)

func TestMainLaneRunsInSubmissionOrder(t *testing.T) {
	chk := require.New(t)
	ex := lanes.NewExecutor(lanes.Widths{})
	defer ex.Shutdown()
	main := ex.Lane(lanes.Main)

	var order []int
	for i := 0; i < 100; i++ {
		ex.Submit(main, func() {
			order = append(order, i)
		})
	}
	// The main lane is serial, so this blocks until everything submitted
	// above has run.
	ex.RunBlocking(main, func() {})

	chk.Len(order, 100)
	for i, v := range order {
		chk.Equal(i, v)
	}
}

func TestSubmitAfterHonorsDelay(t *testing.T) {
	chk := require.New(t)
	ex := lanes.NewExecutor(lanes.Widths{})
	defer ex.Shutdown()

	const delay = 30 * time.Millisecond
	start := time.Now()
	done := make(chan struct{})
	ex.SubmitAfter(ex.Lane(lanes.Background), delay, func() {
		close(done)
	})
	<-done
	chk.GreaterOrEqual(time.Since(start), delay)
}

func TestSubmitAfterNonPositiveDelayRunsImmediately(t *testing.T) {
	chk := require.New(t)
	ex := lanes.NewExecutor(lanes.Widths{})
	defer ex.Shutdown()

	done := make(chan struct{})
	ex.SubmitAfter(ex.Lane(lanes.Utility), 0, func() {
		close(done)
	})
	select {
	case <-done:
	case <-time.After(time.Second):
		chk.Fail("zero-delay unit did not run")
	}
}

func TestCustomLaneWidthBoundsConcurrency(t *testing.T) {
	chk := require.New(t)
	ex := lanes.NewExecutor(lanes.Widths{})
	defer ex.Shutdown()
	lane := ex.NewLane("bounded", 3)

	var current, peak atomic.Int32
	g := lanes.NewGroup(ex)
	for i := 0; i < 50; i++ {
		g.Submit(lane, func() {
			c := current.Add(1)
			for {
				p := peak.Load()
				if c <= p || peak.CompareAndSwap(p, c) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			current.Add(-1)
		})
	}
	chk.Equal(lanes.WaitFinished, g.WaitTimeout(10*time.Second))
	chk.Positive(peak.Load())
	chk.LessOrEqual(peak.Load(), int32(3))
}

func TestUnboundedLaneRunsAllAtOnce(t *testing.T) {
	chk := require.New(t)
	ex := lanes.NewExecutor(lanes.Widths{})
	defer ex.Shutdown()
	lane := ex.NewLane("unbounded", -1)

	const n = 16
	var started sync.WaitGroup
	started.Add(n)
	release := make(chan struct{})
	g := lanes.NewGroup(ex)
	for i := 0; i < n; i++ {
		g.Submit(lane, func() {
			started.Done()
			<-release
		})
	}
	// Every unit must be able to run simultaneously for this to unblock.
	started.Wait()
	close(release)
	chk.Equal(lanes.WaitFinished, g.WaitTimeout(10*time.Second))
}

func TestRunBlockingReturnsAfterBody(t *testing.T) {
	chk := require.New(t)
	ex := lanes.NewExecutor(lanes.Widths{})
	defer ex.Shutdown()

	ran := false
	ex.RunBlocking(ex.Lane(lanes.UserInitiated), func() {
		time.Sleep(5 * time.Millisecond)
		ran = true
	})
	chk.True(ran)
}

func TestShutdownDrainsQueuedWork(t *testing.T) {
	chk := require.New(t)
	ex := lanes.NewExecutor(lanes.Widths{})

	var count atomic.Int32
	for i := 0; i < 100; i++ {
		ex.Submit(ex.Lane(lanes.Background), func() {
			count.Add(1)
		})
	}
	ex.Shutdown()
	chk.Equal(int32(100), count.Load())
}

func TestShutdownDropsPendingDelayedWork(t *testing.T) {
	chk := require.New(t)
	ex := lanes.NewExecutor(lanes.Widths{})

	var count atomic.Int32
	ex.SubmitAfter(ex.Lane(lanes.Background), 50*time.Millisecond, func() {
		count.Add(1)
	})
	ex.Shutdown()
	time.Sleep(100 * time.Millisecond)
	chk.Zero(count.Load())
}

func TestShutdownIsIdempotent(t *testing.T) {
	ex := lanes.NewExecutor(lanes.Widths{})
	ex.Shutdown()
	ex.Shutdown()
}

func TestSubmitAfterShutdownPanics(t *testing.T) {
	chk := require.New(t)
	ex := lanes.NewExecutor(lanes.Widths{})
	lane := ex.Lane(lanes.Main)
	ex.Shutdown()
	chk.PanicsWithValue("executor has been shut down", func() {
		ex.Submit(lane, func() {})
	})
}

func TestSubmitNilFuncPanics(t *testing.T) {
	chk := require.New(t)
	ex := lanes.NewExecutor(lanes.Widths{})
	defer ex.Shutdown()
	chk.PanicsWithValue("work function must be non-nil", func() {
		ex.Submit(ex.Lane(lanes.Main), nil)
	})
}

func TestSubmitForeignLanePanics(t *testing.T) {
	chk := require.New(t)
	ex := lanes.NewExecutor(lanes.Widths{})
	defer ex.Shutdown()
	other := lanes.NewExecutor(lanes.Widths{})
	defer other.Shutdown()
	chk.PanicsWithValue("lane belongs to a different executor", func() {
		ex.Submit(other.Lane(lanes.Main), func() {})
	})
}

func TestNewLaneZeroWidthPanics(t *testing.T) {
	chk := require.New(t)
	ex := lanes.NewExecutor(lanes.Widths{})
	defer ex.Shutdown()
	chk.PanicsWithValue("lane width must be non-zero", func() {
		ex.NewLane("zero", 0)
	})
}

func TestLaneAccessors(t *testing.T) {
	chk := require.New(t)
	ex := lanes.NewExecutor(lanes.Widths{})
	defer ex.Shutdown()

	chk.Equal("main", ex.Lane(lanes.Main).Name())
	chk.Equal(1, ex.Lane(lanes.Main).Width())
	chk.Equal("background", ex.Lane(lanes.Background).Name())

	lane := ex.NewLane("custom", 7)
	chk.Equal("custom", lane.Name())
	chk.Equal(7, lane.Width())
}
