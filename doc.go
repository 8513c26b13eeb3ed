// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package lanes provides chained, cancellable tasks over a priority-classed
// executor. It lets callers express "do this, then that, possibly later,
// possibly in parallel" without writing queue, barrier, or cancellation
// boilerplate of their own.
//
// An [Executor] owns a set of FIFO lanes, one per priority [Class] plus any
// custom lanes, each with a fixed concurrency width. [Async] submits a typed
// unit of work to a lane and returns a [Task] handle; [Then] chains a second
// typed unit that consumes the first one's output and is guaranteed never to
// start before it is available. Chains are typed end to end: a step whose
// input does not match the previous step's output fails to compile.
//
// A [Task] can be cancelled up until the moment a lane worker picks it up.
// Cancellation is cooperative and non-preemptive: a unit that has started
// always runs to completion, and a cancelled parent cancels its chained
// children instead of leaving them waiting forever.
//
// A [Group] is a reference-counted barrier over an open set of units —
// submitted through the group, attached with [Track], or bracketed manually
// with [Group.Enter] and [Group.Leave] — that can be blocked on with
// [Group.Wait] or observed asynchronously with [Group.Notify].
// [ParallelFor] fans a loop body out across a lane and joins before
// returning.
//
// This package is purely an in-process synchronization library: there is no
// persistence, no wire format, and no structured error channel. A panic in a
// unit of work crashes the process, exactly as a panic in any other
// goroutine does.
package lanes
