package workerpool

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/coldb/coldb/pkg/block"
)

// Dispatch partitions [0,totalElems) into tasks of grain
// Morsel*MorselsPerTask, publishes them to the ring, wakes every
// background worker, participates in execution itself, and returns once
// every task has completed (spec §4.6). Concurrent calls to Dispatch (or
// DispatchPartitions) on the same pool are serialized.
func (p *Pool) Dispatch(fn TaskFn, totalElems int) {
	if totalElems <= 0 {
		return
	}
	grain := Morsel * MorselsPerTask
	var tasks []task
	for start := 0; start < totalElems; start += grain {
		end := start + grain
		if end > totalElems {
			end = totalElems
		}
		tasks = append(tasks, task{fn: fn, start: start, end: end})
	}
	p.run(tasks)
}

// DispatchPartitions dispatches exactly n one-unit tasks [i,i+1), used for
// partitioned hash aggregates and joins (spec §4.6) where the "row range"
// is really a partition index.
func (p *Pool) DispatchPartitions(fn TaskFn, n int) {
	if n <= 0 {
		return
	}
	tasks := make([]task, n)
	for i := 0; i < n; i++ {
		tasks[i] = task{fn: fn, start: i, end: i + 1}
	}
	p.run(tasks)
}

func (p *Pool) run(tasks []task) {
	p.dispatchMu.Lock()
	defer p.dispatchMu.Unlock()

	block.SetParallel(true)
	defer block.SetParallel(false)

	var wg sync.WaitGroup
	wg.Add(len(tasks))
	p.wg = &wg

	p.ring.publish(tasks)
	p.wake.Release(int64(p.n))

	p.drain(0) // the dispatching goroutine participates as worker 0
	wg.Wait()
}

// drain claims and executes tasks from the ring until it's exhausted.
// Tasks claimed after Cancel are still counted as done (spec: "remaining
// tasks are drained ... without running the function").
func (p *Pool) drain(workerID int) {
	for {
		t, ok := p.ring.claim()
		if !ok {
			return
		}
		if atomic.LoadInt32(&p.cancelled) == 0 {
			t.fn(workerID, t.start, t.end)
		}
		p.wg.Done()
	}
}

func (p *Pool) workerLoop(id int) {
	ctx := context.Background()
	for {
		if err := p.wake.Acquire(ctx, 1); err != nil {
			return
		}
		select {
		case <-p.quit:
			return
		default:
		}
		p.drain(id)
	}
}

// Cancel sets the cancellation flag: queued-but-unclaimed tasks from the
// in-flight dispatch are drained without running (spec §4.6).
func (p *Pool) Cancel() { atomic.StoreInt32(&p.cancelled, 1) }

// ClearCancel resets the cancellation flag. The executor calls this at the
// start of every query (spec §4.6: "the executor clears the flag at the
// start of each query").
func (p *Pool) ClearCancel() { atomic.StoreInt32(&p.cancelled, 0) }

// Cancelled reports whether the cancellation flag is currently set.
func (p *Pool) Cancelled() bool { return atomic.LoadInt32(&p.cancelled) == 1 }
