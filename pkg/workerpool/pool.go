// Package workerpool implements coldb's persistent worker pool: a
// fixed-size set of background goroutines plus the calling goroutine
// ("worker 0") that together execute row-range tasks published to a
// shared ring (spec §4.6).
package workerpool

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/coldb/coldb/pkg/block"
)

// Morsel is the element granularity a single kernel invocation processes
// (spec §4.9).
const Morsel = 1024

// MorselsPerTask sets the dispatch grain size, amortizing per-task
// overhead: a dispatched task spans MorselsPerTask morsels.
const MorselsPerTask = 8

// ParallelThreshold is the row count above which Dispatch actually fans
// out across workers; below it the caller is expected to run serially
// (spec §4.9's "≈65536-row parallelism threshold"). Dispatch itself
// always fans out when called; pkg/exec consults this constant before
// deciding to call Dispatch at all.
const ParallelThreshold = 65536

const ringCapacityHint = 256

// Pool is a persistent set of background workers plus task-ring dispatch
// (spec §4.6). The caller's own goroutine always participates as worker 0.
type Pool struct {
	n    int // background worker count (excludes the participant)
	heaps []*block.Heap

	wake *semaphore.Weighted
	ring *ring
	quit chan struct{}

	dispatchMu sync.Mutex // spec: "no overlapping dispatches"
	wg         *sync.WaitGroup

	cancelled int32 // atomic bool
}

func defaultWorkerCount() int {
	n := runtime.NumCPU() - 1
	if n < 1 {
		n = 1
	}
	return n
}

// newPool builds a pool with n background workers, each pre-assigned its
// own block.Heap (coldb's arena-handle stand-in for a thread-local heap,
// see pkg/block/heap.go) plus one more for the participant at index 0.
func newPool(n int) *Pool {
	p := &Pool{
		n:     n,
		heaps: make([]*block.Heap, n+1),
		wake:  semaphore.NewWeighted(int64(n)),
		ring:  newRing(ringCapacityHint),
		quit:  make(chan struct{}),
	}
	for i := range p.heaps {
		p.heaps[i] = block.NewHeap()
	}
	// Consume the semaphore's full capacity up front so background workers
	// block on Acquire until a dispatch explicitly wakes them (spec: "wake
	// semaphore incremented once per worker per dispatch; workers sleep on
	// it between dispatches").
	_ = p.wake.Acquire(context.Background(), int64(n))
	for i := 1; i <= n; i++ {
		go p.workerLoop(i)
	}
	return p
}

// Heap returns the block.Heap assigned to workerID (0 is the participant).
func (p *Pool) Heap(workerID int) *block.Heap { return p.heaps[workerID] }

// NumWorkers returns the total number of participants, including worker 0.
func (p *Pool) NumWorkers() int { return p.n + 1 }

type lifecycleState int32

const (
	stateUninit lifecycleState = iota
	stateInitializing
	stateReady
	stateDestroying
)

var (
	globalMu    sync.Mutex
	global      *Pool
	globalState int32 // lifecycleState
)

// Get returns the process-wide pool, lazily creating it with
// runtime.NumCPU()-1 background workers (spec §4.6's default). The
// lifecycle is a 4-state CAS loop (uninit/initializing/ready/destroying)
// matching spec §4.6 exactly, adapted to Go's atomic primitives.
func Get() *Pool { return GetWithWorkers(defaultWorkerCount()) }

// GetWithWorkers is Get with an explicit background-worker count, mainly
// for tests that want deterministic parallelism.
func GetWithWorkers(n int) *Pool {
	for {
		switch lifecycleState(atomic.LoadInt32(&globalState)) {
		case stateReady:
			globalMu.Lock()
			p := global
			globalMu.Unlock()
			if p != nil {
				return p
			}
			runtime.Gosched()
		case stateUninit:
			if atomic.CompareAndSwapInt32(&globalState, int32(stateUninit), int32(stateInitializing)) {
				p := newPool(n)
				globalMu.Lock()
				global = p
				globalMu.Unlock()
				atomic.StoreInt32(&globalState, int32(stateReady))
				return p
			}
		default:
			runtime.Gosched()
		}
	}
}

// Destroy tears down the process-wide pool. A later Get reinitializes a
// fresh one (spec §4.6: "re-initialization requires explicit destroy").
func Destroy() {
	if !atomic.CompareAndSwapInt32(&globalState, int32(stateReady), int32(stateDestroying)) {
		return
	}
	globalMu.Lock()
	p := global
	global = nil
	globalMu.Unlock()
	if p != nil {
		close(p.quit)
		p.wake.Release(int64(p.n))
	}
	atomic.StoreInt32(&globalState, int32(stateUninit))
}
