package block

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"sync"
	"sync/atomic"
)

// Heap is coldb's per-thread allocator instance (spec §4.1, §5). Go has no
// stable notion of "current OS thread" visible to user code, so coldb
// replaces the spec's implicit thread-local heap with an explicit handle:
// any goroutine that will do sustained allocation calls NewHeap once and
// passes the handle to the allocator calls it makes; the worker pool
// acquires one heap per worker slot at start-up. This is the arena-handle
// adaptation noted in SPEC_FULL.md §5.1.
type Heap struct {
	id    uint16
	pools []*pool
	mu    sync.Mutex

	// returnQueue is the cross-thread free path (spec §4.1): when another
	// heap frees a block owned by this heap, the block descriptor is sent
	// here instead of touched directly. A buffered channel is coldb's
	// idiomatic-Go stand-in for the spec's lock-free MPSC ring — multiple
	// goroutines may send (multi-producer), only this heap's owner drains
	// it (single-consumer), exactly the shape the channel primitive exists
	// for.
	returnQueue chan returnedBlock
}

type returnedBlock struct {
	p      *pool
	offset int64
	order  uint8
}

var heapIDSeq uint32

// NewHeap allocates a fresh heap with no pools; pools are created lazily
// on first allocation.
func NewHeap() *Heap {
	id := uint16(atomic.AddUint32(&heapIDSeq, 1))
	return &Heap{
		id:          id,
		returnQueue: make(chan returnedBlock, 4096),
	}
}

// drainReturns empties the return queue into this heap's own pools'
// freelists; called at the start of every alloc (spec §4.1).
func (h *Heap) drainReturns() {
	for {
		select {
		case rb := <-h.returnQueue:
			rb.p.freeBlock(rb.offset, rb.order)
		default:
			return
		}
	}
}

// allocFrom finds a pool in this heap with a free block of the requested
// order, creating a new pool if none has room, and returns the reserved
// (pool, offset) pair.
func (h *Heap) allocFrom(order uint8) (*pool, int64) {
	h.drainReturns()

	h.mu.Lock()
	pools := h.pools
	h.mu.Unlock()

	for _, p := range pools {
		if off := p.alloc(order); off >= 0 {
			return p, off
		}
	}

	poolOrder := uint8(DefaultPoolOrder)
	if order > poolOrder {
		poolOrder = order
	}
	p := newPool(poolOrder)
	h.registerPool(p)
	h.mu.Lock()
	h.pools = append(h.pools, p)
	h.mu.Unlock()

	off := p.alloc(order)
	return p, off
}

// crossFree pushes a block back to its owning heap's return queue. It
// never blocks the caller for long: the queue is large and, in the
// extremely unlikely case it's full, the block is freed directly against
// its pool (pools tolerate concurrent freeBlock calls from any goroutine; only
// the freelist bookkeeping benefits from being single-writer).
func (owner *Heap) crossFree(p *pool, offset int64, order uint8) {
	select {
	case owner.returnQueue <- returnedBlock{p: p, offset: offset, order: order}:
	default:
		p.freeBlock(offset, order)
	}
}

// heapOwners tracks which heap owns each pool, so release() can route a
// cross-heap free to the correct return queue. Recovering heap identity
// "from a block pointer" (spec §4.1) becomes, in coldb's arena-handle
// model, a lookup by pool id rather than a pointer mask.
var heapOwners sync.Map // poolID uint16 -> *Heap

func (h *Heap) registerPool(p *pool) {
	heapOwners.Store(p.id, h)
}

func ownerOf(p *pool) (*Heap, bool) {
	v, ok := heapOwners.Load(p.id)
	if !ok {
		return nil, false
	}
	return v.(*Heap), true
}

// parallel is the process-wide flag mirroring spec §4.1/§5's note that
// retain/release ordering changes between sequential and parallel
// execution phases. Go's sync/atomic offers no relaxed-vs-acquire/release
// choice (every operation is at least as strong as acquire/release on all
// supported architectures), so toggling this flag does not change the
// actual memory ordering coldb gets — it exists so pkg/workerpool can mark
// dispatch boundaries and so tests can assert the flag flips at the right
// times, per spec §5's "no locking discipline is required between ops"
// property.
var parallel int32

// SetParallel marks whether a dispatch is currently in flight.
func SetParallel(v bool) {
	if v {
		atomic.StoreInt32(&parallel, 1)
	} else {
		atomic.StoreInt32(&parallel, 0)
	}
}

// Parallel reports whether a dispatch is currently in flight.
func Parallel() bool { return atomic.LoadInt32(&parallel) == 1 }

// Stats reports this heap's pool count and the total bytes those pools
// reserve from the OS, for the "coldb stats" CLI subcommand.
func (h *Heap) Stats() (pools int, bytes int64) {
	h.mu.Lock()
	ps := h.pools
	h.mu.Unlock()
	for _, p := range ps {
		bytes += int64(len(p.data))
	}
	return len(ps), bytes
}
