package block

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"sync"
	"sync/atomic"

	"github.com/coldb/coldb/pkg/tderr"
)

// DefaultPoolOrder is the default pool size, 2^25 = 32MiB (spec §4.1).
const DefaultPoolOrder = 25

// MinOrder is the smallest buddy order a pool will hand out: 32 bytes,
// enough for a bare header with no payload (spec §4.1).
const MinOrder = 5

// MaxOrder bounds a single allocation request; anything larger fails with
// KindOutOfMemory rather than growing a pool past practicality.
const MaxOrder = DefaultPoolOrder

var poolIDSeq uint32

// pool is a self-aligned power-of-two buddy region. Every block lives at a
// natural buddy offset within pool.data; pool.data[offset:offset+size] IS
// the block's header+payload bytes, so payload slices alias the pool
// directly rather than being copied (true zero-copy for in-pool blocks,
// mirroring the mmap zero-copy path in pkg/storage).
type pool struct {
	id    uint16
	order uint8
	data  []byte

	mu   sync.Mutex
	free [][]int64 // free[o] = list of free offsets of that order
}

func newPool(order uint8) *pool {
	id := uint16(atomic.AddUint32(&poolIDSeq, 1))
	p := &pool{
		id:    id,
		order: order,
		data:  make([]byte, 1<<order),
		free:  make([][]int64, order+1),
	}
	p.free[order] = []int64{0}
	return p
}

// orderFor returns the smallest order o such that 2^o >= HeaderSize+dataBytes.
func orderFor(dataBytes int) uint8 {
	need := HeaderSize + dataBytes
	o := uint8(MinOrder)
	for (1 << o) < need {
		o++
	}
	return o
}

// alloc reserves a free block of the given order, splitting larger free
// blocks as needed. Returns the byte offset into p.data, or -1 if the pool
// has no free block of sufficient order.
func (p *pool) alloc(order uint8) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.allocLocked(order)
}

func (p *pool) allocLocked(order uint8) int64 {
	if int(order) > int(p.order) {
		return -1
	}
	if len(p.free[order]) > 0 {
		n := len(p.free[order])
		off := p.free[order][n-1]
		p.free[order] = p.free[order][:n-1]
		return off
	}
	// split a larger block
	parent := p.allocLocked(order + 1)
	if parent < 0 {
		return -1
	}
	buddy := parent + (1 << order)
	p.free[order] = append(p.free[order], buddy)
	return parent
}

// freeBlock returns the block at offset/order to this pool's freelists,
// coalescing with its buddy while possible (spec §4.1).
func (p *pool) freeBlock(offset int64, order uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.freeLocked(offset, order)
}

func (p *pool) freeLocked(offset int64, order uint8) {
	for order < p.order {
		buddy := offset ^ (int64(1) << order)
		list := p.free[order]
		idx := -1
		for i, o := range list {
			if o == buddy {
				idx = i
				break
			}
		}
		if idx < 0 {
			break
		}
		// coalesce: remove buddy from freelist, merge upward
		list[idx] = list[len(list)-1]
		p.free[order] = list[:len(list)-1]
		if buddy < offset {
			offset = buddy
		}
		order++
	}
	p.free[order] = append(p.free[order], offset)
}

// bytes returns the pool's backing slice at [offset, offset+size).
func (p *pool) bytes(offset int64, size int64) []byte {
	return p.data[offset : offset+size]
}

// poolOf recovers the pool owning a heap-allocated block by the caller
// retaining a reference to the pool directly (the real buddy allocator
// recovers this by masking the pointer to the pool base; since coldb
// blocks carry an explicit *pool field instead of a raw pointer, no
// masking is needed — see DESIGN.md for why an index/arena-style handle
// replaces pointer arithmetic here).
func poolOf(b *Block) (*pool, error) {
	if b.pool == nil {
		return nil, tderr.New(tderr.KindCorrupt, "block has no owning pool (mmap/static block)")
	}
	return b.pool, nil
}
