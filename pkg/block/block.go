package block

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"sync/atomic"

	"github.com/coldb/coldb/pkg/tderr"
)

// Block is a single allocation: a 32-byte Header plus an optional typed
// payload. Blocks are reference counted (spec §3.1) and either pool-backed
// (MemHeap), mmap-backed (MemMmap) or never-freed (MemStatic).
type Block struct {
	Header

	// Payload aliases the backing storage directly: for heap blocks it is
	// a subslice of pool.data, for mmap blocks a subslice of the mapped
	// region. There is no separate copy.
	Payload []byte

	pool   *pool
	offset int64 // valid when pool != nil

	mmapUnmap func() error // non-nil for MemMmap blocks

	// Parent is set on slice views (spec §3.1/§4.3): a header-only block
	// whose element access redirects to Parent with an offset. Parent is
	// retained for the lifetime of the slice.
	Parent      *Block
	SliceOffset int64
	SliceLen    int64
}

// Alloc reserves a fresh block from heap h with room for dataBytes of
// payload, zeroing the header except rc=1, order and mmod=heap (spec §4.1).
func Alloc(h *Heap, dataBytes int) (*Block, error) {
	order := orderFor(dataBytes)
	if order > MaxOrder {
		return nil, tderr.New(tderr.KindOutOfMemory, "alloc: %d bytes exceeds max order %d", dataBytes, MaxOrder)
	}
	p, off := h.allocFrom(order)
	if off < 0 {
		return nil, tderr.New(tderr.KindOutOfMemory, "alloc: pool exhausted for order %d", order)
	}
	size := int64(1) << order
	raw := p.bytes(off, size)
	for i := range raw {
		raw[i] = 0
	}
	b := &Block{
		pool:   p,
		offset: off,
	}
	b.rc = 1
	b.Order = order
	b.MMod = MemHeap
	if dataBytes > 0 {
		b.Payload = raw[HeaderSize : HeaderSize+dataBytes]
	}
	return b, nil
}

// AllocCopy allocates a block of the same order as src and byte-copies its
// header and payload (spec §4.1's alloc_copy).
func AllocCopy(h *Heap, src *Block) (*Block, error) {
	dst, err := Alloc(h, len(src.Payload))
	if err != nil {
		return nil, err
	}
	dst.Type = src.Type
	dst.Attrs = src.Attrs
	dst.Len = src.Len
	dst.Union = src.Union
	copy(dst.Payload, src.Payload)
	return dst, nil
}

// Retain increments a block's reference count. Nil is a no-op (spec §3.5).
func Retain(b *Block) {
	if b == nil {
		return
	}
	atomic.AddInt32(&b.rc, 1)
}

// Release decrements a block's reference count, returning it to its
// allocator (or unmapping it) when the count reaches zero. Nil is a no-op.
// Releasing a container-typed block (handled in pkg/vector) must release
// its children before calling Release on itself.
func Release(b *Block) error {
	if b == nil {
		return nil
	}
	if atomic.AddInt32(&b.rc, -1) > 0 {
		return nil
	}
	if b.Parent != nil {
		if err := Release(b.Parent); err != nil {
			return err
		}
		b.Parent = nil
		return nil
	}
	switch b.MMod {
	case MemStatic:
		return nil
	case MemMmap:
		if b.mmapUnmap != nil {
			return b.mmapUnmap()
		}
		return nil
	default:
		return freeHeapBlock(b)
	}
}

func freeHeapBlock(b *Block) error {
	if b.pool == nil {
		return nil
	}
	owner, ok := ownerOf(b.pool)
	if !ok {
		b.pool.freeBlock(b.offset, b.Order)
		return nil
	}
	owner.crossFree(b.pool, b.offset, b.Order)
	return nil
}

// COW returns a block usable for mutation: b itself if rc==1, or a fresh
// copy with rc==1 (and b's count decremented) if b is shared (spec §3.1,
// §8 "for every shared block b (rc>=2)...").
func COW(h *Heap, b *Block) (*Block, error) {
	if atomic.LoadInt32(&b.rc) == 1 && b.MMod == MemHeap {
		return b, nil
	}
	fresh, err := AllocCopy(h, b)
	if err != nil {
		return nil, err
	}
	if err := Release(b); err != nil {
		return nil, err
	}
	return fresh, nil
}

// NewSliceBlock builds a header-only slice view over parent, retaining it.
// parent must already be the ultimate (non-slice) parent; callers resolve
// through ResolveParent first so indirection never exceeds one hop (spec
// §4.3).
func NewSliceBlock(parent *Block, tag Tag, attrs uint8, offset, length int64) *Block {
	Retain(parent)
	b := &Block{
		Header:      Header{Type: tag, Attrs: attrs | AttrSlice, Len: uint32(length)},
		Parent:      parent,
		SliceOffset: offset,
		SliceLen:    length,
	}
	b.rc = 1
	return b
}

// ResolveParent follows a slice view to its ultimate non-slice parent,
// bounding indirection depth at one (spec §4.3: "slicing a slice resolves
// to the ultimate parent").
func ResolveParent(b *Block) (*Block, int64) {
	offset := int64(0)
	for b.Parent != nil {
		offset += b.SliceOffset
		b = b.Parent
	}
	return b, offset
}
