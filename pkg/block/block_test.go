package block_test

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coldb/coldb/pkg/block"
)

func TestRetainReleaseNoop(t *testing.T) {
	h := block.NewHeap()
	b, err := block.NewAtomI64(h, 42)
	require.NoError(t, err)

	before := b.RC()
	block.Retain(b)
	require.NoError(t, block.Release(b))
	require.Equal(t, before, b.RC())

	require.NoError(t, block.Release(b))
}

func TestRetainReleaseOnNilIsNoop(t *testing.T) {
	block.Retain(nil)
	require.NoError(t, block.Release(nil))
}

func TestCOWDistinctBytewiseEqual(t *testing.T) {
	h := block.NewHeap()
	b, err := block.NewAtomF64(h, 3.5)
	require.NoError(t, err)

	block.Retain(b) // rc now 2: shared
	cow, err := block.COW(h, b)
	require.NoError(t, err)

	require.NotSame(t, b, cow)
	require.Equal(t, block.AtomF64(b), block.AtomF64(cow))
	require.EqualValues(t, 1, cow.RC())

	require.NoError(t, block.Release(b))
	require.NoError(t, block.Release(cow))
}

func TestCOWOnUniqueBlockMutatesInPlace(t *testing.T) {
	h := block.NewHeap()
	b, err := block.NewAtomI64(h, 7)
	require.NoError(t, err)

	cow, err := block.COW(h, b)
	require.NoError(t, err)
	require.Same(t, b, cow)

	require.NoError(t, block.Release(cow))
}

func TestAllocZeroedHeaderExceptRCOrderMode(t *testing.T) {
	h := block.NewHeap()
	b, err := block.Alloc(h, 64)
	require.NoError(t, err)
	defer block.Release(b)

	require.EqualValues(t, 1, b.RC())
	require.Equal(t, block.MemHeap, b.MMod)
	require.Equal(t, block.Tag(0), b.Type)
	require.EqualValues(t, 0, b.Len)
	for _, x := range b.Union {
		require.Zero(t, x)
	}
}

func TestFreeThenReallocSameSizeClassZeroed(t *testing.T) {
	h := block.NewHeap()
	b1, err := block.Alloc(h, 48)
	require.NoError(t, err)
	order := b1.Order
	b1.Payload[0] = 0xFF
	require.NoError(t, block.Release(b1))

	b2, err := block.Alloc(h, 48)
	require.NoError(t, err)
	defer block.Release(b2)

	require.Equal(t, order, b2.Order)
	require.EqualValues(t, 1, b2.RC())
	for _, x := range b2.Payload {
		require.Zero(t, x)
	}
}

func TestAllocCopyBytewiseEqual(t *testing.T) {
	h := block.NewHeap()
	b, err := block.Alloc(h, 16)
	require.NoError(t, err)
	defer block.Release(b)
	b.Type = block.TagI64
	b.Len = 2
	copy(b.Payload, []byte{1, 2, 3, 4, 5, 6, 7, 8})

	cp, err := block.AllocCopy(h, b)
	require.NoError(t, err)
	defer block.Release(cp)

	require.Equal(t, b.Type, cp.Type)
	require.Equal(t, b.Len, cp.Len)
	require.Equal(t, b.Payload, cp.Payload)
	require.NotSame(t, &b.Payload[0], &cp.Payload[0])
}

func TestResolveParentBoundsIndirectionDepth(t *testing.T) {
	h := block.NewHeap()
	parent, err := block.Alloc(h, 128)
	require.NoError(t, err)
	defer block.Release(parent)

	slice1 := &block.Block{Parent: parent, SliceOffset: 4}
	block.Retain(parent)
	root, off := block.ResolveParent(slice1)
	require.Same(t, parent, root)
	require.EqualValues(t, 4, off)
	require.NoError(t, block.Release(slice1))
}

func TestFreedBlockIsReusableAfterDrain(t *testing.T) {
	owner := block.NewHeap()

	b, err := block.Alloc(owner, 32)
	require.NoError(t, err)
	require.NoError(t, block.Release(b))

	// Alloc drains the heap's return queue before searching freelists, so
	// a block freed (whether locally or via cross-heap return) becomes
	// available again without needing a new pool.
	b2, err := block.Alloc(owner, 32)
	require.NoError(t, err)
	require.NoError(t, block.Release(b2))
}
