package vector_test

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coldb/coldb/pkg/block"
	"github.com/coldb/coldb/pkg/symtab"
	"github.com/coldb/coldb/pkg/vector"
)

func TestAppendGrowsAndPreservesValues(t *testing.T) {
	h := block.NewHeap()
	v, err := vector.NewVector(h, block.TagI64, 1)
	require.NoError(t, err)
	defer vector.Release(v)

	for i := int64(0); i < 500; i++ {
		require.NoError(t, v.AppendI64(h, i*3))
	}
	require.Equal(t, 500, v.Len())
	for i := 0; i < 500; i++ {
		x, err := v.Get(i)
		require.NoError(t, err)
		require.EqualValues(t, i*3, x.(int64))
	}
}

func TestAppendOnSliceViewFails(t *testing.T) {
	h := block.NewHeap()
	v, err := vector.NewVector(h, block.TagI64, 4)
	require.NoError(t, err)
	defer vector.Release(v)
	require.NoError(t, v.AppendI64(h, 1))
	require.NoError(t, v.AppendI64(h, 2))

	sl, err := v.Slice(0, 1)
	require.NoError(t, err)
	defer vector.Release(sl)

	err = sl.AppendI64(h, 3)
	require.Error(t, err)
}

func TestSliceResolvesThroughToUltimateParent(t *testing.T) {
	h := block.NewHeap()
	v, err := vector.NewVector(h, block.TagI64, 4)
	require.NoError(t, err)
	defer vector.Release(v)
	for i := int64(0); i < 10; i++ {
		require.NoError(t, v.AppendI64(h, i))
	}

	sl1, err := v.Slice(2, 6)
	require.NoError(t, err)
	defer vector.Release(sl1)

	sl2, err := sl1.Slice(1, 3) // elements [3,4,5] of the original
	require.NoError(t, err)
	defer vector.Release(sl2)

	require.Equal(t, 3, sl2.Len())
	x0, err := sl2.Get(0)
	require.NoError(t, err)
	require.EqualValues(t, 3, x0.(int64))
	x2, err := sl2.Get(2)
	require.NoError(t, err)
	require.EqualValues(t, 5, x2.(int64))
}

func TestNullmapInlineToExternalTransition(t *testing.T) {
	h := block.NewHeap()
	v, err := vector.NewVector(h, block.TagI64, 200)
	require.NoError(t, err)
	defer vector.Release(v)

	for i := 0; i < 128; i++ {
		require.NoError(t, v.AppendI64(h, int64(i)))
	}
	// Still within the inline 128-bit threshold.
	require.NoError(t, vector.SetNull(h, v, 127))
	require.True(t, vector.IsNull(v, 127))

	// Crossing the boundary (len=129, index 128) forces external storage.
	require.NoError(t, v.AppendI64(h, 128))
	require.NoError(t, vector.SetNull(h, v, 128))
	require.True(t, vector.IsNull(v, 128))
	require.True(t, vector.IsNull(v, 127), "promotion to external must preserve prior inline bits")
	require.False(t, vector.IsNull(v, 0))
}

func TestClearNullUndoesSetNull(t *testing.T) {
	h := block.NewHeap()
	v, err := vector.NewVector(h, block.TagF64, 4)
	require.NoError(t, err)
	defer vector.Release(v)
	require.NoError(t, v.AppendF64(h, 1.5))
	require.NoError(t, vector.SetNull(h, v, 0))
	require.True(t, vector.IsNull(v, 0))
	vector.ClearNull(v, 0)
	require.False(t, vector.IsNull(v, 0))
}

func TestConcatPreservesOrderAndNulls(t *testing.T) {
	h := block.NewHeap()
	a, err := vector.NewVector(h, block.TagI64, 2)
	require.NoError(t, err)
	defer vector.Release(a)
	require.NoError(t, a.AppendI64(h, 1))
	require.NoError(t, a.AppendI64(h, 2))

	b, err := vector.NewVector(h, block.TagI64, 2)
	require.NoError(t, err)
	defer vector.Release(b)
	require.NoError(t, b.AppendI64(h, 3))
	require.NoError(t, b.AppendNull(h))

	out, err := vector.Concat(h, a, b)
	require.NoError(t, err)
	defer vector.Release(out)

	require.Equal(t, 4, out.Len())
	for i, want := range []int64{1, 2, 3, 0} {
		x, err := out.Get(i)
		require.NoError(t, err)
		require.EqualValues(t, want, x.(int64))
	}
	require.False(t, vector.IsNull(out, 0))
	require.True(t, vector.IsNull(out, 3))
}

func TestConcatTypeMismatchErrors(t *testing.T) {
	h := block.NewHeap()
	a, err := vector.NewVector(h, block.TagI64, 1)
	require.NoError(t, err)
	defer vector.Release(a)
	require.NoError(t, a.AppendI64(h, 1))

	b, err := vector.NewVector(h, block.TagF64, 1)
	require.NoError(t, err)
	defer vector.Release(b)
	require.NoError(t, b.AppendF64(h, 1.0))

	_, err = vector.Concat(h, a, b)
	require.Error(t, err)
}

func TestTableAddColLengthMismatch(t *testing.T) {
	h := block.NewHeap()
	names := symtab.New()
	tbl := vector.NewTable()
	defer tbl.Release()

	a, err := vector.NewVector(h, block.TagI64, 2)
	require.NoError(t, err)
	require.NoError(t, a.AppendI64(h, 1))
	require.NoError(t, a.AppendI64(h, 2))
	require.NoError(t, tbl.AddCol(names, "x", a))
	require.NoError(t, vector.Release(a))

	b, err := vector.NewVector(h, block.TagI64, 1)
	require.NoError(t, err)
	require.NoError(t, b.AppendI64(h, 1))
	err = tbl.AddCol(names, "y", b)
	require.Error(t, err)
	require.NoError(t, vector.Release(b))

	require.Equal(t, 2, tbl.NRows())
	require.Equal(t, 1, tbl.NCols())
}

func TestTableColByNameRoundtrip(t *testing.T) {
	h := block.NewHeap()
	names := symtab.New()
	tbl := vector.NewTable()
	defer tbl.Release()

	col, err := vector.NewVector(h, block.TagI64, 1)
	require.NoError(t, err)
	require.NoError(t, col.AppendI64(h, 42))
	require.NoError(t, tbl.AddCol(names, "price", col))
	require.NoError(t, vector.Release(col))

	got, ok := tbl.ColByName(names, "price")
	require.True(t, ok)
	x, err := got.Get(0)
	require.NoError(t, err)
	require.EqualValues(t, 42, x.(int64))

	_, ok = tbl.ColByName(names, "missing")
	require.False(t, ok)
}

func TestTableCloneSharesRetainedColumns(t *testing.T) {
	h := block.NewHeap()
	names := symtab.New()
	tbl := vector.NewTable()
	defer tbl.Release()

	col, err := vector.NewVector(h, block.TagI64, 1)
	require.NoError(t, err)
	require.NoError(t, col.AppendI64(h, 7))
	require.NoError(t, tbl.AddCol(names, "n", col))
	require.NoError(t, vector.Release(col))

	clone := tbl.Clone()
	require.Equal(t, tbl.NRows(), clone.NRows())
	require.NoError(t, tbl.Release())

	// clone retained its own reference, so it must still be readable.
	c, ok := clone.ColByName(names, "n")
	require.True(t, ok)
	x, err := c.Get(0)
	require.NoError(t, err)
	require.EqualValues(t, 7, x.(int64))
	require.NoError(t, clone.Release())
}

func TestListAppendAndReleaseCascades(t *testing.T) {
	h := block.NewHeap()
	l := vector.NewList()

	a, err := vector.NewVector(h, block.TagI64, 1)
	require.NoError(t, err)
	require.NoError(t, a.AppendI64(h, 1))
	l.Append(a)
	require.NoError(t, vector.Release(a))

	b, err := vector.NewVector(h, block.TagF64, 1)
	require.NoError(t, err)
	require.NoError(t, b.AppendF64(h, 2.0))
	l.Append(b)
	require.NoError(t, vector.Release(b))

	require.Equal(t, 2, l.Len())
	require.NoError(t, l.Release())
	require.Equal(t, 0, l.Len())
}

func TestPartedNRowsSumsSegments(t *testing.T) {
	h := block.NewHeap()
	seg1, err := vector.NewVector(h, block.TagI64, 3)
	require.NoError(t, err)
	for i := int64(0); i < 3; i++ {
		require.NoError(t, seg1.AppendI64(h, i))
	}
	seg2, err := vector.NewVector(h, block.TagI64, 5)
	require.NoError(t, err)
	for i := int64(0); i < 5; i++ {
		require.NoError(t, seg2.AppendI64(h, i))
	}

	p, err := vector.NewParted(block.TagI64, []*vector.Vector{seg1, seg2})
	require.NoError(t, err)
	require.NoError(t, vector.Release(seg1))
	require.NoError(t, vector.Release(seg2))
	defer p.Release()

	require.Equal(t, 8, p.NRows())
	require.Equal(t, block.Parted(block.TagI64), p.Tag())

	x, err := p.Get(4) // seg2[1]
	require.NoError(t, err)
	require.EqualValues(t, 1, x.(int64))
}

func TestPartedTypeMismatchErrors(t *testing.T) {
	h := block.NewHeap()
	i64seg, err := vector.NewVector(h, block.TagI64, 1)
	require.NoError(t, err)
	defer vector.Release(i64seg)
	require.NoError(t, i64seg.AppendI64(h, 1))

	_, err = vector.NewParted(block.TagF64, []*vector.Vector{i64seg})
	require.Error(t, err)
}

func TestPartitionKeyMapKeyForRow(t *testing.T) {
	h := block.NewHeap()
	keys, err := vector.NewVector(h, block.TagSym, 2)
	require.NoError(t, err)
	defer vector.Release(keys)
	require.NoError(t, keys.AppendSym(h, 10))
	require.NoError(t, keys.AppendSym(h, 20))

	counts, err := vector.NewVector(h, block.TagI64, 2)
	require.NoError(t, err)
	defer vector.Release(counts)
	require.NoError(t, counts.AppendI64(h, 3))
	require.NoError(t, counts.AppendI64(h, 2))

	m, err := vector.NewPartitionKeyMap(keys, counts)
	require.NoError(t, err)
	defer m.Release()

	total, err := m.NRows()
	require.NoError(t, err)
	require.EqualValues(t, 5, total)

	k, err := m.KeyForRow(0)
	require.NoError(t, err)
	require.EqualValues(t, 10, k.(int64))

	k, err = m.KeyForRow(4)
	require.NoError(t, err)
	require.EqualValues(t, 20, k.(int64))

	_, err = m.KeyForRow(5)
	require.Error(t, err)
}
