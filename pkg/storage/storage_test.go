package storage_test

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coldb/coldb/pkg/block"
	"github.com/coldb/coldb/pkg/elog"
	"github.com/coldb/coldb/pkg/exec"
	"github.com/coldb/coldb/pkg/graph"
	"github.com/coldb/coldb/pkg/storage"
	"github.com/coldb/coldb/pkg/symtab"
	"github.com/coldb/coldb/pkg/vector"
)

// recordingView is a minimal elog.View that counts progress calls instead
// of drawing a terminal bar, so tests can assert a scan actually reported
// through it.
type recordingView struct {
	label      string
	increments int64
	finished   bool
	success    bool
}

func (v *recordingView) Debugf(string, ...interface{})  {}
func (v *recordingView) Errorf(string, ...interface{})  {}
func (v *recordingView) Infof(string, ...interface{})   {}
func (v *recordingView) Printf(string, ...interface{})  {}
func (v *recordingView) Warnf(string, ...interface{})   {}
func (v *recordingView) IsInfoEnabled() bool            { return false }
func (v *recordingView) IsDebugEnabled() bool           { return false }

func (v *recordingView) NewProgress(label string, units string, total int64) elog.Progress {
	v.label = label
	return v
}

func (v *recordingView) Finish(success bool)                { v.finished = true; v.success = success }
func (v *recordingView) Increment(n int64)                  { v.increments += n }
func (v *recordingView) Write(p []byte) (int, error)        { return len(p), nil }
func (v *recordingView) Seek(int64, int) (int64, error)     { return 0, nil }
func (v *recordingView) ProxyReader(r io.Reader) io.ReadCloser {
	return io.NopCloser(r)
}

func intCol(t *testing.T, h *block.Heap, vals []int64) *vector.Vector {
	t.Helper()
	v, err := vector.NewVector(h, block.TagI64, len(vals))
	require.NoError(t, err)
	for _, x := range vals {
		require.NoError(t, v.AppendI64(h, x))
	}
	return v
}

func TestColumnWriteOpenRoundTrip(t *testing.T) {
	h := block.NewHeap()
	v := intCol(t, h, []int64{1, 2, 3, 4, 5})
	defer vector.Release(v)

	path := filepath.Join(t.TempDir(), "col")
	require.NoError(t, storage.WriteColumn(v, path))

	got, err := storage.OpenColumn(h, path)
	require.NoError(t, err)
	defer vector.Release(got)

	require.Equal(t, 5, got.Len())
	for i := 0; i < 5; i++ {
		x, err := got.Get(i)
		require.NoError(t, err)
		require.EqualValues(t, i+1, x)
	}
}

func TestColumnWriteOpenRoundTripWithNulls(t *testing.T) {
	h := block.NewHeap()
	v := intCol(t, h, []int64{10, 20, 30})
	require.NoError(t, vector.SetNull(h, v, 1))
	defer vector.Release(v)

	path := filepath.Join(t.TempDir(), "col")
	require.NoError(t, storage.WriteColumn(v, path))

	got, err := storage.OpenColumn(h, path)
	require.NoError(t, err)
	defer vector.Release(got)

	require.False(t, vector.IsNull(got, 0))
	require.True(t, vector.IsNull(got, 1))
	require.False(t, vector.IsNull(got, 2))
}

func TestTableWriteOpenRoundTrip(t *testing.T) {
	h := block.NewHeap()
	names := symtab.New()
	tbl := vector.NewTable()
	a := intCol(t, h, []int64{1, 2, 3})
	b := intCol(t, h, []int64{40, 50, 60})
	require.NoError(t, tbl.AddCol(names, "a", a))
	require.NoError(t, tbl.AddCol(names, "b", b))
	require.NoError(t, vector.Release(a))
	require.NoError(t, vector.Release(b))
	defer tbl.Release()

	dir := filepath.Join(t.TempDir(), "mytable")
	require.NoError(t, storage.WriteTable(h, names, tbl, dir))

	got, err := storage.OpenTable(h, names, dir)
	require.NoError(t, err)
	defer got.Release()

	require.Equal(t, 3, got.NRows())
	require.Equal(t, 2, got.NCols())
	aCol, ok := got.ColByName(names, "a")
	require.True(t, ok)
	x, err := aCol.Get(2)
	require.NoError(t, err)
	require.EqualValues(t, 3, x)
}

func TestPartitionedTableOpensAcrossPartitions(t *testing.T) {
	h := block.NewHeap()
	names := symtab.New()
	root := t.TempDir()

	for i, part := range []string{"2024.01.01", "2024.01.02"} {
		tbl := vector.NewTable()
		col := intCol(t, h, []int64{int64(i)*10 + 1, int64(i)*10 + 2})
		require.NoError(t, tbl.AddCol(names, "x", col))
		require.NoError(t, vector.Release(col))
		dir := filepath.Join(root, part, "trades")
		require.NoError(t, storage.WriteTable(h, names, tbl, dir))
		require.NoError(t, tbl.Release())
	}

	got, err := storage.OpenPartitionedTable(h, names, root, "trades")
	require.NoError(t, err)
	defer got.Release()

	require.Equal(t, 4, got.NRows())
	xCol, ok := got.ColByName(names, "x")
	require.True(t, ok)
	var vals []int64
	for i := 0; i < xCol.Len(); i++ {
		v, err := xCol.Get(i)
		require.NoError(t, err)
		vals = append(vals, v.(int64))
	}
	require.Equal(t, []int64{1, 2, 11, 12}, vals)

	pk, ok := got.PartitionKeyColumn()
	require.True(t, ok)
	require.Equal(t, 4, pk.Len())
}

func TestOpenPartitionedTableWithViewReportsProgressPerPartition(t *testing.T) {
	h := block.NewHeap()
	names := symtab.New()
	root := t.TempDir()

	for i, part := range []string{"2024.01.01", "2024.01.02", "2024.01.03"} {
		tbl := vector.NewTable()
		col := intCol(t, h, []int64{int64(i)})
		require.NoError(t, tbl.AddCol(names, "x", col))
		require.NoError(t, vector.Release(col))
		dir := filepath.Join(root, part, "trades")
		require.NoError(t, storage.WriteTable(h, names, tbl, dir))
		require.NoError(t, tbl.Release())
	}

	view := &recordingView{}
	got, err := storage.OpenPartitionedTableWithView(h, names, root, "trades", view)
	require.NoError(t, err)
	defer got.Release()

	require.Equal(t, "partition scan", view.label)
	require.EqualValues(t, 3, view.increments)
	require.True(t, view.finished)
	require.True(t, view.success)
}

// TestHeadOverPartitionedTableMaterializesPartedColumns is a regression
// test for Parted/partition-map columns being allocated with zero
// element width when HEAD rematerializes rows off a table opened from
// disk: every ordinary column of a table opened via
// OpenPartitionedTable is Parted-backed regardless of partition count.
func TestHeadOverPartitionedTableMaterializesPartedColumns(t *testing.T) {
	h := block.NewHeap()
	names := symtab.New()
	root := t.TempDir()

	for i, part := range []string{"2024.01.01", "2024.01.02"} {
		tbl := vector.NewTable()
		col := intCol(t, h, []int64{int64(i)*10 + 1, int64(i)*10 + 2})
		require.NoError(t, tbl.AddCol(names, "x", col))
		require.NoError(t, vector.Release(col))
		dir := filepath.Join(root, part, "trades")
		require.NoError(t, storage.WriteTable(h, names, tbl, dir))
		require.NoError(t, tbl.Release())
	}

	src, err := storage.OpenPartitionedTable(h, names, root, "trades")
	require.NoError(t, err)
	defer src.Release()

	g := graph.New(src)
	xScan, err := g.Scan(names, "x")
	require.NoError(t, err)
	pScan, err := g.Scan(names, "partition")
	require.NoError(t, err)
	xName, pName := names.InternString("x"), names.InternString("partition")
	sel, err := g.Select(xScan, []int64{xName, pName}, []graph.NodeID{xScan, pScan})
	require.NoError(t, err)
	headID, err := g.Head(h, sel, 3)
	require.NoError(t, err)

	ex := exec.New(h, names, nil)
	res, err := ex.Execute(g, headID)
	require.NoError(t, err)
	defer exec.Release(res)

	require.True(t, res.IsTbl())
	require.Equal(t, 3, res.Tbl.NRows())

	_, xCol := res.Tbl.ColAt(0)
	var xs []int64
	for i := 0; i < xCol.Len(); i++ {
		v, err := xCol.Get(i)
		require.NoError(t, err)
		xs = append(xs, v.(int64))
	}
	require.Equal(t, []int64{1, 2, 11}, xs)

	_, pCol := res.Tbl.ColAt(1)
	require.Equal(t, 3, pCol.Len())
	pk, err := pCol.Get(0)
	require.NoError(t, err)
	require.EqualValues(t, 20240101, pk)
}

func TestValidatePartitionNameRejectsBadNames(t *testing.T) {
	require.NoError(t, storage.ValidatePartitionName("2024.01.01"))
	require.NoError(t, storage.ValidatePartitionName("20240101"))
	require.Error(t, storage.ValidatePartitionName(""))
	require.Error(t, storage.ValidatePartitionName(".hidden"))
	require.Error(t, storage.ValidatePartitionName("../escape"))
	require.Error(t, storage.ValidatePartitionName("a/b"))
	require.Error(t, storage.ValidatePartitionName("abc"))
}
