package exec_test

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coldb/coldb/pkg/block"
	"github.com/coldb/coldb/pkg/csvload"
	"github.com/coldb/coldb/pkg/exec"
	"github.com/coldb/coldb/pkg/graph"
	"github.com/coldb/coldb/pkg/storage"
	"github.com/coldb/coldb/pkg/symtab"
	"github.com/coldb/coldb/pkg/vector"
	"github.com/coldb/coldb/pkg/workerpool"
)

// f64Table builds a table from parallel columns of float64 values.
func f64Table(t *testing.T, h *block.Heap, names *symtab.Table, cols map[string][]float64) *vector.Table {
	t.Helper()
	tbl := vector.NewTable()
	for name, vals := range cols {
		v, err := vector.NewVector(h, block.TagF64, len(vals))
		require.NoError(t, err)
		for _, x := range vals {
			require.NoError(t, v.AppendF64(h, x))
		}
		require.NoError(t, tbl.AddCol(names, name, v))
		require.NoError(t, vector.Release(v))
	}
	return tbl
}

// groupSums runs res (a GROUP result table whose first column is the
// integer key and second column the sum) into a key->sum map.
func groupSums(t *testing.T, res exec.Value) map[int64]int64 {
	t.Helper()
	require.True(t, res.IsTbl())
	_, keyCol := res.Tbl.ColAt(0)
	_, sumCol := res.Tbl.ColAt(1)
	out := map[int64]int64{}
	for i := 0; i < res.Tbl.NRows(); i++ {
		k, err := keyCol.Get(i)
		require.NoError(t, err)
		s, err := sumCol.Get(i)
		require.NoError(t, err)
		out[k.(int64)] = toInt(s)
	}
	return out
}

// Scenario 1 (spec §8): group by id, sum v, expect {1:200, 2:150, 3:200}.
func TestScenarioGroupBySumPerKey(t *testing.T) {
	h := block.NewHeap()
	names := symtab.New()
	tbl := i64Table(t, h, names, map[string][]int64{
		"id": {1, 1, 2, 2, 3, 3, 1, 2, 3, 1},
		"v":  {10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
	})
	defer tbl.Release()

	g := graph.New(tbl)
	id, err := g.Scan(names, "id")
	require.NoError(t, err)
	v, err := g.Scan(names, "v")
	require.NoError(t, err)
	idName, sumName := names.InternString("id"), names.InternString("sum_v")
	groupID, err := g.Group([]graph.NodeID{id}, []int64{idName}, []graph.AggOp{graph.AggSum}, []graph.NodeID{v}, []int64{sumName})
	require.NoError(t, err)

	ex := exec.New(h, names, nil)
	res, err := ex.Execute(g, groupID)
	require.NoError(t, err)
	defer exec.Release(res)

	require.Equal(t, map[int64]int64{1: 200, 2: 150, 3: 200}, groupSums(t, res))
}

// Scenario 2 (spec §8): filter v >= 50 then count, expect 6.
func TestScenarioFilterThenCount(t *testing.T) {
	h := block.NewHeap()
	names := symtab.New()
	tbl := i64Table(t, h, names, map[string][]int64{
		"id": {1, 1, 2, 2, 3, 3, 1, 2, 3, 1},
		"v":  {10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
	})
	defer tbl.Release()

	g := graph.New(tbl)
	v, err := g.Scan(names, "v")
	require.NoError(t, err)
	fifty, err := g.ConstI64(h, 50)
	require.NoError(t, err)
	pred, err := g.Binary(graph.OpGe, v, fifty)
	require.NoError(t, err)
	filtID, err := g.Filter(v, pred)
	require.NoError(t, err)
	countID, err := g.Reduce(graph.AggCount, filtID, names.InternString("n"))
	require.NoError(t, err)

	ex := exec.New(h, names, nil)
	res, err := ex.Execute(g, countID)
	require.NoError(t, err)
	defer exec.Release(res)

	require.True(t, res.IsTbl())
	require.Equal(t, 1, res.Tbl.NRows())
	_, col := res.Tbl.ColAt(0)
	n, err := col.Get(0)
	require.NoError(t, err)
	require.EqualValues(t, 6, n)
}

// Scenario 3 (spec §8): sum(v3 * 2.0), expect 120.0.
func TestScenarioSumOfScaledFloatColumn(t *testing.T) {
	h := block.NewHeap()
	names := symtab.New()
	tbl := f64Table(t, h, names, map[string][]float64{
		"v3": {1.5, 2.5, 3.5, 4.5, 5.5, 6.5, 7.5, 8.5, 9.5, 10.5},
	})
	defer tbl.Release()

	g := graph.New(tbl)
	v3, err := g.Scan(names, "v3")
	require.NoError(t, err)
	two, err := g.ConstF64(h, 2.0)
	require.NoError(t, err)
	scaled, err := g.Binary(graph.OpMul, v3, two)
	require.NoError(t, err)
	sumID, err := g.Reduce(graph.AggSum, scaled, names.InternString("total"))
	require.NoError(t, err)

	ex := exec.New(h, names, nil)
	res, err := ex.Execute(g, sumID)
	require.NoError(t, err)
	defer exec.Release(res)

	require.True(t, res.IsTbl())
	_, col := res.Tbl.ColAt(0)
	x, err := col.Get(0)
	require.NoError(t, err)
	require.InDelta(t, 120.0, x.(float64), 1e-9)
}

// Scenario 4 (spec §8): sum(1..100000), expect 5000050000. The input
// crosses workerpool.ParallelThreshold; Reduce builds a zero-key GROUP,
// which the executor aggregates in one serial pass, not through morsel
// dispatch.
func TestScenarioParallelSumOverLargeColumn(t *testing.T) {
	h := block.NewHeap()
	names := symtab.New()
	n := 100000
	require.Greater(t, n, workerpool.ParallelThreshold)
	vals := make([]int64, n)
	for i := range vals {
		vals[i] = int64(i + 1)
	}
	tbl := i64Table(t, h, names, map[string][]int64{"val": vals})
	defer tbl.Release()

	g := graph.New(tbl)
	val, err := g.Scan(names, "val")
	require.NoError(t, err)
	sumID, err := g.Reduce(graph.AggSum, val, names.InternString("total"))
	require.NoError(t, err)

	ex := exec.New(h, names, nil)
	res, err := ex.Execute(g, sumID)
	require.NoError(t, err)
	defer exec.Release(res)

	require.True(t, res.IsTbl())
	_, col := res.Tbl.ColAt(0)
	x, err := col.Get(0)
	require.NoError(t, err)
	require.EqualValues(t, 5000050000, x)
}

// Scenario 5 (spec §8): loading "a,b,c\n1,2.5,foo\n2,3.5,bar\n" yields 3
// columns typed {I64, F64, SYM}, length 2, with the given values.
func TestScenarioCSVLoadInfersColumnTypes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario5.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b,c\n1,2.5,foo\n2,3.5,bar\n"), 0o644))

	h := block.NewHeap()
	names := symtab.New()
	tbl, err := csvload.LoadFile(h, names, path, nil)
	require.NoError(t, err)
	defer tbl.Release()

	require.Equal(t, 3, tbl.NCols())
	require.Equal(t, 2, tbl.NRows())

	aCol, ok := tbl.ColByName(names, "a")
	require.True(t, ok)
	require.Equal(t, block.TagI64, aCol.Tag())
	a0, _ := aCol.Get(0)
	a1, _ := aCol.Get(1)
	require.EqualValues(t, 1, a0)
	require.EqualValues(t, 2, a1)

	bCol, ok := tbl.ColByName(names, "b")
	require.True(t, ok)
	require.Equal(t, block.TagF64, bCol.Tag())
	b0, _ := bCol.Get(0)
	b1, _ := bCol.Get(1)
	require.InDelta(t, 2.5, b0.(float64), 1e-9)
	require.InDelta(t, 3.5, b1.(float64), 1e-9)

	cCol, ok := tbl.ColByName(names, "c")
	require.True(t, ok)
	require.Equal(t, block.TagSym, cCol.Tag())
	c0, _ := cCol.Get(0)
	c1, _ := cCol.Get(1)
	s0, err := names.Str(c0.(int64))
	require.NoError(t, err)
	s1, err := names.Str(c1.(int64))
	require.NoError(t, err)
	require.Equal(t, "foo", string(s0))
	require.Equal(t, "bar", string(s1))
}

// Scenario 6 (spec §8): two partitions opened as a parted table, grouped
// by id and summed, expect {0:90, 1:220, 2:240}.
func TestScenarioPartedTableGroupBySum(t *testing.T) {
	h := block.NewHeap()
	names := symtab.New()
	root := t.TempDir()

	parts := []struct {
		id []int64
		v  []int64
	}{
		{id: []int64{0, 0, 1, 1, 2}, v: []int64{10, 20, 30, 40, 50}},
		{id: []int64{0, 1, 1, 2, 2}, v: []int64{60, 70, 80, 90, 100}},
	}
	for i, part := range parts {
		tbl := i64Table(t, h, names, map[string][]int64{"id": part.id, "v": part.v})
		dir := filepath.Join(root, partitionDirName(i), "trades")
		require.NoError(t, storage.WriteTable(h, names, tbl, dir))
		require.NoError(t, tbl.Release())
	}

	src, err := storage.OpenPartitionedTable(h, names, root, "trades")
	require.NoError(t, err)
	defer src.Release()

	g := graph.New(src)
	id, err := g.Scan(names, "id")
	require.NoError(t, err)
	v, err := g.Scan(names, "v")
	require.NoError(t, err)
	idName, sumName := names.InternString("id"), names.InternString("sum_v")
	groupID, err := g.Group([]graph.NodeID{id}, []int64{idName}, []graph.AggOp{graph.AggSum}, []graph.NodeID{v}, []int64{sumName})
	require.NoError(t, err)

	ex := exec.New(h, names, nil)
	res, err := ex.Execute(g, groupID)
	require.NoError(t, err)
	defer exec.Release(res)

	require.Equal(t, map[int64]int64{0: 90, 1: 220, 2: 240}, groupSums(t, res))
}

func partitionDirName(i int) string {
	return []string{"0000", "0001"}[i]
}

// TestParallelThresholdBoundary checks that an element-wise kernel
// produces identical results just below, at, and just above
// workerpool.ParallelThreshold, where dispatch switches from running
// serially to fanning out across the pool (spec §8 "Parallel threshold
// ±1: result must equal serial for all operators").
func TestParallelThresholdBoundary(t *testing.T) {
	for _, n := range []int{
		workerpool.ParallelThreshold - 1,
		workerpool.ParallelThreshold,
		workerpool.ParallelThreshold + 1,
	} {
		n := n
		t.Run("", func(t *testing.T) {
			h := block.NewHeap()
			names := symtab.New()
			vals := make([]int64, n)
			for i := range vals {
				vals[i] = int64(i)
			}
			tbl := i64Table(t, h, names, map[string][]int64{"x": vals})
			defer tbl.Release()

			g := graph.New(tbl)
			x, err := g.Scan(names, "x")
			require.NoError(t, err)
			negID, err := g.Unary(graph.OpNeg, x, block.TagList)
			require.NoError(t, err)

			ex := exec.New(h, names, nil)
			res, err := ex.Execute(g, negID)
			require.NoError(t, err)
			defer exec.Release(res)

			require.True(t, res.IsVec())
			require.Equal(t, n, res.Vec.Len())
			for _, i := range []int{0, n / 2, n - 1} {
				got, err := res.Vec.Get(i)
				require.NoError(t, err)
				require.EqualValues(t, -int64(i), got)
			}
		})
	}
}
