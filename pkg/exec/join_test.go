package exec_test

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coldb/coldb/pkg/block"
	"github.com/coldb/coldb/pkg/exec"
	"github.com/coldb/coldb/pkg/graph"
	"github.com/coldb/coldb/pkg/symtab"
	"github.com/coldb/coldb/pkg/vector"
)

func TestExecuteJoinInnerMatchesOnKey(t *testing.T) {
	h := block.NewHeap()
	names := symtab.New()
	left := i64Table(t, h, names, map[string][]int64{
		"id": {1, 2, 3},
		"lv": {10, 20, 30},
	})
	defer left.Release()
	right := i64Table(t, h, names, map[string][]int64{
		"id": {2, 3, 4},
		"rv": {200, 300, 400},
	})
	defer right.Release()

	g := graph.New(left)
	leftID, err := g.Scan(names, "id")
	require.NoError(t, err)
	leftV, err := g.Scan(names, "lv")
	require.NoError(t, err)
	leftIDName, leftVName := names.InternString("id"), names.InternString("lv")
	leftSel, err := g.Select(leftID, []int64{leftIDName, leftVName}, []graph.NodeID{leftID, leftV})
	require.NoError(t, err)

	rightID, err := g.ScanTable(names, right, "id")
	require.NoError(t, err)
	rightV, err := g.ScanTable(names, right, "rv")
	require.NoError(t, err)
	rightIDName, rightVName := names.InternString("id"), names.InternString("rv")
	rightSel, err := g.Select(rightID, []int64{rightIDName, rightVName}, []graph.NodeID{rightID, rightV})
	require.NoError(t, err)

	joinNode, err := g.Join(leftSel, rightSel, []graph.NodeID{leftID}, []graph.NodeID{rightID}, graph.JoinInner)
	require.NoError(t, err)

	ex := exec.New(h, names, nil)
	res, err := ex.Execute(g, joinNode)
	require.NoError(t, err)
	defer exec.Release(res)

	require.True(t, res.IsTbl())
	require.Equal(t, 2, res.Tbl.NRows())
	require.Equal(t, 4, res.Tbl.NCols())
}

func TestExecuteJoinLeftOuterPadsUnmatched(t *testing.T) {
	h := block.NewHeap()
	names := symtab.New()
	left := i64Table(t, h, names, map[string][]int64{
		"id": {1, 2, 3},
	})
	defer left.Release()
	right := i64Table(t, h, names, map[string][]int64{
		"id": {2},
		"rv": {200},
	})
	defer right.Release()

	g := graph.New(left)
	leftID, err := g.Scan(names, "id")
	require.NoError(t, err)
	leftIDName := names.InternString("id")
	leftSel, err := g.Select(leftID, []int64{leftIDName}, []graph.NodeID{leftID})
	require.NoError(t, err)

	rightID, err := g.ScanTable(names, right, "id")
	require.NoError(t, err)
	rightV, err := g.ScanTable(names, right, "rv")
	require.NoError(t, err)
	rightIDName, rightVName := names.InternString("id"), names.InternString("rv")
	rightSel, err := g.Select(rightID, []int64{rightIDName, rightVName}, []graph.NodeID{rightID, rightV})
	require.NoError(t, err)

	joinNode, err := g.Join(leftSel, rightSel, []graph.NodeID{leftID}, []graph.NodeID{rightID}, graph.JoinLeftOuter)
	require.NoError(t, err)

	ex := exec.New(h, names, nil)
	res, err := ex.Execute(g, joinNode)
	require.NoError(t, err)
	defer exec.Release(res)

	require.True(t, res.IsTbl())
	require.Equal(t, 3, res.Tbl.NRows())

	_, rvCol := res.Tbl.ColAt(2)
	var nulls int
	for i := 0; i < res.Tbl.NRows(); i++ {
		if vector.IsNull(rvCol, i) {
			nulls++
		}
	}
	require.Equal(t, 2, nulls)
}

func TestExecuteWindowJoinMatchesWithinTimeBand(t *testing.T) {
	h := block.NewHeap()
	names := symtab.New()
	left := i64Table(t, h, names, map[string][]int64{
		"key":  {1, 1, 2},
		"time": {100, 200, 100},
	})
	defer left.Release()
	right := i64Table(t, h, names, map[string][]int64{
		"key":  {1, 1, 2},
		"time": {95, 250, 1000},
		"px":   {10, 20, 30},
	})
	defer right.Release()

	g := graph.New(left)
	leftKey, err := g.Scan(names, "key")
	require.NoError(t, err)
	leftTime, err := g.Scan(names, "time")
	require.NoError(t, err)
	rightKey, err := g.ScanTable(names, right, "key")
	require.NoError(t, err)
	rightTime, err := g.ScanTable(names, right, "time")
	require.NoError(t, err)

	leftSel, err := g.Select(leftKey, []int64{names.InternString("key"), names.InternString("time")}, []graph.NodeID{leftKey, leftTime})
	require.NoError(t, err)
	rightSel, err := g.Select(rightKey, []int64{names.InternString("key"), names.InternString("time")}, []graph.NodeID{rightKey, rightTime})
	require.NoError(t, err)

	wjNode, err := g.WindowJoin(leftSel, rightSel, leftKey, leftTime, rightKey, rightTime, -10, 10)
	require.NoError(t, err)

	ex := exec.New(h, names, nil)
	res, err := ex.Execute(g, wjNode)
	require.NoError(t, err)
	defer exec.Release(res)

	require.True(t, res.IsTbl())
	require.Equal(t, 1, res.Tbl.NRows())
}
