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
)

func TestExecuteWindowRowNumberPerPartition(t *testing.T) {
	h := block.NewHeap()
	names := symtab.New()
	tbl := i64Table(t, h, names, map[string][]int64{
		"grp": {1, 1, 1, 2, 2},
		"ord": {30, 10, 20, 2, 1},
	})
	defer tbl.Release()

	g := graph.New(tbl)
	grp, err := g.Scan(names, "grp")
	require.NoError(t, err)
	ord, err := g.Scan(names, "ord")
	require.NoError(t, err)
	input, err := g.Select(grp, []int64{names.InternString("grp"), names.InternString("ord")},
		[]graph.NodeID{grp, ord})
	require.NoError(t, err)

	winNode, err := g.Window(input, []graph.NodeID{grp}, []graph.NodeID{ord},
		[]graph.WindowFunc{{Extra: graph.WindowRowNumber}}, graph.WindowFrame{})
	require.NoError(t, err)

	ex := exec.New(h, names, nil)
	res, err := ex.Execute(g, winNode)
	require.NoError(t, err)
	defer exec.Release(res)

	require.True(t, res.IsTbl())
	require.Equal(t, 5, res.Tbl.NRows())
	require.Equal(t, 3, res.Tbl.NCols())

	_, grpCol := res.Tbl.ColAt(0)
	_, ordCol := res.Tbl.ColAt(1)
	_, rnCol := res.Tbl.ColAt(2)
	for i := 0; i < res.Tbl.NRows(); i++ {
		g, _ := grpCol.Get(i)
		o, _ := ordCol.Get(i)
		rn, _ := rnCol.Get(i)
		if g.(int64) == 1 {
			switch o.(int64) {
			case 10:
				require.EqualValues(t, 1, rn)
			case 20:
				require.EqualValues(t, 2, rn)
			case 30:
				require.EqualValues(t, 3, rn)
			}
		} else {
			switch o.(int64) {
			case 1:
				require.EqualValues(t, 1, rn)
			case 2:
				require.EqualValues(t, 2, rn)
			}
		}
	}
}

func TestExecuteWindowSumFrameUnboundedPreceding(t *testing.T) {
	h := block.NewHeap()
	names := symtab.New()
	tbl := i64Table(t, h, names, map[string][]int64{
		"grp": {1, 1, 1},
		"ord": {1, 2, 3},
		"val": {10, 20, 30},
	})
	defer tbl.Release()

	g := graph.New(tbl)
	grp, err := g.Scan(names, "grp")
	require.NoError(t, err)
	ord, err := g.Scan(names, "ord")
	require.NoError(t, err)
	val, err := g.Scan(names, "val")
	require.NoError(t, err)
	input, err := g.Select(grp, []int64{names.InternString("grp"), names.InternString("ord"), names.InternString("val")},
		[]graph.NodeID{grp, ord, val})
	require.NoError(t, err)

	frame := graph.WindowFrame{
		Unit:  graph.FrameRows,
		Start: graph.FrameBound{Kind: graph.BoundUnboundedPreceding},
		End:   graph.FrameBound{Kind: graph.BoundCurrentRow},
	}
	winNode, err := g.Window(input, []graph.NodeID{grp}, []graph.NodeID{ord},
		[]graph.WindowFunc{{Op: graph.AggSum, Input: val}}, frame)
	require.NoError(t, err)

	ex := exec.New(h, names, nil)
	res, err := ex.Execute(g, winNode)
	require.NoError(t, err)
	defer exec.Release(res)

	_, sumCol := res.Tbl.ColAt(3)
	var got []float64
	for i := 0; i < res.Tbl.NRows(); i++ {
		x, err := sumCol.Get(i)
		require.NoError(t, err)
		got = append(got, x.(float64))
	}
	require.Equal(t, []float64{10, 30, 60}, got)
}
