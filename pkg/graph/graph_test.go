package graph_test

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coldb/coldb/pkg/block"
	"github.com/coldb/coldb/pkg/graph"
	"github.com/coldb/coldb/pkg/symtab"
	"github.com/coldb/coldb/pkg/vector"
)

func intTable(t *testing.T, h *block.Heap, names *symtab.Table, cols map[string][]int64) *vector.Table {
	t.Helper()
	tbl := vector.NewTable()
	for name, vals := range cols {
		v, err := vector.NewVector(h, block.TagI64, len(vals))
		require.NoError(t, err)
		for _, x := range vals {
			require.NoError(t, v.AppendI64(h, x))
		}
		require.NoError(t, tbl.AddCol(names, name, v))
		require.NoError(t, vector.Release(v))
	}
	return tbl
}

func TestScanRequiresBoundTable(t *testing.T) {
	names := symtab.New()
	g := graph.New(nil)
	_, err := g.Scan(names, "x")
	require.Error(t, err)
}

func TestScanResolvesOutTypeAndEstRows(t *testing.T) {
	h := block.NewHeap()
	names := symtab.New()
	tbl := intTable(t, h, names, map[string][]int64{"a": {1, 2, 3}})
	defer tbl.Release()

	g := graph.New(tbl)
	id, err := g.Scan(names, "a")
	require.NoError(t, err)

	n := g.Node(id)
	require.Equal(t, graph.OpScan, n.Opcode)
	require.Equal(t, block.TagI64, n.OutType)
	require.EqualValues(t, 3, n.EstRows)
	require.Equal(t, names.InternString("a"), g.ScanName(id))
}

func TestScanUnknownColumnErrors(t *testing.T) {
	h := block.NewHeap()
	names := symtab.New()
	tbl := intTable(t, h, names, map[string][]int64{"a": {1}})
	defer tbl.Release()

	g := graph.New(tbl)
	_, err := g.Scan(names, "nope")
	require.Error(t, err)
}

func TestScanTableBindsExtNodeScanTable(t *testing.T) {
	h := block.NewHeap()
	names := symtab.New()
	left := intTable(t, h, names, map[string][]int64{"a": {1}})
	defer left.Release()
	right := intTable(t, h, names, map[string][]int64{"b": {2, 3}})
	defer right.Release()

	g := graph.New(left)
	id, err := g.ScanTable(names, right, "b")
	require.NoError(t, err)

	require.Same(t, right, g.ScanTableOf(id))
	require.Same(t, left, g.Table)
}

func TestBinaryPromotesNumericOutType(t *testing.T) {
	h := block.NewHeap()
	names := symtab.New()
	tbl := intTable(t, h, names, map[string][]int64{"a": {1, 2}})
	defer tbl.Release()

	g := graph.New(tbl)
	a, err := g.Scan(names, "a")
	require.NoError(t, err)
	c, err := g.ConstF64(h, 1.5)
	require.NoError(t, err)

	addID, err := g.Binary(graph.OpAdd, a, c)
	require.NoError(t, err)
	require.Equal(t, block.TagF64, g.Node(addID).OutType)

	cmpID, err := g.Binary(graph.OpLt, a, c)
	require.NoError(t, err)
	require.Equal(t, block.TagBool, g.Node(cmpID).OutType)
}

func TestBinaryRejectsOutOfRangeOperand(t *testing.T) {
	h := block.NewHeap()
	names := symtab.New()
	tbl := intTable(t, h, names, map[string][]int64{"a": {1}})
	defer tbl.Release()

	g := graph.New(tbl)
	a, err := g.Scan(names, "a")
	require.NoError(t, err)

	_, err = g.Binary(graph.OpAdd, a, graph.NodeID(999))
	require.Error(t, err)
}

func TestFilterRequiresBoolPredicate(t *testing.T) {
	h := block.NewHeap()
	names := symtab.New()
	tbl := intTable(t, h, names, map[string][]int64{"a": {1, 2}})
	defer tbl.Release()

	g := graph.New(tbl)
	a, err := g.Scan(names, "a")
	require.NoError(t, err)

	_, err = g.Filter(a, a)
	require.Error(t, err)

	pred, err := g.Binary(graph.OpGt, a, a)
	require.NoError(t, err)
	filtID, err := g.Filter(a, pred)
	require.NoError(t, err)
	require.Equal(t, block.TagI64, g.Node(filtID).OutType)
}

func TestHeadClampsEstRowsToInputAndCarriesLiteral(t *testing.T) {
	h := block.NewHeap()
	names := symtab.New()
	tbl := intTable(t, h, names, map[string][]int64{"a": {1, 2, 3}})
	defer tbl.Release()

	g := graph.New(tbl)
	a, err := g.Scan(names, "a")
	require.NoError(t, err)

	headID, err := g.Head(h, a, 10)
	require.NoError(t, err)
	require.EqualValues(t, 3, g.Node(headID).EstRows)
	require.NotNil(t, g.Ext(headID).Literal)
}

func TestGroupRequiresMatchingAggSlices(t *testing.T) {
	h := block.NewHeap()
	names := symtab.New()
	tbl := intTable(t, h, names, map[string][]int64{"a": {1, 2}})
	defer tbl.Release()

	g := graph.New(tbl)
	a, err := g.Scan(names, "a")
	require.NoError(t, err)

	_, err = g.Group([]graph.NodeID{a}, []int64{names.InternString("a")},
		[]graph.AggOp{graph.AggSum}, nil, nil)
	require.Error(t, err)
}

func TestReduceBuildsZeroKeyGroup(t *testing.T) {
	h := block.NewHeap()
	names := symtab.New()
	tbl := intTable(t, h, names, map[string][]int64{"a": {1, 2, 3}})
	defer tbl.Release()

	g := graph.New(tbl)
	a, err := g.Scan(names, "a")
	require.NoError(t, err)

	id, err := g.Reduce(graph.AggSum, a, names.InternString("total"))
	require.NoError(t, err)
	n := g.Node(id)
	require.Equal(t, graph.OpGroup, n.Opcode)
	ext := g.Ext(id)
	require.Empty(t, ext.Children)
	require.Equal(t, []graph.AggOp{graph.AggSum}, ext.AggOps)
}

func TestJoinRequiresAtLeastOneKeyPair(t *testing.T) {
	h := block.NewHeap()
	names := symtab.New()
	left := intTable(t, h, names, map[string][]int64{"a": {1}})
	defer left.Release()
	right := intTable(t, h, names, map[string][]int64{"b": {1}})
	defer right.Release()

	g := graph.New(left)
	l, err := g.Scan(names, "a")
	require.NoError(t, err)
	r, err := g.ScanTable(names, right, "b")
	require.NoError(t, err)

	_, err = g.Join(l, r, nil, nil, graph.JoinInner)
	require.Error(t, err)

	joinID, err := g.Join(l, r, []graph.NodeID{l}, []graph.NodeID{r}, graph.JoinInner)
	require.NoError(t, err)
	require.Equal(t, graph.JoinInner, g.Ext(joinID).JoinType)
}

func TestWalkSkipsDeadNodes(t *testing.T) {
	h := block.NewHeap()
	names := symtab.New()
	tbl := intTable(t, h, names, map[string][]int64{"a": {1, 2}})
	defer tbl.Release()

	g := graph.New(tbl)
	a, err := g.Scan(names, "a")
	require.NoError(t, err)
	b, err := g.Scan(names, "a")
	require.NoError(t, err)
	g.Node(b).Flags |= graph.FlagDead

	var seen []graph.NodeID
	g.Walk(func(n *graph.Node) { seen = append(seen, n.ID) })
	require.Equal(t, []graph.NodeID{a}, seen)
}

func TestDumpMarksDeadNodes(t *testing.T) {
	h := block.NewHeap()
	names := symtab.New()
	tbl := intTable(t, h, names, map[string][]int64{"a": {1, 2}})
	defer tbl.Release()

	g := graph.New(tbl)
	a, err := g.Scan(names, "a")
	require.NoError(t, err)
	b, err := g.Scan(names, "a")
	require.NoError(t, err)
	g.Node(b).Flags |= graph.FlagDead

	lines := strings.Split(strings.TrimRight(g.Dump(), "\n"), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[a], "SCAN")
	require.NotContains(t, lines[a], "DEAD")
	require.Contains(t, lines[b], "DEAD")
}

func TestCheckIDRangeViaCheckedBuilder(t *testing.T) {
	h := block.NewHeap()
	names := symtab.New()
	tbl := intTable(t, h, names, map[string][]int64{"a": {1}})
	defer tbl.Release()

	g := graph.New(tbl)
	_, err := g.Materialize(graph.NodeID(42))
	require.Error(t, err)
}
