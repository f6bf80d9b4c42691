package exec

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"github.com/coldb/coldb/pkg/graph"
	"github.com/coldb/coldb/pkg/tderr"
	"github.com/coldb/coldb/pkg/vector"
)

// evalHeadTail implements HEAD/TAIL: n's count is carried as an I64 CONST
// literal attached by graph.Head/graph.Tail (spec §4.7).
func (ex *Executor) evalHeadTail(id graph.NodeID, n *graph.Node, head bool) (Value, error) {
	a, err := ex.eval(n.Inputs[0])
	if err != nil {
		return Value{}, err
	}
	defer Release(a)

	lit := ex.g.Ext(id).Literal
	if lit == nil {
		return Value{}, tderr.New(tderr.KindDomain, "exec: head/tail missing count literal")
	}
	count, err := element(AtomValue(lit), 0)
	if err != nil {
		return Value{}, err
	}
	k := toI64(count)

	rows := a.Len()
	var lo, hi int
	if head {
		lo, hi = 0, clampInt(k, rows)
	} else {
		lo, hi = rows-clampInt(k, rows), rows
	}

	switch {
	case a.IsTbl():
		return ex.sliceTable(a.Tbl, lo, hi)
	case a.IsVec():
		out, err := materializeRows(ex.Heap, a.Vec, rangeRows(lo, hi))
		if err != nil {
			return Value{}, err
		}
		return VecValue(out), nil
	default:
		return Retain(a), nil
	}
}

func clampInt(k int64, n int) int {
	if k < 0 {
		k = 0
	}
	if k > int64(n) {
		return n
	}
	return int(k)
}

func rangeRows(lo, hi int) []int {
	if hi <= lo {
		return nil
	}
	rows := make([]int, hi-lo)
	for i := range rows {
		rows[i] = lo + i
	}
	return rows
}

func (ex *Executor) sliceTable(t *vector.Table, lo, hi int) (Value, error) {
	return ex.sliceTableRows(t, rangeRows(lo, hi))
}

// evalMaterialize implements MATERIALIZE: copies a vector input into a
// fresh contiguous vector, whether or not it is already contiguous, so a
// slice view or a parted/partition-map column comes out as plain storage.
// Atoms and tables are returned unchanged (spec §4.7).
func (ex *Executor) evalMaterialize(a Value) (Value, error) {
	if !a.IsVec() {
		return a, nil
	}
	rows := rangeRows(0, a.Vec.Len())
	out, err := materializeRows(ex.Heap, a.Vec, rows)
	if err != nil {
		_ = Release(a)
		return Value{}, err
	}
	_ = Release(a)
	return VecValue(out), nil
}
