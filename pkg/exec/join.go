package exec

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"github.com/coldb/coldb/pkg/block"
	"github.com/coldb/coldb/pkg/graph"
	"github.com/coldb/coldb/pkg/tderr"
	"github.com/coldb/coldb/pkg/vector"
)

// materializeRowsNullable is materializeRows extended with a sentinel: a
// negative row index produces a null output element, used to pad the
// unmatched side of an outer join (spec §4.9).
func materializeRowsNullable(h *block.Heap, src *vector.Vector, rows []int) (*vector.Vector, error) {
	out, err := vector.NewVectorFilled(h, src.Tag(), len(rows))
	if err != nil {
		return nil, err
	}
	for dst, row := range rows {
		if row < 0 || vector.IsNull(src, row) {
			if err := vector.SetNull(h, out, dst); err != nil {
				return nil, err
			}
			continue
		}
		v, err := src.Get(row)
		if err != nil {
			return nil, err
		}
		writeCast(out, src.Tag(), dst, v)
	}
	return out, nil
}

func appendTableColumns(h *block.Heap, out *vector.Table, t *vector.Table, rows []int) error {
	for c := 0; c < t.NCols(); c++ {
		name, col := t.ColAt(c)
		nc, err := materializeRowsNullable(h, col, rows)
		if err != nil {
			return err
		}
		err = out.AddColID(name, nc)
		_ = vector.Release(nc)
		if err != nil {
			return err
		}
	}
	return nil
}

// evalJoin implements hash JOIN over one or more key-pairs (spec §4.9):
// the right side is hashed once by its composite key, then probed once per
// left row. SEMI/ANTI keep only left's columns; the other join types
// concatenate left's columns followed by right's.
func (ex *Executor) evalJoin(id graph.NodeID, n *graph.Node) (Value, error) {
	left, err := ex.eval(n.Inputs[0])
	if err != nil {
		return Value{}, err
	}
	defer Release(left)

	ext := ex.g.Ext(id)
	right, err := ex.eval(ext.RightNode)
	if err != nil {
		return Value{}, err
	}
	defer Release(right)

	if !left.IsTbl() || !right.IsTbl() {
		return Value{}, tderr.New(tderr.KindRank, "exec: join operands must be tables")
	}

	leftKeys, err := evalAll(ex, ext.LeftKeys)
	if err != nil {
		return Value{}, err
	}
	defer releaseAll(leftKeys)
	rightKeys, err := evalAll(ex, ext.RightKeys)
	if err != nil {
		return Value{}, err
	}
	defer releaseAll(rightKeys)

	nRight := right.Tbl.NRows()
	rightIndex := make(map[string][]int)
	for i := 0; i < nRight; i++ {
		k := groupKey(rightKeys, i)
		rightIndex[k] = append(rightIndex[k], i)
	}
	rightMatched := make([]bool, nRight)

	var leftRows, rightRows []int
	nLeft := left.Tbl.NRows()
	for i := 0; i < nLeft; i++ {
		matches := rightIndex[groupKey(leftKeys, i)]
		switch ext.JoinType {
		case graph.JoinSemi:
			if len(matches) > 0 {
				leftRows = append(leftRows, i)
			}
			continue
		case graph.JoinAnti:
			if len(matches) == 0 {
				leftRows = append(leftRows, i)
			}
			continue
		}
		if len(matches) == 0 {
			if ext.JoinType == graph.JoinLeftOuter || ext.JoinType == graph.JoinFullOuter {
				leftRows = append(leftRows, i)
				rightRows = append(rightRows, -1)
			}
			continue
		}
		for _, rj := range matches {
			leftRows = append(leftRows, i)
			rightRows = append(rightRows, rj)
			rightMatched[rj] = true
		}
	}
	if ext.JoinType == graph.JoinRightOuter || ext.JoinType == graph.JoinFullOuter {
		for rj := 0; rj < nRight; rj++ {
			if !rightMatched[rj] {
				leftRows = append(leftRows, -1)
				rightRows = append(rightRows, rj)
			}
		}
	}

	out := vector.NewTable()
	if err := appendTableColumns(ex.Heap, out, left.Tbl, leftRows); err != nil {
		_ = out.Release()
		return Value{}, err
	}
	if ext.JoinType != graph.JoinSemi && ext.JoinType != graph.JoinAnti {
		if err := appendTableColumns(ex.Heap, out, right.Tbl, rightRows); err != nil {
			_ = out.Release()
			return Value{}, err
		}
	}
	return TblValue(out), nil
}

// evalWindowJoin implements an as-of/range join: rows with equal symbol
// keys join when the right row's time falls within
// [leftTime+lo, leftTime+hi] (spec §4.9). Unmatched left rows are dropped
// (coldb Open Question decision: the source left outer-vs-inner semantics
// unspecified for this operator; inner was chosen as the simpler, more
// predictable default).
func (ex *Executor) evalWindowJoin(id graph.NodeID, n *graph.Node) (Value, error) {
	left, err := ex.eval(n.Inputs[0])
	if err != nil {
		return Value{}, err
	}
	defer Release(left)

	ext := ex.g.Ext(id)
	right, err := ex.eval(ext.RightNode)
	if err != nil {
		return Value{}, err
	}
	defer Release(right)
	if !left.IsTbl() || !right.IsTbl() {
		return Value{}, tderr.New(tderr.KindRank, "exec: window join operands must be tables")
	}

	keyLeft, err := ex.eval(ext.AsOfKeyLeft)
	if err != nil {
		return Value{}, err
	}
	defer Release(keyLeft)
	timeLeft, err := ex.eval(ext.AsOfTimeLeft)
	if err != nil {
		return Value{}, err
	}
	defer Release(timeLeft)
	keyRight, err := ex.eval(ext.AsOfKeyRight)
	if err != nil {
		return Value{}, err
	}
	defer Release(keyRight)
	timeRight, err := ex.eval(ext.AsOfTimeRight)
	if err != nil {
		return Value{}, err
	}
	defer Release(timeRight)

	rightByKey := make(map[string][]int)
	for i := 0; i < right.Tbl.NRows(); i++ {
		rightByKey[groupKey([]Value{keyRight}, i)] = append(rightByKey[groupKey([]Value{keyRight}, i)], i)
	}

	var leftRows, rightRows []int
	for i := 0; i < left.Tbl.NRows(); i++ {
		lt, ltNull, _ := element(timeLeft, i)
		if ltNull {
			continue
		}
		for _, rj := range rightByKey[groupKey([]Value{keyLeft}, i)] {
			rt, rtNull, _ := element(timeRight, rj)
			if rtNull {
				continue
			}
			delta := toI64(rt) - toI64(lt)
			if delta >= ext.AsOfLo && delta <= ext.AsOfHi {
				leftRows = append(leftRows, i)
				rightRows = append(rightRows, rj)
			}
		}
	}

	out := vector.NewTable()
	if err := appendTableColumns(ex.Heap, out, left.Tbl, leftRows); err != nil {
		_ = out.Release()
		return Value{}, err
	}
	if err := appendTableColumns(ex.Heap, out, right.Tbl, rightRows); err != nil {
		_ = out.Release()
		return Value{}, err
	}
	return TblValue(out), nil
}
