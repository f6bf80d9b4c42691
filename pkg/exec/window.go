package exec

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"fmt"
	"sort"

	"github.com/coldb/coldb/pkg/block"
	"github.com/coldb/coldb/pkg/graph"
	"github.com/coldb/coldb/pkg/tderr"
	"github.com/coldb/coldb/pkg/vector"
)

// compareOrderRows compares two rows lexicographically across a WINDOW's
// order-by columns, ascending, nulls last.
func compareOrderRows(orderVals []Value, i, j int) int {
	for _, v := range orderVals {
		if c := compareKeyRows(v, i, j, false); c != 0 {
			return c
		}
	}
	return 0
}

// resolveBound maps a FrameBound to a concrete index into a partition's
// ordered row list of length m, given the current row's position pos.
func resolveBound(b graph.FrameBound, pos, m int) int {
	switch b.Kind {
	case graph.BoundUnboundedPreceding:
		return 0
	case graph.BoundUnboundedFollowing:
		return m - 1
	case graph.BoundCurrentRow:
		return pos
	case graph.BoundNPreceding:
		return pos - int(b.N)
	case graph.BoundNFollowing:
		return pos + int(b.N)
	default:
		return pos
	}
}

// frameBounds clamps a WINDOW frame to [0, m) for the row at pos. hi < lo
// signals an empty frame (spec §4.9's ROWS/RANGE distinction is not
// load-bearing for coldb's in-memory window evaluation; both units resolve
// identically over row offsets, a scope simplification recorded as a
// coldb Open Question decision).
func frameBounds(frame graph.WindowFrame, pos, m int) (lo, hi int) {
	lo = resolveBound(frame.Start, pos, m)
	hi = resolveBound(frame.End, pos, m)
	if lo < 0 {
		lo = 0
	}
	if hi > m-1 {
		hi = m - 1
	}
	return lo, hi
}

// windowAgg evaluates one AggOp over an explicit row-index window (as
// opposed to aggregate's group-bucketed evaluation in group.go).
func (ex *Executor) windowAgg(op graph.AggOp, input Value, rows []int) (interface{}, bool, error) {
	switch op {
	case graph.AggCount:
		return int64(len(rows)), false, nil
	case graph.AggSum, graph.AggProd, graph.AggAvg:
		acc := 0.0
		if op == graph.AggProd {
			acc = 1
		}
		n := 0
		for _, r := range rows {
			x, isNull, err := element(input, r)
			if err != nil {
				return nil, false, err
			}
			if isNull {
				continue
			}
			v := toF64(x)
			if op == graph.AggProd {
				acc *= v
			} else {
				acc += v
			}
			n++
		}
		if op == graph.AggAvg {
			if n == 0 {
				return nil, true, nil
			}
			return acc / float64(n), false, nil
		}
		return acc, false, nil
	case graph.AggMin, graph.AggMax:
		var best interface{}
		set := false
		for _, r := range rows {
			x, isNull, err := element(input, r)
			if err != nil {
				return nil, false, err
			}
			if isNull {
				continue
			}
			if !set {
				best, set = x, true
				continue
			}
			var c int
			if _, ok := x.(float64); ok {
				c = cmpF64(toF64(x), toF64(best))
			} else {
				c = cmpI64(toI64(x), toI64(best))
			}
			if (op == graph.AggMin && c < 0) || (op == graph.AggMax && c > 0) {
				best = x
			}
		}
		if !set {
			return nil, true, nil
		}
		return best, false, nil
	case graph.AggFirst:
		if len(rows) == 0 {
			return nil, true, nil
		}
		return element(input, rows[0])
	case graph.AggLast:
		if len(rows) == 0 {
			return nil, true, nil
		}
		return element(input, rows[len(rows)-1])
	default:
		return nil, false, tderr.New(tderr.KindNotImplemented, "exec: window agg op %v not implemented", op)
	}
}

// evalWindow implements WINDOW (spec §4.9): rows are partitioned by
// Children, ordered within each partition by OrderKeys, and each Funcs
// entry is evaluated either positionally (ROW_NUMBER/RANK/DENSE_RANK/
// LAG/LEAD) or over the resolved Frame (AggOp-reused functions). Output
// columns for Funcs carry synthesized names ("win0", "win1", ...) since
// WindowFunc has no name field of its own -- a coldb Open Question
// decision, since the source leaves window output naming unspecified.
func (ex *Executor) evalWindow(id graph.NodeID, n *graph.Node) (Value, error) {
	a, err := ex.eval(n.Inputs[0])
	if err != nil {
		return Value{}, err
	}
	defer Release(a)
	if !a.IsTbl() {
		return Value{}, tderr.New(tderr.KindRank, "exec: window input must be a table")
	}

	ext := ex.g.Ext(id)
	partVals, err := evalAll(ex, ext.Children)
	if err != nil {
		return Value{}, err
	}
	defer releaseAll(partVals)
	orderVals, err := evalAll(ex, ext.OrderKeys)
	if err != nil {
		return Value{}, err
	}
	defer releaseAll(orderVals)

	nrows := a.Tbl.NRows()

	groups := make(map[string][]int)
	var groupOrder []string
	for i := 0; i < nrows; i++ {
		k := groupKey(partVals, i)
		if _, ok := groups[k]; !ok {
			groupOrder = append(groupOrder, k)
		}
		groups[k] = append(groups[k], i)
	}
	for _, k := range groupOrder {
		rows := groups[k]
		sort.SliceStable(rows, func(x, y int) bool {
			return compareOrderRows(orderVals, rows[x], rows[y]) < 0
		})
	}

	funcVals := make([]Value, len(ext.Funcs))
	defer func() {
		for _, v := range funcVals {
			if v.Atom != nil || v.Vec != nil || v.Tbl != nil {
				_ = Release(v)
			}
		}
	}()
	for i, fn := range ext.Funcs {
		if fn.Extra == graph.WindowRowNumber || fn.Extra == graph.WindowRank || fn.Extra == graph.WindowDenseRank {
			continue
		}
		v, err := ex.eval(fn.Input)
		if err != nil {
			return Value{}, err
		}
		funcVals[i] = v
	}

	outVal := make([][]interface{}, len(ext.Funcs))
	outNull := make([][]bool, len(ext.Funcs))
	for i := range ext.Funcs {
		outVal[i] = make([]interface{}, nrows)
		outNull[i] = make([]bool, nrows)
	}

	for _, k := range groupOrder {
		ord := groups[k]
		m := len(ord)
		for fi, fn := range ext.Funcs {
			switch fn.Extra {
			case graph.WindowRowNumber:
				for pos, r := range ord {
					outVal[fi][r] = int64(pos + 1)
				}
			case graph.WindowRank, graph.WindowDenseRank:
				rank := 1
				for pos, r := range ord {
					if pos > 0 && compareOrderRows(orderVals, ord[pos-1], r) != 0 {
						if fn.Extra == graph.WindowRank {
							rank = pos + 1
						} else {
							rank++
						}
					}
					outVal[fi][r] = int64(rank)
				}
			case graph.WindowLag, graph.WindowLead:
				for pos, r := range ord {
					srcPos := pos - 1
					if fn.Extra == graph.WindowLead {
						srcPos = pos + 1
					}
					if srcPos < 0 || srcPos >= m {
						outNull[fi][r] = true
						continue
					}
					x, isNull, err := element(funcVals[fi], ord[srcPos])
					if err != nil {
						return Value{}, err
					}
					outVal[fi][r], outNull[fi][r] = x, isNull
				}
			default:
				for pos, r := range ord {
					lo, hi := frameBounds(ext.Frame, pos, m)
					var rows []int
					if hi >= lo {
						rows = ord[lo : hi+1]
					}
					v, isNull, err := ex.windowAgg(fn.Op, funcVals[fi], rows)
					if err != nil {
						return Value{}, err
					}
					outVal[fi][r], outNull[fi][r] = v, isNull
				}
			}
		}
	}

	out := vector.NewTable()
	for c := 0; c < a.Tbl.NCols(); c++ {
		name, col := a.Tbl.ColAt(c)
		vector.Retain(col)
		if err := out.AddColID(name, col); err != nil {
			_ = vector.Release(col)
			_ = out.Release()
			return Value{}, err
		}
	}
	for fi, fn := range ext.Funcs {
		outType := windowOutType(fn, funcVals[fi])
		col, err := vector.NewVectorFilled(ex.Heap, outType, nrows)
		if err != nil {
			_ = out.Release()
			return Value{}, err
		}
		for i := 0; i < nrows; i++ {
			if outNull[fi][i] {
				if err := vector.SetNull(ex.Heap, col, i); err != nil {
					_ = out.Release()
					return Value{}, err
				}
				continue
			}
			writeCast(col, outType, i, outVal[fi][i])
		}
		nameID := ex.Names.InternString(fmt.Sprintf("win%d", fi))
		err = out.AddColID(nameID, col)
		_ = vector.Release(col)
		if err != nil {
			_ = out.Release()
			return Value{}, err
		}
	}
	return TblValue(out), nil
}

func windowOutType(fn graph.WindowFunc, input Value) block.Tag {
	switch fn.Extra {
	case graph.WindowRowNumber, graph.WindowRank, graph.WindowDenseRank:
		return block.TagI64
	case graph.WindowLag, graph.WindowLead:
		return input.Tag()
	}
	switch fn.Op {
	case graph.AggCount, graph.AggCountDistinct:
		return block.TagI64
	case graph.AggMin, graph.AggMax, graph.AggFirst, graph.AggLast:
		return input.Tag()
	default:
		return block.TagF64
	}
}
