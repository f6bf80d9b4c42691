package exec

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"fmt"
	"sort"
	"strings"

	"github.com/coldb/coldb/pkg/block"
	"github.com/coldb/coldb/pkg/graph"
	"github.com/coldb/coldb/pkg/tderr"
	"github.com/coldb/coldb/pkg/vector"
)

func evalAll(ex *Executor, ids []graph.NodeID) ([]Value, error) {
	vals := make([]Value, len(ids))
	for i, id := range ids {
		v, err := ex.eval(id)
		if err != nil {
			releaseAll(vals[:i])
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func releaseAll(vals []Value) {
	for _, v := range vals {
		_ = Release(v)
	}
}

// groupKey builds a composite string key from keyVals at row i, used as a
// Go map key for hash grouping/distinct/dedup (spec §4.9's GROUP has no
// fixed key type, so coldb hashes the formatted value rather than writing
// per-type hash kernels).
func groupKey(keyVals []Value, i int) string {
	if len(keyVals) == 0 {
		return ""
	}
	var b strings.Builder
	for _, v := range keyVals {
		x, isNull, _ := element(v, i)
		if isNull {
			b.WriteString("\x00N;")
			continue
		}
		fmt.Fprintf(&b, "%v;", x)
	}
	return b.String()
}

// evalGroup implements GROUP (spec §4.9): rows are bucketed by the
// composite key, aggregates accumulate per bucket, and output column order
// is keys followed by aggregates, each bucket's key value taken from its
// first-seen row. Zero keys models a whole-column reduction (spec §8's
// "group with a single key equal to a constant returns one group
// containing all rows" boundary): every row lands in a single group.
func (ex *Executor) evalGroup(id graph.NodeID, n *graph.Node) (Value, error) {
	ext := ex.g.Ext(id)

	keyVals, err := evalAll(ex, ext.Children)
	if err != nil {
		return Value{}, err
	}
	defer releaseAll(keyVals)

	aggVals, err := evalAll(ex, ext.AggInputs)
	if err != nil {
		return Value{}, err
	}
	defer releaseAll(aggVals)

	nrows := 0
	switch {
	case len(keyVals) > 0:
		nrows = keyVals[0].Len()
	case len(aggVals) > 0:
		nrows = aggVals[0].Len()
	}

	index := make(map[string]int)
	var order []int
	groupOf := make([]int, nrows)
	for i := 0; i < nrows; i++ {
		key := groupKey(keyVals, i)
		gi, ok := index[key]
		if !ok {
			gi = len(order)
			index[key] = gi
			order = append(order, i)
		}
		groupOf[i] = gi
	}
	ngroups := len(order)
	if len(keyVals) == 0 {
		ngroups = 1 // a reduction always yields one group, even over zero rows
	}

	out := vector.NewTable()
	for i, v := range keyVals {
		col, err := buildRepresentativeColumn(ex.Heap, v, order)
		if err != nil {
			_ = out.Release()
			return Value{}, err
		}
		if err := out.AddColID(ext.Names[i], col); err != nil {
			_ = vector.Release(col)
			_ = out.Release()
			return Value{}, err
		}
		_ = vector.Release(col)
	}
	for j, op := range ext.AggOps {
		col, err := ex.aggregate(op, aggVals[j], groupOf, ngroups)
		if err != nil {
			_ = out.Release()
			return Value{}, err
		}
		if err := out.AddColID(ext.Names[len(keyVals)+j], col); err != nil {
			_ = vector.Release(col)
			_ = out.Release()
			return Value{}, err
		}
		_ = vector.Release(col)
	}
	return TblValue(out), nil
}

func buildRepresentativeColumn(h *block.Heap, v Value, order []int) (*vector.Vector, error) {
	if !v.IsVec() {
		return nil, tderr.New(tderr.KindRank, "exec: group key must be a vector")
	}
	return materializeRows(h, v.Vec, order)
}

func (ex *Executor) aggregate(op graph.AggOp, input Value, groupOf []int, ngroups int) (*vector.Vector, error) {
	switch op {
	case graph.AggCount:
		counts := make([]int64, ngroups)
		for _, gi := range groupOf {
			counts[gi]++
		}
		return ex.fillI64(counts)
	case graph.AggCountDistinct:
		seen := make([]map[string]bool, ngroups)
		for i := range seen {
			seen[i] = make(map[string]bool)
		}
		for i, gi := range groupOf {
			x, isNull, _ := element(input, i)
			if isNull {
				continue
			}
			seen[gi][fmt.Sprint(x)] = true
		}
		counts := make([]int64, ngroups)
		for gi, m := range seen {
			counts[gi] = int64(len(m))
		}
		return ex.fillI64(counts)
	case graph.AggSum, graph.AggProd, graph.AggAvg:
		return ex.aggregateNumeric(op, input, groupOf, ngroups)
	case graph.AggMin, graph.AggMax:
		return ex.aggregateMinMax(op, input, groupOf, ngroups)
	case graph.AggFirst, graph.AggLast:
		return ex.aggregateFirstLast(op, input, groupOf, ngroups)
	default:
		return nil, tderr.New(tderr.KindNotImplemented, "exec: aggregate op %v not implemented", op)
	}
}

func (ex *Executor) aggregateNumeric(op graph.AggOp, input Value, groupOf []int, ngroups int) (*vector.Vector, error) {
	acc := make([]float64, ngroups)
	n := make([]int64, ngroups)
	if op == graph.AggProd {
		for i := range acc {
			acc[i] = 1
		}
	}
	for i, gi := range groupOf {
		x, isNull, _ := element(input, i)
		if isNull {
			continue
		}
		v := toF64(x)
		if op == graph.AggProd {
			acc[gi] *= v
		} else {
			acc[gi] += v
		}
		n[gi]++
	}
	if op == graph.AggAvg {
		out, err := vector.NewVectorFilled(ex.Heap, block.TagF64, ngroups)
		if err != nil {
			return nil, err
		}
		for gi := 0; gi < ngroups; gi++ {
			if n[gi] == 0 {
				if err := vector.SetNull(ex.Heap, out, gi); err != nil {
					return nil, err
				}
				continue
			}
			out.SetF64At(gi, acc[gi]/float64(n[gi]))
		}
		return out, nil
	}
	if isFloatTag(input.Tag()) {
		return ex.fillF64(acc, nil)
	}
	ints := make([]int64, ngroups)
	for i, v := range acc {
		ints[i] = int64(v)
	}
	return ex.fillI64(ints)
}

func (ex *Executor) aggregateMinMax(op graph.AggOp, input Value, groupOf []int, ngroups int) (*vector.Vector, error) {
	tag := input.Tag()
	best := make([]interface{}, ngroups)
	set := make([]bool, ngroups)
	for i, gi := range groupOf {
		x, isNull, _ := element(input, i)
		if isNull {
			continue
		}
		if !set[gi] {
			best[gi], set[gi] = x, true
			continue
		}
		var c int
		if isFloatTag(tag) {
			c = cmpF64(toF64(x), toF64(best[gi]))
		} else {
			c = cmpI64(toI64(x), toI64(best[gi]))
		}
		if (op == graph.AggMin && c < 0) || (op == graph.AggMax && c > 0) {
			best[gi] = x
		}
	}
	out, err := vector.NewVectorFilled(ex.Heap, tag, ngroups)
	if err != nil {
		return nil, err
	}
	for gi := 0; gi < ngroups; gi++ {
		if !set[gi] {
			if err := vector.SetNull(ex.Heap, out, gi); err != nil {
				return nil, err
			}
			continue
		}
		writeCast(out, tag, gi, best[gi])
	}
	return out, nil
}

func (ex *Executor) aggregateFirstLast(op graph.AggOp, input Value, groupOf []int, ngroups int) (*vector.Vector, error) {
	tag := input.Tag()
	idx := make([]int, ngroups)
	for i := range idx {
		idx[i] = -1
	}
	for i, gi := range groupOf {
		if op == graph.AggFirst {
			if idx[gi] == -1 {
				idx[gi] = i
			}
		} else {
			idx[gi] = i
		}
	}
	out, err := vector.NewVectorFilled(ex.Heap, tag, ngroups)
	if err != nil {
		return nil, err
	}
	for gi := 0; gi < ngroups; gi++ {
		if idx[gi] == -1 {
			if err := vector.SetNull(ex.Heap, out, gi); err != nil {
				return nil, err
			}
			continue
		}
		x, isNull, err := element(input, idx[gi])
		if err != nil {
			return nil, err
		}
		if isNull {
			if err := vector.SetNull(ex.Heap, out, gi); err != nil {
				return nil, err
			}
			continue
		}
		writeCast(out, tag, gi, x)
	}
	return out, nil
}

func (ex *Executor) fillI64(vals []int64) (*vector.Vector, error) {
	out, err := vector.NewVectorFilled(ex.Heap, block.TagI64, len(vals))
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		out.SetI64At(i, v)
	}
	return out, nil
}

func (ex *Executor) fillF64(vals []float64, nulls []bool) (*vector.Vector, error) {
	out, err := vector.NewVectorFilled(ex.Heap, block.TagF64, len(vals))
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		if nulls != nil && nulls[i] {
			if err := vector.SetNull(ex.Heap, out, i); err != nil {
				return nil, err
			}
			continue
		}
		out.SetF64At(i, v)
	}
	return out, nil
}

// rowKey formats v's entire row i (every column, for a table) as a dedup
// key, used by DISTINCT with no explicit keys (spec §4.9: dedup on the
// whole row).
func rowKey(v Value, i int) string {
	switch {
	case v.IsVec():
		x, isNull, _ := element(v, i)
		if isNull {
			return "\x00N"
		}
		return fmt.Sprint(x)
	case v.IsTbl():
		var b strings.Builder
		for c := 0; c < v.Tbl.NCols(); c++ {
			_, col := v.Tbl.ColAt(c)
			if vector.IsNull(col, i) {
				b.WriteString("\x00N;")
				continue
			}
			x, _ := col.Get(i)
			fmt.Fprintf(&b, "%v;", x)
		}
		return b.String()
	default:
		return ""
	}
}

// evalDistinct implements DISTINCT: dedups input's rows by keys (or, if
// keys is empty, by the whole row), keeping the first-seen row of each
// distinct value in original order (spec §4.9).
func (ex *Executor) evalDistinct(id graph.NodeID, n *graph.Node) (Value, error) {
	a, err := ex.eval(n.Inputs[0])
	if err != nil {
		return Value{}, err
	}
	defer Release(a)

	ext := ex.g.Ext(id)
	keyVals, err := evalAll(ex, ext.Children)
	if err != nil {
		return Value{}, err
	}
	defer releaseAll(keyVals)

	nrows := a.Len()
	seen := make(map[string]bool, nrows)
	var rows []int
	for i := 0; i < nrows; i++ {
		key := rowKey(a, i)
		if len(keyVals) > 0 {
			key = groupKey(keyVals, i)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		rows = append(rows, i)
	}

	if a.IsTbl() {
		return ex.sliceTableRows(a.Tbl, rows)
	}
	if !a.IsVec() {
		return Value{}, tderr.New(tderr.KindRank, "exec: distinct input must be a vector or table")
	}
	out, err := materializeRows(ex.Heap, a.Vec, rows)
	if err != nil {
		return Value{}, err
	}
	return VecValue(out), nil
}

func (ex *Executor) sliceTableRows(t *vector.Table, rows []int) (Value, error) {
	out := vector.NewTable()
	for c := 0; c < t.NCols(); c++ {
		name, col := t.ColAt(c)
		nc, err := materializeRows(ex.Heap, col, rows)
		if err != nil {
			_ = out.Release()
			return Value{}, err
		}
		if err := out.AddColID(name, nc); err != nil {
			_ = vector.Release(nc)
			_ = out.Release()
			return Value{}, err
		}
		_ = vector.Release(nc)
	}
	return TblValue(out), nil
}

// evalSort implements multi-key SORT with a stable ordering (spec §4.9,
// §4.8's stable-sort Open Question: ties keep their original relative
// order since sort.SliceStable never reorders equal elements).
func (ex *Executor) evalSort(id graph.NodeID, n *graph.Node) (Value, error) {
	a, err := ex.eval(n.Inputs[0])
	if err != nil {
		return Value{}, err
	}
	defer Release(a)

	ext := ex.g.Ext(id)
	keyVals, err := evalAll(ex, ext.Children)
	if err != nil {
		return Value{}, err
	}
	defer releaseAll(keyVals)

	nrows := a.Len()
	rows := make([]int, nrows)
	for i := range rows {
		rows[i] = i
	}
	sort.SliceStable(rows, func(x, y int) bool {
		ri, rj := rows[x], rows[y]
		for k, kv := range keyVals {
			c := compareKeyRows(kv, ri, rj, ext.NullsFirst[k])
			if c == 0 {
				continue
			}
			if ext.Desc[k] {
				return c > 0
			}
			return c < 0
		}
		return false
	})

	if a.IsTbl() {
		return ex.sliceTableRows(a.Tbl, rows)
	}
	if !a.IsVec() {
		return Value{}, tderr.New(tderr.KindRank, "exec: sort input must be a vector or table")
	}
	out, err := materializeRows(ex.Heap, a.Vec, rows)
	if err != nil {
		return Value{}, err
	}
	return VecValue(out), nil
}

func compareKeyRows(v Value, i, j int, nullsFirst bool) int {
	xi, iNull, _ := element(v, i)
	xj, jNull, _ := element(v, j)
	if iNull && jNull {
		return 0
	}
	if iNull {
		if nullsFirst {
			return -1
		}
		return 1
	}
	if jNull {
		if nullsFirst {
			return 1
		}
		return -1
	}
	if _, ok := xi.(float64); ok {
		return cmpF64(toF64(xi), toF64(xj))
	}
	if _, ok := xj.(float64); ok {
		return cmpF64(toF64(xi), toF64(xj))
	}
	return cmpI64(toI64(xi), toI64(xj))
}
