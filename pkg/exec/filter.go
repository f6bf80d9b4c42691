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

// evalFilter implements FILTER: a is a vector or table, p a parallel BOOL
// predicate vector. A null predicate excludes the row (spec §4.9).
func (ex *Executor) evalFilter(a, p Value) (Value, error) {
	if !p.IsVec() || vector.BaseTag(p.Vec.Tag()) != block.TagBool {
		return Value{}, tderr.New(tderr.KindType, "exec: filter predicate must be a BOOL vector")
	}
	if a.IsTbl() {
		return ex.filterTable(a.Tbl, p.Vec)
	}
	if !a.IsVec() {
		return Value{}, tderr.New(tderr.KindRank, "exec: filter input must be a vector or table")
	}
	if a.Vec.Len() != p.Vec.Len() {
		return Value{}, tderr.New(tderr.KindLengthMismatch, "exec: filter: input has %d rows, predicate has %d", a.Vec.Len(), p.Vec.Len())
	}
	// Parted input and predicate with matching partitioning: each segment
	// is filtered independently and segment lengths updated (spec §4.9),
	// rather than flattening into one contiguous result.
	if pa, ok := a.Vec.AsParted(); ok {
		if pp, ok := p.Vec.AsParted(); ok && samePartitioning(pa, pp) {
			return ex.filterParted(pa, pp)
		}
	}
	keep := selectedRows(p.Vec)
	out, err := materializeRows(ex.Heap, a.Vec, keep)
	if err != nil {
		return Value{}, err
	}
	return VecValue(out), nil
}

// filterParted filters each of pa's segments against the matching segment
// of pp independently, producing a fresh Parted with updated (generally
// shorter) per-segment lengths (spec §4.9).
func (ex *Executor) filterParted(pa, pp *vector.Parted) (Value, error) {
	segs := make([]*vector.Vector, 0, len(pa.Segments))
	for i := range pa.Segments {
		keep := selectedRows(pp.Segments[i])
		nc, err := materializeRows(ex.Heap, pa.Segments[i], keep)
		if err != nil {
			for _, done := range segs {
				_ = vector.Release(done)
			}
			return Value{}, err
		}
		segs = append(segs, nc)
	}
	return buildParted(pa.Base, segs)
}

func (ex *Executor) filterTable(t *vector.Table, p *vector.Vector) (Value, error) {
	if t.NRows() != p.Len() {
		return Value{}, tderr.New(tderr.KindLengthMismatch, "exec: filter: table has %d rows, predicate has %d", t.NRows(), p.Len())
	}
	pp, pIsParted := p.AsParted()
	keep := selectedRows(p)
	out := vector.NewTable()
	for c := 0; c < t.NCols(); c++ {
		name, col := t.ColAt(c)
		var nc *vector.Vector
		var err error
		if pc, ok := col.AsParted(); pIsParted && ok && samePartitioning(pc, pp) {
			var fv Value
			fv, err = ex.filterParted(pc, pp)
			nc = fv.Vec
		} else {
			nc, err = materializeRows(ex.Heap, col, keep)
		}
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

// selectedRows returns the 0-based row indices where p is true (spec §4.9:
// a null predicate value excludes the row, same as false).
func selectedRows(p *vector.Vector) []int {
	var rows []int
	for i := 0; i < p.Len(); i++ {
		if vector.IsNull(p, i) {
			continue
		}
		v, err := p.Get(i)
		if err != nil {
			continue
		}
		if b, ok := v.(bool); ok && b {
			rows = append(rows, i)
		}
	}
	return rows
}

// materializeRows builds a fresh contiguous vector holding src's elements
// at the given row indices, in order.
func materializeRows(h *block.Heap, src *vector.Vector, rows []int) (*vector.Vector, error) {
	out, err := vector.NewVectorFilled(h, src.Tag(), len(rows))
	if err != nil {
		return nil, err
	}
	for dst, row := range rows {
		if vector.IsNull(src, row) {
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
