package exec

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"github.com/coldb/coldb/pkg/block"
	"github.com/coldb/coldb/pkg/vector"
)

// Value is the executor's uniform result type: exactly one field is set,
// mirroring the "atom, vector, or table" result a node evaluates to (spec
// §4.9).
type Value struct {
	Atom *block.Block
	Vec  *vector.Vector
	Tbl  *vector.Table
}

func AtomValue(b *block.Block) Value  { return Value{Atom: b} }
func VecValue(v *vector.Vector) Value { return Value{Vec: v} }
func TblValue(t *vector.Table) Value  { return Value{Tbl: t} }

func (v Value) IsAtom() bool { return v.Atom != nil }
func (v Value) IsVec() bool  { return v.Vec != nil }
func (v Value) IsTbl() bool  { return v.Tbl != nil }

// Tag returns the value's runtime block.Tag: an atom's scalar kind, a
// vector's base type, or block.TagTable.
func (v Value) Tag() block.Tag {
	switch {
	case v.Atom != nil:
		return block.AtomKind(v.Atom)
	case v.Vec != nil:
		return v.Vec.Tag()
	default:
		return block.TagTable
	}
}

// Len returns the value's row count (1 for an atom).
func (v Value) Len() int {
	switch {
	case v.Vec != nil:
		return v.Vec.Len()
	case v.Tbl != nil:
		return v.Tbl.NRows()
	default:
		return 1
	}
}

// Retain increments the reference count of whichever field is set.
func Retain(v Value) Value {
	switch {
	case v.Atom != nil:
		block.Retain(v.Atom)
	case v.Vec != nil:
		vector.Retain(v.Vec)
	}
	return v
}

// Release releases whichever field is set. Tables have no refcount of
// their own (spec §3.3); releasing one releases its columns.
func Release(v Value) error {
	switch {
	case v.Atom != nil:
		return block.Release(v.Atom)
	case v.Vec != nil:
		return vector.Release(v.Vec)
	case v.Tbl != nil:
		return v.Tbl.Release()
	}
	return nil
}

// element returns the value at row i as an untyped Go value plus whether
// it's null, broadcasting atoms (row index ignored) the way a scalar
// operand broadcasts across a vector operation.
func element(v Value, i int) (interface{}, bool, error) {
	switch {
	case v.Atom != nil:
		return atomGo(v.Atom), block.IsNullAtom(v.Atom), nil
	case v.Vec != nil:
		x, err := v.Vec.Get(i)
		if err != nil {
			return nil, false, err
		}
		return x, vector.IsNull(v.Vec, i), nil
	default:
		return nil, false, nil
	}
}

func atomGo(b *block.Block) interface{} {
	switch block.AtomKind(b) {
	case block.TagBool:
		return block.AtomBool(b)
	case block.TagF64:
		return block.AtomF64(b)
	case block.TagI32, block.TagDate, block.TagEnum:
		return block.AtomI32(b)
	default: // I64-class: I64, TIME, TIMESTAMP, SYM
		return block.AtomI64(b)
	}
}
