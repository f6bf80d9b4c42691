package vector

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"encoding/binary"
	"math"

	"github.com/coldb/coldb/pkg/block"
)

// NewVectorFilled allocates a vector already sized to n elements (Len=n,
// payload zeroed). It exists for producers that know their final row
// count up front and fill disjoint index ranges concurrently -- csvload's
// row-parallel parse stage -- where the growable Append* path's shared
// mutable length counter would race across goroutines.
func NewVectorFilled(h *block.Heap, tag block.Tag, n int) (*Vector, error) {
	v, err := NewVector(h, tag, n)
	if err != nil {
		return nil, err
	}
	v.Blk.Len = uint32(n)
	if n > block.InlineNullmapCap {
		if err := promoteToExternal(h, v); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// SetBoolAt writes a BOOL element at a fixed index, safe to call
// concurrently from goroutines touching disjoint indices.
func (v *Vector) SetBoolAt(i int, x bool) {
	var b byte
	if x {
		b = 1
	}
	v.Blk.Payload[i] = b
}

// SetI64At writes an I64-class element (I64, TIME, TIMESTAMP, SYM id) at a
// fixed index.
func (v *Vector) SetI64At(i int, x int64) {
	es := v.ElemSize()
	binary.LittleEndian.PutUint64(v.Blk.Payload[i*es:i*es+es], uint64(x))
}

// SetF64At writes an F64 element at a fixed index.
func (v *Vector) SetF64At(i int, x float64) {
	es := v.ElemSize()
	binary.LittleEndian.PutUint64(v.Blk.Payload[i*es:i*es+es], math.Float64bits(x))
}

// SetSymAt writes an already-interned SYM id at a fixed index.
func (v *Vector) SetSymAt(i int, id int64) { v.SetI64At(i, id) }

// SetNullAt marks index i null without touching Len, safe for concurrent
// callers provided the nullmap is external and each caller's index range
// is byte-aligned (8 rows) -- guaranteed for csvload by its task grain
// being a multiple of 8.
func (v *Vector) SetNullAt(i int) {
	v.Blk.Attrs |= block.AttrHasNulls
	if v.Blk.ExternalNullmap() {
		setBit(v.nullBlk.Blk.Payload, i)
		return
	}
	setBitInline(v.Blk.Union[:], i)
}
