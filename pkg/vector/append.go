package vector

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"encoding/binary"
	"math"

	"github.com/coldb/coldb/pkg/block"
	"github.com/coldb/coldb/pkg/tderr"
)

// growthThreshold returns the element count at which Append must grow the
// backing block: when len reaches (2^order - HeaderSize) / elemSize (spec
// §4.3).
func (v *Vector) growthThreshold() int {
	es := v.ElemSize()
	if es == 0 {
		return 0
	}
	size := int64(1) << v.Blk.Order
	return int(size-block.HeaderSize) / es
}

// ensureCapacity COWs v (if shared) and, if len is about to hit the
// growth threshold, doubles the backing block's order, preserving
// contents. It returns the (possibly new) block to use going forward.
func (v *Vector) ensureCapacity(h *block.Heap, extra int) error {
	if v.Blk.Parent != nil {
		return tderr.New(tderr.KindDomain, "vector: cannot append to a slice view")
	}

	cowed, err := block.COW(h, v.Blk)
	if err != nil {
		return err
	}
	v.Blk = cowed

	for v.Len()+extra > v.growthThreshold() {
		grown, err := block.Alloc(h, len(v.Blk.Payload)*2+v.ElemSize())
		if err != nil {
			return err
		}
		grown.Type = v.Blk.Type
		grown.Attrs = v.Blk.Attrs
		grown.Len = v.Blk.Len
		grown.Union = v.Blk.Union
		copy(grown.Payload, v.Blk.Payload)
		if err := block.Release(v.Blk); err != nil {
			return err
		}
		v.Blk = grown
	}
	return nil
}

func (v *Vector) appendRawAt(h *block.Heap, pos int, eb []byte) error {
	es := v.ElemSize()
	start := pos * es
	if start+es > len(v.Blk.Payload) {
		return tderr.New(tderr.KindRange, "vector: appendRawAt out of preallocated range")
	}
	copy(v.Blk.Payload[start:start+es], eb)
	return nil
}

// AppendRaw appends one element's raw little-endian bytes, growing and
// COW'ing the backing block as needed.
func (v *Vector) AppendRaw(h *block.Heap, eb []byte) error {
	if err := v.ensureCapacity(h, 1); err != nil {
		return err
	}
	pos := v.Len()
	if err := v.appendRawAt(h, pos, eb); err != nil {
		return err
	}
	v.Blk.Len++
	return nil
}

// AppendBool appends a BOOL element.
func (v *Vector) AppendBool(h *block.Heap, x bool) error {
	var b byte
	if x {
		b = 1
	}
	return v.AppendRaw(h, []byte{b})
}

// AppendI64 appends an I64-class element (I64, TIME, TIMESTAMP, SYM id).
func (v *Vector) AppendI64(h *block.Heap, x int64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(x))
	return v.AppendRaw(h, buf[:])
}

// AppendI32 appends an I32-class element (I32, DATE, ENUM).
func (v *Vector) AppendI32(h *block.Heap, x int32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(x))
	return v.AppendRaw(h, buf[:])
}

// AppendI16 appends an I16 element.
func (v *Vector) AppendI16(h *block.Heap, x int16) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], uint16(x))
	return v.AppendRaw(h, buf[:])
}

// AppendU8 appends a U8 or CHAR element.
func (v *Vector) AppendU8(h *block.Heap, x byte) error {
	return v.AppendRaw(h, []byte{x})
}

// AppendF64 appends an F64 element.
func (v *Vector) AppendF64(h *block.Heap, x float64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(x))
	return v.AppendRaw(h, buf[:])
}

// AppendSym appends an already-interned SYM id.
func (v *Vector) AppendSym(h *block.Heap, id int64) error {
	return v.AppendI64(h, id)
}

// AppendGUID appends a 16-byte GUID element.
func (v *Vector) AppendGUID(h *block.Heap, raw [16]byte) error {
	return v.AppendRaw(h, raw[:])
}

// AppendNull appends a zero-valued element and marks it null.
func (v *Vector) AppendNull(h *block.Heap) error {
	es := v.ElemSize()
	if err := v.AppendRaw(h, make([]byte, es)); err != nil {
		return err
	}
	return SetNull(h, v, v.Len()-1)
}
