// Package vector builds coldb's typed containers -- vectors, tables,
// lists, and parted (segmented) columns -- on top of pkg/block (spec §3.3,
// §3.4, §4.3, §4.4).
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

// Vector is a typed, growable, reference-counted, copy-on-write column.
// Element access on a slice view redirects to the ultimate parent with an
// offset added (spec §4.3); slicing a slice resolves through to that
// parent so indirection never exceeds one hop.
type Vector struct {
	Blk *block.Block

	// nullBlk is the external null-bitmap vector once len exceeds
	// block.InlineNullmapCap (spec §3.1). Below that threshold nulls live
	// inline in Blk.Union. coldb keeps this as a typed Go field rather
	// than a raw pointer packed into Union (see DESIGN.md pkg/vector):
	// Union's "pointer to external nullmap block" only has meaning for a
	// C-level in-process representation; a managed-language block still
	// needs a normal reference here, and the on-disk format (§6.2)
	// physically appends the bitmap after the payload regardless.
	nullBlk *Vector

	// parted and partMap back the two virtual column kinds (spec §3.1's
	// tag ranges [32,48) and 48): a Vector wrapping one of these has
	// Blk == nil and delegates Tag/Len/Get/Retain/Release to it, so
	// Table's column slice can stay homogeneously []*Vector (spec §4.4)
	// even though these columns have no single backing Block.
	parted  *Parted
	partMap *PartitionKeyMap
}

// NewPartedVector wraps p as a Table column (spec §3.4).
func NewPartedVector(p *Parted) *Vector { return &Vector{parted: p} }

// NewPartitionMapVector wraps m as a Table's distinguished partition-key
// column (spec §3.4).
func NewPartitionMapVector(m *PartitionKeyMap) *Vector { return &Vector{partMap: m} }

// AsParted returns the vector's underlying Parted, if it wraps one.
func (v *Vector) AsParted() (*Parted, bool) { return v.parted, v.parted != nil }

// AsPartitionMap returns the vector's underlying PartitionKeyMap, if it
// wraps one.
func (v *Vector) AsPartitionMap() (*PartitionKeyMap, bool) { return v.partMap, v.partMap != nil }

// NewVector allocates a vector of base type tag with the given initial
// capacity (in elements) and len=0 (spec §4.3). A Parted tag unwraps to
// its base type: materializing always produces a plain contiguous
// vector, never a parted one (NewParted wraps existing plain vectors,
// it is never a freshly-allocated block's own type). TagPartitionMap
// unwraps to TagI64, since PartitionKeyMap.Get resolves every row to an
// int64 partition key: materializing the virtual partition column
// yields a plain I64 column of those keys.
func NewVector(h *block.Heap, tag block.Tag, capacity int) (*Vector, error) {
	tag = BaseTag(tag)
	elemSize := elemSizeFor(tag, 8)
	blk, err := block.Alloc(h, elemSize*capacity)
	if err != nil {
		return nil, err
	}
	blk.Type = tag
	blk.Len = 0
	if tag == block.TagSym {
		blk.SetSymWidth(8)
	}
	return &Vector{Blk: blk}, nil
}

// BaseTag resolves a column's logical Tag() to the plain concrete type a
// freshly-allocated contiguous vector should carry, unwrapping both the
// Parted range and the partition-key map tag. pkg/exec uses this to
// compare a possibly-Parted operand's logical tag against a concrete
// expected type (e.g. checking a predicate is BOOL) without rejecting a
// legitimately-typed Parted column, and to decide what a materialized
// (flattened) copy of a column should be tagged.
func BaseTag(tag block.Tag) block.Tag {
	if base, ok := block.IsParted(tag); ok {
		return base
	}
	if tag == block.TagPartitionMap {
		return block.TagI64
	}
	return tag
}

func elemSizeFor(tag block.Tag, symWidth int) int {
	tag = BaseTag(tag)
	if tag == block.TagSym {
		return symWidth
	}
	return block.ElemSize(tag)
}

// ElemSize returns this vector's per-element width, resolving the SYM
// narrow-width attribute.
func (v *Vector) ElemSize() int {
	root, _ := v.resolveParentVector()
	return elemSizeFor(root.Blk.Type, root.Blk.SymWidth())
}

// Tag returns the vector's base element type.
func (v *Vector) Tag() block.Tag {
	switch {
	case v.parted != nil:
		return v.parted.Tag()
	case v.partMap != nil:
		return block.TagPartitionMap
	default:
		return v.Blk.Type
	}
}

// Len returns the number of elements.
func (v *Vector) Len() int {
	switch {
	case v.parted != nil:
		return v.parted.NRows()
	case v.partMap != nil:
		n, _ := v.partMap.NRows()
		return int(n)
	default:
		return int(v.Blk.Len)
	}
}

// capElems returns how many elements fit in the block's current payload.
func (v *Vector) capElems() int {
	if v.ElemSize() == 0 {
		return 0
	}
	return len(v.Blk.Payload) / v.ElemSize()
}

// Retain increments the vector's (and, if it's a slice, its parent's)
// reference count.
func Retain(v *Vector) {
	if v == nil {
		return
	}
	switch {
	case v.parted != nil:
		retainParted(v.parted)
	case v.partMap != nil:
		retainPartitionMap(v.partMap)
	default:
		block.Retain(v.Blk)
	}
}

// Release releases a vector, its external null bitmap (if any), and (for
// slice views) its retained parent.
func Release(v *Vector) error {
	if v == nil {
		return nil
	}
	switch {
	case v.parted != nil:
		return releaseParted(v.parted)
	case v.partMap != nil:
		return releasePartitionMap(v.partMap)
	}
	if v.nullBlk != nil {
		if err := Release(v.nullBlk); err != nil {
			return err
		}
		v.nullBlk = nil
	}
	return block.Release(v.Blk)
}

// resolveParentVector follows a slice view to its ultimate parent vector,
// returning that parent and the cumulative element offset.
func (v *Vector) resolveParentVector() (*Vector, int64) {
	if v.Blk.Parent == nil {
		return v, 0
	}
	// Parent is always a root (non-slice) vector block by construction
	// (Slice resolves through to the ultimate parent at creation time).
	parent := &Vector{Blk: v.Blk.Parent}
	return parent, v.Blk.SliceOffset
}

// elemBytes returns the raw bytes for element i, redirecting through a
// slice view's parent.
func (v *Vector) elemBytes(i int) ([]byte, error) {
	if i < 0 || i >= v.Len() {
		return nil, tderr.New(tderr.KindRange, "vector: index %d out of range [0,%d)", i, v.Len())
	}
	root, off := v.resolveParentVector()
	es := root.ElemSize()
	start := (int64(i) + off) * int64(es)
	return root.Blk.Payload[start : start+int64(es)], nil
}

// Slice returns a fresh header-only block referencing this vector's
// backing storage from [start,start+n) (spec §4.3). Slicing a slice
// resolves to the ultimate parent so indirection never exceeds one hop.
func (v *Vector) Slice(start, n int) (*Vector, error) {
	if start < 0 || n < 0 || start+n > v.Len() {
		return nil, tderr.New(tderr.KindRange, "vector: slice [%d,%d) out of range for len %d", start, start+n, v.Len())
	}
	root, off := v.resolveParentVector()
	sb := block.NewSliceBlock(root.Blk, root.Blk.Type, root.Blk.Attrs, off+int64(start), int64(n))
	return &Vector{Blk: sb}, nil
}

// Concat produces a fresh contiguous vector holding the elements of all
// inputs in order (spec §4.3).
func Concat(h *block.Heap, vs ...*Vector) (*Vector, error) {
	if len(vs) == 0 {
		return nil, tderr.New(tderr.KindRank, "vector: concat requires at least one input")
	}
	tag := vs[0].Tag()
	total := 0
	for _, v := range vs {
		if v.Tag() != tag {
			return nil, tderr.New(tderr.KindType, "vector: concat type mismatch %v vs %v", v.Tag(), tag)
		}
		total += v.Len()
	}
	out, err := NewVector(h, tag, total)
	if err != nil {
		return nil, err
	}
	pos := 0
	for _, v := range vs {
		for i := 0; i < v.Len(); i++ {
			eb, err := v.elemBytes(i)
			if err != nil {
				return nil, err
			}
			if err := out.appendRawAt(h, pos, eb); err != nil {
				return nil, err
			}
			out.Blk.Len = uint32(pos + 1)
			if IsNull(v, i) {
				if err := SetNull(h, out, pos); err != nil {
					return nil, err
				}
			}
			pos++
		}
	}
	out.Blk.Len = uint32(total)
	return out, nil
}

// Get returns element i as an untyped Go value, dispatching on the
// vector's base type (spec §9's "dynamic dispatch over element type": the
// outer operator switches once here rather than every kernel re-switching).
func (v *Vector) Get(i int) (interface{}, error) {
	if v.parted != nil {
		return v.parted.Get(i)
	}
	if v.partMap != nil {
		return v.partMap.KeyForRow(int64(i))
	}
	eb, err := v.elemBytes(i)
	if err != nil {
		return nil, err
	}
	switch v.Tag() {
	case block.TagBool:
		return eb[0] != 0, nil
	case block.TagU8, block.TagChar:
		return eb[0], nil
	case block.TagI16:
		return int16(binary.LittleEndian.Uint16(eb)), nil
	case block.TagI32, block.TagDate, block.TagEnum:
		return int32(binary.LittleEndian.Uint32(eb)), nil
	case block.TagI64, block.TagTime, block.TagTimestamp, block.TagSym:
		return int64(binary.LittleEndian.Uint64(eb)), nil
	case block.TagF64:
		return math.Float64frombits(binary.LittleEndian.Uint64(eb)), nil
	default:
		return nil, tderr.New(tderr.KindNotImplemented, "vector: Get unsupported for tag %d", v.Tag())
	}
}
