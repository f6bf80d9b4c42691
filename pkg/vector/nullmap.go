package vector

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"github.com/coldb/coldb/pkg/block"
	"github.com/coldb/coldb/pkg/tderr"
)

// IsNull reports whether element i is null, transparently resolving
// through slice views and through the inline/external nullmap transition
// (spec §3.1, §8's "len=128 vs len=129" boundary).
func IsNull(v *Vector, i int) bool {
	if i < 0 || i >= v.Len() {
		return false
	}
	if v.parted != nil {
		seg, off, err := v.parted.Locate(i)
		if err != nil {
			return false
		}
		return IsNull(v.parted.Segments[seg], off)
	}
	if v.partMap != nil {
		return false
	}
	root, off := v.resolveParentVector()
	idx := int(off) + i
	if !root.Blk.HasNulls() {
		return false
	}
	if root.Blk.ExternalNullmap() {
		return bitSet(root.nullBlk.Blk.Payload, idx)
	}
	return bitSetInline(root.Blk.Union[:], idx)
}

// SetNull marks element i null, promoting the vector's nullmap from
// inline to external storage once the vector's length exceeds
// block.InlineNullmapCap. Setting
// a null on a slice view is forbidden (spec §4.3): a slice has no
// independent storage to mark null into, and mutating through to the
// parent would corrupt sibling slices' views of the same data.
func SetNull(h *block.Heap, v *Vector, i int) error {
	if v.Blk.Parent != nil {
		return tderr.New(tderr.KindDomain, "vector: cannot set null on a slice view")
	}
	if i < 0 || i >= v.Len() {
		return tderr.New(tderr.KindRange, "vector: index %d out of range [0,%d)", i, v.Len())
	}
	if err := ensureNullCapacity(h, v); err != nil {
		return err
	}
	v.Blk.Attrs |= block.AttrHasNulls
	if v.Blk.ExternalNullmap() {
		setBit(v.nullBlk.Blk.Payload, i)
		return nil
	}
	setBitInline(v.Blk.Union[:], i)
	return nil
}

// ClearNull clears element i's null flag (used by kernels that overwrite a
// previously-null slot with a real value).
func ClearNull(v *Vector, i int) {
	if v.Blk.Parent != nil || !v.Blk.HasNulls() {
		return
	}
	if v.Blk.ExternalNullmap() {
		clearBit(v.nullBlk.Blk.Payload, i)
		return
	}
	clearBitInline(v.Blk.Union[:], i)
}

// ensureNullCapacity promotes the nullmap to external storage once len
// exceeds block.InlineNullmapCap (spec §3.1, §8).
func ensureNullCapacity(h *block.Heap, v *Vector) error {
	if v.Blk.ExternalNullmap() {
		if v.Len() <= v.nullBlk.Len()*8 {
			return nil
		}
		return growExternalNullmap(h, v)
	}
	if v.Len() <= block.InlineNullmapCap {
		return nil
	}
	return promoteToExternal(h, v)
}

func promoteToExternal(h *block.Heap, v *Vector) error {
	nb, err := NewVector(h, block.TagU8, bitBytes(v.Len()))
	if err != nil {
		return err
	}
	for i := 0; i < bitBytes(v.Len()); i++ {
		if err := nb.AppendU8(h, 0); err != nil {
			return err
		}
	}
	if v.Blk.HasNulls() {
		for i := 0; i < v.Len() && i < block.InlineNullmapCap; i++ {
			if bitSetInline(v.Blk.Union[:], i) {
				setBit(nb.Blk.Payload, i)
			}
		}
	}
	v.nullBlk = nb
	v.Blk.Attrs |= block.AttrExternalNullmap
	return nil
}

func growExternalNullmap(h *block.Heap, v *Vector) error {
	need := bitBytes(v.Len())
	for v.nullBlk.Len() < need {
		if err := v.nullBlk.AppendU8(h, 0); err != nil {
			return err
		}
	}
	return nil
}

// ExternalNullmap returns the vector's external null-bitmap bytes, or nil
// if its nulls (if any) are still inline. Used by pkg/storage to append
// the bitmap after the column payload on disk (spec §6.2).
func ExternalNullmap(v *Vector) []byte {
	if !v.Blk.ExternalNullmap() || v.nullBlk == nil {
		return nil
	}
	return v.nullBlk.Blk.Payload
}

// AttachExternalNullmap wires a freshly-read external bitmap vector onto v
// after storage loads it back from the trailing bytes of a column file.
// v must already have AttrHasNulls|AttrExternalNullmap set in its header
// (spec §6.2: the bitmap's presence is implied by those attribute bits,
// not re-framed on disk).
func AttachExternalNullmap(v *Vector, nullBlk *Vector) {
	v.nullBlk = nullBlk
}

func bitBytes(nbits int) int { return (nbits + 7) / 8 }

func bitSetInline(union []byte, i int) bool {
	return union[i/8]&(1<<uint(i%8)) != 0
}

func setBitInline(union []byte, i int) {
	union[i/8] |= 1 << uint(i%8)
}

func clearBitInline(union []byte, i int) {
	union[i/8] &^= 1 << uint(i%8)
}

func bitSet(buf []byte, i int) bool {
	byteIdx := i / 8
	if byteIdx >= len(buf) {
		return false
	}
	return buf[byteIdx]&(1<<uint(i%8)) != 0
}

func setBit(buf []byte, i int) {
	buf[i/8] |= 1 << uint(i%8)
}

func clearBit(buf []byte, i int) {
	buf[i/8] &^= 1 << uint(i%8)
}
