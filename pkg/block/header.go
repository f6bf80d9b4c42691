package block

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/coldb/coldb/pkg/tderr"
)

// HeaderSize is the fixed on-disk and in-memory header size (spec §3.1).
const HeaderSize = 32

// Header is the 32-byte block header, bit-exact with the on-disk layout of
// spec §6.2 so that a header read via mmap can be interpreted without
// translation on a little-endian host. Layout mirrors the teacher's fixed
// on-disk structs (ext4.Inode, ext4 super block) encoded with
// encoding/binary rather than unsafe pointer casts.
//
//	offset 0  rc      int32  (atomic refcount)
//	offset 4  type    int8
//	offset 5  attrs   uint8
//	offset 6  mmod    uint8  (low 2 bits) | order uint8 (high 6 bits)
//	offset 7  reserved
//	offset 8  len     uint32
//	offset 12 pad     [4]byte
//	offset 16 union   [16]byte
type Header struct {
	rc     int32
	Type   Tag
	Attrs  uint8
	MMod   MemMode
	Order  uint8
	Len    uint32
	Union  [16]byte
}

// RC returns the current reference count using an atomic load.
func (h *Header) RC() int32 {
	return atomic.LoadInt32(&h.rc)
}

// EncodeHeader writes h's 32-byte on-disk representation to dst, which
// must have len(dst) >= HeaderSize.
func EncodeHeader(h *Header, dst []byte) {
	_ = dst[:HeaderSize]
	binary.LittleEndian.PutUint32(dst[0:4], uint32(atomic.LoadInt32(&h.rc)))
	dst[4] = byte(h.Type)
	dst[5] = h.Attrs
	dst[6] = byte(h.MMod) | (h.Order << 2)
	dst[7] = 0
	binary.LittleEndian.PutUint32(dst[8:12], h.Len)
	copy(dst[12:16], make([]byte, 4))
	copy(dst[16:32], h.Union[:])
}

// DecodeHeader parses a 32-byte on-disk header from src.
func DecodeHeader(src []byte) (*Header, error) {
	if len(src) < HeaderSize {
		return nil, tderr.New(tderr.KindCorrupt, "header: need %d bytes, got %d", HeaderSize, len(src))
	}
	h := &Header{
		rc:    int32(binary.LittleEndian.Uint32(src[0:4])),
		Type:  Tag(int8(src[4])),
		Attrs: src[5],
		MMod:  MemMode(src[6] & 0x3),
		Order: src[6] >> 2,
		Len:   binary.LittleEndian.Uint32(src[8:12]),
	}
	copy(h.Union[:], src[16:32])
	return h, nil
}

// SymWidth returns the per-vector element width for a SYM vector, selected
// by the 2-bit narrow-symbol-width attribute field.
func (h *Header) SymWidth() int {
	idx := (h.Attrs & AttrSymWidthMask) >> AttrSymWidthShift
	return symWidths[idx]
}

// SetSymWidth encodes width (1, 2, 4 or 8) into the narrow-symbol-width bits.
func (h *Header) SetSymWidth(width int) {
	var idx uint8
	switch width {
	case 1:
		idx = 0
	case 2:
		idx = 1
	case 4:
		idx = 2
	default:
		idx = 3
	}
	h.Attrs = (h.Attrs &^ AttrSymWidthMask) | (idx << AttrSymWidthShift)
}

// HasNulls reports the has_nulls attribute bit.
func (h *Header) HasNulls() bool { return h.Attrs&AttrHasNulls != 0 }

// IsSliceView reports the slice attribute bit.
func (h *Header) IsSliceView() bool { return h.Attrs&AttrSlice != 0 }

// ExternalNullmap reports whether the null bitmap lives in an external
// block rather than inline in Union (spec §3.1: vectors > 128 rows).
func (h *Header) ExternalNullmap() bool { return h.Attrs&AttrExternalNullmap != 0 }

// InlineNullmapCap is the row count above which a vector's null bitmap is
// promoted from inline (within the 16-byte Union) to an external bitmap
// block (spec §3.1, §8 boundary behavior).
const InlineNullmapCap = 128
