package block

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"encoding/binary"
	"math"

	"github.com/google/uuid"
)

// Atoms carry their value inline in Header.Union; they never have a
// Payload. Header.Type is negative: -kind.

// NewAtomBool builds a BOOL atom.
func NewAtomBool(h *Heap, v bool) (*Block, error) {
	b, err := Alloc(h, 0)
	if err != nil {
		return nil, err
	}
	b.Type = -TagBool
	if v {
		b.Union[0] = 1
	}
	return b, nil
}

// NewAtomI64 builds an I64 atom.
func NewAtomI64(h *Heap, v int64) (*Block, error) {
	b, err := Alloc(h, 0)
	if err != nil {
		return nil, err
	}
	b.Type = -TagI64
	binary.LittleEndian.PutUint64(b.Union[:8], uint64(v))
	return b, nil
}

// NewAtomI32 builds an I32 atom.
func NewAtomI32(h *Heap, v int32) (*Block, error) {
	b, err := Alloc(h, 0)
	if err != nil {
		return nil, err
	}
	b.Type = -TagI32
	binary.LittleEndian.PutUint32(b.Union[:4], uint32(v))
	return b, nil
}

// NewAtomF64 builds an F64 atom.
func NewAtomF64(h *Heap, v float64) (*Block, error) {
	b, err := Alloc(h, 0)
	if err != nil {
		return nil, err
	}
	b.Type = -TagF64
	binary.LittleEndian.PutUint64(b.Union[:8], math.Float64bits(v))
	return b, nil
}

// NewAtomSym builds a SYM atom from an already-interned id.
func NewAtomSym(h *Heap, id int64) (*Block, error) {
	b, err := Alloc(h, 0)
	if err != nil {
		return nil, err
	}
	b.Type = -TagSym
	binary.LittleEndian.PutUint64(b.Union[:8], uint64(id))
	return b, nil
}

// NewAtomGUID builds a GUID atom, storing the 16 raw bytes inline.
func NewAtomGUID(h *Heap, id uuid.UUID) (*Block, error) {
	b, err := Alloc(h, 0)
	if err != nil {
		return nil, err
	}
	b.Type = -TagGUID
	copy(b.Union[:16], id[:])
	return b, nil
}

// AtomBool reads an inline BOOL atom value.
func AtomBool(b *Block) bool { return b.Union[0] != 0 }

// AtomI64 reads an inline I64-class atom value.
func AtomI64(b *Block) int64 { return int64(binary.LittleEndian.Uint64(b.Union[:8])) }

// AtomI32 reads an inline I32-class atom value.
func AtomI32(b *Block) int32 { return int32(binary.LittleEndian.Uint32(b.Union[:4])) }

// AtomF64 reads an inline F64 atom value.
func AtomF64(b *Block) float64 { return math.Float64frombits(binary.LittleEndian.Uint64(b.Union[:8])) }

// AtomGUID reads an inline GUID atom value.
func AtomGUID(b *Block) uuid.UUID {
	var u uuid.UUID
	copy(u[:], b.Union[:16])
	return u
}

// AtomKind returns the scalar kind of an atom block (the |Type| per spec).
func AtomKind(b *Block) Tag {
	if b.Type < 0 {
		return -b.Type
	}
	return b.Type
}

// IsNullAtom reports whether an atom block represents SQL NULL for its
// kind. coldb represents atom NULL with the has_nulls attribute bit rather
// than a sentinel value, since every scalar kind's bit pattern space is
// otherwise fully used by real values (including NaN, which is a valid
// F64, not a null marker).
func IsNullAtom(b *Block) bool { return b.HasNulls() }

// SetNullAtom marks an atom block as NULL.
func SetNullAtom(b *Block) { b.Attrs |= AttrHasNulls }
