// Package storage persists coldb vectors and tables to disk in the
// single-column format and partitioned table layout of spec §6.2/§6.3,
// grounded on the teacher's pkg/vdecompiler disk-image reader: fixed
// header parsing via encoding/binary, and io.ReaderAt-style segment
// access, here replaced with direct mmap since coldb's column files are
// meant to be mapped rather than streamed.
package storage

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/coldb/coldb/pkg/block"
	"github.com/coldb/coldb/pkg/tderr"
	"github.com/coldb/coldb/pkg/vector"
)

// payloadBytes returns the number of payload bytes a column holds given
// its header's declared length and element width, resolving SYM's
// per-vector narrow width (spec §6.2).
func payloadBytes(h *block.Header) int {
	width := block.ElemSize(h.Type)
	if h.Type == block.TagSym {
		width = h.SymWidth()
	}
	return int(h.Len) * width
}

func bitBytes(n int) int { return (n + 7) / 8 }

// WriteColumn writes v to path as a 32-byte header, the element payload,
// and (if v carries an external null bitmap) the bitmap bytes appended
// after the payload (spec §6.2). Only the declared length's worth of
// payload is written, not the allocator's padded order-rounded buffer.
func WriteColumn(v *vector.Vector, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return tderr.Wrap(tderr.KindIO, err, "storage: create %s", path)
	}
	defer f.Close()

	var hdr [block.HeaderSize]byte
	block.EncodeHeader(&v.Blk.Header, hdr[:])
	if _, err := f.Write(hdr[:]); err != nil {
		return tderr.Wrap(tderr.KindIO, err, "storage: write header %s", path)
	}

	n := payloadBytes(&v.Blk.Header)
	if n > len(v.Blk.Payload) {
		n = len(v.Blk.Payload)
	}
	if _, err := f.Write(v.Blk.Payload[:n]); err != nil {
		return tderr.Wrap(tderr.KindIO, err, "storage: write payload %s", path)
	}

	if nb := vector.ExternalNullmap(v); nb != nil {
		want := bitBytes(v.Len())
		if want > len(nb) {
			want = len(nb)
		}
		if _, err := f.Write(nb[:want]); err != nil {
			return tderr.Wrap(tderr.KindIO, err, "storage: write nullmap %s", path)
		}
	}
	return nil
}

// OpenColumn mmaps path read-only and wraps the mapping as a Vector with
// mmod=mmap (spec §6.2). The mapping is released -- and unmapped -- when
// the returned vector's last reference is released. h is accepted for
// interface symmetry with the heap-backed constructors in pkg/vector, but
// reading a column performs no allocation against it.
func OpenColumn(h *block.Heap, path string) (*vector.Vector, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, tderr.Wrap(tderr.KindIO, err, "storage: open %s", path)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, tderr.Wrap(tderr.KindIO, err, "storage: stat %s", path)
	}
	size := int(st.Size())
	if size < block.HeaderSize {
		return nil, tderr.New(tderr.KindCorrupt, "storage: %s shorter than header", path)
	}
	if size == 0 {
		return nil, tderr.New(tderr.KindCorrupt, "storage: %s is empty", path)
	}

	mapped, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, tderr.Wrap(tderr.KindIO, err, "storage: mmap %s", path)
	}

	hdr, err := block.DecodeHeader(mapped[:block.HeaderSize])
	if err != nil {
		_ = unix.Munmap(mapped)
		return nil, err
	}

	n := payloadBytes(hdr)
	if block.HeaderSize+n > len(mapped) {
		_ = unix.Munmap(mapped)
		return nil, tderr.New(tderr.KindCorrupt, "storage: %s payload exceeds file size", path)
	}

	unmapped := false
	unmap := func() error {
		if unmapped {
			return nil
		}
		unmapped = true
		return unix.Munmap(mapped)
	}

	payload := mapped[block.HeaderSize : block.HeaderSize+n]
	colBlk := block.NewMmapBlock(hdr, payload, unmap)
	v := &vector.Vector{Blk: colBlk}

	if hdr.ExternalNullmap() {
		nmStart := block.HeaderSize + n
		nmLen := bitBytes(int(hdr.Len))
		if nmStart+nmLen > len(mapped) {
			_ = unmap()
			return nil, tderr.New(tderr.KindCorrupt, "storage: %s truncated null bitmap", path)
		}
		nmHdr := &block.Header{Type: block.TagU8, Len: uint32(nmLen)}
		nmBlk := block.NewMmapBlock(nmHdr, mapped[nmStart:nmStart+nmLen], nil)
		vector.AttachExternalNullmap(v, &vector.Vector{Blk: nmBlk})
	}
	return v, nil
}
