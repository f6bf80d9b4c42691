package block

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

// NewMmapBlock wraps a memory-mapped region as a block with mmod=mmap
// (spec §6.2). header is the decoded 32-byte header (from the first
// HeaderSize bytes of mapped), payload is the subslice of mapped following
// the header, and unmap is called when the block's refcount reaches zero.
// The block's lifetime therefore owns the mapping: nothing else may unmap
// it while any reference survives.
func NewMmapBlock(header *Header, payload []byte, unmap func() error) *Block {
	b := &Block{
		Header:    *header,
		Payload:   payload,
		mmapUnmap: unmap,
	}
	b.rc = 1
	b.MMod = MemMmap
	return b
}
