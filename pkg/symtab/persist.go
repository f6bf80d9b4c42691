package symtab

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/coldb/coldb/pkg/tderr"
)

// fileMagic identifies a symbol-directory file (spec §6.3's "sym" file).
const fileMagic = uint32(0x53594d31) // "SYM1"

// Save persists the directory, in insertion order, to path. Records are
// framed as a little-endian uint32 length prefix followed by the raw
// bytes, the same length-prefixed-record idiom the teacher uses for its
// ext4 directory entries.
func (t *Table) Save(path string) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	f, err := os.Create(path)
	if err != nil {
		return tderr.Wrap(tderr.KindIO, err, "symtab: create %s", path)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	var hdr [8]byte
	binary.LittleEndian.PutUint32(hdr[0:4], fileMagic)
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(len(t.dir)))
	if _, err := w.Write(hdr[:]); err != nil {
		return tderr.Wrap(tderr.KindIO, err, "symtab: write header")
	}

	var lenBuf [4]byte
	for _, s := range t.dir {
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(s)))
		if _, err := w.Write(lenBuf[:]); err != nil {
			return tderr.Wrap(tderr.KindIO, err, "symtab: write record length")
		}
		if _, err := w.Write(s); err != nil {
			return tderr.Wrap(tderr.KindIO, err, "symtab: write record")
		}
	}
	if err := w.Flush(); err != nil {
		return tderr.Wrap(tderr.KindIO, err, "symtab: flush")
	}
	return nil
}

// Load restores a directory from path into a new Table, rehydrating ids so
// they match the ids assigned when the file was saved (spec §4.2, §8
// round-trip law). LoadInto does the same for an existing Table.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, tderr.Wrap(tderr.KindIO, err, "symtab: open %s", path)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, tderr.Wrap(tderr.KindSchema, err, "symtab: read header")
	}
	magic := binary.LittleEndian.Uint32(hdr[0:4])
	if magic != fileMagic {
		return nil, tderr.New(tderr.KindSchema, "symtab: bad magic %x", magic)
	}
	count := binary.LittleEndian.Uint32(hdr[4:8])

	t := New()
	t.dir = make([][]byte, 0, count)

	var lenBuf [4]byte
	for i := uint32(0); i < count; i++ {
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			return nil, tderr.Wrap(tderr.KindSchema, err, "symtab: read record length %d", i)
		}
		n := binary.LittleEndian.Uint32(lenBuf[:])
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, tderr.Wrap(tderr.KindSchema, err, "symtab: read record %d", i)
		}
		id := int64(len(t.dir))
		t.dir = append(t.dir, buf)
		sh := t.shardFor(buf)
		sh.m[string(buf)] = id
	}

	return t, nil
}

// LoadInto restores a directory from path into an existing table,
// replacing its contents. Used on startup to rehydrate a long-lived
// process-wide interner before any caller has interned anything.
func (t *Table) LoadInto(path string) error {
	loaded, err := Load(path)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dir = loaded.dir
	for i := range t.shards {
		t.shards[i] = loaded.shards[i]
	}
	return nil
}
