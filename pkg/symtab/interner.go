// Package symtab implements coldb's process-wide symbol interner: a
// bidirectional string<->id mapping used for column names and low-
// cardinality categorical (SYM) values (spec §4.2).
package symtab

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"hash/fnv"
	"sync"

	"github.com/coldb/coldb/pkg/tderr"
)

// NotFound is returned by Find when a string has never been interned.
const NotFound int64 = -1

const shardCount = 64

type shard struct {
	mu   sync.RWMutex
	m    map[string]int64
}

// Table is a process-wide (or test-scoped) symbol table: a sharded
// open-addressed-by-Go-map hash index from string to id, and an
// append-only directory from id to string. Interning is idempotent and ids
// are monotonically assigned and stable for the Table's lifetime (spec
// §4.2 invariants).
//
// Grounded on the teacher's append-only on-disk directory idiom in
// pkg/ext4/super.go (fixed records appended in order, read back
// positionally on load).
type Table struct {
	shards [shardCount]*shard

	mu  sync.RWMutex
	dir [][]byte // id -> bytes, append-only
}

// New creates an empty interner.
func New() *Table {
	t := &Table{}
	for i := range t.shards {
		t.shards[i] = &shard{m: make(map[string]int64)}
	}
	return t
}

func fnv1a(s []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(s)
	return h.Sum64()
}

func (t *Table) shardFor(s []byte) *shard {
	return t.shards[fnv1a(s)%shardCount]
}

// Intern returns the dense id for s, assigning a fresh one if s has never
// been seen. Concurrent interners of the same string return the same id
// (spec §4.2: "intern(s) == intern(s)").
func (t *Table) Intern(s []byte) int64 {
	sh := t.shardFor(s)

	sh.mu.RLock()
	if id, ok := sh.m[string(s)]; ok {
		sh.mu.RUnlock()
		return id
	}
	sh.mu.RUnlock()

	sh.mu.Lock()
	defer sh.mu.Unlock()
	if id, ok := sh.m[string(s)]; ok {
		return id
	}

	t.mu.Lock()
	id := int64(len(t.dir))
	cp := append([]byte(nil), s...)
	t.dir = append(t.dir, cp)
	t.mu.Unlock()

	sh.m[string(cp)] = id
	return id
}

// InternString is a convenience wrapper over Intern for Go strings.
func (t *Table) InternString(s string) int64 {
	return t.Intern([]byte(s))
}

// Find returns the id for s without assigning one, or NotFound.
func (t *Table) Find(s []byte) int64 {
	sh := t.shardFor(s)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	if id, ok := sh.m[string(s)]; ok {
		return id
	}
	return NotFound
}

// Str returns the interned bytes for id. The returned slice is shared and
// must not be mutated by the caller.
func (t *Table) Str(id int64) ([]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if id < 0 || int(id) >= len(t.dir) {
		return nil, tderr.New(tderr.KindRange, "symtab: id %d out of range [0,%d)", id, len(t.dir))
	}
	return t.dir[id], nil
}

// MustStr is Str without the error return, for call sites that already
// know id is valid (e.g. iterating a vector's own SYM ids).
func (t *Table) MustStr(id int64) string {
	b, err := t.Str(id)
	if err != nil {
		return ""
	}
	return string(b)
}

// Len returns the number of interned strings.
func (t *Table) Len() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return int64(len(t.dir))
}
