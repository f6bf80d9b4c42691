package coldb

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"github.com/coldb/coldb/pkg/symtab"
	"github.com/coldb/coldb/pkg/workerpool"
)

// Stats is a point-in-time snapshot of engine-wide resource usage: the
// process-wide worker pool's allocator pools and bytes in use across every
// worker heap, the worker pool's size, and the symbol interner's entry
// count (spec §6 "coldb.Stats"). cmd/coldbctl's stats subcommand prints one
// of these, and tests assert on it for allocator coalescing/freelist
// behavior (spec §8).
type Stats struct {
	WorkerCount    int
	AllocatorPools int
	AllocatorBytes int64
	InternedSyms   int64
}

// CollectStats gathers a Stats snapshot from the process-wide worker pool
// and the given symbol table.
func CollectStats(pool *workerpool.Pool, names *symtab.Table) Stats {
	s := Stats{WorkerCount: pool.NumWorkers()}
	for i := 0; i < pool.NumWorkers(); i++ {
		pools, bytes := pool.Heap(i).Stats()
		s.AllocatorPools += pools
		s.AllocatorBytes += bytes
	}
	if names != nil {
		s.InternedSyms = names.Len()
	}
	return s
}
