package coldb_test

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coldb/coldb"
	"github.com/coldb/coldb/pkg/block"
	"github.com/coldb/coldb/pkg/symtab"
	"github.com/coldb/coldb/pkg/workerpool"
)

func TestCollectStatsReportsInternedSymbolsAndWorkerCount(t *testing.T) {
	pool := workerpool.GetWithWorkers(3)
	names := symtab.New()
	names.InternString("a")
	names.InternString("b")

	s := coldb.CollectStats(pool, names)
	require.EqualValues(t, 2, s.InternedSyms)
	require.Equal(t, pool.NumWorkers(), s.WorkerCount)
	require.GreaterOrEqual(t, s.AllocatorPools, 0)
	require.GreaterOrEqual(t, s.AllocatorBytes, int64(0))
}

func TestCollectStatsSumsAllocatorBytesAcrossWorkerHeaps(t *testing.T) {
	pool := workerpool.GetWithWorkers(1)
	for i := 0; i < pool.NumWorkers(); i++ {
		h := pool.Heap(i)
		_, err := block.Alloc(h, 256)
		require.NoError(t, err)
	}

	s := coldb.CollectStats(pool, nil)
	require.Zero(t, s.InternedSyms)
	require.Greater(t, s.AllocatorBytes, int64(0))
}
