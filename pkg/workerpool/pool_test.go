package workerpool_test

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coldb/coldb/pkg/workerpool"
)

func TestDispatchCoversEveryElementExactlyOnce(t *testing.T) {
	p := workerpool.GetWithWorkers(4)
	defer workerpool.Destroy()

	const total = 200_000
	var seen [total]int32
	p.Dispatch(func(_ int, start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&seen[i], 1)
		}
	}, total)

	for i, c := range seen {
		require.EqualValues(t, 1, c, "element %d covered %d times", i, c)
	}
}

func TestDispatchPartitionsOneUnitEach(t *testing.T) {
	p := workerpool.GetWithWorkers(3)
	defer workerpool.Destroy()

	const n = 17
	var hit [n]int32
	p.DispatchPartitions(func(_ int, start, end int) {
		require.Equal(t, 1, end-start)
		atomic.AddInt32(&hit[start], 1)
	}, n)

	for i, c := range hit {
		require.EqualValues(t, 1, c, "partition %d dispatched %d times", i, c)
	}
}

func TestCancelSkipsUnclaimedTasksButStillCompletes(t *testing.T) {
	p := workerpool.GetWithWorkers(2)
	defer workerpool.Destroy()
	p.ClearCancel()

	var ran int32
	p.DispatchPartitions(func(_ int, _, _ int) {
		p.Cancel()
		atomic.AddInt32(&ran, 1)
	}, 500)

	require.Less(t, int(atomic.LoadInt32(&ran)), 500, "cancel should have skipped at least one task")
	p.ClearCancel()
}

func TestGetReturnsSameInstanceUntilDestroy(t *testing.T) {
	a := workerpool.GetWithWorkers(2)
	b := workerpool.Get()
	require.Same(t, a, b)
	workerpool.Destroy()

	c := workerpool.GetWithWorkers(2)
	require.NotSame(t, a, c)
	workerpool.Destroy()
}

func TestHeapPerWorkerSlotIsDistinct(t *testing.T) {
	p := workerpool.GetWithWorkers(2)
	defer workerpool.Destroy()
	require.Equal(t, 3, p.NumWorkers())
	require.NotSame(t, p.Heap(0), p.Heap(1))
	require.NotSame(t, p.Heap(1), p.Heap(2))
}
