package symtab_test

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coldb/coldb/pkg/symtab"
)

func TestInternIdempotent(t *testing.T) {
	tab := symtab.New()
	a := tab.InternString("hello")
	b := tab.InternString("hello")
	require.Equal(t, a, b)

	s, err := tab.Str(a)
	require.NoError(t, err)
	require.Equal(t, "hello", string(s))
}

func TestFindNotFound(t *testing.T) {
	tab := symtab.New()
	require.Equal(t, symtab.NotFound, tab.Find([]byte("nope")))
	id := tab.InternString("nope")
	require.Equal(t, id, tab.Find([]byte("nope")))
}

func TestConcurrentInternSameString(t *testing.T) {
	tab := symtab.New()
	const n = 64
	ids := make([]int64, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			ids[i] = tab.InternString("concurrent")
		}()
	}
	wg.Wait()
	for i := 1; i < n; i++ {
		require.Equal(t, ids[0], ids[i])
	}
}

func TestSaveLoadPreservesIDs(t *testing.T) {
	tab := symtab.New()
	ids := make(map[string]int64)
	for _, s := range []string{"foo", "bar", "baz", "qux"} {
		ids[s] = tab.InternString(s)
	}

	path := filepath.Join(t.TempDir(), "sym")
	require.NoError(t, tab.Save(path))

	loaded, err := symtab.Load(path)
	require.NoError(t, err)

	for s, id := range ids {
		got := loaded.Find([]byte(s))
		require.Equal(t, id, got)
		str, err := loaded.Str(id)
		require.NoError(t, err)
		require.Equal(t, s, string(str))
	}
}
