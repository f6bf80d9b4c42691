package main

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "coldbctl-*.csv")
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

func TestRunLoadAndQueryRoundTrip(t *testing.T) {
	root := t.TempDir()
	flagDBRoot = root
	flagQueryHead = 10

	csvPath := writeCSV(t, "id,name,px\n1,aapl,100.5\n2,msft,200.25\n3,goog,300\n")
	require.NoError(t, runLoad(csvPath, "2024.01.01", "trades"))

	require.FileExists(t, filepath.Join(root, "sym"))
	require.FileExists(t, filepath.Join(root, "2024.01.01", "trades", ".d"))

	require.NoError(t, runQuery("trades"))
}

func TestRunStatsSucceeds(t *testing.T) {
	root := t.TempDir()
	flagDBRoot = root

	csvPath := writeCSV(t, "id\n1\n2\n")
	require.NoError(t, runLoad(csvPath, "2024.01.01", "ids"))
	require.NoError(t, runStats())
}
