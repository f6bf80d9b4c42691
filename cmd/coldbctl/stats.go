/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */
package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/coldb/coldb"
	"github.com/coldb/coldb/pkg/workerpool"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "print allocator, interner, and worker-pool statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStats()
	},
}

// runStats reports a coldb.Stats snapshot for the process-wide worker pool
// plus the on-disk symbol directory's entry count.
func runStats() error {
	names, err := openSymtab(flagDBRoot)
	if err != nil {
		return err
	}

	s := coldb.CollectStats(workerpool.Get(), names)
	fmt.Printf("db root:          %s\n", flagDBRoot)
	fmt.Printf("symbol path:      %s\n", filepath.Join(flagDBRoot, "sym"))
	fmt.Printf("interned symbols: %d\n", s.InternedSyms)
	fmt.Printf("worker pool size: %d\n", s.WorkerCount)
	fmt.Printf("allocator pools:  %d\n", s.AllocatorPools)
	fmt.Printf("allocator bytes:  %d\n", s.AllocatorBytes)
	return nil
}
