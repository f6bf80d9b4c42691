/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */
package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/coldb/coldb/pkg/block"
	"github.com/coldb/coldb/pkg/csvload"
	"github.com/coldb/coldb/pkg/storage"
	"github.com/coldb/coldb/pkg/symtab"
)

var loadCmd = &cobra.Command{
	Use:   "load CSV PARTITION TABLE",
	Short: "load a CSV file into a database partition",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoad(args[0], args[1], args[2])
	},
}

func runLoad(csvPath, partition, table string) error {
	if err := storage.ValidatePartitionName(partition); err != nil {
		return err
	}

	names, err := openSymtab(flagDBRoot)
	if err != nil {
		return err
	}

	h := block.NewHeap()
	t, err := csvload.LoadFile(h, names, csvPath, log)
	if err != nil {
		return err
	}
	defer t.Release()

	dir := filepath.Join(flagDBRoot, partition, table)
	if err := storage.WriteTable(h, names, t, dir); err != nil {
		return err
	}
	if err := names.Save(filepath.Join(flagDBRoot, "sym")); err != nil {
		return err
	}

	log.Infof("loaded %d rows, %d columns into %s", t.NRows(), t.NCols(), dir)
	fmt.Printf("loaded %d rows into %s/%s\n", t.NRows(), partition, table)
	return nil
}

// openSymtab loads the database's symbol directory if present, else
// starts a fresh one (spec §6.3's "sym" file).
func openSymtab(dbRoot string) (*symtab.Table, error) {
	path := filepath.Join(dbRoot, "sym")
	t, err := symtab.Load(path)
	if err != nil {
		return symtab.New(), nil
	}
	return t, nil
}
