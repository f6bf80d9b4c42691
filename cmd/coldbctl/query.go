/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */
package main

import (
	"github.com/spf13/cobra"

	"github.com/coldb/coldb/pkg/block"
	"github.com/coldb/coldb/pkg/exec"
	"github.com/coldb/coldb/pkg/graph"
	"github.com/coldb/coldb/pkg/optimize"
	"github.com/coldb/coldb/pkg/storage"
	"github.com/coldb/coldb/pkg/symtab"
	"github.com/coldb/coldb/pkg/tderr"
	"github.com/coldb/coldb/pkg/vector"
)

var flagQueryHead int64

var queryCmd = &cobra.Command{
	Use:   "query TABLE",
	Short: "run a canned demonstration query against a partitioned table (select all columns, head N rows)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(args[0])
	},
}

func init() {
	queryCmd.Flags().Int64Var(&flagQueryHead, "head", 10, "number of rows to print")
}

func runQuery(tableName string) error {
	names, err := openSymtab(flagDBRoot)
	if err != nil {
		return err
	}

	h := block.NewHeap()
	tbl, err := storage.OpenPartitionedTableWithView(h, names, flagDBRoot, tableName, log)
	if err != nil {
		return err
	}
	defer tbl.Release()

	root, err := buildSelectHeadQuery(h, names, tbl, flagQueryHead)
	if err != nil {
		return err
	}

	if err := optimize.Run(h, root.g, root.id); err != nil {
		return err
	}

	ex := exec.New(h, names, nil)
	result, err := ex.Execute(root.g, root.id)
	if err != nil {
		return err
	}
	defer exec.Release(result)

	return renderValue(names, result)
}

type queryRoot struct {
	g  *graph.Graph
	id graph.NodeID
}

// buildSelectHeadQuery builds SELECT <every schema column> HEAD n
// MATERIALIZE over tbl, the canned query coldbctl's "query" subcommand
// demonstrates (spec §6.4's graph-builder API exercised end to end).
func buildSelectHeadQuery(h *block.Heap, names *symtab.Table, tbl *vector.Table, n int64) (queryRoot, error) {
	g := graph.New(tbl)

	var keptNames []int64
	var cols []graph.NodeID
	for _, id := range tbl.Schema() {
		name, err := names.Str(id)
		if err != nil {
			return queryRoot{}, err
		}
		scanID, err := g.Scan(names, string(name))
		if err != nil {
			return queryRoot{}, err
		}
		keptNames = append(keptNames, id)
		cols = append(cols, scanID)
	}
	if len(cols) == 0 {
		return queryRoot{}, tderr.New(tderr.KindSchema, "coldbctl: table has no materializable columns")
	}

	selID, err := g.Select(cols[0], keptNames, cols)
	if err != nil {
		return queryRoot{}, err
	}

	headID, err := g.Head(h, selID, n)
	if err != nil {
		return queryRoot{}, err
	}

	matID, err := g.Materialize(headID)
	if err != nil {
		return queryRoot{}, err
	}
	return queryRoot{g: g, id: matID}, nil
}
