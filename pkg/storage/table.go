package storage

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"os"
	"path/filepath"

	"github.com/coldb/coldb/pkg/block"
	"github.com/coldb/coldb/pkg/symtab"
	"github.com/coldb/coldb/pkg/tderr"
	"github.com/coldb/coldb/pkg/vector"
)

// schemaFileName is the §6.3 ".d" schema file: an I64 vector of
// column-name symbol ids in positional order.
const schemaFileName = ".d"

// WriteTable persists t to dir as one column file per column (named after
// the column, resolved through names) plus the .d schema file (spec §6.3).
func WriteTable(h *block.Heap, names *symtab.Table, t *vector.Table, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return tderr.Wrap(tderr.KindIO, err, "storage: mkdir %s", dir)
	}

	schema := t.Schema()
	schemaVec, err := vector.NewVector(h, block.TagI64, len(schema))
	if err != nil {
		return err
	}
	defer vector.Release(schemaVec)
	for _, id := range schema {
		if err := schemaVec.AppendI64(h, id); err != nil {
			return err
		}
	}
	if err := WriteColumn(schemaVec, filepath.Join(dir, schemaFileName)); err != nil {
		return err
	}

	for i := 0; i < t.NCols(); i++ {
		nameID, col := t.ColAt(i)
		name, err := names.Str(nameID)
		if err != nil {
			return err
		}
		if err := WriteColumn(col, filepath.Join(dir, string(name))); err != nil {
			return err
		}
	}
	return nil
}

// OpenTable reads a table directory written by WriteTable: the schema
// file determines column order, each column is mmap'd via OpenColumn
// (spec §6.3).
func OpenTable(h *block.Heap, names *symtab.Table, dir string) (*vector.Table, error) {
	schemaVec, err := OpenColumn(h, filepath.Join(dir, schemaFileName))
	if err != nil {
		return nil, err
	}
	defer vector.Release(schemaVec)

	t := vector.NewTable()
	for i := 0; i < schemaVec.Len(); i++ {
		raw, err := schemaVec.Get(i)
		if err != nil {
			_ = t.Release()
			return nil, err
		}
		nameID := raw.(int64)
		name, err := names.Str(nameID)
		if err != nil {
			_ = t.Release()
			return nil, err
		}
		col, err := OpenColumn(h, filepath.Join(dir, string(name)))
		if err != nil {
			_ = t.Release()
			return nil, err
		}
		if err := t.AddColID(nameID, col); err != nil {
			_ = vector.Release(col)
			_ = t.Release()
			return nil, err
		}
	}
	return t, nil
}
