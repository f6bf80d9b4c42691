/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */
package main

import (
	"fmt"
	"os"

	"github.com/sisatech/tablewriter"

	"github.com/coldb/coldb/pkg/block"
	"github.com/coldb/coldb/pkg/exec"
	"github.com/coldb/coldb/pkg/symtab"
	"github.com/coldb/coldb/pkg/vector"
)

// renderValue prints an exec.Value as a grid, resolving SYM columns back to
// their interned strings (grounded on the teacher's cmd/vorteil PlainTable
// helper).
func renderValue(names *symtab.Table, v exec.Value) error {
	switch {
	case v.IsTbl():
		return renderTable(names, v.Tbl)
	case v.IsVec():
		return renderVector(names, v.Vec)
	default:
		s, err := formatAtom(names, v.Atom)
		if err != nil {
			return err
		}
		fmt.Println(s)
		return nil
	}
}

func renderTable(names *symtab.Table, t *vector.Table) error {
	header := make([]string, t.NCols())
	cols := make([]*vector.Vector, t.NCols())
	for i := 0; i < t.NCols(); i++ {
		id, col := t.ColAt(i)
		header[i] = names.MustStr(id)
		cols[i] = col
	}

	w := tablewriter.NewWriter(os.Stdout)
	w.SetAlignment(tablewriter.ALIGN_LEFT)
	w.SetBorder(false)
	w.SetColumnSeparator("")
	w.Append(header)

	nrows := t.NRows()
	for r := 0; r < nrows; r++ {
		row := make([]string, len(cols))
		for c, col := range cols {
			s, err := formatElement(names, col, r)
			if err != nil {
				return err
			}
			row[c] = s
		}
		w.Append(row)
	}
	w.Render()
	return nil
}

func renderVector(names *symtab.Table, v *vector.Vector) error {
	w := tablewriter.NewWriter(os.Stdout)
	w.SetAlignment(tablewriter.ALIGN_LEFT)
	w.SetBorder(false)
	w.SetColumnSeparator("")
	w.Append([]string{"value"})

	for i := 0; i < v.Len(); i++ {
		s, err := formatElement(names, v, i)
		if err != nil {
			return err
		}
		w.Append([]string{s})
	}
	w.Render()
	return nil
}

func formatElement(names *symtab.Table, v *vector.Vector, i int) (string, error) {
	if vector.IsNull(v, i) {
		return "", nil
	}
	x, err := v.Get(i)
	if err != nil {
		return "", err
	}
	return formatGo(names, v.Tag(), x), nil
}

func formatAtom(names *symtab.Table, b *block.Block) (string, error) {
	return formatGo(names, block.AtomKind(b), atomGoPublic(b)), nil
}

// atomGoPublic mirrors pkg/exec's unexported atomGo: decodes an atom block's
// scalar payload into its native Go representation.
func atomGoPublic(b *block.Block) interface{} {
	switch block.AtomKind(b) {
	case block.TagBool:
		return block.AtomBool(b)
	case block.TagF64:
		return block.AtomF64(b)
	case block.TagI32, block.TagDate, block.TagEnum:
		return block.AtomI32(b)
	default:
		return block.AtomI64(b)
	}
}

func formatGo(names *symtab.Table, tag block.Tag, x interface{}) string {
	base := tag
	if b, ok := block.IsParted(tag); ok {
		base = b
	}
	if base == block.TagSym {
		if id, ok := x.(int64); ok {
			return names.MustStr(id)
		}
	}
	return fmt.Sprintf("%v", x)
}
