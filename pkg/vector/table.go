package vector

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"github.com/coldb/coldb/pkg/block"
	"github.com/coldb/coldb/pkg/symtab"
	"github.com/coldb/coldb/pkg/tderr"
)

// Table is a column-oriented container: a parallel array of interned
// column-name ids and column vectors (spec §3.3). Columns and names are
// stored side-by-side, as a {sym id, column} pair, mirroring the teacher's
// flat "name array next to value array" ext4 directory-entry layout.
type Table struct {
	names []int64
	cols  []*Vector

	// partKeyCol, if >= 0, is the index of this table's distinguished
	// partition-key column (spec §3.3, §3.4).
	partKeyCol int
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{partKeyCol: -1}
}

// NRows returns the table's row count: all non-parted columns must share
// this length (spec §3.3); a parted table's NRows is the sum over
// segments of each parted column (enforced in parted.go).
func (t *Table) NRows() int {
	if len(t.cols) == 0 {
		return 0
	}
	for _, c := range t.cols {
		if _, ok := block.IsParted(c.Tag()); !ok && c.Tag() != block.TagPartitionMap {
			return c.Len()
		}
	}
	return t.cols[0].Len()
}

// NCols returns the number of columns.
func (t *Table) NCols() int { return len(t.cols) }

// AddCol retains col and appends it under name (spec §4.4). If any
// existing non-parted column's length disagrees with col's, AddCol fails
// with KindLengthMismatch.
func (t *Table) AddCol(names *symtab.Table, name string, col *Vector) error {
	id := names.InternString(name)
	return t.AddColID(id, col)
}

// AddColID is AddCol taking an already-interned name id.
func (t *Table) AddColID(id int64, col *Vector) error {
	if len(t.cols) > 0 {
		if _, parted := block.IsParted(col.Tag()); !parted && col.Tag() != block.TagPartitionMap {
			if n := t.NRows(); n != col.Len() && n != 0 {
				return tderr.New(tderr.KindLengthMismatch, "table: column %q has length %d, table has %d rows", id, col.Len(), n)
			}
		}
	}
	Retain(col)
	t.names = append(t.names, id)
	t.cols = append(t.cols, col)
	if col.Tag() == block.TagPartitionMap {
		t.partKeyCol = len(t.cols) - 1
	}
	return nil
}

// Col looks up a column by interned name id, using a linear scan (spec
// §4.4: "expected small column counts").
func (t *Table) Col(id int64) (*Vector, bool) {
	for i, n := range t.names {
		if n == id {
			return t.cols[i], true
		}
	}
	return nil, false
}

// ColByName looks up a column by name string.
func (t *Table) ColByName(names *symtab.Table, name string) (*Vector, bool) {
	id := names.Find([]byte(name))
	if id == symtab.NotFound {
		return nil, false
	}
	return t.Col(id)
}

// ColAt returns the i'th column and its name id, in positional order.
func (t *Table) ColAt(i int) (int64, *Vector) {
	return t.names[i], t.cols[i]
}

// Schema returns the column-name ids in positional order (spec §4.4: "an
// I64 vector view of the name-id prefix").
func (t *Table) Schema() []int64 {
	out := make([]int64, len(t.names))
	copy(out, t.names)
	return out
}

// PartitionKeyColumn returns this table's virtual partition-key column, if
// present (spec §3.4).
func (t *Table) PartitionKeyColumn() (*Vector, bool) {
	if t.partKeyCol < 0 {
		return nil, false
	}
	return t.cols[t.partKeyCol], true
}

// Release releases every column (cascading per spec §3.5: "releasing a
// container releases its children").
func (t *Table) Release() error {
	for _, c := range t.cols {
		if err := Release(c); err != nil {
			return err
		}
	}
	t.cols = nil
	t.names = nil
	return nil
}

// Clone returns a shallow copy of t sharing (retained) column references,
// useful for operators like HEAD/TAIL/PROJECT that reuse most columns.
func (t *Table) Clone() *Table {
	out := &Table{
		names:      append([]int64(nil), t.names...),
		cols:       make([]*Vector, len(t.cols)),
		partKeyCol: t.partKeyCol,
	}
	for i, c := range t.cols {
		Retain(c)
		out.cols[i] = c
	}
	return out
}
