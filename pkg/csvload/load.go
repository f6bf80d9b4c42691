// Package csvload implements coldb's parallel, mmap-backed CSV ingest
// (spec §4.5): delimiter autodetection, header parsing, row-offset
// scanning, sample type inference, and row-parallel parsing dispatched
// through pkg/workerpool.
package csvload

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"fmt"
	"io"
	"io/ioutil"

	"github.com/coldb/coldb/pkg/block"
	"github.com/coldb/coldb/pkg/elog"
	"github.com/coldb/coldb/pkg/symtab"
	"github.com/coldb/coldb/pkg/tderr"
	"github.com/coldb/coldb/pkg/vector"
	"github.com/coldb/coldb/pkg/workerpool"
)

// Options controls how a CSV source is parsed. The zero value means
// "autodetect delimiter, first line is a header".
type Options struct {
	Delimiter byte // 0 means autodetect (spec §4.5 step 2)
	NoHeader  bool // true if the first line is data, not column names
	Pool      *workerpool.Pool // nil uses workerpool.Get()
}

// LoadFile ingests path as CSV into a heap-allocated table (spec §4.5).
// view may be nil, in which case progress is discarded.
func LoadFile(h *block.Heap, names *symtab.Table, path string, view elog.View) (*vector.Table, error) {
	return LoadFileWithOptions(h, names, path, Options{}, view)
}

// LoadFileWithOptions is LoadFile with explicit delimiter/header control.
func LoadFileWithOptions(h *block.Heap, names *symtab.Table, path string, opts Options, view elog.View) (*vector.Table, error) {
	data, unmap, err := mmapReadOnly(path)
	if err != nil {
		return nil, tderr.Wrap(tderr.KindIO, err, "csvload: mmap %s", path)
	}
	defer unmap()
	return loadBytes(h, names, data, opts, view)
}

// LoadReader ingests CSV from r using the serial path (spec §4.5's
// streaming variant, for sources that cannot be mmap'd).
func LoadReader(h *block.Heap, names *symtab.Table, r io.Reader, opts Options, view elog.View) (*vector.Table, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, tderr.Wrap(tderr.KindIO, err, "csvload: read stream")
	}
	return loadBytes(h, names, data, opts, view)
}

func loadBytes(h *block.Heap, names *symtab.Table, data []byte, opts Options, view elog.View) (*vector.Table, error) {
	if view == nil {
		view = elog.Discard
	}
	if len(data) == 0 {
		return vector.NewTable(), nil
	}

	firstLineEnd := rowEnd(data, 0)
	delim := opts.Delimiter
	if delim == 0 {
		delim = detectDelimiter(data[:firstLineEnd])
	}

	var headerNames []string
	var body []byte
	if opts.NoHeader {
		body = data
		n := len(splitFields(data[:firstLineEnd], delim))
		headerNames = syntheticNames(n)
	} else {
		headerFields := splitFields(data[:firstLineEnd], delim)
		headerNames = make([]string, len(headerFields))
		for i, f := range headerFields {
			headerNames[i] = string(f)
		}
		bodyStart := firstLineEnd
		if bodyStart < len(data) && data[bodyStart] == '\n' {
			bodyStart++
		} else if bodyStart+1 < len(data) && data[bodyStart] == '\r' && data[bodyStart+1] == '\n' {
			bodyStart += 2
		}
		body = data[bodyStart:]
	}
	ncols := len(headerNames)
	if ncols == 0 {
		return vector.NewTable(), nil
	}

	quoted := hasQuotes(body)
	rowOffsets := scanRowOffsets(body, quoted)
	nrows := len(rowOffsets)

	progress := view.NewProgress("csv ingest", "rows", int64(nrows))
	defer progress.Finish(true)

	tags := inferColumnTypes(body, rowOffsets, delim, ncols)

	pool := opts.Pool
	if pool == nil {
		pool = workerpool.Get()
	}

	cols := make([]*vector.Vector, ncols)
	for c := 0; c < ncols; c++ {
		v, err := vector.NewVectorFilled(h, tags[c], nrows)
		if err != nil {
			return nil, err
		}
		cols[c] = v
	}

	numWorkerSlots := 1
	if nrows > workerpool.ParallelThreshold {
		numWorkerSlots = pool.NumWorkers()
	}
	locals := make([][]*localSymTable, numWorkerSlots)
	for w := range locals {
		locals[w] = make([]*localSymTable, ncols)
		for c := 0; c < ncols; c++ {
			if tags[c] == block.TagSym {
				locals[w][c] = newLocalSymTable()
			}
		}
	}

	if nrows <= workerpool.ParallelThreshold {
		// Small files fall back to serial parsing (spec §4.5 contract);
		// worker slot 0 both parses and owns the one local symbol table.
		fillRows(0, body, rowOffsets, delim, cols, tags, 0, nrows, locals[0])
		progress.Increment(int64(nrows))
	} else {
		pool.Dispatch(func(workerID, start, end int) {
			fillRows(workerID, body, rowOffsets, delim, cols, tags, start, end, locals[workerID])
			progress.Increment(int64(end - start))
		}, nrows)
	}

	for c := 0; c < ncols; c++ {
		if tags[c] != block.TagSym {
			continue
		}
		globalize(names, cols[c], locals, c)
	}

	tbl := vector.NewTable()
	for c := 0; c < ncols; c++ {
		id := names.InternString(headerNames[c])
		if err := tbl.AddColID(id, cols[c]); err != nil {
			return nil, err
		}
		if err := vector.Release(cols[c]); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

func syntheticNames(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("V%d", i+1)
	}
	return out
}

// fillRows parses rows [start,end) of body directly into cols (spec §4.5
// step 7): each worker fills every column for its own row range. String
// columns write packed (workerID, localID) values via locals, rewritten
// to global ids afterward by globalize.
func fillRows(workerID int, body []byte, rowOffsets []int, delim byte, cols []*vector.Vector, tags []block.Tag, start, end int, locals []*localSymTable) {
	for r := start; r < end; r++ {
		rowStart := rowOffsets[r]
		rEnd := rowEnd(body, rowStart)
		fields := splitFields(body[rowStart:rEnd], delim)
		for c, col := range cols {
			if c >= len(fields) || len(fields[c]) == 0 {
				col.SetNullAt(r)
				continue
			}
			field := fields[c]
			switch tags[c] {
			case block.TagBool:
				col.SetBoolAt(r, boolValue(field))
			case block.TagI64:
				v, ok := parseInt64(field)
				if !ok {
					col.SetNullAt(r)
					continue
				}
				col.SetI64At(r, v)
			case block.TagF64:
				v, ok := parseFloat64(field)
				if !ok {
					col.SetNullAt(r)
					continue
				}
				col.SetF64At(r, v)
			default: // SYM: string columns
				localID := locals[c].intern(field)
				col.SetSymAt(r, packLocal(workerID, localID))
			}
		}
	}
}

// globalize folds every worker's local symbol table for column c into
// names and rewrites col's packed (workerID, localID) values to global
// ids (spec §4.5 step 8). Runs on the calling goroutine after Dispatch
// has returned, so it never races the parallel fill.
func globalize(names *symtab.Table, col *vector.Vector, locals [][]*localSymTable, c int) {
	globalFor := make([][]int64, len(locals))
	for w, perCol := range locals {
		lt := perCol[c]
		if lt == nil {
			continue
		}
		globalFor[w] = make([]int64, len(lt.dir))
		for i, s := range lt.dir {
			globalFor[w][i] = names.Intern(s)
		}
	}
	for i := 0; i < col.Len(); i++ {
		if vector.IsNull(col, i) {
			continue
		}
		packed, err := col.Get(i)
		if err != nil {
			continue
		}
		workerID, localID := unpackLocal(packed.(int64))
		col.SetSymAt(i, globalFor[workerID][localID])
	}
}
