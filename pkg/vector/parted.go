package vector

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"sync/atomic"

	"github.com/coldb/coldb/pkg/block"
	"github.com/coldb/coldb/pkg/tderr"
)

// Parted is a virtual vector composed of N concrete segment vectors
// concatenated logically (spec §3.4). Reads, filters and reductions
// transparently iterate segments rather than materializing a contiguous
// copy. Grounded on the teacher's pkg/xfs extent-segment bookkeeping,
// adapted from disk extents to in-memory column segments.
//
// A Parted has its own reference count, separate from block.Block's,
// because it has no backing Block of its own (spec §3.1's "positive in
// [32,48) => parted vector" tag describes a wrapper, not an allocation).
// Table columns hold a Parted behind a Vector wrapper (see NewPartedVector)
// so pkg/vector.Table's column slice can stay homogeneously []*Vector.
type Parted struct {
	Base     block.Tag
	Segments []*Vector

	rc int32
}

// NewParted wraps segs (which must all share base type base) as a parted
// column, retaining each segment.
func NewParted(base block.Tag, segs []*Vector) (*Parted, error) {
	for _, s := range segs {
		if s.Tag() != base {
			return nil, tderr.New(tderr.KindType, "parted: segment type %v does not match base %v", s.Tag(), base)
		}
		Retain(s)
	}
	return &Parted{Base: base, Segments: append([]*Vector(nil), segs...), rc: 1}, nil
}

func retainParted(p *Parted) { atomic.AddInt32(&p.rc, 1) }

func releaseParted(p *Parted) error {
	if atomic.AddInt32(&p.rc, -1) > 0 {
		return nil
	}
	return p.Release()
}

// NRows returns Σ len(segment) over all segments (spec §3.4, §8).
func (p *Parted) NRows() int {
	n := 0
	for _, s := range p.Segments {
		n += s.Len()
	}
	return n
}

// Tag returns the parted vector's block tag (base + 32).
func (p *Parted) Tag() block.Tag { return block.Parted(p.Base) }

// Locate maps a logical row index to its (segment index, offset within
// segment) pair.
func (p *Parted) Locate(row int) (seg int, offset int, err error) {
	if row < 0 {
		return 0, 0, tderr.New(tderr.KindRange, "parted: negative row %d", row)
	}
	cursor := row
	for i, s := range p.Segments {
		if cursor < s.Len() {
			return i, cursor, nil
		}
		cursor -= s.Len()
	}
	return 0, 0, tderr.New(tderr.KindRange, "parted: row %d out of range [0,%d)", row, p.NRows())
}

// Get returns the value at logical row.
func (p *Parted) Get(row int) (interface{}, error) {
	seg, off, err := p.Locate(row)
	if err != nil {
		return nil, err
	}
	return p.Segments[seg].Get(off)
}

// Release releases every segment.
func (p *Parted) Release() error {
	for _, s := range p.Segments {
		if err := Release(s); err != nil {
			return err
		}
	}
	p.Segments = nil
	return nil
}

// PartitionKeyMap is the virtual per-table partition-key column (spec
// §3.4): key values per partition plus a parallel row-count vector,
// providing per-row partition keys without per-row storage.
type PartitionKeyMap struct {
	Keys   *Vector // one element per partition (I64 or SYM key)
	Counts *Vector // I64 row count per partition, same length as Keys

	rc int32
}

// NewPartitionKeyMap retains keys and counts.
func NewPartitionKeyMap(keys, counts *Vector) (*PartitionKeyMap, error) {
	if keys.Len() != counts.Len() {
		return nil, tderr.New(tderr.KindLengthMismatch, "partition key map: %d keys vs %d counts", keys.Len(), counts.Len())
	}
	Retain(keys)
	Retain(counts)
	return &PartitionKeyMap{Keys: keys, Counts: counts, rc: 1}, nil
}

func retainPartitionMap(m *PartitionKeyMap) { atomic.AddInt32(&m.rc, 1) }

func releasePartitionMap(m *PartitionKeyMap) error {
	if atomic.AddInt32(&m.rc, -1) > 0 {
		return nil
	}
	return m.Release()
}

// NRows returns Σ counts, the virtual column's total row count.
func (m *PartitionKeyMap) NRows() (int64, error) {
	var total int64
	for i := 0; i < m.Counts.Len(); i++ {
		v, err := m.Counts.Get(i)
		if err != nil {
			return 0, err
		}
		total += v.(int64)
	}
	return total, nil
}

// KeyForRow returns the partition key id covering logical row.
func (m *PartitionKeyMap) KeyForRow(row int64) (interface{}, error) {
	cursor := row
	for i := 0; i < m.Counts.Len(); i++ {
		c, err := m.Counts.Get(i)
		if err != nil {
			return nil, err
		}
		n := c.(int64)
		if cursor < n {
			return m.Keys.Get(i)
		}
		cursor -= n
	}
	return nil, tderr.New(tderr.KindRange, "partition key map: row %d out of range", row)
}

// Release releases Keys and Counts.
func (m *PartitionKeyMap) Release() error {
	if err := Release(m.Keys); err != nil {
		return err
	}
	if err := Release(m.Counts); err != nil {
		return err
	}
	m.Keys, m.Counts = nil, nil
	return nil
}
