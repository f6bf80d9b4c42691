package exec

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"github.com/coldb/coldb/pkg/block"
	"github.com/coldb/coldb/pkg/vector"
)

// partedOf extracts v's underlying Parted, if v wraps one.
func partedOf(v Value) (*vector.Parted, bool) {
	if v.Vec == nil {
		return nil, false
	}
	return v.Vec.AsParted()
}

// samePartitioning reports whether pa and pb can be zipped segment by
// segment: same segment count and matching per-segment lengths. Element-
// wise kernels over two parted operands whose partitioning doesn't match
// this way fall back to the flat path (spec §4.9 is silent on mismatched
// partitioning).
func samePartitioning(pa, pb *vector.Parted) bool {
	if len(pa.Segments) != len(pb.Segments) {
		return false
	}
	for i := range pa.Segments {
		if pa.Segments[i].Len() != pb.Segments[i].Len() {
			return false
		}
	}
	return true
}

// buildParted wraps segs (freshly-owned, refcount 1 each) as a Parted
// column of base type base, releasing the caller's own references once
// NewParted has taken its own.
func buildParted(base block.Tag, segs []*vector.Vector) (Value, error) {
	p, err := vector.NewParted(base, segs)
	for _, s := range segs {
		_ = vector.Release(s)
	}
	if err != nil {
		return Value{}, err
	}
	return VecValue(vector.NewPartedVector(p)), nil
}

// mapPartedUnary applies flatOp to each of p's segments in turn and
// reassembles the per-segment results as a fresh Parted of type outType
// (spec §4.9: "the kernel is applied per segment; the output is a parted
// column with matching partitioning"). flatOp is always called with a
// plain (non-Parted, non-atom) vector operand, since Parted never nests.
func (ex *Executor) mapPartedUnary(p *vector.Parted, outType block.Tag, flatOp func(seg Value) (Value, error)) (Value, error) {
	segs := make([]*vector.Vector, 0, len(p.Segments))
	for _, s := range p.Segments {
		out, err := flatOp(VecValue(s))
		if err != nil {
			for _, done := range segs {
				_ = vector.Release(done)
			}
			return Value{}, err
		}
		segs = append(segs, out.Vec)
	}
	return buildParted(outType, segs)
}

// mapPartedBinary zips pa and pb segment by segment, applying flatOp to
// each matching pair and reassembling the results as a fresh Parted of
// type outType. Callers must have already checked samePartitioning.
func (ex *Executor) mapPartedBinary(pa, pb *vector.Parted, outType block.Tag, flatOp func(sa, sb Value) (Value, error)) (Value, error) {
	segs := make([]*vector.Vector, 0, len(pa.Segments))
	for i := range pa.Segments {
		out, err := flatOp(VecValue(pa.Segments[i]), VecValue(pb.Segments[i]))
		if err != nil {
			for _, done := range segs {
				_ = vector.Release(done)
			}
			return Value{}, err
		}
		segs = append(segs, out.Vec)
	}
	return buildParted(outType, segs)
}
