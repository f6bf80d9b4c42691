package exec

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"math"

	"github.com/coldb/coldb/pkg/block"
	"github.com/coldb/coldb/pkg/graph"
	"github.com/coldb/coldb/pkg/tderr"
	"github.com/coldb/coldb/pkg/vector"
	"github.com/coldb/coldb/pkg/workerpool"
)

// evalUnaryMath implements NEG/ABS/SQRT/LOG/EXP/CEIL/FLOOR as morsel
// kernels (spec §4.9): a vector is sliced into workerpool.Morsel-row
// ranges, dispatched to the pool once total rows cross
// workerpool.ParallelThreshold.
func (ex *Executor) evalUnaryMath(n *graph.Node, a Value) (Value, error) {
	if a.IsAtom() {
		return ex.unaryMathAtom(n.Opcode, a.Atom)
	}
	if p, ok := partedOf(a); ok {
		return ex.mapPartedUnary(p, n.OutType, func(seg Value) (Value, error) {
			return ex.evalUnaryMath(n, seg)
		})
	}
	nrows := a.Len()
	// Direct-index fill requires a pre-sized output and disjoint ranges;
	// unary math always produces F64/I64-class so NewVectorFilled + SetXAt
	// is safe across goroutines (same pattern as pkg/csvload's row fill).
	filled, err := vector.NewVectorFilled(ex.Heap, n.OutType, nrows)
	if err != nil {
		return Value{}, err
	}
	ex.dispatch(nrows, func(_, start, end int) {
		for i := start; i < end; i++ {
			x, isNull, _ := element(a, i)
			if isNull {
				continue
			}
			writeUnaryMath(filled, n.Opcode, i, x)
		}
	})
	for i := 0; i < nrows; i++ {
		if _, isNull, _ := element(a, i); isNull {
			if err := vector.SetNull(ex.Heap, filled, i); err != nil {
				return Value{}, err
			}
		}
	}
	return VecValue(filled), nil
}

func (ex *Executor) unaryMathAtom(op graph.Opcode, a *block.Block) (Value, error) {
	if block.IsNullAtom(a) {
		out, err := block.AllocCopy(ex.Heap, a)
		return AtomValue(out), err
	}
	x := toF64(atomGo(a))
	switch op {
	case graph.OpNeg:
		if isFloatTag(block.AtomKind(a)) {
			b, err := block.NewAtomF64(ex.Heap, -x)
			return AtomValue(b), err
		}
		b, err := block.NewAtomI64(ex.Heap, -toI64(atomGo(a)))
		return AtomValue(b), err
	case graph.OpAbs:
		if isFloatTag(block.AtomKind(a)) {
			b, err := block.NewAtomF64(ex.Heap, math.Abs(x))
			return AtomValue(b), err
		}
		v := toI64(atomGo(a))
		if v < 0 {
			v = -v
		}
		b, err := block.NewAtomI64(ex.Heap, v)
		return AtomValue(b), err
	case graph.OpSqrt:
		b, err := block.NewAtomF64(ex.Heap, math.Sqrt(x))
		return AtomValue(b), err
	case graph.OpLog:
		b, err := block.NewAtomF64(ex.Heap, math.Log(x))
		return AtomValue(b), err
	case graph.OpExp:
		b, err := block.NewAtomF64(ex.Heap, math.Exp(x))
		return AtomValue(b), err
	case graph.OpCeil:
		b, err := block.NewAtomF64(ex.Heap, math.Ceil(x))
		return AtomValue(b), err
	case graph.OpFloor:
		b, err := block.NewAtomF64(ex.Heap, math.Floor(x))
		return AtomValue(b), err
	default:
		return Value{}, tderr.New(tderr.KindNotImplemented, "exec: unary math opcode %v", op)
	}
}

func writeUnaryMath(out *vector.Vector, op graph.Opcode, i int, x interface{}) {
	switch op {
	case graph.OpNeg:
		if out.Tag() == block.TagF64 {
			out.SetF64At(i, -toF64(x))
		} else {
			out.SetI64At(i, -toI64(x))
		}
	case graph.OpAbs:
		if out.Tag() == block.TagF64 {
			out.SetF64At(i, math.Abs(toF64(x)))
		} else {
			v := toI64(x)
			if v < 0 {
				v = -v
			}
			out.SetI64At(i, v)
		}
	case graph.OpSqrt:
		out.SetF64At(i, math.Sqrt(toF64(x)))
	case graph.OpLog:
		out.SetF64At(i, math.Log(toF64(x)))
	case graph.OpExp:
		out.SetF64At(i, math.Exp(toF64(x)))
	case graph.OpCeil:
		out.SetF64At(i, math.Ceil(toF64(x)))
	case graph.OpFloor:
		out.SetF64At(i, math.Floor(toF64(x)))
	}
}

// evalUnaryLogic implements NOT and IS-NULL.
func (ex *Executor) evalUnaryLogic(n *graph.Node, a Value) (Value, error) {
	if a.IsAtom() {
		if n.Opcode == graph.OpIsNull {
			b, err := block.NewAtomBool(ex.Heap, block.IsNullAtom(a.Atom))
			return AtomValue(b), err
		}
		b, err := block.NewAtomBool(ex.Heap, !toBool(atomGo(a.Atom)))
		return AtomValue(b), err
	}
	if p, ok := partedOf(a); ok {
		return ex.mapPartedUnary(p, block.TagBool, func(seg Value) (Value, error) {
			return ex.evalUnaryLogic(n, seg)
		})
	}
	nrows := a.Len()
	out, err := vector.NewVectorFilled(ex.Heap, block.TagBool, nrows)
	if err != nil {
		return Value{}, err
	}
	ex.dispatch(nrows, func(_, start, end int) {
		for i := start; i < end; i++ {
			x, isNull, _ := element(a, i)
			if n.Opcode == graph.OpIsNull {
				out.SetBoolAt(i, isNull)
				continue
			}
			if isNull {
				continue
			}
			out.SetBoolAt(i, !toBool(x))
		}
	})
	if n.Opcode != graph.OpIsNull {
		for i := 0; i < nrows; i++ {
			if _, isNull, _ := element(a, i); isNull {
				if err := vector.SetNull(ex.Heap, out, i); err != nil {
					return Value{}, err
				}
			}
		}
	}
	return VecValue(out), nil
}

// evalCast converts a to n.OutType.
func (ex *Executor) evalCast(n *graph.Node, a Value) (Value, error) {
	if a.IsAtom() {
		v, isNull, _ := element(a, 0)
		if isNull {
			b, err := block.AllocCopy(ex.Heap, a.Atom)
			return AtomValue(b), err
		}
		b, err := castAtom(ex.Heap, n.OutType, v)
		return AtomValue(b), err
	}
	if p, ok := partedOf(a); ok {
		return ex.mapPartedUnary(p, n.OutType, func(seg Value) (Value, error) {
			return ex.evalCast(n, seg)
		})
	}
	nrows := a.Len()
	out, err := vector.NewVectorFilled(ex.Heap, n.OutType, nrows)
	if err != nil {
		return Value{}, err
	}
	for i := 0; i < nrows; i++ {
		x, isNull, _ := element(a, i)
		if isNull {
			if err := vector.SetNull(ex.Heap, out, i); err != nil {
				return Value{}, err
			}
			continue
		}
		writeCast(out, n.OutType, i, x)
	}
	return VecValue(out), nil
}

func castAtom(h *block.Heap, to block.Tag, x interface{}) (*block.Block, error) {
	switch to {
	case block.TagF64:
		return block.NewAtomF64(h, toF64(x))
	case block.TagBool:
		return block.NewAtomBool(h, toBool(x))
	case block.TagI32, block.TagDate, block.TagEnum:
		return block.NewAtomI32(h, int32(toI64(x)))
	default:
		return block.NewAtomI64(h, toI64(x))
	}
}

func writeCast(out *vector.Vector, to block.Tag, i int, x interface{}) {
	switch to {
	case block.TagF64:
		out.SetF64At(i, toF64(x))
	case block.TagBool:
		out.SetBoolAt(i, toBool(x))
	default:
		out.SetI64At(i, toI64(x))
	}
}

// evalBinary implements arithmetic, logical, and comparison binary
// kernels (spec §4.9). Comparisons produce false (not null) for a null
// operand; arithmetic propagates nullness (see package doc).
func (ex *Executor) evalBinary(n *graph.Node, a, b Value) (Value, error) {
	if a.IsAtom() && b.IsAtom() {
		return ex.binaryAtom(n.Opcode, a.Atom, b.Atom)
	}
	if pa, ok := partedOf(a); ok {
		if pb, ok := partedOf(b); ok {
			if samePartitioning(pa, pb) {
				return ex.mapPartedBinary(pa, pb, n.OutType, func(sa, sb Value) (Value, error) {
					return ex.evalBinary(n, sa, sb)
				})
			}
			// Fall through to the flat path: mismatched partitioning has
			// no defined per-segment zip, spec §4.9 is silent here.
		} else if b.IsAtom() {
			return ex.mapPartedUnary(pa, n.OutType, func(seg Value) (Value, error) {
				return ex.evalBinary(n, seg, b)
			})
		}
	} else if pb, ok := partedOf(b); ok && a.IsAtom() {
		return ex.mapPartedUnary(pb, n.OutType, func(seg Value) (Value, error) {
			return ex.evalBinary(n, a, seg)
		})
	}
	nrows := a.Len()
	if a.IsVec() && b.IsVec() && a.Len() != b.Len() {
		return Value{}, tderr.New(tderr.KindLengthMismatch, "exec: binary op operand lengths differ: %d vs %d", a.Len(), b.Len())
	}
	if b.IsVec() {
		nrows = b.Len()
	}
	isCompare := graph.IsComparison(n.Opcode)
	out, err := vector.NewVectorFilled(ex.Heap, n.OutType, nrows)
	if err != nil {
		return Value{}, err
	}
	ex.dispatch(nrows, func(_, start, end int) {
		for i := start; i < end; i++ {
			xv, xNull, _ := element(a, i)
			yv, yNull, _ := element(b, i)
			if xNull || yNull {
				if !isCompare {
					continue // left zero-valued; null bit set in the pass below
				}
				out.SetBoolAt(i, false)
				continue
			}
			writeBinary(out, n.Opcode, n.OutType, i, xv, yv)
		}
	})
	if !isCompare {
		for i := 0; i < nrows; i++ {
			_, xNull, _ := element(a, i)
			_, yNull, _ := element(b, i)
			if xNull || yNull {
				if err := vector.SetNull(ex.Heap, out, i); err != nil {
					return Value{}, err
				}
			}
		}
	}
	return VecValue(out), nil
}

func (ex *Executor) binaryAtom(op graph.Opcode, a, b *block.Block) (Value, error) {
	if block.IsNullAtom(a) || block.IsNullAtom(b) {
		if graph.IsComparison(op) {
			r, err := block.NewAtomBool(ex.Heap, false)
			return AtomValue(r), err
		}
		out, err := block.AllocCopy(ex.Heap, a)
		block.SetNullAtom(out)
		return AtomValue(out), err
	}
	x, y := atomGo(a), atomGo(b)
	outType := binaryOutTypeRuntime(op, block.AtomKind(a), block.AtomKind(b))
	switch {
	case graph.IsComparison(op):
		r, err := block.NewAtomBool(ex.Heap, compareValues(op, x, y))
		return AtomValue(r), err
	case outType == block.TagBool:
		r, err := block.NewAtomBool(ex.Heap, logicValue(op, toBool(x), toBool(y)))
		return AtomValue(r), err
	case outType == block.TagF64:
		r, err := block.NewAtomF64(ex.Heap, arithF64(op, toF64(x), toF64(y)))
		return AtomValue(r), err
	default:
		r, err := block.NewAtomI64(ex.Heap, arithI64(op, toI64(x), toI64(y)))
		return AtomValue(r), err
	}
}

func binaryOutTypeRuntime(op graph.Opcode, a, b block.Tag) block.Tag {
	switch {
	case op == graph.OpDiv:
		return block.TagF64
	case graph.IsComparison(op):
		return block.TagBool
	case op == graph.OpAnd || op == graph.OpOr:
		return block.TagBool
	default:
		return block.Promote(a, b)
	}
}

func writeBinary(out *vector.Vector, op graph.Opcode, outType block.Tag, i int, x, y interface{}) {
	switch {
	case graph.IsComparison(op):
		out.SetBoolAt(i, compareValues(op, x, y))
	case outType == block.TagBool:
		out.SetBoolAt(i, logicValue(op, toBool(x), toBool(y)))
	case outType == block.TagF64:
		out.SetF64At(i, arithF64(op, toF64(x), toF64(y)))
	default:
		out.SetI64At(i, arithI64(op, toI64(x), toI64(y)))
	}
}

func logicValue(op graph.Opcode, x, y bool) bool {
	if op == graph.OpAnd {
		return x && y
	}
	return x || y
}

func arithF64(op graph.Opcode, x, y float64) float64 {
	switch op {
	case graph.OpAdd:
		return x + y
	case graph.OpSub:
		return x - y
	case graph.OpMul:
		return x * y
	case graph.OpDiv:
		return x / y
	case graph.OpMod:
		return math.Mod(x, y)
	default:
		return 0
	}
}

// arithI64 implements spec §4.8's integer-arithmetic edge cases: divide of
// INT_MIN/-1 saturates to INT_MIN, modulo by zero yields 0.
func arithI64(op graph.Opcode, x, y int64) int64 {
	switch op {
	case graph.OpAdd:
		return x + y
	case graph.OpSub:
		return x - y
	case graph.OpMul:
		return x * y
	case graph.OpDiv:
		if y == 0 {
			return 0
		}
		if x == math.MinInt64 && y == -1 {
			return math.MinInt64
		}
		return x / y
	case graph.OpMod:
		if y == 0 {
			return 0
		}
		return x % y
	default:
		return 0
	}
}

func compareValues(op graph.Opcode, x, y interface{}) bool {
	var cmp int
	if _, ok := x.(float64); ok {
		cmp = cmpF64(toF64(x), toF64(y))
	} else if _, ok := y.(float64); ok {
		cmp = cmpF64(toF64(x), toF64(y))
	} else {
		cmp = cmpI64(toI64(x), toI64(y))
	}
	switch op {
	case graph.OpEq:
		return cmp == 0
	case graph.OpNe:
		return cmp != 0
	case graph.OpLt:
		return cmp < 0
	case graph.OpLe:
		return cmp <= 0
	case graph.OpGt:
		return cmp > 0
	case graph.OpGe:
		return cmp >= 0
	default:
		return false
	}
}

func cmpF64(x, y float64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

func cmpI64(x, y int64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

// dispatch runs fn over [0,nrows) directly (serial) below
// workerpool.ParallelThreshold, or fans out to the pool in Morsel-sized
// ranges above it (spec §4.9).
func (ex *Executor) dispatch(nrows int, fn func(workerID, start, end int)) {
	if nrows <= 0 {
		return
	}
	if nrows <= workerpool.ParallelThreshold {
		fn(0, 0, nrows)
		return
	}
	ex.Pool.Dispatch(fn, nrows)
}
