package exec

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"github.com/coldb/coldb/pkg/block"
	"github.com/coldb/coldb/pkg/graph"
	"github.com/coldb/coldb/pkg/symtab"
	"github.com/coldb/coldb/pkg/tderr"
	"github.com/coldb/coldb/pkg/vector"
	"github.com/coldb/coldb/pkg/workerpool"
)

// Executor walks a single optimized graph.Graph, memoizing each node's
// evaluated Value so a node referenced by more than one consumer (a
// fused predicate chain, a column reused by two PROJECT outputs) runs
// exactly once (spec §4.9). An Executor is owned by a single goroutine
// for the duration of one Execute call, matching the graph's own
// single-owner discipline (spec §5).
type Executor struct {
	Heap  *block.Heap
	Names *symtab.Table
	Pool  *workerpool.Pool

	g    *graph.Graph
	memo map[graph.NodeID]Value
}

// New builds an Executor. pool may be nil to use the process-wide
// singleton (spec §4.6).
func New(h *block.Heap, names *symtab.Table, pool *workerpool.Pool) *Executor {
	if pool == nil {
		pool = workerpool.Get()
	}
	return &Executor{Heap: h, Names: names, Pool: pool}
}

// Execute evaluates g bottom-up, rooted at root, and returns the root's
// result (spec §4.9's state machine collapses to this single call: coldb
// has no separate "executing" observable state since Go's call stack
// already serializes it). The pool's cancellation flag is cleared at
// entry (spec §4.6: "cleared at the start of each query").
func (ex *Executor) Execute(g *graph.Graph, root graph.NodeID) (Value, error) {
	ex.g = g
	ex.memo = make(map[graph.NodeID]Value, g.NNodes())
	ex.Pool.ClearCancel()

	out, err := ex.eval(root)

	for _, v := range ex.memo {
		_ = Release(v)
	}
	ex.memo = nil

	if err != nil {
		_ = Release(out)
		return Value{}, err
	}
	return out, nil
}

// eval returns a freshly retained Value for id, computing and memoizing it
// on first visit. Every non-memo-hit return value below is already an
// "owned" reference (callers downstream retain it again only when they
// hand out a second copy).
func (ex *Executor) eval(id graph.NodeID) (Value, error) {
	if v, ok := ex.memo[id]; ok {
		return Retain(v), nil
	}
	if ex.Pool.Cancelled() {
		return Value{}, tderr.New(tderr.KindCancelled, "exec: cancelled")
	}

	n := ex.g.Node(id)
	out, err := ex.evalNode(id, n)
	if err != nil {
		return Value{}, err
	}
	ex.memo[id] = out
	return Retain(out), nil
}

func (ex *Executor) evalNode(id graph.NodeID, n *graph.Node) (Value, error) {
	switch n.Opcode {
	case graph.OpScan:
		return ex.evalScan(id)
	case graph.OpConst:
		lit := ex.g.Ext(id).Literal
		block.Retain(lit)
		return AtomValue(lit), nil

	case graph.OpNeg, graph.OpAbs, graph.OpSqrt, graph.OpLog, graph.OpExp, graph.OpCeil, graph.OpFloor:
		a, err := ex.eval(n.Inputs[0])
		if err != nil {
			return Value{}, err
		}
		defer Release(a)
		return ex.evalUnaryMath(n, a)
	case graph.OpNot, graph.OpIsNull:
		a, err := ex.eval(n.Inputs[0])
		if err != nil {
			return Value{}, err
		}
		defer Release(a)
		return ex.evalUnaryLogic(n, a)
	case graph.OpCast:
		a, err := ex.eval(n.Inputs[0])
		if err != nil {
			return Value{}, err
		}
		defer Release(a)
		return ex.evalCast(n, a)
	case graph.OpUpper, graph.OpLower, graph.OpStrLen, graph.OpTrim:
		a, err := ex.eval(n.Inputs[0])
		if err != nil {
			return Value{}, err
		}
		defer Release(a)
		return ex.evalUnaryString(n, a)

	case graph.OpAdd, graph.OpSub, graph.OpMul, graph.OpDiv, graph.OpMod,
		graph.OpAnd, graph.OpOr,
		graph.OpEq, graph.OpNe, graph.OpLt, graph.OpLe, graph.OpGt, graph.OpGe:
		a, err := ex.eval(n.Inputs[0])
		if err != nil {
			return Value{}, err
		}
		defer Release(a)
		b, err := ex.eval(n.Inputs[1])
		if err != nil {
			return Value{}, err
		}
		defer Release(b)
		return ex.evalBinary(n, a, b)
	case graph.OpLike, graph.OpILike:
		a, err := ex.eval(n.Inputs[0])
		if err != nil {
			return Value{}, err
		}
		defer Release(a)
		b, err := ex.eval(n.Inputs[1])
		if err != nil {
			return Value{}, err
		}
		defer Release(b)
		return ex.evalLike(n, a, b)

	case graph.OpIf:
		return ex.evalIf(id, n)
	case graph.OpSubstr:
		return ex.evalSubstr(id, n)
	case graph.OpReplace:
		return ex.evalReplace(id, n)
	case graph.OpConcat:
		return ex.evalConcat(id, n)

	case graph.OpFilter:
		a, err := ex.eval(n.Inputs[0])
		if err != nil {
			return Value{}, err
		}
		defer Release(a)
		p, err := ex.eval(n.Inputs[1])
		if err != nil {
			return Value{}, err
		}
		defer Release(p)
		return ex.evalFilter(a, p)
	case graph.OpHead:
		return ex.evalHeadTail(id, n, true)
	case graph.OpTail:
		return ex.evalHeadTail(id, n, false)
	case graph.OpMaterialize:
		a, err := ex.eval(n.Inputs[0])
		if err != nil {
			return Value{}, err
		}
		return ex.evalMaterialize(a)
	case graph.OpProject, graph.OpSelect:
		return ex.evalProject(id, n)
	case graph.OpAlias:
		return ex.eval(n.Inputs[0])
	case graph.OpGroup:
		return ex.evalGroup(id, n)
	case graph.OpDistinct:
		return ex.evalDistinct(id, n)
	case graph.OpSort:
		return ex.evalSort(id, n)
	case graph.OpJoin:
		return ex.evalJoin(id, n)
	case graph.OpWindow:
		return ex.evalWindow(id, n)
	case graph.OpWindowJoin:
		return ex.evalWindowJoin(id, n)
	default:
		return Value{}, tderr.New(tderr.KindNotImplemented, "exec: opcode %v not implemented", n.Opcode)
	}
}

func (ex *Executor) evalScan(id graph.NodeID) (Value, error) {
	name := ex.g.ScanName(id)
	tbl := ex.g.ScanTableOf(id)
	if tbl == nil {
		return Value{}, tderr.New(tderr.KindDomain, "exec: scan: node has no source table")
	}
	col, ok := tbl.Col(name)
	if !ok {
		return Value{}, tderr.New(tderr.KindSchema, "exec: scan: column id %d not present", name)
	}
	vector.Retain(col)
	return VecValue(col), nil
}
