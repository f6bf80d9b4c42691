package optimize

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"math"

	"github.com/coldb/coldb/pkg/block"
	"github.com/coldb/coldb/pkg/graph"
)

// foldConstants folds every unary/binary node whose operands are all CONST
// atom literals into a fresh CONST node carrying the computed value (spec
// §4.8 pass 2). A folded node keeps its NodeID (so later nodes' Inputs
// stay valid) but is rewritten in place to opcode CONST. Folding never
// touches a node that owns structural ext data of its own -- ternary and
// variadic operators, and anything NeedsExtNode flags -- per spec's
// "folding never replaces a node that owns structural ext data".
func foldConstants(h *block.Heap, g *graph.Graph) error {
	for i := 0; i < g.NNodes(); i++ {
		n := g.Node(graph.NodeID(i))
		if n.Dead() || graph.NeedsExtNode(n.Opcode) {
			continue
		}
		switch n.Arity {
		case 1:
			if err := foldUnary(h, g, n); err != nil {
				return err
			}
		case 2:
			if err := foldBinary(h, g, n); err != nil {
				return err
			}
		}
	}
	foldConstantFilters(h, g)
	return nil
}

func isConst(g *graph.Graph, id graph.NodeID) bool {
	return g.Node(id).Opcode == graph.OpConst
}

func literalOf(g *graph.Graph, id graph.NodeID) *block.Block {
	e := g.Ext(id)
	if e == nil {
		return nil
	}
	return e.Literal
}

func rewriteConst(h *block.Heap, g *graph.Graph, n *graph.Node, lit *block.Block) {
	n.Opcode = graph.OpConst
	n.Arity = 0
	n.Inputs = [2]graph.NodeID{}
	n.OutType = block.AtomKind(lit)
	// addNode already assigned n.ID; setExt overwrites any stale ext entry.
	g.SetExt(n.ID, &graph.ExtNode{Literal: lit})
}

func foldUnary(h *block.Heap, g *graph.Graph, n *graph.Node) error {
	a := n.Inputs[0]
	if !isConst(g, a) {
		return nil
	}
	lit := literalOf(g, a)
	if lit == nil {
		return nil
	}
	out, err := evalUnaryAtom(h, n.Opcode, lit)
	if err != nil || out == nil {
		return err
	}
	rewriteConst(h, g, n, out)
	return nil
}

func foldBinary(h *block.Heap, g *graph.Graph, n *graph.Node) error {
	a, b := n.Inputs[0], n.Inputs[1]
	if !isConst(g, a) || !isConst(g, b) {
		return nil
	}
	la, lb := literalOf(g, a), literalOf(g, b)
	if la == nil || lb == nil {
		return nil
	}
	out, err := evalBinaryAtom(h, n.Opcode, la, lb)
	if err != nil || out == nil {
		return err
	}
	rewriteConst(h, g, n, out)
	return nil
}

// foldConstantFilters rewrites a FILTER whose predicate is a constant
// BOOL literal: constant-true -> MATERIALIZE, constant-false -> an empty
// HEAD (spec §4.8).
func foldConstantFilters(h *block.Heap, g *graph.Graph) {
	for i := 0; i < g.NNodes(); i++ {
		n := g.Node(graph.NodeID(i))
		if n.Dead() || n.Opcode != graph.OpFilter {
			continue
		}
		pred := n.Inputs[1]
		if !isConst(g, pred) {
			continue
		}
		lit := literalOf(g, pred)
		if lit == nil || block.AtomKind(lit) != block.TagBool {
			continue
		}
		input := n.Inputs[0]
		if block.AtomBool(lit) {
			n.Opcode = graph.OpMaterialize
			n.Arity = 1
			n.Inputs = [2]graph.NodeID{input}
		} else {
			zero, _ := block.NewAtomI64(h, 0)
			n.Opcode = graph.OpHead
			n.Arity = 1
			n.Inputs = [2]graph.NodeID{input}
			n.EstRows = 0
			g.SetExt(n.ID, &graph.ExtNode{Literal: zero})
		}
	}
}

func isFloat(t block.Tag) bool { return t == block.TagF64 }

func asF64(b *block.Block) float64 {
	if isFloat(block.AtomKind(b)) {
		return block.AtomF64(b)
	}
	if block.AtomKind(b) == block.TagBool {
		if block.AtomBool(b) {
			return 1
		}
		return 0
	}
	return float64(block.AtomI64(b))
}

func asI64(b *block.Block) int64 {
	switch block.AtomKind(b) {
	case block.TagBool:
		if block.AtomBool(b) {
			return 1
		}
		return 0
	case block.TagF64:
		return int64(block.AtomF64(b))
	case block.TagI32, block.TagDate:
		return int64(block.AtomI32(b))
	default:
		return block.AtomI64(b)
	}
}

func evalUnaryAtom(h *block.Heap, op graph.Opcode, a *block.Block) (*block.Block, error) {
	if block.IsNullAtom(a) {
		return nil, nil
	}
	switch op {
	case graph.OpNeg:
		if isFloat(block.AtomKind(a)) {
			return block.NewAtomF64(h, -asF64(a))
		}
		return block.NewAtomI64(h, -asI64(a))
	case graph.OpAbs:
		if isFloat(block.AtomKind(a)) {
			return block.NewAtomF64(h, math.Abs(asF64(a)))
		}
		v := asI64(a)
		if v < 0 {
			v = -v
		}
		return block.NewAtomI64(h, v)
	case graph.OpSqrt:
		return block.NewAtomF64(h, math.Sqrt(asF64(a)))
	case graph.OpLog:
		return block.NewAtomF64(h, math.Log(asF64(a)))
	case graph.OpExp:
		return block.NewAtomF64(h, math.Exp(asF64(a)))
	case graph.OpCeil:
		return block.NewAtomF64(h, math.Ceil(asF64(a)))
	case graph.OpFloor:
		return block.NewAtomF64(h, math.Floor(asF64(a)))
	case graph.OpNot:
		return block.NewAtomBool(h, !block.AtomBool(a))
	default:
		return nil, nil // not a foldable unary op (cast/string ops left to the executor)
	}
}

func evalBinaryAtom(h *block.Heap, op graph.Opcode, a, b *block.Block) (*block.Block, error) {
	if block.IsNullAtom(a) || block.IsNullAtom(b) {
		return nil, nil
	}
	switch op {
	case graph.OpAdd, graph.OpSub, graph.OpMul:
		return foldArith(h, op, a, b)
	case graph.OpDiv:
		return block.NewAtomF64(h, divF64(asF64(a), asF64(b)))
	case graph.OpMod:
		return foldMod(h, a, b)
	case graph.OpAnd:
		return block.NewAtomBool(h, block.AtomBool(a) && block.AtomBool(b))
	case graph.OpOr:
		return block.NewAtomBool(h, block.AtomBool(a) || block.AtomBool(b))
	case graph.OpEq, graph.OpNe, graph.OpLt, graph.OpLe, graph.OpGt, graph.OpGe:
		return foldCompare(h, op, a, b)
	default:
		return nil, nil
	}
}

// divF64 implements IEEE-754 division: divide by zero yields signed
// infinity, 0/0 yields NaN (spec §4.8).
func divF64(a, b float64) float64 { return a / b }

func foldArith(h *block.Heap, op graph.Opcode, a, b *block.Block) (*block.Block, error) {
	if isFloat(block.AtomKind(a)) || isFloat(block.AtomKind(b)) {
		x, y := asF64(a), asF64(b)
		switch op {
		case graph.OpAdd:
			return block.NewAtomF64(h, x+y)
		case graph.OpSub:
			return block.NewAtomF64(h, x-y)
		default:
			return block.NewAtomF64(h, x*y)
		}
	}
	x, y := asI64(a), asI64(b)
	switch op {
	case graph.OpAdd:
		return block.NewAtomI64(h, x+y)
	case graph.OpSub:
		return block.NewAtomI64(h, x-y)
	default:
		return block.NewAtomI64(h, x*y)
	}
}

// foldMod implements integer modulo-by-zero -> 0 (spec §4.8); float
// modulo falls back to math.Mod.
func foldMod(h *block.Heap, a, b *block.Block) (*block.Block, error) {
	if isFloat(block.AtomKind(a)) || isFloat(block.AtomKind(b)) {
		return block.NewAtomF64(h, math.Mod(asF64(a), asF64(b)))
	}
	y := asI64(b)
	if y == 0 {
		return block.NewAtomI64(h, 0)
	}
	return block.NewAtomI64(h, asI64(a)%y)
}

func foldCompare(h *block.Heap, op graph.Opcode, a, b *block.Block) (*block.Block, error) {
	var cmp int
	if isFloat(block.AtomKind(a)) || isFloat(block.AtomKind(b)) {
		x, y := asF64(a), asF64(b)
		switch {
		case x < y:
			cmp = -1
		case x > y:
			cmp = 1
		default:
			cmp = 0
		}
	} else {
		x, y := asI64(a), asI64(b)
		switch {
		case x < y:
			cmp = -1
		case x > y:
			cmp = 1
		default:
			cmp = 0
		}
	}
	var r bool
	switch op {
	case graph.OpEq:
		r = cmp == 0
	case graph.OpNe:
		r = cmp != 0
	case graph.OpLt:
		r = cmp < 0
	case graph.OpLe:
		r = cmp <= 0
	case graph.OpGt:
		r = cmp > 0
	case graph.OpGe:
		r = cmp >= 0
	}
	return block.NewAtomBool(h, r)
}
