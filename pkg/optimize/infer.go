package optimize

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"github.com/coldb/coldb/pkg/block"
	"github.com/coldb/coldb/pkg/graph"
)

// inferTypes walks every node in construction order -- operands are
// always assigned a lower NodeID than the nodes that reference them, so a
// single forward pass is already post-order -- and fills in OutType for
// any node the builder left unset (spec §4.8 pass 1: "if a node's out_type
// is unset (0), propagate from inputs using the promotion rule"). In
// practice pkg/graph's builders compute OutType eagerly at construction,
// so this pass is a confirming no-op for graphs built entirely through
// the builder API; it exists so a graph assembled by direct field
// mutation (tests, future front-ends) still resolves correctly.
func inferTypes(g *graph.Graph) {
	g.Walk(func(n *graph.Node) {
		if n.OutType != block.TagList {
			return
		}
		switch n.Arity {
		case 1:
			n.OutType = unaryType(g, n)
		case 2:
			n.OutType = binaryType(g, n)
		}
	})
}

func unaryType(g *graph.Graph, n *graph.Node) block.Tag {
	in := g.Node(n.Inputs[0]).OutType
	switch n.Opcode {
	case graph.OpIsNull, graph.OpNot:
		return block.TagBool
	case graph.OpUpper, graph.OpLower, graph.OpTrim:
		return block.TagSym
	case graph.OpStrLen:
		return block.TagI64
	case graph.OpSqrt, graph.OpLog, graph.OpExp, graph.OpCeil, graph.OpFloor:
		return block.TagF64
	default:
		return in
	}
}

func binaryType(g *graph.Graph, n *graph.Node) block.Tag {
	a, b := g.Node(n.Inputs[0]).OutType, g.Node(n.Inputs[1]).OutType
	switch {
	case n.Opcode == graph.OpDiv:
		return block.TagF64
	case graph.IsComparison(n.Opcode):
		return block.TagBool
	case graph.IsStringOp(n.Opcode):
		return block.TagSym
	default:
		return block.Promote(a, b)
	}
}
