package optimize

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import "github.com/coldb/coldb/pkg/graph"

// fuseOperators marks scan+comparison predicate chains feeding a FILTER
// with FlagFused (spec §4.8 pass 3): "fusing scan+comparison predicates
// into filter inputs" so the executor evaluates them as one morsel pass
// instead of materializing an intermediate BOOL vector per comparison.
// This is a local rewrite -- it only sets flags, it never removes a node
// or changes Inputs -- so an un-fused executor still produces identical
// output; fusion is purely an execution-strategy hint.
func fuseOperators(g *graph.Graph) {
	g.Walk(func(n *graph.Node) {
		if n.Opcode != graph.OpFilter {
			return
		}
		markFusedChain(g, n.Inputs[1])
	})
}

// markFusedChain flags id and, recursively, every SCAN/CONST-rooted
// comparison/arithmetic/logical operand feeding it, stopping at the first
// node that isn't a pure element-wise op (a structural op's output must be
// materialized before a predicate can run over it).
func markFusedChain(g *graph.Graph, id graph.NodeID) {
	n := g.Node(id)
	if n.Opcode != graph.OpScan && n.Opcode != graph.OpConst && !isElementwise(n.Opcode) {
		return
	}
	n.Flags |= graph.FlagFused
	if n.Opcode == graph.OpScan || n.Opcode == graph.OpConst {
		return
	}
	for i := uint8(0); i < n.Arity; i++ {
		markFusedChain(g, n.Inputs[i])
	}
}

func isElementwise(op graph.Opcode) bool {
	switch op {
	case graph.OpNeg, graph.OpAbs, graph.OpNot, graph.OpSqrt, graph.OpLog, graph.OpExp,
		graph.OpCeil, graph.OpFloor, graph.OpIsNull, graph.OpCast,
		graph.OpAdd, graph.OpSub, graph.OpMul, graph.OpDiv, graph.OpMod,
		graph.OpAnd, graph.OpOr, graph.OpEq, graph.OpNe, graph.OpLt, graph.OpLe, graph.OpGt, graph.OpGe:
		return true
	default:
		return false
	}
}
