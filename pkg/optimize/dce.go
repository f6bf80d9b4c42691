package optimize

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import "github.com/coldb/coldb/pkg/graph"

// eliminateDeadCode marks every node NOT reachable from root with
// FlagDead via reverse reachability (spec §4.8 pass 4), following both
// Inputs[0:arity] and every structural ext-node reference: a ternary op's
// third operand, CONCAT's trailing operands, and GROUP/SORT/JOIN/WINDOW/
// PROJECT/SELECT's key and column-expression node ids -- so a column
// referenced only by a GROUP key (say) is never dropped as unreachable.
func eliminateDeadCode(g *graph.Graph, root graph.NodeID) {
	live := make(map[graph.NodeID]bool, g.NNodes())
	var visit func(id graph.NodeID)
	visit = func(id graph.NodeID) {
		if live[id] {
			return
		}
		live[id] = true
		n := g.Node(id)
		for i := uint8(0); i < n.Arity; i++ {
			visit(n.Inputs[i])
		}
		for _, ref := range extRefs(g, n) {
			visit(ref)
		}
	}
	visit(root)

	for i := 0; i < g.NNodes(); i++ {
		id := graph.NodeID(i)
		if !live[id] {
			g.Node(id).Flags |= graph.FlagDead
		}
	}
}

// extRefs returns every NodeID a node's ext-node references, depending on
// its owning node's opcode (spec §4.8: "ext-node children of structural
// ops ... are followed to avoid marking referenced nodes dead").
func extRefs(g *graph.Graph, n *graph.Node) []graph.NodeID {
	e := g.Ext(n.ID)
	if e == nil {
		return nil
	}
	var refs []graph.NodeID
	switch n.Opcode {
	case graph.OpIf, graph.OpSubstr, graph.OpReplace:
		refs = append(refs, e.LiteralNode)
	case graph.OpConcat:
		refs = append(refs, e.Children...)
	case graph.OpGroup:
		refs = append(refs, e.Children...)
		refs = append(refs, e.AggInputs...)
	case graph.OpDistinct, graph.OpSort:
		refs = append(refs, e.Children...)
	case graph.OpProject, graph.OpSelect:
		refs = append(refs, e.Children...)
	case graph.OpJoin:
		refs = append(refs, e.RightNode)
		refs = append(refs, e.LeftKeys...)
		refs = append(refs, e.RightKeys...)
	case graph.OpWindow:
		refs = append(refs, e.Children...)
		refs = append(refs, e.OrderKeys...)
		for _, f := range e.Funcs {
			refs = append(refs, f.Input)
		}
	case graph.OpWindowJoin:
		refs = append(refs, e.RightNode, e.AsOfKeyLeft, e.AsOfTimeLeft, e.AsOfKeyRight, e.AsOfTimeRight)
	}
	return refs
}
