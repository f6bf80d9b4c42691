package graph

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"github.com/coldb/coldb/pkg/block"
	"github.com/coldb/coldb/pkg/tderr"
)

// Filter adds a FILTER node: pred must be BOOL-typed; the output keeps
// input's element type (spec §4.9).
func (g *Graph) Filter(input, pred NodeID) (NodeID, error) {
	if err := g.checkID(input); err != nil {
		return 0, err
	}
	if err := g.checkID(pred); err != nil {
		return 0, err
	}
	if g.Node(pred).OutType != block.TagBool {
		return 0, tderr.New(tderr.KindType, "graph: filter predicate must be BOOL, got %v", g.Node(pred).OutType)
	}
	id := g.addNode(Node{Opcode: OpFilter, Arity: 2, Inputs: [2]NodeID{input, pred}, OutType: g.Node(input).OutType})
	return id, nil
}

// Head/Tail add a HEAD(n)/TAIL(n) node selecting the first/last n rows of
// input (spec §4.9). The executor copies those rows into fresh storage;
// the result is not a slice view of input.
func (g *Graph) head(op Opcode, h *block.Heap, input NodeID, n int64) (NodeID, error) {
	if err := g.checkID(input); err != nil {
		return 0, err
	}
	lit, err := block.NewAtomI64(h, n)
	if err != nil {
		return 0, err
	}
	est := n
	if est > g.Node(input).EstRows {
		est = g.Node(input).EstRows
	}
	id := g.addNode(Node{Opcode: op, Arity: 1, Inputs: [2]NodeID{input}, OutType: g.Node(input).OutType, EstRows: est})
	g.setExt(id, &ExtNode{Literal: lit})
	return id, nil
}

func (g *Graph) Head(h *block.Heap, input NodeID, n int64) (NodeID, error) {
	return g.head(OpHead, h, input, n)
}

func (g *Graph) Tail(h *block.Heap, input NodeID, n int64) (NodeID, error) {
	return g.head(OpTail, h, input, n)
}

// Materialize adds a MATERIALIZE node, forcing a lazily-sliced result into
// a dense contiguous vector/table (spec §4.9).
func (g *Graph) Materialize(input NodeID) (NodeID, error) {
	if err := g.checkID(input); err != nil {
		return 0, err
	}
	id := g.addNode(Node{Opcode: OpMaterialize, Arity: 1, Inputs: [2]NodeID{input}, OutType: g.Node(input).OutType, EstRows: g.Node(input).EstRows})
	return id, nil
}

// Project/Select compose a new table from enumerated column expressions
// over input (spec §4.9, §6.4); names[i] is the interned output column
// name for cols[i]. The two builders differ only by opcode: the executor
// evaluates PROJECT and SELECT identically, and neither applies a row
// predicate.
func (g *Graph) project(op Opcode, input NodeID, names []int64, cols []NodeID) (NodeID, error) {
	if err := g.checkID(input); err != nil {
		return 0, err
	}
	if len(names) != len(cols) {
		return 0, tderr.New(tderr.KindRank, "graph: project needs one name per column, got %d names, %d cols", len(names), len(cols))
	}
	for _, c := range cols {
		if err := g.checkID(c); err != nil {
			return 0, err
		}
	}
	id := g.addNode(Node{Opcode: op, Arity: 1, Inputs: [2]NodeID{input}, OutType: block.TagTable, EstRows: g.Node(input).EstRows})
	g.setExt(id, &ExtNode{Children: append([]NodeID(nil), cols...), Names: append([]int64(nil), names...)})
	return id, nil
}

func (g *Graph) Project(input NodeID, names []int64, cols []NodeID) (NodeID, error) {
	return g.project(OpProject, input, names, cols)
}

func (g *Graph) Select(input NodeID, names []int64, cols []NodeID) (NodeID, error) {
	return g.project(OpSelect, input, names, cols)
}

// Alias wraps expr so it is named id when it appears as a PROJECT/SELECT
// column (spec §6.4). The node's own semantics are a pass-through of expr.
func (g *Graph) Alias(expr NodeID, name int64) (NodeID, error) {
	if err := g.checkID(expr); err != nil {
		return 0, err
	}
	id := g.addNode(Node{Opcode: OpAlias, Arity: 1, Inputs: [2]NodeID{expr}, OutType: g.Node(expr).OutType, EstRows: g.Node(expr).EstRows})
	g.setExt(id, &ExtNode{Names: []int64{name}})
	return id, nil
}

// Group adds a GROUP node: keys/keyNames name the group-by columns,
// aggOps/aggInputs/aggNames name the aggregate outputs (spec §4.9). The
// output table's column order is keys followed by aggregates; ExtNode.Names
// holds keyNames followed by aggNames in that same order.
func (g *Graph) Group(keys []NodeID, keyNames []int64, aggOps []AggOp, aggInputs []NodeID, aggNames []int64) (NodeID, error) {
	if len(keys) != len(keyNames) {
		return 0, tderr.New(tderr.KindRank, "graph: group needs one name per key")
	}
	if len(aggOps) != len(aggInputs) || len(aggOps) != len(aggNames) {
		return 0, tderr.New(tderr.KindRank, "graph: group needs matching aggOps/aggInputs/aggNames")
	}
	for _, k := range keys {
		if err := g.checkID(k); err != nil {
			return 0, err
		}
	}
	for _, a := range aggInputs {
		if err := g.checkID(a); err != nil {
			return 0, err
		}
	}
	id := g.addNode(Node{Opcode: OpGroup, Arity: 0, OutType: block.TagTable})
	names := append(append([]int64(nil), keyNames...), aggNames...)
	g.setExt(id, &ExtNode{
		Children:  append([]NodeID(nil), keys...),
		Names:     names,
		AggOps:    append([]AggOp(nil), aggOps...),
		AggInputs: append([]NodeID(nil), aggInputs...),
	})
	return id, nil
}

// Reduce adds a whole-column aggregate as a GROUP with zero keys (spec
// §4.9's reductions are modeled as the degenerate one-group case of
// GROUP, matching §8's "group with a single key equal to a constant
// returns one group containing all rows" boundary behavior).
func (g *Graph) Reduce(op AggOp, input NodeID, outName int64) (NodeID, error) {
	return g.Group(nil, nil, []AggOp{op}, []NodeID{input}, []int64{outName})
}

// Distinct adds a DISTINCT node: dedups input's rows on keys.
func (g *Graph) Distinct(input NodeID, keys []NodeID) (NodeID, error) {
	if err := g.checkID(input); err != nil {
		return 0, err
	}
	for _, k := range keys {
		if err := g.checkID(k); err != nil {
			return 0, err
		}
	}
	id := g.addNode(Node{Opcode: OpDistinct, Arity: 1, Inputs: [2]NodeID{input}, OutType: block.TagTable})
	g.setExt(id, &ExtNode{Children: append([]NodeID(nil), keys...)})
	return id, nil
}

// Sort adds a multi-key SORT node (spec §4.9). desc/nullsFirst are
// parallel to keys and must have the same length. nullsFirst[i] places
// key i's nulls before its non-null values in ascending order; desc[i]
// reverses the whole comparison, null placement included, so false gives
// NULLS LAST ascending and NULLS FIRST descending.
func (g *Graph) Sort(input NodeID, keys []NodeID, desc []bool, nullsFirst []bool) (NodeID, error) {
	if err := g.checkID(input); err != nil {
		return 0, err
	}
	if len(keys) != len(desc) || len(keys) != len(nullsFirst) {
		return 0, tderr.New(tderr.KindRank, "graph: sort needs matching keys/desc/nullsFirst")
	}
	for _, k := range keys {
		if err := g.checkID(k); err != nil {
			return 0, err
		}
	}
	id := g.addNode(Node{Opcode: OpSort, Arity: 1, Inputs: [2]NodeID{input}, OutType: block.TagTable, EstRows: g.Node(input).EstRows})
	g.setExt(id, &ExtNode{
		Children:   append([]NodeID(nil), keys...),
		Desc:       append([]bool(nil), desc...),
		NullsFirst: append([]bool(nil), nullsFirst...),
	})
	return id, nil
}

// Join adds a hash JOIN node (spec §4.9).
func (g *Graph) Join(left, right NodeID, leftKeys, rightKeys []NodeID, jt JoinType) (NodeID, error) {
	if err := g.checkID(left); err != nil {
		return 0, err
	}
	if err := g.checkID(right); err != nil {
		return 0, err
	}
	if len(leftKeys) != len(rightKeys) || len(leftKeys) == 0 {
		return 0, tderr.New(tderr.KindRank, "graph: join needs at least one matching left/right key pair")
	}
	id := g.addNode(Node{Opcode: OpJoin, Arity: 1, Inputs: [2]NodeID{left}, OutType: block.TagTable})
	g.setExt(id, &ExtNode{
		RightNode: right,
		LeftKeys:  append([]NodeID(nil), leftKeys...),
		RightKeys: append([]NodeID(nil), rightKeys...),
		JoinType:  jt,
	})
	return id, nil
}

// Window adds a WINDOW node (spec §4.9): partitionKeys/orderKeys group and
// order input's rows; each fn in funcs produces one output column, same
// length as input.
func (g *Graph) Window(input NodeID, partitionKeys, orderKeys []NodeID, funcs []WindowFunc, frame WindowFrame) (NodeID, error) {
	if err := g.checkID(input); err != nil {
		return 0, err
	}
	id := g.addNode(Node{Opcode: OpWindow, Arity: 1, Inputs: [2]NodeID{input}, OutType: block.TagTable, EstRows: g.Node(input).EstRows})
	g.setExt(id, &ExtNode{
		Children:  append([]NodeID(nil), partitionKeys...),
		OrderKeys: append([]NodeID(nil), orderKeys...),
		Funcs:     append([]WindowFunc(nil), funcs...),
		Frame:     frame,
	})
	return id, nil
}

// WindowJoin adds an as-of join: an equi-join on a symbol key plus an
// inequality on a time key within [lo,hi] (spec §4.9).
func (g *Graph) WindowJoin(left, right, keyLeft, timeLeft, keyRight, timeRight NodeID, lo, hi int64) (NodeID, error) {
	for _, id := range []NodeID{left, right, keyLeft, timeLeft, keyRight, timeRight} {
		if err := g.checkID(id); err != nil {
			return 0, err
		}
	}
	id := g.addNode(Node{Opcode: OpWindowJoin, Arity: 1, Inputs: [2]NodeID{left}, OutType: block.TagTable})
	g.setExt(id, &ExtNode{
		RightNode:    right,
		AsOfKeyLeft:  keyLeft,
		AsOfTimeLeft: timeLeft,
		AsOfKeyRight: keyRight,
		AsOfTimeRight: timeRight,
		AsOfLo:       lo,
		AsOfHi:       hi,
	})
	return id, nil
}
