package graph

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"github.com/coldb/coldb/pkg/tderr"
	"github.com/coldb/coldb/pkg/vector"
)

// Graph is a query graph bound to a table (or unbound): a flat, growable
// node array plus a side table of extended nodes (spec §4.7). A Graph is
// owned by a single goroutine for the lifetime of a query and is not
// safe for concurrent use (spec §5: "not thread-safe").
type Graph struct {
	Table *vector.Table

	nodes []Node
	ext   map[NodeID]*ExtNode
}

// New creates a graph bound to tbl. tbl may be nil for an unbound graph
// (e.g. one built purely from constants).
func New(tbl *vector.Table) *Graph {
	return &Graph{Table: tbl, ext: make(map[NodeID]*ExtNode)}
}

// NNodes returns the number of nodes in the graph, including dead ones.
func (g *Graph) NNodes() int { return len(g.nodes) }

// Node returns a pointer into the graph's backing array. The pointer is
// only valid until the next addNode call, since appends may reallocate;
// callers that need to keep a node's data across a builder call should
// copy it or re-fetch by id.
func (g *Graph) Node(id NodeID) *Node {
	return &g.nodes[id]
}

// Ext returns id's extended node, or nil if it has none.
func (g *Graph) Ext(id NodeID) *ExtNode {
	return g.ext[id]
}

// addNode appends n (whose ID is assigned here) and returns its id.
// Builders must capture any operand ids they need *before* calling
// addNode, since a reallocation invalidates previously returned *Node
// pointers (not ids -- ids remain valid forever, spec §4.7's construction
// rule restated for an arena-indexed graph).
func (g *Graph) addNode(n Node) NodeID {
	id := NodeID(len(g.nodes))
	n.ID = id
	g.nodes = append(g.nodes, n)
	return id
}

func (g *Graph) setExt(id NodeID, e *ExtNode) {
	e.Node = id
	g.ext[id] = e
}

// SetExt replaces id's extended node. Exported for pkg/optimize, which
// rewrites folded/fused nodes in place (spec §4.8) and must attach a new
// ext-node (e.g. a CONST's folded literal) without reaching into package
// internals.
func (g *Graph) SetExt(id NodeID, e *ExtNode) {
	g.setExt(id, e)
}

// ClearExt removes id's extended node, if any (used when rewriting a node
// that no longer needs one, e.g. a folded arithmetic op becoming CONST
// keeps an ext-node, but DCE rewrites don't always).
func (g *Graph) ClearExt(id NodeID) {
	delete(g.ext, id)
}

func (g *Graph) checkID(id NodeID) error {
	if int(id) >= len(g.nodes) {
		return tderr.New(tderr.KindRange, "graph: node id %d out of range [0,%d)", id, len(g.nodes))
	}
	return nil
}

// Walk calls visit for every live (non-dead) node in id order.
func (g *Graph) Walk(visit func(*Node)) {
	for i := range g.nodes {
		if !g.nodes[i].Dead() {
			visit(&g.nodes[i])
		}
	}
}
