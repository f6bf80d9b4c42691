package graph

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import "github.com/coldb/coldb/pkg/block"

// NodeID indexes into a Graph's flat node array. Go has a real garbage
// collector and bounds-checked slices, so coldb replaces the spec's
// "pointer fix-up on reallocation" scheme with index stability: growing
// the backing slice never invalidates a NodeID the way it would a raw
// pointer (spec §9's own "index into an arena instead of a pointer"
// suggestion).
type NodeID uint32

// Flag bits set by the optimizer (spec §4.8).
const (
	FlagFused uint8 = 1 << iota
	FlagDead
)

// Node is one operator in the graph: {id, opcode, arity<=2, inputs[2],
// out_type, est_rows, flags}, exactly spec §4.7's shape. Operators needing
// more operands or structural parameters keep those in a side-table
// ExtNode keyed by the node's id.
type Node struct {
	ID      NodeID
	Opcode  Opcode
	Arity   uint8
	Inputs  [2]NodeID
	OutType block.Tag
	EstRows int64
	Flags   uint8
}

func (n *Node) Fused() bool { return n.Flags&FlagFused != 0 }
func (n *Node) Dead() bool  { return n.Flags&FlagDead != 0 }
