package graph

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"github.com/coldb/coldb/pkg/block"
	"github.com/coldb/coldb/pkg/symtab"
	"github.com/coldb/coldb/pkg/tderr"
	"github.com/coldb/coldb/pkg/vector"
)

// Scan adds a source node reading column name from the graph's bound
// table (spec §4.7: "every source operator produces a definite out_type
// at construction").
func (g *Graph) Scan(names *symtab.Table, name string) (NodeID, error) {
	if g.Table == nil {
		return 0, tderr.New(tderr.KindDomain, "graph: scan requires a bound table")
	}
	return g.ScanTable(names, g.Table, name)
}

// ScanTable adds a source node reading column name from tbl, an arbitrary
// table rather than the graph's default Table. Node ids only have meaning
// within one graph's arena, so a JOIN/WINDOWJOIN's right-hand side scans
// its second table this way, inside the same graph as the left side (spec
// §9 Open Question: the source's single-table-per-graph model is
// generalized here rather than requiring one Graph per joined table).
func (g *Graph) ScanTable(names *symtab.Table, tbl *vector.Table, name string) (NodeID, error) {
	col, ok := tbl.ColByName(names, name)
	if !ok {
		return 0, tderr.New(tderr.KindSchema, "graph: no such column %q", name)
	}
	base := col.Tag()
	if b, ok := block.IsParted(base); ok {
		base = b
	}
	nameID := names.InternString(name)
	id := g.addNode(Node{Opcode: OpScan, Arity: 0, OutType: base, EstRows: int64(colRows(col))})
	g.setExt(id, &ExtNode{Names: []int64{nameID}, ScanTable: tbl})
	return id, nil
}

// ScanName returns a SCAN node's source column name id (spec §6.4). Panics
// if id is not a SCAN node -- callers (the executor) always check
// Opcode first.
func (g *Graph) ScanName(id NodeID) int64 {
	return g.Ext(id).Names[0]
}

// ScanTableOf returns a SCAN node's source table: its ext-node's
// ScanTable if set, otherwise the graph's default Table.
func (g *Graph) ScanTableOf(id NodeID) *vector.Table {
	if ext := g.Ext(id); ext != nil && ext.ScanTable != nil {
		return ext.ScanTable
	}
	return g.Table
}

func colRows(v interface{ Len() int }) int { return v.Len() }

// constNode is the shared implementation behind ConstBool/ConstI64/....
func (g *Graph) constNode(lit *block.Block) NodeID {
	id := g.addNode(Node{Opcode: OpConst, Arity: 0, OutType: block.AtomKind(lit), EstRows: 1})
	g.setExt(id, &ExtNode{Literal: lit})
	return id
}

// ConstBool adds a scalar BOOL literal node.
func (g *Graph) ConstBool(h *block.Heap, v bool) (NodeID, error) {
	lit, err := block.NewAtomBool(h, v)
	if err != nil {
		return 0, err
	}
	return g.constNode(lit), nil
}

// ConstI64 adds a scalar I64-class literal node.
func (g *Graph) ConstI64(h *block.Heap, v int64) (NodeID, error) {
	lit, err := block.NewAtomI64(h, v)
	if err != nil {
		return 0, err
	}
	return g.constNode(lit), nil
}

// ConstF64 adds a scalar F64 literal node.
func (g *Graph) ConstF64(h *block.Heap, v float64) (NodeID, error) {
	lit, err := block.NewAtomF64(h, v)
	if err != nil {
		return 0, err
	}
	return g.constNode(lit), nil
}

// ConstSym adds a scalar SYM literal node from an already-interned id.
func (g *Graph) ConstSym(h *block.Heap, id int64) (NodeID, error) {
	lit, err := block.NewAtomSym(h, id)
	if err != nil {
		return 0, err
	}
	return g.constNode(lit), nil
}

// unaryOutType computes a unary operator's output type at construction
// (spec §4.7).
func unaryOutType(op Opcode, in block.Tag, castTo block.Tag) block.Tag {
	switch op {
	case OpIsNull, OpNot:
		return block.TagBool
	case OpCast:
		return castTo
	case OpUpper, OpLower, OpTrim:
		return block.TagSym
	case OpStrLen:
		return block.TagI64
	case OpSqrt, OpLog, OpExp, OpCeil, OpFloor:
		return block.TagF64
	default: // NEG, ABS
		return in
	}
}

// Unary adds a unary element-wise node (spec §4.7/§4.9). castTo is only
// consulted when op is OpCast.
func (g *Graph) Unary(op Opcode, a NodeID, castTo block.Tag) (NodeID, error) {
	if err := g.checkID(a); err != nil {
		return 0, err
	}
	in := g.Node(a).OutType
	out := unaryOutType(op, in, castTo)
	id := g.addNode(Node{Opcode: op, Arity: 1, Inputs: [2]NodeID{a}, OutType: out, EstRows: g.Node(a).EstRows})
	return id, nil
}

// binaryOutType computes a binary operator's output type via numeric
// promotion, overridden where semantics fix the output: div->F64,
// comparisons->BOOL, string ops->SYM (spec §4.7).
func binaryOutType(op Opcode, a, b block.Tag) block.Tag {
	switch {
	case op == OpDiv:
		return block.TagF64
	case IsComparison(op):
		return block.TagBool
	case IsStringOp(op):
		return block.TagSym
	default:
		return block.Promote(a, b)
	}
}

// Binary adds a binary element-wise node, saving both operand ids before
// allocating the new node (spec §4.7's construction rule; with an
// index-addressed graph this is naturally safe, but the order is kept
// explicit to match the spec's stated discipline).
func (g *Graph) Binary(op Opcode, a, b NodeID) (NodeID, error) {
	if err := g.checkID(a); err != nil {
		return 0, err
	}
	if err := g.checkID(b); err != nil {
		return 0, err
	}
	ta, tb := g.Node(a).OutType, g.Node(b).OutType
	out := binaryOutType(op, ta, tb)
	ra, rb := g.Node(a).EstRows, g.Node(b).EstRows
	est := ra
	if rb > est {
		est = rb
	}
	id := g.addNode(Node{Opcode: op, Arity: 2, Inputs: [2]NodeID{a, b}, OutType: out, EstRows: est})
	return id, nil
}

// Ternary adds a three-operand node (IF, SUBSTR, REPLACE); c is encoded as
// a node id in the ext-node literal slot (spec §4.7).
func (g *Graph) Ternary(op Opcode, a, b, c NodeID) (NodeID, error) {
	for _, id := range []NodeID{a, b, c} {
		if err := g.checkID(id); err != nil {
			return 0, err
		}
	}
	var out block.Tag
	switch op {
	case OpIf:
		out = block.Promote(g.Node(b).OutType, g.Node(c).OutType)
	case OpSubstr, OpReplace:
		out = block.TagSym
	default:
		return 0, tderr.New(tderr.KindNotImplemented, "graph: unsupported ternary opcode %v", op)
	}
	id := g.addNode(Node{Opcode: op, Arity: 2, Inputs: [2]NodeID{a, b}, OutType: out, EstRows: g.Node(a).EstRows})
	g.setExt(id, &ExtNode{LiteralNode: c})
	return id, nil
}

// Concat adds a variadic CONCAT node: operands[0] sits in Inputs[0], the
// rest in the ext-node's Children (spec §4.7: "variadic CONCAT stores
// operand count in an ext field and the trailing operand ids... after the
// ext-node").
func (g *Graph) Concat(operands ...NodeID) (NodeID, error) {
	if len(operands) == 0 {
		return 0, tderr.New(tderr.KindRank, "graph: concat requires at least one operand")
	}
	for _, id := range operands {
		if err := g.checkID(id); err != nil {
			return 0, err
		}
	}
	id := g.addNode(Node{Opcode: OpConcat, Arity: 1, Inputs: [2]NodeID{operands[0]}, OutType: block.TagSym, EstRows: g.Node(operands[0]).EstRows})
	g.setExt(id, &ExtNode{Children: append([]NodeID(nil), operands[1:]...)})
	return id, nil
}
