package graph

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"github.com/coldb/coldb/pkg/block"
	"github.com/coldb/coldb/pkg/vector"
)

// AggOp identifies a GROUP aggregate function (spec §4.9).
type AggOp uint8

const (
	AggSum AggOp = iota
	AggProd
	AggMin
	AggMax
	AggCount
	AggAvg
	AggFirst
	AggLast
	AggCountDistinct
)

// JoinType identifies a JOIN's semantics (spec §4.9).
type JoinType uint8

const (
	JoinInner JoinType = iota
	JoinLeftOuter
	JoinRightOuter
	JoinFullOuter
	JoinAnti
	JoinSemi
)

// FrameUnit selects ROWS or RANGE windowing (spec §4.9).
type FrameUnit uint8

const (
	FrameRows FrameUnit = iota
	FrameRange
)

// FrameBoundKind identifies one side of a WINDOW frame.
type FrameBoundKind uint8

const (
	BoundUnboundedPreceding FrameBoundKind = iota
	BoundNPreceding
	BoundCurrentRow
	BoundNFollowing
	BoundUnboundedFollowing
)

// FrameBound is one endpoint of a WINDOW frame (spec §4.9).
type FrameBound struct {
	Kind FrameBoundKind
	N    int64 // meaningful for BoundNPreceding/BoundNFollowing
}

// WindowFrame describes a WINDOW operator's frame.
type WindowFrame struct {
	Unit  FrameUnit
	Start FrameBound
	End   FrameBound
}

// WindowFunc is one function computed by a WINDOW node over its frame.
type WindowFunc struct {
	Op    AggOp // reuses AggOp for sum/avg/min/max/count; RowNumber/Rank/etc
	Extra WindowExtra
	Input NodeID
}

// WindowExtra distinguishes WINDOW functions with no AggOp analog.
type WindowExtra uint8

const (
	WindowNone WindowExtra = iota
	WindowRowNumber
	WindowRank
	WindowDenseRank
	WindowLag
	WindowLead
)

// ExtNode carries everything a Node's fixed {inputs[2]} shape can't hold:
// a literal atom, a third/variadic operand list, and structural
// parameters for GROUP/SORT/JOIN/WINDOW/PROJECT/SELECT/ALIAS (spec §4.7).
// Every ExtNode back-references the Node it extends.
type ExtNode struct {
	Node NodeID

	// ScanTable is a SCAN node's source table, when it differs from the
	// owning Graph's default Table (spec §9: JOIN/WINDOWJOIN's right-hand
	// side scans a second table within the same graph, since node ids only
	// have meaning within one graph's arena).
	ScanTable *vector.Table

	// Literal carries CONST's scalar/vector payload, or (for OpIf/OpSubstr/
	// OpReplace) is unused in favor of LiteralNode.
	Literal *block.Block

	// LiteralNode carries a ternary op's third operand as a node id (spec
	// §4.7: "three-operand operators... encode the third operand as a node
	// id in the ext-node literal slot").
	LiteralNode NodeID

	// Children is OpConcat's trailing operand ids, or GROUP/SORT/JOIN's key
	// node ids, or PROJECT/SELECT's column expression ids, depending on the
	// owning Node's Opcode.
	Children []NodeID

	// Names are interned column-name ids: ALIAS's target names, or
	// PROJECT/SELECT's output column names (positional, parallel to
	// Children).
	Names []int64

	// Sort descriptors (OpSort), parallel to Children.
	Desc       []bool
	NullsFirst []bool

	// Group aggregate descriptors (OpGroup): AggOps[i] consumes AggInputs[i]
	// and produces output column Names[i]; Children holds the group keys.
	AggOps    []AggOp
	AggInputs []NodeID

	// Join descriptors (OpJoin): Children holds left keys followed by
	// right keys in pairs is avoided -- LeftKeys/RightKeys are explicit.
	JoinType  JoinType
	RightNode NodeID
	LeftKeys  []NodeID
	RightKeys []NodeID

	// Window descriptors (OpWindow): Children holds partition keys,
	// OrderKeys holds order-by columns, Funcs holds the computed functions.
	OrderKeys []NodeID
	Funcs     []WindowFunc
	Frame     WindowFrame

	// WindowJoin (as-of join) descriptors.
	AsOfKeyLeft, AsOfKeyRight   NodeID
	AsOfTimeLeft, AsOfTimeRight NodeID
	AsOfLo, AsOfHi              int64
}
