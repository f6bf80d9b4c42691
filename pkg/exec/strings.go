package exec

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"strings"

	"github.com/gobwas/glob"

	"github.com/coldb/coldb/pkg/block"
	"github.com/coldb/coldb/pkg/graph"
	"github.com/coldb/coldb/pkg/tderr"
	"github.com/coldb/coldb/pkg/vector"
)

// evalUnaryString implements UPPER/LOWER/TRIM/STRLEN (spec §4.9): operands
// are resolved from SYM ids to their byte strings, transformed, and
// (except STRLEN, which yields I64) re-interned as SYM.
func (ex *Executor) evalUnaryString(n *graph.Node, a Value) (Value, error) {
	if a.IsAtom() {
		return ex.unaryStringAtom(n.Opcode, a.Atom)
	}
	nrows := a.Len()
	out, err := vector.NewVectorFilled(ex.Heap, n.OutType, nrows)
	if err != nil {
		return Value{}, err
	}
	for i := 0; i < nrows; i++ {
		x, isNull, err := element(a, i)
		if err != nil {
			return Value{}, err
		}
		if isNull {
			if err := vector.SetNull(ex.Heap, out, i); err != nil {
				return Value{}, err
			}
			continue
		}
		s, err := ex.Names.Str(toI64(x))
		if err != nil {
			return Value{}, err
		}
		if n.Opcode == graph.OpStrLen {
			out.SetI64At(i, int64(len(s)))
			continue
		}
		out.SetSymAt(i, ex.Names.InternString(applyStringOp(n.Opcode, string(s))))
	}
	return VecValue(out), nil
}

func (ex *Executor) unaryStringAtom(op graph.Opcode, a *block.Block) (Value, error) {
	if block.IsNullAtom(a) {
		out, err := block.AllocCopy(ex.Heap, a)
		return AtomValue(out), err
	}
	s, err := ex.Names.Str(block.AtomI64(a))
	if err != nil {
		return Value{}, err
	}
	if op == graph.OpStrLen {
		b, err := block.NewAtomI64(ex.Heap, int64(len(s)))
		return AtomValue(b), err
	}
	id := ex.Names.InternString(applyStringOp(op, string(s)))
	b, err := block.NewAtomSym(ex.Heap, id)
	return AtomValue(b), err
}

func applyStringOp(op graph.Opcode, s string) string {
	switch op {
	case graph.OpUpper:
		return strings.ToUpper(s)
	case graph.OpLower:
		return strings.ToLower(s)
	case graph.OpTrim:
		return strings.TrimSpace(s)
	default:
		return s
	}
}

// evalLike implements LIKE/ILIKE (spec §4.9): SQL wildcards `%`/`_`
// translated to gobwas/glob's `*`/`?` syntax. ILIKE lowercases both sides
// before matching.
func (ex *Executor) evalLike(n *graph.Node, a, b Value) (Value, error) {
	ci := n.Opcode == graph.OpILike
	if a.IsAtom() && b.IsAtom() {
		matched, err := ex.likeAtom(a.Atom, b.Atom, ci)
		if err != nil {
			return Value{}, err
		}
		out, err := block.NewAtomBool(ex.Heap, matched)
		return AtomValue(out), err
	}
	nrows := a.Len()
	if b.IsVec() {
		nrows = b.Len()
	}
	out, err := vector.NewVectorFilled(ex.Heap, block.TagBool, nrows)
	if err != nil {
		return Value{}, err
	}
	for i := 0; i < nrows; i++ {
		xv, xNull, _ := element(a, i)
		pv, pNull, _ := element(b, i)
		if xNull || pNull {
			out.SetBoolAt(i, false)
			continue
		}
		s, err := ex.Names.Str(toI64(xv))
		if err != nil {
			return Value{}, err
		}
		p, err := ex.Names.Str(toI64(pv))
		if err != nil {
			return Value{}, err
		}
		matched, err := matchLike(string(s), string(p), ci)
		if err != nil {
			return Value{}, err
		}
		out.SetBoolAt(i, matched)
	}
	return VecValue(out), nil
}

func (ex *Executor) likeAtom(a, b *block.Block, ci bool) (bool, error) {
	if block.IsNullAtom(a) || block.IsNullAtom(b) {
		return false, nil
	}
	s, err := ex.Names.Str(block.AtomI64(a))
	if err != nil {
		return false, err
	}
	p, err := ex.Names.Str(block.AtomI64(b))
	if err != nil {
		return false, err
	}
	return matchLike(string(s), string(p), ci)
}

func matchLike(s, pattern string, ci bool) (bool, error) {
	if ci {
		s = strings.ToLower(s)
		pattern = strings.ToLower(pattern)
	}
	g, err := glob.Compile(translateLikePattern(pattern))
	if err != nil {
		return false, tderr.Wrap(tderr.KindDomain, err, "exec: invalid LIKE pattern %q", pattern)
	}
	return g.Match(s), nil
}

func translateLikePattern(p string) string {
	var b strings.Builder
	for _, r := range p {
		switch r {
		case '%':
			b.WriteByte('*')
		case '_':
			b.WriteByte('?')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// evalIf implements the ternary IF operator: cond ? thenV : elseV, element
// by element (spec §4.7). A null condition takes the else branch, matching
// the package's "comparisons/predicates treat null as false" rule (see
// package doc).
func (ex *Executor) evalIf(id graph.NodeID, n *graph.Node) (Value, error) {
	cond, err := ex.eval(n.Inputs[0])
	if err != nil {
		return Value{}, err
	}
	defer Release(cond)
	thenV, err := ex.eval(n.Inputs[1])
	if err != nil {
		return Value{}, err
	}
	defer Release(thenV)
	elseV, err := ex.eval(ex.g.Ext(id).LiteralNode)
	if err != nil {
		return Value{}, err
	}
	defer Release(elseV)

	if cond.IsAtom() && thenV.IsAtom() && elseV.IsAtom() {
		c, cNull, _ := element(cond, 0)
		if !cNull && toBool(c) {
			return Retain(thenV), nil
		}
		return Retain(elseV), nil
	}
	nrows := maxLen3(cond, thenV, elseV)
	out, err := vector.NewVectorFilled(ex.Heap, n.OutType, nrows)
	if err != nil {
		return Value{}, err
	}
	for i := 0; i < nrows; i++ {
		c, cNull, _ := element(cond, i)
		branch := elseV
		if !cNull && toBool(c) {
			branch = thenV
		}
		v, vNull, err := element(branch, i)
		if err != nil {
			return Value{}, err
		}
		if vNull {
			if err := vector.SetNull(ex.Heap, out, i); err != nil {
				return Value{}, err
			}
			continue
		}
		writeCast(out, n.OutType, i, v)
	}
	return VecValue(out), nil
}

func maxLen3(a, b, c Value) int {
	n := a.Len()
	if b.Len() > n {
		n = b.Len()
	}
	if c.Len() > n {
		n = c.Len()
	}
	return n
}

// evalSubstr implements SUBSTR(s, start, length), all operands SYM/I64,
// start 0-based (coldb Open Question decision: the source left indexing
// unspecified).
func (ex *Executor) evalSubstr(id graph.NodeID, n *graph.Node) (Value, error) {
	s, err := ex.eval(n.Inputs[0])
	if err != nil {
		return Value{}, err
	}
	defer Release(s)
	start, err := ex.eval(n.Inputs[1])
	if err != nil {
		return Value{}, err
	}
	defer Release(start)
	length, err := ex.eval(ex.g.Ext(id).LiteralNode)
	if err != nil {
		return Value{}, err
	}
	defer Release(length)

	nrows := maxLen3(s, start, length)
	out, err := vector.NewVectorFilled(ex.Heap, block.TagSym, nrows)
	if err != nil {
		return Value{}, err
	}
	for i := 0; i < nrows; i++ {
		sv, sNull, _ := element(s, i)
		stv, stNull, _ := element(start, i)
		lv, lNull, _ := element(length, i)
		if sNull || stNull || lNull {
			if err := vector.SetNull(ex.Heap, out, i); err != nil {
				return Value{}, err
			}
			continue
		}
		str, err := ex.Names.Str(toI64(sv))
		if err != nil {
			return Value{}, err
		}
		sub := substrString(string(str), toI64(stv), toI64(lv))
		out.SetSymAt(i, ex.Names.InternString(sub))
	}
	return VecValue(out), nil
}

func substrString(s string, start, length int64) string {
	if start < 0 {
		start = 0
	}
	if start >= int64(len(s)) {
		return ""
	}
	end := start + length
	if length < 0 || end > int64(len(s)) {
		end = int64(len(s))
	}
	if end < start {
		end = start
	}
	return s[start:end]
}

// evalReplace implements REPLACE(s, find, repl), all operands SYM.
func (ex *Executor) evalReplace(id graph.NodeID, n *graph.Node) (Value, error) {
	s, err := ex.eval(n.Inputs[0])
	if err != nil {
		return Value{}, err
	}
	defer Release(s)
	find, err := ex.eval(n.Inputs[1])
	if err != nil {
		return Value{}, err
	}
	defer Release(find)
	repl, err := ex.eval(ex.g.Ext(id).LiteralNode)
	if err != nil {
		return Value{}, err
	}
	defer Release(repl)

	nrows := maxLen3(s, find, repl)
	out, err := vector.NewVectorFilled(ex.Heap, block.TagSym, nrows)
	if err != nil {
		return Value{}, err
	}
	for i := 0; i < nrows; i++ {
		sv, sNull, _ := element(s, i)
		fv, fNull, _ := element(find, i)
		rv, rNull, _ := element(repl, i)
		if sNull || fNull || rNull {
			if err := vector.SetNull(ex.Heap, out, i); err != nil {
				return Value{}, err
			}
			continue
		}
		str, err := ex.Names.Str(toI64(sv))
		if err != nil {
			return Value{}, err
		}
		findStr, err := ex.Names.Str(toI64(fv))
		if err != nil {
			return Value{}, err
		}
		replStr, err := ex.Names.Str(toI64(rv))
		if err != nil {
			return Value{}, err
		}
		out.SetSymAt(i, ex.Names.InternString(strings.ReplaceAll(string(str), string(findStr), string(replStr))))
	}
	return VecValue(out), nil
}

// evalConcat implements variadic CONCAT: Inputs[0] plus the ext-node's
// Children, all SYM (spec §4.7).
func (ex *Executor) evalConcat(id graph.NodeID, n *graph.Node) (Value, error) {
	ext := ex.g.Ext(id)
	operandIDs := append([]graph.NodeID{n.Inputs[0]}, ext.Children...)
	operands := make([]Value, len(operandIDs))
	for i, oid := range operandIDs {
		v, err := ex.eval(oid)
		if err != nil {
			for _, done := range operands[:i] {
				_ = Release(done)
			}
			return Value{}, err
		}
		operands[i] = v
	}
	defer func() {
		for _, v := range operands {
			_ = Release(v)
		}
	}()

	nrows := 0
	for _, v := range operands {
		if v.Len() > nrows {
			nrows = v.Len()
		}
	}
	out, err := vector.NewVectorFilled(ex.Heap, block.TagSym, nrows)
	if err != nil {
		return Value{}, err
	}
	var buf strings.Builder
	for i := 0; i < nrows; i++ {
		buf.Reset()
		isNull := false
		for _, v := range operands {
			x, xNull, err := element(v, i)
			if err != nil {
				return Value{}, err
			}
			if xNull {
				isNull = true
				break
			}
			s, err := ex.Names.Str(toI64(x))
			if err != nil {
				return Value{}, err
			}
			buf.Write(s)
		}
		if isNull {
			if err := vector.SetNull(ex.Heap, out, i); err != nil {
				return Value{}, err
			}
			continue
		}
		out.SetSymAt(i, ex.Names.InternString(buf.String()))
	}
	return VecValue(out), nil
}
