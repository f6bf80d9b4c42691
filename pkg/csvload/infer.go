package csvload

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import "github.com/coldb/coldb/pkg/block"

// SampleRows is K in spec §4.5 step 5: the number of leading rows sampled
// to infer each column's type before allocating output storage.
const SampleRows = 100

// colKind is the running lattice value tracked while sampling a column:
// unknown is the bottom element, str the top (spec §4.5's
// "unknown < bool/i64/f64 < str"); among the numeric branch bool < i64 <
// f64, mirroring pkg/block's scalar promotion order.
type colKind int

const (
	kindUnknown colKind = iota
	kindBool
	kindI64
	kindF64
	kindStr
)

// promoteKind folds sample's kind into running, per the lattice.
func promoteKind(running, sample colKind) colKind {
	if sample == kindStr || running == kindStr {
		return kindStr
	}
	if sample > running {
		return sample
	}
	return running
}

// classify returns the tightest kind field (as trimmed bytes) can be
// parsed as, never erroring: anything that isn't a recognizable bool,
// integer or float literal is a string.
func classify(field []byte) colKind {
	if len(field) == 0 {
		return kindUnknown
	}
	if isBoolLiteral(field) {
		return kindBool
	}
	if _, ok := parseInt64(field); ok {
		return kindI64
	}
	if _, ok := parseFloat64(field); ok {
		return kindF64
	}
	return kindStr
}

func isBoolLiteral(f []byte) bool {
	switch string(f) {
	case "true", "false", "True", "False", "TRUE", "FALSE":
		return true
	}
	return false
}

func boolValue(f []byte) bool {
	switch string(f) {
	case "true", "True", "TRUE":
		return true
	}
	return false
}

// kindToTag maps a sampled lattice value to its output vector type. An
// all-null (kindUnknown) column defaults to SYM, the most permissive
// representation.
func kindToTag(k colKind) block.Tag {
	switch k {
	case kindBool:
		return block.TagBool
	case kindI64:
		return block.TagI64
	case kindF64:
		return block.TagF64
	default:
		return block.TagSym
	}
}

// inferColumnTypes samples up to SampleRows rows of body (already split
// into row byte ranges by scanRowOffsets) and returns each column's
// inferred output type.
func inferColumnTypes(body []byte, rowOffsets []int, delim byte, ncols int) []block.Tag {
	kinds := make([]colKind, ncols)
	n := len(rowOffsets)
	if n > SampleRows {
		n = SampleRows
	}
	for r := 0; r < n; r++ {
		start := rowOffsets[r]
		end := rowEnd(body, start)
		fields := splitFields(body[start:end], delim)
		for c := 0; c < ncols && c < len(fields); c++ {
			kinds[c] = promoteKind(kinds[c], classify(fields[c]))
		}
	}
	tags := make([]block.Tag, ncols)
	for i, k := range kinds {
		tags[i] = kindToTag(k)
	}
	return tags
}

// parseInt64 is the inlined integer parser spec §4.5 step 7 describes:
// sign handling plus a decimal-digit scan, no allocation, failing (rather
// than truncating) on any non-digit byte.
func parseInt64(f []byte) (int64, bool) {
	if len(f) == 0 {
		return 0, false
	}
	i := 0
	neg := false
	switch f[0] {
	case '-':
		neg = true
		i++
	case '+':
		i++
	}
	if i == len(f) {
		return 0, false
	}
	var v int64
	for ; i < len(f); i++ {
		d := f[i]
		if d < '0' || d > '9' {
			return 0, false
		}
		v = v*10 + int64(d-'0')
	}
	if neg {
		v = -v
	}
	return v, true
}

// pow10 is the exponent lookup table spec §4.5 step 7 calls for, avoiding
// repeated math.Pow calls in the float parser's hot loop.
var pow10 = [...]float64{
	1e0, 1e1, 1e2, 1e3, 1e4, 1e5, 1e6, 1e7, 1e8, 1e9,
	1e10, 1e11, 1e12, 1e13, 1e14, 1e15, 1e16, 1e17, 1e18, 1e19,
}

// parseFloat64 is the inlined float parser spec §4.5 step 7 describes:
// sign, integer part, fractional part, optional exponent, all via direct
// digit scanning with the pow10 table for scaling.
func parseFloat64(f []byte) (float64, bool) {
	if len(f) == 0 {
		return 0, false
	}
	i := 0
	neg := false
	switch f[0] {
	case '-':
		neg = true
		i++
	case '+':
		i++
	}
	start := i
	var mantissa float64
	sawDigit := false
	for i < len(f) && f[i] >= '0' && f[i] <= '9' {
		mantissa = mantissa*10 + float64(f[i]-'0')
		i++
		sawDigit = true
	}
	if i < len(f) && f[i] == '.' {
		i++
		fracStart := i
		for i < len(f) && f[i] >= '0' && f[i] <= '9' {
			mantissa = mantissa*10 + float64(f[i]-'0')
			i++
			sawDigit = true
		}
		fracDigits := i - fracStart
		if fracDigits > 0 && fracDigits < len(pow10) {
			mantissa /= pow10[fracDigits]
		} else if fracDigits >= len(pow10) {
			return 0, false
		}
	}
	if !sawDigit || i == start {
		return 0, false
	}
	if i < len(f) && (f[i] == 'e' || f[i] == 'E') {
		i++
		expNeg := false
		if i < len(f) && (f[i] == '-' || f[i] == '+') {
			expNeg = f[i] == '-'
			i++
		}
		expStart := i
		exp := 0
		for i < len(f) && f[i] >= '0' && f[i] <= '9' {
			exp = exp*10 + int(f[i]-'0')
			i++
		}
		if i == expStart {
			return 0, false
		}
		if exp >= len(pow10) {
			return 0, false
		}
		if expNeg {
			mantissa /= pow10[exp]
		} else {
			mantissa *= pow10[exp]
		}
	}
	if i != len(f) {
		return 0, false
	}
	if neg {
		mantissa = -mantissa
	}
	return mantissa, true
}
