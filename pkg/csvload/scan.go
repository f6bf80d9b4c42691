package csvload

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import "bytes"

// detectDelimiter picks comma or tab by counting occurrences on the first
// line, comma winning ties (spec §4.5 step 2).
func detectDelimiter(firstLine []byte) byte {
	commas := bytes.Count(firstLine, []byte{','})
	tabs := bytes.Count(firstLine, []byte{'\t'})
	if tabs > commas {
		return '\t'
	}
	return ','
}

// hasQuotes reports whether data contains a double-quote byte anywhere,
// the signal to use the slower quote-aware row scanner (spec §4.5 step 4).
func hasQuotes(data []byte) bool {
	return bytes.IndexByte(data, '"') >= 0
}

// scanRowOffsets returns the byte offset at which each data row (i.e. every
// line after the header) begins, given body is the file content after the
// header line and its trailing newline have been stripped.
func scanRowOffsets(body []byte, quoted bool) []int {
	if quoted {
		return scanRowOffsetsQuoted(body)
	}
	return scanRowOffsetsFast(body)
}

// scanRowOffsetsFast assumes no field ever contains an embedded newline,
// so a plain '\n' byte scan finds every row boundary (spec §4.5's "fast
// path").
func scanRowOffsetsFast(body []byte) []int {
	if len(body) == 0 {
		return nil
	}
	offsets := []int{0}
	for i, b := range body {
		if b == '\n' && i+1 < len(body) {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// scanRowOffsetsQuoted tracks quote parity byte-by-byte so a newline
// inside an open `"..."` field is not mistaken for a row boundary, and
// recognizes `""` as an escaped quote rather than a field terminator
// (spec §4.5's "slow path").
func scanRowOffsetsQuoted(body []byte) []int {
	if len(body) == 0 {
		return nil
	}
	offsets := []int{0}
	inQuotes := false
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '"':
			if inQuotes && i+1 < len(body) && body[i+1] == '"' {
				i++ // escaped quote, not a parity flip
				continue
			}
			inQuotes = !inQuotes
		case '\n':
			if !inQuotes && i+1 < len(body) {
				offsets = append(offsets, i+1)
			}
		}
	}
	return offsets
}

// rowEnd returns the offset one past the last byte of the row starting at
// start (i.e. up to but excluding its trailing '\n', or EOF).
func rowEnd(body []byte, start int) int {
	nl := bytes.IndexByte(body[start:], '\n')
	if nl < 0 {
		return len(body)
	}
	end := start + nl
	if end > start && body[end-1] == '\r' {
		end--
	}
	return end
}

// splitFields splits one row on delim, stripping a single layer of
// surrounding double quotes and unescaping `""` to `"` within quoted
// fields (spec §4.5 step 4/7).
func splitFields(row []byte, delim byte) [][]byte {
	var fields [][]byte
	i := 0
	for i <= len(row) {
		if i < len(row) && row[i] == '"' {
			field, next := readQuotedField(row, i)
			fields = append(fields, field)
			i = next
			if i < len(row) && row[i] == delim {
				i++
				continue
			}
			break
		}
		j := bytes.IndexByte(row[i:], delim)
		if j < 0 {
			fields = append(fields, row[i:])
			break
		}
		fields = append(fields, row[i:i+j])
		i += j + 1
	}
	return fields
}

func readQuotedField(row []byte, start int) (field []byte, next int) {
	i := start + 1
	var buf []byte
	for i < len(row) {
		if row[i] == '"' {
			if i+1 < len(row) && row[i+1] == '"' {
				buf = append(buf, '"')
				i += 2
				continue
			}
			i++
			break
		}
		buf = append(buf, row[i])
		i++
	}
	return buf, i
}
