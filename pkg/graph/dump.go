package graph

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"fmt"
	"strings"
)

// Dump renders every node in id order as one line each, marking DEAD and
// FUSED flags the optimizer set (spec §4.8). It exists so a test or a
// debug trace can assert which nodes the optimizer touched by reading a
// single string instead of poking at Node/Flags directly.
func (g *Graph) Dump() string {
	var b strings.Builder
	for i := range g.nodes {
		n := &g.nodes[i]
		fmt.Fprintf(&b, "%d: %s", n.ID, n.Opcode)
		if n.Arity > 0 {
			b.WriteString("(")
			for j := uint8(0); j < n.Arity; j++ {
				if j > 0 {
					b.WriteString(", ")
				}
				fmt.Fprintf(&b, "%d", n.Inputs[j])
			}
			b.WriteString(")")
		}
		fmt.Fprintf(&b, " out=%v", n.OutType)
		var flags []string
		if n.Fused() {
			flags = append(flags, "FUSED")
		}
		if n.Dead() {
			flags = append(flags, "DEAD")
		}
		if len(flags) > 0 {
			b.WriteString(" [" + strings.Join(flags, ",") + "]")
		}
		b.WriteString("\n")
	}
	return b.String()
}
