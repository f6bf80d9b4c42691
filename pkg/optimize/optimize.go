// Package optimize implements coldb's fixed-order optimizer passes over a
// pkg/graph query graph: type inference, constant folding, operator
// fusion, and dead-code elimination (spec §4.8). Unlike the source's
// pointer-patched node array, a pkg/graph Graph addresses nodes by index,
// so there is no fix-up pass here -- growing the node slice never
// invalidates a previously returned NodeID.
package optimize

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"github.com/coldb/coldb/pkg/block"
	"github.com/coldb/coldb/pkg/graph"
)

// Run executes the optimizer's fixed pass order over g, rooted at root
// (spec §4.8): type inference, constant folding, operator fusion, dead
// code elimination. h is used to allocate any new constant literals
// folding produces.
func Run(h *block.Heap, g *graph.Graph, root graph.NodeID) error {
	inferTypes(g)
	if err := foldConstants(h, g); err != nil {
		return err
	}
	fuseOperators(g)
	eliminateDeadCode(g, root)
	return nil
}
