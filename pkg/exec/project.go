package exec

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"github.com/coldb/coldb/pkg/graph"
	"github.com/coldb/coldb/pkg/tderr"
	"github.com/coldb/coldb/pkg/vector"
)

// evalProject implements PROJECT (keep the named expressions) and SELECT
// (coldb treats both identically at the executor level: the optimizer-time
// distinction between "project in place" and "select a fresh table" has no
// observable effect once every column is freshly evaluated here).
func (ex *Executor) evalProject(id graph.NodeID, n *graph.Node) (Value, error) {
	ext := ex.g.Ext(id)
	out := vector.NewTable()
	for i, colID := range ext.Children {
		v, err := ex.eval(colID)
		if err != nil {
			_ = out.Release()
			return Value{}, err
		}
		if !v.IsVec() {
			_ = Release(v)
			_ = out.Release()
			return Value{}, tderr.New(tderr.KindRank, "exec: project: column expression did not evaluate to a vector")
		}
		if err := out.AddColID(ext.Names[i], v.Vec); err != nil {
			_ = Release(v)
			_ = out.Release()
			return Value{}, err
		}
		_ = Release(v)
	}
	return TblValue(out), nil
}
