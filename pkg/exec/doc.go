// Package exec implements coldb's morsel-driven executor: it walks an
// optimized pkg/graph DAG bottom-up, evaluating each node into a concrete
// Value (atom, vector or table), dispatching element-wise kernels to
// pkg/workerpool once a vector crosses the parallelism threshold (spec
// §4.9). Reductions and GROUP aggregates run in a single serial pass on
// the calling goroutine.
//
// NULL-in-comparison decision (spec §7/§9 open question): comparison
// kernels (EQ/NE/LT/LE/GT/GE/LIKE/ILIKE) produce false, not null, when
// either operand is null. Arithmetic and cast kernels still propagate
// nullness into the output's null bitmap. This is documented here, once,
// rather than re-derived at each call site.
package exec

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */
