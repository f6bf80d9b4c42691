package exec

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import "github.com/coldb/coldb/pkg/block"

// toF64/toI64/toBool coerce an element() result (bool/int32/int64/float64)
// to the requested Go type for kernel arithmetic, matching the numeric
// promotion lattice's intent without re-deriving block.Tag from the value.
func toF64(x interface{}) float64 {
	switch v := x.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int32:
		return float64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func toI64(x interface{}) int64 {
	switch v := x.(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int32:
		return int64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func toBool(x interface{}) bool {
	switch v := x.(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case int32:
		return v != 0
	case float64:
		return v != 0
	default:
		return false
	}
}

func isFloatTag(t block.Tag) bool { return t == block.TagF64 }
