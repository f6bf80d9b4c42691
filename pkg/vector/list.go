package vector

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

// List is a heterogeneous container (block tag 0, spec §3.1): an ordered
// sequence of child blocks of possibly different types. Lists back the
// graph builder's literal-array construction and multi-key group/sort
// key tuples (pkg/exec).
type List struct {
	Items []*Vector
}

// NewList creates an empty list.
func NewList() *List { return &List{} }

// Append retains v and appends it.
func (l *List) Append(v *Vector) {
	Retain(v)
	l.Items = append(l.Items, v)
}

// Len returns the number of items.
func (l *List) Len() int { return len(l.Items) }

// Release releases every item (spec §3.5: containers own their children).
func (l *List) Release() error {
	for _, v := range l.Items {
		if err := Release(v); err != nil {
			return err
		}
	}
	l.Items = nil
	return nil
}
