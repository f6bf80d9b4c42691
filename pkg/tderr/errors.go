// Package tderr defines the closed error taxonomy coldb uses across every
// package: allocation, typing, storage I/O and query execution all fail
// through the same *Error type so callers can switch on Kind instead of
// matching error strings.
package tderr

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2026 coldb contributors
 */

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is one of the error categories from spec §7.
type Kind int

const (
	// KindNone marks the absence of an error.
	KindNone Kind = iota
	// KindOutOfMemory signals an allocator exhausted its pools.
	KindOutOfMemory
	// KindType signals an invalid type tag or unpromotable operand pair.
	KindType
	// KindRange signals an out-of-bounds index or a negative length.
	KindRange
	// KindLengthMismatch signals columns that must share a length don't.
	KindLengthMismatch
	// KindRank signals a scalar/vector shape mismatch.
	KindRank
	// KindDomain signals e.g. sqrt of a negative integer forced to I64.
	KindDomain
	// KindNotImplemented signals an API surface without a backing kernel.
	KindNotImplemented
	// KindIO signals a file open/read/stat/mmap failure.
	KindIO
	// KindSchema signals an on-disk format invariant violation.
	KindSchema
	// KindCorrupt signals a header that fails sanity checks.
	KindCorrupt
	// KindCancelled signals a query interrupted via Cancel.
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindOutOfMemory:
		return "out-of-memory"
	case KindType:
		return "type-error"
	case KindRange:
		return "range-error"
	case KindLengthMismatch:
		return "length-mismatch"
	case KindRank:
		return "rank-error"
	case KindDomain:
		return "domain-error"
	case KindNotImplemented:
		return "not-yet-implemented"
	case KindIO:
		return "io-error"
	case KindSchema:
		return "schema-error"
	case KindCorrupt:
		return "corrupt-data"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown-error"
	}
}

// Error is the concrete error type every coldb package returns. It carries
// a Kind, a human-readable message, and an optional wrapped cause.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("coldb: %s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("coldb: %s: %s", e.Kind, e.Msg)
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds an *Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind around an existing error,
// capturing a stack trace via github.com/pkg/errors when cause doesn't
// already carry one.
func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	if cause == nil {
		return New(kind, format, args...)
	}
	return &Error{
		Kind:  kind,
		Msg:   fmt.Sprintf(format, args...),
		Cause: errors.WithStack(cause),
	}
}

// KindOf returns the Kind carried by err, or KindNone if err is nil and
// KindNotImplemented-adjacent KindType for any error not produced by this
// package (coldb itself never returns a bare error, but callers composing
// coldb with other libraries may pass one through).
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindType
}

// String is the "error-string accessor" spec §7 describes: a stable,
// human-readable rendering of an error's kind, independent of wrapped
// causes (which may contain non-deterministic stack traces).
func String(err error) string {
	if err == nil {
		return ""
	}
	return KindOf(err).String() + ": " + rootMessage(err)
}

func rootMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return err.Error()
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
