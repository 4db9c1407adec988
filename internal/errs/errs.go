// Package errs defines the typed error taxonomy raised by the core
// components and the single translation point used by internal/service to
// pick a wire status bucket.
package errs

import (
	"errors"
	"fmt"
)

// Kind identifies the class of failure a core operation raised.
type Kind string

const (
	NotFound              Kind = "not_found"
	AlreadyExists         Kind = "already_exists"
	RevisionMismatch      Kind = "revision_mismatch"
	InvalidData           Kind = "invalid_data"
	InvalidParentId       Kind = "invalid_parent_id"
	InvalidKey            Kind = "invalid_key"
	InvalidListArgs       Kind = "invalid_list_args"
	InvalidStrategy       Kind = "invalid_strategy"
	Timeout               Kind = "timeout"
	ConnectionUnavailable Kind = "connection_unavailable"
)

// Error is the concrete error type carrying a Kind. Core components raise
// *Error; internal/service is the only caller expected to switch on Kind.
type Error struct {
	kind Kind
	op   string
	err  error
}

func (e *Error) Error() string {
	if e.err == nil {
		return fmt.Sprintf("%s: %s", e.op, e.kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.op, e.kind, e.err)
}

func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is an *Error of the same kind, so errors.Is
// matches any two *Error values that share a Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.kind == t.kind
}

// New builds a *Error of the given kind with a formatted message, the
// pattern generalized from the teacher's wrapDBErrorf
// (internal/storage/sqlite/errors.go).
func New(kind Kind, op string, format string, args ...any) *Error {
	var err error
	if format != "" {
		err = fmt.Errorf(format, args...)
	}
	return &Error{kind: kind, op: op, err: err}
}

// Wrap attaches an operation name and kind to an underlying error.
func Wrap(kind Kind, op string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{kind: kind, op: op, err: err}
}

// Code extracts the Kind from err, walking the Unwrap chain. Returns ""
// when err is nil or carries no *Error anywhere in its chain.
func Code(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return ""
}

// Is reports whether err's Kind equals kind.
func Is(err error, kind Kind) bool {
	return Code(err) == kind
}
