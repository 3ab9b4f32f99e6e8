package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies domain errors so callers (API layer) can map them
// to a response without string matching.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation" // bad input at construction/command time
	KindState      ErrorKind = "state"      // command illegal in the current state
	KindConflict   ErrorKind = "conflict"   // day slot taken, wrong week, version mismatch
	KindNotFound   ErrorKind = "not_found"  // referenced entity absent
)

// Error is the error type returned by all fallible domain commands.
// It carries enough context (ids, conflicting values) for the caller to
// resolve the problem; the domain never retries or auto-resolves.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is a domain Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}
