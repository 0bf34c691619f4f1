package service

import (
	"errors"
	"fmt"
)

// Kind classifies a service error so transport layers can map it to a
// status code without string matching.
type Kind string

const (
	// KindNotFound means the room or expense does not exist.
	KindNotFound Kind = "not_found"

	// KindForbidden means the caller is not a member of the room.
	KindForbidden Kind = "forbidden"

	// KindNotAdmin means the caller is a member but lacks admin privilege
	// for an admin-only action. Deliberately distinct from KindForbidden.
	KindNotAdmin Kind = "not_admin"

	// KindValidation covers malformed input: empty names, non-positive
	// amounts, splits that do not reconcile, duplicate membership.
	KindValidation Kind = "validation"

	// KindConflict is an optimistic-concurrency collision that survived
	// the service's own retries. Callers may retry the request.
	KindConflict Kind = "conflict"

	// KindInternal is a store or infrastructure failure.
	KindInternal Kind = "internal"
)

// Error is a classified service error.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// errf builds a classified error from a format string.
func errf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// wrap classifies an existing error, preserving it for errors.Is/As.
func wrap(kind Kind, err error) error {
	return &Error{Kind: kind, Err: err}
}

// KindOf extracts the Kind from err, defaulting to KindInternal for
// unclassified errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}
