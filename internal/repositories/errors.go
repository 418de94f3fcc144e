package repositories

import (
	"errors"
	"fmt"
)

type errorKind int

const (
	kindUnknown errorKind = iota
	kindNotFound
	kindConflict
	kindUnavailable
)

// Error is the RepositoryError used by the memory and SQL backends.
type Error struct {
	Op   string
	Err  error
	kind errorKind
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) IsNotFound() bool    { return e.kind == kindNotFound }
func (e *Error) IsConflict() bool    { return e.kind == kindConflict }
func (e *Error) IsUnavailable() bool { return e.kind == kindUnavailable }

// ErrNotFound is the cause wrapped by NotFound.
var ErrNotFound = errors.New("record not found")

// NotFound reports a missing record.
func NotFound(op string) error {
	return &Error{Op: op, Err: ErrNotFound, kind: kindNotFound}
}

// Conflict reports a uniqueness violation.
func Conflict(op string, err error) error {
	return &Error{Op: op, Err: err, kind: kindConflict}
}

// Unavailable reports a transient backend failure.
func Unavailable(op string, err error) error {
	return &Error{Op: op, Err: err, kind: kindUnavailable}
}

// Wrap annotates err with op without classifying it.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// IsNotFound reports whether err is a RepositoryError for a missing record.
func IsNotFound(err error) bool {
	var repoErr RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

// IsConflict reports whether err is a RepositoryError for a conflicting write.
func IsConflict(err error) bool {
	var repoErr RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsConflict()
}
