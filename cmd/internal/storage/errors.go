package storage

import (
	"errors"
	"fmt"
)

// Sentinel error kinds.
var (
	// ErrStorage marks any failure of the relational store itself
	// (connectivity, constraint, commit). Callers must not retry blindly.
	ErrStorage = errors.New("storage_failure")

	// ErrNotFound reports that no row matched.
	ErrNotFound = errors.New("not_found")
)

// Error is a store failure tagged with the operation that produced it.
// It matches both ErrStorage and the underlying cause under errors.Is / errors.As.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, ErrStorage)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrStorage, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrStorage}
	}
	return []error{ErrStorage, e.Err}
}

// Wrap tags err as a storage failure of op. Nil stays nil; an error that is
// already a storage failure is returned unchanged.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorage) {
		return err
	}
	return &Error{Op: op, Err: err}
}

// IsStorage reports whether err is a storage failure.
func IsStorage(err error) bool { return errors.Is(err, ErrStorage) }
