package store

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable means the underlying database could not be opened at
	// all (missing permissions, directory locked by another process).
	ErrUnavailable = errors.New("chat store unavailable")

	// ErrNotFound means an operation referenced a chat that does not exist.
	ErrNotFound = errors.New("chat not found")
)

// MigrationError is returned by Open when a schema upgrade step fails or the
// on-disk schema is newer than this build understands. The store must not be
// used after a MigrationError.
type MigrationError struct {
	From int
	To   int
	Err  error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("schema migration from version %d to %d failed: %v", e.From, e.To, e.Err)
}

func (e *MigrationError) Unwrap() error { return e.Err }

// WriteError wraps a failed commit. The operation left no partial state
// behind and may be retried by the caller.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s: write failed: %v", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
