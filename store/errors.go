package store

import (
	"fmt"

	"github.com/pkg/errors"
)

// ConnectionError is returned when a transaction or connection to the store
// could not be obtained.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("store connection (%s): %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// WriteError is returned when a statement of a replace-load failed. The load
// has been rolled back when this is returned.
type WriteError struct {
	Op  string
	Row int // 1-based index of the record being inserted, 0 if not applicable
	Err error
}

func (e *WriteError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("store write (%s of record %d): %v", e.Op, e.Row, e.Err)
	}
	return fmt.Sprintf("store write (%s): %v", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// QueryError is returned when a read from the store failed
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("store query (%s): %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// NotFoundError is returned when a key lookup had no match
type NotFoundError struct {
	SourceID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("description with source_id %q not found", e.SourceID)
}

// InvalidArgumentError is returned for bad call parameters, before the store
// is accessed.
type InvalidArgumentError struct {
	Arg    string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %s: %s", e.Arg, e.Reason)
}

// IsNotFound reports if err is or wraps a *NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsInvalidArgument reports if err is or wraps an *InvalidArgumentError
func IsInvalidArgument(err error) bool {
	var ia *InvalidArgumentError
	return errors.As(err, &ia)
}
