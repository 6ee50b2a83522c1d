package record

import (
	"fmt"

	"github.com/pkg/errors"
)

// Causes that can be wrapped by a ParseError. Test for them with errors.Is.
var (
	ErrBadHeader     = errors.New("invalid header")
	ErrMissingField  = errors.New("missing field")
	ErrExtraField    = errors.New("extra field")
	ErrEmptySourceID = errors.New("empty source_id")
	ErrBadTimestamp  = errors.New("unparseable timestamp")
	ErrInputTooLarge = errors.New("input too large")
)

// ParseError reports the first malformed row of an input.
// Row is 1-based and counts the header as row 1.
type ParseError struct {
	Row   int
	Line  int // line where the row starts, 0 if unknown
	Cause error
}

func (e *ParseError) Error() string {
	if e.Line > 0 && e.Line != e.Row {
		return fmt.Sprintf("row %d (line %d): %v", e.Row, e.Line, e.Cause)
	}
	return fmt.Sprintf("row %d: %v", e.Row, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
