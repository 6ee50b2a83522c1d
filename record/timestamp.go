package record

import (
	"fmt"
	"regexp"
	"strings"
)

// timestampRe matches the accepted ISO-8601 forms: a date, optionally
// followed by a time with 'T' or a space, optional fractional seconds and an
// optional zone. Only the shape is checked, "2024-02-30" is accepted.
var timestampRe = regexp.MustCompile(
	`^\d{4}-\d{2}-\d{2}` +
		`(?:[T ]\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2})?)?$`)

// ValidTimestamp reports if s has the syntax of one of the accepted
// timestamp layouts. The calendar values are not checked.
func ValidTimestamp(s string) bool {
	return timestampRe.MatchString(strings.TrimSpace(s))
}

func checkTimestamp(col, value string) error {
	if !ValidTimestamp(value) {
		return fmt.Errorf("%w: %s %q", ErrBadTimestamp, col, value)
	}
	return nil
}
