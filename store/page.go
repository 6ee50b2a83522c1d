package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
)

// Direction is the direction of a page request relative to its cursor
type Direction int

const (
	// Forward returns the rows after the cursor. The cursor is the last id
	// of the current page, 0 for the first page.
	Forward Direction = iota
	// Backward returns the rows before the cursor. The cursor is the first
	// id of the current page, 0 for the last page.
	Backward
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// ParseDirection parses "forward" or "backward". An empty string is Forward.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "", "forward", "next":
		return Forward, nil
	case "backward", "prev", "previous":
		return Backward, nil
	}
	return Forward, &InvalidArgumentError{Arg: "direction", Reason: fmt.Sprintf("unknown direction %q", s)}
}

// Page is a slice of descriptions in ascending id order
type Page struct {
	Items           []Description `json:"items"`
	HasPreviousPage bool          `json:"has_previous_page"`
	HasNextPage     bool          `json:"has_next_page"`
}

// FirstID returns the id of the first item, or 0 for an empty page
func (p Page) FirstID() int64 {
	if len(p.Items) == 0 {
		return 0
	}
	return p.Items[0].ID
}

// LastID returns the id of the last item, or 0 for an empty page
func (p Page) LastID() int64 {
	if len(p.Items) == 0 {
		return 0
	}
	return p.Items[len(p.Items)-1].ID
}

// Page returns up to pageSize descriptions next to the cursor lastSeenID,
// using keyset pagination on the id.
//
// HasNextPage is set iff a row with an id above the last item exists, and
// HasPreviousPage iff a row with an id below the first item exists. For an
// empty page the flags refer to the cursor itself.
func (s *Store) Page(ctx context.Context, pageSize int, lastSeenID int64, dir Direction) (Page, error) {
	if pageSize <= 0 {
		return Page{}, &InvalidArgumentError{Arg: "page_size", Reason: "must be greater than 0"}
	}
	if lastSeenID < 0 {
		return Page{}, &InvalidArgumentError{Arg: "last_seen_id", Reason: "must not be negative"}
	}
	if dir != Forward && dir != Backward {
		return Page{}, &InvalidArgumentError{Arg: "direction", Reason: dir.String()}
	}

	// One extra row tells us if there is more in the page direction
	limit := int64(pageSize) + 1
	if limit <= 0 {
		limit = math.MaxInt64
	}

	// Both statements run in one transaction to see the same snapshot
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Page{}, &QueryError{Op: "begin page", Err: err}
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var p Page
	switch dir {
	case Forward:
		p.Items, err = s.pageItems(ctx, tx, s.q.pageForward, lastSeenID, limit)
		if err != nil {
			return Page{}, err
		}
		if len(p.Items) > pageSize {
			p.HasNextPage = true
			p.Items = p.Items[:pageSize]
		}
		p.HasPreviousPage, err = s.exists(ctx, tx, s.q.existsUpTo, lastSeenID)
		if err != nil {
			return Page{}, err
		}

	case Backward:
		before := lastSeenID
		if before == 0 {
			before = math.MaxInt64
		}
		p.Items, err = s.pageItems(ctx, tx, s.q.pageBackward, before, limit)
		if err != nil {
			return Page{}, err
		}
		if len(p.Items) > pageSize {
			p.HasPreviousPage = true
			p.Items = p.Items[:pageSize]
		}
		reverse(p.Items)
		p.HasNextPage, err = s.exists(ctx, tx, s.q.existsFrom, before)
		if err != nil {
			return Page{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Page{}, &QueryError{Op: "commit page", Err: err}
	}
	return p, nil
}

func (s *Store) pageItems(ctx context.Context, tx *sql.Tx, query string, cursor, limit int64) ([]Description, error) {
	rows, err := tx.QueryContext(ctx, query, cursor, limit)
	if err != nil {
		return nil, &QueryError{Op: "page", Err: err}
	}
	defer rows.Close()

	items := []Description{} // never nil, so it encodes as []
	for rows.Next() {
		d, err := scanDescription(rows)
		if err != nil {
			return nil, &QueryError{Op: "page scan", Err: err}
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Op: "page", Err: err}
	}
	return items, nil
}

func (s *Store) exists(ctx context.Context, tx *sql.Tx, query string, id int64) (bool, error) {
	var exists bool
	if err := tx.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, &QueryError{Op: "page exists", Err: err}
	}
	return exists, nil
}

func reverse(items []Description) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}
