package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// GetBySourceID returns the description with the given source id.
// Source ids are not unique; if there are duplicates, the first loaded one
// (lowest id) is returned.
func (s *Store) GetBySourceID(ctx context.Context, sourceID string) (Description, error) {
	row := s.db.QueryRowContext(ctx, s.q.bySourceID, sourceID)
	d, err := scanDescription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Description{}, &NotFoundError{SourceID: sourceID}
	}
	if err != nil {
		return Description{}, &QueryError{Op: "get by source_id", Err: err}
	}
	return d, nil
}

// Count returns the number of rows in the table
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, s.q.count).Scan(&n); err != nil {
		return 0, &QueryError{Op: "count", Err: err}
	}
	return n, nil
}

// LoadHistory is an entry in the history of completed loads
type LoadHistory struct {
	ID       int64  `json:"id"`
	LoadID   string `json:"load_id"`
	Source   string `json:"source"`
	Count    int    `json:"count"`
	LoadedAt string `json:"loaded_at"`
}

// History returns up to limit completed loads, newest first
func (s *Store) History(ctx context.Context, limit int) ([]LoadHistory, error) {
	if limit <= 0 {
		return nil, &InvalidArgumentError{Arg: "limit", Reason: "must be greater than 0"}
	}
	rows, err := s.db.QueryContext(ctx, s.q.history, limit)
	if err != nil {
		return nil, &QueryError{Op: "history", Err: err}
	}
	defer rows.Close()

	var list []LoadHistory
	for rows.Next() {
		var h LoadHistory
		if err := rows.Scan(&h.ID, &h.LoadID, &h.Source, &h.Count, &h.LoadedAt); err != nil {
			return nil, &QueryError{Op: "history scan", Err: err}
		}
		list = append(list, h)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Op: "history", Err: err}
	}
	return list, nil
}
