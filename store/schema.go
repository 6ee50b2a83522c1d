package store

import (
	"context"
)

// EnsureSchema creates the tables and index if they do not exist yet.
// Existing tables are never altered.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, q := range []string{s.q.createTable, s.q.createIndex, s.q.createHistory} {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return &WriteError{Op: "create schema", Err: err}
		}
	}
	return nil
}
