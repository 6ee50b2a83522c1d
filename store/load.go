package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/PowerDNS/descstore/record"
)

// LoadResult describes a completed replace-load
type LoadResult struct {
	LoadID   uuid.UUID     `json:"load_id"`
	Source   string        `json:"source"`
	Count    int           `json:"count"`
	FirstID  int64         `json:"first_id,omitempty"` // 0 for an empty load
	LastID   int64         `json:"last_id,omitempty"`
	LoadedAt time.Time     `json:"loaded_at"`
	Duration time.Duration `json:"duration"`
}

// ReplaceAll atomically replaces all rows of the table with records, in
// input order. The source is recorded in the load history in the same
// transaction.
//
// Concurrent readers observe either the complete previous contents or the
// complete new contents. On any error the transaction is rolled back and the
// table is left as it was. There are no retries.
func (s *Store) ReplaceAll(ctx context.Context, records []record.Record, source string) (LoadResult, error) {
	t0 := time.Now()
	res := LoadResult{
		LoadID: uuid.New(),
		Source: source,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, &ConnectionError{Op: "begin", Err: err}
	}
	defer func() {
		_ = tx.Rollback() // no-op after a successful commit
	}()

	if _, err := tx.ExecContext(ctx, s.q.deleteAll); err != nil {
		return res, &WriteError{Op: "delete", Err: err}
	}

	// Rows are executed one by one through a single prepared statement, so
	// large inputs never turn into one huge statement.
	stmt, err := tx.PrepareContext(ctx, s.q.insert)
	if err != nil {
		return res, &WriteError{Op: "prepare insert", Err: err}
	}
	defer stmt.Close()

	for i, rec := range records {
		r, err := stmt.ExecContext(ctx,
			rec.SourceID,
			rec.Title,
			rec.Description,
			rec.PublishedAt,
			rec.ActualStartAt,
		)
		if err != nil {
			return res, &WriteError{Op: "insert", Row: i + 1, Err: err}
		}
		id, err := r.LastInsertId()
		if err != nil {
			return res, &WriteError{Op: "insert id", Row: i + 1, Err: err}
		}
		if i == 0 {
			res.FirstID = id
		}
		res.LastID = id
	}
	res.Count = len(records)
	res.LoadedAt = time.Now().UTC()

	_, err = tx.ExecContext(ctx, s.q.insertHistory,
		res.LoadID.String(),
		res.Source,
		res.Count,
		res.LoadedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return res, &WriteError{Op: "insert history", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return res, &WriteError{Op: "commit", Err: err}
	}
	res.Duration = time.Since(t0)
	return res, nil
}
