package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PowerDNS/descstore/record"
)

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func openTestDB(t *testing.T) *sql.DB {
	db, err := Open(testContext(t), filepath.Join(t.TempDir(), "test.db"), 4)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func newTestStore(t *testing.T) (*Store, *sql.DB) {
	db := openTestDB(t)
	st, err := New(db, Options{})
	require.NoError(t, err)
	require.NoError(t, st.EnsureSchema(testContext(t)))
	return st, db
}

func makeRecords(prefix string, n int) []record.Record {
	recs := make([]record.Record, n)
	for i := range recs {
		recs[i] = record.Record{
			SourceID:      fmt.Sprintf("%s%d", prefix, i+1),
			Title:         fmt.Sprintf("title %d", i+1),
			Description:   fmt.Sprintf("description %d", i+1),
			PublishedAt:   "2024-01-01T00:00:00Z",
			ActualStartAt: "2024-01-02T00:00:00Z",
		}
	}
	return recs
}

// allRecords reads the full table through forward pagination
func allRecords(t *testing.T, st *Store) []Description {
	p, err := st.Page(testContext(t), 1_000_000, 0, Forward)
	require.NoError(t, err)
	require.False(t, p.HasNextPage)
	return p.Items
}

func recordsOf(items []Description) []record.Record {
	recs := make([]record.Record, len(items))
	for i, d := range items {
		recs[i] = d.Record
	}
	return recs
}

func TestOptions_Check(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"defaults", Options{}, false},
		{"custom", Options{Table: "desc", HistoryTable: "desc_history"}, false},
		{"injection", Options{Table: `x"; DROP TABLE y; --`}, true},
		{"leading-digit", Options{Table: "1desc"}, true},
		{"same", Options{Table: "a", HistoryTable: "a"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Check()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEnsureSchema_idempotent(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := testContext(t)
	_, err := st.ReplaceAll(ctx, makeRecords("S", 3), "test")
	require.NoError(t, err)

	// Running it again must not touch existing data
	require.NoError(t, st.EnsureSchema(ctx))
	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestStore_customTable(t *testing.T) {
	db := openTestDB(t)
	ctx := testContext(t)
	st, err := New(db, Options{Table: "other"})
	require.NoError(t, err)
	require.NoError(t, st.EnsureSchema(ctx))
	assert.Equal(t, "other", st.Table())

	_, err = st.ReplaceAll(ctx, makeRecords("S", 2), "test")
	require.NoError(t, err)

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM other`).Scan(&n))
	assert.Equal(t, 2, n)
}
