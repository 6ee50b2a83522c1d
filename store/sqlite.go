package store

import (
	"context"
	"database/sql"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"

	// Registers the "sqlite" database/sql driver
	_ "modernc.org/sqlite"
)

// DefaultBusyTimeout is how long a connection waits for a lock held by
// another connection before failing with SQLITE_BUSY.
const DefaultBusyTimeout = 5 * time.Second

// Open opens a SQLite connection pool for the database file at path.
// The database uses WAL mode, so readers keep seeing the last committed
// state while a load is in progress.
func Open(ctx context.Context, path string, maxOpenConns int) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("no database path")
	}
	params := url.Values{}
	params.Add("_pragma", "busy_timeout("+strconv.FormatInt(DefaultBusyTimeout.Milliseconds(), 10)+")")
	params.Add("_pragma", "journal_mode(WAL)")
	dsn := path + "?" + params.Encode()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite %s", path)
	}
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "ping sqlite %s", path)
	}
	return db, nil
}
