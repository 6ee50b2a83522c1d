// Package store implements the relational storage of descriptions: the
// replace-load transaction, key lookups and keyset pagination.
//
// A Store does no locking of its own. Isolation between a load and concurrent
// readers is provided by the transactions of the underlying database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/PowerDNS/descstore/record"
)

// Default table names
const (
	DefaultTable        = "descriptions"
	DefaultHistoryTable = "load_history"
)

// DB is the connection pool capability used by a Store. It is satisfied
// by *sql.DB.
type DB interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Options configures a Store
type Options struct {
	Table        string `yaml:"table"`
	HistoryTable string `yaml:"history_table"`
}

func (o Options) withDefaults() Options {
	if o.Table == "" {
		o.Table = DefaultTable
	}
	if o.HistoryTable == "" {
		o.HistoryTable = DefaultHistoryTable
	}
	return o
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Check validates the Options
func (o Options) Check() error {
	o = o.withDefaults()
	if !identRe.MatchString(o.Table) {
		return fmt.Errorf("invalid table name %q", o.Table)
	}
	if !identRe.MatchString(o.HistoryTable) {
		return fmt.Errorf("invalid history table name %q", o.HistoryTable)
	}
	if o.Table == o.HistoryTable {
		return fmt.Errorf("table and history table must differ, both are %q", o.Table)
	}
	return nil
}

// Description is a stored record. ID is assigned by the store, increases
// in insertion order and is never reused.
type Description struct {
	ID int64 `json:"id"`
	record.Record
}

// Store gives access to the descriptions table
type Store struct {
	db   DB
	opts Options
	q    queries
}

// New returns a Store for db. The schema is not touched, see EnsureSchema.
func New(db DB, opts Options) (*Store, error) {
	if err := opts.Check(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	return &Store{
		db:   db,
		opts: opts,
		q:    newQueries(opts),
	}, nil
}

// Table returns the name of the descriptions table
func (s *Store) Table() string {
	return s.opts.Table
}

type queries struct {
	createTable   string
	createIndex   string
	createHistory string

	deleteAll     string
	insert        string
	insertHistory string

	bySourceID   string
	count        string
	pageForward  string
	pageBackward string
	existsUpTo   string
	existsFrom   string
	history      string
}

const columns = "id, source_id, title, description, published_at, actual_start_at"

func newQueries(o Options) queries {
	t := `"` + o.Table + `"`
	h := `"` + o.HistoryTable + `"`
	return queries{
		createTable: `CREATE TABLE IF NOT EXISTS ` + t + ` (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			source_id       TEXT NOT NULL,
			title           TEXT NOT NULL,
			description     TEXT NOT NULL,
			published_at    TEXT NOT NULL,
			actual_start_at TEXT NOT NULL
		)`,
		createIndex: `CREATE INDEX IF NOT EXISTS "` + o.Table + `_source_id_idx" ON ` + t + ` (source_id)`,
		createHistory: `CREATE TABLE IF NOT EXISTS ` + h + ` (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			load_id   TEXT NOT NULL,
			source    TEXT NOT NULL,
			count     INTEGER NOT NULL,
			loaded_at TEXT NOT NULL
		)`,

		deleteAll: `DELETE FROM ` + t,
		insert: `INSERT INTO ` + t + ` (source_id, title, description, published_at, actual_start_at)
			VALUES (?, ?, ?, ?, ?)`,
		insertHistory: `INSERT INTO ` + h + ` (load_id, source, count, loaded_at) VALUES (?, ?, ?, ?)`,

		bySourceID:   `SELECT ` + columns + ` FROM ` + t + ` WHERE source_id = ? ORDER BY id ASC LIMIT 1`,
		count:        `SELECT COUNT(*) FROM ` + t,
		pageForward:  `SELECT ` + columns + ` FROM ` + t + ` WHERE id > ? ORDER BY id ASC LIMIT ?`,
		pageBackward: `SELECT ` + columns + ` FROM ` + t + ` WHERE id < ? ORDER BY id DESC LIMIT ?`,
		existsUpTo:   `SELECT EXISTS (SELECT 1 FROM ` + t + ` WHERE id <= ?)`,
		existsFrom:   `SELECT EXISTS (SELECT 1 FROM ` + t + ` WHERE id >= ?)`,
		history:      `SELECT id, load_id, source, count, loaded_at FROM ` + h + ` ORDER BY id DESC LIMIT ?`,
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDescription(sc scanner) (Description, error) {
	var d Description
	err := sc.Scan(
		&d.ID,
		&d.SourceID,
		&d.Title,
		&d.Description,
		&d.PublishedAt,
		&d.ActualStartAt,
	)
	return d, err
}
