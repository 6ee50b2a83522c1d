// Package service exposes the load and query operations on a description
// table to the surrounding application: the CLI and the HTTP API.
package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/PowerDNS/simpleblob"
	"github.com/c2h5oh/datasize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/PowerDNS/descstore/record"
	"github.com/PowerDNS/descstore/status/healthtracker"
	"github.com/PowerDNS/descstore/status/starttracker"
	"github.com/PowerDNS/descstore/store"
	"github.com/PowerDNS/descstore/utils/climit"
)

// Options configures a Service. All fields are optional.
type Options struct {
	Logger logrus.FieldLogger
	Parser record.Parser

	// Health tracks load outcomes for the healthz checks
	Health *healthtracker.HealthTracker

	// Startup is told when a load has put data into the table
	Startup *starttracker.StartTracker

	// LoadLimit limits the number of loads running at the same time
	LoadLimit *climit.ConcurrencyLimit
}

// Service wraps a store.Store with parsing, logging and metrics.
// It is safe for concurrent use.
type Service struct {
	st   *store.Store
	opts Options
	l    logrus.FieldLogger
}

// New returns a Service for st
func New(st *store.Store, opts Options) *Service {
	l := opts.Logger
	if l == nil {
		l = logrus.StandardLogger()
	}
	return &Service{
		st:   st,
		opts: opts,
		l:    l.WithField("table", st.Table()),
	}
}

// Store returns the underlying store
func (s *Service) Store() *store.Store {
	return s.st
}

// LoadFromStream parses r and replaces the contents of the table with the
// parsed records. Gzipped and LZ4 input is detected automatically.
// The name identifies the input in logs and the load history.
//
// If parsing fails, a *record.ParseError is returned and the table is not
// touched. Store failures are a *store.ConnectionError or *store.WriteError,
// and leave the table unchanged.
func (s *Service) LoadFromStream(ctx context.Context, name string, r io.Reader) (store.LoadResult, error) {
	return s.runLoad(ctx, name, func(ctx context.Context) (io.Reader, error) {
		return r, nil
	})
}

// LoadFromBlob loads the input file with the given name from a simpleblob
// storage backend. A failure to fetch the file is a *StorageError and is
// counted as a failed load.
func (s *Service) LoadFromBlob(ctx context.Context, st simpleblob.Interface, name string) (store.LoadResult, error) {
	return s.runLoad(ctx, name, func(ctx context.Context) (io.Reader, error) {
		data, err := st.Load(ctx, name)
		if err != nil {
			return nil, &StorageError{Name: name, Err: err}
		}
		return bytes.NewReader(data), nil
	})
}

// StorageError is returned when an input file could not be fetched from
// the storage backend
type StorageError struct {
	Name string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("load %q from storage: %v", e.Name, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// runLoad acquires a load slot, reads the input returned by open and
// records the outcome in metrics, health and logs.
func (s *Service) runLoad(ctx context.Context, name string, open func(context.Context) (io.Reader, error)) (store.LoadResult, error) {
	l := s.l.WithField("source", name)

	if s.opts.LoadLimit != nil {
		token, err := s.opts.LoadLimit.Acquire(ctx)
		if err != nil {
			l.WithError(err).Warn("Gave up waiting for a load slot")
			return store.LoadResult{}, &store.ConnectionError{Op: "acquire load slot", Err: err}
		}
		defer token.Release()
	}

	t0 := time.Now()
	var (
		res store.LoadResult
		cr  = &countingReader{}
	)
	r, err := open(ctx)
	if err == nil {
		cr.r = r
		res, err = s.load(ctx, name, cr)
	}
	dt := time.Since(t0)

	table := s.st.Table()
	metricLoads.WithLabelValues(table, loadResult(err)).Inc()
	metricLoadDuration.WithLabelValues(table).Observe(dt.Seconds())
	metricLoadInputBytes.WithLabelValues(table).Add(float64(cr.n))

	if err != nil {
		if s.opts.Health != nil {
			s.opts.Health.AddFailure()
		}
		l.WithError(err).WithField("duration", dt.Round(time.Millisecond)).Error("Load failed")
		return res, err
	}
	if s.opts.Health != nil {
		s.opts.Health.AddSuccess()
	}
	if s.opts.Startup != nil && res.Count > 0 {
		s.opts.Startup.SetDataPresent()
	}
	metricLoadLastRows.WithLabelValues(table).Set(float64(res.Count))
	metricLoadLastTimestamp.WithLabelValues(table).Set(float64(res.LoadedAt.Unix()))
	metricRows.WithLabelValues(table).Set(float64(res.Count))

	l.WithFields(logrus.Fields{
		"load_id":  res.LoadID.String(),
		"count":    res.Count,
		"size":     datasize.ByteSize(cr.n).HumanReadable(),
		"duration": dt.Round(time.Millisecond),
	}).Info("Load completed")
	return res, nil
}

func (s *Service) load(ctx context.Context, name string, r io.Reader) (store.LoadResult, error) {
	dr, err := record.Decompress(r)
	if err != nil {
		return store.LoadResult{}, &record.ParseError{Row: 1, Cause: errors.Wrap(err, "decompress")}
	}
	records, err := s.opts.Parser.Parse(dr)
	if err != nil {
		return store.LoadResult{}, err
	}
	s.l.WithField("source", name).WithField("count", len(records)).Debug("Parsed input")
	return s.st.ReplaceAll(ctx, records, name)
}

// GetBySourceID returns the description for sourceID. A missing key is
// reported as *store.NotFoundError.
func (s *Service) GetBySourceID(ctx context.Context, sourceID string) (store.Description, error) {
	d, err := s.st.GetBySourceID(ctx, sourceID)
	s.observeQuery("get", err)
	if err != nil {
		if !store.IsNotFound(err) {
			s.l.WithError(err).WithField("source_id", sourceID).Error("Get failed")
		}
		return d, err
	}
	s.l.WithField("source_id", sourceID).WithField("id", d.ID).Debug("Get")
	return d, nil
}

// GetPage returns a keyset page, see store.Store.Page
func (s *Service) GetPage(ctx context.Context, pageSize int, lastSeenID int64, dir store.Direction) (store.Page, error) {
	p, err := s.st.Page(ctx, pageSize, lastSeenID, dir)
	s.observeQuery("page", err)
	l := s.l.WithFields(logrus.Fields{
		"page_size":    pageSize,
		"last_seen_id": lastSeenID,
		"direction":    dir.String(),
	})
	if err != nil {
		if !store.IsInvalidArgument(err) {
			l.WithError(err).Error("Page query failed")
		}
		return p, err
	}
	l.WithFields(logrus.Fields{
		"items":    len(p.Items),
		"has_prev": p.HasPreviousPage,
		"has_next": p.HasNextPage,
	}).Debug("Page")
	return p, nil
}

// History returns the most recent completed loads, newest first
func (s *Service) History(ctx context.Context, limit int) ([]store.LoadHistory, error) {
	h, err := s.st.History(ctx, limit)
	s.observeQuery("history", err)
	return h, err
}

// Count returns the number of rows in the table
func (s *Service) Count(ctx context.Context) (int64, error) {
	n, err := s.st.Count(ctx)
	s.observeQuery("count", err)
	if err == nil {
		metricRows.WithLabelValues(s.st.Table()).Set(float64(n))
	}
	return n, err
}

func (s *Service) observeQuery(op string, err error) {
	metricQueries.WithLabelValues(s.st.Table(), op, queryResult(err)).Inc()
}

func loadResult(err error) string {
	var (
		pe *record.ParseError
		ce *store.ConnectionError
		we *store.WriteError
		se *StorageError
	)
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &pe):
		return "parse_error"
	case errors.As(err, &ce):
		return "connection_error"
	case errors.As(err, &we):
		return "write_error"
	case errors.As(err, &se):
		return "storage_error"
	default:
		return "error"
	}
}

func queryResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case store.IsNotFound(err):
		return "not_found"
	case store.IsInvalidArgument(err):
		return "invalid_argument"
	default:
		return "error"
	}
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
