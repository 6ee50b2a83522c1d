// Package climit limits how many operations of a kind can run at once.
package climit

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// New creates a new ConcurrencyLimit with a given limit.
// The table and name are used as Prometheus labels.
func New(table, name string, limit int, logger logrus.FieldLogger) *ConcurrencyLimit {
	if logger == nil {
		lr := logrus.New()
		lr.SetLevel(logrus.PanicLevel) // never reached
		logger = lr
	}
	logger = logger.WithField("limit_name", name).WithField("table", table)
	if limit < 1 {
		logger.Warnf(
			"Increasing concurrency limit from configured %d to minimum of 1", limit)
		limit = 1
	}
	l := &ConcurrencyLimit{
		labels: prometheus.Labels{
			"table":      table,
			"limit_name": name,
		},
		ch:  make(chan struct{}, limit),
		log: logger,
	}
	for i := 0; i < limit; i++ {
		l.ch <- struct{}{}
	}
	metricLimit.With(l.labels).Set(float64(limit))
	return l
}

// ConcurrencyLimit enforces a concurrency limit with tokens that need to be
// held while the limited operation runs.
// A Token is acquired with Acquire and MUST be released with Token.Release.
type ConcurrencyLimit struct {
	labels prometheus.Labels
	ch     chan struct{}
	log    logrus.FieldLogger
}

// Acquire blocks until a Token is available or the context is done.
// On success the caller MUST call Token.Release when done.
func (cl *ConcurrencyLimit) Acquire(ctx context.Context) (*Token, error) {
	cl.log.Debug("Acquiring token")
	metricWaiting.With(cl.labels).Inc()
	defer metricWaiting.With(cl.labels).Dec()

	t0 := time.Now()
	select {
	case <-cl.ch:
	case <-ctx.Done():
		cl.log.WithField("waited", time.Since(t0)).Debug("Gave up waiting for token")
		return nil, ctx.Err()
	}
	dt := time.Since(t0)

	metricActive.With(cl.labels).Inc()
	metricAcquiredTotal.With(cl.labels).Inc()
	metricWaitingSeconds.With(cl.labels).Observe(dt.Seconds())

	cl.log.WithField("time_to_acquire", dt).Debug("Acquired token")
	return &Token{cl: cl, time: time.Now()}, nil
}

// Token allows the holder to proceed with a limited operation
type Token struct {
	mu   sync.Mutex
	cl   *ConcurrencyLimit
	time time.Time
}

// Release releases the Token.
// It can safely be called more than once, even from different goroutines.
// It returns how long the Token was held, or 0 if it had already been released.
func (t *Token) Release() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cl == nil {
		return 0
	}
	t.cl.ch <- struct{}{}
	dt := time.Since(t.time)
	metricActive.With(t.cl.labels).Dec()
	metricActiveSeconds.With(t.cl.labels).Observe(dt.Seconds())
	t.cl.log.Debug("Released token")
	t.cl = nil
	return dt
}
