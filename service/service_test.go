package service

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PowerDNS/simpleblob/backends/memory"
	"github.com/klauspost/compress/gzip"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PowerDNS/descstore/record"
	"github.com/PowerDNS/descstore/status/healthtracker"
	"github.com/PowerDNS/descstore/store"
	"github.com/PowerDNS/descstore/utils/climit"
)

const testInput = "source_id,title,description,published_at,actual_start_at\n" +
	"S1,T1,D1,2024-01-01T00:00:00Z,2024-01-02T00:00:00Z\n" +
	"S2,T2,D2,2024-01-03T00:00:00Z,2024-01-04T00:00:00Z\n"

func newTestService(t *testing.T, table string, opts Options) *Service {
	ctx := context.Background()
	db, err := store.Open(ctx, filepath.Join(t.TempDir(), "test.db"), 4)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	st, err := store.New(db, store.Options{Table: table})
	require.NoError(t, err)
	require.NoError(t, st.EnsureSchema(ctx))

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)
	opts.Logger = logger
	return New(st, opts)
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestService_roundTrip(t *testing.T) {
	svc := newTestService(t, "roundtrip", Options{})
	ctx := testContext(t)

	res, err := svc.LoadFromStream(ctx, "input.csv", strings.NewReader(testInput))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)

	want, err := record.Parse(strings.NewReader(testInput))
	require.NoError(t, err)

	p, err := svc.GetPage(ctx, len(want), 0, store.Forward)
	require.NoError(t, err)
	require.Len(t, p.Items, 2)
	assert.Equal(t, want[0], p.Items[0].Record)
	assert.Equal(t, want[1], p.Items[1].Record)
	assert.False(t, p.HasNextPage)
	assert.False(t, p.HasPreviousPage)

	d, err := svc.GetBySourceID(ctx, "S2")
	require.NoError(t, err)
	assert.Equal(t, "T2", d.Title)

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	assert.Equal(t, float64(1), testutil.ToFloat64(metricLoads.WithLabelValues("roundtrip", "success")))
	assert.Equal(t, float64(2), testutil.ToFloat64(metricRows.WithLabelValues("roundtrip")))
	assert.Equal(t, float64(len(testInput)), testutil.ToFloat64(metricLoadInputBytes.WithLabelValues("roundtrip")))
}

func TestService_parseErrorLeavesTableUnchanged(t *testing.T) {
	ht := healthtracker.New(healthtracker.DefaultConfig, "test_parse", "load")
	svc := newTestService(t, "parsefail", Options{Health: ht})
	ctx := testContext(t)

	_, err := svc.LoadFromStream(ctx, "good.csv", strings.NewReader(testInput))
	require.NoError(t, err)

	bad := testInput + "S3,T3,D3,not-a-date,2024-01-05T00:00:00Z\n"
	_, err = svc.LoadFromStream(ctx, "bad.csv", strings.NewReader(bad))
	var pe *record.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 4, pe.Row)
	assert.ErrorIs(t, err, record.ErrBadTimestamp)
	assert.Equal(t, uint32(1), ht.Failures())

	p, err := svc.GetPage(ctx, 10, 0, store.Forward)
	require.NoError(t, err)
	assert.Len(t, p.Items, 2)

	// The store was never invoked, so there is no history entry
	hist, err := svc.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "good.csv", hist[0].Source)

	assert.Equal(t, float64(1), testutil.ToFloat64(metricLoads.WithLabelValues("parsefail", "parse_error")))

	_, err = svc.LoadFromStream(ctx, "good.csv", strings.NewReader(testInput))
	require.NoError(t, err)
	assert.Equal(t, uint32(0), ht.Failures())
}

func TestService_gzip(t *testing.T) {
	svc := newTestService(t, "gzipped", Options{})
	ctx := testContext(t)

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, err := gw.Write([]byte(testInput))
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	res, err := svc.LoadFromStream(ctx, "input.csv.gz", &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
}

func TestService_corruptGzip(t *testing.T) {
	svc := newTestService(t, "corrupt", Options{})
	ctx := testContext(t)

	_, err := svc.LoadFromStream(ctx, "bad.gz", bytes.NewReader([]byte{0x1f, 0x8b, 0x00}))
	var pe *record.ParseError
	assert.ErrorAs(t, err, &pe)
}

func TestService_LoadFromBlob(t *testing.T) {
	lim := climit.New("blob", "load", 1, nil)
	health := healthtracker.New(healthtracker.DefaultConfig, "test_blob", "load")
	svc := newTestService(t, "blob", Options{LoadLimit: lim, Health: health})
	ctx := testContext(t)

	st := memory.New()
	require.NoError(t, st.Store(ctx, "incoming/input.csv", []byte(testInput)))

	res, err := svc.LoadFromBlob(ctx, st, "incoming/input.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, "incoming/input.csv", res.Source)

	_, err = svc.LoadFromBlob(ctx, st, "missing.csv")
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "missing.csv", se.Name)
	assert.Equal(t, float64(1), testutil.ToFloat64(metricLoads.WithLabelValues("blob", "storage_error")))
	assert.Equal(t, uint32(1), health.Failures())

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n, "failed fetch leaves the table as it was")
}

func TestService_loadLimitCancelled(t *testing.T) {
	lim := climit.New("limited", "load", 1, nil)
	svc := newTestService(t, "limited", Options{LoadLimit: lim})

	token, err := lim.Acquire(testContext(t))
	require.NoError(t, err)
	defer token.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = svc.LoadFromStream(ctx, "input.csv", strings.NewReader(testInput))
	var ce *store.ConnectionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "acquire load slot", ce.Op)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestService_queryErrors(t *testing.T) {
	svc := newTestService(t, "queries", Options{})
	ctx := testContext(t)

	_, err := svc.GetBySourceID(ctx, "nope")
	assert.True(t, store.IsNotFound(err))
	assert.Equal(t, float64(1), testutil.ToFloat64(metricQueries.WithLabelValues("queries", "get", "not_found")))

	_, err = svc.GetPage(ctx, 0, 0, store.Forward)
	assert.True(t, store.IsInvalidArgument(err))
	assert.Equal(t, float64(1), testutil.ToFloat64(metricQueries.WithLabelValues("queries", "page", "invalid_argument")))
}
