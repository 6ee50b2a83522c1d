package store

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stringsReader(s string) io.Reader {
	return strings.NewReader(s)
}

func TestGetBySourceID(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := testContext(t)

	recs := makeRecords("S", 3)
	dup := recs[1]
	dup.Title = "duplicate"
	recs = append(recs, dup)
	_, err := st.ReplaceAll(ctx, recs, "test")
	require.NoError(t, err)

	d, err := st.GetBySourceID(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, recs[0], d.Record)

	// The first loaded match wins
	d, err = st.GetBySourceID(ctx, "S2")
	require.NoError(t, err)
	assert.Equal(t, "title 2", d.Title)

	_, err = st.GetBySourceID(ctx, "nope")
	assert.True(t, IsNotFound(err))
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "nope", nf.SourceID)
}

func TestHistory(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := testContext(t)

	for i, name := range []string{"one.csv", "two.csv", "three.csv"} {
		_, err := st.ReplaceAll(ctx, makeRecords("S", i+1), name)
		require.NoError(t, err)
	}

	hist, err := st.History(ctx, 2)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "three.csv", hist[0].Source)
	assert.Equal(t, 3, hist[0].Count)
	assert.Equal(t, "two.csv", hist[1].Source)
	assert.NotEmpty(t, hist[0].LoadedAt)

	_, err = st.History(ctx, 0)
	assert.True(t, IsInvalidArgument(err))
}
