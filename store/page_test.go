package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PowerDNS/descstore/record"
)

func TestPage_scenario(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := testContext(t)

	recs, err := record.Parse(stringsReader(
		"source_id,title,description,published_at,actual_start_at\n" +
			"S1,T1,D1,2024-01-01T00:00:00Z,2024-01-02T00:00:00Z\n" +
			"S2,T2,D2,2024-01-03T00:00:00Z,2024-01-04T00:00:00Z\n"))
	require.NoError(t, err)
	_, err = st.ReplaceAll(ctx, recs, "scenario")
	require.NoError(t, err)

	p1, err := st.Page(ctx, 1, 0, Forward)
	require.NoError(t, err)
	require.Len(t, p1.Items, 1)
	assert.Equal(t, "S1", p1.Items[0].SourceID)
	assert.True(t, p1.HasNextPage)
	assert.False(t, p1.HasPreviousPage)

	p2, err := st.Page(ctx, 1, p1.LastID(), Forward)
	require.NoError(t, err)
	require.Len(t, p2.Items, 1)
	assert.Equal(t, "S2", p2.Items[0].SourceID)
	assert.False(t, p2.HasNextPage)
	assert.True(t, p2.HasPreviousPage)

	// And back again
	p3, err := st.Page(ctx, 1, p2.FirstID(), Backward)
	require.NoError(t, err)
	assert.Equal(t, p1, p3)
}

func TestPage_singlePage(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := testContext(t)
	recs := makeRecords("S", 7)
	_, err := st.ReplaceAll(ctx, recs, "test")
	require.NoError(t, err)

	for _, size := range []int{7, 8, 100} {
		p, err := st.Page(ctx, size, 0, Forward)
		require.NoError(t, err)
		assert.Equal(t, recs, recordsOf(p.Items))
		assert.False(t, p.HasNextPage)
		assert.False(t, p.HasPreviousPage)
	}
}

func TestPage_forwardCompleteness(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := testContext(t)

	for _, k := range []int{0, 1, 9, 10, 11} {
		recs := makeRecords("S", k)
		_, err := st.ReplaceAll(ctx, recs, "test")
		require.NoError(t, err)

		for _, size := range []int{1, 3, 10} {
			var seen []Description
			var cursor int64
			for pages := 0; ; pages++ {
				require.Less(t, pages, k+2, "pagination does not terminate")
				p, err := st.Page(ctx, size, cursor, Forward)
				require.NoError(t, err)
				assert.LessOrEqual(t, len(p.Items), size)
				assert.Equal(t, cursor != 0, p.HasPreviousPage, "k=%d size=%d cursor=%d", k, size, cursor)
				seen = append(seen, p.Items...)
				if !p.HasNextPage {
					break
				}
				cursor = p.LastID()
			}
			assert.Equal(t, recs, recordsOf(seen), "k=%d size=%d", k, size)
			for i := 1; i < len(seen); i++ {
				assert.Greater(t, seen[i].ID, seen[i-1].ID)
			}
		}
	}
}

func TestPage_backwardCompleteness(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := testContext(t)
	recs := makeRecords("S", 10)
	_, err := st.ReplaceAll(ctx, recs, "test")
	require.NoError(t, err)

	var seen []Description
	var cursor int64 // 0 starts at the end
	for {
		p, err := st.Page(ctx, 3, cursor, Backward)
		require.NoError(t, err)
		assert.Equal(t, cursor != 0, p.HasNextPage)
		seen = append(p.Items, seen...)
		if !p.HasPreviousPage {
			break
		}
		cursor = p.FirstID()
	}
	assert.Equal(t, recs, recordsOf(seen))
}

func TestPage_pastEnd(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := testContext(t)
	res, err := st.ReplaceAll(ctx, makeRecords("S", 4), "test")
	require.NoError(t, err)

	p, err := st.Page(ctx, 2, res.LastID, Forward)
	require.NoError(t, err)
	assert.NotNil(t, p.Items)
	assert.Len(t, p.Items, 0)
	assert.False(t, p.HasNextPage)
	assert.True(t, p.HasPreviousPage)

	p, err = st.Page(ctx, 2, res.LastID+100, Forward)
	require.NoError(t, err)
	assert.Len(t, p.Items, 0)
	assert.False(t, p.HasNextPage)
	assert.True(t, p.HasPreviousPage)
}

func TestPage_emptyTable(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := testContext(t)

	for _, dir := range []Direction{Forward, Backward} {
		p, err := st.Page(ctx, 5, 0, dir)
		require.NoError(t, err)
		assert.Len(t, p.Items, 0)
		assert.False(t, p.HasNextPage)
		assert.False(t, p.HasPreviousPage)
	}
}

func TestPage_invalidArguments(t *testing.T) {
	st, db := newTestStore(t)
	ctx := testContext(t)
	// Arguments are checked before the store is accessed
	require.NoError(t, db.Close())

	tests := []struct {
		name     string
		size     int
		lastSeen int64
		dir      Direction
	}{
		{"zero-size", 0, 0, Forward},
		{"negative-size", -1, 0, Forward},
		{"negative-cursor", 10, -5, Forward},
		{"bad-direction", 10, 0, Direction(7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := st.Page(ctx, tt.size, tt.lastSeen, tt.dir)
			assert.True(t, IsInvalidArgument(err), "got %v", err)
		})
	}
}

func TestPage_queryError(t *testing.T) {
	st, db := newTestStore(t)
	require.NoError(t, db.Close())
	_, err := st.Page(testContext(t), 10, 0, Forward)
	var qe *QueryError
	assert.ErrorAs(t, err, &qe)
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in      string
		want    Direction
		wantErr bool
	}{
		{"", Forward, false},
		{"forward", Forward, false},
		{"Backward", Backward, false},
		{"prev", Backward, false},
		{"sideways", Forward, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDirection(tt.in)
			if tt.wantErr {
				assert.True(t, IsInvalidArgument(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
