package dbids

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	errwrap "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbids-ops/dbids-console/entity"
)

func TestPickArray(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{name: "bare array", raw: `[{"a":1},{"a":2}]`, want: 2},
		{name: "wrapped under users", raw: `{"users":[{"a":1}]}`, want: 1},
		{name: "wrapped under data", raw: `{"data":[{"a":1},{"a":2},{"a":3}]}`, want: 3},
		{name: "empty wrapped array", raw: `{"users":[]}`, want: 0},
		{name: "unknown wrapper key", raw: `{"rows":[{"a":1}]}`, wantErr: true},
		{name: "scalar body", raw: `42`, wantErr: true},
		{name: "key holds non-array", raw: `{"users":"nope"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := pickArray([]byte(tt.raw), userArrayKeys)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errwrap.Is(err, ErrUnrecognizedShape),
					"decode failures are explicit, never silent empties")
				return
			}
			require.NoError(t, err)
			assert.Len(t, items, tt.want)
		})
	}
}

func TestNormalizeUserBuckets(t *testing.T) {
	items := mustRawItems(t, `[
		{"userId":"alice","count":5,"total":99},
		{"user":"bob","total":3},
		{"email":"carol@example.com","success":2,"failure":1},
		{"count":4},
		{"userId":"  ","user":"dave","count":1}
	]`)

	out := normalizeUserBuckets(items)
	require.Len(t, out, 5)

	assert.Equal(t, entity.UserBucket{UserID: "alice", Count: 5}, out[0], "count beats total")
	assert.Equal(t, entity.UserBucket{UserID: "bob", Count: 3}, out[1])
	assert.Equal(t, entity.UserBucket{UserID: "carol@example.com", Count: 3}, out[2], "success+failure fallback")
	assert.Equal(t, entity.UserBucket{UserID: entity.UnknownUserLabel, Count: 4}, out[3])
	assert.Equal(t, entity.UserBucket{UserID: "dave", Count: 1}, out[4], "blank ids skipped, not trusted")
}

func TestNormalizeHourBuckets(t *testing.T) {
	items := mustRawItems(t, `[
		{"hour":"09:30","count":4},
		{"hourLabel":"2024-05-01T17:45:12","count":2},
		{"bucket":7,"total":6},
		{"time":"3","count":1}
	]`)

	out := normalizeHourBuckets(items)
	require.Len(t, out, 4)

	// Sorted ascending by label regardless of input order.
	assert.Equal(t, entity.HourBucket{HourLabel: "03:00", Count: 1}, out[0])
	assert.Equal(t, entity.HourBucket{HourLabel: "07:00", Count: 6}, out[1])
	assert.Equal(t, entity.HourBucket{HourLabel: "09:00", Count: 4}, out[2])
	assert.Equal(t, entity.HourBucket{HourLabel: "17:00", Count: 2}, out[3])
}

func TestHourLabelPassthrough(t *testing.T) {
	assert.Equal(t, "morning", hourLabel(json.RawMessage(`"morning"`)),
		"unrecognized labels pass through so the chart still renders")
	assert.Equal(t, "", hourLabel(nil))
}

func TestFetchUserSummaryEndToEnd(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/logs/summary", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "user", q.Get("by"))
		assert.Equal(t, "2024-01-01", q.Get("from"))
		assert.Equal(t, "2024-01-07", q.Get("to"))
		w.Write([]byte(`{"users":[{"userId":"alice","count":5}]}`))
	})

	buckets, err := c.FetchUserSummary(context.Background(), "2024-01-01", "2024-01-07")
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assert.Equal(t, "alice", buckets[0].UserID)
	assert.Equal(t, int64(5), buckets[0].Count)
}

func TestFetchHourSummaryUnrecognizedShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "hour", r.URL.Query().Get("by"))
		w.Write([]byte(`{"histogram":[1,2,3]}`))
	})

	_, err := c.FetchHourSummary(context.Background(), "", "")
	require.Error(t, err)
	assert.True(t, errwrap.Is(err, ErrUnrecognizedShape))
}

func mustRawItems(t *testing.T, raw string) []json.RawMessage {
	t.Helper()
	var items []json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &items))
	return items
}
