package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryLogRowExecutedTime(t *testing.T) {
	tests := []struct {
		name  string
		value string
		hour  int
		ok    bool
	}{
		{name: "rfc3339", value: "2024-01-03T10:15:00Z", hour: -1, ok: true},
		{name: "rfc3339 nano", value: "2024-01-03T10:15:00.123456789Z", hour: -1, ok: true},
		{name: "no zone", value: "2024-01-03T10:15:00", hour: 10, ok: true},
		{name: "space separator", value: "2024-01-03 22:05:00", hour: 22, ok: true},
		{name: "garbage", value: "last tuesday", ok: false},
		{name: "blank", value: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, ok := QueryLogRow{ExecutedAt: tt.value}.ExecutedTime()
			require.Equal(t, tt.ok, ok)
			if ok && tt.hour >= 0 {
				assert.Equal(t, tt.hour, ts.Hour())
			}
		})
	}
}

func TestQueryLogRowAliasFolding(t *testing.T) {
	var row QueryLogRow
	require.NoError(t, json.Unmarshal([]byte(`{"id":"1","sql":"SELECT a"}`), &row))
	assert.Equal(t, "SELECT a", row.SQLRaw)

	row = QueryLogRow{}
	require.NoError(t, json.Unmarshal([]byte(`{"id":"2","sqlFull":"SELECT b","sql":""}`), &row))
	assert.Equal(t, "SELECT b", row.SQLRaw)

	row = QueryLogRow{}
	require.NoError(t, json.Unmarshal([]byte(`{"id":"3","sqlRaw":"SELECT c","sql":"SELECT d"}`), &row))
	assert.Equal(t, "SELECT c", row.SQLRaw, "canonical field wins")

	// Nothing re-emits the aliases.
	out, err := json.Marshal(row)
	require.NoError(t, err)
	assert.NotContains(t, string(out), `"sql":`)
	assert.Contains(t, string(out), `"sqlRaw":"SELECT c"`)
}

func TestPageRequestSort(t *testing.T) {
	assert.Empty(t, PageRequest{}.Sort())
	assert.Equal(t, "executedAt,DESC", PageRequest{SortField: "executedAt", SortDir: SortDesc}.Sort())
	assert.Equal(t, "userId,ASC", PageRequest{SortField: "userId"}.Sort(), "direction defaults to ascending")
}

func TestPageRequestCloneIsDeep(t *testing.T) {
	orig := PageRequest{
		Page:    2,
		Size:    20,
		Filters: map[string][]string{"status": {"FAILURE"}},
	}
	cp := orig.WithPage(0)
	cp.Filters["status"][0] = "DENY"
	cp.Filters["userId"] = []string{"alice"}

	assert.Equal(t, 2, orig.Page)
	assert.Equal(t, []string{"FAILURE"}, orig.Filters["status"])
	_, present := orig.Filters["userId"]
	assert.False(t, present)
}
