package entity

import (
	"encoding/json"
	"time"
)

type QueryStatus string

const (
	StatusSuccess QueryStatus = "SUCCESS"
	StatusFailure QueryStatus = "FAILURE"
	StatusDeny    QueryStatus = "DENY"
)

// QueryLogRow is one row of the backend's query log. ExecutedAt stays a
// string on the wire; use ExecutedTime for tolerant parsing.
type QueryLogRow struct {
	ID         string      `json:"id"`
	UserID     string      `json:"userId"`
	ExecutedAt string      `json:"executedAt"`
	Status     QueryStatus `json:"status"`
	ReturnRows int64       `json:"returnRows"`
	SQLSummary string      `json:"sqlSummary,omitempty"`
	SQLRaw     string      `json:"sqlRaw,omitempty"`
}

// UnmarshalJSON folds the legacy raw-SQL aliases (sql, sqlFull) into SQLRaw.
// Nothing re-emits them; sqlRaw is the canonical field.
func (r *QueryLogRow) UnmarshalJSON(data []byte) error {
	type plain QueryLogRow
	aux := struct {
		*plain
		SQL     string `json:"sql"`
		SQLFull string `json:"sqlFull"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if r.SQLRaw == "" {
		if aux.SQL != "" {
			r.SQLRaw = aux.SQL
		} else {
			r.SQLRaw = aux.SQLFull
		}
	}
	return nil
}

var executedAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ExecutedTime parses ExecutedAt, trying the timestamp layouts the backend
// has been observed to emit. ok is false when none match.
func (r QueryLogRow) ExecutedTime() (time.Time, bool) {
	for _, layout := range executedAtLayouts {
		if t, err := time.ParseInLocation(layout, r.ExecutedAt, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
