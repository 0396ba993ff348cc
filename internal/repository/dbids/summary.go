package dbids

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	errwrap "github.com/pkg/errors"

	"github.com/dbids-ops/dbids-console/entity"
)

// The summary endpoint has drifted across backend versions: sometimes a bare
// array, sometimes an object wrapping the array under one of several keys.
// Decoding tries the known shapes in priority order and fails loudly when
// none match.
var (
	userArrayKeys = []string{"users", "user", "data", "content"}
	hourArrayKeys = []string{"hours", "hour", "data", "content"}
)

func summaryQuery(by, from, to string) url.Values {
	q := url.Values{}
	q.Set("by", by)
	if from != "" {
		q.Set("from", from)
	}
	if to != "" {
		q.Set("to", to)
	}
	return q
}

// FetchUserSummary returns the server-computed per-user counts for the date
// range. An empty slice means the server had no data, which is the caller's
// cue to fall back to client-side aggregation.
func (c *Client) FetchUserSummary(ctx context.Context, from, to string) ([]entity.UserBucket, error) {
	raw, _, err := c.do(ctx, http.MethodGet, "/api/logs/summary", summaryQuery("user", from, to), nil)
	if err != nil {
		return nil, err
	}

	items, err := pickArray(raw, userArrayKeys)
	if err != nil {
		return nil, err
	}
	return normalizeUserBuckets(items), nil
}

// FetchHourSummary returns the server-computed per-hour counts for the date
// range, labels normalized to "HH:00" and sorted ascending.
func (c *Client) FetchHourSummary(ctx context.Context, from, to string) ([]entity.HourBucket, error) {
	raw, _, err := c.do(ctx, http.MethodGet, "/api/logs/summary", summaryQuery("hour", from, to), nil)
	if err != nil {
		return nil, err
	}

	items, err := pickArray(raw, hourArrayKeys)
	if err != nil {
		return nil, err
	}
	return normalizeHourBuckets(items), nil
}

// pickArray extracts the bucket list from either a bare JSON array or an
// object wrapping one under a known key.
func pickArray(raw []byte, keys []string) ([]json.RawMessage, error) {
	trimmed := strings.TrimLeft(string(raw), " \t\r\n")

	if strings.HasPrefix(trimmed, "[") {
		var items []json.RawMessage
		if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
			return nil, errwrap.Wrap(err, "dbids.pickArray")
		}
		return items, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &wrapper); err != nil {
		return nil, errwrap.Wrap(ErrUnrecognizedShape, "dbids.pickArray")
	}
	for _, key := range keys {
		inner, ok := wrapper[key]
		if !ok {
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal(inner, &items); err != nil {
			continue
		}
		return items, nil
	}
	return nil, errwrap.Wrapf(ErrUnrecognizedShape, "dbids.pickArray: no array under %v", keys)
}

type rawUserBucket struct {
	UserID  string   `json:"userId"`
	User    string   `json:"user"`
	Email   string   `json:"email"`
	Count   *float64 `json:"count"`
	Total   *float64 `json:"total"`
	Success *float64 `json:"success"`
	Failure *float64 `json:"failure"`
}

func normalizeUserBuckets(items []json.RawMessage) []entity.UserBucket {
	out := make([]entity.UserBucket, 0, len(items))
	for _, item := range items {
		var b rawUserBucket
		if err := json.Unmarshal(item, &b); err != nil {
			continue
		}

		var count float64
		switch {
		case b.Count != nil:
			count = *b.Count
		case b.Total != nil:
			count = *b.Total
		default:
			if b.Success != nil {
				count += *b.Success
			}
			if b.Failure != nil {
				count += *b.Failure
			}
		}

		out = append(out, entity.UserBucket{
			UserID: coalesceUser(b.UserID, b.User, b.Email),
			Count:  int64(count),
		})
	}
	return out
}

// coalesceUser picks the first non-blank identifier, falling back to the
// sentinel so no bucket is ever dropped for lacking a user id.
func coalesceUser(candidates ...string) string {
	for _, c := range candidates {
		if s := strings.TrimSpace(c); s != "" {
			return s
		}
	}
	return entity.UnknownUserLabel
}

type rawHourBucket struct {
	Hour      json.RawMessage `json:"hour"`
	HourLabel json.RawMessage `json:"hourLabel"`
	Time      json.RawMessage `json:"time"`
	Bucket    json.RawMessage `json:"bucket"`
	Count     *float64        `json:"count"`
	Total     *float64        `json:"total"`
}

func normalizeHourBuckets(items []json.RawMessage) []entity.HourBucket {
	out := make([]entity.HourBucket, 0, len(items))
	for _, item := range items {
		var b rawHourBucket
		if err := json.Unmarshal(item, &b); err != nil {
			continue
		}

		raw := firstRaw(b.Hour, b.HourLabel, b.Time, b.Bucket)
		var count float64
		if b.Count != nil {
			count = *b.Count
		} else if b.Total != nil {
			count = *b.Total
		}

		out = append(out, entity.HourBucket{
			HourLabel: hourLabel(raw),
			Count:     int64(count),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HourLabel < out[j].HourLabel })
	return out
}

func firstRaw(candidates ...json.RawMessage) json.RawMessage {
	for _, c := range candidates {
		if len(c) > 0 && string(c) != "null" {
			return c
		}
	}
	return nil
}

// hourLabel renders any of the observed hour encodings as "HH:00": an
// "HH:MM" prefix, a full timestamp (local hour), or a bare hour number.
// Anything else passes through verbatim so the chart still shows something.
func hourLabel(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if len(s) >= 5 && isDigits(s[:2]) && s[2] == ':' && isDigits(s[3:5]) {
			hh, _ := strconv.Atoi(s[:2])
			return fmt.Sprintf("%02d:00", hh)
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
			if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
				return fmt.Sprintf("%02d:00", t.Hour())
			}
		}
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return fmt.Sprintf("%02d:00", n)
		}
		return s
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return fmt.Sprintf("%02d:00", int(n))
	}
	return string(raw)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
