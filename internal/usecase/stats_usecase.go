package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/dbids-ops/dbids-console/entity"
)

// fallbackFetchCap bounds the bulk fetch used for client-side aggregation.
const fallbackFetchCap = 1000

const topUserLimit = 10

// StatsRepository is what the aggregator needs from the backend client.
type StatsRepository interface {
	FetchUserSummary(ctx context.Context, from, to string) ([]entity.UserBucket, error)
	FetchHourSummary(ctx context.Context, from, to string) ([]entity.HourBucket, error)
	FetchLogs(ctx context.Context, req entity.PageRequest) (*entity.PageResult[entity.QueryLogRow], error)
}

// StatsUsecase produces the usage views for a date range: top users and a
// 24-bucket hourly histogram. Server summaries are preferred; when a
// dimension's summary is empty the newest raw rows are fetched once and
// aggregated locally.
type StatsUsecase struct {
	repo StatsRepository
	log  *zap.Logger
}

func NewStatsUsecase(repo StatsRepository, log *zap.Logger) *StatsUsecase {
	return &StatsUsecase{
		repo: repo,
		log:  log.Named("stats"),
	}
}

// Collect runs both dimensions for the inclusive [from, to] date range
// (dates as "2006-01-02"; blank or unparseable bounds are unbounded).
//
// The returned stats are always renderable, zero-filled at worst. A non-nil
// error alongside them means the fallback path failed too and the caller
// should show a non-blocking error indicator, not a blank screen.
func (u *StatsUsecase) Collect(ctx context.Context, from, to string) (*entity.UsageStats, error) {
	// Summary attempts are independent; failure of one never blocks the
	// other. Errors here only demote the dimension to the fallback path.
	users, err := u.repo.FetchUserSummary(ctx, from, to)
	if err != nil {
		u.log.Warn("user summary unavailable", zap.Error(err))
		users = nil
	}
	hours, err := u.repo.FetchHourSummary(ctx, from, to)
	if err != nil {
		u.log.Warn("hour summary unavailable", zap.Error(err))
		hours = nil
	}

	var fallbackErr error
	if len(users) == 0 || len(hours) == 0 {
		rows, err := u.fetchRecentRows(ctx, from, to)
		if err != nil {
			fallbackErr = err
			u.log.Warn("fallback fetch failed", zap.Error(err))
		}
		if len(users) == 0 {
			users = aggregateByUser(rows)
		}
		if len(hours) == 0 {
			hours = aggregateByHour(rows, from, to)
		}
	}

	stats := &entity.UsageStats{
		ByUser: topUsers(users, topUserLimit),
		ByHour: fullHourSeries(hours),
	}
	fillKPIs(stats)
	return stats, fallbackErr
}

func (u *StatsUsecase) fetchRecentRows(ctx context.Context, from, to string) ([]entity.QueryLogRow, error) {
	req := entity.PageRequest{
		Page:      0,
		Size:      fallbackFetchCap,
		SortField: "executedAt",
		SortDir:   entity.SortDesc,
		Filters:   map[string][]string{},
	}
	if from != "" {
		req.Filters["from"] = []string{from}
	}
	if to != "" {
		req.Filters["to"] = []string{to}
	}

	res, err := u.repo.FetchLogs(ctx, req)
	if err != nil {
		return nil, err
	}
	return res.Content, nil
}

// aggregateByUser groups rows by coalesced user id. No cap on distinct
// users here; truncation to the top N happens at the end.
func aggregateByUser(rows []entity.QueryLogRow) []entity.UserBucket {
	counts := map[string]int64{}
	for _, row := range rows {
		label := row.UserID
		if label == "" {
			label = entity.UnknownUserLabel
		}
		counts[label]++
	}

	out := make([]entity.UserBucket, 0, len(counts))
	for userID, count := range counts {
		out = append(out, entity.UserBucket{UserID: userID, Count: count})
	}
	return out
}

// aggregateByHour buckets rows by local hour within the inclusive
// [from 00:00, to 23:59:59] window. An unparseable bound leaves that side
// unbounded rather than failing.
func aggregateByHour(rows []entity.QueryLogRow, from, to string) []entity.HourBucket {
	var lower, upper time.Time
	var haveLower, haveUpper bool

	if t, err := time.ParseInLocation("2006-01-02", from, time.Local); err == nil {
		lower, haveLower = t, true
	}
	if t, err := time.ParseInLocation("2006-01-02", to, time.Local); err == nil {
		upper, haveUpper = t.Add(24*time.Hour-time.Second), true
	}

	counts := map[int]int64{}
	for _, row := range rows {
		t, ok := row.ExecutedTime()
		if !ok {
			continue
		}
		if haveLower && t.Before(lower) {
			continue
		}
		if haveUpper && t.After(upper) {
			continue
		}
		counts[t.Hour()]++
	}

	out := make([]entity.HourBucket, 0, 24)
	for h := 0; h < 24; h++ {
		out = append(out, entity.HourBucket{
			HourLabel: fmt.Sprintf("%02d:00", h),
			Count:     counts[h],
		})
	}
	return out
}

// topUsers sorts descending by count and truncates. Ties break on user id
// so the output is deterministic.
func topUsers(buckets []entity.UserBucket, limit int) []entity.UserBucket {
	out := append([]entity.UserBucket(nil), buckets...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].UserID < out[j].UserID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// fullHourSeries guarantees all 24 labels, zero-filled, ordered ascending,
// regardless of what the summary endpoint produced.
func fullHourSeries(buckets []entity.HourBucket) []entity.HourBucket {
	counts := map[string]int64{}
	for _, b := range buckets {
		counts[b.HourLabel] += b.Count
	}

	out := make([]entity.HourBucket, 0, 24)
	for h := 0; h < 24; h++ {
		label := fmt.Sprintf("%02d:00", h)
		out = append(out, entity.HourBucket{HourLabel: label, Count: counts[label]})
	}
	return out
}

func fillKPIs(stats *entity.UsageStats) {
	for _, b := range stats.ByUser {
		stats.TotalQueries += b.Count
	}
	stats.TopUser = "-"
	if len(stats.ByUser) > 0 && stats.ByUser[0].Count > 0 {
		stats.TopUser = stats.ByUser[0].UserID
	}
	stats.PeakHour = "-"
	var peak int64
	for _, b := range stats.ByHour {
		if b.Count > peak {
			peak = b.Count
			stats.PeakHour = b.HourLabel
		}
	}
}
