package entity

// UnknownUserLabel is the sentinel a blank or missing user id coalesces to.
const UnknownUserLabel = "(unknown)"

// UserBucket counts queries per user.
type UserBucket struct {
	UserID string `json:"userId"`
	Count  int64  `json:"count"`
}

// HourBucket counts queries per local hour. HourLabel is always "HH:00".
type HourBucket struct {
	HourLabel string `json:"hourLabel"`
	Count     int64  `json:"count"`
}

// UsageStats is the aggregated output for the stats view: top users sorted
// descending by count (max 10) and a full 24-entry hourly series, plus the
// derived KPI values the dashboard header shows.
type UsageStats struct {
	ByUser []UserBucket `json:"byUser"`
	ByHour []HourBucket `json:"byHour"`

	TotalQueries int64  `json:"totalQueries"`
	TopUser      string `json:"topUser"`
	PeakHour     string `json:"peakHour"`
}
