package entity

type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// DetectionEvent is one row of the paginated /api/events listing.
type DetectionEvent struct {
	ID         string   `json:"id"`
	LogID      string   `json:"logId"`
	EventType  string   `json:"eventType"`
	Severity   Severity `json:"severity"`
	OccurredAt string   `json:"occurredAt"`
	UserID     string   `json:"userId,omitempty"`
	AdminID    string   `json:"adminId,omitempty"`
	SQLPreview string   `json:"sqlPreview,omitempty"`
}

// StreamEvent is one live detection notification from the server-push
// stream. The stream uses a slightly different field set than the listing.
type StreamEvent struct {
	EventID    string   `json:"eventId"`
	LogID      string   `json:"logId"`
	Type       string   `json:"type"`
	Severity   Severity `json:"severity"`
	OccurredAt string   `json:"occurredAt"`
	SQLRaw     string   `json:"sqlRaw,omitempty"`
	UserEmail  string   `json:"userEmail,omitempty"`
	UserID     string   `json:"userId,omitempty"`
}
