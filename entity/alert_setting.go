package entity

// AlertSettings holds the notification channels for the current admin. Both
// fields are optional on their own but saving requires at least one of them.
type AlertSettings struct {
	Email        string `json:"email,omitempty" validate:"omitempty,email"`
	SlackWebhook string `json:"slackWebhook,omitempty" validate:"omitempty,url,startswith=https://hooks.slack.com/"`
}

// Empty reports whether no channel is configured.
func (s AlertSettings) Empty() bool {
	return s.Email == "" && s.SlackWebhook == ""
}
