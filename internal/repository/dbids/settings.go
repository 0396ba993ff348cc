package dbids

import (
	"context"
	"encoding/json"
	"net/http"

	errwrap "github.com/pkg/errors"

	"github.com/dbids-ops/dbids-console/entity"
)

// GetAlertSettings reads the admin's alert channels. The X-Admin-Email
// header the endpoint requires comes from the session's request decorator.
func (c *Client) GetAlertSettings(ctx context.Context) (*entity.AlertSettings, error) {
	raw, _, err := c.do(ctx, http.MethodGet, "/api/settings/alerts", nil, nil)
	if err != nil {
		return nil, err
	}

	var settings entity.AlertSettings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return nil, errwrap.Wrap(err, "dbids.GetAlertSettings")
	}
	return &settings, nil
}

// UpdateAlertSettings patches the alert channels. Blank fields are omitted
// from the payload so the backend only touches what the admin filled in.
func (c *Client) UpdateAlertSettings(ctx context.Context, settings entity.AlertSettings) error {
	_, _, err := c.do(ctx, http.MethodPatch, "/api/settings/alerts", nil, settings)
	return err
}
