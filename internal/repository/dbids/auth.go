package dbids

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	errwrap "github.com/pkg/errors"

	"github.com/dbids-ops/dbids-console/entity"
)

// Login exchanges credentials for an AdminProfile. The backend may omit the
// email in its response; the input email fills the gap, normalized to
// lowercase the same way the backend stores it.
func (c *Client) Login(ctx context.Context, email, password string) (*entity.AdminProfile, error) {
	payload := map[string]string{"email": email, "password": password}

	raw, _, err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, payload)
	if err != nil {
		return nil, err
	}

	var profile entity.AdminProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, errwrap.Wrap(err, "dbids.Login")
	}
	if profile.Email == "" {
		profile.Email = email
	}
	profile.Email = strings.ToLower(strings.TrimSpace(profile.Email))
	return &profile, nil
}

// Register creates a new admin account. The backend answers 200 or 201 on
// success; both pass through do unchanged.
func (c *Client) Register(ctx context.Context, input entity.RegisterInput) error {
	_, _, err := c.do(ctx, http.MethodPost, "/api/auth/register", nil, input)
	return err
}
