package dbids

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	errwrap "github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/dbids-ops/dbids-console/internal/helper"
)

// Client talks to the detection backend's REST API. The backend is a black
// box: every method tolerates the response shapes it has been observed to
// produce and converts failures into typed errors instead of panicking.
type Client struct {
	baseURL string
	http    *http.Client
	// stream has no client timeout; it carries the persistent event stream.
	stream *http.Client
	log    *zap.Logger

	decorate       func(*http.Request)
	onUnauthorized func()
}

func NewClient(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		stream:  &http.Client{},
		log:     log.Named("dbids"),
	}
}

// SetRequestDecorator installs the outbound-request hook. The session uses
// it to attach Authorization and X-Admin-Email headers when a profile exists.
func (c *Client) SetRequestDecorator(fn func(*http.Request)) {
	c.decorate = fn
}

// SetUnauthorizedHook installs the cross-cutting 401 handler. It fires for
// every 401 the backend returns, on any endpoint.
func (c *Client) SetUnauthorizedHook(fn func()) {
	c.onUnauthorized = fn
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, payload any) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, errwrap.Wrap(err, "dbids.newRequest")
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, errwrap.Wrap(err, "dbids.newRequest")
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if c.decorate != nil {
		c.decorate(req)
	}
	return req, nil
}

// do executes one request and returns the raw body plus response headers.
// Non-2xx statuses become *APIError; a 401 additionally fires the
// unauthorized hook before returning.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, http.Header, error) {
	if err := helper.CheckDeadline(ctx); err != nil {
		return nil, nil, err
	}

	req, err := c.newRequest(ctx, method, path, query, payload)
	if err != nil {
		return nil, nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, errwrap.Wrapf(err, "dbids: %s %s", method, path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, errwrap.Wrapf(err, "dbids: %s %s: read body", method, path)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.log.Warn("backend rejected credentials", zap.String("path", path))
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return nil, resp.Header, parseAPIError(resp.StatusCode, raw)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.Header, parseAPIError(resp.StatusCode, raw)
	}

	return raw, resp.Header, nil
}
