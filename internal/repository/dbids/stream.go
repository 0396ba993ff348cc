package dbids

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	errwrap "github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/dbids-ops/dbids-console/entity"
)

const streamScanBuffer = 1 << 20

// EventStream is one open connection to the backend's live detection feed.
// Events arrive as line-delimited JSON; SSE "data:" prefixes are tolerated
// so either server framing works. Malformed lines are skipped, not fatal.
type EventStream struct {
	events chan entity.StreamEvent
	cancel context.CancelFunc
	body   io.ReadCloser
	log    *zap.Logger

	done chan struct{}
	err  error
}

// OpenEventStream connects to the live feed. Close the stream to release
// the connection; the Events channel closes when the connection drops.
func (c *Client) OpenEventStream(ctx context.Context) (*EventStream, error) {
	ctx, cancel := context.WithCancel(ctx)

	req, err := c.newRequest(ctx, http.MethodGet, "/api/events/stream", nil, nil)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Accept", "application/x-ndjson, text/event-stream")

	resp, err := c.stream.Do(req)
	if err != nil {
		cancel()
		return nil, errwrap.Wrap(err, "dbids.OpenEventStream")
	}

	if resp.StatusCode == http.StatusUnauthorized {
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		cancel()
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return nil, parseAPIError(resp.StatusCode, raw)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		cancel()
		return nil, parseAPIError(resp.StatusCode, raw)
	}

	s := &EventStream{
		events: make(chan entity.StreamEvent, 64),
		cancel: cancel,
		body:   resp.Body,
		log:    c.log.Named("stream"),
		done:   make(chan struct{}),
	}
	go s.readLoop(ctx)
	return s, nil
}

// Events yields live detection events until the stream closes.
func (s *EventStream) Events() <-chan entity.StreamEvent {
	return s.events
}

// Err reports why the stream ended. Only meaningful after Events closes;
// nil means an orderly shutdown.
func (s *EventStream) Err() error {
	<-s.done
	return s.err
}

// Close tears the connection down. Safe to call more than once and safe to
// call concurrently with a blocked read.
func (s *EventStream) Close() error {
	s.cancel()
	return s.body.Close()
}

func (s *EventStream) readLoop(ctx context.Context) {
	defer close(s.events)
	defer close(s.done)

	scanner := bufio.NewScanner(s.body)
	scanner.Buffer(make([]byte, 0, 4096), streamScanBuffer)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		line = bytes.TrimPrefix(line, []byte("data:"))
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var ev entity.StreamEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			s.log.Debug("skipping malformed stream line", zap.Error(err))
			continue
		}

		select {
		case s.events <- ev:
		case <-ctx.Done():
			return
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		s.err = errwrap.Wrap(err, "dbids.EventStream")
	}
}
