package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dbids-ops/dbids-console/entity"
)

// EventStream is one open live connection; the dbids client implements it.
type EventStream interface {
	Events() <-chan entity.StreamEvent
	Close() error
	Err() error
}

// StreamRepository opens live event connections.
type StreamRepository interface {
	OpenEventStream(ctx context.Context) (EventStream, error)
}

// EventPublisher forwards live events to an external broker. Optional.
type EventPublisher interface {
	Publish(ctx context.Context, ev entity.StreamEvent) error
}

const (
	watcherBackoffMin = time.Second
	watcherBackoffMax = 30 * time.Second
)

// Watcher consumes the backend's live detection feed and fans events out to
// in-process subscribers and, when configured, to a message broker.
// The connection is re-established with doubling backoff when it drops.
type Watcher struct {
	repo StreamRepository
	pub  EventPublisher
	log  *zap.Logger

	mu   sync.RWMutex
	subs map[string]chan entity.StreamEvent
}

func NewWatcher(repo StreamRepository, pub EventPublisher, log *zap.Logger) *Watcher {
	return &Watcher{
		repo: repo,
		pub:  pub,
		log:  log.Named("watcher"),
		subs: make(map[string]chan entity.StreamEvent),
	}
}

// Run blocks until ctx is cancelled, keeping one stream open and pumping
// events. Intended to run in its own goroutine.
func (w *Watcher) Run(ctx context.Context) {
	backoff := watcherBackoffMin

	for ctx.Err() == nil {
		stream, err := w.repo.OpenEventStream(ctx)
		if err != nil {
			w.log.Warn("opening event stream failed",
				zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleepCtx(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff)
			continue
		}

		w.log.Info("event stream connected")
		backoff = watcherBackoffMin

		for ev := range stream.Events() {
			w.dispatch(ctx, ev)
		}
		_ = stream.Close()

		if err := stream.Err(); err != nil && ctx.Err() == nil {
			w.log.Warn("event stream dropped", zap.Error(err))
		}
		if !sleepCtx(ctx, backoff) {
			return
		}
		backoff = nextBackoff(backoff)
	}
}

// Subscribe registers an in-process consumer. The returned function
// unsubscribes and closes the channel; always call it on teardown.
func (w *Watcher) Subscribe() (<-chan entity.StreamEvent, func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := uuid.NewString()
	ch := make(chan entity.StreamEvent, 100)
	w.subs[id] = ch

	unsubscribe := func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if ch, ok := w.subs[id]; ok {
			close(ch)
			delete(w.subs, id)
		}
	}
	return ch, unsubscribe
}

func (w *Watcher) dispatch(ctx context.Context, ev entity.StreamEvent) {
	w.mu.RLock()
	for _, ch := range w.subs {
		// Non-blocking send; a slow subscriber drops events rather than
		// stalling the stream.
		select {
		case ch <- ev:
		default:
		}
	}
	w.mu.RUnlock()

	if w.pub != nil {
		if err := w.pub.Publish(ctx, ev); err != nil {
			w.log.Warn("broker publish failed",
				zap.String("event_id", ev.EventID), zap.Error(err))
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}

func nextBackoff(cur time.Duration) time.Duration {
	next := cur * 2
	if next > watcherBackoffMax {
		return watcherBackoffMax
	}
	return next
}
