package realtime

import (
	"context"
	"log/slog"
	"sync"

	"github.com/couchcryptid/disaster-watch-service/internal/domain"
	"github.com/couchcryptid/disaster-watch-service/internal/observability"
)

// SettingsWatcher streams settings changes made by any session.
type SettingsWatcher interface {
	Watch(ctx context.Context) (<-chan domain.Settings, error)
}

// Hub tracks live subscriptions and broadcasts alerts to them.
type Hub struct {
	mu      sync.RWMutex
	subs    map[*Subscription]struct{}
	closed  bool
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewHub(logger *slog.Logger, metrics *observability.Metrics) *Hub {
	return &Hub{
		subs:    make(map[*Subscription]struct{}),
		logger:  logger,
		metrics: metrics,
	}
}

// Subscribe registers a subscriber. The subscription ends when ctx is
// cancelled or Unsubscribe is called. After Close it is returned already
// ended and is never registered.
func (h *Hub) Subscribe(ctx context.Context, opts SubscriberOptions) *Subscription {
	s := newSubscription(h, opts)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		s.close()
		return s
	}
	h.subs[s] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()

	h.metrics.Subscribers.Set(float64(n))
	h.logger.Debug("subscriber registered", "user_id", s.userID, "subscribers", n)

	go func() {
		select {
		case <-ctx.Done():
			s.Unsubscribe()
		case <-s.done:
		}
	}()
	return s
}

func (h *Hub) remove(s *Subscription) {
	if !s.close() {
		return
	}
	h.mu.Lock()
	delete(h.subs, s)
	n := len(h.subs)
	h.mu.Unlock()

	h.metrics.Subscribers.Set(float64(n))
	h.logger.Debug("subscriber removed", "user_id", s.userID, "subscribers", n)
}

// Broadcast offers the alert to every subscriber and returns how many
// toasts were queued. Irrelevant subscribers are skipped; full queues drop.
func (h *Hub) Broadcast(alert domain.RealtimeAlert) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	queued := 0
	for s := range h.subs {
		switch s.offer(alert) {
		case delivered:
			queued++
			h.metrics.ToastsDelivered.Inc()
		case dropped:
			h.metrics.ToastsDropped.Inc()
			h.logger.Warn("subscriber queue full, toast dropped", "user_id", s.userID, "alert_id", alert.ID)
		case ignored:
		}
	}
	return queued
}

// ApplySettings pushes a settings change to every open session of the user.
func (h *Hub) ApplySettings(settings domain.Settings) {
	for _, s := range h.sessionsOf(settings.UserID) {
		s.ApplySettings(settings)
	}
}

// ApplyPreferences pushes a preferences change to every open session of the user.
func (h *Hub) ApplyPreferences(p domain.UserPreferences) {
	for _, s := range h.sessionsOf(p.UserID) {
		s.ApplyPreferences(p)
	}
}

func (h *Hub) sessionsOf(userID string) []*Subscription {
	if userID == "" {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []*Subscription
	for s := range h.subs {
		if s.userID == userID {
			out = append(out, s)
		}
	}
	return out
}

// FollowSettings applies changes from w until ctx is cancelled or the
// stream ends.
func (h *Hub) FollowSettings(ctx context.Context, w SettingsWatcher) error {
	changes, err := w.Watch(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case s, ok := <-changes:
			if !ok {
				return nil
			}
			h.ApplySettings(s)
		}
	}
}

// Len returns the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Closed reports whether Close has been called.
func (h *Hub) Closed() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.closed
}

// Close tears down every subscription and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	subs := make([]*Subscription, 0, len(h.subs))
	for s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		s.Unsubscribe()
	}
}
