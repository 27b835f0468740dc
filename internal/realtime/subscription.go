package realtime

import (
	"sync"

	"github.com/couchcryptid/disaster-watch-service/internal/domain"
)

const defaultBuffer = 16

// SubscriberOptions describe a new subscription.
type SubscriberOptions struct {
	UserID      string
	Location    *domain.Geo
	Preferences domain.UserPreferences
	Settings    domain.Settings
	// Buffer is the toast queue length; slow subscribers drop toasts beyond it.
	Buffer int
}

// Subscription is the handle a session holds for as long as it wants toasts.
// Once Done is closed no further toasts are queued.
type Subscription struct {
	hub    *Hub
	userID string
	toasts chan domain.Toast
	done   chan struct{}

	mu       sync.Mutex
	closed   bool
	location *domain.Geo
	prefs    domain.UserPreferences
	settings domain.Settings
}

func newSubscription(h *Hub, opts SubscriberOptions) *Subscription {
	buf := opts.Buffer
	if buf <= 0 {
		buf = defaultBuffer
	}
	settings := opts.Settings
	if settings.UserID == "" {
		settings = domain.DefaultSettings(opts.UserID)
	}
	var loc *domain.Geo
	if opts.Location != nil && opts.Location.Valid() {
		g := *opts.Location
		loc = &g
	}
	return &Subscription{
		hub:      h,
		userID:   opts.UserID,
		toasts:   make(chan domain.Toast, buf),
		done:     make(chan struct{}),
		location: loc,
		prefs:    opts.Preferences,
		settings: settings,
	}
}

// C yields toasts for relevant alerts.
func (s *Subscription) C() <-chan domain.Toast { return s.toasts }

// Done is closed when the subscription is torn down.
func (s *Subscription) Done() <-chan struct{} { return s.done }

func (s *Subscription) UserID() string { return s.userID }

// UpdateLocation records a new position from the session's geolocation watch.
// Invalid coordinates are ignored.
func (s *Subscription) UpdateLocation(g domain.Geo) {
	if !g.Valid() {
		return
	}
	s.mu.Lock()
	s.location = &g
	s.mu.Unlock()
}

// ApplySettings replaces the notification settings.
func (s *Subscription) ApplySettings(settings domain.Settings) {
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
}

// ApplyPreferences replaces the preferred areas and per-type toggles.
func (s *Subscription) ApplyPreferences(p domain.UserPreferences) {
	s.mu.Lock()
	s.prefs = p
	s.mu.Unlock()
}

// Unsubscribe removes the subscription from its hub. It is safe to call
// more than once.
func (s *Subscription) Unsubscribe() {
	s.hub.remove(s)
}

// close marks the subscription closed. Reports false if it already was.
func (s *Subscription) close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.closed = true
	close(s.done)
	return true
}

type deliveryOutcome int

const (
	ignored deliveryOutcome = iota
	delivered
	dropped
)

// offer evaluates an alert against the subscriber and queues a toast when it
// is relevant. It never blocks.
func (s *Subscription) offer(alert domain.RealtimeAlert) deliveryOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ignored
	}
	if !s.prefs.Wants(alert.AlertType) {
		return ignored
	}
	rel := domain.RealtimeRelevance(alert, s.location, s.prefs.PreferredAreas)
	if !rel.Relevant {
		return ignored
	}
	select {
	case s.toasts <- domain.NewToast(alert, rel, s.settings):
		return delivered
	default:
		return dropped
	}
}
