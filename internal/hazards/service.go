// Package hazards keeps an in-memory snapshot of active hazard readings and
// answers proximity queries against it.
package hazards

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/disaster-watch-service/internal/domain"
	"github.com/couchcryptid/disaster-watch-service/internal/observability"
)

// DefaultWindow is how far back readings are loaded into the snapshot.
const DefaultWindow = 24 * time.Hour

// Source loads hazard readings observed since a point in time.
type Source interface {
	LoadHazards(ctx context.Context, since time.Time) ([]domain.Hazard, error)
}

type snapshot struct {
	hazards  []domain.Hazard
	loadedAt time.Time
}

// Service serves the proximity filter from a snapshot swapped atomically on
// every refresh, so readers never block on the database.
type Service struct {
	source   Source
	geocoder domain.Geocoder
	rules    domain.RuleTable
	window   time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics

	current atomic.Pointer[snapshot]
}

// NewService creates a hazard service. geocoder may be nil.
func NewService(source Source, geocoder domain.Geocoder, rules domain.RuleTable, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		source:   source,
		geocoder: geocoder,
		rules:    rules,
		window:   DefaultWindow,
		logger:   logger,
		metrics:  metrics,
	}
}

// Refresh reloads the snapshot. On failure the previous snapshot stays in place.
func (s *Service) Refresh(ctx context.Context) error {
	now := domain.Now()
	loaded, err := s.source.LoadHazards(ctx, now.Add(-s.window))
	if err != nil {
		s.metrics.HazardRefreshes.WithLabelValues("error").Inc()
		return fmt.Errorf("refresh hazards: %w", err)
	}

	for i := range loaded {
		loaded[i] = domain.EnrichHazardLocation(ctx, loaded[i], s.geocoder, s.logger)
	}

	s.current.Store(&snapshot{hazards: loaded, loadedAt: now})
	s.metrics.HazardRefreshes.WithLabelValues("success").Inc()
	s.metrics.HazardSnapshotSize.Set(float64(len(loaded)))
	s.metrics.HazardSnapshotLoaded.Set(float64(now.Unix()))
	s.logger.Debug("hazard snapshot refreshed", "hazards", len(loaded))
	return nil
}

// Nearby runs the proximity filter for the user against the snapshot.
// A nil user yields the neutral location-unavailable result.
func (s *Service) Nearby(_ context.Context, user *domain.Geo, opts domain.FilterOptions) domain.FilterResult {
	snap := s.current.Load()
	if snap == nil || user == nil {
		return domain.Filter(user, nil, s.rules, opts)
	}
	return domain.Filter(user, s.candidates(snap.hazards, *user, opts), s.rules, opts)
}

// candidates drops hazards outside the box that encloses the widest rule,
// or the caller's distance cap when it is tighter.
func (s *Service) candidates(all []domain.Hazard, user domain.Geo, opts domain.FilterOptions) []domain.Hazard {
	reach := maxReach(s.rules)
	if opts.MaxDistanceKM > 0 && opts.MaxDistanceKM < reach {
		reach = opts.MaxDistanceKM
	}
	box := domain.BoundsAround(user, reach)

	out := make([]domain.Hazard, 0, len(all))
	for _, h := range all {
		if box.Contains(h.Geo) {
			out = append(out, h)
		}
	}
	return out
}

func maxReach(rules domain.RuleTable) float64 {
	var reach float64
	for _, rs := range rules {
		for _, r := range rs {
			reach = max(reach, r.MaxDistanceKM)
		}
	}
	return reach
}

// LoadedAt returns the time of the last successful refresh, zero before it.
func (s *Service) LoadedAt() time.Time {
	if snap := s.current.Load(); snap != nil {
		return snap.loadedAt
	}
	return time.Time{}
}

// CheckReadiness fails until the first snapshot has loaded.
func (s *Service) CheckReadiness(_ context.Context) error {
	if s.current.Load() == nil {
		return errors.New("hazard snapshot not loaded")
	}
	return nil
}
