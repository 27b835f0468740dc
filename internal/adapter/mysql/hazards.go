package mysql

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/disaster-watch-service/internal/domain"
)

// LoadHazards returns every hazard the proximity filter considers: recent
// earthquakes, recent rain sensor readings, and active dashboard alerts that
// carry a coordinate.
func (s *Store) LoadHazards(ctx context.Context, since time.Time) ([]domain.Hazard, error) {
	hazards := make([]domain.Hazard, 0)

	quakes, err := s.loadReadings(ctx, domain.HazardEarthquake, "eq-",
		`SELECT id, magnitude, latitude, longitude, location, occurred_at FROM earthquakes WHERE occurred_at >= ?`, since)
	if err != nil {
		return nil, err
	}
	hazards = append(hazards, quakes...)

	rain, err := s.loadReadings(ctx, domain.HazardHeavyRain, "rain-",
		`SELECT id, rain_percent, latitude, longitude, location, observed_at FROM rain_sensors WHERE observed_at >= ?`, since)
	if err != nil {
		return nil, err
	}
	hazards = append(hazards, rain...)

	active := true
	alerts, err := s.ListAlerts(ctx, domain.AlertFilter{Active: &active, Limit: 1000})
	if err != nil {
		return nil, err
	}
	for _, a := range alerts {
		if h, ok := a.Hazard(); ok {
			hazards = append(hazards, h)
		}
	}
	return hazards, nil
}

func (s *Store) loadReadings(ctx context.Context, t domain.HazardType, idPrefix, query string, since time.Time) ([]domain.Hazard, error) {
	rows, err := s.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("query %s readings: %w", t, err)
	}
	defer rows.Close()

	var out []domain.Hazard
	for rows.Next() {
		h := domain.Hazard{Type: t}
		var id string
		if err := rows.Scan(&id, &h.Magnitude, &h.Geo.Lat, &h.Geo.Lon, &h.Location, &h.ObservedAt); err != nil {
			return nil, fmt.Errorf("scan %s reading: %w", t, err)
		}
		h.ID = idPrefix + id
		h.ObservedAt = h.ObservedAt.UTC()
		out = append(out, h)
	}
	return out, rows.Err()
}
