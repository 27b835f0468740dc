package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/couchcryptid/disaster-watch-service/internal/domain"
)

const defaultListLimit = 200

// ListAlerts returns dashboard alerts, newest first.
func (s *Store) ListAlerts(ctx context.Context, f domain.AlertFilter) ([]domain.DisasterAlert, error) {
	var (
		where []string
		args  []any
	)
	if len(f.Types) > 0 {
		where = append(where, "type IN ("+placeholders(len(f.Types))+")")
		for _, t := range f.Types {
			args = append(args, string(t))
		}
	}
	if f.Active != nil {
		where = append(where, "active = ?")
		args = append(args, *f.Active)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `SELECT id, type, severity, location, latitude, longitude, start_time, end_time, active FROM disaster_alerts`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY start_time DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	alerts := make([]domain.DisasterAlert, 0)
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func scanAlert(rows *sql.Rows) (domain.DisasterAlert, error) {
	var (
		a        domain.DisasterAlert
		typ      string
		lat, lon sql.NullFloat64
		end      sql.NullTime
	)
	if err := rows.Scan(&a.ID, &typ, &a.Severity, &a.Location, &lat, &lon, &a.StartTime, &end, &a.Active); err != nil {
		return domain.DisasterAlert{}, fmt.Errorf("scan alert: %w", err)
	}
	a.Type, _ = domain.ParseHazardType(typ)
	a.Geo = geoFromNull(lat, lon)
	a.StartTime = a.StartTime.UTC()
	a.EndTime = timeFromNull(end)
	return a, nil
}

// InsertRealtimeAlert stores a new realtime alert.
func (s *Store) InsertRealtimeAlert(ctx context.Context, a domain.RealtimeAlert) error {
	provinces := a.AffectedProvinces
	if provinces == nil {
		provinces = []string{}
	}
	areas, err := jsonColumn(provinces)
	if err != nil {
		return fmt.Errorf("encode affected provinces: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO realtime_alerts (id, title, message, severity_level, alert_type, latitude, longitude, radius_km, affected_provinces, is_active, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Title, a.Message, a.SeverityLevel, string(a.AlertType), a.Geo.Lat, a.Geo.Lon,
		a.RadiusKM, areas, a.Active, nullTime(a.ExpiresAt), a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert realtime alert %s: %w", a.ID, err)
	}
	return nil
}

// ListRealtimeAlerts returns active, unexpired alerts at or above minSeverity,
// newest first.
func (s *Store) ListRealtimeAlerts(ctx context.Context, minSeverity int, now time.Time) ([]domain.RealtimeAlert, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, message, severity_level, alert_type, latitude, longitude, radius_km, affected_provinces, is_active, expires_at, created_at
		FROM realtime_alerts
		WHERE is_active = TRUE AND severity_level >= ? AND (expires_at IS NULL OR expires_at > ?)
		ORDER BY created_at DESC LIMIT ?`,
		minSeverity, now, defaultListLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("query realtime alerts: %w", err)
	}
	defer rows.Close()

	alerts := make([]domain.RealtimeAlert, 0)
	for rows.Next() {
		var (
			a       domain.RealtimeAlert
			typ     string
			areas   []byte
			expires sql.NullTime
		)
		if err := rows.Scan(&a.ID, &a.Title, &a.Message, &a.SeverityLevel, &typ, &a.Geo.Lat, &a.Geo.Lon,
			&a.RadiusKM, &areas, &a.Active, &expires, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan realtime alert: %w", err)
		}
		a.AlertType, _ = domain.ParseHazardType(typ)
		if err := json.Unmarshal(areas, &a.AffectedProvinces); err != nil {
			return nil, fmt.Errorf("decode affected provinces %s: %w", a.ID, err)
		}
		a.ExpiresAt = timeFromNull(expires)
		a.CreatedAt = a.CreatedAt.UTC()
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// ExpireRealtimeAlerts deactivates alerts whose expiry has passed and
// returns how many changed.
func (s *Store) ExpireRealtimeAlerts(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE realtime_alerts SET is_active = FALSE WHERE is_active = TRUE AND expires_at IS NOT NULL AND expires_at <= ?`,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("expire realtime alerts: %w", err)
	}
	return res.RowsAffected()
}
