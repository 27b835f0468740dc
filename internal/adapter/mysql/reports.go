package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/couchcryptid/disaster-watch-service/internal/domain"
)

func (s *Store) InsertVictimReport(ctx context.Context, r domain.VictimReport) error {
	lat, lon := nullGeo(r.Geo)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO victim_reports (id, name, status, description, latitude, longitude, contact, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Name, string(r.Status), r.Description, lat, lon, r.Contact, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert victim report %s: %w", r.ID, err)
	}
	return nil
}

// ListVictimReports returns reports newest first, optionally restricted to
// the given statuses.
func (s *Store) ListVictimReports(ctx context.Context, statuses []domain.VictimStatus) ([]domain.VictimReport, error) {
	query := `SELECT id, name, status, description, latitude, longitude, contact, created_at FROM victim_reports`
	args := make([]any, 0, len(statuses)+1)
	if len(statuses) > 0 {
		query += " WHERE status IN (" + placeholders(len(statuses)) + ")"
		for _, st := range statuses {
			args = append(args, string(st))
		}
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, defaultListLimit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query victim reports: %w", err)
	}
	defer rows.Close()

	reports := make([]domain.VictimReport, 0)
	for rows.Next() {
		var (
			r        domain.VictimReport
			status   string
			lat, lon sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &r.Name, &status, &r.Description, &lat, &lon, &r.Contact, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan victim report: %w", err)
		}
		r.Status = domain.VictimStatus(status)
		r.Geo = geoFromNull(lat, lon)
		r.CreatedAt = r.CreatedAt.UTC()
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

func (s *Store) InsertIncidentReport(ctx context.Context, r domain.IncidentReport) error {
	images, err := jsonColumn(r.Images)
	if err != nil {
		return fmt.Errorf("encode images: %w", err)
	}
	lat, lon := nullGeo(r.Geo)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO incident_reports (id, type, severity, description, images, latitude, longitude, reporter_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, string(r.Type), r.Severity, r.Description, images, lat, lon, r.ReporterID, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert incident report %s: %w", r.ID, err)
	}
	return nil
}

// ListIncidentReports returns reports newest first.
func (s *Store) ListIncidentReports(ctx context.Context) ([]domain.IncidentReport, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, severity, description, images, latitude, longitude, reporter_id, created_at, updated_at
		FROM incident_reports ORDER BY created_at DESC LIMIT ?`, defaultListLimit)
	if err != nil {
		return nil, fmt.Errorf("query incident reports: %w", err)
	}
	defer rows.Close()

	reports := make([]domain.IncidentReport, 0)
	for rows.Next() {
		var (
			r        domain.IncidentReport
			typ      string
			images   []byte
			lat, lon sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &typ, &r.Severity, &r.Description, &images, &lat, &lon, &r.ReporterID, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan incident report: %w", err)
		}
		r.Type, _ = domain.ParseHazardType(typ)
		if err := json.Unmarshal(images, &r.Images); err != nil {
			return nil, fmt.Errorf("decode images %s: %w", r.ID, err)
		}
		r.Geo = geoFromNull(lat, lon)
		reports = append(reports, r)
	}
	return reports, rows.Err()
}
