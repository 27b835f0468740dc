package mysql

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/disaster-watch-service/internal/domain"
)

// Stats aggregates the dashboard counters.
func (s *Store) Stats(ctx context.Context, now time.Time) (domain.Stats, error) {
	st := domain.Stats{
		ActiveAlertsByType:    make(map[domain.HazardType]int),
		VictimReportsByStatus: make(map[domain.VictimStatus]int),
		GeneratedAt:           now,
	}

	rows, err := s.db.QueryContext(ctx, `SELECT type, COUNT(*) FROM disaster_alerts WHERE active = TRUE GROUP BY type`)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("count alerts: %w", err)
	}
	for rows.Next() {
		var (
			typ string
			n   int
		)
		if err := rows.Scan(&typ, &n); err != nil {
			rows.Close()
			return domain.Stats{}, fmt.Errorf("scan alert count: %w", err)
		}
		t, _ := domain.ParseHazardType(typ)
		st.ActiveAlertsByType[t] += n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return domain.Stats{}, err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM victim_reports GROUP BY status`)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("count victim reports: %w", err)
	}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			rows.Close()
			return domain.Stats{}, fmt.Errorf("scan victim count: %w", err)
		}
		st.VictimReportsByStatus[domain.VictimStatus(status)] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return domain.Stats{}, err
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM incident_reports),
			(SELECT COUNT(*) FROM realtime_alerts WHERE is_active = TRUE AND (expires_at IS NULL OR expires_at > ?)),
			(SELECT COUNT(*) FROM damage_assessments WHERE processing_status IN ('pending', 'processing'))`,
		now,
	).Scan(&st.IncidentReports, &st.ActiveRealtimeAlerts, &st.PendingDamageAssessments)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("count totals: %w", err)
	}
	return st, nil
}
