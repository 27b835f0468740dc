// Package mysql persists the service's entities with database/sql and the
// go-sql-driver MySQL driver.
package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/disaster-watch-service/internal/domain"
	_ "github.com/go-sql-driver/mysql"
)

// Store is the relational data-access layer. Each entity's queries live in
// their own file.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open connects to MySQL, verifies the connection, and applies pool limits.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return New(db, logger), nil
}

// New wraps an existing handle.
func New(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Migrate creates missing tables.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	s.logger.Info("database schema ready", "tables", len(schema))
	return nil
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// placeholders returns "?, ?, ..." for n bind parameters.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func nullGeo(g *domain.Geo) (lat, lon sql.NullFloat64) {
	if g == nil {
		return sql.NullFloat64{}, sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: g.Lat, Valid: true}, sql.NullFloat64{Float64: g.Lon, Valid: true}
}

func geoFromNull(lat, lon sql.NullFloat64) *domain.Geo {
	if !lat.Valid || !lon.Valid {
		return nil
	}
	return &domain.Geo{Lat: lat.Float64, Lon: lon.Float64}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timeFromNull(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

// jsonColumn encodes a value for a JSON column.
func jsonColumn(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func rowsAffected(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s: %w", what, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, domain.ErrNotFound)
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS disaster_alerts (
		id VARCHAR(64) PRIMARY KEY,
		type VARCHAR(32) NOT NULL,
		severity INT NOT NULL,
		location VARCHAR(255) NOT NULL DEFAULT '',
		latitude DOUBLE NULL,
		longitude DOUBLE NULL,
		start_time DATETIME NOT NULL,
		end_time DATETIME NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		INDEX idx_alerts_active_start (active, start_time)
	) CHARACTER SET utf8mb4`,
	`CREATE TABLE IF NOT EXISTS realtime_alerts (
		id VARCHAR(64) PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		message TEXT NOT NULL,
		severity_level INT NOT NULL,
		alert_type VARCHAR(32) NOT NULL,
		latitude DOUBLE NOT NULL,
		longitude DOUBLE NOT NULL,
		radius_km DOUBLE NOT NULL,
		affected_provinces JSON NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		expires_at DATETIME NULL,
		created_at DATETIME NOT NULL,
		INDEX idx_realtime_active (is_active, severity_level, created_at)
	) CHARACTER SET utf8mb4`,
	`CREATE TABLE IF NOT EXISTS earthquakes (
		id VARCHAR(64) PRIMARY KEY,
		magnitude DOUBLE NOT NULL,
		latitude DOUBLE NOT NULL,
		longitude DOUBLE NOT NULL,
		location VARCHAR(255) NOT NULL DEFAULT '',
		occurred_at DATETIME NOT NULL,
		INDEX idx_earthquakes_time (occurred_at)
	) CHARACTER SET utf8mb4`,
	`CREATE TABLE IF NOT EXISTS rain_sensors (
		id VARCHAR(64) PRIMARY KEY,
		rain_percent DOUBLE NOT NULL,
		latitude DOUBLE NOT NULL,
		longitude DOUBLE NOT NULL,
		location VARCHAR(255) NOT NULL DEFAULT '',
		observed_at DATETIME NOT NULL,
		INDEX idx_rain_time (observed_at)
	) CHARACTER SET utf8mb4`,
	`CREATE TABLE IF NOT EXISTS victim_reports (
		id VARCHAR(64) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		status VARCHAR(32) NOT NULL,
		description TEXT NOT NULL,
		latitude DOUBLE NULL,
		longitude DOUBLE NULL,
		contact VARCHAR(255) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	) CHARACTER SET utf8mb4`,
	`CREATE TABLE IF NOT EXISTS incident_reports (
		id VARCHAR(64) PRIMARY KEY,
		type VARCHAR(32) NOT NULL,
		severity INT NOT NULL,
		description TEXT NOT NULL,
		images JSON NOT NULL,
		latitude DOUBLE NULL,
		longitude DOUBLE NULL,
		reporter_id VARCHAR(64) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	) CHARACTER SET utf8mb4`,
	`CREATE TABLE IF NOT EXISTS damage_assessments (
		id VARCHAR(64) PRIMARY KEY,
		image_url VARCHAR(1024) NOT NULL,
		processing_status VARCHAR(16) NOT NULL,
		damage_level VARCHAR(16) NOT NULL DEFAULT '',
		confidence_score DOUBLE NOT NULL DEFAULT 0,
		estimated_cost DECIMAL(14,2) NOT NULL DEFAULT 0,
		error_message TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	) CHARACTER SET utf8mb4`,
	`CREATE TABLE IF NOT EXISTS satisfaction_surveys (
		id VARCHAR(64) PRIMARY KEY,
		ratings JSON NOT NULL,
		comment TEXT NOT NULL,
		suggestions TEXT NOT NULL,
		created_at DATETIME NOT NULL
	) CHARACTER SET utf8mb4`,
	`CREATE TABLE IF NOT EXISTS booth_surveys (
		id VARCHAR(64) PRIMARY KEY,
		ratings JSON NOT NULL,
		name VARCHAR(255) NOT NULL DEFAULT '',
		organization VARCHAR(255) NOT NULL DEFAULT '',
		feedback TEXT NOT NULL,
		consent BOOLEAN NOT NULL,
		created_at DATETIME NOT NULL
	) CHARACTER SET utf8mb4`,
	`CREATE TABLE IF NOT EXISTS user_preferences (
		user_id VARCHAR(64) PRIMARY KEY,
		preferred_areas JSON NOT NULL,
		notification_settings JSON NOT NULL,
		updated_at DATETIME NOT NULL
	) CHARACTER SET utf8mb4`,
	`CREATE TABLE IF NOT EXISTS device_tokens (
		token VARCHAR(255) PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL,
		created_at DATETIME NOT NULL,
		INDEX idx_device_tokens_user (user_id)
	) CHARACTER SET utf8mb4`,
	`CREATE TABLE IF NOT EXISTS articles (
		id VARCHAR(64) PRIMARY KEY,
		kind VARCHAR(16) NOT NULL,
		title VARCHAR(255) NOT NULL,
		subtitle VARCHAR(255) NOT NULL DEFAULT '',
		description TEXT NOT NULL,
		image_url VARCHAR(1024) NOT NULL DEFAULT '',
		content MEDIUMTEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	) CHARACTER SET utf8mb4`,
}
