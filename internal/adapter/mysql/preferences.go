package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/disaster-watch-service/internal/domain"
)

// GetPreferences returns the user's preferences with their device tokens,
// or the defaults when none are stored.
func (s *Store) GetPreferences(ctx context.Context, userID string) (domain.UserPreferences, error) {
	var areas, settings []byte
	p := domain.UserPreferences{UserID: userID}
	err := s.db.QueryRowContext(ctx,
		`SELECT preferred_areas, notification_settings, updated_at FROM user_preferences WHERE user_id = ?`, userID,
	).Scan(&areas, &settings, &p.UpdatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		p = domain.DefaultPreferences(userID)
	case err != nil:
		return domain.UserPreferences{}, fmt.Errorf("get preferences %s: %w", userID, err)
	default:
		if err := decodePreferences(&p, areas, settings); err != nil {
			return domain.UserPreferences{}, err
		}
	}

	tokens, err := s.deviceTokens(ctx, userID)
	if err != nil {
		return domain.UserPreferences{}, err
	}
	p.DeviceTokens = tokens
	return p, nil
}

func decodePreferences(p *domain.UserPreferences, areas, settings []byte) error {
	if err := json.Unmarshal(areas, &p.PreferredAreas); err != nil {
		return fmt.Errorf("decode preferred areas %s: %w", p.UserID, err)
	}
	if err := json.Unmarshal(settings, &p.NotificationSettings); err != nil {
		return fmt.Errorf("decode notification settings %s: %w", p.UserID, err)
	}
	return nil
}

func (s *Store) deviceTokens(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT token FROM device_tokens WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("query device tokens %s: %w", userID, err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan device token: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// UpsertPreferences creates or replaces the user's preferences. Concurrent
// writers resolve last-write-wins.
func (s *Store) UpsertPreferences(ctx context.Context, p domain.UserPreferences) error {
	if p.PreferredAreas == nil {
		p.PreferredAreas = []string{}
	}
	if p.NotificationSettings == nil {
		p.NotificationSettings = map[domain.HazardType]bool{}
	}
	areas, err := jsonColumn(p.PreferredAreas)
	if err != nil {
		return fmt.Errorf("encode preferred areas: %w", err)
	}
	settings, err := jsonColumn(p.NotificationSettings)
	if err != nil {
		return fmt.Errorf("encode notification settings: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO user_preferences (user_id, preferred_areas, notification_settings, updated_at) VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE preferred_areas = VALUES(preferred_areas), notification_settings = VALUES(notification_settings), updated_at = VALUES(updated_at)`,
		p.UserID, areas, settings, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert preferences %s: %w", p.UserID, err)
	}
	return nil
}

// AddDeviceToken registers a push token for the user. A token moves to the
// latest user that registers it.
func (s *Store) AddDeviceToken(ctx context.Context, userID, token string, now time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO device_tokens (token, user_id, created_at) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE user_id = VALUES(user_id)`,
		token, userID, now,
	)
	if err != nil {
		return fmt.Errorf("add device token for %s: %w", userID, err)
	}
	return nil
}

// RemoveDeviceTokens deletes tokens the push provider reported as invalid.
func (s *Store) RemoveDeviceTokens(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	args := make([]any, len(tokens))
	for i, t := range tokens {
		args[i] = t
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM device_tokens WHERE token IN (`+placeholders(len(tokens))+`)`, args...)
	if err != nil {
		return fmt.Errorf("remove device tokens: %w", err)
	}
	return nil
}

// ListPushSubscribers returns the preferences of every user with at least
// one device token.
func (s *Store) ListPushSubscribers(ctx context.Context) ([]domain.UserPreferences, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.user_id, p.preferred_areas, p.notification_settings, d.token
		FROM user_preferences p JOIN device_tokens d ON d.user_id = p.user_id
		ORDER BY p.user_id`)
	if err != nil {
		return nil, fmt.Errorf("query push subscribers: %w", err)
	}
	defer rows.Close()

	var out []domain.UserPreferences
	for rows.Next() {
		var (
			userID, token   string
			areas, settings []byte
		)
		if err := rows.Scan(&userID, &areas, &settings, &token); err != nil {
			return nil, fmt.Errorf("scan push subscriber: %w", err)
		}
		if n := len(out); n > 0 && out[n-1].UserID == userID {
			out[n-1].DeviceTokens = append(out[n-1].DeviceTokens, token)
			continue
		}
		p := domain.UserPreferences{UserID: userID, DeviceTokens: []string{token}}
		if err := decodePreferences(&p, areas, settings); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
