package domain

import (
	"strings"
	"time"
)

// UserPreferences holds the provinces a user follows and which hazard types
// they want notifications for. Upserted per user.
type UserPreferences struct {
	UserID               string              `json:"user_id"`
	PreferredAreas       []string            `json:"preferred_areas"`
	NotificationSettings map[HazardType]bool `json:"notification_settings"`
	DeviceTokens         []string            `json:"device_tokens,omitempty"`
	UpdatedAt            time.Time           `json:"updated_at"`
}

// DefaultPreferences enables every hazard type and follows no province.
func DefaultPreferences(userID string) UserPreferences {
	ns := make(map[HazardType]bool, len(hazardText))
	for _, t := range HazardTypes() {
		ns[t] = true
	}
	return UserPreferences{
		UserID:               userID,
		PreferredAreas:       []string{},
		NotificationSettings: ns,
	}
}

// Validate checks the user id, area names, and notification keys.
func (p UserPreferences) Validate() error {
	if strings.TrimSpace(p.UserID) == "" {
		return invalid("user_id", "is required")
	}
	for _, a := range p.PreferredAreas {
		if strings.TrimSpace(a) == "" {
			return invalid("preferred_areas", "must not contain empty names")
		}
	}
	for t := range p.NotificationSettings {
		if _, ok := ParseHazardType(string(t)); !ok {
			return invalid("notification_settings", "has unknown hazard type "+string(t))
		}
	}
	return nil
}

// Wants reports whether the user wants notifications for the hazard type.
// Types absent from the settings default to enabled.
func (p UserPreferences) Wants(t HazardType) bool {
	enabled, ok := p.NotificationSettings[t]
	return !ok || enabled
}

// Settings are the per-user session settings shared by every open tab.
// Writes are last-write-wins.
type Settings struct {
	UserID               string    `json:"user_id"`
	AlertRadiusKM        float64   `json:"alert_radius_km"`
	NotificationsEnabled bool      `json:"notifications_enabled"`
	SoundEnabled         bool      `json:"sound_enabled"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// DefaultSettings applies to anonymous sessions and users who never saved.
func DefaultSettings(userID string) Settings {
	return Settings{
		UserID:               userID,
		AlertRadiusKM:        50,
		NotificationsEnabled: true,
		SoundEnabled:         true,
	}
}

// Validate checks the user id and the radius range.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.UserID) == "" {
		return invalid("user_id", "is required")
	}
	if s.AlertRadiusKM < 0 || s.AlertRadiusKM > 2000 {
		return invalid("alert_radius_km", "must be between 0 and 2000")
	}
	return nil
}
