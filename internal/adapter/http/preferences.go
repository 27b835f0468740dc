package http

import (
	"context"
	"net/http"
	"time"

	"github.com/couchcryptid/disaster-watch-service/internal/domain"
	"github.com/gin-gonic/gin"
)

// PreferenceStore persists per-user notification preferences.
type PreferenceStore interface {
	GetPreferences(ctx context.Context, userID string) (domain.UserPreferences, error)
	UpsertPreferences(ctx context.Context, p domain.UserPreferences) error
	AddDeviceToken(ctx context.Context, userID, token string, now time.Time) error
}

// SettingsStore persists the per-user session settings shared across tabs.
type SettingsStore interface {
	Get(ctx context.Context, userID string) (domain.Settings, error)
	Put(ctx context.Context, settings domain.Settings) (domain.Settings, error)
}

func (s *Server) getPreferences(c *gin.Context) {
	p, err := s.deps.Preferences.GetPreferences(c.Request.Context(), userID(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type preferencesRequest struct {
	PreferredAreas       []string                   `json:"preferred_areas"`
	NotificationSettings map[domain.HazardType]bool `json:"notification_settings"`
}

// PUT /api/preferences replaces the caller's preferences. Open sessions of
// the same user pick up the change immediately.
func (s *Server) putPreferences(c *gin.Context) {
	var req preferencesRequest
	if !s.bindJSON(c, &req) {
		return
	}
	p := domain.DefaultPreferences(userID(c))
	if req.PreferredAreas != nil {
		p.PreferredAreas = req.PreferredAreas
	}
	for t, enabled := range req.NotificationSettings {
		p.NotificationSettings[t] = enabled
	}
	p.UpdatedAt = domain.Now()
	if err := p.Validate(); err != nil {
		s.writeError(c, err)
		return
	}

	if err := s.deps.Preferences.UpsertPreferences(c.Request.Context(), p); err != nil {
		s.writeError(c, err)
		return
	}
	if s.deps.Hub != nil {
		s.deps.Hub.ApplyPreferences(p)
	}
	c.JSON(http.StatusOK, p)
}

type deviceRequest struct {
	Token string `json:"token" binding:"required"`
}

// POST /api/preferences/devices registers a push token for the caller.
func (s *Server) addDevice(c *gin.Context) {
	var req deviceRequest
	if !s.bindJSON(c, &req) {
		return
	}
	if err := s.deps.Preferences.AddDeviceToken(c.Request.Context(), userID(c), req.Token, domain.Now()); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getSettings(c *gin.Context) {
	if s.deps.Settings == nil {
		unavailable(c, "settings store")
		return
	}
	settings, err := s.deps.Settings.Get(c.Request.Context(), userID(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

type settingsRequest struct {
	AlertRadiusKM        *float64 `json:"alert_radius_km"`
	NotificationsEnabled *bool    `json:"notifications_enabled"`
	SoundEnabled         *bool    `json:"sound_enabled"`
}

// PUT /api/settings merges the sent fields into the stored settings. The
// last write wins across tabs and devices.
func (s *Server) putSettings(c *gin.Context) {
	if s.deps.Settings == nil {
		unavailable(c, "settings store")
		return
	}
	var req settingsRequest
	if !s.bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	settings, err := s.deps.Settings.Get(ctx, userID(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if req.AlertRadiusKM != nil {
		settings.AlertRadiusKM = *req.AlertRadiusKM
	}
	if req.NotificationsEnabled != nil {
		settings.NotificationsEnabled = *req.NotificationsEnabled
	}
	if req.SoundEnabled != nil {
		settings.SoundEnabled = *req.SoundEnabled
	}

	saved, err := s.deps.Settings.Put(ctx, settings)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}
