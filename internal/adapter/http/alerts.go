package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/couchcryptid/disaster-watch-service/internal/domain"
	"github.com/gin-gonic/gin"
)

// AlertStore reads dashboard alerts and stores realtime alerts.
type AlertStore interface {
	ListAlerts(ctx context.Context, f domain.AlertFilter) ([]domain.DisasterAlert, error)
	ListRealtimeAlerts(ctx context.Context, minSeverity int, now time.Time) ([]domain.RealtimeAlert, error)
	InsertRealtimeAlert(ctx context.Context, a domain.RealtimeAlert) error
}

// AlertPublisher puts realtime alerts on the push channel.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, alerts ...domain.RealtimeAlert) error
}

// GET /api/alerts?type=flood,storm&active=true&limit=100
func (s *Server) listAlerts(c *gin.Context) {
	types, err := parseHazardTypes(c.Query("type"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	active, err := parseOptionalBool("active", c.Query("active"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	limit, err := parseIntQuery("limit", c.Query("limit"), 0, 1, 1000)
	if err != nil {
		s.writeError(c, err)
		return
	}

	alerts, err := s.deps.Alerts.ListAlerts(c.Request.Context(), domain.AlertFilter{Types: types, Active: active, Limit: limit})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, alerts)
}

// GET /api/realtime-alerts?min_severity=4
func (s *Server) listRealtimeAlerts(c *gin.Context) {
	minSeverity, err := parseIntQuery("min_severity", c.Query("min_severity"), s.deps.RealtimeMinSeverity, 1, 5)
	if err != nil {
		s.writeError(c, err)
		return
	}
	alerts, err := s.deps.Alerts.ListRealtimeAlerts(c.Request.Context(), minSeverity, domain.Now())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, alerts)
}

type realtimeAlertRequest struct {
	ID                string            `json:"id"`
	Title             string            `json:"title" binding:"required"`
	Message           string            `json:"message"`
	SeverityLevel     int               `json:"severity_level" binding:"required,min=1,max=5"`
	AlertType         domain.HazardType `json:"alert_type" binding:"required"`
	Coordinates       domain.Geo        `json:"coordinates"`
	RadiusKM          float64           `json:"radius_km" binding:"gte=0"`
	AffectedProvinces []string          `json:"affected_provinces"`
	Active            *bool             `json:"is_active"`
	ExpiresAt         *time.Time        `json:"expires_at"`
}

// POST /api/admin/realtime-alerts stores the alert and publishes it to
// connected subscribers.
func (s *Server) createRealtimeAlert(c *gin.Context) {
	var req realtimeAlertRequest
	if !s.bindJSON(c, &req) {
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	alert, err := domain.NewRealtimeAlert(domain.RealtimeAlert{
		ID:                req.ID,
		Title:             req.Title,
		Message:           req.Message,
		SeverityLevel:     req.SeverityLevel,
		AlertType:         req.AlertType,
		Geo:               req.Coordinates,
		RadiusKM:          req.RadiusKM,
		AffectedProvinces: req.AffectedProvinces,
		Active:            active,
		ExpiresAt:         req.ExpiresAt,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := s.deps.Alerts.InsertRealtimeAlert(ctx, alert); err != nil {
		s.writeError(c, err)
		return
	}
	if s.deps.Publisher != nil {
		if err := s.deps.Publisher.PublishAlert(ctx, alert); err != nil {
			s.logger.Error("realtime alert stored but not published", "alert_id", alert.ID, "error", err)
			s.writeError(c, fmt.Errorf("%w: alert %s stored but not published", domain.ErrUpstream, alert.ID))
			return
		}
	}

	s.logger.Info("realtime alert created",
		"alert_id", alert.ID,
		"alert_type", alert.AlertType,
		"severity_level", alert.SeverityLevel,
		"created_by", userID(c),
	)
	c.JSON(http.StatusCreated, alert)
}
