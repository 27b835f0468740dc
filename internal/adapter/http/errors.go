package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/couchcryptid/disaster-watch-service/internal/domain"
	"github.com/gin-gonic/gin"
)

// statusFor maps domain sentinels to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with {"error": ...}. Internal errors are logged and
// their detail is withheld from the client.
func (s *Server) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		msg = "internal server error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func unavailable(c *gin.Context, feature string) {
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": feature + " is not configured"})
}

// bindJSON decodes and validates the body, answering 400 on failure.
func (s *Server) bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		s.writeError(c, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return false
	}
	return true
}

// parseLocation reads an optional lat/lon pair. Both absent yields nil.
func parseLocation(latStr, lonStr string) (*domain.Geo, error) {
	if latStr == "" && lonStr == "" {
		return nil, nil
	}
	lat, latErr := strconv.ParseFloat(latStr, 64)
	lon, lonErr := strconv.ParseFloat(lonStr, 64)
	if latErr != nil || lonErr != nil {
		return nil, fmt.Errorf("%w: lat and lon must both be numbers", domain.ErrInvalidInput)
	}
	g := domain.Geo{Lat: lat, Lon: lon}
	if !g.Valid() {
		return nil, fmt.Errorf("%w: coordinates are out of range", domain.ErrInvalidInput)
	}
	return &g, nil
}

// parseHazardTypes reads a comma-separated list of hazard types.
func parseHazardTypes(s string) ([]domain.HazardType, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []domain.HazardType
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		t, ok := domain.ParseHazardType(part)
		if !ok {
			return nil, fmt.Errorf("%w: unknown hazard type %q", domain.ErrInvalidInput, part)
		}
		out = append(out, t)
	}
	return out, nil
}

func parseOptionalBool(key, s string) (*bool, error) {
	if s == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a boolean", domain.ErrInvalidInput, key)
	}
	return &b, nil
}

func parseIntQuery(key, s string, def, lo, hi int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("%w: %s must be an integer between %d and %d", domain.ErrInvalidInput, key, lo, hi)
	}
	return n, nil
}
