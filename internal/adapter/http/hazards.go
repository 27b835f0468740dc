package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/couchcryptid/disaster-watch-service/internal/domain"
	"github.com/gin-gonic/gin"
)

// HazardFinder runs the proximity filter.
type HazardFinder interface {
	Nearby(ctx context.Context, user *domain.Geo, opts domain.FilterOptions) domain.FilterResult
}

// GET /api/hazards/nearby?lat=&lon=&radius_km=&types=
//
// Without lat/lon the result is empty and carries the location-unavailable
// message. Signed-in users get their alert radius and enabled hazard types
// applied unless the query overrides them.
func (s *Server) nearbyHazards(c *gin.Context) {
	user, err := parseLocation(c.Query("lat"), c.Query("lon"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	var opts domain.FilterOptions
	if v := c.Query("radius_km"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil || r <= 0 {
			s.writeError(c, fmt.Errorf("%w: radius_km must be a positive number", domain.ErrInvalidInput))
			return
		}
		opts.MaxDistanceKM = r
	}
	types, err := parseHazardTypes(c.Query("types"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if len(types) > 0 {
		opts.EnabledTypes = make(map[domain.HazardType]bool, len(types))
		for _, t := range types {
			opts.EnabledTypes[t] = true
		}
	}
	if uid := userID(c); uid != "" {
		s.applyUserFilter(c.Request.Context(), uid, &opts)
	}

	c.JSON(http.StatusOK, s.deps.Hazards.Nearby(c.Request.Context(), user, opts))
}

// applyUserFilter fills unset options from the user's saved settings and
// preferences. Default settings never narrow the filter. Lookup failures
// leave the options unchanged.
func (s *Server) applyUserFilter(ctx context.Context, uid string, opts *domain.FilterOptions) {
	if opts.MaxDistanceKM == 0 && s.deps.Settings != nil {
		settings, err := s.deps.Settings.Get(ctx, uid)
		if err != nil {
			s.logger.Warn("loading settings for hazard filter failed", "user_id", uid, "error", err)
		} else if !settings.UpdatedAt.IsZero() && settings.AlertRadiusKM > 0 {
			opts.MaxDistanceKM = settings.AlertRadiusKM
		}
	}
	if opts.EnabledTypes == nil && s.deps.Preferences != nil {
		prefs, err := s.deps.Preferences.GetPreferences(ctx, uid)
		if err != nil {
			s.logger.Warn("loading preferences for hazard filter failed", "user_id", uid, "error", err)
			return
		}
		opts.EnabledTypes = make(map[domain.HazardType]bool)
		for _, t := range domain.HazardTypes() {
			opts.EnabledTypes[t] = prefs.Wants(t)
		}
	}
}
