package http

import (
	"context"
	"net/http"

	"github.com/couchcryptid/disaster-watch-service/internal/domain"
	"github.com/couchcryptid/disaster-watch-service/internal/realtime"
	"github.com/gin-gonic/gin"
)

// GET /ws/alerts?lat=&lon=&token=
//
// Upgrades to a WebSocket that streams toasts for relevant realtime alerts.
// The identity comes from the token only. Sessions without one are anonymous
// and use default preferences and settings.
func (s *Server) alertSocket(c *gin.Context) {
	if s.deps.Hub == nil {
		unavailable(c, "realtime alerts")
		return
	}
	if s.deps.Hub.Closed() {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "realtime alerts are shutting down"})
		return
	}
	loc, err := parseLocation(c.Query("lat"), c.Query("lon"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	claims, ok, err := s.auth.authenticate(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	var uid string
	if ok {
		uid = claims.Subject
	} else if c.Query("user_id") != "" {
		s.logger.Debug("ignoring user_id on unauthenticated alert socket")
	}

	ctx := c.Request.Context()
	opts := s.subscriberOptions(ctx, uid)
	opts.Location = loc

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already answered the client.
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	sub := s.deps.Hub.Subscribe(ctx, opts)
	realtime.NewClient(conn, sub, s.logger).Serve()
}

// subscriberOptions loads the user's preferences and settings. Lookup
// failures fall back to defaults so the socket still opens.
func (s *Server) subscriberOptions(ctx context.Context, uid string) realtime.SubscriberOptions {
	opts := realtime.SubscriberOptions{
		UserID:      uid,
		Preferences: domain.DefaultPreferences(uid),
		Settings:    domain.DefaultSettings(uid),
	}
	if uid == "" {
		return opts
	}
	if s.deps.Preferences != nil {
		if p, err := s.deps.Preferences.GetPreferences(ctx, uid); err != nil {
			s.logger.Warn("loading preferences for subscriber failed", "user_id", uid, "error", err)
		} else {
			opts.Preferences = p
		}
	}
	if s.deps.Settings != nil {
		if st, err := s.deps.Settings.Get(ctx, uid); err != nil {
			s.logger.Warn("loading settings for subscriber failed", "user_id", uid, "error", err)
		} else {
			opts.Settings = st
		}
	}
	return opts
}
