package http

import (
	"context"
	"net/http"
	"time"

	"github.com/couchcryptid/disaster-watch-service/internal/domain"
	"github.com/gin-gonic/gin"
)

// StatsSource computes the dashboard counters.
type StatsSource interface {
	Stats(ctx context.Context, now time.Time) (domain.Stats, error)
}

func (s *Server) stats(c *gin.Context) {
	st, err := s.deps.Stats.Stats(c.Request.Context(), domain.Now())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
