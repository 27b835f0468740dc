package http

import (
	"net/http"

	"github.com/couchcryptid/disaster-watch-service/internal/domain"
	"github.com/gin-gonic/gin"
)

// POST /ai-chat forwards one user message with its history to the language
// model. Failures are reported once; the client decides whether to resend.
func (s *Server) chat(c *gin.Context) {
	if s.deps.Chat == nil {
		unavailable(c, "AI chat")
		return
	}

	var req domain.ChatRequest
	if !s.bindJSON(c, &req) {
		s.deps.Metrics.ChatRequests.WithLabelValues("invalid").Inc()
		return
	}
	req, err := req.Normalize()
	if err != nil {
		s.deps.Metrics.ChatRequests.WithLabelValues("invalid").Inc()
		s.writeError(c, err)
		return
	}

	reply, err := s.deps.Chat.Reply(c.Request.Context(), req)
	if err != nil {
		s.deps.Metrics.ChatRequests.WithLabelValues("upstream_error").Inc()
		s.writeError(c, err)
		return
	}
	s.deps.Metrics.ChatRequests.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, gin.H{"response": reply})
}
