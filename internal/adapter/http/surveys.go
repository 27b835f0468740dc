package http

import (
	"context"
	"net/http"

	"github.com/couchcryptid/disaster-watch-service/internal/domain"
	"github.com/gin-gonic/gin"
)

// SurveyStore persists survey responses.
type SurveyStore interface {
	InsertSatisfactionSurvey(ctx context.Context, sv domain.SatisfactionSurvey) error
	InsertBoothSurvey(ctx context.Context, sv domain.BoothSurvey) error
}

type satisfactionRequest struct {
	Ratings     map[string]int `json:"ratings" binding:"required"`
	Comment     string         `json:"comment"`
	Suggestions string         `json:"suggestions"`
}

func (s *Server) createSatisfactionSurvey(c *gin.Context) {
	var req satisfactionRequest
	if !s.bindJSON(c, &req) {
		return
	}
	sv, err := domain.NewSatisfactionSurvey(domain.SatisfactionSurvey{
		Ratings:     req.Ratings,
		Comment:     req.Comment,
		Suggestions: req.Suggestions,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	if err := s.deps.Surveys.InsertSatisfactionSurvey(c.Request.Context(), sv); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sv)
}

type boothRequest struct {
	Ratings      map[string]int `json:"ratings" binding:"required"`
	Name         string         `json:"name"`
	Organization string         `json:"organization"`
	Feedback     string         `json:"feedback"`
	Consent      bool           `json:"consent"`
}

func (s *Server) createBoothSurvey(c *gin.Context) {
	var req boothRequest
	if !s.bindJSON(c, &req) {
		return
	}
	sv, err := domain.NewBoothSurvey(domain.BoothSurvey{
		Ratings:      req.Ratings,
		Name:         req.Name,
		Organization: req.Organization,
		Feedback:     req.Feedback,
		Consent:      req.Consent,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	if err := s.deps.Surveys.InsertBoothSurvey(c.Request.Context(), sv); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sv)
}
