package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/couchcryptid/disaster-watch-service/internal/domain"
	"github.com/gin-gonic/gin"
)

// DamageService creates and analyzes damage assessments.
type DamageService interface {
	Create(ctx context.Context, imageURL string) (domain.DamageAssessment, error)
	Get(ctx context.Context, id string) (domain.DamageAssessment, error)
	Analyze(ctx context.Context, id, imageURL string) (domain.DamageAssessment, error)
}

type createAssessmentRequest struct {
	ImageURL string `json:"imageUrl" binding:"required"`
}

// POST /api/damage-assessments takes {"imageUrl"} or a multipart "image"
// file, and creates a pending assessment.
func (s *Server) createDamageAssessment(c *gin.Context) {
	var imageURL string
	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		fh, err := c.FormFile("image")
		if err != nil {
			s.writeError(c, fmt.Errorf("%w: image file is required", domain.ErrInvalidInput))
			return
		}
		if s.deps.Images == nil {
			s.writeError(c, fmt.Errorf("%w: image upload is not configured", domain.ErrInvalidInput))
			return
		}
		if imageURL, err = s.deps.Images.UploadImage(c.Request.Context(), "damage", fh); err != nil {
			s.writeError(c, err)
			return
		}
	} else {
		var req createAssessmentRequest
		if !s.bindJSON(c, &req) {
			return
		}
		imageURL = req.ImageURL
	}

	d, err := s.deps.Damage.Create(c.Request.Context(), imageURL)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (s *Server) getDamageAssessment(c *gin.Context) {
	d, err := s.deps.Damage.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

type analyzeRequest struct {
	AssessmentID string `json:"assessmentId" binding:"required"`
	ImageURL     string `json:"imageUrl"`
}

// POST /analyze-damage runs the analyzer on an existing assessment. Every
// answer carries a success flag.
func (s *Server) analyzeDamage(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	d, err := s.deps.Damage.Analyze(c.Request.Context(), req.AssessmentID, req.ImageURL)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, domain.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, domain.ErrInvalidInput):
			status = http.StatusBadRequest
		case errors.Is(err, domain.ErrInvalidTransition):
			status = http.StatusConflict
		}
		s.logger.Warn("damage analysis failed", "assessment_id", req.AssessmentID, "error", err)
		c.JSON(status, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "assessment": d})
}
