package http

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/couchcryptid/disaster-watch-service/internal/domain"
	"github.com/gin-gonic/gin"
)

// maxImagesPerReport bounds the photos attached to one incident report.
const maxImagesPerReport = 5

// ReportStore persists victim and incident reports.
type ReportStore interface {
	InsertVictimReport(ctx context.Context, r domain.VictimReport) error
	ListVictimReports(ctx context.Context, statuses []domain.VictimStatus) ([]domain.VictimReport, error)
	InsertIncidentReport(ctx context.Context, r domain.IncidentReport) error
	ListIncidentReports(ctx context.Context) ([]domain.IncidentReport, error)
}

// ImageUploader stores an uploaded image and returns its public URL.
type ImageUploader interface {
	UploadImage(ctx context.Context, prefix string, fh *multipart.FileHeader) (string, error)
}

type victimReportRequest struct {
	Name        string      `json:"name" binding:"required"`
	Status      string      `json:"status" binding:"required"`
	Description string      `json:"description"`
	Geo         *domain.Geo `json:"geo"`
	Contact     string      `json:"contact"`
}

func (s *Server) createVictimReport(c *gin.Context) {
	var req victimReportRequest
	if !s.bindJSON(c, &req) {
		return
	}
	r, err := domain.NewVictimReport(domain.VictimReport{
		Name:        req.Name,
		Status:      domain.VictimStatus(req.Status),
		Description: req.Description,
		Geo:         req.Geo,
		Contact:     req.Contact,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	if err := s.deps.Reports.InsertVictimReport(c.Request.Context(), r); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// GET /api/victim-reports?status=needs_help,trapped
func (s *Server) listVictimReports(c *gin.Context) {
	var statuses []domain.VictimStatus
	for _, part := range strings.Split(c.Query("status"), ",") {
		if part = strings.TrimSpace(part); part == "" {
			continue
		}
		st, ok := domain.ParseVictimStatus(part)
		if !ok {
			s.writeError(c, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, part))
			return
		}
		statuses = append(statuses, st)
	}

	reports, err := s.deps.Reports.ListVictimReports(c.Request.Context(), statuses)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

type incidentReportRequest struct {
	Type        string      `json:"type" binding:"required"`
	Severity    int         `json:"severity" binding:"required"`
	Description string      `json:"description" binding:"required"`
	Images      []string    `json:"images"`
	Geo         *domain.Geo `json:"geo"`
}

// POST /api/incident-reports accepts JSON with image URLs, or a multipart
// form whose "images" files are uploaded first.
func (s *Server) createIncidentReport(c *gin.Context) {
	var (
		req incidentReportRequest
		err error
	)
	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		req, err = s.incidentFromForm(c)
		if err != nil {
			s.writeError(c, err)
			return
		}
	} else if !s.bindJSON(c, &req) {
		return
	}

	r, err := domain.NewIncidentReport(domain.IncidentReport{
		Type:        domain.HazardType(req.Type),
		Severity:    req.Severity,
		Description: req.Description,
		Images:      req.Images,
		Geo:         req.Geo,
		ReporterID:  userID(c),
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	if err := s.deps.Reports.InsertIncidentReport(c.Request.Context(), r); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (s *Server) incidentFromForm(c *gin.Context) (incidentReportRequest, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return incidentReportRequest{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	req := incidentReportRequest{
		Type:        c.PostForm("type"),
		Description: c.PostForm("description"),
	}
	if req.Severity, err = strconv.Atoi(c.PostForm("severity")); err != nil {
		return req, fmt.Errorf("%w: severity must be an integer", domain.ErrInvalidInput)
	}
	if req.Geo, err = parseLocation(c.PostForm("lat"), c.PostForm("lon")); err != nil {
		return req, err
	}

	files := form.File["images"]
	if len(files) > maxImagesPerReport {
		return req, fmt.Errorf("%w: at most %d images per report", domain.ErrInvalidInput, maxImagesPerReport)
	}
	if len(files) > 0 && s.deps.Images == nil {
		return req, fmt.Errorf("%w: image upload is not configured", domain.ErrInvalidInput)
	}
	for _, fh := range files {
		u, err := s.deps.Images.UploadImage(c.Request.Context(), "incidents", fh)
		if err != nil {
			return req, err
		}
		req.Images = append(req.Images, u)
	}
	return req, nil
}

func (s *Server) listIncidentReports(c *gin.Context) {
	reports, err := s.deps.Reports.ListIncidentReports(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reports)
}
