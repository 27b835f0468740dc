// Package damage drives damage assessments through analysis.
package damage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/couchcryptid/disaster-watch-service/internal/domain"
	"github.com/couchcryptid/disaster-watch-service/internal/observability"
)

// Store persists damage assessments.
type Store interface {
	InsertDamageAssessment(ctx context.Context, d domain.DamageAssessment) error
	GetDamageAssessment(ctx context.Context, id string) (domain.DamageAssessment, error)
	UpdateDamageAssessment(ctx context.Context, d domain.DamageAssessment) error
}

// Service creates assessments and runs the analyzer over them.
type Service struct {
	store    Store
	analyzer domain.Analyzer
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewService creates a damage assessment service.
func NewService(store Store, analyzer domain.Analyzer, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{store: store, analyzer: analyzer, logger: logger, metrics: metrics}
}

// Create stores a pending assessment for the image.
func (s *Service) Create(ctx context.Context, imageURL string) (domain.DamageAssessment, error) {
	d, err := domain.NewDamageAssessment(imageURL)
	if err != nil {
		return domain.DamageAssessment{}, err
	}
	if err := s.store.InsertDamageAssessment(ctx, d); err != nil {
		return domain.DamageAssessment{}, err
	}
	return d, nil
}

// Get returns one assessment.
func (s *Service) Get(ctx context.Context, id string) (domain.DamageAssessment, error) {
	return s.store.GetDamageAssessment(ctx, id)
}

// Analyze marks the assessment processing, runs the analyzer and stores the
// outcome. When imageURL is empty the stored image is analyzed. Once the
// processing state is stored, any later error marks the assessment failed
// with the error message and is returned.
func (s *Service) Analyze(ctx context.Context, id, imageURL string) (domain.DamageAssessment, error) {
	d, err := s.store.GetDamageAssessment(ctx, id)
	if err != nil {
		return domain.DamageAssessment{}, err
	}
	if u := strings.TrimSpace(imageURL); u != "" {
		d.ImageURL = u
	}

	if err := d.Transition(domain.AssessmentProcessing); err != nil {
		return d, err
	}
	if err := s.store.UpdateDamageAssessment(ctx, d); err != nil {
		return d, err
	}

	result, err := s.analyzer.Analyze(ctx, d.ImageURL)
	if err != nil {
		s.markFailed(ctx, &d, err)
		return d, fmt.Errorf("analyze damage %s: %w", id, err)
	}

	completed := d
	if err := completed.Complete(result); err != nil {
		s.markFailed(ctx, &d, err)
		return d, fmt.Errorf("complete damage assessment %s: %w", id, err)
	}
	if err := s.store.UpdateDamageAssessment(ctx, completed); err != nil {
		s.markFailed(ctx, &d, err)
		return d, fmt.Errorf("store damage assessment %s: %w", id, err)
	}
	d = completed

	s.metrics.DamageAssessments.WithLabelValues(string(domain.AssessmentCompleted)).Inc()
	s.logger.Info("damage assessment completed",
		"assessment_id", d.ID,
		"damage_level", d.DamageLevel,
		"confidence_score", d.ConfidenceScore,
	)
	return d, nil
}

// markFailed records the failure. A failed update is only logged so the
// caller still sees the analyzer error. The request context may already be
// cancelled, so the write runs detached from it.
func (s *Service) markFailed(ctx context.Context, d *domain.DamageAssessment, cause error) {
	s.metrics.DamageAssessments.WithLabelValues(string(domain.AssessmentFailed)).Inc()
	if err := d.Fail(cause); err != nil {
		s.logger.Error("damage assessment cannot be marked failed", "assessment_id", d.ID, "error", err)
		return
	}
	if err := s.store.UpdateDamageAssessment(context.WithoutCancel(ctx), *d); err != nil {
		s.logger.Error("storing failed damage assessment", "assessment_id", d.ID, "error", err)
		return
	}
	s.logger.Warn("damage assessment failed", "assessment_id", d.ID, "error", cause)
}
