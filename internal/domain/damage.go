package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AssessmentStatus is the processing state of a damage assessment.
type AssessmentStatus string

const (
	AssessmentPending    AssessmentStatus = "pending"
	AssessmentProcessing AssessmentStatus = "processing"
	AssessmentCompleted  AssessmentStatus = "completed"
	AssessmentFailed     AssessmentStatus = "failed"
)

// DamageLevel grades the damage visible in an image.
type DamageLevel string

const (
	DamageNone      DamageLevel = "none"
	DamageMinor     DamageLevel = "minor"
	DamageModerate  DamageLevel = "moderate"
	DamageSevere    DamageLevel = "severe"
	DamageDestroyed DamageLevel = "destroyed"
)

var assessmentTransitions = map[AssessmentStatus][]AssessmentStatus{
	AssessmentPending:    {AssessmentProcessing, AssessmentFailed},
	AssessmentProcessing: {AssessmentCompleted, AssessmentFailed},
}

// DamageAssessment tracks one image through analysis.
type DamageAssessment struct {
	ID              string           `json:"id"`
	ImageURL        string           `json:"image_url"`
	Status          AssessmentStatus `json:"processing_status"`
	DamageLevel     DamageLevel      `json:"damage_level,omitempty"`
	ConfidenceScore float64          `json:"confidence_score"`
	EstimatedCost   decimal.Decimal  `json:"estimated_cost"`
	ErrorMessage    string           `json:"error_message,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// NewDamageAssessment creates a pending assessment for an image.
func NewDamageAssessment(imageURL string) (DamageAssessment, error) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return DamageAssessment{}, invalid("image_url", "is required")
	}
	now := Now()
	return DamageAssessment{
		ID:            uuid.NewString(),
		ImageURL:      imageURL,
		Status:        AssessmentPending,
		EstimatedCost: decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Transition moves the assessment to the next status. Completed and failed
// are terminal.
func (d *DamageAssessment) Transition(to AssessmentStatus) error {
	for _, allowed := range assessmentTransitions[d.Status] {
		if allowed == to {
			d.Status = to
			d.UpdatedAt = Now()
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, d.Status, to)
}

// Complete records the analysis result and marks the assessment completed.
func (d *DamageAssessment) Complete(r DamageResult) error {
	if err := d.Transition(AssessmentCompleted); err != nil {
		return err
	}
	d.DamageLevel = r.DamageLevel
	d.ConfidenceScore = r.ConfidenceScore
	d.EstimatedCost = r.EstimatedCost
	d.ErrorMessage = ""
	return nil
}

// Fail records the error and marks the assessment failed.
func (d *DamageAssessment) Fail(cause error) error {
	if err := d.Transition(AssessmentFailed); err != nil {
		return err
	}
	if cause != nil {
		d.ErrorMessage = cause.Error()
	}
	return nil
}

// DamageResult is the structured output of an image analysis.
type DamageResult struct {
	DamageLevel     DamageLevel     `json:"damage_level"`
	ConfidenceScore float64         `json:"confidence_score"`
	EstimatedCost   decimal.Decimal `json:"estimated_cost"`
}

// Analyzer scores the damage shown in an image.
type Analyzer interface {
	Analyze(ctx context.Context, imageURL string) (DamageResult, error)
}

// StubAnalyzer returns a fixed result. It is a placeholder for a real model
// and must not be read as the intended scoring behavior.
type StubAnalyzer struct{}

func (StubAnalyzer) Analyze(ctx context.Context, imageURL string) (DamageResult, error) {
	if err := ctx.Err(); err != nil {
		return DamageResult{}, err
	}
	if strings.TrimSpace(imageURL) == "" {
		return DamageResult{}, invalid("image_url", "is required")
	}
	return DamageResult{
		DamageLevel:     DamageModerate,
		ConfidenceScore: 0.85,
		EstimatedCost:   decimal.NewFromInt(50000),
	}, nil
}
