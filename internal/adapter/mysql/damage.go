package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/couchcryptid/disaster-watch-service/internal/domain"
)

func (s *Store) InsertDamageAssessment(ctx context.Context, d domain.DamageAssessment) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO damage_assessments (id, image_url, processing_status, damage_level, confidence_score, estimated_cost, error_message, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.ImageURL, string(d.Status), string(d.DamageLevel), d.ConfidenceScore, d.EstimatedCost, d.ErrorMessage, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert damage assessment %s: %w", d.ID, err)
	}
	return nil
}

// GetDamageAssessment returns domain.ErrNotFound when the id is unknown.
func (s *Store) GetDamageAssessment(ctx context.Context, id string) (domain.DamageAssessment, error) {
	var (
		d             domain.DamageAssessment
		status, level string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, image_url, processing_status, damage_level, confidence_score, estimated_cost, error_message, created_at, updated_at
		FROM damage_assessments WHERE id = ?`, id,
	).Scan(&d.ID, &d.ImageURL, &status, &level, &d.ConfidenceScore, &d.EstimatedCost, &d.ErrorMessage, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DamageAssessment{}, fmt.Errorf("damage assessment %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.DamageAssessment{}, fmt.Errorf("get damage assessment %s: %w", id, err)
	}
	d.Status = domain.AssessmentStatus(status)
	d.DamageLevel = domain.DamageLevel(level)
	return d, nil
}

// UpdateDamageAssessment writes the mutable fields of an assessment.
func (s *Store) UpdateDamageAssessment(ctx context.Context, d domain.DamageAssessment) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE damage_assessments SET processing_status = ?, damage_level = ?, confidence_score = ?, estimated_cost = ?, error_message = ?, updated_at = ?
		WHERE id = ?`,
		string(d.Status), string(d.DamageLevel), d.ConfidenceScore, d.EstimatedCost, d.ErrorMessage, d.UpdatedAt, d.ID,
	)
	if err != nil {
		return fmt.Errorf("update damage assessment %s: %w", d.ID, err)
	}
	return rowsAffected(res, "update damage assessment", d.ID)
}
