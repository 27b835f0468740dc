package mysql

import (
	"context"
	"fmt"

	"github.com/couchcryptid/disaster-watch-service/internal/domain"
)

func (s *Store) InsertSatisfactionSurvey(ctx context.Context, sv domain.SatisfactionSurvey) error {
	ratings, err := jsonColumn(sv.Ratings)
	if err != nil {
		return fmt.Errorf("encode ratings: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO satisfaction_surveys (id, ratings, comment, suggestions, created_at) VALUES (?, ?, ?, ?, ?)`,
		sv.ID, ratings, sv.Comment, sv.Suggestions, sv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert satisfaction survey %s: %w", sv.ID, err)
	}
	return nil
}

func (s *Store) InsertBoothSurvey(ctx context.Context, sv domain.BoothSurvey) error {
	ratings, err := jsonColumn(sv.Ratings)
	if err != nil {
		return fmt.Errorf("encode ratings: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO booth_surveys (id, ratings, name, organization, feedback, consent, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sv.ID, ratings, sv.Name, sv.Organization, sv.Feedback, sv.Consent, sv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert booth survey %s: %w", sv.ID, err)
	}
	return nil
}
