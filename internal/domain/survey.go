package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SatisfactionFeatures are the app features rated on the satisfaction survey.
var SatisfactionFeatures = []string{"dashboard", "map", "chatbot", "alerts", "articles", "overall"}

// BoothFeatures are the exhibition booth aspects rated on the booth survey.
var BoothFeatures = []string{"presentation", "usefulness", "ease_of_use", "overall"}

// SatisfactionSurvey is a write-once app satisfaction form.
type SatisfactionSurvey struct {
	ID          string         `json:"id"`
	Ratings     map[string]int `json:"ratings"`
	Comment     string         `json:"comment,omitempty"`
	Suggestions string         `json:"suggestions,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// NewSatisfactionSurvey validates the ratings and stamps the submission.
func NewSatisfactionSurvey(s SatisfactionSurvey) (SatisfactionSurvey, error) {
	if err := validateRatings(s.Ratings, SatisfactionFeatures); err != nil {
		return SatisfactionSurvey{}, err
	}
	s.Comment = strings.TrimSpace(s.Comment)
	s.Suggestions = strings.TrimSpace(s.Suggestions)
	s.ID = uuid.NewString()
	s.CreatedAt = Now()
	return s, nil
}

// BoothSurvey is a write-once booth visitor form. Consent is mandatory.
type BoothSurvey struct {
	ID           string         `json:"id"`
	Ratings      map[string]int `json:"ratings"`
	Name         string         `json:"name,omitempty"`
	Organization string         `json:"organization,omitempty"`
	Feedback     string         `json:"feedback,omitempty"`
	Consent      bool           `json:"consent"`
	CreatedAt    time.Time      `json:"created_at"`
}

// NewBoothSurvey validates consent and ratings and stamps the submission.
func NewBoothSurvey(s BoothSurvey) (BoothSurvey, error) {
	if !s.Consent {
		return BoothSurvey{}, invalid("consent", "must be given")
	}
	if err := validateRatings(s.Ratings, BoothFeatures); err != nil {
		return BoothSurvey{}, err
	}
	s.Name = strings.TrimSpace(s.Name)
	s.Organization = strings.TrimSpace(s.Organization)
	s.Feedback = strings.TrimSpace(s.Feedback)
	s.ID = uuid.NewString()
	s.CreatedAt = Now()
	return s, nil
}

// validateRatings requires at least one rating, only known features, and
// star values between 1 and 5.
func validateRatings(ratings map[string]int, features []string) error {
	if len(ratings) == 0 {
		return invalid("ratings", "are required")
	}
	known := make(map[string]struct{}, len(features))
	for _, f := range features {
		known[f] = struct{}{}
	}
	for f, v := range ratings {
		if _, ok := known[f]; !ok {
			return invalid("ratings", "has unknown feature "+f)
		}
		if v < 1 || v > 5 {
			return invalid("ratings."+f, "must be between 1 and 5")
		}
	}
	return nil
}
