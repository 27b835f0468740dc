package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ArticleKind separates news articles from safety guides.
type ArticleKind string

const (
	KindArticle ArticleKind = "article"
	KindGuide   ArticleKind = "guide"
)

// Article is admin-managed content.
type Article struct {
	ID          string      `json:"id"`
	Kind        ArticleKind `json:"kind"`
	Title       string      `json:"title"`
	Subtitle    string      `json:"subtitle,omitempty"`
	Description string      `json:"description,omitempty"`
	ImageURL    string      `json:"image,omitempty"`
	Content     string      `json:"content"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Validate checks required fields.
func (a Article) Validate() error {
	switch a.Kind {
	case KindArticle, KindGuide:
	default:
		return invalid("kind", "must be article or guide")
	}
	if strings.TrimSpace(a.Title) == "" {
		return invalid("title", "is required")
	}
	if strings.TrimSpace(a.Content) == "" {
		return invalid("content", "is required")
	}
	return nil
}

// NewArticle fills defaults, assigns an id and timestamps, then validates.
func NewArticle(a Article) (Article, error) {
	if a.Kind == "" {
		a.Kind = KindArticle
	}
	if err := a.Validate(); err != nil {
		return Article{}, err
	}
	a.ID = uuid.NewString()
	a.CreatedAt = Now()
	a.UpdatedAt = a.CreatedAt
	return a, nil
}
