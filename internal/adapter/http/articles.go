package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/couchcryptid/disaster-watch-service/internal/domain"
	"github.com/gin-gonic/gin"
)

// ArticleStore persists knowledge-base articles and guides.
type ArticleStore interface {
	ListArticles(ctx context.Context, kind domain.ArticleKind) ([]domain.Article, error)
	GetArticle(ctx context.Context, id string) (domain.Article, error)
	InsertArticle(ctx context.Context, a domain.Article) error
	UpdateArticle(ctx context.Context, a domain.Article) error
	DeleteArticle(ctx context.Context, id string) error
}

// GET /api/articles?kind=guide
func (s *Server) listArticles(c *gin.Context) {
	kind := domain.ArticleKind(c.Query("kind"))
	switch kind {
	case "", domain.KindArticle, domain.KindGuide:
	default:
		s.writeError(c, fmt.Errorf("%w: kind must be article or guide", domain.ErrInvalidInput))
		return
	}
	articles, err := s.deps.Articles.ListArticles(c.Request.Context(), kind)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, articles)
}

func (s *Server) getArticle(c *gin.Context) {
	a, err := s.deps.Articles.GetArticle(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

type articleRequest struct {
	Kind        domain.ArticleKind `json:"kind"`
	Title       string             `json:"title" binding:"required"`
	Subtitle    string             `json:"subtitle"`
	Description string             `json:"description"`
	ImageURL    string             `json:"image"`
	Content     string             `json:"content" binding:"required"`
}

func (r articleRequest) article() domain.Article {
	return domain.Article{
		Kind:        r.Kind,
		Title:       r.Title,
		Subtitle:    r.Subtitle,
		Description: r.Description,
		ImageURL:    r.ImageURL,
		Content:     r.Content,
	}
}

func (s *Server) createArticle(c *gin.Context) {
	var req articleRequest
	if !s.bindJSON(c, &req) {
		return
	}
	a, err := domain.NewArticle(req.article())
	if err != nil {
		s.writeError(c, err)
		return
	}
	if err := s.deps.Articles.InsertArticle(c.Request.Context(), a); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (s *Server) updateArticle(c *gin.Context) {
	var req articleRequest
	if !s.bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	existing, err := s.deps.Articles.GetArticle(ctx, c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	a := req.article()
	a.ID = existing.ID
	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = domain.Now()
	if a.Kind == "" {
		a.Kind = existing.Kind
	}
	if err := a.Validate(); err != nil {
		s.writeError(c, err)
		return
	}
	if err := s.deps.Articles.UpdateArticle(ctx, a); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (s *Server) deleteArticle(c *gin.Context) {
	if err := s.deps.Articles.DeleteArticle(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
