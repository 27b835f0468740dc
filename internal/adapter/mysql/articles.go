package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/couchcryptid/disaster-watch-service/internal/domain"
)

const articleColumns = `id, kind, title, subtitle, description, image_url, content, created_at, updated_at`

// ListArticles returns articles newest first. An empty kind lists both kinds.
func (s *Store) ListArticles(ctx context.Context, kind domain.ArticleKind) ([]domain.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles`
	var args []any
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, defaultListLimit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	articles := make([]domain.Article, 0)
	for rows.Next() {
		var a domain.Article
		if err := rows.Scan(&a.ID, &a.Kind, &a.Title, &a.Subtitle, &a.Description, &a.ImageURL, &a.Content, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func (s *Store) GetArticle(ctx context.Context, id string) (domain.Article, error) {
	var a domain.Article
	err := s.db.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = ?`, id).
		Scan(&a.ID, &a.Kind, &a.Title, &a.Subtitle, &a.Description, &a.ImageURL, &a.Content, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Article{}, fmt.Errorf("article %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Article{}, fmt.Errorf("get article %s: %w", id, err)
	}
	return a, nil
}

func (s *Store) InsertArticle(ctx context.Context, a domain.Article) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO articles (`+articleColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, string(a.Kind), a.Title, a.Subtitle, a.Description, a.ImageURL, a.Content, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert article %s: %w", a.ID, err)
	}
	return nil
}

func (s *Store) UpdateArticle(ctx context.Context, a domain.Article) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE articles SET kind = ?, title = ?, subtitle = ?, description = ?, image_url = ?, content = ?, updated_at = ? WHERE id = ?`,
		string(a.Kind), a.Title, a.Subtitle, a.Description, a.ImageURL, a.Content, a.UpdatedAt, a.ID,
	)
	if err != nil {
		return fmt.Errorf("update article %s: %w", a.ID, err)
	}
	return rowsAffected(res, "update article", a.ID)
}

func (s *Store) DeleteArticle(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM articles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete article %s: %w", id, err)
	}
	return rowsAffected(res, "delete article", id)
}
