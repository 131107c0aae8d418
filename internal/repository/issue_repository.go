package repository

import (
	"context"
	"fmt"

	"github.com/SergeiKhy/ulvis-relay/internal/models"
)

type IssueRepository interface {
	Create(ctx context.Context, link *models.IssuedLink) error
	ListRecent(ctx context.Context, limit int) ([]models.IssuedLink, error)
}

type issueRepository struct {
	db *PostgresDB
}

func NewIssueRepository(db *PostgresDB) IssueRepository {
	return &issueRepository{db: db}
}

func (r *issueRepository) Create(ctx context.Context, link *models.IssuedLink) error {
	query := `
		INSERT INTO issued_links (alias, short_url, original_url, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(
		ctx,
		query,
		link.Alias,
		link.ShortURL,
		link.OriginalURL,
		link.CreatedAt,
	).Scan(&link.ID)
	if err != nil {
		return fmt.Errorf("failed to record issued link: %w", err)
	}

	return nil
}

func (r *issueRepository) ListRecent(ctx context.Context, limit int) ([]models.IssuedLink, error) {
	query := `
		SELECT id, alias, short_url, original_url, created_at
		FROM issued_links
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list issued links: %w", err)
	}
	defer rows.Close()

	links := []models.IssuedLink{}
	for rows.Next() {
		var link models.IssuedLink
		if err := rows.Scan(&link.ID, &link.Alias, &link.ShortURL, &link.OriginalURL, &link.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan issued link: %w", err)
		}
		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating issued links: %w", err)
	}

	return links, nil
}
