package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/newsdesk/ingest-router/internal/models"
)

// ====================
// Desks and categories
// ====================

// Desk retrieves a desk by ID. Implements routing.DeskResolver.
func (r *Repository) Desk(ctx context.Context, id uuid.UUID) (*models.Desk, error) {
	desk := &models.Desk{}
	query := `
		SELECT id, name, incoming_stage, created_at, updated_at
		FROM desks
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, desk, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get desk: %w", err)
	}
	return desk, nil
}

// ListDesks retrieves all desks.
func (r *Repository) ListDesks(ctx context.Context) ([]models.Desk, error) {
	desks := []models.Desk{}
	query := `
		SELECT id, name, incoming_stage, created_at, updated_at
		FROM desks
		ORDER BY name
	`

	if err := r.db.SelectContext(ctx, &desks, query); err != nil {
		return nil, fmt.Errorf("failed to list desks: %w", err)
	}
	return desks, nil
}

// Categories resolves active vocabulary categories for the given qcodes,
// matched case-insensitively. Implements routing.CategoryLookup.
func (r *Repository) Categories(ctx context.Context, qcodes []string) ([]models.Category, error) {
	if len(qcodes) == 0 {
		return nil, nil
	}

	rows := []struct {
		QCode string `db:"qcode"`
		Name  string `db:"name"`
	}{}
	query := `
		SELECT qcode, name
		FROM categories
		WHERE is_active = true AND LOWER(qcode) = ANY($1)
	`

	lowered := make([]string, len(qcodes))
	for i, q := range qcodes {
		lowered[i] = strings.ToLower(q)
	}

	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(lowered)); err != nil {
		return nil, fmt.Errorf("failed to look up categories: %w", err)
	}

	// Preserve the requested qcode order, the way default categories are
	// configured.
	categories := make([]models.Category, 0, len(rows))
	for _, q := range qcodes {
		for _, row := range rows {
			if strings.EqualFold(row.QCode, q) {
				categories = append(categories, models.Category{QCode: q, Name: row.Name})
			}
		}
	}
	return categories, nil
}

