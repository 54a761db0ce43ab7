package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/newsdesk/ingest-router/internal/models"
)

// ====================
// Content filters
// ====================

// CreateFilter persists a content filter.
func (r *Repository) CreateFilter(ctx context.Context, filter *models.ContentFilter) (*models.ContentFilter, error) {
	filter.ID = uuid.New()
	filter.CreatedAt = time.Now()
	filter.UpdatedAt = filter.CreatedAt
	if err := filter.EncodeStatements(); err != nil {
		return nil, fmt.Errorf("encode statements: %w", err)
	}

	query := `
		INSERT INTO content_filters (id, name, statements, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, statements, created_at, updated_at
	`

	err := r.db.QueryRowxContext(
		ctx, query,
		filter.ID, filter.Name, filter.StatementsJSON, filter.CreatedAt, filter.UpdatedAt,
	).StructScan(filter)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, models.ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to create content filter: %w", err)
	}

	if err := filter.ParseStatements(); err != nil {
		return nil, fmt.Errorf("parse statements: %w", err)
	}
	return filter, nil
}

// GetFilterByID retrieves a content filter by ID.
func (r *Repository) GetFilterByID(ctx context.Context, id uuid.UUID) (*models.ContentFilter, error) {
	filter := &models.ContentFilter{}
	query := `
		SELECT id, name, statements, created_at, updated_at
		FROM content_filters
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, filter, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get content filter: %w", err)
	}

	if err := filter.ParseStatements(); err != nil {
		return nil, fmt.Errorf("parse statements: %w", err)
	}
	return filter, nil
}

// ListFilters retrieves all content filters, newest first.
func (r *Repository) ListFilters(ctx context.Context) ([]models.ContentFilter, error) {
	filters := []models.ContentFilter{}
	query := `
		SELECT id, name, statements, created_at, updated_at
		FROM content_filters
		ORDER BY created_at DESC
	`

	if err := r.db.SelectContext(ctx, &filters, query); err != nil {
		return nil, fmt.Errorf("failed to list content filters: %w", err)
	}

	for i := range filters {
		if err := filters[i].ParseStatements(); err != nil {
			return nil, fmt.Errorf("parse statements for filter %s: %w", filters[i].ID, err)
		}
	}
	return filters, nil
}

// UpdateFilter applies a partial update to a content filter.
func (r *Repository) UpdateFilter(ctx context.Context, id uuid.UUID, req *models.FilterUpdateRequest) (*models.ContentFilter, error) {
	updateFields := []string{}
	args := []any{}
	argPos := 1

	if req.Name != nil {
		updateFields = append(updateFields, fmt.Sprintf("name = $%d", argPos))
		args = append(args, *req.Name)
		argPos++
	}

	if req.Statements != nil {
		filter := models.ContentFilter{Statements: req.Statements}
		if err := filter.EncodeStatements(); err != nil {
			return nil, fmt.Errorf("encode statements: %w", err)
		}
		updateFields = append(updateFields, fmt.Sprintf("statements = $%d", argPos))
		args = append(args, filter.StatementsJSON)
		argPos++
	}

	if len(updateFields) == 0 {
		return nil, models.ErrNoFieldsToUpdate
	}

	updateFields = append(updateFields, fmt.Sprintf("updated_at = $%d", argPos))
	args = append(args, time.Now())
	argPos++

	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE content_filters
		SET %s
		WHERE id = $%d
		RETURNING id, name, statements, created_at, updated_at
	`, joinStrings(updateFields, ", "), argPos)

	filter := &models.ContentFilter{}
	err := r.db.QueryRowxContext(ctx, query, args...).StructScan(filter)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update content filter: %w", err)
	}

	if err := filter.ParseStatements(); err != nil {
		return nil, fmt.Errorf("parse statements: %w", err)
	}
	return filter, nil
}

// DeleteFilter removes a content filter.
func (r *Repository) DeleteFilter(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM content_filters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete content filter: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}
