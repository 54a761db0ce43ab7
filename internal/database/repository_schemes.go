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
// Routing schemes
// ====================

// CreateScheme persists a validated routing scheme.
func (r *Repository) CreateScheme(ctx context.Context, scheme *models.Scheme) (*models.Scheme, error) {
	scheme.ID = uuid.New()
	scheme.CreatedAt = time.Now()
	scheme.UpdatedAt = scheme.CreatedAt
	if err := scheme.EncodeRules(); err != nil {
		return nil, fmt.Errorf("encode rules: %w", err)
	}

	query := `
		INSERT INTO routing_schemes (id, name, rules, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, rules, created_at, updated_at
	`

	err := r.db.QueryRowxContext(
		ctx, query,
		scheme.ID, scheme.Name, scheme.RulesJSON, scheme.CreatedAt, scheme.UpdatedAt,
	).StructScan(scheme)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			return nil, models.ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to create routing scheme: %w", err)
	}

	if err := scheme.ParseRules(); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	return scheme, nil
}

// GetSchemeByID retrieves a routing scheme by ID, with rules decoded.
func (r *Repository) GetSchemeByID(ctx context.Context, id uuid.UUID) (*models.Scheme, error) {
	scheme := &models.Scheme{}
	query := `
		SELECT id, name, rules, created_at, updated_at
		FROM routing_schemes
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, scheme, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get routing scheme: %w", err)
	}

	if err := scheme.ParseRules(); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	return scheme, nil
}

// ListSchemes retrieves all routing schemes, newest first.
func (r *Repository) ListSchemes(ctx context.Context) ([]models.Scheme, error) {
	schemes := []models.Scheme{}
	query := `
		SELECT id, name, rules, created_at, updated_at
		FROM routing_schemes
		ORDER BY created_at DESC
	`

	if err := r.db.SelectContext(ctx, &schemes, query); err != nil {
		return nil, fmt.Errorf("failed to list routing schemes: %w", err)
	}

	for i := range schemes {
		if err := schemes[i].ParseRules(); err != nil {
			return nil, fmt.Errorf("parse rules for scheme %s: %w", schemes[i].ID, err)
		}
	}
	return schemes, nil
}

// UpdateScheme applies a partial update to a routing scheme.
func (r *Repository) UpdateScheme(ctx context.Context, id uuid.UUID, name *string, rules []models.Rule) (*models.Scheme, error) {
	updateFields := []string{}
	args := []any{}
	argPos := 1

	if name != nil {
		updateFields = append(updateFields, fmt.Sprintf("name = $%d", argPos))
		args = append(args, *name)
		argPos++
	}

	if rules != nil {
		scheme := models.Scheme{Rules: rules}
		if err := scheme.EncodeRules(); err != nil {
			return nil, fmt.Errorf("encode rules: %w", err)
		}
		updateFields = append(updateFields, fmt.Sprintf("rules = $%d", argPos))
		args = append(args, scheme.RulesJSON)
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
		UPDATE routing_schemes
		SET %s
		WHERE id = $%d
		RETURNING id, name, rules, created_at, updated_at
	`, joinStrings(updateFields, ", "), argPos)

	scheme := &models.Scheme{}
	err := r.db.QueryRowxContext(ctx, query, args...).StructScan(scheme)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update routing scheme: %w", err)
	}

	if err := scheme.ParseRules(); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	return scheme, nil
}

// DeleteScheme removes a routing scheme. Deletion is refused while any
// ingest provider still references the scheme.
func (r *Repository) DeleteScheme(ctx context.Context, id uuid.UUID) error {
	count, err := r.CountProvidersUsingScheme(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return models.ErrSchemeInUse
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM routing_schemes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete routing scheme: %w", err)
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

// CountProvidersUsingScheme counts ingest providers referencing a scheme.
func (r *Repository) CountProvidersUsingScheme(ctx context.Context, schemeID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM ingest_providers WHERE routing_scheme = $1`
	if err := r.db.GetContext(ctx, &count, query, schemeID); err != nil {
		return 0, fmt.Errorf("failed to count providers using scheme: %w", err)
	}
	return count, nil
}
