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

const (
	defaultUpdateIntervalSeconds = 300
	defaultContentExpiryMinutes  = 2880 // two days
)

// ====================
// Ingest providers
// ====================

const providerColumns = `
	id, name, source, feed_type, routing_scheme,
	update_interval_seconds, content_expiry_minutes,
	idle_hours, idle_minutes, is_closed,
	last_updated, last_item_update, created_at, updated_at`

// CreateProvider creates a new ingest provider.
func (r *Repository) CreateProvider(ctx context.Context, req *models.ProviderCreateRequest) (*models.Provider, error) {
	provider := &models.Provider{
		ID:                    uuid.New(),
		Name:                  req.Name,
		Source:                req.Source,
		FeedType:              req.FeedType,
		RoutingSchemeID:       req.RoutingSchemeID,
		UpdateIntervalSeconds: defaultUpdateIntervalSeconds,
		ContentExpiryMinutes:  defaultContentExpiryMinutes,
		CreatedAt:             time.Now(),
		UpdatedAt:             time.Now(),
	}
	if req.UpdateIntervalSeconds != nil {
		provider.UpdateIntervalSeconds = *req.UpdateIntervalSeconds
	}
	if req.ContentExpiryMinutes != nil {
		provider.ContentExpiryMinutes = *req.ContentExpiryMinutes
	}
	if req.IdleHours != nil {
		provider.IdleHours = *req.IdleHours
	}
	if req.IdleMinutes != nil {
		provider.IdleMinutes = *req.IdleMinutes
	}
	if req.Closed != nil {
		provider.Closed = *req.Closed
	}

	query := `
		INSERT INTO ingest_providers (
			id, name, source, feed_type, routing_scheme,
			update_interval_seconds, content_expiry_minutes,
			idle_hours, idle_minutes, is_closed, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING` + providerColumns

	err := r.db.QueryRowxContext(
		ctx, query,
		provider.ID, provider.Name, provider.Source, provider.FeedType, provider.RoutingSchemeID,
		provider.UpdateIntervalSeconds, provider.ContentExpiryMinutes,
		provider.IdleHours, provider.IdleMinutes, provider.Closed,
		provider.CreatedAt, provider.UpdatedAt,
	).StructScan(provider)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505": // unique_violation
				return nil, models.ErrAlreadyExists
			case "23503": // foreign_key_violation
				return nil, errors.New("routing scheme not found")
			}
		}
		return nil, fmt.Errorf("failed to create ingest provider: %w", err)
	}

	return provider, nil
}

// GetProviderByID retrieves an ingest provider by ID.
func (r *Repository) GetProviderByID(ctx context.Context, id uuid.UUID) (*models.Provider, error) {
	provider := &models.Provider{}
	query := `SELECT` + providerColumns + ` FROM ingest_providers WHERE id = $1`

	err := r.db.GetContext(ctx, provider, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ingest provider: %w", err)
	}
	return provider, nil
}

// ListProviders retrieves ingest providers; openOnly skips closed ones.
func (r *Repository) ListProviders(ctx context.Context, openOnly bool) ([]models.Provider, error) {
	providers := []models.Provider{}
	query := `SELECT` + providerColumns + ` FROM ingest_providers`
	if openOnly {
		query += ` WHERE is_closed = false`
	}
	query += ` ORDER BY created_at DESC`

	if err := r.db.SelectContext(ctx, &providers, query); err != nil {
		return nil, fmt.Errorf("failed to list ingest providers: %w", err)
	}
	return providers, nil
}

// UpdateProvider applies a partial update to an ingest provider.
func (r *Repository) UpdateProvider(ctx context.Context, id uuid.UUID, req *models.ProviderUpdateRequest) (*models.Provider, error) {
	updateFields := []string{}
	args := []any{}
	argPos := 1

	if req.Name != nil {
		updateFields = append(updateFields, fmt.Sprintf("name = $%d", argPos))
		args = append(args, *req.Name)
		argPos++
	}
	if req.Source != nil {
		updateFields = append(updateFields, fmt.Sprintf("source = $%d", argPos))
		args = append(args, *req.Source)
		argPos++
	}
	if req.ClearRoutingScheme {
		updateFields = append(updateFields, "routing_scheme = NULL")
	} else if req.RoutingSchemeID != nil {
		updateFields = append(updateFields, fmt.Sprintf("routing_scheme = $%d", argPos))
		args = append(args, *req.RoutingSchemeID)
		argPos++
	}
	if req.UpdateIntervalSeconds != nil {
		updateFields = append(updateFields, fmt.Sprintf("update_interval_seconds = $%d", argPos))
		args = append(args, *req.UpdateIntervalSeconds)
		argPos++
	}
	if req.Closed != nil {
		updateFields = append(updateFields, fmt.Sprintf("is_closed = $%d", argPos))
		args = append(args, *req.Closed)
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
		UPDATE ingest_providers
		SET %s
		WHERE id = $%d
		RETURNING`+providerColumns, joinStrings(updateFields, ", "), argPos)

	provider := &models.Provider{}
	err := r.db.QueryRowxContext(ctx, query, args...).StructScan(provider)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update ingest provider: %w", err)
	}
	return provider, nil
}

// DeleteProvider removes an ingest provider.
func (r *Repository) DeleteProvider(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM ingest_providers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete ingest provider: %w", err)
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

// MarkProviderUpdated stamps last_updated and, when itemUpdate is non-nil
// and newer than the stored value, last_item_update.
func (r *Repository) MarkProviderUpdated(ctx context.Context, id uuid.UUID, updated time.Time, itemUpdate *time.Time) error {
	query := `
		UPDATE ingest_providers
		SET last_updated = $2,
		    last_item_update = GREATEST(COALESCE(last_item_update, 'epoch'::timestamptz), COALESCE($3, last_item_update, 'epoch'::timestamptz)),
		    updated_at = $2
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id, updated, itemUpdate); err != nil {
		return fmt.Errorf("failed to mark provider updated: %w", err)
	}
	return nil
}
