package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/newsdesk/ingest-router/internal/models"
)

// ====================
// Route history
// ====================

// RecordRoute persists one route-history entry. Implements
// routing.HistoryRecorder.
func (r *Repository) RecordRoute(ctx context.Context, entry *models.RouteHistory) error {
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now()

	query := `
		INSERT INTO route_history (
			id, item_guid, provider_name, scheme_name, rule_name, action,
			desk_id, stage_id, archive_item_id, succeeded, error_message, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(
		ctx, query,
		entry.ID, entry.ItemGUID, entry.ProviderName, entry.SchemeName, entry.RuleName, entry.Action,
		entry.DeskID, entry.StageID, entry.ArchiveItemID, entry.Succeeded, entry.ErrorMessage, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record route history: %w", err)
	}
	return nil
}

// ListRouteHistory retrieves route history, newest first, optionally
// filtered by scheme name.
func (r *Repository) ListRouteHistory(ctx context.Context, schemeName string, limit int) ([]models.RouteHistory, error) {
	if limit <= 0 {
		limit = 100
	}

	entries := []models.RouteHistory{}
	query := `
		SELECT id, item_guid, provider_name, scheme_name, rule_name, action,
		       desk_id, stage_id, archive_item_id, succeeded, error_message, created_at
		FROM route_history
	`
	args := []any{}
	if schemeName != "" {
		query += ` WHERE scheme_name = $1`
		args = append(args, schemeName)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, limit)

	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list route history: %w", err)
	}
	return entries, nil
}
