// Package database provides the Postgres repositories for routing schemes,
// content filters, ingest providers, desks and route history.
package database

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Repository provides data access for all persisted entities.
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a new repository instance.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// joinStrings joins with a separator; avoids importing strings at every call site.
func joinStrings(parts []string, sep string) string {
	return strings.Join(parts, sep)
}
