package models

import (
	"time"

	"github.com/google/uuid"
)

// Minimum seconds between two update runs for one provider. Anything lower
// would let a slow feed overlap its own next run.
const MinUpdateIntervalSeconds = 15

// Provider is an ingest source configuration: where items come from and
// which routing scheme, if any, applies to them.
type Provider struct {
	ID                    uuid.UUID  `db:"id"                      json:"id"`
	Name                  string     `db:"name"                    json:"name"`
	Source                string     `db:"source"                  json:"source"`
	FeedType              string     `db:"feed_type"               json:"feed_type"`
	RoutingSchemeID       *uuid.UUID `db:"routing_scheme"          json:"routing_scheme,omitempty"`
	UpdateIntervalSeconds int        `db:"update_interval_seconds" json:"update_interval_seconds"`
	ContentExpiryMinutes  int        `db:"content_expiry_minutes"  json:"content_expiry_minutes"`
	IdleHours             int        `db:"idle_hours"              json:"idle_hours"`
	IdleMinutes           int        `db:"idle_minutes"            json:"idle_minutes"`
	Closed                bool       `db:"is_closed"               json:"is_closed"`
	LastUpdated           *time.Time `db:"last_updated"            json:"last_updated,omitempty"`
	LastItemUpdate        *time.Time `db:"last_item_update"        json:"last_item_update,omitempty"`
	CreatedAt             time.Time  `db:"created_at"              json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at"              json:"updated_at"`
}

// UpdateInterval returns the effective interval between update runs,
// floored at MinUpdateIntervalSeconds.
func (p *Provider) UpdateInterval() time.Duration {
	secs := p.UpdateIntervalSeconds
	if secs < MinUpdateIntervalSeconds {
		secs = MinUpdateIntervalSeconds
	}
	return time.Duration(secs) * time.Second
}

// DueForUpdate reports whether the provider should be updated at now.
// Closed providers are never due.
func (p *Provider) DueForUpdate(now time.Time) bool {
	if p.Closed {
		return false
	}
	if p.LastUpdated == nil {
		return true
	}
	return now.Sub(*p.LastUpdated) >= p.UpdateInterval()
}

// IsIdle reports whether the provider has gone quiet past its configured
// idle window. A zero idle window disables the check.
func (p *Provider) IsIdle(now time.Time) bool {
	if p.LastItemUpdate == nil || (p.IdleHours == 0 && p.IdleMinutes == 0) {
		return false
	}
	window := time.Duration(p.IdleHours)*time.Hour + time.Duration(p.IdleMinutes)*time.Minute
	return now.After(p.LastItemUpdate.Add(window))
}

// ProviderCreateRequest is the payload for creating an ingest provider.
type ProviderCreateRequest struct {
	Name                  string     `binding:"required,min=1,max=255" json:"name"`
	Source                string     `binding:"required,min=1,max=255" json:"source"`
	FeedType              string     `binding:"required,min=1,max=64"  json:"feed_type"`
	RoutingSchemeID       *uuid.UUID `json:"routing_scheme"`
	UpdateIntervalSeconds *int       `binding:"omitempty,min=1"        json:"update_interval_seconds"`
	ContentExpiryMinutes  *int       `binding:"omitempty,min=1"        json:"content_expiry_minutes"`
	IdleHours             *int       `binding:"omitempty,min=0"        json:"idle_hours"`
	IdleMinutes           *int       `binding:"omitempty,min=0"        json:"idle_minutes"`
	Closed                *bool      `json:"is_closed"`
}

// ProviderUpdateRequest is the payload for updating an ingest provider.
type ProviderUpdateRequest struct {
	Name                  *string    `binding:"omitempty,min=1,max=255" json:"name"`
	Source                *string    `binding:"omitempty,min=1,max=255" json:"source"`
	RoutingSchemeID       *uuid.UUID `json:"routing_scheme"`
	ClearRoutingScheme    bool       `json:"clear_routing_scheme"`
	UpdateIntervalSeconds *int       `binding:"omitempty,min=1"         json:"update_interval_seconds"`
	Closed                *bool      `json:"is_closed"`
}

// Validate validates the provider update request.
func (r *ProviderUpdateRequest) Validate() error {
	if r.Name == nil && r.Source == nil && r.RoutingSchemeID == nil &&
		!r.ClearRoutingScheme && r.UpdateIntervalSeconds == nil && r.Closed == nil {
		return ErrNoFieldsToUpdate
	}
	return nil
}
