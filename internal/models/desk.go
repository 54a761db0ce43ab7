package models

import (
	"time"

	"github.com/google/uuid"
)

// Desk is an editorial desk. Routed items land on one of its stages;
// IncomingStage is the default when a destination names none.
type Desk struct {
	ID            uuid.UUID `db:"id"             json:"id"`
	Name          string    `db:"name"           json:"name"`
	IncomingStage uuid.UUID `db:"incoming_stage" json:"incoming_stage"`
	CreatedAt     time.Time `db:"created_at"     json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"     json:"updated_at"`
}

// RouteHistory records one dispatched routing action for audit and the
// history API. Partial failure is expected, so failed dispatches are
// recorded too.
type RouteHistory struct {
	ID            uuid.UUID  `db:"id"              json:"id"`
	ItemGUID      string     `db:"item_guid"       json:"item_guid"`
	ProviderName  string     `db:"provider_name"   json:"provider_name"`
	SchemeName    string     `db:"scheme_name"     json:"scheme_name"`
	RuleName      string     `db:"rule_name"       json:"rule_name"`
	Action        string     `db:"action"          json:"action"` // fetch or publish
	DeskID        uuid.UUID  `db:"desk_id"         json:"desk_id"`
	StageID       uuid.UUID  `db:"stage_id"        json:"stage_id"`
	ArchiveItemID *string    `db:"archive_item_id" json:"archive_item_id,omitempty"`
	Succeeded     bool       `db:"succeeded"       json:"succeeded"`
	ErrorMessage  *string    `db:"error_message"   json:"error_message,omitempty"`
	CreatedAt     time.Time  `db:"created_at"      json:"created_at"`
}

// Actions recorded in route history.
const (
	HistoryActionFetch   = "fetch"
	HistoryActionPublish = "publish"
)
