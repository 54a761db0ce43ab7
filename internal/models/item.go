package models

import (
	"time"

	"github.com/google/uuid"
)

// Content states an item moves through on its way from the wire to
// publication.
const (
	StateIngested  = "ingested"
	StateRouted    = "routed"
	StatePublished = "published"
	StateKilled    = "killed"
)

// Item types supported by the routing pipeline.
const (
	ItemTypeText         = "text"
	ItemTypePreformatted = "preformatted"
	ItemTypePicture      = "picture"
	ItemTypeVideo        = "video"
	ItemTypeAudio        = "audio"
)

// Category is a coded subject category attached to an item.
type Category struct {
	QCode string `json:"qcode"`
	Name  string `json:"name,omitempty"`
}

// Task records the desk/stage an item is currently assigned to.
type Task struct {
	Desk  *uuid.UUID `json:"desk,omitempty"`
	Stage *uuid.UUID `json:"stage,omitempty"`
}

// Item is a normalized ingest item as produced by a feeding service and
// persisted to the ingest index. The routing engine treats it as a read-only
// snapshot apart from state/task annotations written back after actions.
type Item struct {
	ID             string     `json:"id"`
	GUID           string     `json:"guid"`
	Type           string     `json:"type"`
	State          string     `json:"state"`
	Headline       string     `json:"headline,omitempty"`
	Slugline       string     `json:"slugline,omitempty"`
	BodyHTML       string     `json:"body_html,omitempty"`
	Source         string     `json:"source,omitempty"`
	URI            string     `json:"uri,omitempty"`
	Urgency        int        `json:"urgency,omitempty"`
	Keywords       []string   `json:"keywords,omitempty"`
	AnpaCategory   []Category `json:"anpa_category,omitempty"`
	Version        int        `json:"version,omitempty"`
	VersionCreated time.Time  `json:"versioncreated"`
	FirstCreated   time.Time  `json:"firstcreated,omitempty"`
	Expiry         time.Time  `json:"expiry,omitempty"`
	IngestProvider string     `json:"ingest_provider,omitempty"`
	FamilyID       string     `json:"family_id,omitempty"`
	PubStatus      string     `json:"pubstatus,omitempty"`
	Task           *Task      `json:"task,omitempty"`
}

// OnDesk reports whether the item currently sits on a desk.
func (it *Item) OnDesk() bool {
	return it.Task != nil && it.Task.Desk != nil
}
