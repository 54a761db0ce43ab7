package routing

import (
	"context"

	"github.com/google/uuid"

	"github.com/newsdesk/ingest-router/internal/models"
)

// FilterEvaluator decides whether a content filter matches an item.
// A nil or empty filter matches everything; that contract belongs to the
// evaluator, not the engine.
type FilterEvaluator interface {
	Matches(ctx context.Context, filter *models.ContentFilter, item *models.Item) (bool, error)
}

// FetchRequest asks the archive to create a routed copy of an ingest item on
// a desk/stage.
type FetchRequest struct {
	ItemID            string
	Desk              uuid.UUID
	Stage             uuid.UUID
	State             string
	Macro             string
	TargetSubscribers []string
	TargetTypes       []string
}

// FetchService copies an ingest item into the editorial workflow and returns
// the id of the created archive copy.
type FetchService interface {
	Fetch(ctx context.Context, req FetchRequest) (string, error)
}

// PublishService auto-publishes an archive item to subscribers, bypassing
// manual review.
type PublishService interface {
	AutoPublish(ctx context.Context, itemID string) error
}

// ArchiveService reads and patches archive items. The engine uses it to
// populate default values on copies about to be auto-published.
type ArchiveService interface {
	Get(ctx context.Context, itemID string) (*models.Item, error)
	Patch(ctx context.Context, itemID string, fields map[string]any) error
}

// DeskResolver looks up a desk, mainly for its incoming stage.
type DeskResolver interface {
	Desk(ctx context.Context, id uuid.UUID) (*models.Desk, error)
}

// CategoryLookup resolves category qcodes against the category vocabulary.
type CategoryLookup interface {
	Categories(ctx context.Context, qcodes []string) ([]models.Category, error)
}

// HistoryRecorder persists the outcome of dispatched actions. Recording is
// best effort; a recording failure never fails the dispatch.
type HistoryRecorder interface {
	RecordRoute(ctx context.Context, entry *models.RouteHistory) error
}
