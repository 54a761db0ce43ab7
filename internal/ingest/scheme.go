package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/newsdesk/ingest-router/internal/models"
)

// SchemeStore is the slice of the repository the scheme resolver needs.
type SchemeStore interface {
	GetSchemeByID(ctx context.Context, id uuid.UUID) (*models.Scheme, error)
	GetFilterByID(ctx context.Context, id uuid.UUID) (*models.ContentFilter, error)
}

// SchemeResolver loads a provider's routing scheme and embeds each rule's
// content filter, producing a read-only snapshot for one update cycle.
type SchemeResolver struct {
	store SchemeStore
}

func NewSchemeResolver(store SchemeStore) *SchemeResolver {
	return &SchemeResolver{store: store}
}

// Resolve returns nil when the provider has no scheme configured. A rule
// whose filter was deleted keeps a nil filter and matches everything, same
// as a rule authored without one.
func (r *SchemeResolver) Resolve(ctx context.Context, provider *models.Provider) (*models.Scheme, error) {
	if provider.RoutingSchemeID == nil {
		return nil, nil
	}

	scheme, err := r.store.GetSchemeByID(ctx, *provider.RoutingSchemeID)
	if err != nil {
		return nil, fmt.Errorf("load routing scheme %s: %w", provider.RoutingSchemeID, err)
	}

	// Filters are shared between schemes, so cache lookups within the cycle.
	loaded := make(map[uuid.UUID]*models.ContentFilter)
	for i := range scheme.Rules {
		rule := &scheme.Rules[i]
		if rule.FilterID == nil {
			continue
		}
		if filter, ok := loaded[*rule.FilterID]; ok {
			rule.Filter = filter
			continue
		}
		filter, err := r.store.GetFilterByID(ctx, *rule.FilterID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("load content filter %s for rule %q: %w", rule.FilterID, rule.Name, err)
		}
		loaded[*rule.FilterID] = filter
		rule.Filter = filter
	}

	return scheme, nil
}
