package routing

import (
	"context"
	"fmt"

	"github.com/newsdesk/ingest-router/internal/models"
)

// Placeholder values for auto-published items missing required fields.
// Downstream formatters reject empty strings, hence the single space.
const (
	defaultHeadline = " "
	defaultSlugline = " "
	defaultBodyHTML = "<p></p>"
)

// DefaultValues computes the field defaults applied to an archive item about
// to be auto-published. defaultCategories is only used when the item carries
// no category of its own.
func DefaultValues(item *models.Item, defaultCategories []models.Category) map[string]any {
	fields := make(map[string]any, 4)

	if item.Headline == "" {
		fields["headline"] = defaultHeadline
	} else {
		fields["headline"] = item.Headline
	}

	if len(item.AnpaCategory) > 0 {
		fields["anpa_category"] = item.AnpaCategory
	} else {
		fields["anpa_category"] = defaultCategories
	}

	if item.Slugline == "" {
		fields["slugline"] = defaultSlugline
	} else {
		fields["slugline"] = item.Slugline
	}

	if item.BodyHTML == "" {
		fields["body_html"] = defaultBodyHTML
	} else {
		fields["body_html"] = item.BodyHTML
	}

	return fields
}

// applyPublishDefaults loads the archive copy and patches it with default
// values ahead of auto-publication.
func (e *Engine) applyPublishDefaults(ctx context.Context, itemID string) error {
	archived, err := e.archive.Get(ctx, itemID)
	if err != nil {
		return fmt.Errorf("load archive item %s: %w", itemID, err)
	}

	var defaultCategories []models.Category
	if len(archived.AnpaCategory) == 0 && len(e.cfg.DefaultCategoryQCodes) > 0 {
		defaultCategories, err = e.categories.Categories(ctx, e.cfg.DefaultCategoryQCodes)
		if err != nil {
			return fmt.Errorf("resolve default categories: %w", err)
		}
	}

	if err := e.archive.Patch(ctx, itemID, DefaultValues(archived, defaultCategories)); err != nil {
		return fmt.Errorf("patch archive item %s: %w", itemID, err)
	}
	return nil
}
