package routing

import (
	"context"

	"github.com/newsdesk/ingest-router/internal/logger"
	"github.com/newsdesk/ingest-router/internal/models"
)

// dispatchFetch copies the item to one destination. A failure is logged,
// recorded and returned as the destination's result; it never propagates.
func (e *Engine) dispatchFetch(ctx context.Context, item *models.Item, provider *models.Provider, scheme *models.Scheme, rule *models.Rule, req FetchRequest) DestinationResult {
	res := DestinationResult{Desk: req.Desk, Stage: req.Stage}

	itemID, err := e.fetcher.Fetch(ctx, req)
	if err != nil {
		e.logger.Error("failed to fetch item to desk",
			logger.String("item_guid", item.GUID),
			logger.String("desk", req.Desk.String()),
			logger.String("stage", req.Stage.String()),
			logger.String("rule", rule.Name),
			logger.Error(err),
		)
		e.metrics.DispatchResult(models.HistoryActionFetch, false)
		res.Err = err
	} else {
		e.logger.Info("fetched item to desk",
			logger.String("item_guid", item.GUID),
			logger.String("desk", req.Desk.String()),
			logger.String("archive_item", itemID),
		)
		e.metrics.DispatchResult(models.HistoryActionFetch, true)
		res.ItemID = itemID
	}

	e.record(ctx, item, provider, scheme, rule, models.HistoryActionFetch, res)
	return res
}

// dispatchPublish fetches a routed copy for the destination and then
// auto-publishes it, populating default values first. Each step's failure is
// isolated to this destination.
func (e *Engine) dispatchPublish(ctx context.Context, item *models.Item, provider *models.Provider, scheme *models.Scheme, rule *models.Rule, dest models.PublishDestination) DestinationResult {
	res := e.dispatchFetch(ctx, item, provider, scheme, rule, FetchRequest{
		ItemID:            item.ID,
		Desk:              dest.Desk,
		Stage:             dest.Stage,
		State:             models.StateRouted,
		Macro:             dest.Macro,
		TargetSubscribers: dest.TargetSubscribers,
		TargetTypes:       dest.TargetTypes,
	})
	if res.Err != nil {
		return res
	}

	if err := e.applyPublishDefaults(ctx, res.ItemID); err != nil {
		e.logger.Error("failed to set default values for auto-publish",
			logger.String("item_guid", item.GUID),
			logger.String("archive_item", res.ItemID),
			logger.Error(err),
		)
		e.metrics.DispatchResult(models.HistoryActionPublish, false)
		res.Err = err
		e.record(ctx, item, provider, scheme, rule, models.HistoryActionPublish, res)
		return res
	}

	if err := e.publisher.AutoPublish(ctx, res.ItemID); err != nil {
		e.logger.Error("failed to auto-publish item",
			logger.String("item_guid", item.GUID),
			logger.String("archive_item", res.ItemID),
			logger.Error(err),
		)
		e.metrics.DispatchResult(models.HistoryActionPublish, false)
		res.Err = err
	} else {
		e.logger.Info("auto-published item",
			logger.String("item_guid", item.GUID),
			logger.String("archive_item", res.ItemID),
		)
		e.metrics.DispatchResult(models.HistoryActionPublish, true)
	}

	e.record(ctx, item, provider, scheme, rule, models.HistoryActionPublish, res)
	return res
}

// record persists a route-history entry. Best effort only.
func (e *Engine) record(ctx context.Context, item *models.Item, provider *models.Provider, scheme *models.Scheme, rule *models.Rule, action string, res DestinationResult) {
	if e.history == nil {
		return
	}

	entry := &models.RouteHistory{
		ItemGUID:     item.GUID,
		ProviderName: provider.Name,
		SchemeName:   scheme.Name,
		RuleName:     rule.Name,
		Action:       action,
		DeskID:       res.Desk,
		StageID:      res.Stage,
		Succeeded:    res.Err == nil,
	}
	if res.ItemID != "" {
		id := res.ItemID
		entry.ArchiveItemID = &id
	}
	if res.Err != nil {
		msg := res.Err.Error()
		entry.ErrorMessage = &msg
	}

	if err := e.history.RecordRoute(ctx, entry); err != nil {
		e.logger.Warn("failed to record route history",
			logger.String("item_guid", item.GUID),
			logger.String("rule", rule.Name),
			logger.Error(err),
		)
	}
}
