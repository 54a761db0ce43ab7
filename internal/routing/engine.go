// Package routing implements the ingest routing engine: schedule evaluation,
// rule matching against content filters, and dispatch of fetch/publish
// actions for matched rules.
package routing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/newsdesk/ingest-router/internal/logger"
	"github.com/newsdesk/ingest-router/internal/metrics"
	"github.com/newsdesk/ingest-router/internal/models"
)

// DestinationResult is the tagged outcome of dispatching one destination.
// Either ItemID carries the created archive copy's id, or Err carries the
// reason the destination was skipped or failed. Failures are isolated per
// destination; a failed one never aborts the rest.
type DestinationResult struct {
	Desk   uuid.UUID
	Stage  uuid.UUID
	ItemID string
	Err    error
}

// RuleResult aggregates what one rule did to one item.
type RuleResult struct {
	Rule      string
	Matched   bool
	FilterErr error
	Fetched   []DestinationResult
	Published []DestinationResult
	Exited    bool
}

// Config carries the engine's tunables.
type Config struct {
	// DefaultCategoryQCodes names the category qcodes assigned to
	// auto-published items that carry no category of their own.
	DefaultCategoryQCodes []string
}

// Engine applies routing schemes to ingested items. All collaborators are
// injected; the engine holds no mutable state between invocations.
type Engine struct {
	filters    FilterEvaluator
	fetcher    FetchService
	publisher  PublishService
	archive    ArchiveService
	desks      DeskResolver
	categories CategoryLookup
	history    HistoryRecorder
	cfg        Config
	logger     logger.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	now        func() time.Time
}

// Deps bundles the engine's collaborators. History and Metrics are optional.
type Deps struct {
	Filters    FilterEvaluator
	Fetcher    FetchService
	Publisher  PublishService
	Archive    ArchiveService
	Desks      DeskResolver
	Categories CategoryLookup
	History    HistoryRecorder
	Metrics    *metrics.Metrics
	Logger     logger.Logger
}

// NewEngine creates a routing engine.
func NewEngine(deps Deps, cfg Config) *Engine {
	log := deps.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &Engine{
		filters:    deps.Filters,
		fetcher:    deps.Fetcher,
		publisher:  deps.Publisher,
		archive:    deps.Archive,
		desks:      deps.Desks,
		categories: deps.Categories,
		history:    deps.History,
		cfg:        cfg,
		logger:     log,
		metrics:    deps.Metrics,
		tracer:     otel.Tracer("routing-engine"),
		now:        time.Now,
	}
}

// WithClock overrides the engine's clock. Tests only.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// ApplyScheme applies a routing scheme's rules to one ingested item, in
// declared order, short-circuiting on an exit rule. Rules outside their
// schedule are skipped. Evaluation failures are logged and recorded in the
// returned results; they never propagate, so the surrounding ingest cycle
// continues regardless.
func (e *Engine) ApplyScheme(ctx context.Context, item *models.Item, provider *models.Provider, scheme *models.Scheme) []RuleResult {
	ctx, span := e.tracer.Start(ctx, "ApplyScheme", trace.WithAttributes(
		attribute.String("scheme", scheme.Name),
		attribute.String("item_guid", item.GUID),
	))
	defer span.End()

	started := e.now()
	defer func() {
		e.metrics.ObserveSchemeApply(time.Since(started))
	}()

	if len(scheme.Rules) == 0 {
		e.logger.Warn("routing scheme has no rules configured",
			logger.String("scheme", scheme.Name),
			logger.String("provider", provider.Name),
		)
		return nil
	}

	nowUTC := e.now().UTC()
	results := make([]RuleResult, 0, len(scheme.Rules))

	for i := range scheme.Rules {
		rule := &scheme.Rules[i]
		if !ScheduleActive(rule.Schedule, nowUTC) {
			continue
		}

		e.logger.Info("applying routing rule",
			logger.String("item_guid", item.GUID),
			logger.String("scheme", scheme.Name),
			logger.String("rule", rule.Name),
		)

		matched, err := e.filters.Matches(ctx, rule.Filter, item)
		if err != nil {
			e.logger.Error("content filter evaluation failed",
				logger.String("item_guid", item.GUID),
				logger.String("rule", rule.Name),
				logger.Error(err),
			)
			results = append(results, RuleResult{Rule: rule.Name, FilterErr: err})
			continue
		}
		if !matched {
			e.logger.Debug("routing rule did not match",
				logger.String("item_guid", item.GUID),
				logger.String("scheme", scheme.Name),
				logger.String("rule", rule.Name),
				logger.String("provider", provider.Name),
			)
			results = append(results, RuleResult{Rule: rule.Name})
			continue
		}

		e.metrics.RuleMatched(scheme.Name, rule.Name)
		res := e.applyRule(ctx, item, provider, scheme, rule)
		results = append(results, res)

		if res.Exited {
			e.logger.Info("exiting routing scheme",
				logger.String("item_guid", item.GUID),
				logger.String("scheme", scheme.Name),
				logger.String("rule", rule.Name),
			)
			break
		}
	}

	return results
}

// applyRule dispatches a matched rule's actions.
func (e *Engine) applyRule(ctx context.Context, item *models.Item, provider *models.Provider, scheme *models.Scheme, rule *models.Rule) RuleResult {
	res := RuleResult{Rule: rule.Name, Matched: true}

	fetchDests := rule.Actions.Fetch
	if rule.Actions.PreserveDesk && item.OnDesk() {
		if preserved, ok := e.preserveDeskFetch(ctx, item, provider, scheme, rule); ok {
			res.Fetched = append(res.Fetched, preserved)
		}
		// The preserving fetch covers the item's current desk; drop any
		// configured destination that would duplicate it.
		fetchDests = nil
		for _, d := range rule.Actions.Fetch {
			if d.Desk != *item.Task.Desk {
				fetchDests = append(fetchDests, d)
			}
		}
	}

	for _, d := range fetchDests {
		res.Fetched = append(res.Fetched, e.dispatchFetch(ctx, item, provider, scheme, rule, FetchRequest{
			ItemID: item.ID,
			Desk:   d.Desk,
			Stage:  d.Stage,
			State:  models.StateRouted,
			Macro:  d.Macro,
		}))
	}

	for _, d := range rule.Actions.Publish {
		res.Published = append(res.Published, e.dispatchPublish(ctx, item, provider, scheme, rule, d))
	}

	res.Exited = rule.Actions.Exit
	return res
}

// preserveDeskFetch issues the fetch that keeps an already-placed item on
// its current desk and stage. When the item carries no stage, the desk's
// incoming stage is used.
func (e *Engine) preserveDeskFetch(ctx context.Context, item *models.Item, provider *models.Provider, scheme *models.Scheme, rule *models.Rule) (DestinationResult, bool) {
	stage := item.Task.Stage
	if stage == nil {
		desk, err := e.desks.Desk(ctx, *item.Task.Desk)
		if err != nil {
			e.logger.Error("failed to resolve desk for preserve_desk",
				logger.String("item_guid", item.GUID),
				logger.String("rule", rule.Name),
				logger.Error(err),
			)
			return DestinationResult{Desk: *item.Task.Desk, Err: err}, true
		}
		stage = &desk.IncomingStage
	}

	return e.dispatchFetch(ctx, item, provider, scheme, rule, FetchRequest{
		ItemID: item.ID,
		Desk:   *item.Task.Desk,
		Stage:  *stage,
		State:  models.StateRouted,
	}), true
}
