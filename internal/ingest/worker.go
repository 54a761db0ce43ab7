package ingest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/newsdesk/ingest-router/internal/logger"
	"github.com/newsdesk/ingest-router/internal/metrics"
	"github.com/newsdesk/ingest-router/internal/models"
	"github.com/newsdesk/ingest-router/internal/routing"
)

const (
	defaultSweepInterval = 10 * time.Second
	defaultUpdateTimeout = 2 * time.Minute
	defaultContentExpiry = 48 * time.Hour
)

// ProviderStore is the slice of the repository the worker needs.
type ProviderStore interface {
	ListProviders(ctx context.Context, openOnly bool) ([]models.Provider, error)
	MarkProviderUpdated(ctx context.Context, id uuid.UUID, updated time.Time, itemUpdate *time.Time) error
}

// ItemStore persists ingest items and answers version lookups.
type ItemStore interface {
	IndexIngestItem(ctx context.Context, item *models.Item) error
	FindIngestItemByGUID(ctx context.Context, guid string) (*models.Item, error)
}

// DedupTracker answers whether an exact item version was already processed.
type DedupTracker interface {
	HasIngested(ctx context.Context, guid string, version int) bool
	MarkIngested(ctx context.Context, guid string, version int) error
}

// Worker sweeps providers on a fixed interval and runs an update cycle for
// each provider whose own interval has elapsed.
type Worker struct {
	providers ProviderStore
	items     ItemStore
	dedup     DedupTracker
	feeds     *Registry
	resolver  *SchemeResolver
	engine    *routing.Engine
	metrics   *metrics.Metrics
	logger    logger.Logger
	tracer    trace.Tracer

	sweepInterval time.Duration
	updateTimeout time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup
	started  bool
	mu       sync.Mutex

	now func() time.Time
}

// WorkerConfig holds configuration options.
type WorkerConfig struct {
	SweepInterval time.Duration
	UpdateTimeout time.Duration
}

// WorkerDeps bundles the worker's collaborators. Metrics is optional.
type WorkerDeps struct {
	Providers ProviderStore
	Items     ItemStore
	Dedup     DedupTracker
	Feeds     *Registry
	Resolver  *SchemeResolver
	Engine    *routing.Engine
	Metrics   *metrics.Metrics
	Logger    logger.Logger
}

// NewWorker creates an ingest worker.
func NewWorker(deps WorkerDeps, cfg WorkerConfig) *Worker {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}
	if cfg.UpdateTimeout <= 0 {
		cfg.UpdateTimeout = defaultUpdateTimeout
	}
	log := deps.Logger
	if log == nil {
		log = logger.NewNop()
	}

	return &Worker{
		providers:     deps.Providers,
		items:         deps.Items,
		dedup:         deps.Dedup,
		feeds:         deps.Feeds,
		resolver:      deps.Resolver,
		engine:        deps.Engine,
		metrics:       deps.Metrics,
		logger:        log,
		tracer:        otel.Tracer("ingest-worker"),
		sweepInterval: cfg.SweepInterval,
		updateTimeout: cfg.UpdateTimeout,
		stopChan:      make(chan struct{}),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Start begins the provider sweep loop.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.run(ctx)

	w.logger.Info("ingest worker started",
		logger.Duration("sweep_interval", w.sweepInterval),
		logger.Strings("feed_types", w.feeds.FeedTypes()))
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("ingest worker stopped")
}

// IsRunning returns whether the worker is currently running.
func (w *Worker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.started
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.sweepInterval)
	defer ticker.Stop()

	// Sweep immediately on start
	w.sweepOnce(ctx)

	for {
		select {
		case <-ticker.C:
			w.sweepOnce(ctx)
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *Worker) sweepOnce(ctx context.Context) {
	providers, err := w.providers.ListProviders(ctx, true)
	if err != nil {
		w.logger.Error("failed to list ingest providers", logger.Error(err))
		return
	}

	now := w.now()
	for i := range providers {
		provider := &providers[i]
		if !provider.DueForUpdate(now) {
			continue
		}

		updateCtx, cancel := context.WithTimeout(ctx, w.updateTimeout)
		runErr := w.UpdateProvider(updateCtx, provider)
		cancel()

		w.metrics.ProviderRun(provider.Name, runErr == nil)
		if runErr != nil {
			w.logger.Error("provider update failed",
				logger.String("provider", provider.Name),
				logger.Error(runErr))
		}

		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		default:
		}
	}
}

// UpdateProvider runs one update cycle: pull the feed, persist new item
// versions and route them. Per-item failures are isolated; the cycle keeps
// going and the provider's last-updated marker advances regardless.
func (w *Worker) UpdateProvider(ctx context.Context, provider *models.Provider) error {
	ctx, span := w.tracer.Start(ctx, "ingest.update_provider",
		trace.WithAttributes(
			attribute.String("provider", provider.Name),
			attribute.String("feed_type", provider.FeedType),
		))
	defer span.End()

	feed, err := w.feeds.Get(provider.FeedType)
	if err != nil {
		return err
	}

	scheme, err := w.resolver.Resolve(ctx, provider)
	if err != nil {
		return err
	}

	items, err := feed.Update(ctx, provider)
	if err != nil {
		return err
	}

	var ingested int
	var lastItemUpdate *time.Time
	for _, item := range items {
		outcome := w.processItem(ctx, provider, scheme, item)
		w.metrics.ItemResult(provider.Name, outcome)
		if outcome == metrics.OutcomeIngested {
			ingested++
			t := item.VersionCreated
			if lastItemUpdate == nil || t.After(*lastItemUpdate) {
				lastItemUpdate = &t
			}
		}
	}

	now := w.now()
	if err := w.providers.MarkProviderUpdated(ctx, provider.ID, now, lastItemUpdate); err != nil {
		w.logger.Error("failed to mark provider updated",
			logger.String("provider", provider.Name),
			logger.Error(err))
	}

	if ingested == 0 && provider.IsIdle(now) {
		w.logger.Warn("provider has gone idle",
			logger.String("provider", provider.Name),
			logger.Int("idle_hours", provider.IdleHours),
			logger.Int("idle_minutes", provider.IdleMinutes))
	}

	w.logger.Debug("provider update cycle finished",
		logger.String("provider", provider.Name),
		logger.Int("items_seen", len(items)),
		logger.Int("items_ingested", ingested))
	return nil
}

// processItem ingests one feed item and returns its outcome label.
func (w *Worker) processItem(ctx context.Context, provider *models.Provider, scheme *models.Scheme, item *models.Item) string {
	if strings.TrimSpace(item.GUID) == "" {
		w.logger.Warn("dropping feed item without guid",
			logger.String("provider", provider.Name))
		return metrics.OutcomeFailed
	}

	w.normalize(provider, item)

	if w.dedup.HasIngested(ctx, item.GUID, item.Version) {
		return metrics.OutcomeSkipped
	}

	// A known guid with an unchanged version is a duplicate even when the
	// dedup cache has expired; only new versions get routed.
	existing, err := w.items.FindIngestItemByGUID(ctx, item.GUID)
	if err == nil && existing.Version >= item.Version {
		if markErr := w.dedup.MarkIngested(ctx, item.GUID, item.Version); markErr != nil {
			w.logger.Warn("failed to mark duplicate in dedup cache",
				logger.String("guid", item.GUID), logger.Error(markErr))
		}
		return metrics.OutcomeSkipped
	}
	if existing != nil {
		item.ID = existing.ID
		item.FamilyID = existing.FamilyID
	}

	if err := w.items.IndexIngestItem(ctx, item); err != nil {
		w.logger.Error("failed to persist ingest item",
			logger.String("provider", provider.Name),
			logger.String("guid", item.GUID),
			logger.Error(err))
		return metrics.OutcomeFailed
	}

	if markErr := w.dedup.MarkIngested(ctx, item.GUID, item.Version); markErr != nil {
		w.logger.Warn("failed to mark item in dedup cache",
			logger.String("guid", item.GUID), logger.Error(markErr))
	}

	if scheme != nil {
		started := w.now()
		w.engine.ApplyScheme(ctx, item, provider, scheme)
		w.metrics.ObserveSchemeApply(w.now().Sub(started))
	}

	return metrics.OutcomeIngested
}

// normalize fills provider-derived fields on a feed item.
func (w *Worker) normalize(provider *models.Provider, item *models.Item) {
	now := w.now()

	if item.ID == "" {
		item.ID = item.GUID
	}
	if item.Type == "" {
		item.Type = models.ItemTypeText
	}
	item.State = models.StateIngested
	item.IngestProvider = provider.ID.String()
	if item.Source == "" {
		item.Source = provider.Source
	}
	if item.Version <= 0 {
		item.Version = 1
	}
	if item.VersionCreated.IsZero() {
		item.VersionCreated = now
	}
	if item.FirstCreated.IsZero() {
		item.FirstCreated = item.VersionCreated
	}
	if item.FamilyID == "" {
		item.FamilyID = item.GUID
	}

	expiry := defaultContentExpiry
	if provider.ContentExpiryMinutes > 0 {
		expiry = time.Duration(provider.ContentExpiryMinutes) * time.Minute
	}
	item.Expiry = now.Add(expiry)
}
