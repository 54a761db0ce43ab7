package routing_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsdesk/ingest-router/internal/models"
	"github.com/newsdesk/ingest-router/internal/routing"
)

type fakeEvaluator struct {
	matches func(filter *models.ContentFilter, item *models.Item) (bool, error)
}

func (f *fakeEvaluator) Matches(_ context.Context, filter *models.ContentFilter, item *models.Item) (bool, error) {
	if f.matches == nil {
		return true, nil
	}
	return f.matches(filter, item)
}

type fakeFetcher struct {
	requests []routing.FetchRequest
	err      error
}

func (f *fakeFetcher) Fetch(_ context.Context, req routing.FetchRequest) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.requests = append(f.requests, req)
	return fmt.Sprintf("archive-%d", len(f.requests)), nil
}

type fakePublisher struct {
	published []string
	err       error
}

func (f *fakePublisher) AutoPublish(_ context.Context, itemID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, itemID)
	return nil
}

type fakeArchive struct {
	item    *models.Item
	patched map[string]any
}

func (f *fakeArchive) Get(_ context.Context, itemID string) (*models.Item, error) {
	if f.item == nil {
		return nil, models.ErrNotFound
	}
	copied := *f.item
	copied.ID = itemID
	return &copied, nil
}

func (f *fakeArchive) Patch(_ context.Context, _ string, fields map[string]any) error {
	f.patched = fields
	return nil
}

type fakeDesks struct {
	desks map[uuid.UUID]*models.Desk
}

func (f *fakeDesks) Desk(_ context.Context, id uuid.UUID) (*models.Desk, error) {
	desk, ok := f.desks[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return desk, nil
}

type fakeCategories struct {
	asked      []string
	categories []models.Category
}

func (f *fakeCategories) Categories(_ context.Context, qcodes []string) ([]models.Category, error) {
	f.asked = qcodes
	return f.categories, nil
}

type fakeHistory struct {
	entries []*models.RouteHistory
}

func (f *fakeHistory) RecordRoute(_ context.Context, entry *models.RouteHistory) error {
	f.entries = append(f.entries, entry)
	return nil
}

type engineFixture struct {
	evaluator  *fakeEvaluator
	fetcher    *fakeFetcher
	publisher  *fakePublisher
	archive    *fakeArchive
	desks      *fakeDesks
	categories *fakeCategories
	history    *fakeHistory
	engine     *routing.Engine
}

func newEngineFixture(cfg routing.Config) *engineFixture {
	f := &engineFixture{
		evaluator:  &fakeEvaluator{},
		fetcher:    &fakeFetcher{},
		publisher:  &fakePublisher{},
		archive:    &fakeArchive{},
		desks:      &fakeDesks{desks: map[uuid.UUID]*models.Desk{}},
		categories: &fakeCategories{},
		history:    &fakeHistory{},
	}
	f.engine = routing.NewEngine(routing.Deps{
		Filters:    f.evaluator,
		Fetcher:    f.fetcher,
		Publisher:  f.publisher,
		Archive:    f.archive,
		Desks:      f.desks,
		Categories: f.categories,
		History:    f.history,
	}, cfg)
	return f
}

func testItem() *models.Item {
	return &models.Item{
		ID:    "item-1",
		GUID:  "urn:newsml:item-1",
		Type:  models.ItemTypeText,
		State: models.StateIngested,
	}
}

func testProvider() *models.Provider {
	return &models.Provider{ID: uuid.New(), Name: "reuters"}
}

func fetchRule(name string, desks ...uuid.UUID) models.Rule {
	rule := models.Rule{Name: name}
	for _, d := range desks {
		rule.Actions.Fetch = append(rule.Actions.Fetch, models.FetchDestination{
			Desk:  d,
			Stage: uuid.New(),
		})
	}
	return rule
}

func TestApplySchemeExitShortCircuits(t *testing.T) {
	f := newEngineFixture(routing.Config{})

	deskA, deskB := uuid.New(), uuid.New()
	first := fetchRule("first", deskA)
	first.Actions.Exit = true
	scheme := &models.Scheme{
		Name:  "wires",
		Rules: []models.Rule{first, fetchRule("second", deskB)},
	}

	results := f.engine.ApplyScheme(context.Background(), testItem(), testProvider(), scheme)

	require.Len(t, results, 1)
	assert.True(t, results[0].Exited)
	require.Len(t, f.fetcher.requests, 1)
	assert.Equal(t, deskA, f.fetcher.requests[0].Desk)
}

func TestApplySchemeNoMatchDispatchesNothing(t *testing.T) {
	f := newEngineFixture(routing.Config{})
	f.evaluator.matches = func(*models.ContentFilter, *models.Item) (bool, error) {
		return false, nil
	}

	scheme := &models.Scheme{
		Name:  "wires",
		Rules: []models.Rule{fetchRule("sports", uuid.New())},
	}

	results := f.engine.ApplyScheme(context.Background(), testItem(), testProvider(), scheme)

	require.Len(t, results, 1)
	assert.False(t, results[0].Matched)
	assert.Empty(t, f.fetcher.requests)
	assert.Empty(t, f.history.entries)
}

func TestApplySchemeFilterErrorContinuesWithNextRule(t *testing.T) {
	f := newEngineFixture(routing.Config{})
	evalErr := errors.New("filter backend unavailable")
	calls := 0
	f.evaluator.matches = func(*models.ContentFilter, *models.Item) (bool, error) {
		calls++
		if calls == 1 {
			return false, evalErr
		}
		return true, nil
	}

	scheme := &models.Scheme{
		Name:  "wires",
		Rules: []models.Rule{fetchRule("broken", uuid.New()), fetchRule("working", uuid.New())},
	}

	results := f.engine.ApplyScheme(context.Background(), testItem(), testProvider(), scheme)

	require.Len(t, results, 2)
	assert.ErrorIs(t, results[0].FilterErr, evalErr)
	assert.False(t, results[0].Matched)
	assert.True(t, results[1].Matched)
	require.Len(t, f.fetcher.requests, 1)
}

func TestApplySchemeSkipsRulesOutsideSchedule(t *testing.T) {
	f := newEngineFixture(routing.Config{})
	// Pin the clock to a Monday; the rule only runs on Sundays.
	f.engine.WithClock(func() time.Time {
		return time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	})

	rule := fetchRule("weekend", uuid.New())
	rule.Schedule = &models.Schedule{DayOfWeek: []string{"SUN"}}
	scheme := &models.Scheme{Name: "wires", Rules: []models.Rule{rule}}

	results := f.engine.ApplyScheme(context.Background(), testItem(), testProvider(), scheme)

	assert.Empty(t, results)
	assert.Empty(t, f.fetcher.requests)
}

func TestApplySchemePreserveDeskExcludesDuplicateDestination(t *testing.T) {
	f := newEngineFixture(routing.Config{})

	currentDesk, currentStage := uuid.New(), uuid.New()
	otherDesk := uuid.New()

	item := testItem()
	item.Task = &models.Task{Desk: &currentDesk, Stage: &currentStage}

	rule := fetchRule("preserve", currentDesk, otherDesk)
	rule.Actions.PreserveDesk = true
	scheme := &models.Scheme{Name: "wires", Rules: []models.Rule{rule}}

	results := f.engine.ApplyScheme(context.Background(), item, testProvider(), scheme)

	require.Len(t, results, 1)
	require.Len(t, f.fetcher.requests, 2)

	// The preserving fetch targets the item's own desk and stage; the
	// configured destination for that desk is dropped.
	assert.Equal(t, currentDesk, f.fetcher.requests[0].Desk)
	assert.Equal(t, currentStage, f.fetcher.requests[0].Stage)
	assert.Equal(t, otherDesk, f.fetcher.requests[1].Desk)
}

func TestApplySchemePreserveDeskResolvesIncomingStage(t *testing.T) {
	f := newEngineFixture(routing.Config{})

	currentDesk := uuid.New()
	incomingStage := uuid.New()
	f.desks.desks[currentDesk] = &models.Desk{ID: currentDesk, IncomingStage: incomingStage}

	item := testItem()
	item.Task = &models.Task{Desk: &currentDesk}

	rule := models.Rule{Name: "preserve"}
	rule.Actions.PreserveDesk = true
	rule.Actions.Exit = true
	scheme := &models.Scheme{Name: "wires", Rules: []models.Rule{rule}}

	f.engine.ApplyScheme(context.Background(), item, testProvider(), scheme)

	require.Len(t, f.fetcher.requests, 1)
	assert.Equal(t, currentDesk, f.fetcher.requests[0].Desk)
	assert.Equal(t, incomingStage, f.fetcher.requests[0].Stage)
}

func TestApplySchemePublishFetchesDefaultsAndPublishes(t *testing.T) {
	f := newEngineFixture(routing.Config{DefaultCategoryQCodes: []string{"i"}})
	f.archive.item = &models.Item{GUID: "urn:newsml:item-1"}
	f.categories.categories = []models.Category{{QCode: "i", Name: "International"}}

	desk, stage := uuid.New(), uuid.New()
	rule := models.Rule{Name: "straight-through"}
	rule.Actions.Publish = []models.PublishDestination{{
		Desk:              desk,
		Stage:             stage,
		TargetSubscribers: []string{"wire-clients"},
	}}
	scheme := &models.Scheme{Name: "wires", Rules: []models.Rule{rule}}

	results := f.engine.ApplyScheme(context.Background(), testItem(), testProvider(), scheme)

	require.Len(t, results, 1)
	require.Len(t, results[0].Published, 1)
	assert.NoError(t, results[0].Published[0].Err)

	require.Len(t, f.fetcher.requests, 1)
	assert.Equal(t, []string{"wire-clients"}, f.fetcher.requests[0].TargetSubscribers)

	// The archive copy is patched with placeholders before publication.
	require.NotNil(t, f.archive.patched)
	assert.Equal(t, " ", f.archive.patched["headline"])
	assert.Equal(t, " ", f.archive.patched["slugline"])
	assert.Equal(t, "<p></p>", f.archive.patched["body_html"])
	assert.Equal(t, f.categories.categories, f.archive.patched["anpa_category"])
	assert.Equal(t, []string{"i"}, f.categories.asked)

	assert.Equal(t, []string{"archive-1"}, f.publisher.published)
}

func TestApplySchemeFetchFailureIsIsolatedAndRecorded(t *testing.T) {
	f := newEngineFixture(routing.Config{})
	f.fetcher.err = errors.New("elasticsearch down")

	rule := fetchRule("sports", uuid.New())
	scheme := &models.Scheme{Name: "wires", Rules: []models.Rule{rule}}

	results := f.engine.ApplyScheme(context.Background(), testItem(), testProvider(), scheme)

	require.Len(t, results, 1)
	require.Len(t, results[0].Fetched, 1)
	assert.Error(t, results[0].Fetched[0].Err)

	require.Len(t, f.history.entries, 1)
	entry := f.history.entries[0]
	assert.False(t, entry.Succeeded)
	require.NotNil(t, entry.ErrorMessage)
	assert.Equal(t, models.HistoryActionFetch, entry.Action)
}

func TestApplySchemeRecordsHistoryForSuccessfulFetch(t *testing.T) {
	f := newEngineFixture(routing.Config{})

	scheme := &models.Scheme{Name: "wires", Rules: []models.Rule{fetchRule("sports", uuid.New())}}
	item := testItem()
	provider := testProvider()

	f.engine.ApplyScheme(context.Background(), item, provider, scheme)

	require.Len(t, f.history.entries, 1)
	entry := f.history.entries[0]
	assert.Equal(t, item.GUID, entry.ItemGUID)
	assert.Equal(t, provider.Name, entry.ProviderName)
	assert.Equal(t, "wires", entry.SchemeName)
	assert.Equal(t, "sports", entry.RuleName)
	assert.True(t, entry.Succeeded)
	require.NotNil(t, entry.ArchiveItemID)
	assert.Equal(t, "archive-1", *entry.ArchiveItemID)
}
