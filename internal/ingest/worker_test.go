package ingest_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsdesk/ingest-router/internal/ingest"
	"github.com/newsdesk/ingest-router/internal/models"
)

type fakeFeed struct {
	items []*models.Item
	err   error
}

func (f *fakeFeed) Update(context.Context, *models.Provider) ([]*models.Item, error) {
	return f.items, f.err
}

type fakeProviderStore struct {
	providers      []models.Provider
	marked         []uuid.UUID
	lastItemUpdate *time.Time
}

func (f *fakeProviderStore) ListProviders(context.Context, bool) ([]models.Provider, error) {
	return f.providers, nil
}

func (f *fakeProviderStore) MarkProviderUpdated(_ context.Context, id uuid.UUID, _ time.Time, itemUpdate *time.Time) error {
	f.marked = append(f.marked, id)
	f.lastItemUpdate = itemUpdate
	return nil
}

type fakeItemStore struct {
	byGUID  map[string]*models.Item
	indexed []*models.Item
}

func (f *fakeItemStore) IndexIngestItem(_ context.Context, item *models.Item) error {
	copied := *item
	f.indexed = append(f.indexed, &copied)
	return nil
}

func (f *fakeItemStore) FindIngestItemByGUID(_ context.Context, guid string) (*models.Item, error) {
	item, ok := f.byGUID[guid]
	if !ok {
		return nil, models.ErrNotFound
	}
	return item, nil
}

type fakeDedup struct {
	seen map[string]bool
}

func (f *fakeDedup) key(guid string, version int) string {
	return fmt.Sprintf("%s:%d", guid, version)
}

func (f *fakeDedup) HasIngested(_ context.Context, guid string, version int) bool {
	return f.seen[f.key(guid, version)]
}

func (f *fakeDedup) MarkIngested(_ context.Context, guid string, version int) error {
	f.seen[f.key(guid, version)] = true
	return nil
}

type workerFixture struct {
	providers *fakeProviderStore
	items     *fakeItemStore
	dedup     *fakeDedup
	feed      *fakeFeed
	worker    *ingest.Worker
}

func newWorkerFixture(t *testing.T) *workerFixture {
	t.Helper()

	f := &workerFixture{
		providers: &fakeProviderStore{},
		items:     &fakeItemStore{byGUID: map[string]*models.Item{}},
		dedup:     &fakeDedup{seen: map[string]bool{}},
		feed:      &fakeFeed{},
	}

	feeds := ingest.NewRegistry()
	feeds.Register("test", f.feed)

	f.worker = ingest.NewWorker(ingest.WorkerDeps{
		Providers: f.providers,
		Items:     f.items,
		Dedup:     f.dedup,
		Feeds:     feeds,
		Resolver:  ingest.NewSchemeResolver(&fakeSchemeStore{}),
	}, ingest.WorkerConfig{})
	return f
}

func testProvider() *models.Provider {
	return &models.Provider{
		ID:                   uuid.New(),
		Name:                 "reuters",
		Source:               "reuters-wire",
		FeedType:             "test",
		ContentExpiryMinutes: 60,
	}
}

func TestUpdateProviderIngestsNewItems(t *testing.T) {
	f := newWorkerFixture(t)
	f.feed.items = []*models.Item{
		{GUID: "urn:newsml:item-1"},
		{GUID: "urn:newsml:item-2", Version: 3},
	}

	provider := testProvider()
	require.NoError(t, f.worker.UpdateProvider(context.Background(), provider))

	require.Len(t, f.items.indexed, 2)
	first := f.items.indexed[0]
	assert.Equal(t, models.StateIngested, first.State)
	assert.Equal(t, models.ItemTypeText, first.Type)
	assert.Equal(t, 1, first.Version)
	assert.Equal(t, "urn:newsml:item-1", first.FamilyID)
	assert.Equal(t, provider.ID.String(), first.IngestProvider)
	assert.Equal(t, "reuters-wire", first.Source)
	assert.False(t, first.Expiry.IsZero())

	assert.True(t, f.dedup.HasIngested(context.Background(), "urn:newsml:item-1", 1))
	assert.True(t, f.dedup.HasIngested(context.Background(), "urn:newsml:item-2", 3))

	require.Len(t, f.providers.marked, 1)
	assert.Equal(t, provider.ID, f.providers.marked[0])
	assert.NotNil(t, f.providers.lastItemUpdate)
}

func TestUpdateProviderSkipsKnownVersions(t *testing.T) {
	f := newWorkerFixture(t)
	f.feed.items = []*models.Item{{GUID: "urn:newsml:item-1", Version: 2}}
	f.dedup.seen = map[string]bool{f.dedup.key("urn:newsml:item-1", 2): true}

	require.NoError(t, f.worker.UpdateProvider(context.Background(), testProvider()))

	assert.Empty(t, f.items.indexed)
	assert.Nil(t, f.providers.lastItemUpdate)
}

func TestUpdateProviderSkipsOlderStoredVersion(t *testing.T) {
	f := newWorkerFixture(t)
	f.items.byGUID["urn:newsml:item-1"] = &models.Item{
		ID: "item-1", GUID: "urn:newsml:item-1", Version: 5,
	}
	f.feed.items = []*models.Item{{GUID: "urn:newsml:item-1", Version: 5}}

	require.NoError(t, f.worker.UpdateProvider(context.Background(), testProvider()))

	assert.Empty(t, f.items.indexed)
	// The duplicate is remembered so the store lookup is skipped next cycle.
	assert.True(t, f.dedup.HasIngested(context.Background(), "urn:newsml:item-1", 5))
}

func TestUpdateProviderKeepsIdentityAcrossVersions(t *testing.T) {
	f := newWorkerFixture(t)
	f.items.byGUID["urn:newsml:item-1"] = &models.Item{
		ID: "item-1", GUID: "urn:newsml:item-1", Version: 1, FamilyID: "family-1",
	}
	f.feed.items = []*models.Item{{GUID: "urn:newsml:item-1", Version: 2}}

	require.NoError(t, f.worker.UpdateProvider(context.Background(), testProvider()))

	require.Len(t, f.items.indexed, 1)
	assert.Equal(t, "item-1", f.items.indexed[0].ID)
	assert.Equal(t, "family-1", f.items.indexed[0].FamilyID)
}

func TestUpdateProviderDropsItemsWithoutGUID(t *testing.T) {
	f := newWorkerFixture(t)
	f.feed.items = []*models.Item{{Headline: "no identity"}}

	require.NoError(t, f.worker.UpdateProvider(context.Background(), testProvider()))

	assert.Empty(t, f.items.indexed)
}

func TestUpdateProviderUnknownFeedType(t *testing.T) {
	f := newWorkerFixture(t)
	provider := testProvider()
	provider.FeedType = "sftp"

	err := f.worker.UpdateProvider(context.Background(), provider)
	assert.ErrorContains(t, err, "no feeding service registered")
}

func TestUpdateProviderFeedFailure(t *testing.T) {
	f := newWorkerFixture(t)
	f.feed.err = errors.New("connection refused")

	err := f.worker.UpdateProvider(context.Background(), testProvider())
	assert.ErrorContains(t, err, "connection refused")
	assert.Empty(t, f.providers.marked, "a failed cycle does not advance the marker")
}
