// Package archive stores ingest items and their routed copies in
// Elasticsearch and implements the fetch, archive and auto-publish services
// used by the routing engine.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"

	"github.com/newsdesk/ingest-router/internal/logger"
	"github.com/newsdesk/ingest-router/internal/models"
)

const (
	// DefaultIngestIndex holds items as they arrive from providers.
	DefaultIngestIndex = "ingest"
	// DefaultArchiveIndex holds routed copies in the editorial workflow.
	DefaultArchiveIndex = "archive"
	// defaultPublishChannel receives published payloads with no subscriber
	// targeting.
	defaultPublishChannel = "published:all"
	// subscriberChannelPrefix namespaces per-subscriber publish channels.
	subscriberChannelPrefix = "published:subscriber:"
)

// Config holds store configuration.
type Config struct {
	IngestIndex  string
	ArchiveIndex string
}

// Store is the Elasticsearch-backed item store. Published payloads are
// additionally pushed to Redis channels for subscriber delivery.
type Store struct {
	es           *elasticsearch.Client
	redisClient  *redis.Client
	ingestIndex  string
	archiveIndex string
	logger       logger.Logger
}

// NewStore creates a store. redisClient may be nil, in which case publishes
// are only recorded in Elasticsearch.
func NewStore(es *elasticsearch.Client, redisClient *redis.Client, cfg Config, log logger.Logger) *Store {
	if cfg.IngestIndex == "" {
		cfg.IngestIndex = DefaultIngestIndex
	}
	if cfg.ArchiveIndex == "" {
		cfg.ArchiveIndex = DefaultArchiveIndex
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Store{
		es:           es,
		redisClient:  redisClient,
		ingestIndex:  cfg.IngestIndex,
		archiveIndex: cfg.ArchiveIndex,
		logger:       log,
	}
}

// doc is the stored shape of an item: the normalized item plus routing
// annotations that only exist on archive copies.
type doc struct {
	models.Item
	Macro       string  `json:"macro,omitempty"`
	Target      *target `json:"target,omitempty"`
	AutoPublish bool    `json:"auto_publish,omitempty"`
}

type target struct {
	Subscribers []string `json:"target_subscribers,omitempty"`
	Types       []string `json:"target_types,omitempty"`
}

// IndexIngestItem writes an item to the ingest index under its id.
func (s *Store) IndexIngestItem(ctx context.Context, item *models.Item) error {
	return s.index(ctx, s.ingestIndex, item.ID, doc{Item: *item})
}

// GetIngestItem reads an item back from the ingest index.
func (s *Store) GetIngestItem(ctx context.Context, id string) (*models.Item, error) {
	d, err := s.get(ctx, s.ingestIndex, id)
	if err != nil {
		return nil, err
	}
	return &d.Item, nil
}

// FindIngestItemByGUID looks up an ingest item by its guid.
func (s *Store) FindIngestItemByGUID(ctx context.Context, guid string) (*models.Item, error) {
	query := map[string]any{
		"query": map[string]any{
			"term": map[string]any{"guid": guid},
		},
		"size": 1,
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(s.ingestIndex),
		s.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("search ingest index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch error: %s", res.String())
	}

	var esResponse struct {
		Hits struct {
			Hits []struct {
				ID     string          `json:"_id"`
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if decodeErr := json.NewDecoder(res.Body).Decode(&esResponse); decodeErr != nil {
		return nil, fmt.Errorf("decode search response: %w", decodeErr)
	}
	if len(esResponse.Hits.Hits) == 0 {
		return nil, models.ErrNotFound
	}

	var d doc
	if err := json.Unmarshal(esResponse.Hits.Hits[0].Source, &d); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	d.Item.ID = esResponse.Hits.Hits[0].ID
	return &d.Item, nil
}

// index writes a document, refreshing so the item is immediately visible to
// the same ingest cycle.
func (s *Store) index(ctx context.Context, indexName, id string, d doc) error {
	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal item %s: %w", id, err)
	}

	res, err := s.es.Index(
		indexName,
		bytes.NewReader(body),
		s.es.Index.WithContext(ctx),
		s.es.Index.WithDocumentID(id),
		s.es.Index.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("index item %s: %w", id, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch error indexing %s: %s", id, res.String())
	}
	return nil
}

// get reads a document by id from an index.
func (s *Store) get(ctx context.Context, indexName, id string) (*doc, error) {
	res, err := s.es.Get(
		indexName,
		id,
		s.es.Get.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("get item %s: %w", id, err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return nil, models.ErrNotFound
	}
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch error getting %s: %s", id, res.String())
	}

	var esResponse struct {
		Source json.RawMessage `json:"_source"`
	}
	if decodeErr := json.NewDecoder(res.Body).Decode(&esResponse); decodeErr != nil {
		return nil, fmt.Errorf("decode get response: %w", decodeErr)
	}

	var d doc
	if err := json.Unmarshal(esResponse.Source, &d); err != nil {
		return nil, fmt.Errorf("unmarshal item %s: %w", id, err)
	}
	d.Item.ID = id
	return &d, nil
}

// update applies a partial document update.
func (s *Store) update(ctx context.Context, indexName, id string, fields map[string]any) error {
	body, err := json.Marshal(map[string]any{"doc": fields})
	if err != nil {
		return fmt.Errorf("marshal update for %s: %w", id, err)
	}

	res, err := s.es.Update(
		indexName,
		id,
		bytes.NewReader(body),
		s.es.Update.WithContext(ctx),
		s.es.Update.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("update item %s: %w", id, err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return models.ErrNotFound
	}
	if res.IsError() {
		return fmt.Errorf("elasticsearch error updating %s: %s", id, res.String())
	}
	return nil
}
