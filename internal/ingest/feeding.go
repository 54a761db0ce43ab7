// Package ingest runs the provider update loop: it pulls items from feeding
// services, persists new versions and applies each provider's routing scheme.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/newsdesk/ingest-router/internal/models"
)

// FeedingService pulls the current batch of items from a provider's feed.
// Implementations return every item visible in the feed; version filtering
// happens in the worker.
type FeedingService interface {
	Update(ctx context.Context, provider *models.Provider) ([]*models.Item, error)
}

// Registry maps feed types to feeding services.
type Registry struct {
	mu       sync.RWMutex
	services map[string]FeedingService
}

func NewRegistry() *Registry {
	return &Registry{services: make(map[string]FeedingService)}
}

// Register binds a feeding service to a feed type, replacing any previous
// binding.
func (r *Registry) Register(feedType string, svc FeedingService) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services[feedType] = svc
}

// Get returns the feeding service for a feed type.
func (r *Registry) Get(feedType string) (FeedingService, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	svc, ok := r.services[feedType]
	if !ok {
		return nil, fmt.Errorf("no feeding service registered for feed type %q", feedType)
	}
	return svc, nil
}

// FeedTypes lists the registered feed types, sorted.
func (r *Registry) FeedTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.services))
	for t := range r.services {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

const httpFeedTimeout = 30 * time.Second

// HTTPFeedService reads a JSON item feed over HTTP. The provider's source is
// the feed URL and the body is a JSON array of items.
type HTTPFeedService struct {
	client *http.Client
}

func NewHTTPFeedService(client *http.Client) *HTTPFeedService {
	if client == nil {
		client = &http.Client{Timeout: httpFeedTimeout}
	}
	return &HTTPFeedService{client: client}
}

func (s *HTTPFeedService) Update(ctx context.Context, provider *models.Provider) ([]*models.Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, provider.Source, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build feed request for %s: %w", provider.Name, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed for %s: %w", provider.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed for %s returned status %d", provider.Name, resp.StatusCode)
	}

	var items []*models.Item
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode feed for %s: %w", provider.Name, err)
	}
	return items, nil
}
