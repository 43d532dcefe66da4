// Package storefront is the typed service layer over the GraphQL
// pipeline. Each operation runs through the shared TTL cache, so
// repeated renders of the same page hit the upstream at most once per
// TTL window. Factories execute under the full resilience pipeline of
// pkg/client.
package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/commercekit/storefront-graphql-client/pkg/apierrors"
	"github.com/commercekit/storefront-graphql-client/pkg/breaker"
	"github.com/commercekit/storefront-graphql-client/pkg/cache"
	"github.com/commercekit/storefront-graphql-client/pkg/client"
	"github.com/commercekit/storefront-graphql-client/pkg/logging"
)

// TTLConfig holds the per-resource cache lifetimes. Product data changes
// more often than navigation, so each resource class gets its own TTL.
type TTLConfig struct {
	Product    time.Duration
	Category   time.Duration
	Collection time.Duration
	Search     time.Duration
	Navigation time.Duration
}

// DefaultTTLConfig returns the standard per-resource TTLs.
func DefaultTTLConfig() TTLConfig {
	return TTLConfig{
		Product:    5 * time.Minute,
		Category:   10 * time.Minute,
		Collection: 10 * time.Minute,
		Search:     time.Minute,
		Navigation: 15 * time.Minute,
	}
}

// Service provides the typed storefront operations. One Service is
// shared across all inbound requests; per-request state travels in the
// RequestContext passed to each call.
type Service struct {
	clientCfg client.Config
	breaker   *breaker.Breaker[json.RawMessage]
	cache     *cache.Cache[json.RawMessage]
	ttl       TTLConfig
	logger    zerolog.Logger
}

// New creates the service. The cache and breaker are the process-wide
// instances; a zero TTLConfig field falls back to its default.
func New(clientCfg client.Config, store *cache.Cache[json.RawMessage], br *breaker.Breaker[json.RawMessage], ttl TTLConfig) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cache is required")
	}
	if br == nil {
		return nil, fmt.Errorf("circuit breaker is required")
	}

	def := DefaultTTLConfig()
	if ttl.Product <= 0 {
		ttl.Product = def.Product
	}
	if ttl.Category <= 0 {
		ttl.Category = def.Category
	}
	if ttl.Collection <= 0 {
		ttl.Collection = def.Collection
	}
	if ttl.Search <= 0 {
		ttl.Search = def.Search
	}
	if ttl.Navigation <= 0 {
		ttl.Navigation = def.Navigation
	}

	return &Service{
		clientCfg: clientCfg,
		breaker:   br,
		cache:     store,
		ttl:       ttl,
		logger:    logging.NewLogger("storefront"),
	}, nil
}

// ProductBySlug returns the product detail for a slug. A null product in
// the response maps to a not_found error.
func (s *Service) ProductBySlug(ctx context.Context, rc *client.RequestContext, slug string) (*Product, error) {
	if slug == "" {
		return nil, apierrors.New(apierrors.KindValidation, "slug is required", traceID(rc))
	}

	data, err := s.fetch(ctx, rc, cache.ProductKey(slug), s.ttl.Product,
		opGetProduct, map[string]any{"slug": slug})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Product *Product `json:"product"`
	}
	if err := s.decode(data, &payload, opGetProduct.Name, rc); err != nil {
		return nil, err
	}
	if payload.Product == nil {
		return nil, apierrors.New(apierrors.KindNotFound, "product not found", traceID(rc)).
			WithContext("slug", slug)
	}
	return payload.Product, nil
}

// CategoryByID returns a category with its product listing.
func (s *Service) CategoryByID(ctx context.Context, rc *client.RequestContext, id string) (*Category, error) {
	if id == "" {
		return nil, apierrors.New(apierrors.KindValidation, "category id is required", traceID(rc))
	}

	data, err := s.fetch(ctx, rc, cache.CategoryKey(id), s.ttl.Category,
		opGetCategory, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Category *Category `json:"category"`
	}
	if err := s.decode(data, &payload, opGetCategory.Name, rc); err != nil {
		return nil, err
	}
	if payload.Category == nil {
		return nil, apierrors.New(apierrors.KindNotFound, "category not found", traceID(rc)).
			WithContext("id", id)
	}
	return payload.Category, nil
}

// CollectionByID returns a curated collection with its products.
func (s *Service) CollectionByID(ctx context.Context, rc *client.RequestContext, id string) (*Collection, error) {
	if id == "" {
		return nil, apierrors.New(apierrors.KindValidation, "collection id is required", traceID(rc))
	}

	data, err := s.fetch(ctx, rc, cache.CollectionKey(id), s.ttl.Collection,
		opGetCollection, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Collection *Collection `json:"collection"`
	}
	if err := s.decode(data, &payload, opGetCollection.Name, rc); err != nil {
		return nil, err
	}
	if payload.Collection == nil {
		return nil, apierrors.New(apierrors.KindNotFound, "collection not found", traceID(rc)).
			WithContext("id", id)
	}
	return payload.Collection, nil
}

// Search returns one page of product search results. The full parameter
// set (query text, pagination, filters) feeds the cache key, so distinct
// searches never share an entry.
func (s *Service) Search(ctx context.Context, rc *client.RequestContext, params SearchParams) (*SearchResult, error) {
	if params.Query == "" {
		return nil, apierrors.New(apierrors.KindValidation, "search query is required", traceID(rc))
	}
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.PageSize <= 0 {
		params.PageSize = 24
	}

	variables := map[string]any{
		"query":    params.Query,
		"page":     params.Page,
		"pageSize": params.PageSize,
	}
	if len(params.Filters) > 0 {
		variables["filters"] = params.Filters
	}

	data, err := s.fetch(ctx, rc, cache.SearchKey(variables), s.ttl.Search,
		opSearchProducts, variables)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Search *SearchResult `json:"search"`
	}
	if err := s.decode(data, &payload, opSearchProducts.Name, rc); err != nil {
		return nil, err
	}
	if payload.Search == nil {
		return nil, apierrors.New(apierrors.KindUpstream, "search returned no result", traceID(rc))
	}
	return payload.Search, nil
}

// Navigation returns the storefront navigation tree. The operation takes
// no parameters, so all requests share a single cache entry.
func (s *Service) Navigation(ctx context.Context, rc *client.RequestContext) ([]NavigationItem, error) {
	data, err := s.fetch(ctx, rc, cache.OperationKey(opGetNavigation.Name, nil), s.ttl.Navigation,
		opGetNavigation, nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Navigation []NavigationItem `json:"navigation"`
	}
	if err := s.decode(data, &payload, opGetNavigation.Name, rc); err != nil {
		return nil, err
	}
	return payload.Navigation, nil
}

// CacheStats exposes the cache counters for health reporting.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// BreakerStatus exposes the circuit breaker state for health reporting.
func (s *Service) BreakerStatus() breaker.Status {
	return s.breaker.Status()
}

// fetch serves the operation from the cache, running the pipeline on a
// miss. Pipeline failures propagate uncached, so the next render retries
// the upstream.
func (s *Service) fetch(ctx context.Context, rc *client.RequestContext, key string, ttl time.Duration, op client.Operation, variables map[string]any) (json.RawMessage, error) {
	return s.cache.GetOrSetWithTTL(key, func() (json.RawMessage, error) {
		c, err := client.New(s.clientCfg, s.breaker, rc)
		if err != nil {
			return nil, apierrors.Internal(err, traceID(rc))
		}
		return c.Execute(ctx, op, variables)
	}, ttl)
}

func (s *Service) decode(data json.RawMessage, into any, operation string, rc *client.RequestContext) error {
	if err := json.Unmarshal(data, into); err != nil {
		s.logger.Error().Str("operation", operation).Err(err).Msg("Failed to decode cached payload")
		return apierrors.Internal(fmt.Errorf("decode %s payload: %w", operation, err), traceID(rc))
	}
	return nil
}

func traceID(rc *client.RequestContext) string {
	if rc == nil {
		return ""
	}
	return rc.TraceID
}
