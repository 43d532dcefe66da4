package storefront

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/commercekit/storefront-graphql-client/internal/testutil"
	"github.com/commercekit/storefront-graphql-client/pkg/apierrors"
	"github.com/commercekit/storefront-graphql-client/pkg/breaker"
	"github.com/commercekit/storefront-graphql-client/pkg/cache"
	"github.com/commercekit/storefront-graphql-client/pkg/client"
)

func newTestService(t *testing.T, mock *testutil.MockGraphQL) *Service {
	t.Helper()

	cfg := client.DefaultConfig(mock.URL(), "test-token")
	cfg.RequestTimeout = 500 * time.Millisecond
	cfg.MaxRetries = 0
	cfg.InitialBackoff = 5 * time.Millisecond

	br := breaker.New[json.RawMessage]("storefront-test", breaker.Config{
		FailureThreshold: 1000,
		ResetTimeout:     time.Minute,
	}, zerolog.Nop())

	store := cache.New[json.RawMessage](100, time.Minute)

	svc, err := New(cfg, store, br, DefaultTTLConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return svc
}

func TestNew_Validation(t *testing.T) {
	br := breaker.New[json.RawMessage]("t", breaker.DefaultConfig(), zerolog.Nop())
	store := cache.New[json.RawMessage](10, time.Minute)
	cfg := client.DefaultConfig("http://api", "t")

	if _, err := New(cfg, nil, br, TTLConfig{}); err == nil {
		t.Error("New should reject a nil cache")
	}
	if _, err := New(cfg, store, nil, TTLConfig{}); err == nil {
		t.Error("New should reject a nil breaker")
	}

	// Zero TTLs fall back to the defaults.
	svc, err := New(cfg, store, br, TTLConfig{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if svc.ttl.Product != DefaultTTLConfig().Product {
		t.Errorf("Product TTL = %v, want default %v", svc.ttl.Product, DefaultTTLConfig().Product)
	}
}

func TestProductBySlug_FetchesThenServesFromCache(t *testing.T) {
	mock := testutil.NewMockGraphQL()
	defer mock.Close()
	mock.SetResponse("GetProduct", testutil.NewDataResponse(
		`{"product":{"id":"p1","slug":"slug-1","name":"Widget","price":{"amount":1999,"currency":"EUR"}}}`))

	svc := newTestService(t, mock)
	ctx := context.Background()

	p, err := svc.ProductBySlug(ctx, nil, "slug-1")
	if err != nil {
		t.Fatalf("ProductBySlug failed: %v", err)
	}
	if p.Name != "Widget" {
		t.Errorf("Name = %q, want %q", p.Name, "Widget")
	}
	if p.Price.Amount != 1999 || p.Price.Currency != "EUR" {
		t.Errorf("Price = %+v, want 1999 EUR", p.Price)
	}

	// Second call is served from the cache under product:slug-1 without
	// touching the upstream.
	p2, err := svc.ProductBySlug(ctx, nil, "slug-1")
	if err != nil {
		t.Fatalf("cached ProductBySlug failed: %v", err)
	}
	if p2.Name != "Widget" {
		t.Errorf("cached Name = %q, want %q", p2.Name, "Widget")
	}
	if mock.GetRequestCount() != 1 {
		t.Errorf("requests = %d, want 1 (second call must hit the cache)", mock.GetRequestCount())
	}
	if !svc.cache.Has(cache.ProductKey("slug-1")) {
		t.Error("expected cache entry under product:slug-1")
	}
}

func TestProductBySlug_NullProductIsNotFound(t *testing.T) {
	mock := testutil.NewMockGraphQL()
	defer mock.Close()
	mock.SetResponse("GetProduct", testutil.NewDataResponse(`{"product":null}`))

	svc := newTestService(t, mock)

	_, err := svc.ProductBySlug(context.Background(), nil, "missing")
	if err == nil {
		t.Fatal("expected not_found error")
	}
	if kind := apierrors.KindOf(err); kind != apierrors.KindNotFound {
		t.Errorf("kind = %s, want %s", kind, apierrors.KindNotFound)
	}
}

func TestProductBySlug_EmptySlugIsValidation(t *testing.T) {
	mock := testutil.NewMockGraphQL()
	defer mock.Close()

	svc := newTestService(t, mock)

	_, err := svc.ProductBySlug(context.Background(), nil, "")
	if err == nil {
		t.Fatal("expected validation error")
	}
	if kind := apierrors.KindOf(err); kind != apierrors.KindValidation {
		t.Errorf("kind = %s, want %s", kind, apierrors.KindValidation)
	}
	if mock.GetRequestCount() != 0 {
		t.Errorf("requests = %d, want 0 (validation happens before transport)", mock.GetRequestCount())
	}
}

func TestProductBySlug_UpstreamFailureIsNotCached(t *testing.T) {
	mock := testutil.NewMockGraphQL()
	defer mock.Close()
	mock.FailThenSucceed("GetProduct", 1,
		testutil.NewStatusResponse(http.StatusServiceUnavailable),
		testutil.NewDataResponse(`{"product":{"id":"p1","slug":"s","name":"Widget"}}`))

	svc := newTestService(t, mock)
	ctx := context.Background()

	if _, err := svc.ProductBySlug(ctx, nil, "s"); err == nil {
		t.Fatal("expected upstream failure")
	}
	if svc.cache.Has(cache.ProductKey("s")) {
		t.Error("failed lookup must not leave a cache entry")
	}

	// The next render retries the upstream and succeeds.
	p, err := svc.ProductBySlug(ctx, nil, "s")
	if err != nil {
		t.Fatalf("retry after failure failed: %v", err)
	}
	if p.Name != "Widget" {
		t.Errorf("Name = %q, want %q", p.Name, "Widget")
	}
}

func TestCategoryByID(t *testing.T) {
	mock := testutil.NewMockGraphQL()
	defer mock.Close()
	mock.SetResponse("GetCategory", testutil.NewDataResponse(
		`{"category":{"id":"c1","slug":"tools","name":"Tools","products":[{"id":"p1","slug":"s1","name":"Hammer"}]}}`))

	svc := newTestService(t, mock)

	cat, err := svc.CategoryByID(context.Background(), nil, "c1")
	if err != nil {
		t.Fatalf("CategoryByID failed: %v", err)
	}
	if cat.Name != "Tools" {
		t.Errorf("Name = %q, want %q", cat.Name, "Tools")
	}
	if len(cat.Products) != 1 || cat.Products[0].Name != "Hammer" {
		t.Errorf("Products = %+v, want one Hammer", cat.Products)
	}
	if !svc.cache.Has(cache.CategoryKey("c1")) {
		t.Error("expected cache entry under category:c1")
	}
}

func TestCollectionByID_NullIsNotFound(t *testing.T) {
	mock := testutil.NewMockGraphQL()
	defer mock.Close()
	mock.SetResponse("GetCollection", testutil.NewDataResponse(`{"collection":null}`))

	svc := newTestService(t, mock)

	_, err := svc.CollectionByID(context.Background(), nil, "missing")
	if kind := apierrors.KindOf(err); kind != apierrors.KindNotFound {
		t.Errorf("kind = %s, want %s", kind, apierrors.KindNotFound)
	}
}

func TestSearch_DistinctParamsGetDistinctEntries(t *testing.T) {
	mock := testutil.NewMockGraphQL()
	defer mock.Close()
	mock.SetResponse("SearchProducts", testutil.NewDataResponse(
		`{"search":{"total":1,"page":1,"items":[{"id":"p1","slug":"s1","name":"Drill"}]}}`))

	svc := newTestService(t, mock)
	ctx := context.Background()

	res, err := svc.Search(ctx, nil, SearchParams{Query: "drill"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if res.Total != 1 || len(res.Items) != 1 {
		t.Errorf("result = %+v, want one hit", res)
	}

	// Same parameters hit the cache.
	if _, err := svc.Search(ctx, nil, SearchParams{Query: "drill"}); err != nil {
		t.Fatalf("cached Search failed: %v", err)
	}
	if mock.GetRequestCount() != 1 {
		t.Errorf("requests = %d, want 1", mock.GetRequestCount())
	}

	// A different page is a different cache entry.
	if _, err := svc.Search(ctx, nil, SearchParams{Query: "drill", Page: 2}); err != nil {
		t.Fatalf("page 2 Search failed: %v", err)
	}
	if mock.GetRequestCount() != 2 {
		t.Errorf("requests = %d, want 2 (page 2 must miss)", mock.GetRequestCount())
	}
}

func TestSearch_EmptyQueryIsValidation(t *testing.T) {
	mock := testutil.NewMockGraphQL()
	defer mock.Close()

	svc := newTestService(t, mock)

	_, err := svc.Search(context.Background(), nil, SearchParams{})
	if kind := apierrors.KindOf(err); kind != apierrors.KindValidation {
		t.Errorf("kind = %s, want %s", kind, apierrors.KindValidation)
	}
}

func TestNavigation_SharedCacheEntry(t *testing.T) {
	mock := testutil.NewMockGraphQL()
	defer mock.Close()
	mock.SetResponse("GetNavigation", testutil.NewDataResponse(
		`{"navigation":[{"title":"Home","path":"/","children":[]}]}`))

	svc := newTestService(t, mock)
	ctx := context.Background()

	nav, err := svc.Navigation(ctx, nil)
	if err != nil {
		t.Fatalf("Navigation failed: %v", err)
	}
	if len(nav) != 1 || nav[0].Title != "Home" {
		t.Errorf("nav = %+v, want one Home entry", nav)
	}

	// Zero-argument operation keys on the empty-params token.
	key := cache.OperationKey("GetNavigation", nil)
	if !svc.cache.Has(key) {
		t.Errorf("expected cache entry under %s", key)
	}

	if _, err := svc.Navigation(ctx, nil); err != nil {
		t.Fatalf("cached Navigation failed: %v", err)
	}
	if mock.GetRequestCount() != 1 {
		t.Errorf("requests = %d, want 1", mock.GetRequestCount())
	}
}

func TestServiceHealthAccessors(t *testing.T) {
	mock := testutil.NewMockGraphQL()
	defer mock.Close()
	mock.SetResponse("GetProduct", testutil.NewDataResponse(`{"product":{"id":"p1","slug":"s","name":"W"}}`))

	svc := newTestService(t, mock)

	if _, err := svc.ProductBySlug(context.Background(), nil, "s"); err != nil {
		t.Fatalf("ProductBySlug failed: %v", err)
	}

	stats := svc.CacheStats()
	if stats.Sets != 1 {
		t.Errorf("Sets = %d, want 1", stats.Sets)
	}
	if status := svc.BreakerStatus(); status.State != breaker.StateClosed {
		t.Errorf("breaker state = %s, want %s", status.State, breaker.StateClosed)
	}
}

func TestRequestContextCookiesReachUpstream(t *testing.T) {
	mock := testutil.NewMockGraphQL()
	defer mock.Close()
	mock.SetResponse("GetProduct", testutil.NewDataResponse(`{"product":{"id":"p1","slug":"s","name":"W"}}`))

	svc := newTestService(t, mock)

	rc := client.NewRequestContext()
	rc.Cookies = map[string]string{"sf_session": "abc", "tracking_id": "nope"}

	if _, err := svc.ProductBySlug(context.Background(), rc, "s"); err != nil {
		t.Fatalf("ProductBySlug failed: %v", err)
	}

	forwarded := map[string]string{}
	for _, c := range mock.LastCookies {
		forwarded[c.Name] = c.Value
	}
	if forwarded["sf_session"] != "abc" {
		t.Errorf("sf_session = %q, want %q", forwarded["sf_session"], "abc")
	}
	if _, ok := forwarded["tracking_id"]; ok {
		t.Error("tracking_id must not be forwarded upstream")
	}
}
