// The storefront-gateway binary exposes the cached GraphQL access layer
// over HTTP for server-rendered storefront pages. Each inbound request
// gets its own request context (trace id, locale, cookies); the cache
// and circuit breaker are shared process-wide.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/commercekit/storefront-graphql-client/pkg/apierrors"
	"github.com/commercekit/storefront-graphql-client/pkg/breaker"
	"github.com/commercekit/storefront-graphql-client/pkg/cache"
	"github.com/commercekit/storefront-graphql-client/pkg/client"
	"github.com/commercekit/storefront-graphql-client/pkg/logging"
	"github.com/commercekit/storefront-graphql-client/pkg/storefront"
)

type config struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	GraphQLEndpoint string        `env:"GRAPHQL_ENDPOINT,required"`
	BearerToken     string        `env:"GRAPHQL_BEARER_TOKEN"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	MaxRetries      int           `env:"MAX_RETRIES" envDefault:"2"`

	CacheMaxEntries int           `env:"CACHE_MAX_ENTRIES" envDefault:"10000"`
	CacheTTL        time.Duration `env:"CACHE_TTL" envDefault:"5m"`

	BreakerFailureThreshold uint32        `env:"BREAKER_FAILURE_THRESHOLD" envDefault:"5"`
	BreakerResetTimeout     time.Duration `env:"BREAKER_RESET_TIMEOUT" envDefault:"30s"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`
}

func main() {
	cfg, err := env.ParseAs[config]()
	if err != nil {
		logger := logging.Setup(logging.DefaultConfig())
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})

	clientCfg := client.DefaultConfig(cfg.GraphQLEndpoint, cfg.BearerToken)
	clientCfg.RequestTimeout = cfg.RequestTimeout
	clientCfg.MaxRetries = cfg.MaxRetries

	store := cache.New[json.RawMessage](cfg.CacheMaxEntries, cfg.CacheTTL)
	br := breaker.New[json.RawMessage]("storefront-upstream", breaker.Config{
		FailureThreshold: cfg.BreakerFailureThreshold,
		ResetTimeout:     cfg.BreakerResetTimeout,
	}, logging.NewLogger("breaker"))

	svc, err := storefront.New(clientCfg, store, br, storefront.DefaultTTLConfig())
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create storefront service")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", healthHandler(svc))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /products/{slug}", productHandler(svc))
	mux.HandleFunc("GET /categories/{id}", categoryHandler(svc))
	mux.HandleFunc("GET /collections/{id}", collectionHandler(svc))
	mux.HandleFunc("GET /search", searchHandler(svc))
	mux.HandleFunc("GET /navigation", navigationHandler(svc))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("Starting storefront gateway")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Shutdown did not complete cleanly")
	}
}

// requestContextFrom builds the per-request pipeline context from the
// inbound HTTP request.
func requestContextFrom(r *http.Request) *client.RequestContext {
	rc := client.NewRequestContext()
	if trace := r.Header.Get("X-Trace-Id"); trace != "" {
		rc.TraceID = trace
	}
	if locale := r.Header.Get("Accept-Language"); locale != "" {
		rc.Locale = locale
	}
	if currency := r.Header.Get("X-Storefront-Currency"); currency != "" {
		rc.Currency = currency
	}
	rc.UserAgent = r.UserAgent()
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		rc.IP = host
	}
	rc.CookieHeader = r.Header.Get("Cookie")
	for _, c := range r.Cookies() {
		rc.Cookies[c.Name] = c.Value
	}
	return rc
}

type healthResponse struct {
	Status  string         `json:"status"`
	Breaker breaker.Status `json:"breaker"`
	Cache   cache.Stats    `json:"cache"`
}

func healthHandler(svc *storefront.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{
			Status:  "ok",
			Breaker: svc.BreakerStatus(),
			Cache:   svc.CacheStats(),
		}
		status := http.StatusOK
		if resp.Breaker.State == breaker.StateOpen {
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}

func productHandler(svc *storefront.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc := requestContextFrom(r)
		product, err := svc.ProductBySlug(r.Context(), rc, r.PathValue("slug"))
		if err != nil {
			writeError(w, rc, err)
			return
		}
		applyResponseCookies(w, rc)
		writeJSON(w, http.StatusOK, product)
	}
}

func categoryHandler(svc *storefront.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc := requestContextFrom(r)
		category, err := svc.CategoryByID(r.Context(), rc, r.PathValue("id"))
		if err != nil {
			writeError(w, rc, err)
			return
		}
		applyResponseCookies(w, rc)
		writeJSON(w, http.StatusOK, category)
	}
}

func collectionHandler(svc *storefront.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc := requestContextFrom(r)
		collection, err := svc.CollectionByID(r.Context(), rc, r.PathValue("id"))
		if err != nil {
			writeError(w, rc, err)
			return
		}
		applyResponseCookies(w, rc)
		writeJSON(w, http.StatusOK, collection)
	}
}

func searchHandler(svc *storefront.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc := requestContextFrom(r)
		q := r.URL.Query()

		params := storefront.SearchParams{Query: q.Get("q")}
		if page, err := strconv.Atoi(q.Get("page")); err == nil {
			params.Page = page
		}
		if size, err := strconv.Atoi(q.Get("pageSize")); err == nil {
			params.PageSize = size
		}

		result, err := svc.Search(r.Context(), rc, params)
		if err != nil {
			writeError(w, rc, err)
			return
		}
		applyResponseCookies(w, rc)
		writeJSON(w, http.StatusOK, result)
	}
}

func navigationHandler(svc *storefront.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc := requestContextFrom(r)
		nav, err := svc.Navigation(r.Context(), rc)
		if err != nil {
			writeError(w, rc, err)
			return
		}
		applyResponseCookies(w, rc)
		writeJSON(w, http.StatusOK, nav)
	}
}

// applyResponseCookies forwards Set-Cookie values collected from the
// upstream onto the outbound response.
func applyResponseCookies(w http.ResponseWriter, rc *client.RequestContext) {
	for _, c := range rc.ResponseCookies() {
		http.SetCookie(w, c)
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	TraceID string `json:"trace_id,omitempty"`
}

func writeError(w http.ResponseWriter, rc *client.RequestContext, err error) {
	ce := apierrors.Ensure(err, rc.TraceID)
	status := ce.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, map[string]errorBody{"error": {
		Code:    ce.Code,
		Message: ce.Message,
		TraceID: ce.TraceID,
	}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
