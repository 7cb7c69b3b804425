// Package http is the JSON API surface. Routing uses the standard mux with
// method patterns; cross-cutting concerns (tracing, rate limiting, security
// headers) wrap the whole mux.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"stocktracker/internal/core"
	"stocktracker/internal/middleware/ratelimit"
	"stocktracker/internal/middleware/security"
	"stocktracker/internal/middleware/trace"
	"stocktracker/internal/services"
)

// FinancialReader is the series/record surface the handlers need.
type FinancialReader interface {
	GetSeries(ctx context.Context, symbol string, periodType core.PeriodType, limit int, metricFilter []string) ([]services.PeriodItem, error)
	Upsert(ctx context.Context, record core.FinancialRecord, overwrite bool) (core.FinancialRecord, error)
	Delete(ctx context.Context, symbol string, periodType core.PeriodType, periodISO string) error
}

// MetricCatalog is the catalog surface the handlers need.
type MetricCatalog interface {
	List(ctx context.Context, section core.Section) ([]core.MetricDefinition, error)
	Get(ctx context.Context, key string) (core.MetricDefinition, error)
	Create(ctx context.Context, def core.MetricDefinition) (core.MetricDefinition, error)
	Update(ctx context.Context, def core.MetricDefinition) (core.MetricDefinition, error)
	Delete(ctx context.Context, key string) error
	Reorder(ctx context.Context, entries []services.ReorderEntry) (services.ReorderResult, error)
	EffectiveCatalog(ctx context.Context, symbol string) ([]core.MetricDefinition, error)
	CategoryDefaults(ctx context.Context, category string) ([]core.MetricDefinition, error)
	SetCategoryDefaults(ctx context.Context, category string, defs []core.MetricDefinition) error
	DeleteCategoryDefaults(ctx context.Context, category string) error
}

// Comparator aligns one metric across entities.
type Comparator interface {
	Compare(ctx context.Context, symbols []string, metricKey string, periodType core.PeriodType, limit int) (services.Comparison, error)
}

// CompanyRegistry is the company surface the handlers need.
type CompanyRegistry interface {
	List(ctx context.Context, query string, limit int) ([]core.Company, error)
	Get(ctx context.Context, symbol string) (core.Company, error)
	Create(ctx context.Context, company core.Company) (core.Company, error)
	Update(ctx context.Context, company core.Company) (core.Company, error)
	Delete(ctx context.Context, symbol string) error
	RequestSync(ctx context.Context, symbol string) error
}

// Pinger reports storage liveness for readiness checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	httpServer *http.Server
	limiter    *ratelimit.Limiter

	financials FinancialReader
	metrics    MetricCatalog
	comparator Comparator
	companies  CompanyRegistry
	storage    Pinger
}

func NewServer(addr string, financials FinancialReader, metrics MetricCatalog, comparator Comparator, companies CompanyRegistry, storage Pinger) *Server {
	s := &Server{
		limiter:    ratelimit.NewLimiter(120),
		financials: financials,
		metrics:    metrics,
		comparator: comparator,
		companies:  companies,
		storage:    storage,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/financials/{symbol}", s.handleGetSeries)
	mux.HandleFunc("POST /api/financials/{symbol}", s.handleUpsertRecord)
	mux.HandleFunc("DELETE /api/financials/{symbol}", s.handleDeleteRecord)

	mux.HandleFunc("GET /api/metrics", s.handleListMetrics)
	mux.HandleFunc("POST /api/metrics", s.handleCreateMetric)
	mux.HandleFunc("POST /api/metrics/reorder", s.handleReorderMetrics)
	mux.HandleFunc("GET /api/metrics/effective/{symbol}", s.handleEffectiveCatalog)
	mux.HandleFunc("GET /api/metrics/{key}", s.handleGetMetric)
	mux.HandleFunc("PUT /api/metrics/{key}", s.handleUpdateMetric)
	mux.HandleFunc("DELETE /api/metrics/{key}", s.handleDeleteMetric)

	mux.HandleFunc("GET /api/category-metrics/{category}", s.handleGetCategoryDefaults)
	mux.HandleFunc("PUT /api/category-metrics/{category}", s.handleSetCategoryDefaults)
	mux.HandleFunc("DELETE /api/category-metrics/{category}", s.handleDeleteCategoryDefaults)

	mux.HandleFunc("GET /api/compare", s.handleCompare)

	mux.HandleFunc("GET /api/companies", s.handleListCompanies)
	mux.HandleFunc("POST /api/companies", s.handleCreateCompany)
	mux.HandleFunc("GET /api/companies/{symbol}", s.handleGetCompany)
	mux.HandleFunc("PUT /api/companies/{symbol}", s.handleUpdateCompany)
	mux.HandleFunc("DELETE /api/companies/{symbol}", s.handleDeleteCompany)

	mux.HandleFunc("POST /api/sync/company", s.handleSyncCompany)

	tracer := trace.NewMiddleware()
	handler := tracer.Handler(
		s.limiter.Middleware(
			security.Headers(security.DefaultHeadersConfig())(mux)))

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) ListenAndServe() error {
	slog.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.storage != nil {
		if err := s.storage.Ping(ctx); err != nil {
			slog.WarnContext(ctx, "Readiness check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("storage unavailable"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
