package server

import (
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sales-dashboard/internal/handlers"
	"sales-dashboard/internal/services"
)

// Options carries the handler wiring that is not the store itself.
type Options struct {
	// Dashboard serves GET / — the static index.html when a frontend build
	// exists, the built-in fallback page otherwise.
	Dashboard      http.HandlerFunc
	StaticDir      string
	MaxUploadBytes int64
}

type Server struct {
	store  *services.Store
	mux    *http.ServeMux
	logger *slog.Logger
	api    *handlers.APIHandlers
	upload *handlers.UploadHandlers
	sse    *handlers.SSEHandlers
}

func NewServer(store *services.Store, logger *slog.Logger, opts Options) *Server {
	s := &Server{
		store:  store,
		mux:    http.NewServeMux(),
		logger: logger,
		api:    handlers.NewAPIHandlers(store, logger),
		upload: handlers.NewUploadHandlers(store, logger, opts.MaxUploadBytes),
		sse:    handlers.NewSSEHandlers(store, logger),
	}
	s.setupRoutes(opts)
	return s
}

func (s *Server) setupRoutes(opts Options) {
	// Frontend
	s.mux.HandleFunc("GET /{$}", opts.Dashboard)
	s.mux.Handle("GET /static/",
		http.StripPrefix("/static/", http.FileServer(http.Dir(filepath.Join(opts.StaticDir, "static")))))

	// REST API
	s.mux.HandleFunc("GET /api/health", s.api.HandleHealth)
	s.mux.HandleFunc("GET /api/kpi", s.api.HandleKPI)
	s.mux.HandleFunc("GET /api/revenue-by-region", s.api.HandleRevenueByRegion)
	s.mux.HandleFunc("GET /api/revenue-by-channel", s.api.HandleRevenueByChannel)
	s.mux.HandleFunc("GET /api/daily-trends", s.api.HandleDailyTrends)
	s.mux.HandleFunc("GET /api/monthly-trends", s.api.HandleMonthlyTrends)
	s.mux.HandleFunc("GET /api/price-distribution", s.api.HandlePriceDistribution)
	s.mux.HandleFunc("GET /api/filter-options", s.api.HandleFilterOptions)
	s.mux.HandleFunc("GET /api/data", s.api.HandleData)
	s.mux.HandleFunc("POST /api/analytics/filtered", s.api.HandleFilteredAnalytics)
	s.mux.HandleFunc("POST /api/upload", s.upload.HandleUpload)

	// Datastar SSE endpoints for the fallback dashboard
	s.mux.HandleFunc("GET /sse/kpi", s.sse.HandleKPI)
	s.mux.HandleFunc("GET /sse/regions", s.sse.HandleRegions)
	s.mux.HandleFunc("GET /sse/trends", s.sse.HandleTrends)
	s.mux.HandleFunc("GET /sse/refresh-all", s.sse.HandleRefreshAll)

	// Operations
	s.mux.HandleFunc("GET /admin/stats", s.api.HandleStats)
	s.mux.Handle("GET /metrics", promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
