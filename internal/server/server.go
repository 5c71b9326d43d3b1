package server

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lazypower/rapport/internal/config"
	"github.com/lazypower/rapport/internal/engine"
	"github.com/lazypower/rapport/internal/store"
)

// maxBodyBytes bounds an analyze request. Exports of large networks run to
// tens of megabytes of CSV.
const maxBodyBytes = 64 << 20

// Server is the rapport HTTP API server.
type Server struct {
	db       *store.DB
	analyzer *engine.Analyzer
	cfg      config.ServerConfig
	router   chi.Router
	metrics  *metrics
	version  string
	started  time.Time
}

// New creates a new Server. db may be nil, in which case the report archive
// routes answer 503 and analyze requests cannot be saved.
func New(db *store.DB, analyzer *engine.Analyzer, cfg config.ServerConfig, version string) *Server {
	s := &Server{
		db:       db,
		analyzer: analyzer,
		cfg:      cfg,
		metrics:  newMetrics(),
		version:  version,
		started:  time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(s.metrics.instrument)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/analyze", s.handleAnalyze)

		r.Get("/reports", s.handleListReports)
		r.Get("/reports/{reportID}", s.handleGetReport)
		r.Get("/reports/{reportID}/targets", s.handleReportTargets)
		r.Delete("/reports/{reportID}", s.handleDeleteReport)
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := false
	dbPath := ""
	var archive *store.ArchiveStats
	if s.db != nil {
		dbPath = s.db.Path
		if st, err := s.db.Stats(); err == nil {
			dbOK = true
			archive = &st
		} else {
			log.Printf("server: archive stats: %v", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": dbPath,
		"archive": archive,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
