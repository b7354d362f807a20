package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mhalme/vigil-platform/internal/activity"
	"github.com/mhalme/vigil-platform/internal/analysis"
	"github.com/mhalme/vigil-platform/internal/anomaly"
	"github.com/mhalme/vigil-platform/pkg/config"
	"github.com/mhalme/vigil-platform/pkg/household"
	"github.com/mhalme/vigil-platform/pkg/redis"
)

const defaultSimilarLimit = 5

// Server is the dashboard-facing HTTP API. Authentication lives in the
// gateway in front of it.
type Server struct {
	store    *activity.Storage
	runner   *analysis.Runner
	registry *household.Registry
	redis    redis.Client
	cfg      *config.Config
	logger   *slog.Logger
}

// NewServer creates the API server.
func NewServer(store *activity.Storage, redisClient redis.Client, registry *household.Registry, cfg *config.Config, logger *slog.Logger) *Server {
	return &Server{
		store:    store,
		runner:   analysis.NewRunner(store, registry, cfg),
		registry: registry,
		redis:    redisClient,
		cfg:      cfg,
		logger:   logger,
	}
}

// Router builds the chi router with all dashboard routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/households", s.handleListHouseholds)
		r.Get("/features", s.handleFeatureCatalog)
		r.Route("/households/{householdID}", func(r chi.Router) {
			r.Get("/analysis", s.handleAnalysis)
			r.Get("/similar-days", s.handleSimilarDays)
		})
	})
	return r
}

// ListenAndServe runs the API on the configured port until the context is
// cancelled, then drains in-flight requests before returning.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.APIPort)
	srv := &http.Server{Addr: addr, Handler: s.Router()}

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info("Dashboard API listening", "addr", addr)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
		s.logger.Info("Dashboard API shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *Server) handleListHouseholds(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, s.registry.All())
}

// handleFeatureCatalog serves the read-only feature catalog so the
// dashboard can label and group score rows without duplicating metadata.
func (s *Server) handleFeatureCatalog(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, anomaly.Catalog())
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	householdID := chi.URLParam(r, "householdID")
	if _, ok := s.registry.Get(householdID); !ok {
		s.respondError(w, http.StatusNotFound, "unknown household")
		return
	}

	date, err := parseDateParam(r.URL.Query().Get("date"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Serve the analysis agent's cached report when one is fresh; recompute
	// on a cache miss so the dashboard never sees an empty panel.
	cacheKey := redis.AnalysisReportKey(householdID, anomaly.LocalDateKey(date))
	if cached, err := s.redis.Get(r.Context(), cacheKey); err == nil {
		var report anomaly.Report
		if err := json.Unmarshal([]byte(cached), &report); err == nil {
			s.respond(w, http.StatusOK, &report)
			return
		}
		s.logger.Warn("Discarding unreadable cached report", "key", cacheKey)
	} else if !errors.Is(err, redis.ErrNotFound) {
		s.logger.Warn("Report cache unavailable", "key", cacheKey, "error", err)
	}

	report, err := s.runner.Run(r.Context(), householdID, date)
	if err != nil {
		s.logger.Error("Analysis failed", "household", householdID, "error", err)
		s.respondError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	if payload, err := json.Marshal(report); err == nil {
		if err := s.redis.Set(r.Context(), cacheKey, payload, s.cfg.ReportTTL()); err != nil {
			s.logger.Warn("Failed to cache report", "key", cacheKey, "error", err)
		}
	}

	s.respond(w, http.StatusOK, report)
}

func (s *Server) handleSimilarDays(w http.ResponseWriter, r *http.Request) {
	householdID := chi.URLParam(r, "householdID")
	if _, ok := s.registry.Get(householdID); !ok {
		s.respondError(w, http.StatusNotFound, "unknown household")
		return
	}

	date, err := parseDateParam(r.URL.Query().Get("date"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := defaultSimilarLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 50 {
			s.respondError(w, http.StatusBadRequest, "limit must be an integer between 1 and 50")
			return
		}
		limit = parsed
	}

	days, err := s.store.SimilarDays(r.Context(), householdID, date, limit)
	if err != nil {
		s.logger.Error("Similar-days lookup failed", "household", householdID, "error", err)
		s.respondError(w, http.StatusInternalServerError, "similar-days lookup failed")
		return
	}
	if days == nil {
		days = []activity.SimilarDay{}
	}
	s.respond(w, http.StatusOK, days)
}

func parseDateParam(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now(), nil
	}
	date, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD")
	}
	return date, nil
}

func (s *Server) respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to encode response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respond(w, status, map[string]string{"error": message})
}
