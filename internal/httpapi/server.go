// Package httpapi exposes the ad generation service over HTTP: the
// generate and feedback endpoints, insight queries, service counters,
// Prometheus metrics, and a websocket stream of feedback events.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/anvramos/adforge/internal/cache"
	"github.com/anvramos/adforge/internal/config"
	"github.com/anvramos/adforge/internal/feedback"
	"github.com/anvramos/adforge/internal/generation"
	"github.com/anvramos/adforge/internal/memory"
	"github.com/anvramos/adforge/internal/model"
	"github.com/anvramos/adforge/internal/observability"
)

// Orchestrator runs the ad generation pipeline for one request.
type Orchestrator interface {
	Generate(ctx context.Context, req model.AdRequest) (generation.Result, error)
}

type Server struct {
	cfg          config.Config
	orchestrator Orchestrator
	aggregator   *feedback.Aggregator
	store        *memory.Store
	results      *cache.Cache
	metrics      *observability.Metrics

	startedAt     time.Time
	totalRequests atomic.Int64
	upgrader      websocket.Upgrader
}

func New(cfg config.Config, orchestrator Orchestrator, aggregator *feedback.Aggregator, store *memory.Store, results *cache.Cache, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:          cfg,
		orchestrator: orchestrator,
		aggregator:   aggregator,
		store:        store,
		results:      results,
		metrics:      metrics,
		startedAt:    time.Now(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Default: only allow browser websocket connections from
				// the same origin.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	if s.cfg.ThrottleLimit > 0 {
		r.Use(middleware.Throttle(s.cfg.ThrottleLimit))
	}

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/ads/generate", s.handleGenerate)
	r.Get("/v1/platforms", s.handleListPlatforms)
	r.Post("/v1/feedback", s.handleRecordFeedback)
	r.Get("/v1/feedback/ws", s.handleFeedbackWS)
	r.Get("/v1/insights/{request_id}", s.handleInsights)
	r.Get("/v1/top-performers", s.handleTopPerformers)
	r.Get("/v1/stats", s.handleStats)
	r.Get("/v1/perf", s.handlePerf)

	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"service": "adforge",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":         "GET /healthz",
			"metrics":        "GET /metrics",
			"stats":          "GET /v1/stats",
			"platforms":      "GET /v1/platforms",
			"generate":       "POST /v1/ads/generate",
			"feedback":       "POST /v1/feedback",
			"feedback_ws":    "GET /v1/feedback/ws",
			"insights":       "GET /v1/insights/{request_id}",
			"top_performers": "GET /v1/top-performers",
		},
		"usage": map[string]string{
			"generate_ads":    `POST /v1/ads/generate with {"ad_text": "your ad", "tone": "friendly|professional", "platforms": ["facebook", "instagram"]}`,
			"submit_feedback": `POST /v1/feedback with {"request_id": "uuid", "platform": "facebook", "engagement_rate": 0.05, "click_through_rate": 0.02}`,
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":         "ready",
		"generator_mode": s.cfg.GeneratorMode,
		"embed_provider": s.cfg.EmbedProvider,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"memory_entries":   s.store.Size(),
		"cache_entries":    s.results.Size(),
		"feedback_entries": s.aggregator.Count(),
		"total_requests":   s.totalRequests.Load(),
		"uptime":           time.Since(s.startedAt).Round(time.Second).String(),
	})
}

func (s *Server) handlePerf(w http.ResponseWriter, _ *http.Request) {
	if s.metrics == nil {
		respondJSON(w, http.StatusOK, map[string]any{
			"generated_at": "",
			"window_size":  0,
			"stages":       []any{},
		})
		return
	}
	respondJSON(w, http.StatusOK, s.metrics.SnapshotStages())
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
