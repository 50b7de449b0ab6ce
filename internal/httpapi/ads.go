package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/anvramos/adforge/internal/generation"
	"github.com/anvramos/adforge/internal/knowledge"
	"github.com/anvramos/adforge/internal/model"
)

type generateResponse struct {
	RequestID    string                           `json:"request_id"`
	RewrittenAds map[string]string                `json:"rewritten_ads"`
	AdVariants   map[string][]model.ScoredVariant `json:"ad_variants"`
	Failures     map[string]string                `json:"failures,omitempty"`
	Cached       bool                             `json:"cached"`
	Timestamp    time.Time                        `json:"timestamp"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req model.AdRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	s.totalRequests.Add(1)

	res, err := s.orchestrator.Generate(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, generation.ErrValidation):
			respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		case errors.Is(err, generation.ErrGenerationFailed):
			respondError(w, http.StatusBadGateway, "generation_failed", err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
		}
		return
	}

	rec := res.Record
	rewritten := make(map[string]string, len(rec.Results))
	variants := make(map[string][]model.ScoredVariant, len(rec.Results))
	for _, pr := range rec.Results {
		rewritten[pr.Platform] = pr.Best().Text
		variants[pr.Platform] = pr.Variants
	}

	respondJSON(w, http.StatusOK, generateResponse{
		RequestID:    rec.RequestID,
		RewrittenAds: rewritten,
		AdVariants:   variants,
		Failures:     rec.Failures,
		Cached:       res.Cached,
		Timestamp:    rec.CreatedAt,
	})
}

func (s *Server) handleListPlatforms(w http.ResponseWriter, _ *http.Request) {
	names := knowledge.Platforms()
	platforms := make([]map[string]any, 0, len(names))
	for _, p := range names {
		platforms = append(platforms, map[string]any{
			"platform":  p,
			"guideline": knowledge.PlatformGuideline(p),
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"platforms": platforms,
		"tones":     knowledge.Tones(),
	})
}
