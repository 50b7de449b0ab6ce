// Package generation orchestrates the ad rewrite pipeline: request
// validation, cache replay, concurrent per-platform variant
// generation, scoring, ranking, and record bookkeeping.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/anvramos/adforge/internal/cache"
	"github.com/anvramos/adforge/internal/knowledge"
	"github.com/anvramos/adforge/internal/memory"
	"github.com/anvramos/adforge/internal/model"
	"github.com/anvramos/adforge/internal/observability"
	"github.com/anvramos/adforge/internal/openrouter"
	"github.com/anvramos/adforge/internal/scoring"
)

var (
	// ErrValidation marks malformed requests.
	ErrValidation = errors.New("invalid request")
	// ErrGenerationFailed is returned when every requested platform
	// failed to produce variants.
	ErrGenerationFailed = errors.New("generation failed")
)

// Retriever supplies reference ads similar to the query text.
type Retriever interface {
	Similar(ctx context.Context, query string, k int) ([]string, error)
}

// Config wires the orchestrator's collaborators.
type Config struct {
	Cache     *cache.Cache
	Store     *memory.Store
	Retriever Retriever
	Generator openrouter.Generator
	Metrics   *observability.Metrics

	CacheTTL     time.Duration
	ExampleCount int
}

// Result is the outcome of one generate call.
type Result struct {
	Record model.GenerationRecord
	Cached bool
}

// Orchestrator runs the generation pipeline.
type Orchestrator struct {
	cache        *cache.Cache
	store        *memory.Store
	retriever    Retriever
	generator    openrouter.Generator
	metrics      *observability.Metrics
	cacheTTL     time.Duration
	exampleCount int
}

func New(cfg Config) *Orchestrator {
	exampleCount := cfg.ExampleCount
	if exampleCount < 0 {
		exampleCount = 0
	}
	return &Orchestrator{
		cache:        cfg.Cache,
		store:        cfg.Store,
		retriever:    cfg.Retriever,
		generator:    cfg.Generator,
		metrics:      cfg.Metrics,
		cacheTTL:     cfg.CacheTTL,
		exampleCount: exampleCount,
	}
}

// Generate produces ranked ad variants for every requested platform.
// Identical requests within the cache TTL replay the original record.
// A single platform's failure never aborts its siblings; the request
// fails only when every platform fails.
func (o *Orchestrator) Generate(ctx context.Context, req model.AdRequest) (Result, error) {
	normalized, err := normalizeRequest(req)
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	outcome := "failed"
	defer func() {
		o.metrics.ObserveGenerate(outcome, time.Since(start))
	}()

	fingerprint := Fingerprint(normalized)
	if record, ok := o.cache.Get(fingerprint); ok {
		o.metrics.CacheLookup(true)
		outcome = "cached"
		return Result{Record: record, Cached: true}, nil
	}
	o.metrics.CacheLookup(false)

	// Context examples are best effort: generation proceeds without
	// them when the retriever fails.
	retrievalStart := time.Now()
	examples, err := o.retriever.Similar(ctx, normalized.Text, o.exampleCount)
	if err != nil {
		examples = nil
		o.metrics.ObserveIndicator("retrieval_failure")
	}
	o.metrics.ObserveStage("retrieval", time.Since(retrievalStart))

	record := model.GenerationRecord{
		RequestID: uuid.NewString(),
		Request:   normalized,
		CreatedAt: time.Now().UTC(),
	}

	results := make([]*model.PlatformResult, len(normalized.Platforms))
	failures := make([]error, len(normalized.Platforms))

	// Plain group, no shared cancellation: each unit records its own
	// result or failure and reports success to the barrier.
	var group errgroup.Group
	for i, platform := range normalized.Platforms {
		group.Go(func() error {
			res, err := o.processPlatform(ctx, normalized, platform, examples)
			if err != nil {
				failures[i] = err
				return nil
			}
			results[i] = &res
			return nil
		})
	}
	group.Wait()

	for i, platform := range normalized.Platforms {
		if results[i] != nil {
			record.Results = append(record.Results, *results[i])
			continue
		}
		if record.Failures == nil {
			record.Failures = make(map[string]string)
		}
		record.Failures[platform] = failures[i].Error()
		o.metrics.PlatformFailure(platform)
	}

	if len(record.Results) == 0 {
		return Result{}, fmt.Errorf("%w: %v", ErrGenerationFailed, errors.Join(failures...))
	}

	o.store.Append(record)
	o.metrics.SetMemoryEntries(o.store.Size())
	if len(record.Failures) == 0 {
		o.cache.Put(fingerprint, record, o.cacheTTL)
		o.metrics.SetCacheEntries(o.cache.Size())
		outcome = "success"
	} else {
		outcome = "partial"
	}
	return Result{Record: record}, nil
}

func (o *Orchestrator) processPlatform(ctx context.Context, req model.AdRequest, platform string, examples []string) (model.PlatformResult, error) {
	guide := knowledge.Lookup(platform, req.Tone)
	levels := []string{model.CreativityLow, model.CreativityMedium, model.CreativityHigh}

	generationStart := time.Now()
	variants := make([]model.Variant, 0, len(levels))
	for i, level := range levels {
		text, err := o.generator.Generate(ctx, openrouter.Request{
			System:     systemPrompt,
			Prompt:     buildPrompt(req, platform, guide, examples, i),
			Creativity: level,
			Platform:   platform,
			Tone:       req.Tone,
			SourceText: req.Text,
		})
		if err != nil {
			return model.PlatformResult{}, fmt.Errorf("variant %d for %s: %w", i+1, platform, err)
		}
		variants = append(variants, model.Variant{
			Text:            text,
			GenerationIndex: i,
			CreativityLevel: level,
		})
	}
	o.metrics.ObserveStage("generation", time.Since(generationStart))

	scoringStart := time.Now()
	scored := make([]model.ScoredVariant, 0, len(variants))
	for _, v := range variants {
		scored = append(scored, model.ScoredVariant{
			Variant: v,
			Score:   scoring.Score(v.Text, platform, req.Tone),
		})
	}
	ranked := scoring.Rank(scored)
	o.metrics.ObserveStage("scoring", time.Since(scoringStart))

	return model.PlatformResult{Platform: platform, Variants: ranked}, nil
}

func normalizeRequest(req model.AdRequest) (model.AdRequest, error) {
	if len(req.Platforms) == 0 {
		return model.AdRequest{}, fmt.Errorf("%w: at least one platform is required", ErrValidation)
	}

	platforms := make([]string, 0, len(req.Platforms))
	seen := make(map[string]bool, len(req.Platforms))
	var invalid []string
	for _, p := range req.Platforms {
		p = knowledge.Normalize(p)
		if !knowledge.ValidPlatform(p) {
			invalid = append(invalid, p)
			continue
		}
		if !seen[p] {
			platforms = append(platforms, p)
			seen[p] = true
		}
	}
	if len(invalid) > 0 {
		return model.AdRequest{}, fmt.Errorf("%w: invalid platforms %v, valid platforms are %s",
			ErrValidation, invalid, strings.Join(knowledge.Platforms(), ", "))
	}

	tone := knowledge.Normalize(req.Tone)
	if !knowledge.ValidTone(tone) {
		return model.AdRequest{}, fmt.Errorf("%w: invalid tone %q, valid tones are %s",
			ErrValidation, req.Tone, strings.Join(knowledge.Tones(), ", "))
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return model.AdRequest{}, fmt.Errorf("%w: ad text cannot be empty", ErrValidation)
	}

	return model.AdRequest{Text: text, Tone: tone, Platforms: platforms}, nil
}
