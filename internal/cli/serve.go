package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/anvramos/adforge/internal/cache"
	"github.com/anvramos/adforge/internal/config"
	"github.com/anvramos/adforge/internal/feedback"
	"github.com/anvramos/adforge/internal/generation"
	"github.com/anvramos/adforge/internal/httpapi"
	"github.com/anvramos/adforge/internal/memory"
	"github.com/anvramos/adforge/internal/observability"
	"github.com/anvramos/adforge/internal/openrouter"
	"github.com/anvramos/adforge/internal/retrieval"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP service",
		RunE:  runServe,
	}
	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	generator, err := openrouter.NewGenerator(openrouter.Config{
		Mode:    cfg.GeneratorMode,
		BaseURL: cfg.OpenRouterBaseURL,
		APIKey:  cfg.OpenRouterAPIKey,
		Model:   cfg.OpenRouterModel,
		Timeout: cfg.GeneratorTimeout,
	})
	if err != nil {
		return fmt.Errorf("generator init failed: %w", err)
	}
	if _, ok := generator.(*openrouter.Client); ok {
		log.Printf("generator: openrouter (%s)", cfg.OpenRouterModel)
	} else {
		log.Printf("generator: mock")
	}

	embedder, err := retrieval.NewEmbedder(cfg.EmbedProvider, cfg.EmbedBaseURL, cfg.OpenAIAPIKey, cfg.EmbedModel)
	if err != nil {
		return fmt.Errorf("embedder init failed: %w", err)
	}
	index := retrieval.NewIndex(embedder)
	if err := index.Add(cmd.Context(), retrieval.DefaultExamples()...); err != nil {
		// Generation degrades to prompts without context ads.
		log.Printf("seeding example index failed: %v", err)
	}

	results := cache.New(cfg.CacheTTL, cfg.CacheMaxEntries)
	store := memory.New(cfg.MemoryCapacity)

	orchestrator := generation.New(generation.Config{
		Cache:        results,
		Store:        store,
		Retriever:    index,
		Generator:    generator,
		Metrics:      metrics,
		CacheTTL:     cfg.CacheTTL,
		ExampleCount: cfg.RetrievalExamples,
	})
	aggregator := feedback.New(store)

	api := httpapi.New(cfg, orchestrator, aggregator, store, results, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	results.StartJanitor(runCtx, time.Minute)

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
	return nil
}
