// Package openrouter bridges ad generation to an OpenRouter-compatible
// chat-completions endpoint, with a deterministic mock for offline use.
package openrouter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anvramos/adforge/internal/model"
)

// ErrTransient marks generator failures that may succeed on a later
// attempt (timeouts, throttling, upstream 5xx).
var ErrTransient = errors.New("transient generator failure")

// Request is the normalized variant-generation request.
type Request struct {
	System     string `json:"system"`
	Prompt     string `json:"prompt"`
	Creativity string `json:"creativity"`
	Platform   string `json:"platform"`
	Tone       string `json:"tone"`
	SourceText string `json:"source_text"`
}

// Generator produces one ad variant text per call.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Config controls generator construction.
type Config struct {
	Mode    string
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// NewGenerator builds a generator for the configured mode. Mode "auto"
// picks the HTTP client when an API key is present and the mock
// otherwise.
func NewGenerator(cfg Config) (Generator, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.APIKey) != "" {
			return NewClient(cfg), nil
		}
		return NewMock(), nil
	case "openrouter":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, errors.New("openrouter API key is required for openrouter mode")
		}
		return NewClient(cfg), nil
	case "mock":
		return NewMock(), nil
	default:
		return nil, fmt.Errorf("unsupported generator mode %q", cfg.Mode)
	}
}

// Temperature maps a creativity level to its sampling temperature.
func Temperature(level string) float64 {
	switch level {
	case model.CreativityLow:
		return 0.6
	case model.CreativityHigh:
		return 1.0
	default:
		return 0.8
	}
}
