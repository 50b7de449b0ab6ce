// Package config loads runtime settings from an optional YAML file and
// the environment. Environment variables always win over file values.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config contains all runtime settings for the ad generation service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string
	ThrottleLimit    int
	AllowAnyOrigin   bool

	CacheTTL          time.Duration
	CacheMaxEntries   int
	MemoryCapacity    int
	RetrievalExamples int

	GeneratorMode     string
	GeneratorTimeout  time.Duration
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	OpenRouterModel   string

	EmbedProvider string
	EmbedBaseURL  string
	EmbedModel    string
	OpenAIAPIKey  string
}

// Load applies defaults, then the YAML file named by APP_CONFIG_FILE
// (if set), then environment variables.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:          ":8080",
		ShutdownTimeout:   15 * time.Second,
		MetricsNamespace:  "adforge",
		ThrottleLimit:     60,
		CacheTTL:          5 * time.Minute,
		CacheMaxEntries:   100,
		MemoryCapacity:    1000,
		RetrievalExamples: 2,
		GeneratorMode:     "auto",
		GeneratorTimeout:  30 * time.Second,
		OpenRouterBaseURL: "https://openrouter.ai/api/v1",
		OpenRouterModel:   "anthropic/claude-3.5-sonnet",
		EmbedProvider:     "local",
	}

	if path := envTrimmed("APP_CONFIG_FILE"); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	cfg.BindAddr = envOrDefault("APP_BIND_ADDR", cfg.BindAddr)
	cfg.MetricsNamespace = envOrDefault("APP_METRICS_NAMESPACE", cfg.MetricsNamespace)
	cfg.GeneratorMode = envOrDefault("GENERATOR_MODE", cfg.GeneratorMode)
	cfg.OpenRouterBaseURL = envOrDefault("OPENROUTER_BASE_URL", cfg.OpenRouterBaseURL)
	cfg.OpenRouterModel = envOrDefault("OPENROUTER_MODEL", cfg.OpenRouterModel)
	cfg.EmbedProvider = envOrDefault("EMBED_PROVIDER", cfg.EmbedProvider)
	cfg.EmbedBaseURL = envOrDefault("EMBED_BASE_URL", cfg.EmbedBaseURL)
	cfg.EmbedModel = envOrDefault("EMBED_MODEL", cfg.EmbedModel)
	if v := envTrimmed("OPENROUTER_API_KEY"); v != "" {
		cfg.OpenRouterAPIKey = v
	}
	if v := envTrimmed("OPENAI_API_KEY"); v != "" {
		cfg.OpenAIAPIKey = v
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.CacheTTL, err = durationFromEnv("APP_CACHE_TTL", cfg.CacheTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.GeneratorTimeout, err = durationFromEnv("GENERATOR_TIMEOUT", cfg.GeneratorTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.ThrottleLimit, err = intFromEnv("APP_THROTTLE_LIMIT", cfg.ThrottleLimit)
	if err != nil {
		return Config{}, err
	}
	cfg.CacheMaxEntries, err = intFromEnv("APP_CACHE_MAX_ENTRIES", cfg.CacheMaxEntries)
	if err != nil {
		return Config{}, err
	}
	cfg.MemoryCapacity, err = intFromEnv("APP_MEMORY_CAPACITY", cfg.MemoryCapacity)
	if err != nil {
		return Config{}, err
	}
	cfg.RetrievalExamples, err = intFromEnv("APP_RETRIEVAL_EXAMPLES", cfg.RetrievalExamples)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if cfg.ShutdownTimeout <= 0 {
		return Config{}, fmt.Errorf("APP_SHUTDOWN_TIMEOUT must be positive")
	}
	if cfg.ThrottleLimit <= 0 {
		return Config{}, fmt.Errorf("APP_THROTTLE_LIMIT must be positive")
	}
	if cfg.CacheTTL < time.Second {
		return Config{}, fmt.Errorf("APP_CACHE_TTL must be at least 1s")
	}
	if cfg.CacheMaxEntries <= 0 {
		return Config{}, fmt.Errorf("APP_CACHE_MAX_ENTRIES must be positive")
	}
	if cfg.MemoryCapacity <= 0 {
		return Config{}, fmt.Errorf("APP_MEMORY_CAPACITY must be positive")
	}
	if cfg.RetrievalExamples < 0 {
		return Config{}, fmt.Errorf("APP_RETRIEVAL_EXAMPLES must be >= 0")
	}

	return cfg, nil
}

// fileConfig mirrors Config for the YAML layer. Durations are strings
// so the file can use the same "30s" syntax as the environment; numeric
// fields are pointers so zero values can be set explicitly.
type fileConfig struct {
	BindAddr          string `yaml:"bind_addr"`
	ShutdownTimeout   string `yaml:"shutdown_timeout"`
	MetricsNamespace  string `yaml:"metrics_namespace"`
	ThrottleLimit     *int   `yaml:"throttle_limit"`
	AllowAnyOrigin    *bool  `yaml:"allow_any_origin"`
	CacheTTL          string `yaml:"cache_ttl"`
	CacheMaxEntries   *int   `yaml:"cache_max_entries"`
	MemoryCapacity    *int   `yaml:"memory_capacity"`
	RetrievalExamples *int   `yaml:"retrieval_examples"`
	GeneratorMode     string `yaml:"generator_mode"`
	GeneratorTimeout  string `yaml:"generator_timeout"`
	OpenRouterAPIKey  string `yaml:"openrouter_api_key"`
	OpenRouterBaseURL string `yaml:"openrouter_base_url"`
	OpenRouterModel   string `yaml:"openrouter_model"`
	EmbedProvider     string `yaml:"embed_provider"`
	EmbedBaseURL      string `yaml:"embed_base_url"`
	EmbedModel        string `yaml:"embed_model"`
	OpenAIAPIKey      string `yaml:"openai_api_key"`
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setString(&cfg.BindAddr, f.BindAddr)
	setString(&cfg.MetricsNamespace, f.MetricsNamespace)
	setString(&cfg.GeneratorMode, f.GeneratorMode)
	setString(&cfg.OpenRouterAPIKey, f.OpenRouterAPIKey)
	setString(&cfg.OpenRouterBaseURL, f.OpenRouterBaseURL)
	setString(&cfg.OpenRouterModel, f.OpenRouterModel)
	setString(&cfg.EmbedProvider, f.EmbedProvider)
	setString(&cfg.EmbedBaseURL, f.EmbedBaseURL)
	setString(&cfg.EmbedModel, f.EmbedModel)
	setString(&cfg.OpenAIAPIKey, f.OpenAIAPIKey)

	setDuration := func(dst *time.Duration, field, v string) error {
		if v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s in %s: %w", field, path, err)
		}
		*dst = d
		return nil
	}
	if err := setDuration(&cfg.ShutdownTimeout, "shutdown_timeout", f.ShutdownTimeout); err != nil {
		return err
	}
	if err := setDuration(&cfg.CacheTTL, "cache_ttl", f.CacheTTL); err != nil {
		return err
	}
	if err := setDuration(&cfg.GeneratorTimeout, "generator_timeout", f.GeneratorTimeout); err != nil {
		return err
	}

	if f.ThrottleLimit != nil {
		cfg.ThrottleLimit = *f.ThrottleLimit
	}
	if f.CacheMaxEntries != nil {
		cfg.CacheMaxEntries = *f.CacheMaxEntries
	}
	if f.MemoryCapacity != nil {
		cfg.MemoryCapacity = *f.MemoryCapacity
	}
	if f.RetrievalExamples != nil {
		cfg.RetrievalExamples = *f.RetrievalExamples
	}
	if f.AllowAnyOrigin != nil {
		cfg.AllowAnyOrigin = *f.AllowAnyOrigin
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(envTrimmed(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
