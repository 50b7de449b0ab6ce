package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anvramos/adforge/internal/model"
)

func TestNewGeneratorAutoFallsBackToMock(t *testing.T) {
	g, err := NewGenerator(Config{Mode: "auto"})
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	if _, ok := g.(*Mock); !ok {
		t.Fatalf("auto generator without key = %T, want *Mock", g)
	}
}

func TestNewGeneratorAutoPrefersClientWithKey(t *testing.T) {
	g, err := NewGenerator(Config{Mode: "auto", APIKey: "k"})
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	if _, ok := g.(*Client); !ok {
		t.Fatalf("auto generator with key = %T, want *Client", g)
	}
}

func TestNewGeneratorOpenRouterRequiresKey(t *testing.T) {
	if _, err := NewGenerator(Config{Mode: "openrouter"}); err == nil {
		t.Fatalf("NewGenerator() error = nil, want missing key error")
	}
}

func TestNewGeneratorRejectsUnknownMode(t *testing.T) {
	if _, err := NewGenerator(Config{Mode: "telepathy"}); err == nil {
		t.Fatalf("NewGenerator() error = nil, want unsupported mode error")
	}
}

func TestTemperatureMapping(t *testing.T) {
	cases := map[string]float64{
		model.CreativityLow:    0.6,
		model.CreativityMedium: 0.8,
		model.CreativityHigh:   1.0,
		"":                     0.8,
	}
	for level, want := range cases {
		if got := Temperature(level); got != want {
			t.Fatalf("Temperature(%q) = %v, want %v", level, got, want)
		}
	}
}

func TestClientGenerate(t *testing.T) {
	var seen chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&seen); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"  Shop now! Fresh styles await.  "}}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key"})
	got, err := c.Generate(context.Background(), Request{
		System:     "You are a marketing copy expert.",
		Prompt:     "Rewrite this ad",
		Creativity: model.CreativityHigh,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "Shop now! Fresh styles await." {
		t.Fatalf("Generate() = %q", got)
	}
	if seen.Model != defaultModel {
		t.Fatalf("request model = %q, want %q", seen.Model, defaultModel)
	}
	if seen.Temperature != 1.0 {
		t.Fatalf("request temperature = %v, want 1.0", seen.Temperature)
	}
	if seen.MaxTokens != maxCompletionTokens {
		t.Fatalf("request max_tokens = %d, want %d", seen.MaxTokens, maxCompletionTokens)
	}
	if len(seen.Messages) != 2 || seen.Messages[0].Role != "system" || seen.Messages[1].Role != "user" {
		t.Fatalf("unexpected messages: %+v", seen.Messages)
	}
}

func TestClientGenerateServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream overloaded", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "k"})
	_, err := c.Generate(context.Background(), Request{Prompt: "p"})
	if err == nil {
		t.Fatalf("Generate() error = nil, want status error")
	}
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("Generate() error = %v, want ErrTransient", err)
	}
}

func TestClientGenerateClientErrorIsNotTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "k"})
	_, err := c.Generate(context.Background(), Request{Prompt: "p"})
	if err == nil {
		t.Fatalf("Generate() error = nil, want status error")
	}
	if errors.Is(err, ErrTransient) {
		t.Fatalf("Generate() error = %v, want non-transient", err)
	}
}

func TestClientGenerateEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "k"})
	if _, err := c.Generate(context.Background(), Request{Prompt: "p"}); err == nil {
		t.Fatalf("Generate() error = nil, want empty completion error")
	}
}

func TestMockDeterministicAndVariedByCreativity(t *testing.T) {
	m := NewMock()
	req := Request{
		Platform:   "instagram",
		Tone:       "friendly",
		SourceText: "Buy our handmade candles",
	}

	texts := map[string]string{}
	for _, level := range []string{model.CreativityLow, model.CreativityMedium, model.CreativityHigh} {
		req.Creativity = level
		a, err := m.Generate(context.Background(), req)
		if err != nil {
			t.Fatalf("Generate(%s) error = %v", level, err)
		}
		b, _ := m.Generate(context.Background(), req)
		if a != b {
			t.Fatalf("mock not deterministic for %s: %q vs %q", level, a, b)
		}
		if a == "" {
			t.Fatalf("mock produced empty text for %s", level)
		}
		texts[level] = a
	}
	if texts[model.CreativityLow] == texts[model.CreativityHigh] {
		t.Fatalf("creativity levels produced identical text: %q", texts[model.CreativityLow])
	}
	if !strings.Contains(texts[model.CreativityMedium], "✨") {
		t.Fatalf("friendly medium variant missing emoji: %q", texts[model.CreativityMedium])
	}
}

func TestMockHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMock().Generate(ctx, Request{SourceText: "x"}); err == nil {
		t.Fatalf("Generate() error = nil, want context error")
	}
}
