package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/anvramos/adforge/internal/cache"
	"github.com/anvramos/adforge/internal/config"
	"github.com/anvramos/adforge/internal/feedback"
	"github.com/anvramos/adforge/internal/generation"
	"github.com/anvramos/adforge/internal/memory"
	"github.com/anvramos/adforge/internal/observability"
	"github.com/anvramos/adforge/internal/openrouter"
	"github.com/anvramos/adforge/internal/retrieval"
)

func newTestServer(t *testing.T, namespace string) *httptest.Server {
	t.Helper()

	cfg := config.Config{
		ThrottleLimit: 60,
		GeneratorMode: "mock",
		EmbedProvider: "local",
		CacheTTL:      time.Minute,
	}
	metrics := observability.NewMetrics(namespace)
	results := cache.New(cfg.CacheTTL, 100)
	store := memory.New(100)

	index := retrieval.NewIndex(retrieval.NewLocalEmbedder(0))
	if err := index.Add(context.Background(), retrieval.DefaultExamples()...); err != nil {
		t.Fatalf("seed index: %v", err)
	}

	orchestrator := generation.New(generation.Config{
		Cache:     results,
		Store:     store,
		Retriever: index,
		Generator: openrouter.NewMock(),
		Metrics:   metrics,
		CacheTTL:  cfg.CacheTTL,
	})
	aggregator := feedback.New(store)

	srv := New(cfg, orchestrator, aggregator, store, results, metrics)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func testNamespace(prefix string) string {
	return "test_httpapi_" + prefix + "_" + time.Now().Format("150405") + "_" + time.Now().Format("000000000")
}

func postJSON(t *testing.T, url string, payload any) (*http.Response, map[string]any) {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	res, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s error = %v", url, err)
	}
	defer res.Body.Close()
	var decoded map[string]any
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode %s response: %v", url, err)
	}
	return res, decoded
}

func getJSON(t *testing.T, url string) (*http.Response, map[string]any) {
	t.Helper()
	res, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s error = %v", url, err)
	}
	defer res.Body.Close()
	var decoded map[string]any
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode %s response: %v", url, err)
	}
	return res, decoded
}

func TestGenerateEndpoint(t *testing.T) {
	ts := newTestServer(t, testNamespace("generate"))

	payload := map[string]any{
		"ad_text":   "Try our new coffee blend",
		"tone":      "friendly",
		"platforms": []string{"facebook", "twitter"},
	}
	res, body := postJSON(t, ts.URL+"/v1/ads/generate", payload)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("generate status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	requestID, _ := body["request_id"].(string)
	if requestID == "" {
		t.Fatalf("missing request_id in response: %+v", body)
	}
	if cached, _ := body["cached"].(bool); cached {
		t.Fatal("first generate reported cached")
	}

	rewritten, ok := body["rewritten_ads"].(map[string]any)
	if !ok || len(rewritten) != 2 {
		t.Fatalf("rewritten_ads = %+v, want entries for both platforms", body["rewritten_ads"])
	}
	variants, ok := body["ad_variants"].(map[string]any)
	if !ok {
		t.Fatalf("missing ad_variants in response: %+v", body)
	}
	fbVariants, ok := variants["facebook"].([]any)
	if !ok || len(fbVariants) != 3 {
		t.Fatalf("facebook variants = %+v, want 3", variants["facebook"])
	}

	// The same request replays from cache with the original request id.
	res, body = postJSON(t, ts.URL+"/v1/ads/generate", payload)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("repeat status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if cached, _ := body["cached"].(bool); !cached {
		t.Fatal("repeat generate not served from cache")
	}
	if got, _ := body["request_id"].(string); got != requestID {
		t.Fatalf("repeat request_id = %q, want %q", got, requestID)
	}
}

func TestGenerateEndpointValidation(t *testing.T) {
	ts := newTestServer(t, testNamespace("generate_invalid"))

	res, body := postJSON(t, ts.URL+"/v1/ads/generate", map[string]any{
		"ad_text":   "Try our new coffee blend",
		"tone":      "friendly",
		"platforms": []string{"myspace"},
	})
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
	if code, _ := body["code"].(string); code != "invalid_request" {
		t.Fatalf("code = %q, want %q", code, "invalid_request")
	}
	if msg, _ := body["error"].(string); !strings.Contains(msg, "invalid platforms") {
		t.Fatalf("error = %q, want invalid platforms detail", msg)
	}
}

func TestFeedbackFlow(t *testing.T) {
	ts := newTestServer(t, testNamespace("feedback"))

	_, generated := postJSON(t, ts.URL+"/v1/ads/generate", map[string]any{
		"ad_text":   "Try our new coffee blend",
		"tone":      "professional",
		"platforms": []string{"linkedin", "facebook"},
	})
	requestID, _ := generated["request_id"].(string)
	if requestID == "" {
		t.Fatalf("missing request_id: %+v", generated)
	}

	res, body := postJSON(t, ts.URL+"/v1/feedback", map[string]any{
		"request_id":         requestID,
		"platform":           "linkedin",
		"engagement_rate":    0.08,
		"click_through_rate": 0.03,
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("feedback status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if msg, _ := body["message"].(string); msg != "Feedback recorded successfully" {
		t.Fatalf("message = %q", msg)
	}

	res, body = getJSON(t, ts.URL+"/v1/insights/"+requestID)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("insights status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	insights, ok := body["insights"].(map[string]any)
	if !ok {
		t.Fatalf("missing insights in response: %+v", body)
	}
	if best, _ := insights["best_performing_platform"].(string); best != "linkedin" {
		t.Fatalf("best_performing_platform = %q, want %q", best, "linkedin")
	}
	if tested, _ := insights["total_platforms_tested"].(float64); tested != 1 {
		t.Fatalf("total_platforms_tested = %v, want 1", insights["total_platforms_tested"])
	}

	res, performers := getJSON(t, ts.URL+"/v1/top-performers?limit=5")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("top-performers status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if count, _ := performers["count"].(float64); count != 1 {
		t.Fatalf("count = %v, want 1", performers["count"])
	}
}

func TestFeedbackUnknownRequest(t *testing.T) {
	ts := newTestServer(t, testNamespace("feedback_unknown"))

	res, body := postJSON(t, ts.URL+"/v1/feedback", map[string]any{
		"request_id":      "no-such-request",
		"platform":        "facebook",
		"engagement_rate": 0.05,
	})
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}
	if code, _ := body["code"].(string); code != "request_not_found" {
		t.Fatalf("code = %q, want %q", code, "request_not_found")
	}
}

func TestInsightsWithoutFeedback(t *testing.T) {
	ts := newTestServer(t, testNamespace("insights_missing"))

	res, body := getJSON(t, ts.URL+"/v1/insights/unknown-id")
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}
	if code, _ := body["code"].(string); code != "no_feedback" {
		t.Fatalf("code = %q, want %q", code, "no_feedback")
	}
}

func TestTopPerformersRejectsBadLimit(t *testing.T) {
	ts := newTestServer(t, testNamespace("top_limit"))

	res, err := http.Get(ts.URL + "/v1/top-performers?limit=abc")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestServiceEndpoints(t *testing.T) {
	ts := newTestServer(t, testNamespace("service"))

	res, body := getJSON(t, ts.URL+"/")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("GET / status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if _, ok := body["endpoints"].(map[string]any); !ok {
		t.Fatalf("missing endpoints in index response: %+v", body)
	}

	res, body = getJSON(t, ts.URL+"/healthz")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("GET /healthz status = %d", res.StatusCode)
	}
	if status, _ := body["status"].(string); status != "ok" {
		t.Fatalf("health status = %q, want %q", status, "ok")
	}

	res, body = getJSON(t, ts.URL+"/v1/platforms")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("GET /v1/platforms status = %d", res.StatusCode)
	}
	platforms, ok := body["platforms"].([]any)
	if !ok || len(platforms) != 4 {
		t.Fatalf("platforms = %+v, want 4 entries", body["platforms"])
	}
	tones, ok := body["tones"].([]any)
	if !ok || len(tones) != 2 {
		t.Fatalf("tones = %+v, want 2 entries", body["tones"])
	}

	res, body = getJSON(t, ts.URL+"/v1/stats")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("GET /v1/stats status = %d", res.StatusCode)
	}
	for _, key := range []string{"memory_entries", "cache_entries", "feedback_entries", "total_requests", "uptime"} {
		if _, ok := body[key]; !ok {
			t.Fatalf("stats missing %q: %+v", key, body)
		}
	}

	res, body = getJSON(t, ts.URL+"/v1/perf")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("GET /v1/perf status = %d", res.StatusCode)
	}
	if _, ok := body["window_size"]; !ok {
		t.Fatalf("perf missing window_size: %+v", body)
	}
}

func TestFeedbackWebsocketStream(t *testing.T) {
	ts := newTestServer(t, testNamespace("ws"))

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/feedback/ws"
	conn, res, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s error = %v", wsURL, err)
	}
	defer conn.Close()
	if res != nil {
		res.Body.Close()
	}

	// Give the handler a moment to register its event subscription.
	time.Sleep(100 * time.Millisecond)

	_, generated := postJSON(t, ts.URL+"/v1/ads/generate", map[string]any{
		"ad_text":   "Try our new coffee blend",
		"tone":      "friendly",
		"platforms": []string{"facebook"},
	})
	requestID, _ := generated["request_id"].(string)
	postJSON(t, ts.URL+"/v1/feedback", map[string]any{
		"request_id":      requestID,
		"platform":        "facebook",
		"engagement_rate": 0.07,
	})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var evt feedback.Event
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("read feedback event: %v", err)
	}
	if evt.Type != feedback.EventFeedbackRecorded {
		t.Fatalf("event type = %q, want %q", evt.Type, feedback.EventFeedbackRecorded)
	}
	if evt.Feedback.RequestID != requestID {
		t.Fatalf("event request_id = %q, want %q", evt.Feedback.RequestID, requestID)
	}
	if evt.Feedback.Platform != "facebook" {
		t.Fatalf("event platform = %q, want %q", evt.Feedback.Platform, "facebook")
	}
}
