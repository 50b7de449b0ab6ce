// Package model defines the domain types shared across the service.
package model

import "time"

// Creativity levels assigned to the variants generated for a platform,
// in generation order.
const (
	CreativityLow    = "low"
	CreativityMedium = "medium"
	CreativityHigh   = "high"
)

// VariantsPerPlatform is how many candidate rewrites are produced for
// each requested platform.
const VariantsPerPlatform = 3

// AdRequest is an incoming rewrite request.
type AdRequest struct {
	Text      string   `json:"ad_text"`
	Tone      string   `json:"tone"`
	Platforms []string `json:"platforms"`
}

// Variant is one generated rewrite before scoring.
type Variant struct {
	Text            string `json:"text"`
	GenerationIndex int    `json:"generation_index"`
	CreativityLevel string `json:"creativity_level"`
}

// ScoredVariant is a variant with its quality score and rank within
// the platform. Rank 1 is the best variant.
type ScoredVariant struct {
	Variant
	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
}

// PlatformResult holds the ranked variants produced for one platform.
// Variants are ordered by rank.
type PlatformResult struct {
	Platform string          `json:"platform"`
	Variants []ScoredVariant `json:"variants"`
}

// Best returns the rank-1 variant. It must not be called on an empty
// result.
func (r PlatformResult) Best() ScoredVariant {
	return r.Variants[0]
}

// GenerationRecord is the durable-for-the-session outcome of one
// generation request. Results follow the request's platform order and
// contain only the platforms that succeeded; Failures maps the rest to
// a reason.
type GenerationRecord struct {
	RequestID string            `json:"request_id"`
	Request   AdRequest         `json:"request"`
	Results   []PlatformResult  `json:"results"`
	Failures  map[string]string `json:"failures,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Result returns the platform result for the named platform.
func (g GenerationRecord) Result(platform string) (PlatformResult, bool) {
	for _, r := range g.Results {
		if r.Platform == platform {
			return r, true
		}
	}
	return PlatformResult{}, false
}

// FeedbackRecord is one observed-performance report for a generated ad.
// Records are keyed by (request id, platform); a later report for the
// same key replaces the earlier one.
type FeedbackRecord struct {
	RequestID        string    `json:"request_id"`
	Platform         string    `json:"platform"`
	AdText           string    `json:"ad_text"`
	EngagementRate   float64   `json:"engagement_rate"`
	ClickThroughRate float64   `json:"click_through_rate"`
	ConversionRate   float64   `json:"conversion_rate"`
	RecordedAt       time.Time `json:"feedback_timestamp"`
}

// InsightsSummary aggregates the feedback recorded for one request.
type InsightsSummary struct {
	AvgEngagementRate      float64 `json:"avg_engagement_rate"`
	AvgClickThroughRate    float64 `json:"avg_click_through_rate"`
	BestPerformingPlatform string  `json:"best_performing_platform"`
	PlatformsTested        int     `json:"total_platforms_tested"`
}
