// Package scoring implements the deterministic ad quality scorer and
// the variant ranker. Scoring is a pure function over the variant
// text, target platform and tone: a weighted sum of named sub-metrics,
// each clamped to [0,1].
package scoring

import (
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

type metric struct {
	name   string
	weight float64
	eval   func(text, platform, tone string) float64
}

// Weights sum to 1.0.
var metrics = []metric{
	{"length_fit", 0.30, lengthFit},
	{"cta_strength", 0.25, ctaStrength},
	{"emoji_usage", 0.15, emojiUsage},
	{"hashtag_strategy", 0.10, hashtagStrategy},
	{"urgency", 0.10, urgency},
	{"engagement", 0.05, engagement},
	{"platform_alignment", 0.05, platformAlignment},
}

// MetricScore is one sub-metric's contribution to a score.
type MetricScore struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
	Value  float64 `json:"value"`
}

// Score rates ad text for a platform and tone. The result is in [0,1],
// rounded to three decimals.
func Score(text, platform, tone string) float64 {
	total := 0.0
	for _, m := range metrics {
		total += m.weight * clamp01(m.eval(text, platform, tone))
	}
	return round3(clamp01(total))
}

// Breakdown returns the per-metric sub-scores behind Score, in metric
// order. The weighted sum of the entries equals Score up to rounding.
func Breakdown(text, platform, tone string) []MetricScore {
	out := make([]MetricScore, 0, len(metrics))
	for _, m := range metrics {
		out = append(out, MetricScore{
			Name:   m.name,
			Weight: m.weight,
			Value:  clamp01(m.eval(text, platform, tone)),
		})
	}
	return out
}

var lengthWindows = map[string][2]int{
	"facebook":  {50, 150},
	"instagram": {30, 100},
	"linkedin":  {100, 200},
	"twitter":   {20, 280},
}

func lengthFit(text, platform, _ string) float64 {
	window, ok := lengthWindows[platform]
	if !ok {
		return 0
	}
	n := utf8.RuneCountInString(text)
	if n >= window[0] && n <= window[1] {
		return 1
	}
	deviation := window[0] - n
	if n > window[1] {
		deviation = n - window[1]
	}
	return clamp01(1 - float64(deviation)/float64(window[1]))
}

var (
	strongCTAs = []string{"shop now", "buy now", "get started", "learn more", "sign up", "download", "order today", "claim your"}
	mediumCTAs = []string{"shop", "buy", "click", "discover", "try", "join", "explore"}
)

func ctaStrength(text, _, _ string) float64 {
	lower := strings.ToLower(text)
	if hasAny(lower, strongCTAs) {
		return 1
	}
	if hasAny(lower, mediumCTAs) {
		return 0.6
	}
	return 0
}

var friendlyEmojiWindows = map[string][2]int{
	"facebook":  {1, 3},
	"instagram": {1, 4},
	"twitter":   {1, 2},
	"linkedin":  {0, 2},
}

func emojiUsage(text, platform, tone string) float64 {
	count := emojiCount(text)
	window := [2]int{0, 0}
	if tone == "friendly" {
		window = [2]int{1, 3}
		if w, ok := friendlyEmojiWindows[platform]; ok {
			window = w
		}
	}
	if count >= window[0] && count <= window[1] {
		return 1
	}
	distance := window[0] - count
	if count > window[1] {
		distance = count - window[1]
	}
	return clamp01(1 - 0.3*float64(distance))
}

func emojiCount(s string) int {
	n := 0
	for _, r := range s {
		if r > unicode.MaxASCII && unicode.IsSymbol(r) {
			n++
		}
	}
	return n
}

var hashtagRe = regexp.MustCompile(`#[A-Za-z0-9_]+`)

func hashtagStrategy(text, platform, _ string) float64 {
	count := len(hashtagRe.FindAllString(text, -1))
	switch platform {
	case "instagram":
		switch {
		case count >= 1 && count <= 5:
			return 1
		case count > 5:
			return 0.4
		}
	case "twitter":
		switch {
		case count >= 1 && count <= 2:
			return 1
		case count > 2:
			return 0.4
		}
	case "linkedin":
		if count <= 2 {
			return 1
		}
		return 0.3
	case "facebook":
		if count <= 1 {
			return 1
		}
		return 0.3
	}
	return 0
}

var urgencyTerms = []string{"limited", "now", "today", "hurry", "exclusive", "sale", "offer", "ends soon", "last chance", "don't miss"}

func urgency(text, _, _ string) float64 {
	lower := strings.ToLower(text)
	distinct := 0
	for _, term := range urgencyTerms {
		if strings.Contains(lower, term) {
			distinct++
		}
	}
	switch {
	case distinct >= 2:
		return 1
	case distinct == 1:
		return 0.6
	}
	return 0
}

var (
	visualHooks = []string{"check out", "see how", "watch", "look at", "imagine", "picture this"}
	socialProof = []string{"join", "thousands", "customers", "loved by", "trusted", "rated", "reviews", "community"}
)

func engagement(text, _, _ string) float64 {
	lower := strings.ToLower(text)
	hits := 0
	if strings.Contains(text, "?") {
		hits++
	}
	if hasAny(lower, visualHooks) {
		hits++
	}
	if hasAny(lower, socialProof) {
		hits++
	}
	return float64(hits) / 3
}

var linkedinValueTerms = []string{"professional", "career", "business", "value", "growth", "results", "skills"}

func platformAlignment(text, platform, tone string) float64 {
	lower := strings.ToLower(text)
	length := utf8.RuneCountInString(text)
	hashtags := len(hashtagRe.FindAllString(text, -1))
	emojis := emojiCount(text)

	var checks []bool
	switch platform {
	case "facebook":
		checks = []bool{
			ctaStrength(text, platform, tone) > 0,
			strings.Contains(text, "?") || emojis > 0,
			length <= 240,
		}
	case "instagram":
		checks = []bool{
			hashtags >= 1,
			emojis >= 1 || tone == "professional",
			length <= 120,
		}
	case "twitter":
		checks = []bool{
			length <= 280,
			hashtags >= 1 && hashtags <= 2,
			strings.Count(text, ".")+strings.Count(text, "!") <= 2,
		}
	case "linkedin":
		checks = []bool{
			emojis == 0 || tone == "friendly",
			length >= 80,
			hasAny(lower, linkedinValueTerms),
		}
	default:
		return 0
	}

	passed := 0
	for _, ok := range checks {
		if ok {
			passed++
		}
	}
	return float64(passed) / float64(len(checks))
}

func hasAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
