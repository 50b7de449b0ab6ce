// Package knowledge holds the static platform and tone playbook the
// generation pipeline consults: per platform/tone structural guidance
// and the free-text platform guidelines used in prompts.
package knowledge

import (
	"sort"
	"strings"
)

// Guideline is the structured guidance for one platform/tone pair.
type Guideline struct {
	CTA    string `json:"cta"`
	Length string `json:"length"`
	Style  string `json:"style"`
}

var graph = map[string]map[string]Guideline{
	"facebook": {
		"friendly":     {CTA: "strong, early placement", Length: "medium", Style: "engaging, visual"},
		"professional": {CTA: "clear, value-driven", Length: "medium", Style: "polished"},
	},
	"instagram": {
		"friendly":     {CTA: "subtle, hashtag-driven", Length: "short", Style: "visual, trendy"},
		"professional": {CTA: "value-focused", Length: "short", Style: "sleek"},
	},
	"linkedin": {
		"friendly":     {CTA: "community-oriented", Length: "medium", Style: "approachable"},
		"professional": {CTA: "value-driven", Length: "long", Style: "formal"},
	},
	"twitter": {
		"friendly":     {CTA: "witty, hashtag-driven", Length: "short", Style: "catchy"},
		"professional": {CTA: "direct", Length: "short", Style: "concise"},
	},
}

var guidelines = map[string]string{
	"facebook":  "Make it engaging and image-focused, with a strong CTA early on.",
	"instagram": "Make it visual and concise with hashtags.",
	"linkedin":  "Make it professional and value-driven.",
	"twitter":   "Make it short, witty, and hashtag-friendly.",
}

// Normalize canonicalizes a platform or tone label.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidPlatform reports whether the label names a supported platform.
// The label must already be normalized.
func ValidPlatform(platform string) bool {
	_, ok := guidelines[platform]
	return ok
}

// ValidTone reports whether the label names a supported tone. The
// label must already be normalized.
func ValidTone(tone string) bool {
	for _, tones := range graph {
		if _, ok := tones[tone]; ok {
			return true
		}
	}
	return false
}

// Platforms returns the supported platform labels in sorted order.
func Platforms() []string {
	out := make([]string, 0, len(guidelines))
	for p := range guidelines {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Tones returns the supported tone labels in sorted order.
func Tones() []string {
	seen := map[string]struct{}{}
	for _, tones := range graph {
		for t := range tones {
			seen[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Lookup returns the structured guidance for a platform/tone pair.
// Unknown pairs fall back to neutral guidance so prompt assembly never
// fails on a gap in the table.
func Lookup(platform, tone string) Guideline {
	if tones, ok := graph[platform]; ok {
		if g, ok := tones[tone]; ok {
			return g
		}
	}
	return Guideline{CTA: "clear", Length: "medium", Style: "engaging"}
}

// PlatformGuideline returns the free-text prompt guideline for a
// platform, or an empty string for an unknown one.
func PlatformGuideline(platform string) string {
	return guidelines[platform]
}
