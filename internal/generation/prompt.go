package generation

import (
	"fmt"
	"strings"

	"github.com/anvramos/adforge/internal/knowledge"
	"github.com/anvramos/adforge/internal/model"
)

const systemPrompt = "You are a marketing copy expert. Create diverse, high-quality ad variations."

// buildPrompt assembles the user prompt for one variant: tone and
// platform directives, the structured knowledge-graph guidance,
// retrieved context ads, and the source text.
func buildPrompt(req model.AdRequest, platform string, guide knowledge.Guideline, contextAds []string, variantIndex int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Rewrite the ad copy in a %s tone, optimized for %s. %s\n", req.Tone, platform, knowledge.PlatformGuideline(platform))
	fmt.Fprintf(&b, "Knowledge Graph Guidance: CTA: %s, Length: %s, Style: %s\n", guide.CTA, guide.Length, guide.Style)
	if len(contextAds) > 0 {
		fmt.Fprintf(&b, "Context Ads: %s\n", strings.Join(contextAds, " | "))
	}
	fmt.Fprintf(&b, "\nAd Text: %s", req.Text)
	fmt.Fprintf(&b, "\n\nCreate a unique, creative variation (variant %d):", variantIndex+1)
	return b.String()
}
