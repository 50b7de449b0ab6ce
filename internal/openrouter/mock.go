package openrouter

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/anvramos/adforge/internal/model"
)

// Mock produces deterministic local variants when no OpenRouter key is
// configured. Each creativity level yields a distinct rewrite so that
// scoring and ranking stay meaningful offline.
type Mock struct{}

func NewMock() *Mock { return &Mock{} }

func (m *Mock) Generate(ctx context.Context, req Request) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	return buildMockVariant(req), nil
}

func buildMockVariant(req Request) string {
	base := strings.TrimSpace(req.SourceText)
	if base == "" {
		base = "Our latest collection is here"
	}
	base = strings.TrimRight(clipRunes(base, 90), ".!? ")

	hashtag := ""
	switch req.Platform {
	case "instagram":
		hashtag = " #MustHave #NewDrop"
	case "twitter":
		hashtag = " #Deals"
	}

	emoji := ""
	if req.Tone == "friendly" {
		emoji = " ✨"
	}

	switch req.Creativity {
	case model.CreativityLow:
		return fmt.Sprintf("%s. Learn more today.%s", base, hashtag)
	case model.CreativityHigh:
		return fmt.Sprintf("Limited offer: %s!%s Get started now and don't miss out.%s", base, emoji, hashtag)
	default:
		return fmt.Sprintf("%s! Shop now and join our community.%s%s", base, emoji, hashtag)
	}
}

func clipRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
