package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anvramos/adforge/internal/knowledge"
	"github.com/anvramos/adforge/internal/scoring"
)

func init() {
	cmd := &cobra.Command{
		Use:   "score [ad text]",
		Short: "Score ad copy against platform best practices",
		Long:  "Prints the quality score and per-metric breakdown for one ad text without calling any external service.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runScore,
	}
	cmd.Flags().StringP("platform", "p", "facebook", "Target platform: "+strings.Join(knowledge.Platforms(), ", "))
	cmd.Flags().StringP("tone", "t", "friendly", "Tone: "+strings.Join(knowledge.Tones(), ", "))
	RootCmd.AddCommand(cmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	platform, _ := cmd.Flags().GetString("platform")
	tone, _ := cmd.Flags().GetString("tone")
	platform = knowledge.Normalize(platform)
	tone = knowledge.Normalize(tone)
	if !knowledge.ValidPlatform(platform) {
		return fmt.Errorf("invalid platform %q, valid platforms are %s", platform, strings.Join(knowledge.Platforms(), ", "))
	}
	if !knowledge.ValidTone(tone) {
		return fmt.Errorf("invalid tone %q, valid tones are %s", tone, strings.Join(knowledge.Tones(), ", "))
	}

	text := strings.Join(args, " ")
	out := map[string]any{
		"platform":  platform,
		"tone":      tone,
		"score":     scoring.Score(text, platform, tone),
		"breakdown": scoring.Breakdown(text, platform, tone),
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}
