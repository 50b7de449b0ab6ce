// Package cli implements the adforge CLI commands.
package cli

import "github.com/spf13/cobra"

// RootCmd is the top-level command. Running it without a subcommand
// starts the HTTP service.
var RootCmd = &cobra.Command{
	Use:          "adforge",
	Short:        "Ad copy generation and scoring service",
	Long:         "adforge rewrites ad copy into platform-tuned variants, scores them against platform best practices, and aggregates performance feedback.",
	SilenceUsage: true,
	RunE:         runServe,
}
