// Package cli implements the fortuned command-line interface using Cobra.
// Each subcommand maps to one bot command (fortune, rank, history, etc.).
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fortuned",
	Short: "fortuned — daily fortune bot engine",
	Long: `fortuned is the daily-fortune ("jrrp") bot engine.
Each user draws one luck value per calendar day; repeat queries replay the
cached result. Run it as a daemon for a chat-bot host, or invoke commands
directly for testing and administration.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
