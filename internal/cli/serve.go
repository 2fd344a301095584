package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/lucklab/fortuned/internal/daemon"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the fortuned daemon (HTTP command API)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	return d.Serve(context.Background())
}
