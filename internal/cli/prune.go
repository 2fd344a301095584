package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lucklab/fortuned/internal/daemon"
)

func init() {
	rootCmd.AddCommand(pruneCmd)
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Drop expired cache records and over-retention history",
	RunE:  runPrune,
}

func runPrune(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	cacheRemoved, historyRemoved := d.Service.Prune(time.Now())
	fmt.Printf("Pruned %d cached record(s), %d history entr(ies).\n", cacheRemoved, historyRemoved)
	return nil
}
