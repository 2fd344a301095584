package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lucklab/fortuned/internal/daemon"
	"github.com/lucklab/fortuned/internal/domain"
)

var historyName string

func init() {
	historyCmd.Flags().StringVarP(&historyName, "name", "n", "", "display name (defaults to the user id)")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:     "history [user]",
	Aliases: []string{"jrrphistory"},
	Short:   "Show a user's fortune history and stats",
	Args:    cobra.MaximumNArgs(1),
	RunE:    runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	userID := "local"
	if len(args) == 1 {
		userID = args[0]
	}
	name := historyName
	if name == "" {
		name = userID
	}

	entries, stats, err := d.Service.History(userID, time.Now(), d.Config.History.DisplayLimit)
	if err != nil {
		if errors.Is(err, domain.ErrNoData) {
			fmt.Println(d.Messages.NoHistory(name, d.Service.WindowDays()))
			return nil
		}
		return err
	}

	fmt.Println(d.Messages.HistoryReport(name, entries, stats))
	return nil
}
