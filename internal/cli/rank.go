package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/lucklab/fortuned/internal/daemon"
	"github.com/lucklab/fortuned/internal/domain"
)

var rankTable bool

func init() {
	rankCmd.Flags().BoolVar(&rankTable, "table", false, "print a plain table instead of the bot message")
	rootCmd.AddCommand(rankCmd)
}

var rankCmd = &cobra.Command{
	Use:   "rank [day]",
	Short: "Show the fortune leaderboard for a day (default today)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRank,
}

func runRank(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	day := time.Now()
	if len(args) == 1 {
		day, err = time.Parse(domain.DayFormat, args[0])
		if err != nil {
			return fmt.Errorf("day must be YYYY-MM-DD: %w", err)
		}
	}

	entries := d.Service.Rank(day, nil)
	display := entries
	if limit := d.Config.Rank.DisplayLimit; limit > 0 && len(display) > limit {
		display = display[:limit]
	}

	if !rankTable {
		fmt.Println(d.Messages.RankBoard(domain.DayKey(day), display, len(entries), d.Config.Rank.DisplayLimit))
		return nil
	}

	if len(display) == 0 {
		fmt.Println("No fortunes recorded for", domain.DayKey(day))
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tUSER\tJRRP\tFORTUNE")
	for _, e := range display {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s %s\n",
			e.Rank,
			e.Record.User.DisplayName(),
			e.Record.Score,
			e.Record.Tier,
			e.Record.Glyph,
		)
	}
	return w.Flush()
}
