package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/lucklab/fortuned/internal/daemon"
	"github.com/lucklab/fortuned/internal/domain"
)

func init() {
	rootCmd.AddCommand(consoleCmd)
}

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive console speaking the bot command set",
	RunE:  runConsole,
}

func runConsole(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	rl, err := readline.New("fortune> ")
	if err != nil {
		return err
	}
	defer rl.Close()

	fmt.Println("🔮 fortuned console")
	fmt.Println("Commands: jrrp [user], rank, history [user], prune, help, exit")

	for {
		line, err := rl.Readline()
		if err != nil {
			return nil
		}
		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			return nil
		}
		dispatch(d, input)
	}
}

func dispatch(d *daemon.Daemon, input string) {
	fields := strings.Fields(input)
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch fields[0] {
	case "jrrp", "fortune":
		userID := arg
		if userID == "" {
			userID = "local"
		}
		user := domain.UserInfo{ID: userID, Nickname: userID, Card: userID}
		rec, cached, err := d.Service.Draw(context.Background(), user, time.Now())
		switch {
		case errors.Is(err, domain.ErrInFlight):
			fmt.Println(d.Messages.InFlight(user))
		case err != nil:
			fmt.Println("error:", err)
		default:
			fmt.Println(d.Messages.Result(rec, cached, d.Config.Bot.ShowCached))
		}

	case "rank", "jrrprank":
		entries := d.Service.Rank(time.Now(), nil)
		display := entries
		if limit := d.Config.Rank.DisplayLimit; limit > 0 && len(display) > limit {
			display = display[:limit]
		}
		fmt.Println(d.Messages.RankBoard(domain.DayKey(time.Now()), display, len(entries), d.Config.Rank.DisplayLimit))

	case "history", "jrrphistory":
		userID := arg
		if userID == "" {
			userID = "local"
		}
		entries, stats, err := d.Service.History(userID, time.Now(), d.Config.History.DisplayLimit)
		if errors.Is(err, domain.ErrNoData) {
			fmt.Println(d.Messages.NoHistory(userID, d.Service.WindowDays()))
			return
		}
		fmt.Println(d.Messages.HistoryReport(userID, entries, stats))

	case "prune":
		cacheRemoved, historyRemoved := d.Service.Prune(time.Now())
		fmt.Printf("Pruned %d cached record(s), %d history entr(ies).\n", cacheRemoved, historyRemoved)

	case "help":
		fmt.Println("jrrp [user]     draw or replay today's fortune")
		fmt.Println("rank            today's leaderboard")
		fmt.Println("history [user]  recent entries and stats")
		fmt.Println("prune           drop expired records")
		fmt.Println("exit            leave the console")

	default:
		fmt.Println("unknown command — try 'help'")
	}
}
