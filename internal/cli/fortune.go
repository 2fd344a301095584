package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lucklab/fortuned/internal/daemon"
	"github.com/lucklab/fortuned/internal/domain"
)

var (
	fortuneUser string
	fortuneName string
)

func init() {
	fortuneCmd.Flags().StringVarP(&fortuneUser, "user", "u", "local", "user identifier to draw for")
	fortuneCmd.Flags().StringVarP(&fortuneName, "name", "n", "", "display name (defaults to the user id)")
	rootCmd.AddCommand(fortuneCmd)
}

var fortuneCmd = &cobra.Command{
	Use:     "fortune",
	Aliases: []string{"jrrp"},
	Short:   "Draw (or replay) today's fortune",
	RunE:    runFortune,
}

func runFortune(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	if !d.Config.Bot.Enabled {
		fmt.Println(d.Messages.Disabled())
		return nil
	}

	name := fortuneName
	if name == "" {
		name = fortuneUser
	}
	user := domain.UserInfo{ID: fortuneUser, Nickname: name, Card: name}

	rec, cached, err := d.Service.Draw(context.Background(), user, time.Now())
	if err != nil {
		if errors.Is(err, domain.ErrInFlight) {
			fmt.Println(d.Messages.InFlight(user))
			return nil
		}
		return err
	}

	fmt.Println(d.Messages.Result(rec, cached, d.Config.Bot.ShowCached))
	return nil
}
