package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lucklab/fortuned/internal/daemon"
	"github.com/lucklab/fortuned/internal/domain"
)

var reinitConfirm string

func init() {
	reinitCmd.Flags().StringVar(&reinitConfirm, "confirm", "", "pass --confirm=--confirm to proceed")
	rootCmd.AddCommand(reinitCmd)
}

var reinitCmd = &cobra.Command{
	Use:   "reinit <user> [day]",
	Short: "Clear one user's record for a day so it can be redrawn",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runReinit,
}

func runReinit(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	if reinitConfirm != "--confirm" {
		fmt.Println(d.Messages.ReinitWarn())
		return nil
	}

	userID := args[0]
	day := time.Now()
	if len(args) == 2 {
		day, err = time.Parse(domain.DayFormat, args[1])
		if err != nil {
			return fmt.Errorf("day must be YYYY-MM-DD: %w", err)
		}
	}

	if d.Service.Reinitialize(userID, day) {
		fmt.Println(d.Messages.ReinitDone(userID, domain.DayKey(day)))
	} else {
		fmt.Println(d.Messages.ReinitNothing(userID, domain.DayKey(day)))
	}
	return nil
}
