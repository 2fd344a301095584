package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucklab/fortuned/internal/daemon"
)

var resetConfirm string

func init() {
	resetCmd.Flags().StringVar(&resetConfirm, "confirm", "", "pass --confirm=--confirm to proceed")
	rootCmd.AddCommand(resetCmd)
}

var resetCmd = &cobra.Command{
	Use:     "reset",
	Aliases: []string{"jrrpreset"},
	Short:   "Delete ALL fortune data (irreversible)",
	RunE:    runReset,
}

func runReset(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	if resetConfirm != "--confirm" {
		fmt.Println(d.Messages.ResetWarn())
		return nil
	}

	if err := d.Service.ResetAll(); err != nil {
		return err
	}
	fmt.Println(d.Messages.ResetDone())
	return nil
}
