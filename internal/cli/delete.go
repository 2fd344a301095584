package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lucklab/fortuned/internal/daemon"
)

var (
	deleteKeepToday bool
	deleteConfirm   string
)

func init() {
	deleteCmd.Flags().BoolVar(&deleteKeepToday, "keep-today", false, "preserve today's record")
	deleteCmd.Flags().StringVar(&deleteConfirm, "confirm", "", "pass --confirm=--confirm to proceed")
	rootCmd.AddCommand(deleteCmd)
}

var deleteCmd = &cobra.Command{
	Use:     "delete <user>",
	Aliases: []string{"jrrpdelete"},
	Short:   "Delete a user's fortune data",
	Args:    cobra.ExactArgs(1),
	RunE:    runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	if deleteConfirm != "--confirm" {
		fmt.Println(d.Messages.DeleteWarn())
		return nil
	}

	userID := args[0]
	if d.Service.DeleteUser(userID, deleteKeepToday, time.Now()) {
		fmt.Println(d.Messages.DeleteDone(userID))
	} else {
		fmt.Println(d.Messages.DeleteNothing(userID))
	}
	return nil
}
