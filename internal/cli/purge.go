package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var purgeUser string

func init() {
	rootCmd.AddCommand(purgeCmd)
	purgeCmd.Flags().StringVar(&purgeUser, "user", "", "User id")
	_ = purgeCmd.MarkFlagRequired("user")
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every recorded request of a user",
	RunE:  runPurge,
}

func runPurge(cmd *cobra.Command, args []string) error {
	app, err := openApp(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer closeApp(app)

	removed, err := app.Services.RequestLog.Purge(cmd.Context(), purgeUser)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed %d requests\n", removed)
	return nil
}
