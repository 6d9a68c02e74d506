package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/app-bouncer/internal/application"
)

var (
	askUser      string
	askUsageFile string
)

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVar(&askUser, "user", "", "User id")
	askCmd.Flags().StringVar(&askUsageFile, "usage-file", "", "JSON file with today's usage samples")
	_ = askCmd.MarkFlagRequired("user")
}

var askCmd = &cobra.Command{
	Use:   "ask [request...]",
	Short: "Ask for permission to open an app",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

type usageFileEntry struct {
	PackageName  string `json:"package_name"`
	TotalMinutes int    `json:"total_minutes"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	var usage []application.UsageSample
	if askUsageFile != "" {
		data, err := os.ReadFile(askUsageFile)
		if err != nil {
			return fmt.Errorf("read usage file: %w", err)
		}
		var entries []usageFileEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			return fmt.Errorf("parse usage file: %w", err)
		}
		for _, e := range entries {
			usage = append(usage, application.UsageSample{PackageName: e.PackageName, TotalMinutes: e.TotalMinutes})
		}
	}

	app, err := openApp(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer closeApp(app)

	verdict, err := app.Services.Decisions.Decide(cmd.Context(), application.DecideParams{
		UserID: askUser,
		Query:  strings.Join(args, " "),
		Usage:  usage,
	})
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(verdict)
}
