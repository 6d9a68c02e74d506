package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	historyUser  string
	historyHours int
	historyToday bool
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringVar(&historyUser, "user", "", "User id")
	historyCmd.Flags().IntVar(&historyHours, "hours", 0, "Trailing window in hours (defaults to history_window_hours)")
	historyCmd.Flags().BoolVar(&historyToday, "today", false, "Print only the number of requests since midnight")
	_ = historyCmd.MarkFlagRequired("user")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show a user's recent requests",
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	app, err := openApp(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer closeApp(app)

	out := cmd.OutOrStdout()
	if historyToday {
		count, err := app.Services.RequestLog.CountToday(cmd.Context(), historyUser)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, count)
		return nil
	}

	hours := historyHours
	if hours == 0 {
		hours = app.Config.HistoryWindowHours
	}
	entries, err := app.Services.RequestLog.Window(cmd.Context(), historyUser, hours)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(out, "no requests in the last %d hours\n", hours)
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tQUERY\tANSWER")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.DateTime.Local().Format(time.DateTime), e.Query, e.Answer)
	}
	return tw.Flush()
}
