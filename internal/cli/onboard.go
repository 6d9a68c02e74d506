package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/app-bouncer/internal/application"
)

var (
	onboardName    string
	onboardSurname string
	onboardApps    []string
	onboardFactors application.TimeFactors
)

func init() {
	rootCmd.AddCommand(onboardCmd)
	f := onboardCmd.Flags()
	f.StringVar(&onboardName, "name", "", "First name")
	f.StringVar(&onboardSurname, "surname", "", "Surname")
	f.StringSliceVar(&onboardApps, "app", nil, "App to restrict (repeatable)")
	f.IntVar(&onboardFactors.Morning, "morning", 0, "Restriction 0-10 after waking up")
	f.IntVar(&onboardFactors.Worktime, "worktime", 0, "Restriction 0-10 during work hours")
	f.IntVar(&onboardFactors.Evening, "evening", 0, "Restriction 0-10 in the evening")
	f.IntVar(&onboardFactors.BeforeBed, "before-bed", 0, "Restriction 0-10 before sleep")
}

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Create a user and their first preference",
	RunE:  runOnboard,
}

func runOnboard(cmd *cobra.Command, args []string) error {
	app, err := openApp(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer closeApp(app)

	id, err := app.Services.Onboarding.Onboard(cmd.Context(), application.OnboardingConfig{
		Name:    onboardName,
		Surname: onboardSurname,
		Apps:    onboardApps,
		Factors: onboardFactors,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}
