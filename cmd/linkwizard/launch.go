package main

import (
	"fmt"

	"github.com/mark3labs/linkwizard/internal/catalog"
	"github.com/spf13/cobra"
)

var launchFlags struct {
	enableAutomation bool
}

var launchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Finish setup and optionally start automation",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd.Context(), func(rt *runtime) error {
			s := palette.S()
			if !rt.wizard.Completed(catalog.StepLink) {
				fmt.Println(s.Warning.Render("Your broker account is not linked yet. Run 'linkwizard link' first."))
			}

			if !rt.wizard.Completed(catalog.StepLaunch) {
				if err := rt.wizard.CompleteStep(cmd.Context(), catalog.StepLaunch); err != nil {
					return err
				}
				step, _ := catalog.Default().Step(catalog.StepLaunch)
				fmt.Printf("%s %s\n", s.Success.Render("✓ Completed:"), step.Title)
			}

			if launchFlags.enableAutomation {
				rt.wizard.StartAutomation()
				fmt.Println(s.Text.Render("Starting automation..."))
			}
			return nil
		})
	},
}

func init() {
	launchCmd.Flags().BoolVar(&launchFlags.enableAutomation, "enable-automation", false, "Start automation after setup")
}
