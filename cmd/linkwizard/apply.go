package main

import (
	"errors"
	"fmt"

	"github.com/mark3labs/linkwizard/internal/catalog"
	"github.com/mark3labs/linkwizard/internal/subflow"
	"github.com/spf13/cobra"
)

var applyFlags struct {
	acceptTerms bool
}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Walk through the API access application",
	Long: `Walk through the API access application: apply in the broker dashboard,
accept the API terms and confirm. The step is completed once every stage is
done.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd.Context(), func(rt *runtime) error {
			if rt.wizard.Completed(catalog.StepApplyAccess) {
				fmt.Println("API access application already confirmed.")
				return nil
			}

			s := palette.S()
			flow := rt.wizard.SubFlow()
			if applyFlags.acceptTerms {
				flow.Set(subflow.FlagConsent, true)
			}

			for {
				stage := flow.Current()
				fmt.Printf("%s %s\n", s.Title.Render(fmt.Sprintf("[%d/%d]", flow.Stage()+1, flow.Len())), stage.Instruction)
				if flow.Done() {
					break
				}
				if err := flow.Advance(); err != nil {
					if errors.Is(err, subflow.ErrGuard) {
						fmt.Println(s.Warning.Render(stage.Prompt))
						return fmt.Errorf("re-run with --accept-terms once you have accepted the terms")
					}
					return err
				}
			}

			if err := rt.wizard.CompleteStep(cmd.Context(), catalog.StepApplyAccess); err != nil {
				return err
			}
			step, _ := catalog.Default().Step(catalog.StepApplyAccess)
			fmt.Printf("%s %s\n", s.Success.Render("✓ Completed:"), step.Title)
			fmt.Println(s.Points.Render(fmt.Sprintf("+%d points", step.RewardPoints)))
			return nil
		})
	},
}

func init() {
	applyCmd.Flags().BoolVar(&applyFlags.acceptTerms, "accept-terms", false, "Accept the API terms of service")
}
