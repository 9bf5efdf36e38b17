package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mark3labs/linkwizard/internal/catalog"
	"github.com/mark3labs/linkwizard/internal/wizard"
	"github.com/spf13/cobra"
)

var statusFlags struct {
	json bool
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current step, phases and points",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd.Context(), func(rt *runtime) error {
			snap := rt.wizard.Snapshot()

			if statusFlags.json {
				output, err := json.MarshalIndent(snap, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(output))
				return nil
			}

			fmt.Println(renderSnapshot(snap, catalog.Default()))
			if rt.jsLedger != nil {
				balance, err := rt.jsLedger.Balance(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to read points balance: %w", err)
				}
				fmt.Printf("%s %s\n", palette.S().Text.Render("Lifetime points:"), palette.S().Points.Render(strconv.Itoa(balance.Total)))
			}
			return nil
		})
	},
}

var completeCmd = &cobra.Command{
	Use:   "complete <step>",
	Short: "Mark a step as completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseStep(args[0])
		if err != nil {
			return err
		}
		if err := wizard.CheckManualCompletion(id); err != nil {
			return fmt.Errorf("%w: run 'linkwizard link'", err)
		}
		if id == catalog.StepApplyAccess {
			return fmt.Errorf("step %d is completed with 'linkwizard apply'", id)
		}

		return withRuntime(cmd.Context(), func(rt *runtime) error {
			if rt.wizard.Completed(id) {
				fmt.Printf("Step %d is already completed.\n", id)
				return nil
			}
			if err := rt.wizard.CompleteStep(cmd.Context(), id); err != nil {
				return err
			}
			step, _ := catalog.Default().Step(id)
			fmt.Printf("%s %s\n", palette.S().Success.Render("✓ Completed:"), step.Title)
			fmt.Printf("%s\n", palette.S().Points.Render(fmt.Sprintf("+%d points", step.RewardPoints)))
			return nil
		})
	},
}

var backCmd = &cobra.Command{
	Use:   "back",
	Short: "Show the previous step",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd.Context(), func(rt *runtime) error {
			rt.wizard.GoBack(cmd.Context())
			printCurrent(rt)
			return nil
		})
	},
}

var gotoCmd = &cobra.Command{
	Use:   "goto <step>",
	Short: "Jump to a step",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseStep(args[0])
		if err != nil {
			return err
		}
		return withRuntime(cmd.Context(), func(rt *runtime) error {
			if err := rt.wizard.GoToStep(cmd.Context(), id); err != nil {
				return err
			}
			printCurrent(rt)
			return nil
		})
	},
}

var restartFlags struct {
	yes bool
}

var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Clear progress and start over",
	Long: `Clear saved progress and start the wizard from the first step.

Points already credited to the ledger are kept.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !restartFlags.yes {
			return fmt.Errorf("restart clears all progress; pass --yes to confirm")
		}
		return withRuntime(cmd.Context(), func(rt *runtime) error {
			rt.wizard.Restart(cmd.Context())
			fmt.Println("Progress cleared.")
			printCurrent(rt)
			return nil
		})
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusFlags.json, "json", false, "Print the wizard state as JSON")
	restartCmd.Flags().BoolVarP(&restartFlags.yes, "yes", "y", false, "Confirm the restart")
}

func parseStep(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid step %q: must be a number", arg)
	}
	if _, err := catalog.Default().Step(id); err != nil {
		return 0, err
	}
	return id, nil
}

func printCurrent(rt *runtime) {
	step := rt.wizard.CurrentStep()
	fmt.Printf("%s %s\n", palette.S().Title.Render(fmt.Sprintf("Step %d:", step.ID)), step.Title)
}
