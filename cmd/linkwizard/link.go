package main

import (
	"errors"
	"fmt"

	"github.com/mark3labs/linkwizard/internal/catalog"
	"github.com/mark3labs/linkwizard/internal/credentials"
	"github.com/mark3labs/linkwizard/internal/submission"
	"github.com/mark3labs/linkwizard/internal/tui/linkform"
	"github.com/spf13/cobra"
)

var linkFlags struct {
	accountID    string
	accessKey    string
	accessSecret string
	displayName  string
}

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Link your broker account credentials",
	Long: `Link your broker account by submitting its API credentials.

With --account-id, --access-key and --access-secret the credentials are
submitted without prompting. Otherwise an interactive form is shown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd.Context(), func(rt *runtime) error {
			if rt.wizard.Completed(catalog.StepLink) {
				fmt.Println("Your broker account is already linked.")
				return nil
			}

			sub := rt.submitter()
			headless := linkFlags.accountID != "" && linkFlags.accessKey != "" && linkFlags.accessSecret != ""

			var account *submission.ConnectedAccount
			if headless {
				a, err := linkHeadless(cmd, sub)
				if err != nil {
					return err
				}
				account = &a
			} else {
				a, err := linkform.Run(cmd.Context(), sub.Submit, sub.Detach)
				if err != nil {
					sub.Detach()
					return err
				}
				if a == nil {
					sub.Detach()
					fmt.Println("Linking cancelled.")
					return nil
				}
				account = a
			}

			fmt.Printf("%s %s (%s)\n", palette.S().Success.Render("✓ Linked:"), account.DisplayName, account.ExternalID)
			return nil
		})
	},
}

func linkHeadless(cmd *cobra.Command, sub *submission.Submitter) (submission.ConnectedAccount, error) {
	var form credentials.Form
	form.Paste(credentials.FieldAccountID, linkFlags.accountID)
	form.Paste(credentials.FieldAccessKey, linkFlags.accessKey)
	form.Paste(credentials.FieldAccessSecret, linkFlags.accessSecret)
	form.Paste(credentials.FieldDisplayName, linkFlags.displayName)

	account, err := sub.Submit(cmd.Context(), form)
	if err == nil {
		return account, nil
	}

	if errors.Is(err, submission.ErrNotReady) {
		v := credentials.Validate(form)
		for _, field := range credentials.Fields {
			if msg, ok := v.Errors[field]; ok {
				fmt.Printf("%s %s\n", palette.S().Error.Render(field.Label()+":"), msg)
			}
		}
		return submission.ConnectedAccount{}, fmt.Errorf("credentials are incomplete")
	}

	var f *submission.Failure
	if errors.As(err, &f) {
		fmt.Println(palette.S().Error.Render(f.Message))
		return submission.ConnectedAccount{}, fmt.Errorf("linking failed: %w", f.Err)
	}
	return submission.ConnectedAccount{}, err
}

func init() {
	linkCmd.Flags().StringVar(&linkFlags.accountID, "account-id", "", "7-digit broker account ID")
	linkCmd.Flags().StringVar(&linkFlags.accessKey, "access-key", "", "API access key (starts with "+credentials.AccessKeyPrefix+")")
	linkCmd.Flags().StringVar(&linkFlags.accessSecret, "access-secret", "", "API access secret")
	linkCmd.Flags().StringVar(&linkFlags.displayName, "display-name", "", "Optional display name for the account")
}
