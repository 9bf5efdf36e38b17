package main

import (
	"context"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/mark3labs/linkwizard/internal/logger"
	"github.com/mark3labs/linkwizard/internal/tui/theme"
	"github.com/spf13/cobra"
)

const (
	logoText1 = "█   █ █▄ █ █▄▀ █ █ █ █ ▀█ ▄▀█ █▀█ █▀▄"
	logoText2 = "█▄▄ █ █ ▀█ █ █ ▀▄▀▄▀ █ █▄ █▀█ █▀▄ █▄▀"
)

// Version set via ldflags during build
var version = "dev"

// rootFlags override values loaded from config files and the environment.
var rootFlags struct {
	dataDir   string
	store     string
	ledger    string
	transport string
	logLevel  string
}

func main() {
	defer func() { _ = logger.Close() }()

	if err := fang.Execute(context.Background(), rootCmd, fang.WithVersion(version)); err != nil {
		logger.Error("Command execution failed: %v", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "linkwizard",
	Short: "Guided setup wizard for linking a broker account",
}

func renderLogo() string {
	t := theme.NewCatppuccinMocha()
	line1 := theme.ApplyGradient(logoText1, t.Primary, t.Secondary)
	line2 := theme.ApplyGradient(logoText2, t.Primary, t.Secondary)
	return strings.Join([]string{line1, line2}, "\n")
}

func init() {
	rootCmd.Long = renderLogo() + `

linkwizard walks you through linking a brokerage account to the automation
service: prepare, apply for API access, link credentials and launch. Progress
is saved between runs and every completed step earns points.`

	rootCmd.PersistentFlags().StringVar(&rootFlags.dataDir, "data-dir", "", "Data directory (default: from config or .linkwizard)")
	rootCmd.PersistentFlags().StringVar(&rootFlags.store, "store", "", "Progress store: file, nats, sqlite or memory")
	rootCmd.PersistentFlags().StringVar(&rootFlags.ledger, "ledger", "", "Points ledger: nats or memory")
	rootCmd.PersistentFlags().StringVar(&rootFlags.transport, "transport", "", "Submission transport: http or nats")
	rootCmd.PersistentFlags().StringVar(&rootFlags.logLevel, "log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(backCmd)
	rootCmd.AddCommand(gotoCmd)
	rootCmd.AddCommand(restartCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(launchCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(setupCmd)
}
