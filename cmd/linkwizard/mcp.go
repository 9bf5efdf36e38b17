package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/linkwizard/internal/logger"
	"github.com/mark3labs/linkwizard/internal/mcpserver"
	"github.com/mark3labs/linkwizard/internal/wizard"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the wizard as MCP tools",
	Long: `Start an MCP server over streamable HTTP on a random localhost port.
The wizard-status, wizard-complete-step, wizard-go-back, wizard-go-to-step and
wizard-restart tools drive the same saved progress as the CLI.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return withRuntime(ctx, func(rt *runtime) error {
			rt.observe(func(snap wizard.Snapshot) {
				fmt.Println(renderChange(snap))
			})

			srv := mcpserver.New(rt.wizard)
			if _, err := srv.Start(ctx); err != nil {
				return fmt.Errorf("failed to start MCP server: %w", err)
			}
			fmt.Printf("MCP server listening on %s\n", srv.URL())

			<-ctx.Done()
			fmt.Println("\nShutting down gracefully...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Stop(shutdownCtx); err != nil {
				logger.Warn("MCP server shutdown failed: %v", err)
			}
			return nil
		})
	},
}
