package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

// registerTools registers the wizard navigation tools.
func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("wizard-status",
			mcp.WithDescription("Show the current step, phase statuses, completed steps and session points"),
		),
		s.handleStatus,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("wizard-complete-step",
			mcp.WithDescription("Mark a step complete and credit its reward. Completing a step twice has no effect. The account-linking step is completed by linking credentials instead."),
			mcp.WithNumber("step", mcp.Required(), mcp.Description("Step id (1-based)")),
		),
		s.handleCompleteStep,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("wizard-go-back",
			mcp.WithDescription("Move to the previous step"),
		),
		s.handleGoBack,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("wizard-go-to-step",
			mcp.WithDescription("Jump to any step; earlier steps need not be complete"),
			mcp.WithNumber("step", mcp.Required(), mcp.Description("Step id (1-based)")),
		),
		s.handleGoToStep,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("wizard-restart",
			mcp.WithDescription("Clear all progress and start over. Points already credited are kept."),
			mcp.WithBoolean("confirm", mcp.Required(), mcp.Description("Must be true")),
		),
		s.handleRestart,
	)
}
