package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/mark3labs/linkwizard/internal/wizard"
	"github.com/mark3labs/mcp-go/mcp"
)

// stepArg extracts the integer "step" argument. JSON numbers arrive as
// float64.
func stepArg(request mcp.CallToolRequest) (int, string) {
	args := request.GetArguments()
	if args == nil {
		return 0, "no arguments provided"
	}
	raw, ok := args["step"]
	if !ok {
		return 0, "missing 'step' parameter"
	}
	f, ok := raw.(float64)
	if !ok || f != math.Trunc(f) {
		return 0, "'step' must be an integer"
	}
	return int(f), ""
}

func (s *Server) statusResult() (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(s.wizard.Snapshot(), "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode status: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.statusResult()
}

func (s *Server) handleCompleteStep(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, msg := stepArg(request)
	if msg != "" {
		return mcp.NewToolResultError(msg), nil
	}
	if err := wizard.CheckManualCompletion(id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.wizard.CompleteStep(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.statusResult()
}

func (s *Server) handleGoBack(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.wizard.GoBack(ctx)
	return s.statusResult()
}

func (s *Server) handleGoToStep(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, msg := stepArg(request)
	if msg != "" {
		return mcp.NewToolResultError(msg), nil
	}
	if err := s.wizard.GoToStep(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.statusResult()
}

func (s *Server) handleRestart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	confirm, _ := request.GetArguments()["confirm"].(bool)
	if !confirm {
		return mcp.NewToolResultError("restart requires confirm=true"), nil
	}
	s.wizard.Restart(ctx)
	return s.statusResult()
}
