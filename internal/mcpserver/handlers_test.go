package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/mark3labs/linkwizard/internal/schedule"
	"github.com/mark3labs/linkwizard/internal/wizard"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"
)

func setupTestServer(t *testing.T) (*Server, *schedule.Manual) {
	t.Helper()
	sched := schedule.NewManual()
	ctl, err := wizard.New(wizard.Options{Scheduler: sched})
	require.NoError(t, err)
	t.Cleanup(ctl.Close)
	ctl.LoadProgress(context.Background())
	return New(ctl), sched
}

func call(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	}
}

// extractText extracts text from CallToolResult.Content[0]
func extractText(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return ""
	}
	if textContent, ok := result.Content[0].(mcp.TextContent); ok {
		return textContent.Text
	}
	return ""
}

func decodeSnapshot(t *testing.T, result *mcp.CallToolResult) wizard.Snapshot {
	t.Helper()
	require.False(t, result.IsError, extractText(result))
	var snap wizard.Snapshot
	require.NoError(t, json.Unmarshal([]byte(extractText(result)), &snap))
	return snap
}

func TestHandleStatus(t *testing.T) {
	srv, _ := setupTestServer(t)
	res, err := srv.handleStatus(context.Background(), call("wizard-status", nil))
	require.NoError(t, err)

	snap := decodeSnapshot(t, res)
	require.Equal(t, 1, snap.CurrentStep.ID)
	require.Len(t, snap.Phases, 3)
}

func TestHandleCompleteStep(t *testing.T) {
	srv, sched := setupTestServer(t)
	ctx := context.Background()

	res, err := srv.handleCompleteStep(ctx, call("wizard-complete-step", map[string]any{"step": float64(1)}))
	require.NoError(t, err)
	snap := decodeSnapshot(t, res)
	require.Equal(t, []int{1}, snap.CompletedSteps)
	require.Equal(t, 50, snap.SessionPoints)
	require.True(t, snap.AdvancePending)

	sched.Advance(wizard.DefaultAdvanceDelay)
	res, err = srv.handleStatus(ctx, call("wizard-status", nil))
	require.NoError(t, err)
	require.Equal(t, 2, decodeSnapshot(t, res).CurrentStep.ID)
}

func TestHandleCompleteStepErrors(t *testing.T) {
	srv, _ := setupTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"no arguments", nil, "no arguments provided"},
		{"missing step", map[string]any{}, "missing 'step' parameter"},
		{"not a number", map[string]any{"step": "two"}, "'step' must be an integer"},
		{"fraction", map[string]any{"step": 1.5}, "'step' must be an integer"},
		{"unknown step", map[string]any{"step": float64(42)}, "unknown step"},
		{"credential step", map[string]any{"step": float64(5)}, "linking credentials"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := srv.handleCompleteStep(ctx, call("wizard-complete-step", tt.args))
			require.NoError(t, err)
			require.True(t, res.IsError)
			require.Contains(t, extractText(res), tt.want)
		})
	}
}

func TestHandleNavigation(t *testing.T) {
	srv, _ := setupTestServer(t)
	ctx := context.Background()

	res, err := srv.handleGoToStep(ctx, call("wizard-go-to-step", map[string]any{"step": float64(6)}))
	require.NoError(t, err)
	require.Equal(t, 5, decodeSnapshot(t, res).CurrentStepIndex)

	res, err = srv.handleGoBack(ctx, call("wizard-go-back", nil))
	require.NoError(t, err)
	require.Equal(t, 4, decodeSnapshot(t, res).CurrentStepIndex)

	res, err = srv.handleGoToStep(ctx, call("wizard-go-to-step", map[string]any{"step": float64(0)}))
	require.NoError(t, err)
	require.True(t, res.IsError)
}

func TestHandleRestart(t *testing.T) {
	srv, _ := setupTestServer(t)
	ctx := context.Background()

	_, err := srv.handleCompleteStep(ctx, call("wizard-complete-step", map[string]any{"step": float64(2)}))
	require.NoError(t, err)

	res, err := srv.handleRestart(ctx, call("wizard-restart", map[string]any{"confirm": false}))
	require.NoError(t, err)
	require.True(t, res.IsError)

	res, err = srv.handleRestart(ctx, call("wizard-restart", map[string]any{"confirm": true}))
	require.NoError(t, err)
	snap := decodeSnapshot(t, res)
	require.Empty(t, snap.CompletedSteps)
	require.Zero(t, snap.SessionPoints)
}

func TestServerStartStop(t *testing.T) {
	srv, _ := setupTestServer(t)
	ctx := context.Background()

	port, err := srv.Start(ctx)
	require.NoError(t, err)
	require.NotZero(t, port)
	require.Equal(t, fmt.Sprintf("http://localhost:%d/mcp", port), srv.URL())

	_, err = srv.Start(ctx)
	require.Error(t, err, "second Start fails")

	require.NoError(t, srv.Stop(ctx))
	require.NoError(t, srv.Stop(ctx), "stopping twice is a no-op")
}
