package main

import (
	"errors"
	"testing"

	"github.com/mark3labs/linkwizard/internal/catalog"
	"github.com/mark3labs/linkwizard/internal/rewards"
	"github.com/mark3labs/linkwizard/internal/wizard"
	"github.com/stretchr/testify/require"
)

func TestParseStep(t *testing.T) {
	id, err := parseStep("4")
	require.NoError(t, err)
	require.Equal(t, 4, id)

	_, err = parseStep("four")
	require.Error(t, err)

	_, err = parseStep("42")
	require.True(t, errors.Is(err, catalog.ErrUnknownStep))
}

func TestRenderSnapshot(t *testing.T) {
	cat := catalog.Default()
	completed := map[int]bool{1: true, 2: true}
	step, _ := cat.At(2)

	out := renderSnapshot(wizard.Snapshot{
		CurrentStepIndex: 2,
		CurrentStep:      step,
		CompletedSteps:   []int{1, 2},
		Phases:           catalog.DerivePhases(cat, completed, 2),
		SessionPoints:    75,
	}, cat)

	require.Contains(t, out, "Step 3 of 8")
	require.Contains(t, out, step.Title)
	require.Contains(t, out, "1, 2")
	require.Contains(t, out, "75")
	require.Contains(t, out, "100 of 625")
	require.NotContains(t, out, "Setup complete")
}

func TestRenderCelebration(t *testing.T) {
	out := renderCelebration(rewards.Celebration{Reason: "account linked", Points: 150})
	require.Contains(t, out, "account linked")
	require.Contains(t, out, "+150 points")
}

func TestRenderChange(t *testing.T) {
	cat := catalog.Default()
	step, _ := cat.At(4)
	out := renderChange(wizard.Snapshot{
		CurrentStep:    step,
		CompletedSteps: []int{1, 2, 3, 4},
		SessionPoints:  275,
	})
	require.Contains(t, out, "step 5")
	require.Contains(t, out, "4 completed")
	require.Contains(t, out, "275 points")
}
