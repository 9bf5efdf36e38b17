package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/linkwizard/internal/catalog"
	"github.com/mark3labs/linkwizard/internal/rewards"
	"github.com/mark3labs/linkwizard/internal/tui/theme"
	"github.com/mark3labs/linkwizard/internal/wizard"
)

var palette = theme.NewCatppuccinMocha()

func renderCelebration(c rewards.Celebration) string {
	return palette.S().Banner.Render(fmt.Sprintf("🎉 %s  +%d points", c.Reason, c.Points))
}

// renderPhases renders one line per phase with its status marker.
func renderPhases(phases []catalog.Phase) string {
	s := palette.S()
	lines := make([]string, 0, len(phases))
	for _, p := range phases {
		var line string
		switch p.Status {
		case catalog.PhaseCompleted:
			line = s.PhaseCompleted.Render("✓ " + p.Label)
		case catalog.PhaseCurrent:
			line = s.PhaseCurrent.Render("▸ " + p.Label)
		default:
			line = s.PhaseLocked.Render("· " + p.Label)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// renderChange is the one-line view printed when the wizard changes while
// serving MCP tools.
func renderChange(snap wizard.Snapshot) string {
	s := palette.S()
	line := fmt.Sprintf("step %d · %s · %d completed · %d points",
		snap.CurrentStep.ID, snap.CurrentStep.Title, len(snap.CompletedSteps), snap.SessionPoints)
	if snap.FullyCompleted {
		return s.Success.Render(line)
	}
	return s.Muted.Render(line)
}

// earnedStepPoints sums the rewards of the completed steps.
func earnedStepPoints(cat *catalog.Catalog, completed []int) int {
	total := 0
	for _, id := range completed {
		if step, err := cat.Step(id); err == nil {
			total += step.RewardPoints
		}
	}
	return total
}

// renderSnapshot renders the status view of the wizard.
func renderSnapshot(snap wizard.Snapshot, cat *catalog.Catalog) string {
	total := cat.Len()
	s := palette.S()
	var b strings.Builder

	step := snap.CurrentStep
	fmt.Fprintf(&b, "%s\n", s.Title.Render(fmt.Sprintf("Step %d of %d: %s", snap.CurrentStepIndex+1, total, step.Title)))
	fmt.Fprintf(&b, "%s\n\n", s.Muted.Render(fmt.Sprintf("about %s · %d points", step.EstimatedDuration, step.RewardPoints)))

	b.WriteString(renderPhases(snap.Phases))
	b.WriteString("\n\n")

	done := make([]string, len(snap.CompletedSteps))
	for i, id := range snap.CompletedSteps {
		done[i] = strconv.Itoa(id)
	}
	if len(done) == 0 {
		done = []string{"none"}
	}
	fmt.Fprintf(&b, "%s %s\n", s.Text.Render("Completed steps:"), strings.Join(done, ", "))
	fmt.Fprintf(&b, "%s %s\n", s.Text.Render("Step points:"),
		s.Points.Render(fmt.Sprintf("%d of %d", earnedStepPoints(cat, snap.CompletedSteps), cat.TotalRewards())))
	fmt.Fprintf(&b, "%s %s\n", s.Text.Render("Session points:"), s.Points.Render(strconv.Itoa(snap.SessionPoints)))

	if snap.FullyCompleted {
		b.WriteString(s.Success.Render("Setup complete. Your account is ready for automation.") + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
