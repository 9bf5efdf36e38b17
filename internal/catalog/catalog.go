// Package catalog defines the ordered steps of the account-linking wizard and
// the phases they are grouped into.
package catalog

import (
	"errors"
	"fmt"
)

// ErrUnknownStep is returned when a step id is not part of the catalog.
var ErrUnknownStep = errors.New("unknown step")

// Step identifiers with special behaviour in the default catalog.
const (
	StepApplyAccess = 3 // Sub-flow step: apply, accept terms, confirm
	StepLink        = 5 // Credential step
	StepLaunch      = 8 // Final step, offers to start automation
)

// StepDefinition is one immutable entry of the wizard sequence.
type StepDefinition struct {
	ID                int    `json:"id"`
	Title             string `json:"title"`
	RewardPoints      int    `json:"rewardPoints"`
	PhaseIndex        int    `json:"phaseIndex"`
	EstimatedDuration string `json:"estimatedDuration"`
}

// PhaseDefinition labels a contiguous run of steps.
type PhaseDefinition struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Catalog is the static step sequence plus its phase labels.
type Catalog struct {
	Steps  []StepDefinition
	Phases []PhaseDefinition
}

// Default returns the account-linking catalog.
func Default() *Catalog {
	return &Catalog{
		Phases: []PhaseDefinition{
			{ID: "prepare", Label: "Prepare"},
			{ID: "connect", Label: "Connect"},
			{ID: "launch", Label: "Launch"},
		},
		Steps: []StepDefinition{
			{ID: 1, Title: "Create your broker account", RewardPoints: 50, PhaseIndex: 0, EstimatedDuration: "5 min"},
			{ID: 2, Title: "Verify your identity", RewardPoints: 50, PhaseIndex: 0, EstimatedDuration: "10 min"},
			{ID: 3, Title: "Apply for API access", RewardPoints: 100, PhaseIndex: 1, EstimatedDuration: "3 min"},
			{ID: 4, Title: "Generate API keys", RewardPoints: 75, PhaseIndex: 1, EstimatedDuration: "2 min"},
			{ID: 5, Title: "Link your account", RewardPoints: 150, PhaseIndex: 1, EstimatedDuration: "2 min"},
			{ID: 6, Title: "Set risk limits", RewardPoints: 50, PhaseIndex: 2, EstimatedDuration: "3 min"},
			{ID: 7, Title: "Review automation settings", RewardPoints: 50, PhaseIndex: 2, EstimatedDuration: "2 min"},
			{ID: 8, Title: "Start automation", RewardPoints: 100, PhaseIndex: 2, EstimatedDuration: "1 min"},
		},
	}
}

// Validate checks the ordering rules: ids are exactly 1..N in order,
// phase indices never decrease, every phase owns at least one step and
// rewards are non-negative.
func (c *Catalog) Validate() error {
	if len(c.Steps) == 0 {
		return errors.New("catalog has no steps")
	}
	if len(c.Phases) == 0 {
		return errors.New("catalog has no phases")
	}

	seen := make([]bool, len(c.Phases))
	prevPhase := 0
	for i, s := range c.Steps {
		if s.ID != i+1 {
			return fmt.Errorf("step at position %d has id %d, want %d", i, s.ID, i+1)
		}
		if s.RewardPoints < 0 {
			return fmt.Errorf("step %d has negative reward %d", s.ID, s.RewardPoints)
		}
		if s.PhaseIndex < 0 || s.PhaseIndex >= len(c.Phases) {
			return fmt.Errorf("step %d references phase %d of %d", s.ID, s.PhaseIndex, len(c.Phases))
		}
		if s.PhaseIndex < prevPhase {
			return fmt.Errorf("step %d moves back from phase %d to %d", s.ID, prevPhase, s.PhaseIndex)
		}
		prevPhase = s.PhaseIndex
		seen[s.PhaseIndex] = true
	}
	for i, ok := range seen {
		if !ok {
			return fmt.Errorf("phase %q has no steps", c.Phases[i].ID)
		}
	}
	return nil
}

// Len returns the number of steps.
func (c *Catalog) Len() int {
	return len(c.Steps)
}

// Step looks up a step by id.
func (c *Catalog) Step(id int) (StepDefinition, error) {
	if id < 1 || id > len(c.Steps) {
		return StepDefinition{}, fmt.Errorf("%w: %d", ErrUnknownStep, id)
	}
	return c.Steps[id-1], nil
}

// IndexOf returns the 0-based position of a step id.
func (c *Catalog) IndexOf(id int) (int, error) {
	if _, err := c.Step(id); err != nil {
		return 0, err
	}
	return id - 1, nil
}

// At returns the step at a 0-based position.
func (c *Catalog) At(index int) (StepDefinition, bool) {
	if index < 0 || index >= len(c.Steps) {
		return StepDefinition{}, false
	}
	return c.Steps[index], true
}

// Final returns the last step of the sequence.
func (c *Catalog) Final() StepDefinition {
	return c.Steps[len(c.Steps)-1]
}

// TotalRewards sums the rewards of every step.
func (c *Catalog) TotalRewards() int {
	total := 0
	for _, s := range c.Steps {
		total += s.RewardPoints
	}
	return total
}
