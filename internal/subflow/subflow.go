// Package subflow models a wizard step that is finished by walking through a
// fixed sequence of internal stages, such as an application form on a
// third-party site. Stage state lives only in memory.
package subflow

import (
	"errors"
	"fmt"
)

// ErrGuard is matched by every GuardError.
var ErrGuard = errors.New("stage guard not satisfied")

// FlagConsent is set once the user accepts the API terms.
const FlagConsent = "terms_accepted"

// Stage is one internal stage of a sub-flow.
type Stage struct {
	Name        string
	Instruction string
	// Requires names a flag that must be set before advancing out of this stage.
	Requires string
	// Prompt is shown when Requires is unmet.
	Prompt string
}

// GuardError reports a rejected advance.
type GuardError struct {
	Stage  int
	Flag   string
	Prompt string
}

func (e *GuardError) Error() string {
	return fmt.Sprintf("stage %d: %s", e.Stage, e.Prompt)
}

func (e *GuardError) Is(target error) bool {
	return target == ErrGuard
}

// Flow is a forward-only stage counter with per-transition guards.
type Flow struct {
	stages []Stage
	stage  int
	flags  map[string]bool
}

// New creates a flow at stage 0. It panics without stages.
func New(stages ...Stage) *Flow {
	if len(stages) == 0 {
		panic("subflow: at least one stage is required")
	}
	return &Flow{stages: stages, flags: make(map[string]bool)}
}

// ApplyForAccess is the "apply for API access" sub-flow.
func ApplyForAccess() *Flow {
	return New(
		Stage{
			Name:        "apply",
			Instruction: "Open the API access page in your broker dashboard and click Apply.",
		},
		Stage{
			Name:        "accept-terms",
			Instruction: "Read and accept the API terms of service.",
			Requires:    FlagConsent,
			Prompt:      "Accept the API terms of service to continue.",
		},
		Stage{
			Name:        "confirm",
			Instruction: "Save the application. Then confirm this step.",
		},
	)
}

// Stage returns the 0-based current stage.
func (f *Flow) Stage() int {
	return f.stage
}

// Current returns the current stage definition.
func (f *Flow) Current() Stage {
	return f.stages[f.stage]
}

// Len returns the number of stages.
func (f *Flow) Len() int {
	return len(f.stages)
}

// Set records a flag consulted by guards.
func (f *Flow) Set(flag string, value bool) {
	f.flags[flag] = value
}

// Flag reads a flag.
func (f *Flow) Flag(flag string) bool {
	return f.flags[flag]
}

// Advance moves one stage forward, clamped at the last stage. A guard that is
// not satisfied leaves the stage unchanged and returns a *GuardError.
func (f *Flow) Advance() error {
	cur := f.stages[f.stage]
	if cur.Requires != "" && !f.flags[cur.Requires] {
		return &GuardError{Stage: f.stage, Flag: cur.Requires, Prompt: cur.Prompt}
	}
	if f.stage < len(f.stages)-1 {
		f.stage++
	}
	return nil
}

// Done reports whether the terminal stage is reached. It does not complete
// the parent step; the user still confirms that explicitly.
func (f *Flow) Done() bool {
	return f.stage == len(f.stages)-1
}

// Reset returns to stage 0 and clears flags.
func (f *Flow) Reset() {
	f.stage = 0
	f.flags = make(map[string]bool)
}
