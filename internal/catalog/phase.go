package catalog

// PhaseStatus is the derived state of a phase.
type PhaseStatus string

const (
	PhaseLocked    PhaseStatus = "locked"
	PhaseCurrent   PhaseStatus = "current"
	PhaseCompleted PhaseStatus = "completed"
)

// Phase is a phase label with its derived status.
type Phase struct {
	ID     string      `json:"id"`
	Label  string      `json:"label"`
	Steps  []int       `json:"steps"`
	Status PhaseStatus `json:"status"`
}

// DerivePhases computes phase statuses from the completion set and the
// current step index. It holds no state: equal inputs give equal output.
//
// A phase is completed when every one of its steps is in the completion set,
// current when any of its steps is the current step or completed, and locked
// otherwise.
func DerivePhases(c *Catalog, completed map[int]bool, currentIndex int) []Phase {
	phases := make([]Phase, len(c.Phases))
	for i, def := range c.Phases {
		phases[i] = Phase{ID: def.ID, Label: def.Label}
	}
	for _, s := range c.Steps {
		phases[s.PhaseIndex].Steps = append(phases[s.PhaseIndex].Steps, s.ID)
	}

	currentID := 0
	if s, ok := c.At(currentIndex); ok {
		currentID = s.ID
	}

	for i := range phases {
		all, touched := len(phases[i].Steps) > 0, false
		for _, id := range phases[i].Steps {
			if completed[id] {
				touched = true
			} else {
				all = false
			}
			if id == currentID {
				touched = true
			}
		}
		switch {
		case all:
			phases[i].Status = PhaseCompleted
		case touched:
			phases[i].Status = PhaseCurrent
		default:
			phases[i].Status = PhaseLocked
		}
	}
	return phases
}
