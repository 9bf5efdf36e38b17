package wizard

import (
	"errors"
	"fmt"

	"github.com/mark3labs/linkwizard/internal/catalog"
)

// ErrClosed is returned by operations on a closed controller.
var ErrClosed = errors.New("wizard closed")

// ErrNeedsCredentials is returned when a step can only be completed by a
// successful credential submission.
var ErrNeedsCredentials = errors.New("step is completed by linking credentials")

// CheckManualCompletion reports whether a user may mark a step complete
// directly, without going through its own interaction.
func CheckManualCompletion(id int) error {
	if id == catalog.StepLink {
		return fmt.Errorf("step %d: %w", id, ErrNeedsCredentials)
	}
	return nil
}
