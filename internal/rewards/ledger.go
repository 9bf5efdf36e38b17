// Package rewards credits wizard points to an external ledger and tracks
// what the current session has earned.
package rewards

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gosimple/slug"
	"github.com/mark3labs/linkwizard/internal/catalog"
)

// Ledger credits points. reasonKey is unique per (reason, caller) so a
// retried award is credited once.
type Ledger interface {
	Award(ctx context.Context, amount int, reasonKey string) error
}

// StepReasonKey returns the idempotency key for a step reward.
// Example: "3f2a...:step:5:link-your-account"
func StepReasonKey(identity string, step catalog.StepDefinition) string {
	return fmt.Sprintf("%s:step:%d:%s", identity, step.ID, slug.Make(step.Title))
}

// BonusReasonKey returns the idempotency key for the wizard completion bonus.
func BonusReasonKey(identity string) string {
	return identity + ":wizard:complete"
}

// Award is one credited entry.
type Award struct {
	ReasonKey string    `json:"reason_key"`
	Amount    int       `json:"amount"`
	At        time.Time `json:"at"`
}

// Balance is the reduced state of a ledger.
type Balance struct {
	Total  int     `json:"total"`
	Awards []Award `json:"awards"`
}

// apply adds an award unless its reason key was already credited.
func (b *Balance) apply(a Award, seen map[string]bool) {
	if seen[a.ReasonKey] {
		return
	}
	seen[a.ReasonKey] = true
	b.Total += a.Amount
	b.Awards = append(b.Awards, a)
}

// MemoryLedger is an in-process ledger. Duplicate reason keys are ignored.
type MemoryLedger struct {
	mu      sync.Mutex
	balance Balance
	seen    map[string]bool
	calls   int
}

// NewMemoryLedger creates an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{seen: make(map[string]bool)}
}

func (l *MemoryLedger) Award(_ context.Context, amount int, reasonKey string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	l.balance.apply(Award{ReasonKey: reasonKey, Amount: amount, At: time.Now()}, l.seen)
	return nil
}

// Balance returns a copy of the credited awards.
func (l *MemoryLedger) Balance() Balance {
	l.mu.Lock()
	defer l.mu.Unlock()
	b := Balance{Total: l.balance.Total, Awards: make([]Award, len(l.balance.Awards))}
	copy(b.Awards, l.balance.Awards)
	return b
}

// Calls returns how many times Award was invoked, duplicates included.
func (l *MemoryLedger) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}
