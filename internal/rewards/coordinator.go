package rewards

import (
	"context"
	"sync"
	"time"

	"github.com/mark3labs/linkwizard/internal/catalog"
	"github.com/mark3labs/linkwizard/internal/logger"
	"github.com/mark3labs/linkwizard/internal/schedule"
)

// Celebration describes a reward moment worth showing off.
type Celebration struct {
	Reason string
	Points int
}

// CoordinatorOptions configures a Coordinator.
type CoordinatorOptions struct {
	Ledger          Ledger
	Scheduler       schedule.Scheduler
	Identity        string
	CompletionBonus int
	BonusDelay      time.Duration
	OnCelebrate     func(Celebration)
}

// Coordinator turns step and wizard completion into ledger credits and keeps
// the session accumulator shown in the wizard.
//
// Ledger failures are logged and swallowed; the session accumulator is
// updated regardless.
type Coordinator struct {
	opts CoordinatorOptions

	mu        sync.Mutex
	session   int
	bonusTask schedule.Task
}

// NewCoordinator creates a coordinator. A nil ledger credits nothing.
func NewCoordinator(opts CoordinatorOptions) *Coordinator {
	if opts.Scheduler == nil {
		opts.Scheduler = schedule.NewReal()
	}
	return &Coordinator{opts: opts}
}

// AwardStep credits a step's reward, keyed by step id.
func (c *Coordinator) AwardStep(ctx context.Context, step catalog.StepDefinition) {
	c.credit(ctx, step.RewardPoints, StepReasonKey(c.opts.Identity, step))
}

// AwardCompletionBonus schedules the completion bonus after the bonus delay.
// A second call while one is pending is ignored.
func (c *Coordinator) AwardCompletionBonus(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bonusTask != nil {
		return
	}

	bg := context.WithoutCancel(ctx)
	c.bonusTask = c.opts.Scheduler.AfterFunc(c.opts.BonusDelay, func() {
		c.credit(bg, c.opts.CompletionBonus, BonusReasonKey(c.opts.Identity))
		c.mu.Lock()
		c.bonusTask = nil
		c.mu.Unlock()
		if c.opts.OnCelebrate != nil {
			c.opts.OnCelebrate(Celebration{Reason: "wizard complete", Points: c.opts.CompletionBonus})
		}
	})
	logger.Debug("Completion bonus scheduled in %s", c.opts.BonusDelay)
}

func (c *Coordinator) credit(ctx context.Context, amount int, reasonKey string) {
	if c.opts.Ledger != nil {
		if err := c.opts.Ledger.Award(ctx, amount, reasonKey); err != nil {
			logger.Warn("Ledger award %s failed: %v", reasonKey, err)
		}
	}

	c.mu.Lock()
	c.session += amount
	c.mu.Unlock()
	logger.Debug("Credited %d points for %s", amount, reasonKey)
}

// SessionPoints returns the points earned in this session.
func (c *Coordinator) SessionPoints() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// BonusPending reports whether a completion bonus is waiting to fire.
func (c *Coordinator) BonusPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bonusTask != nil
}

// Reset clears the session accumulator and cancels a pending bonus. Points
// already sent to the ledger are kept.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = 0
	c.stopBonus()
}

// Close cancels a pending bonus.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopBonus()
}

func (c *Coordinator) stopBonus() {
	if c.bonusTask != nil {
		c.bonusTask.Stop()
		c.bonusTask = nil
	}
}
