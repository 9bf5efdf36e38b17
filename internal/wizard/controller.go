// Package wizard sequences the account-linking steps. The Controller is the
// only owner of the current step and the completion set.
package wizard

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/mark3labs/linkwizard/internal/catalog"
	"github.com/mark3labs/linkwizard/internal/logger"
	"github.com/mark3labs/linkwizard/internal/progress"
	"github.com/mark3labs/linkwizard/internal/rewards"
	"github.com/mark3labs/linkwizard/internal/schedule"
	"github.com/mark3labs/linkwizard/internal/subflow"
)

// DefaultAdvanceDelay is how long a completed step stays on screen before the
// view moves on.
const DefaultAdvanceDelay = 1200 * time.Millisecond

// Options configures a Controller.
type Options struct {
	Catalog   *catalog.Catalog
	Tracker   *progress.Tracker
	Rewards   *rewards.Coordinator
	Scheduler schedule.Scheduler

	AdvanceDelay time.Duration

	// OnStartAutomation is fired when the user enables automation at the
	// final step.
	OnStartAutomation func()
	// OnChange is called after every state change, outside the lock.
	OnChange func(Snapshot)

	Now func() time.Time
}

// Snapshot is a read-only view of the controller for presenters.
type Snapshot struct {
	CurrentStepIndex int                    `json:"currentStepIndex"`
	CurrentStep      catalog.StepDefinition `json:"currentStep"`
	CompletedSteps   []int                  `json:"completedSteps"`
	Phases           []catalog.Phase        `json:"phases"`
	SessionPoints    int                    `json:"sessionPoints"`
	FullyCompleted   bool                   `json:"fullyCompleted"`
	AdvancePending   bool                   `json:"advancePending"`
	BonusPending     bool                   `json:"bonusPending"`
	SubFlowStage     int                    `json:"subFlowStage"`
	StartedAt        time.Time              `json:"startedAt"`
	LastVisitedAt    time.Time              `json:"lastVisitedAt"`
}

// Controller owns wizard progress. All methods are safe for concurrent use;
// timer callbacks and collaborator calls run outside the lock.
type Controller struct {
	opts Options

	mu             sync.Mutex
	progress       progress.Progress
	completed      map[int]bool
	fullyCompleted bool
	subflow        *subflow.Flow
	advanceTask    schedule.Task
	advanceGen     int
	closed         bool
}

// New creates a controller in the fresh state. Call LoadProgress to restore
// saved progress.
func New(opts Options) (*Controller, error) {
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if err := opts.Catalog.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	if opts.Tracker == nil {
		opts.Tracker = progress.NewTracker(nil, opts.Catalog)
	}
	if opts.Scheduler == nil {
		opts.Scheduler = schedule.NewReal()
	}
	if opts.Rewards == nil {
		opts.Rewards = rewards.NewCoordinator(rewards.CoordinatorOptions{Scheduler: opts.Scheduler})
	}
	if opts.AdvanceDelay == 0 {
		opts.AdvanceDelay = DefaultAdvanceDelay
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Controller{
		opts:      opts,
		progress:  progress.Fresh(opts.Now()),
		completed: make(map[int]bool),
		subflow:   subflow.ApplyForAccess(),
	}, nil
}

// LoadProgress restores saved progress. Absent or malformed data starts a
// fresh session. Either way the visit is recorded and saved.
func (c *Controller) LoadProgress(ctx context.Context) {
	now := c.opts.Now()
	p, ok := c.opts.Tracker.Load(ctx)
	if !ok {
		p = progress.Fresh(now)
		logger.Debug("No saved progress, starting fresh")
	} else {
		logger.Debug("Restored progress: step index %d, completed %v", p.CurrentStepIndex, p.CompletedSteps)
	}
	if p.StartedAt.IsZero() {
		p.StartedAt = now
	}
	p.LastVisitedAt = now
	fully := c.opts.Tracker.Completed(ctx)

	c.mu.Lock()
	c.cancelAdvanceLocked()
	c.progress = p
	c.completed = make(map[int]bool, len(p.CompletedSteps))
	for _, id := range p.CompletedSteps {
		c.completed[id] = true
	}
	c.fullyCompleted = fully
	c.saveLocked(ctx)
	c.mu.Unlock()

	c.notify()
}

// CompleteStep marks a step complete, credits its reward and, unless it is
// the final step, advances the view after the advance delay. Completing an
// already completed step does nothing.
func (c *Controller) CompleteStep(ctx context.Context, id int) error {
	step, err := c.opts.Catalog.Step(id)
	if err != nil {
		return err
	}
	index, _ := c.opts.Catalog.IndexOf(id)
	final := c.opts.Catalog.Final().ID == id

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.completed[id] {
		c.mu.Unlock()
		logger.Debug("Step %d already completed", id)
		return nil
	}
	c.completed[id] = true
	c.progress.CompletedSteps = completedIDs(c.completed)
	c.progress.LastVisitedAt = c.opts.Now()
	c.saveLocked(ctx)

	bonus := final && !c.fullyCompleted
	if bonus {
		c.fullyCompleted = true
	}
	if !final {
		c.scheduleAdvanceLocked(index + 1)
	}
	c.mu.Unlock()

	logger.Info("Completed step %d: %s", id, step.Title)
	c.opts.Rewards.AwardStep(ctx, step)
	if bonus {
		c.opts.Tracker.MarkCompleted(ctx)
		c.opts.Rewards.AwardCompletionBonus(ctx)
	}
	c.notify()
	return nil
}

// GoBack moves to the previous step. It does nothing on the first step and
// never changes the completion set.
func (c *Controller) GoBack(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.cancelAdvanceLocked()
	if c.progress.CurrentStepIndex == 0 {
		c.mu.Unlock()
		return
	}
	c.progress.CurrentStepIndex--
	c.progress.LastVisitedAt = c.opts.Now()
	c.saveLocked(ctx)
	c.mu.Unlock()

	c.notify()
}

// GoToStep jumps to any step. Earlier steps need not be complete.
func (c *Controller) GoToStep(ctx context.Context, id int) error {
	index, err := c.opts.Catalog.IndexOf(id)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.cancelAdvanceLocked()
	c.progress.CurrentStepIndex = index
	c.progress.LastVisitedAt = c.opts.Now()
	c.saveLocked(ctx)
	c.mu.Unlock()

	c.notify()
	return nil
}

// Restart clears progress, the session points and the sub-flow, and erases
// saved progress. Points already credited to the ledger stay credited.
func (c *Controller) Restart(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.cancelAdvanceLocked()
	c.progress = progress.Fresh(c.opts.Now())
	c.completed = make(map[int]bool)
	c.fullyCompleted = false
	c.subflow.Reset()
	c.mu.Unlock()

	c.opts.Rewards.Reset()
	c.opts.Tracker.Clear(ctx)
	logger.Info("Wizard restarted")
	c.notify()
}

// StartAutomation fires the start-automation callback asynchronously.
func (c *Controller) StartAutomation() {
	if c.opts.OnStartAutomation == nil {
		return
	}
	c.opts.Scheduler.AfterFunc(0, c.opts.OnStartAutomation)
}

// SubFlow returns the sub-flow of the apply-for-access step.
func (c *Controller) SubFlow() *subflow.Flow {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subflow
}

// Completed reports whether a step is in the completion set.
func (c *Controller) Completed(id int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completed[id]
}

// CurrentStep returns the step being shown.
func (c *Controller) CurrentStep() catalog.StepDefinition {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, _ := c.opts.Catalog.At(c.progress.CurrentStepIndex)
	return s
}

// Phases derives phase statuses from the current state.
func (c *Controller) Phases() []catalog.Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return catalog.DerivePhases(c.opts.Catalog, c.completed, c.progress.CurrentStepIndex)
}

// SessionPoints returns the points earned since the session started.
func (c *Controller) SessionPoints() int {
	return c.opts.Rewards.SessionPoints()
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	step, _ := c.opts.Catalog.At(c.progress.CurrentStepIndex)
	snap := Snapshot{
		CurrentStepIndex: c.progress.CurrentStepIndex,
		CurrentStep:      step,
		CompletedSteps:   slices.Clone(c.progress.CompletedSteps),
		Phases:           catalog.DerivePhases(c.opts.Catalog, c.completed, c.progress.CurrentStepIndex),
		FullyCompleted:   c.fullyCompleted,
		AdvancePending:   c.advanceTask != nil,
		SubFlowStage:     c.subflow.Stage(),
		StartedAt:        c.progress.StartedAt,
		LastVisitedAt:    c.progress.LastVisitedAt,
	}
	c.mu.Unlock()

	snap.SessionPoints = c.opts.Rewards.SessionPoints()
	snap.BonusPending = c.opts.Rewards.BonusPending()
	return snap
}

// Close stops pending timers. The controller must not be used afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.cancelAdvanceLocked()
	c.mu.Unlock()
	c.opts.Rewards.Close()
}

func (c *Controller) scheduleAdvanceLocked(target int) {
	c.cancelAdvanceLocked()
	if target >= c.opts.Catalog.Len() {
		target = c.opts.Catalog.Len() - 1
	}
	gen := c.advanceGen
	c.advanceTask = c.opts.Scheduler.AfterFunc(c.opts.AdvanceDelay, func() {
		c.advance(gen, target)
	})
}

func (c *Controller) advance(gen, target int) {
	c.mu.Lock()
	if c.closed || gen != c.advanceGen {
		c.mu.Unlock()
		return
	}
	c.advanceTask = nil
	c.progress.CurrentStepIndex = target
	c.progress.LastVisitedAt = c.opts.Now()
	c.saveLocked(context.Background())
	c.mu.Unlock()

	logger.Debug("Advanced to step index %d", target)
	c.notify()
}

// cancelAdvanceLocked drops a pending advance. Bumping the generation makes
// a callback that already started a no-op.
func (c *Controller) cancelAdvanceLocked() {
	c.advanceGen++
	if c.advanceTask != nil {
		c.advanceTask.Stop()
		c.advanceTask = nil
	}
}

func (c *Controller) saveLocked(ctx context.Context) {
	p := c.progress
	p.CompletedSteps = slices.Clone(p.CompletedSteps)
	c.opts.Tracker.Save(ctx, p)
}

func (c *Controller) notify() {
	if c.opts.OnChange != nil {
		c.opts.OnChange(c.Snapshot())
	}
}

func completedIDs(set map[int]bool) []int {
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
