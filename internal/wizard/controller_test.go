package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/linkwizard/internal/catalog"
	"github.com/mark3labs/linkwizard/internal/progress"
	"github.com/mark3labs/linkwizard/internal/rewards"
	"github.com/mark3labs/linkwizard/internal/schedule"
	"github.com/mark3labs/linkwizard/internal/subflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testBonus      = 250
	testBonusDelay = 2 * time.Second
)

type harness struct {
	ctl    *Controller
	cat    *catalog.Catalog
	sched  *schedule.Manual
	store  progress.Store
	ledger *rewards.MemoryLedger

	mu           sync.Mutex
	celebrations []rewards.Celebration
	automations  int
}

func newHarness(t *testing.T, store progress.Store) *harness {
	t.Helper()
	h := &harness{
		cat:    catalog.Default(),
		sched:  schedule.NewManual(),
		store:  store,
		ledger: rewards.NewMemoryLedger(),
	}

	coord := rewards.NewCoordinator(rewards.CoordinatorOptions{
		Ledger:          h.ledger,
		Scheduler:       h.sched,
		Identity:        "tester",
		CompletionBonus: testBonus,
		BonusDelay:      testBonusDelay,
		OnCelebrate: func(c rewards.Celebration) {
			h.mu.Lock()
			h.celebrations = append(h.celebrations, c)
			h.mu.Unlock()
		},
	})

	ctl, err := New(Options{
		Catalog:      h.cat,
		Tracker:      progress.NewTracker(store, h.cat),
		Rewards:      coord,
		Scheduler:    h.sched,
		AdvanceDelay: DefaultAdvanceDelay,
		OnStartAutomation: func() {
			h.mu.Lock()
			h.automations++
			h.mu.Unlock()
		},
	})
	require.NoError(t, err)
	t.Cleanup(ctl.Close)

	ctl.LoadProgress(context.Background())
	h.ctl = ctl
	return h
}

// completeAndWait completes a step and lets the advance delay elapse.
func (h *harness) completeAndWait(t *testing.T, id int) {
	t.Helper()
	require.NoError(t, h.ctl.CompleteStep(context.Background(), id))
	h.sched.Advance(DefaultAdvanceDelay)
}

func savedProgress(t *testing.T, store progress.Store) map[string]any {
	t.Helper()
	raw, err := store.Get(context.Background(), progress.KeyProgress)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

func TestFreshSession(t *testing.T) {
	h := newHarness(t, progress.NewMemory())
	snap := h.ctl.Snapshot()

	require.Equal(t, 0, snap.CurrentStepIndex)
	require.Equal(t, 1, snap.CurrentStep.ID)
	require.Empty(t, snap.CompletedSteps)
	require.Zero(t, snap.SessionPoints)
	require.False(t, snap.FullyCompleted)
	require.False(t, snap.StartedAt.IsZero())

	// The fresh session is saved on load.
	saved := savedProgress(t, h.store)
	require.EqualValues(t, 0, saved["currentStepIndex"])
}

func TestCompleteStepIsIdempotent(t *testing.T) {
	h := newHarness(t, progress.NewMemory())
	ctx := context.Background()

	require.NoError(t, h.ctl.CompleteStep(ctx, 1))
	require.NoError(t, h.ctl.CompleteStep(ctx, 1))

	snap := h.ctl.Snapshot()
	require.Equal(t, []int{1}, snap.CompletedSteps)
	require.Equal(t, 50, snap.SessionPoints)
	require.Equal(t, 1, h.ledger.Calls())
	require.Equal(t, 1, h.sched.Pending(), "only one advance is scheduled")
}

func TestCompleteStepUnknown(t *testing.T) {
	h := newHarness(t, progress.NewMemory())
	err := h.ctl.CompleteStep(context.Background(), 99)
	require.ErrorIs(t, err, catalog.ErrUnknownStep)
	require.Zero(t, h.ledger.Calls())
}

func TestCompleteStepAdvancesAfterDelay(t *testing.T) {
	h := newHarness(t, progress.NewMemory())
	require.NoError(t, h.ctl.CompleteStep(context.Background(), 1))

	// Saved synchronously, before the view moves.
	saved := savedProgress(t, h.store)
	require.EqualValues(t, 0, saved["currentStepIndex"])
	require.Equal(t, []any{float64(1)}, saved["completedSteps"])
	require.True(t, h.ctl.Snapshot().AdvancePending)

	h.sched.Advance(DefaultAdvanceDelay - time.Millisecond)
	require.Equal(t, 0, h.ctl.Snapshot().CurrentStepIndex)

	h.sched.Advance(time.Millisecond)
	snap := h.ctl.Snapshot()
	require.Equal(t, 1, snap.CurrentStepIndex)
	require.False(t, snap.AdvancePending)
	require.EqualValues(t, 1, savedProgress(t, h.store)["currentStepIndex"])
}

func TestCompletingEarlierStepAdvancesPastIt(t *testing.T) {
	h := newHarness(t, progress.NewMemory())
	ctx := context.Background()
	require.NoError(t, h.ctl.GoToStep(ctx, 6))

	h.completeAndWait(t, 2)
	require.Equal(t, 2, h.ctl.Snapshot().CurrentStepIndex)
}

func TestGoBack(t *testing.T) {
	h := newHarness(t, progress.NewMemory())
	ctx := context.Background()

	h.ctl.GoBack(ctx)
	require.Equal(t, 0, h.ctl.Snapshot().CurrentStepIndex, "going back from the first step does nothing")

	h.completeAndWait(t, 1)
	h.completeAndWait(t, 2)
	require.Equal(t, 2, h.ctl.Snapshot().CurrentStepIndex)

	h.ctl.GoBack(ctx)
	snap := h.ctl.Snapshot()
	require.Equal(t, 1, snap.CurrentStepIndex)
	require.Equal(t, []int{1, 2}, snap.CompletedSteps)
	require.EqualValues(t, 1, savedProgress(t, h.store)["currentStepIndex"])
}

func TestNavigationCancelsPendingAdvance(t *testing.T) {
	h := newHarness(t, progress.NewMemory())
	ctx := context.Background()

	require.NoError(t, h.ctl.CompleteStep(ctx, 1))
	require.NoError(t, h.ctl.GoToStep(ctx, 4))
	h.sched.Advance(time.Minute)
	require.Equal(t, 3, h.ctl.Snapshot().CurrentStepIndex)

	require.NoError(t, h.ctl.CompleteStep(ctx, 4))
	h.ctl.GoBack(ctx)
	h.sched.Advance(time.Minute)
	require.Equal(t, 2, h.ctl.Snapshot().CurrentStepIndex)
}

func TestFullWizardScenario(t *testing.T) {
	h := newHarness(t, progress.NewMemory())
	ctx := context.Background()

	for id := 1; id <= 7; id++ {
		h.completeAndWait(t, id)
	}
	require.Equal(t, 7, h.ctl.Snapshot().CurrentStepIndex)

	require.NoError(t, h.ctl.CompleteStep(ctx, 8))
	snap := h.ctl.Snapshot()
	require.Equal(t, 7, snap.CurrentStepIndex, "the final step never advances")
	require.False(t, snap.AdvancePending)
	require.True(t, snap.BonusPending)
	require.True(t, snap.FullyCompleted)
	require.Equal(t, h.cat.TotalRewards(), snap.SessionPoints)

	h.sched.Advance(testBonusDelay)

	snap = h.ctl.Snapshot()
	require.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, snap.CompletedSteps)
	require.Equal(t, h.cat.TotalRewards()+testBonus, snap.SessionPoints)

	balance := h.ledger.Balance()
	require.Len(t, balance.Awards, 9)
	require.Equal(t, h.cat.TotalRewards()+testBonus, balance.Total)

	bonus := balance.Awards[8]
	require.Equal(t, rewards.BonusReasonKey("tester"), bonus.ReasonKey)
	require.Equal(t, testBonus, bonus.Amount)
	require.NotEqual(t, rewards.StepReasonKey("tester", h.cat.Final()), bonus.ReasonKey)

	require.Equal(t, []rewards.Celebration{{Reason: "wizard complete", Points: testBonus}}, h.celebrations)

	completed, err := h.store.Get(ctx, progress.KeyCompleted)
	require.NoError(t, err)
	require.Equal(t, "true", completed)

	// Completing the final step again awards nothing.
	require.NoError(t, h.ctl.CompleteStep(ctx, 8))
	h.sched.Advance(time.Minute)
	require.Equal(t, 9, h.ledger.Calls())
}

func TestBonusGatedAcrossReloads(t *testing.T) {
	store := progress.NewMemory()
	ctx := context.Background()

	first := newHarness(t, store)
	require.NoError(t, first.ctl.CompleteStep(ctx, 8))
	first.sched.Advance(testBonusDelay)
	require.Equal(t, 2, first.ledger.Calls())

	// The saved completion flag survives a reload. Undoing step 8 through a
	// restart is the only way to earn the bonus again.
	second := newHarness(t, store)
	require.True(t, second.ctl.Snapshot().FullyCompleted)
	require.True(t, second.ctl.Completed(8))

	second.ctl.Restart(ctx)
	require.False(t, second.ctl.Snapshot().FullyCompleted)
	require.NoError(t, second.ctl.CompleteStep(ctx, 8))
	require.True(t, second.ctl.Snapshot().BonusPending)
}

func TestReloadRestoresProgress(t *testing.T) {
	store := progress.NewMemory()

	first := newHarness(t, store)
	for id := 1; id <= 3; id++ {
		first.completeAndWait(t, id)
	}
	started := first.ctl.Snapshot().StartedAt

	second := newHarness(t, store)
	snap := second.ctl.Snapshot()
	require.Equal(t, 3, snap.CurrentStepIndex)
	require.Equal(t, []int{1, 2, 3}, snap.CompletedSteps)
	require.True(t, snap.StartedAt.Equal(started))
	require.Zero(t, snap.SessionPoints, "session points start at zero each session")
}

func TestCorruptProgressStartsFresh(t *testing.T) {
	for _, raw := range []string{"{corrupt", `{"currentStepIndex":99}`, `[]`} {
		t.Run(raw, func(t *testing.T) {
			store := progress.NewMemory()
			require.NoError(t, store.Set(context.Background(), progress.KeyProgress, raw))

			h := newHarness(t, store)
			snap := h.ctl.Snapshot()
			require.Equal(t, 0, snap.CurrentStepIndex)
			require.Empty(t, snap.CompletedSteps)
		})
	}
}

type failingStore struct{}

var errDown = errors.New("store down")

func (failingStore) Get(context.Context, string) (string, error) { return "", errDown }
func (failingStore) Set(context.Context, string, string) error   { return errDown }
func (failingStore) Delete(context.Context, string) error        { return errDown }

func TestUnavailableStoreDegradesSilently(t *testing.T) {
	h := newHarness(t, failingStore{})
	ctx := context.Background()

	h.completeAndWait(t, 1)
	h.completeAndWait(t, 2)
	h.ctl.GoBack(ctx)
	h.ctl.Restart(ctx)
	h.completeAndWait(t, 1)

	snap := h.ctl.Snapshot()
	require.Equal(t, 1, snap.CurrentStepIndex)
	require.Equal(t, []int{1}, snap.CompletedSteps)
}

func TestPhasesIgnoreNavigationHistory(t *testing.T) {
	h := newHarness(t, progress.NewMemory())
	ctx := context.Background()
	h.completeAndWait(t, 1)
	h.completeAndWait(t, 2)

	completed := map[int]bool{1: true, 2: true}
	var seen [][]catalog.Phase
	for _, id := range []int{5, 2, 5} {
		require.NoError(t, h.ctl.GoToStep(ctx, id))
		got := h.ctl.Phases()
		require.Equal(t, catalog.DerivePhases(h.cat, completed, id-1), got)
		seen = append(seen, got)
	}
	require.Equal(t, seen[0], seen[2])

	statuses := func(ps []catalog.Phase) []catalog.PhaseStatus {
		out := make([]catalog.PhaseStatus, len(ps))
		for i, p := range ps {
			out[i] = p.Status
		}
		return out
	}
	assert.Equal(t, []catalog.PhaseStatus{catalog.PhaseCompleted, catalog.PhaseCurrent, catalog.PhaseLocked}, statuses(seen[0]))
	assert.Equal(t, []catalog.PhaseStatus{catalog.PhaseCompleted, catalog.PhaseLocked, catalog.PhaseLocked}, statuses(seen[1]))
}

func TestGoToStepUnknown(t *testing.T) {
	h := newHarness(t, progress.NewMemory())
	require.ErrorIs(t, h.ctl.GoToStep(context.Background(), 0), catalog.ErrUnknownStep)
}

func TestRestart(t *testing.T) {
	h := newHarness(t, progress.NewMemory())
	ctx := context.Background()

	require.NoError(t, h.store.Set(ctx, progress.KeyIdentity, "keep-me"))
	h.completeAndWait(t, 1)
	h.completeAndWait(t, 2)

	flow := h.ctl.SubFlow()
	require.NoError(t, flow.Advance())

	require.NoError(t, h.ctl.CompleteStep(ctx, 3))
	h.ctl.Restart(ctx)
	h.sched.Advance(time.Minute)

	snap := h.ctl.Snapshot()
	require.Equal(t, 0, snap.CurrentStepIndex)
	require.Empty(t, snap.CompletedSteps)
	require.Zero(t, snap.SessionPoints)
	require.Zero(t, snap.SubFlowStage)

	_, err := h.store.Get(ctx, progress.KeyProgress)
	require.ErrorIs(t, err, progress.ErrNotFound)
	id, err := h.store.Get(ctx, progress.KeyIdentity)
	require.NoError(t, err)
	require.Equal(t, "keep-me", id)

	require.Equal(t, 200, h.ledger.Balance().Total, "ledger credits survive a restart")
}

func TestSubFlowDoesNotCompleteStep(t *testing.T) {
	h := newHarness(t, progress.NewMemory())
	flow := h.ctl.SubFlow()

	require.NoError(t, flow.Advance())
	require.ErrorIs(t, flow.Advance(), subflow.ErrGuard)
	flow.Set(subflow.FlagConsent, true)
	require.NoError(t, flow.Advance())
	require.True(t, flow.Done())

	require.False(t, h.ctl.Completed(catalog.StepApplyAccess))
	require.NoError(t, h.ctl.CompleteStep(context.Background(), catalog.StepApplyAccess))
	require.True(t, h.ctl.Completed(catalog.StepApplyAccess))
}

func TestStartAutomationIsAsynchronous(t *testing.T) {
	h := newHarness(t, progress.NewMemory())
	require.NoError(t, h.ctl.GoToStep(context.Background(), 8))

	h.ctl.StartAutomation()
	require.Zero(t, h.automations)
	require.NoError(t, h.ctl.CompleteStep(context.Background(), 8))

	h.sched.Advance(0)
	require.Equal(t, 1, h.automations)
	require.True(t, h.ctl.Completed(8))
}

func TestCloseStopsTimers(t *testing.T) {
	h := newHarness(t, progress.NewMemory())
	ctx := context.Background()
	require.NoError(t, h.ctl.CompleteStep(ctx, 1))
	require.NoError(t, h.ctl.CompleteStep(ctx, 8))

	h.ctl.Close()
	h.sched.Advance(time.Minute)

	require.Equal(t, 0, h.ctl.Snapshot().CurrentStepIndex)
	require.Equal(t, 2, h.ledger.Calls(), "the bonus never fires")
	require.Empty(t, h.celebrations)
}

func TestClosedControllerIgnoresMutations(t *testing.T) {
	h := newHarness(t, progress.NewMemory())
	ctx := context.Background()
	require.NoError(t, h.ctl.CompleteStep(ctx, 1))
	h.sched.Advance(DefaultAdvanceDelay)

	saved, err := h.store.Get(ctx, progress.KeyProgress)
	require.NoError(t, err)
	h.ctl.Close()

	require.ErrorIs(t, h.ctl.CompleteStep(ctx, 5), ErrClosed)
	require.ErrorIs(t, h.ctl.GoToStep(ctx, 4), ErrClosed)
	h.ctl.GoBack(ctx)
	h.ctl.Restart(ctx)
	h.sched.Advance(time.Minute)

	after, err := h.store.Get(ctx, progress.KeyProgress)
	require.NoError(t, err)
	require.Equal(t, saved, after)
	require.Equal(t, 1, h.ledger.Calls())
	require.Zero(t, h.sched.Pending())
	require.False(t, h.ctl.Completed(5))
	require.True(t, h.ctl.Completed(1))
}

func TestTimestamps(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	store := progress.NewMemory()
	cat := catalog.Default()
	ctl, err := New(Options{
		Catalog:   cat,
		Tracker:   progress.NewTracker(store, cat),
		Scheduler: schedule.NewManual(),
		Now:       clock,
	})
	require.NoError(t, err)
	ctl.LoadProgress(context.Background())
	start := now

	now = now.Add(time.Hour)
	require.NoError(t, ctl.GoToStep(context.Background(), 3))

	snap := ctl.Snapshot()
	require.True(t, snap.StartedAt.Equal(start))
	require.True(t, snap.LastVisitedAt.Equal(now))
}

func TestOnChangeReceivesSnapshots(t *testing.T) {
	cat := catalog.Default()
	var got []Snapshot
	ctl, err := New(Options{
		Catalog:   cat,
		Scheduler: schedule.NewManual(),
		OnChange:  func(s Snapshot) { got = append(got, s) },
	})
	require.NoError(t, err)

	require.NoError(t, ctl.GoToStep(context.Background(), 4))
	require.Len(t, got, 1)
	require.Equal(t, 4, got[0].CurrentStep.ID)
}

func TestNewRejectsInvalidCatalog(t *testing.T) {
	_, err := New(Options{Catalog: &catalog.Catalog{}})
	require.Error(t, err)
}

func TestCheckManualCompletion(t *testing.T) {
	require.NoError(t, CheckManualCompletion(1))
	require.NoError(t, CheckManualCompletion(catalog.StepLaunch))
	require.ErrorIs(t, CheckManualCompletion(catalog.StepLink), ErrNeedsCredentials)
}
