package rewards

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/linkwizard/internal/catalog"
	lwnats "github.com/mark3labs/linkwizard/internal/nats"
	"github.com/mark3labs/linkwizard/internal/schedule"
	"github.com/stretchr/testify/require"
)

type failingLedger struct{ calls int }

func (f *failingLedger) Award(context.Context, int, string) error {
	f.calls++
	return errors.New("ledger offline")
}

func TestReasonKeys(t *testing.T) {
	step, err := catalog.Default().Step(catalog.StepLink)
	require.NoError(t, err)

	require.Equal(t, "user-1:step:5:link-your-account", StepReasonKey("user-1", step))
	require.Equal(t, "user-1:wizard:complete", BonusReasonKey("user-1"))
	require.NotEqual(t, StepReasonKey("user-1", step), StepReasonKey("user-2", step))
}

func TestMemoryLedgerIgnoresDuplicateKeys(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()

	require.NoError(t, l.Award(ctx, 50, "a"))
	require.NoError(t, l.Award(ctx, 50, "a"))
	require.NoError(t, l.Award(ctx, 25, "b"))

	b := l.Balance()
	require.Equal(t, 75, b.Total)
	require.Len(t, b.Awards, 2)
	require.Equal(t, 3, l.Calls())
}

func TestCoordinatorAwardStep(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger()
	c := NewCoordinator(CoordinatorOptions{Ledger: ledger, Scheduler: schedule.NewManual(), Identity: "u"})

	step, _ := catalog.Default().Step(1)
	c.AwardStep(ctx, step)

	require.Equal(t, 50, c.SessionPoints())
	require.Equal(t, 50, ledger.Balance().Total)
	require.Equal(t, "u:step:1:create-your-broker-account", ledger.Balance().Awards[0].ReasonKey)
}

func TestCoordinatorKeepsOptimisticTotalOnLedgerFailure(t *testing.T) {
	ledger := &failingLedger{}
	c := NewCoordinator(CoordinatorOptions{Ledger: ledger, Scheduler: schedule.NewManual(), Identity: "u"})

	step, _ := catalog.Default().Step(2)
	c.AwardStep(context.Background(), step)

	require.Equal(t, 1, ledger.calls)
	require.Equal(t, 50, c.SessionPoints())
}

func TestCoordinatorCompletionBonusIsDelayed(t *testing.T) {
	clock := schedule.NewManual()
	ledger := NewMemoryLedger()
	var celebrations []Celebration
	c := NewCoordinator(CoordinatorOptions{
		Ledger:          ledger,
		Scheduler:       clock,
		Identity:        "u",
		CompletionBonus: 250,
		BonusDelay:      2 * time.Second,
		OnCelebrate:     func(cel Celebration) { celebrations = append(celebrations, cel) },
	})

	c.AwardCompletionBonus(context.Background())
	c.AwardCompletionBonus(context.Background())
	require.True(t, c.BonusPending())
	require.Equal(t, 0, c.SessionPoints())

	clock.Advance(1999 * time.Millisecond)
	require.Equal(t, 0, ledger.Calls())

	clock.Advance(time.Millisecond)
	require.False(t, c.BonusPending())
	require.Equal(t, 250, c.SessionPoints())
	require.Equal(t, 1, ledger.Calls())
	require.Equal(t, "u:wizard:complete", ledger.Balance().Awards[0].ReasonKey)
	require.Equal(t, []Celebration{{Reason: "wizard complete", Points: 250}}, celebrations)
}

func TestCoordinatorResetCancelsBonus(t *testing.T) {
	clock := schedule.NewManual()
	ledger := NewMemoryLedger()
	c := NewCoordinator(CoordinatorOptions{Ledger: ledger, Scheduler: clock, Identity: "u", CompletionBonus: 250, BonusDelay: time.Second})

	step, _ := catalog.Default().Step(1)
	c.AwardStep(context.Background(), step)
	c.AwardCompletionBonus(context.Background())
	c.Reset()

	clock.Advance(time.Minute)
	require.Equal(t, 0, c.SessionPoints())
	require.Equal(t, 50, ledger.Balance().Total, "ledger credits survive a restart")
}

func newJetStreamLedger(t *testing.T, identity string) *JetStreamLedger {
	t.Helper()
	ctx := context.Background()

	ns, err := lwnats.StartEmbeddedNATS(t.TempDir())
	require.NoError(t, err)
	nc, err := lwnats.ConnectInProcess(ns)
	require.NoError(t, err)
	t.Cleanup(func() { _ = lwnats.Shutdown(nc, ns) })

	js, err := lwnats.CreateJetStream(nc)
	require.NoError(t, err)
	stream, err := lwnats.SetupStream(ctx, js)
	require.NoError(t, err)

	return NewJetStreamLedger(js, stream, identity)
}

func TestJetStreamLedgerDeduplicatesRetries(t *testing.T) {
	ctx := context.Background()
	l := newJetStreamLedger(t, "caller-1")

	require.NoError(t, l.Award(ctx, 50, "caller-1:step:1:create"))
	require.NoError(t, l.Award(ctx, 50, "caller-1:step:1:create"))
	require.NoError(t, l.Award(ctx, 250, "caller-1:wizard:complete"))

	b, err := l.Balance(ctx)
	require.NoError(t, err)
	require.Equal(t, 300, b.Total)
	require.Len(t, b.Awards, 2)
	require.True(t, strings.HasSuffix(b.Awards[1].ReasonKey, ":wizard:complete"))
}

func TestJetStreamLedgerEmptyBalance(t *testing.T) {
	l := newJetStreamLedger(t, "nobody")

	b, err := l.Balance(context.Background())
	require.NoError(t, err)
	require.Zero(t, b.Total)
	require.Empty(t, b.Awards)
}
