package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mark3labs/linkwizard/internal/catalog"
	"github.com/mark3labs/linkwizard/internal/config"
	"github.com/mark3labs/linkwizard/internal/hooks"
	"github.com/mark3labs/linkwizard/internal/logger"
	"github.com/mark3labs/linkwizard/internal/nats"
	"github.com/mark3labs/linkwizard/internal/progress"
	"github.com/mark3labs/linkwizard/internal/rewards"
	"github.com/mark3labs/linkwizard/internal/schedule"
	"github.com/mark3labs/linkwizard/internal/submission"
	"github.com/mark3labs/linkwizard/internal/wizard"
	natsserver "github.com/nats-io/nats-server/v2/server"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// drainGrace is added to the longest configured delay when waiting for
// scheduled work before exit.
const drainGrace = 3 * time.Second

// runtime is the wired set of collaborators behind every command.
type runtime struct {
	cfg *config.Config

	ns *natsserver.Server
	nc *natsgo.Conn
	js jetstream.JetStream

	sqlite   *progress.SQLiteStore
	tracker  *progress.Tracker
	identity string

	ledger   rewards.Ledger
	jsLedger *rewards.JetStreamLedger
	coord    *rewards.Coordinator

	sched  *schedule.Real
	wizard *wizard.Controller
	hooks  *hooks.Runner
	client submission.Client

	mu           sync.Mutex
	celebrations []rewards.Celebration
	hookOutput   []string
	observer     func(wizard.Snapshot)
}

// loadConfig reads configuration and applies root flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if rootFlags.dataDir != "" {
		cfg.DataDir = rootFlags.dataDir
	}
	if rootFlags.store != "" {
		cfg.Store = rootFlags.store
	}
	if rootFlags.ledger != "" {
		cfg.Ledger = rootFlags.ledger
	}
	if rootFlags.transport != "" {
		cfg.Transport = rootFlags.transport
	}
	if rootFlags.logLevel != "" {
		cfg.LogLevel = rootFlags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openRuntime builds the wizard and its backends and restores saved progress.
// The caller must call close.
func openRuntime(ctx context.Context) (_ *runtime, err error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := logger.Configure(cfg.LogLevel, cfg.LogFile); err != nil {
		return nil, fmt.Errorf("failed to configure logger: %w", err)
	}

	rt := &runtime{cfg: cfg, sched: schedule.NewReal()}
	defer func() {
		if err != nil {
			_ = rt.shutdownBackends()
		}
	}()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	if cfg.NeedsNATS() {
		if err := rt.connectNATS(); err != nil {
			return nil, err
		}
	}

	store, err := rt.openStore(ctx)
	if err != nil {
		return nil, err
	}
	cat := catalog.Default()
	rt.tracker = progress.NewTracker(store, cat)
	rt.identity = rt.tracker.Identity(ctx)
	logger.Debug("Caller identity: %s", rt.identity)

	if err := rt.openLedger(ctx); err != nil {
		return nil, err
	}

	rt.coord = rewards.NewCoordinator(rewards.CoordinatorOptions{
		Ledger:          rt.ledger,
		Scheduler:       rt.sched,
		Identity:        rt.identity,
		CompletionBonus: cfg.CompletionBonus,
		BonusDelay:      cfg.BonusDelay,
		OnCelebrate:     rt.celebrate,
	})

	rt.hooks, err = hooks.NewRunner(".")
	if err != nil {
		return nil, err
	}

	rt.wizard, err = wizard.New(wizard.Options{
		Catalog:           cat,
		Tracker:           rt.tracker,
		Rewards:           rt.coord,
		Scheduler:         rt.sched,
		AdvanceDelay:      cfg.AdvanceDelay,
		OnStartAutomation: rt.runStartAutomationHook,
		OnChange:          rt.changed,
	})
	if err != nil {
		return nil, err
	}
	rt.wizard.LoadProgress(ctx)

	switch cfg.Transport {
	case config.TransportNATS:
		rt.client = submission.NewNATSClient(rt.nc, cfg.Subject)
	default:
		rt.client = submission.NewHTTPClient(cfg.Endpoint, cfg.SubmitTimeout)
	}

	return rt, nil
}

func (rt *runtime) connectNATS() error {
	var err error
	if rt.cfg.NATSURL != "" {
		rt.nc, err = nats.Connect(rt.cfg.NATSURL)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
	} else {
		rt.ns, err = nats.StartEmbeddedNATS(filepath.Join(rt.cfg.DataDir, "nats"))
		if err != nil {
			return fmt.Errorf("failed to start NATS server: %w", err)
		}
		rt.nc, err = nats.ConnectInProcess(rt.ns)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
	}

	rt.js, err = nats.CreateJetStream(rt.nc)
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}
	return nil
}

func (rt *runtime) openStore(ctx context.Context) (progress.Store, error) {
	switch rt.cfg.Store {
	case config.StoreMemory:
		return progress.NewMemory(), nil
	case config.StoreSQLite:
		s, err := progress.OpenSQLite(filepath.Join(rt.cfg.DataDir, "progress.db"))
		if err != nil {
			return nil, err
		}
		rt.sqlite = s
		return s, nil
	case config.StoreNATS:
		kv, err := nats.SetupProgressBucket(ctx, rt.js)
		if err != nil {
			return nil, fmt.Errorf("failed to set up progress bucket: %w", err)
		}
		return progress.NewKVStore(kv), nil
	default:
		return progress.NewFileStore(rt.cfg.DataDir), nil
	}
}

func (rt *runtime) openLedger(ctx context.Context) error {
	if rt.cfg.Ledger == config.LedgerMemory {
		rt.ledger = rewards.NewMemoryLedger()
		return nil
	}
	stream, err := nats.SetupStream(ctx, rt.js)
	if err != nil {
		return fmt.Errorf("failed to set up event stream: %w", err)
	}
	rt.jsLedger = rewards.NewJetStreamLedger(rt.js, stream, rt.identity)
	rt.ledger = rt.jsLedger
	return nil
}

// submitter returns a Submitter that completes the credential step through
// the wizard and runs the on_link hook.
func (rt *runtime) submitter() *submission.Submitter {
	return submission.New(submission.Options{
		Client:      rt.client,
		Identity:    rt.identity,
		Steps:       rt.wizard,
		Timeout:     rt.cfg.SubmitTimeout,
		OnCelebrate: rt.celebrate,
		OnComplete: func(account submission.ConnectedAccount) {
			out, err := rt.hooks.Link(context.Background(), hooks.Variables{
				ExternalID:  account.ExternalID,
				DisplayName: account.DisplayName,
				Identity:    rt.identity,
			})
			if err != nil {
				logger.Warn("on_link hook failed: %v", err)
			}
			rt.recordHookOutput(out)
		},
	})
}

func (rt *runtime) runStartAutomationHook() {
	out, err := rt.hooks.StartAutomation(context.Background(), hooks.Variables{Identity: rt.identity})
	if err != nil {
		logger.Warn("on_start_automation hook failed: %v", err)
	}
	rt.recordHookOutput(out)
}

// observe sets a function called with every wizard state change.
func (rt *runtime) observe(fn func(wizard.Snapshot)) {
	rt.mu.Lock()
	rt.observer = fn
	rt.mu.Unlock()
}

func (rt *runtime) changed(snap wizard.Snapshot) {
	logger.Debug("Wizard at step index %d, completed %v", snap.CurrentStepIndex, snap.CompletedSteps)
	rt.mu.Lock()
	fn := rt.observer
	rt.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}

func (rt *runtime) recordHookOutput(out string) {
	if out == "" {
		return
	}
	rt.mu.Lock()
	rt.hookOutput = append(rt.hookOutput, out)
	rt.mu.Unlock()
}

// celebrate queues a celebration. They are printed once scheduled work has
// finished so they never interleave with the credential form.
func (rt *runtime) celebrate(c rewards.Celebration) {
	rt.mu.Lock()
	rt.celebrations = append(rt.celebrations, c)
	rt.mu.Unlock()
}

// close waits for scheduled advances, bonuses and hooks, prints what they
// produced and releases every backend.
func (rt *runtime) close() error {
	wait := max(rt.cfg.AdvanceDelay, rt.cfg.BonusDelay) + rt.cfg.SubmitTimeout + drainGrace
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()

	var errs []error
	if err := rt.sched.Drain(ctx); err != nil {
		logger.Warn("Scheduled work did not finish: %v", err)
		errs = append(errs, fmt.Errorf("drain: %w", err))
	}
	if rt.wizard != nil {
		rt.wizard.Close()
	}

	rt.mu.Lock()
	celebrations, output := rt.celebrations, rt.hookOutput
	rt.celebrations, rt.hookOutput = nil, nil
	rt.mu.Unlock()
	for _, c := range celebrations {
		fmt.Println(renderCelebration(c))
	}
	for _, out := range output {
		fmt.Println(out)
	}

	if err := rt.shutdownBackends(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (rt *runtime) shutdownBackends() error {
	var errs []error
	if rt.sqlite != nil {
		if err := rt.sqlite.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close sqlite: %w", err))
		}
		rt.sqlite = nil
	}
	if rt.nc != nil || rt.ns != nil {
		if err := nats.Shutdown(rt.nc, rt.ns); err != nil {
			errs = append(errs, fmt.Errorf("NATS shutdown failed: %w", err))
		}
		rt.nc, rt.ns = nil, nil
	}
	return errors.Join(errs...)
}

// withRuntime opens a runtime, runs fn and closes the runtime.
func withRuntime(ctx context.Context, fn func(rt *runtime) error) error {
	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	runErr := fn(rt)
	closeErr := rt.close()
	if runErr != nil {
		return runErr
	}
	return closeErr
}
