// Package submission sends linked broker credentials to the remote service
// and turns failures into user-facing categories.
package submission

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mark3labs/linkwizard/internal/catalog"
	"github.com/mark3labs/linkwizard/internal/credentials"
	"github.com/mark3labs/linkwizard/internal/logger"
	"github.com/mark3labs/linkwizard/internal/rewards"
)

var (
	// ErrInFlight is returned when a submission is already running.
	ErrInFlight = errors.New("submission already in flight")
	// ErrNotReady is returned when the form does not pass validation.
	ErrNotReady = errors.New("credentials are not ready to submit")
	// ErrAlreadyLinked is returned after a successful submission.
	ErrAlreadyLinked = errors.New("account already linked")
	// ErrDetached is returned when the owning view went away mid-flight.
	ErrDetached = errors.New("submitter detached")
)

// ConnectedAccount is handed to the completion callback on success.
type ConnectedAccount struct {
	ExternalID  string `json:"externalId"`
	DisplayName string `json:"displayName"`
}

// StepCompleter marks a wizard step complete.
type StepCompleter interface {
	CompleteStep(ctx context.Context, id int) error
}

// Options configures a Submitter.
type Options struct {
	Client   Client
	Identity string
	// Steps marks the credential step complete on success. Optional.
	Steps StepCompleter
	// StepID defaults to catalog.StepLink.
	StepID      int
	Timeout     time.Duration
	OnComplete  func(ConnectedAccount)
	OnCelebrate func(rewards.Celebration)
}

// Submitter runs at most one credential submission at a time and invokes
// OnComplete at most once.
type Submitter struct {
	opts Options

	inFlight atomic.Bool
	linked   atomic.Bool
	detached atomic.Bool

	mu      sync.Mutex
	failure *Failure
}

// New creates a Submitter.
func New(opts Options) *Submitter {
	if opts.StepID == 0 {
		opts.StepID = catalog.StepLink
	}
	return &Submitter{opts: opts}
}

// Submitting reports whether a submission is running.
func (s *Submitter) Submitting() bool {
	return s.inFlight.Load()
}

// LastFailure returns the most recent classified failure, cleared when a new
// submission starts.
func (s *Submitter) LastFailure() *Failure {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

// Detach turns every later callback into a no-op.
func (s *Submitter) Detach() {
	s.detached.Store(true)
}

// Submit validates the form and sends it. It blocks until the remote call
// returns. Failures come back as *Failure.
func (s *Submitter) Submit(ctx context.Context, form credentials.Form) (ConnectedAccount, error) {
	if s.linked.Load() {
		return ConnectedAccount{}, ErrAlreadyLinked
	}
	if !credentials.Validate(form).CanSubmit {
		return ConnectedAccount{}, ErrNotReady
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		return ConnectedAccount{}, ErrInFlight
	}
	defer s.inFlight.Store(false)

	s.setFailure(nil)

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	logger.Info("Submitting credentials for account %s", form.AccountID)
	err := s.opts.Client.Link(ctx, s.opts.Identity, Request{
		AccountID:    form.AccountID,
		AccessKey:    form.AccessKey,
		AccessSecret: form.AccessSecret,
		DisplayName:  form.DisplayName,
	})

	if s.detached.Load() {
		logger.Debug("Submission finished after detach; dropping result")
		return ConnectedAccount{}, ErrDetached
	}

	if err != nil {
		f := classify(err)
		logger.Warn("Link failed (%s): %v", f.Category, err)
		s.setFailure(f)
		return ConnectedAccount{}, f
	}

	account := ConnectedAccount{ExternalID: form.AccountID, DisplayName: form.DisplayName}
	if account.DisplayName == "" {
		account.DisplayName = DefaultDisplayName(form.AccountID)
	}
	if !s.linked.CompareAndSwap(false, true) {
		return account, ErrAlreadyLinked
	}

	if s.opts.OnCelebrate != nil {
		s.opts.OnCelebrate(rewards.Celebration{Reason: "account linked"})
	}
	if s.opts.Steps != nil {
		if err := s.opts.Steps.CompleteStep(ctx, s.opts.StepID); err != nil {
			logger.Warn("Failed to complete step %d after linking: %v", s.opts.StepID, err)
		}
	}
	if s.opts.OnComplete != nil {
		s.opts.OnComplete(account)
	}
	logger.Info("Linked account %s", account.ExternalID)
	return account, nil
}

// DefaultDisplayName labels an account that was linked without a name.
func DefaultDisplayName(accountID string) string {
	return "Account " + accountID
}

func (s *Submitter) setFailure(f *Failure) {
	s.mu.Lock()
	s.failure = f
	s.mu.Unlock()
}
