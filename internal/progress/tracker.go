package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/linkwizard/internal/catalog"
	"github.com/mark3labs/linkwizard/internal/logger"
)

// opTimeout bounds every store call so a slow backend cannot stall the wizard.
const opTimeout = 500 * time.Millisecond

// Progress is the persisted wizard position.
type Progress struct {
	CurrentStepIndex int       `json:"currentStepIndex"`
	CompletedSteps   []int     `json:"completedSteps"`
	StartedAt        time.Time `json:"startedAt"`
	LastVisitedAt    time.Time `json:"lastVisitedAt"`
}

// Fresh returns the starting position for a new session.
func Fresh(now time.Time) Progress {
	return Progress{
		CompletedSteps: []int{},
		StartedAt:      now,
		LastVisitedAt:  now,
	}
}

// Tracker reads and writes Progress through a Store. A nil store puts the
// tracker in degraded mode: reads report absent and writes do nothing.
type Tracker struct {
	store   Store
	catalog *catalog.Catalog
}

// NewTracker creates a tracker validating loaded data against cat.
func NewTracker(store Store, cat *catalog.Catalog) *Tracker {
	return &Tracker{store: store, catalog: cat}
}

// Load returns the saved progress. Missing, unreadable or malformed data is
// reported as absent (ok == false) and never surfaces an error.
func (t *Tracker) Load(ctx context.Context) (Progress, bool) {
	if t.store == nil {
		return Progress{}, false
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	raw, err := t.store.Get(ctx, KeyProgress)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.Warn("Failed to read wizard progress: %v", err)
		}
		return Progress{}, false
	}

	p, err := t.decode(raw)
	if err != nil {
		logger.Warn("Ignoring malformed wizard progress: %v", err)
		return Progress{}, false
	}
	return p, true
}

func (t *Tracker) decode(raw string) (Progress, error) {
	var p *Progress
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Progress{}, err
	}
	if p == nil {
		return Progress{}, errors.New("progress is null")
	}
	if p.CurrentStepIndex < 0 || p.CurrentStepIndex >= t.catalog.Len() {
		return Progress{}, fmt.Errorf("current step index %d out of range", p.CurrentStepIndex)
	}

	seen := make(map[int]bool, len(p.CompletedSteps))
	ids := make([]int, 0, len(p.CompletedSteps))
	for _, id := range p.CompletedSteps {
		if _, err := t.catalog.Step(id); err != nil {
			return Progress{}, err
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	p.CompletedSteps = ids
	return *p, nil
}

// Save writes p. Failures are logged and otherwise ignored.
func (t *Tracker) Save(ctx context.Context, p Progress) {
	if t.store == nil {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		logger.Warn("Failed to encode wizard progress: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := t.store.Set(ctx, KeyProgress, string(data)); err != nil {
		logger.Warn("Failed to save wizard progress: %v", err)
	}
}

// Completed reports the durable "wizard fully completed" flag.
func (t *Tracker) Completed(ctx context.Context) bool {
	if t.store == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	v, err := t.store.Get(ctx, KeyCompleted)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.Warn("Failed to read completion flag: %v", err)
		}
		return false
	}
	return v == "true"
}

// MarkCompleted sets the "wizard fully completed" flag.
func (t *Tracker) MarkCompleted(ctx context.Context) {
	if t.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := t.store.Set(ctx, KeyCompleted, "true"); err != nil {
		logger.Warn("Failed to save completion flag: %v", err)
	}
}

// Clear erases saved progress and the completion flag. The caller identity
// survives so ledger reason keys stay stable across restarts.
func (t *Tracker) Clear(ctx context.Context) {
	if t.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	for _, key := range []string{KeyProgress, KeyCompleted} {
		if err := t.store.Delete(ctx, key); err != nil {
			logger.Warn("Failed to delete %s: %v", key, err)
		}
	}
}

// Identity returns the opaque caller identity, generating and saving one on
// first use. Without a working store a fresh identity is returned each time.
func (t *Tracker) Identity(ctx context.Context) string {
	if t.store == nil {
		return uuid.NewString()
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if v, err := t.store.Get(ctx, KeyIdentity); err == nil && v != "" {
		return v
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		logger.Warn("Failed to read caller identity: %v", err)
	}

	id := uuid.NewString()
	if err := t.store.Set(ctx, KeyIdentity, id); err != nil {
		logger.Warn("Failed to save caller identity: %v", err)
	}
	return id
}
