// Package schedule provides cancellable delayed callbacks. The wizard sequences
// its reward animation delays through a Scheduler so tests can drive virtual
// time with Manual instead of sleeping.
package schedule

import (
	"context"
	"sync"
	"time"
)

// Task is a scheduled callback.
type Task interface {
	// Stop cancels the task. It reports false if the task already ran or was
	// stopped.
	Stop() bool
}

// Scheduler runs callbacks after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Task
}

// Real schedules callbacks on wall-clock timers and tracks the outstanding
// ones so a short-lived process can wait for them before exiting.
type Real struct {
	wg sync.WaitGroup
}

// NewReal creates a wall-clock scheduler.
func NewReal() *Real {
	return &Real{}
}

type realTask struct {
	timer *time.Timer
	once  sync.Once
	done  func()
}

func (t *realTask) finish() {
	t.once.Do(t.done)
}

func (t *realTask) Stop() bool {
	if t.timer.Stop() {
		t.finish()
		return true
	}
	return false
}

// AfterFunc schedules fn on its own goroutine after d.
func (r *Real) AfterFunc(d time.Duration, fn func()) Task {
	r.wg.Add(1)
	t := &realTask{done: r.wg.Done}
	t.timer = time.AfterFunc(d, func() {
		defer t.finish()
		fn()
	})
	return t
}

// Drain blocks until every scheduled task has run or been stopped, or ctx ends.
func (r *Real) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
