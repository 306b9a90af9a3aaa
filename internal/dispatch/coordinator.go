// Package dispatch fans per-recipient send tasks across a bounded worker
// pool. The pool shares one browser session, so the default width is 1;
// wider pools only help the native-client path.
package dispatch

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ignite/webmail-courier/internal/compose"
	"github.com/ignite/webmail-courier/internal/nativeclient"
	"github.com/ignite/webmail-courier/internal/pkg/logger"
	"github.com/ignite/webmail-courier/internal/session"
	"github.com/ignite/webmail-courier/internal/tracking"
)

// Runner executes one compose task against the browser. Implemented by the
// compose engine.
type Runner interface {
	Run(ctx context.Context, task compose.Task) error
}

// TaskBuilder turns an enqueued recipient record into its immutable task:
// personalized fragment, pixel URL, subject, attachment.
type TaskBuilder func(rec tracking.RecipientRecord) (compose.Task, error)

// Config holds pool settings.
type Config struct {
	Workers int
}

// Summary is the final aggregate reported to the caller. Mid-run errors
// never propagate upward; they are folded into these counts and the
// per-record statuses.
type Summary struct {
	Sent    int64
	Failed  int64
	Skipped int64
}

// Coordinator owns one batch run.
type Coordinator struct {
	store   *tracking.Store
	runner  Runner
	native  nativeclient.Client // optional
	build   TaskBuilder
	workers int

	totalSent    int64
	totalFailed  int64
	totalSkipped int64

	paused  atomic.Bool
	stopped atomic.Bool
	wg      sync.WaitGroup
}

// NewCoordinator creates a dispatch coordinator. native may be nil.
func NewCoordinator(store *tracking.Store, runner Runner, native nativeclient.Client, build TaskBuilder, cfg Config) *Coordinator {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Coordinator{
		store:   store,
		runner:  runner,
		native:  native,
		build:   build,
		workers: workers,
	}
}

// Run mints one task per recipient and executes the batch, blocking until
// every started task reaches a terminal state. Tasks still queued when Stop
// is called are drained unexecuted and counted as skipped (their records
// stay Queued).
func (c *Coordinator) Run(ctx context.Context, emails []string) Summary {
	tasks := make(chan compose.Task, len(emails))
	for _, email := range emails {
		rec := c.store.Create(email)
		task, err := c.build(*rec)
		if err != nil {
			c.store.MarkFailed(rec.TrackingID, err.Error())
			atomic.AddInt64(&c.totalFailed, 1)
			logger.Error("task build failed", "email", email, "error", err)
			continue
		}
		tasks <- task
	}
	close(tasks)

	log.Printf("[Dispatch] starting %d worker(s) for %d task(s)", c.workers, len(tasks))
	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker(ctx, i, tasks)
	}
	c.wg.Wait()

	summary := Summary{
		Sent:    atomic.LoadInt64(&c.totalSent),
		Failed:  atomic.LoadInt64(&c.totalFailed),
		Skipped: atomic.LoadInt64(&c.totalSkipped),
	}
	log.Printf("[Dispatch] batch complete: sent=%d failed=%d skipped=%d",
		summary.Sent, summary.Failed, summary.Skipped)
	return summary
}

func (c *Coordinator) worker(ctx context.Context, n int, tasks <-chan compose.Task) {
	defer c.wg.Done()

	for task := range tasks {
		if c.stopped.Load() || ctx.Err() != nil {
			atomic.AddInt64(&c.totalSkipped, 1)
			continue
		}
		c.waitWhilePaused(ctx)
		if c.stopped.Load() || ctx.Err() != nil {
			atomic.AddInt64(&c.totalSkipped, 1)
			continue
		}
		c.execute(ctx, n, task)
	}
}

// execute runs one task to a terminal record state. Every error is absorbed
// here; sibling tasks are never aborted.
func (c *Coordinator) execute(ctx context.Context, worker int, task compose.Task) {
	if c.native != nil {
		var attachments []string
		if task.AttachmentPath != "" {
			attachments = []string{task.AttachmentPath}
		}
		err := c.native.Send(ctx, task.Email, task.Subject, task.HTMLBody, attachments)
		if err == nil {
			c.store.MarkSent(task.TrackingID)
			atomic.AddInt64(&c.totalSent, 1)
			logger.Info("sent via native client", "email", task.Email,
				"tracking_id", task.TrackingID, "client", c.native.Name())
			return
		}
		// Not surfaced to the caller unless the browser path also fails.
		logger.Warn("native client failed, falling back to browser",
			"email", task.Email, "error", err)
	}

	err := c.runner.Run(ctx, task)
	if err == nil {
		c.store.MarkSent(task.TrackingID)
		atomic.AddInt64(&c.totalSent, 1)
		return
	}

	c.store.MarkFailed(task.TrackingID, err.Error())
	atomic.AddInt64(&c.totalFailed, 1)
	logger.Error("send failed", "email", task.Email,
		"tracking_id", task.TrackingID, "worker", worker, "error", err)

	if errors.Is(err, session.ErrSessionUnavailable) {
		// No browser to drive: nothing later in the queue can succeed.
		log.Printf("[Dispatch] session unavailable, halting batch")
		c.Stop()
	}
}

func (c *Coordinator) waitWhilePaused(ctx context.Context) {
	for c.paused.Load() && !c.stopped.Load() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// Pause suspends starting new tasks without cancelling in-flight ones.
func (c *Coordinator) Pause() { c.paused.Store(true) }

// Resume lifts a pause.
func (c *Coordinator) Resume() { c.paused.Store(false) }

// Stop halts future task starts and lets the queue drain. In-flight tasks
// run to their own completion or timeout.
func (c *Coordinator) Stop() { c.stopped.Store(true) }

// Stats returns the running counters for progress reporting.
func (c *Coordinator) Stats() Summary {
	return Summary{
		Sent:    atomic.LoadInt64(&c.totalSent),
		Failed:  atomic.LoadInt64(&c.totalFailed),
		Skipped: atomic.LoadInt64(&c.totalSkipped),
	}
}
