package tracking

import (
	"context"
	"log"

	"github.com/ignite/webmail-courier/internal/pkg/logger"
)

// ReplyJob is one deferred auto-reply action.
type ReplyJob struct {
	TrackingID string
	Email      string
}

// ReplySendFunc delivers one auto-reply. Wired to the native client or the
// browser pipeline by the caller.
type ReplySendFunc func(ctx context.Context, email string) error

// Replier consumes deferred auto-reply jobs on a dedicated worker. Enqueue
// never blocks the pixel handler: if the buffer is full the job is dropped
// with a warning (the open event itself is already recorded).
type Replier struct {
	jobs chan ReplyJob
	send ReplySendFunc
	done chan struct{}
}

// NewReplier creates an auto-reply worker with a buffered queue.
func NewReplier(send ReplySendFunc) *Replier {
	return &Replier{
		jobs: make(chan ReplyJob, 128),
		send: send,
		done: make(chan struct{}),
	}
}

// Enqueue submits a reply job without blocking.
func (rp *Replier) Enqueue(job ReplyJob) {
	select {
	case rp.jobs <- job:
	default:
		logger.Warn("auto-reply queue full, dropping job", "email", job.Email)
	}
}

// Start runs the consumer loop until the context is cancelled or Stop is
// called.
func (rp *Replier) Start(ctx context.Context) {
	log.Println("[Replier] auto-reply worker started")
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-rp.done:
				return
			case job := <-rp.jobs:
				if err := rp.send(ctx, job.Email); err != nil {
					logger.Error("auto-reply failed", "email", job.Email, "error", err)
					continue
				}
				logger.Info("auto-reply sent", "email", job.Email, "tracking_id", job.TrackingID)
			}
		}
	}()
}

// Stop halts the consumer. Queued jobs are abandoned.
func (rp *Replier) Stop() {
	close(rp.done)
}

// Pending returns the number of queued jobs, for tests and status reporting.
func (rp *Replier) Pending() int {
	return len(rp.jobs)
}
