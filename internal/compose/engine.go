// Package compose drives an uninstrumented webmail UI through layered
// fallback strategies: provider-specific locators first, then increasingly
// generic ones, with every step verified by observing its effect on the
// page.
package compose

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"

	"github.com/ignite/webmail-courier/internal/pkg/logger"
	"github.com/ignite/webmail-courier/internal/session"
)

// Screenshotter captures diagnostic screenshots. Failures are the
// collaborator's problem: Capture never returns an error and the engine
// never checks the path.
type Screenshotter interface {
	Capture(pg *rod.Page, label string) string
}

// Timeouts bounds every polling window in the compose path.
type Timeouts struct {
	Locate    time.Duration // element lookups
	Tokenize  time.Duration // recipient chip polling
	Attach    time.Duration // attachment indicator polling
	Toast     time.Duration // send confirmation UI signal
	SentScan  time.Duration // sent-folder fallback scan
	NavigateT time.Duration // sent-folder navigation
}

// DefaultTimeouts mirrors what the webmail UIs tolerate in practice.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Locate:    6 * time.Second,
		Tokenize:  4 * time.Second,
		Attach:    15 * time.Second,
		Toast:     10 * time.Second,
		SentScan:  30 * time.Second,
		NavigateT: 20 * time.Second,
	}
}

// Engine executes compose tasks against the shared browser session.
type Engine struct {
	sessions *session.Controller
	strategy Strategy
	shots    Screenshotter
	timeouts Timeouts
}

// NewEngine creates a compose engine. shots may be nil.
func NewEngine(sessions *session.Controller, strategy Strategy, shots Screenshotter, timeouts Timeouts) *Engine {
	return &Engine{
		sessions: sessions,
		strategy: strategy,
		shots:    shots,
		timeouts: timeouts,
	}
}

// MailboxURL exposes the selected provider's mailbox for initial
// navigation.
func (e *Engine) MailboxURL() string { return e.strategy.MailboxURL() }

// composeCtx carries per-task DOM state through the injection steps.
type composeCtx struct {
	pg        *rod.Page
	container *rod.Element
	task      Task
}

// refreshContainer re-locates the compose container after a rerender.
func (cc *composeCtx) refreshContainer(s Strategy) *rod.Element {
	if el, err := s.ComposeContainer(cc.pg); err == nil {
		cc.container = el
	}
	return cc.container
}

// Run executes one compose task end to end under the session lock: open
// compose, inject recipient/subject/body/attachment, send and confirm.
// Satisfies the dispatch coordinator's Runner.
func (e *Engine) Run(ctx context.Context, task Task) error {
	return e.sessions.WithSession(ctx, func(h *session.Handle) error {
		return e.composeAndSend(ctx, h, task)
	})
}

func (e *Engine) composeAndSend(ctx context.Context, h *session.Handle, task Task) error {
	pg := h.Page()

	if err := h.Navigate(e.strategy.MailboxURL(), e.timeouts.NavigateT); err != nil {
		return fmt.Errorf("open mailbox: %w", err)
	}

	if err := e.strategy.OpenCompose(pg); err != nil {
		e.screenshot(pg, "compose_open_failed")
		return fmt.Errorf("%w: %v", ErrComposeNotFound, err)
	}

	container, err := e.strategy.ComposeContainer(pg)
	if err != nil {
		e.screenshot(pg, "compose_container_missing")
		return fmt.Errorf("%w: %v", ErrComposeNotFound, err)
	}

	cc := &composeCtx{pg: pg, container: container, task: task}

	if err := e.setRecipient(ctx, cc); err != nil {
		e.screenshot(pg, "recipient_injection_failed")
		return err
	}
	e.setSubject(cc)
	if err := e.setBody(ctx, cc); err != nil {
		e.screenshot(pg, "body_injection_failed")
		return err
	}
	e.attachFile(ctx, cc) // soft failure, send proceeds without the file

	if err := e.sendAndConfirm(ctx, cc); err != nil {
		e.screenshot(pg, "send_unconfirmed")
		return err
	}

	logger.Info("message composed and confirmed",
		"email", task.Email, "tracking_id", task.TrackingID, "provider", e.strategy.Name())
	return nil
}

// setSubject is deliberately forgiving: a missing subject field degrades
// the message, not the send.
func (e *Engine) setSubject(cc *composeCtx) {
	el, ok := findFirst(cc.container, e.strategy.SubjectSelectors(), e.timeouts.Locate)
	if !ok {
		el, ok = findFirstOnPage(cc.pg, e.strategy.SubjectSelectors(), 2*time.Second)
	}
	if !ok {
		logger.Warn("subject field not found", "provider", e.strategy.Name())
		return
	}
	if err := el.Input(cc.task.Subject); err != nil {
		logger.Warn("subject injection failed", "error", err)
	}
}

func (e *Engine) screenshot(pg *rod.Page, label string) {
	if e.shots == nil {
		return
	}
	e.shots.Capture(pg, label)
}
