package compose

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod/lib/input"

	"github.com/ignite/webmail-courier/internal/pkg/logger"
)

// confirmState tracks the delivery confirmation state machine:
// Composed → SendRequested → {ConfirmedSent, Unconfirmed}.
type confirmState int

const (
	stateComposed confirmState = iota
	stateSendRequested
	stateConfirmedSent
	stateUnconfirmed
)

func (s confirmState) String() string {
	switch s {
	case stateComposed:
		return "composed"
	case stateSendRequested:
		return "send_requested"
	case stateConfirmedSent:
		return "confirmed_sent"
	default:
		return "unconfirmed"
	}
}

// sendAndConfirm issues the send action and hunts for positive confirmation:
// first a transient UI signal, then a sent-folder scan. No signal by either
// path is a failure: the provider may well have accepted the message, but
// the delivery log prefers false negatives over false positives.
func (e *Engine) sendAndConfirm(ctx context.Context, cc *composeCtx) error {
	if err := e.issueSend(cc); err != nil {
		return fmt.Errorf("%w: send action failed (state=%s): %v", ErrSendUnconfirmed, stateComposed, err)
	}
	logger.Debug("send issued", "tracking_id", cc.task.TrackingID, "state", stateSendRequested.String())

	if e.confirmViaUI(ctx, cc) {
		logger.Debug("send confirmed via UI signal",
			"tracking_id", cc.task.TrackingID, "state", stateConfirmedSent.String())
		return nil
	}

	if e.confirmViaSentFolder(ctx, cc) {
		logger.Debug("send confirmed via sent folder",
			"tracking_id", cc.task.TrackingID, "state", stateConfirmedSent.String())
		return nil
	}

	return fmt.Errorf("%w (state=%s)", ErrSendUnconfirmed, stateUnconfirmed)
}

// issueSend clicks the provider's send control, falling back to the
// keyboard send shortcut.
func (e *Engine) issueSend(cc *composeCtx) error {
	if el, ok := findFirst(cc.refreshContainer(e.strategy), e.strategy.SendSelectors(), e.timeouts.Locate); ok {
		if err := clickElement(el); err == nil {
			return nil
		}
	}
	if el, ok := findFirstOnPage(cc.pg, e.strategy.SendSelectors(), 2*time.Second); ok {
		if err := clickElement(el); err == nil {
			return nil
		}
	}
	// Ctrl+Enter sends in both Gmail and Outlook compose.
	if err := cc.pg.Keyboard.Press(input.ControlLeft); err != nil {
		return err
	}
	if err := cc.pg.Keyboard.Type(input.Enter); err != nil {
		return err
	}
	return cc.pg.Keyboard.Release(input.ControlLeft)
}

// confirmViaUI polls for a confirmation toast or the compose surface
// disappearing.
func (e *Engine) confirmViaUI(ctx context.Context, cc *composeCtx) bool {
	return waitSignal(ctx, e.timeouts.Toast, 250*time.Millisecond, func() bool {
		for _, marker := range e.strategy.ToastMarkers() {
			if pageHasText(cc.pg, marker) {
				return true
			}
		}
		if _, err := e.strategy.ComposeContainer(cc.pg); err != nil {
			// Compose dialog is gone; the provider closed it on send.
			return true
		}
		return false
	})
}

// confirmViaSentFolder navigates to the sent-items view and scans the
// rendered listing for the recipient address or subject.
func (e *Engine) confirmViaSentFolder(ctx context.Context, cc *composeCtx) bool {
	url := e.strategy.SentFolderURL()
	if url == "" {
		return false
	}
	pg := cc.pg.Timeout(e.timeouts.NavigateT)
	if err := pg.Navigate(url); err != nil {
		logger.Warn("sent-folder navigation failed", "error", err)
		return false
	}
	_ = pg.WaitLoad()

	return waitSignal(ctx, e.timeouts.SentScan, time.Second, func() bool {
		return pageHasText(cc.pg, cc.task.Email) || pageHasText(cc.pg, cc.task.Subject)
	})
}
