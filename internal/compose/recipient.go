package compose

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"

	"github.com/ignite/webmail-courier/internal/pkg/logger"
)

// setRecipient walks the recipient injection chain: container-scoped
// typing, global typing, scripted value assignment, clipboard paste. A
// strategy only counts once the address tokenizes into a chip (or the
// input clears while the address shows up in the surrounding markup).
func (e *Engine) setRecipient(ctx context.Context, cc *composeCtx) error {
	email := cc.task.Email

	strategies := []strategyFn{
		{"container-typed", func(ctx context.Context) error {
			el, ok := findFirst(cc.container, e.strategy.RecipientSelectors(), e.timeouts.Locate)
			if !ok {
				return fmt.Errorf("no recipient input in compose container")
			}
			return typeAndCommit(el, email)
		}},
		{"global-typed", func(ctx context.Context) error {
			el, ok := findFirstOnPage(cc.pg, e.strategy.RecipientSelectors(), 2*time.Second)
			if !ok {
				return fmt.Errorf("no recipient input anywhere on page")
			}
			return typeAndCommit(el, email)
		}},
		{"scripted", func(ctx context.Context) error {
			el, ok := findFirst(cc.refreshContainer(e.strategy), e.strategy.RecipientSelectors(), 2*time.Second)
			if !ok {
				return fmt.Errorf("no recipient input for scripted injection")
			}
			_, err := el.Eval(`(addr) => {
				this.focus();
				this.value = addr;
				this.dispatchEvent(new Event('input', {bubbles: true}));
				this.dispatchEvent(new KeyboardEvent('keydown', {key: 'Enter', keyCode: 13, bubbles: true}));
				this.dispatchEvent(new KeyboardEvent('keyup', {key: 'Enter', keyCode: 13, bubbles: true}));
			}`, email)
			return err
		}},
		{"clipboard", func(ctx context.Context) error {
			if _, err := cc.pg.Eval(`async (addr) => navigator.clipboard.writeText(addr)`, email); err != nil {
				return fmt.Errorf("clipboard write: %w", err)
			}
			el, ok := findFirst(cc.refreshContainer(e.strategy), e.strategy.RecipientSelectors(), 2*time.Second)
			if !ok {
				return fmt.Errorf("no recipient input for paste")
			}
			if err := clickElement(el); err != nil {
				return err
			}
			if err := cc.pg.Keyboard.Press(input.ControlLeft); err != nil {
				return err
			}
			if err := cc.pg.Keyboard.Type(input.KeyV); err != nil {
				return err
			}
			if err := cc.pg.Keyboard.Release(input.ControlLeft); err != nil {
				return err
			}
			return cc.pg.Keyboard.Type(input.Enter)
		}},
	}

	name, err := tryStrategies(ctx, "recipient injection", strategies, func(ctx context.Context) bool {
		return e.recipientTokenized(ctx, cc)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRecipientInjection, err)
	}

	logger.Debug("recipient tokenized", "email", email, "strategy", name)
	return nil
}

// typeAndCommit simulates typing the address followed by the commit key.
func typeAndCommit(el *rod.Element, email string) error {
	if err := clickElement(el); err != nil {
		return err
	}
	if err := el.Input(email); err != nil {
		return err
	}
	return el.Type(input.Enter)
}

// recipientTokenized polls for evidence that the typed value became a chip.
func (e *Engine) recipientTokenized(ctx context.Context, cc *composeCtx) bool {
	email := cc.task.Email
	return waitSignal(ctx, e.timeouts.Tokenize, 200*time.Millisecond, func() bool {
		container := cc.refreshContainer(e.strategy)
		if container == nil {
			return false
		}
		for _, sel := range e.strategy.ChipSelectors() {
			chips, err := container.Elements(sel)
			if err != nil {
				continue
			}
			for _, chip := range chips {
				if chipMatches(chip, email) {
					return true
				}
			}
		}
		// Fallback signal: the address appears in the container markup
		// outside a live input value (chips render the address as text or
		// an attribute; an untokenized input does neither).
		return strings.Contains(elementHTML(container), email)
	})
}

func chipMatches(chip *rod.Element, email string) bool {
	if attr, err := chip.Attribute("email"); err == nil && attr != nil && strings.EqualFold(*attr, email) {
		return true
	}
	if text, err := chip.Text(); err == nil && strings.Contains(strings.ToLower(text), strings.ToLower(email)) {
		return true
	}
	return strings.Contains(elementHTML(chip), email)
}
