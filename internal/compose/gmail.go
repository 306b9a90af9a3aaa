package compose

import (
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"

	"github.com/ignite/webmail-courier/internal/pkg/logger"
)

// gmailStrategy drives the Gmail web UI. Selectors target stable ARIA
// attributes first; Gmail's generated class names churn too often to rely
// on.
type gmailStrategy struct{}

func (g *gmailStrategy) Name() string       { return "gmail" }
func (g *gmailStrategy) MailboxURL() string { return "https://mail.google.com/mail/u/0/" }

func (g *gmailStrategy) OpenCompose(pg *rod.Page) error {
	btn, err := pg.Timeout(5 * time.Second).Element(`div[gh="cm"]`)
	if err == nil {
		if clickErr := clickElement(btn); clickErr == nil {
			return nil
		}
	}
	// Keyboard shortcut fallback; works when shortcuts are enabled.
	return pg.Keyboard.Type(input.KeyC)
}

func (g *gmailStrategy) ComposeContainer(pg *rod.Page) (*rod.Element, error) {
	return pg.Timeout(8 * time.Second).Element(`div[role="dialog"]`)
}

func (g *gmailStrategy) RecipientSelectors() []string {
	return []string{
		`input[aria-label="To recipients"]`,
		`textarea[name="to"]`,
		`input[role="combobox"][aria-label*="To"]`,
	}
}

func (g *gmailStrategy) ChipSelectors() []string {
	return []string{`span[email]`, `div[data-hovercard-id]`}
}

func (g *gmailStrategy) SubjectSelectors() []string {
	return []string{`input[name="subjectbox"]`, `input[aria-label="Subject"]`}
}

func (g *gmailStrategy) BodySelectors() []string {
	return []string{
		`div[aria-label="Message Body"]`,
		`div[role="textbox"][contenteditable="true"]`,
	}
}

func (g *gmailStrategy) SendSelectors() []string {
	return []string{
		`div[role="button"][aria-label*="Send"]`,
		`div[data-tooltip*="Send"]`,
	}
}

func (g *gmailStrategy) ToastMarkers() []string {
	return []string{"Message sent", "Sending"}
}

func (g *gmailStrategy) SentFolderURL() string {
	return "https://mail.google.com/mail/u/0/#sent"
}

// EnsureRichText checks that the compose body is a contenteditable surface.
// When Gmail is stuck in plain-text mode the editable div is replaced by a
// textarea; the toggle lives behind the compose overflow menu, so this walks
// it best-effort and degrades to a warning.
func (g *gmailStrategy) EnsureRichText(pg *rod.Page) {
	has, _, err := pg.Has(`div[aria-label="Message Body"][contenteditable="true"]`)
	if err != nil || has {
		return
	}
	plain, _, _ := pg.Has(`textarea[aria-label="Message Body"]`)
	if !plain {
		return
	}
	if more, err := pg.Timeout(2 * time.Second).Element(`div[aria-label="More options"]`); err == nil {
		if clickElement(more) == nil {
			if item, err := pg.Timeout(2 * time.Second).ElementR(`div[role="menuitem"]`, "Plain text mode"); err == nil {
				if clickElement(item) == nil {
					if rich, _, _ := pg.Has(`div[aria-label="Message Body"][contenteditable="true"]`); rich {
						logger.Info("gmail compose switched back to rich text")
						return
					}
				}
			}
		}
	}
	logger.Warn("gmail compose is in plain-text mode, HTML body may degrade")
}
