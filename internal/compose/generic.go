package compose

import (
	"time"

	"github.com/go-rod/rod"
)

// genericStrategy knows nothing about any provider: it leans on ARIA roles
// and common markup, which is also the last line of defense when a known
// provider ships a redesign.
type genericStrategy struct {
	mailboxURL string
}

func (g *genericStrategy) Name() string       { return "generic" }
func (g *genericStrategy) MailboxURL() string { return g.mailboxURL }

func (g *genericStrategy) OpenCompose(pg *rod.Page) error {
	for _, sel := range []string{
		`button[aria-label*="ompose"]`,
		`div[role="button"][aria-label*="ompose"]`,
		`a[href*="compose"]`,
		`button[aria-label*="ew message"]`,
	} {
		btn, err := pg.Timeout(3 * time.Second).Element(sel)
		if err != nil {
			continue
		}
		if err := clickElement(btn); err == nil {
			return nil
		}
	}
	return ErrComposeNotFound
}

func (g *genericStrategy) ComposeContainer(pg *rod.Page) (*rod.Element, error) {
	if el, err := pg.Timeout(5 * time.Second).Element(`div[role="dialog"]`); err == nil {
		return el, nil
	}
	return pg.Timeout(5 * time.Second).Element(`form`)
}

func (g *genericStrategy) RecipientSelectors() []string {
	return []string{
		`input[aria-label*="To"]`,
		`input[name="to"]`,
		`input[type="email"]`,
	}
}

func (g *genericStrategy) ChipSelectors() []string {
	return []string{`span[email]`, `div[class*="chip"]`, `span[class*="pill"]`}
}

func (g *genericStrategy) SubjectSelectors() []string {
	return []string{`input[name*="subject"]`, `input[aria-label*="ubject"]`}
}

func (g *genericStrategy) BodySelectors() []string {
	return []string{
		`div[role="textbox"][contenteditable="true"]`,
		`div[contenteditable="true"]`,
		`textarea[name*="body"]`,
	}
}

func (g *genericStrategy) SendSelectors() []string {
	return []string{
		`button[aria-label*="Send"]`,
		`button[type="submit"]`,
		`div[role="button"][aria-label*="Send"]`,
	}
}

func (g *genericStrategy) ToastMarkers() []string {
	return []string{"sent", "Sent"}
}

func (g *genericStrategy) SentFolderURL() string {
	return g.mailboxURL
}

func (g *genericStrategy) EnsureRichText(*rod.Page) {}
