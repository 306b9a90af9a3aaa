package compose

import (
	"time"

	"github.com/go-rod/rod"
)

// outlookStrategy drives Outlook on the web.
type outlookStrategy struct{}

func (o *outlookStrategy) Name() string       { return "outlook" }
func (o *outlookStrategy) MailboxURL() string { return "https://outlook.live.com/mail/0/" }

func (o *outlookStrategy) OpenCompose(pg *rod.Page) error {
	for _, sel := range []string{
		`button[aria-label="New mail"]`,
		`button[aria-label="New message"]`,
		`button[title="New mail"]`,
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

func (o *outlookStrategy) ComposeContainer(pg *rod.Page) (*rod.Element, error) {
	// New-window compose renders as a dialog; inline compose as the
	// reading-pane conversation container.
	if el, err := pg.Timeout(5 * time.Second).Element(`div[role="dialog"]`); err == nil {
		return el, nil
	}
	return pg.Timeout(5 * time.Second).Element(`div[data-app-section="ConversationContainer"]`)
}

func (o *outlookStrategy) RecipientSelectors() []string {
	return []string{
		`div[aria-label="To"] input`,
		`input[aria-label="To"]`,
		`div[role="textbox"][aria-label*="To"]`,
	}
}

func (o *outlookStrategy) ChipSelectors() []string {
	return []string{`span[class*="pillContent"]`, `div[data-lpc-hover-target-id]`}
}

func (o *outlookStrategy) SubjectSelectors() []string {
	return []string{
		`input[aria-label="Add a subject"]`,
		`input[placeholder="Add a subject"]`,
	}
}

func (o *outlookStrategy) BodySelectors() []string {
	return []string{
		`div[aria-label="Message body"]`,
		`div[role="textbox"][contenteditable="true"]`,
	}
}

func (o *outlookStrategy) SendSelectors() []string {
	return []string{
		`button[aria-label="Send"]`,
		`button[name="Send"]`,
		`button[title*="Send"]`,
	}
}

func (o *outlookStrategy) ToastMarkers() []string {
	return []string{"Sent", "Saving"}
}

func (o *outlookStrategy) SentFolderURL() string {
	return "https://outlook.live.com/mail/0/sentitems"
}

func (o *outlookStrategy) EnsureRichText(*rod.Page) {
	// Outlook composes in rich text by default.
}
