package compose

import (
	"fmt"

	"github.com/go-rod/rod"
)

// Strategy is the per-provider DOM dialect: where the compose surface
// lives and which selectors reach its fields. Selector lists are ordered
// most-specific-first; the engine walks them with generic fallbacks of its
// own, so a provider only has to describe what makes it different.
type Strategy interface {
	Name() string
	MailboxURL() string

	// OpenCompose brings up a fresh compose surface.
	OpenCompose(pg *rod.Page) error

	// ComposeContainer locates the open compose subtree used to scope
	// field lookups away from unrelated page content.
	ComposeContainer(pg *rod.Page) (*rod.Element, error)

	RecipientSelectors() []string
	ChipSelectors() []string
	SubjectSelectors() []string
	BodySelectors() []string
	SendSelectors() []string
	ToastMarkers() []string
	SentFolderURL() string

	// EnsureRichText best-effort switches the compose surface out of
	// plain-text mode before HTML injection. Providers without the mode
	// no-op.
	EnsureRichText(pg *rod.Page)
}

// ForProvider selects a strategy by tag. mailboxURL is only consulted by
// the generic strategy, which has no provider knowledge of its own.
func ForProvider(tag, mailboxURL string) (Strategy, error) {
	switch tag {
	case "gmail":
		return &gmailStrategy{}, nil
	case "outlook":
		return &outlookStrategy{}, nil
	case "generic":
		if mailboxURL == "" {
			return nil, fmt.Errorf("generic provider requires a mailbox URL")
		}
		return &genericStrategy{mailboxURL: mailboxURL}, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", tag)
	}
}
