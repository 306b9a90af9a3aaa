package compose

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"

	"github.com/ignite/webmail-courier/internal/pkg/logger"
)

// setBody walks the body injection chain in decreasing order of fidelity:
// direct markup assignment, rich-text insert command, clipboard HTML paste,
// plain-text typing. Which rung works depends on the provider's editable
// surface and whether scripted markup assignment is permitted, so every
// rung is verified by reading the rendered content back.
func (e *Engine) setBody(ctx context.Context, cc *composeCtx) error {
	htmlBody := cc.task.HTMLBody
	e.strategy.EnsureRichText(cc.pg)

	locate := func(window time.Duration) (*rod.Element, error) {
		if el, ok := findFirst(cc.refreshContainer(e.strategy), e.strategy.BodySelectors(), window); ok {
			return el, nil
		}
		if el, ok := findFirstOnPage(cc.pg, e.strategy.BodySelectors(), 2*time.Second); ok {
			return el, nil
		}
		return nil, fmt.Errorf("no editable body surface")
	}

	strategies := []strategyFn{
		{"markup-assignment", func(ctx context.Context) error {
			el, err := locate(e.timeouts.Locate)
			if err != nil {
				return err
			}
			_, evalErr := el.Eval(`(html) => {
				this.innerHTML = html;
				this.dispatchEvent(new Event('input', {bubbles: true}));
			}`, htmlBody)
			return evalErr
		}},
		{"insert-command", func(ctx context.Context) error {
			el, err := locate(2 * time.Second)
			if err != nil {
				return err
			}
			_, evalErr := el.Eval(`(html) => {
				this.focus();
				document.execCommand('selectAll', false, null);
				document.execCommand('insertHTML', false, html);
			}`, htmlBody)
			return evalErr
		}},
		{"clipboard-html", func(ctx context.Context) error {
			if _, err := cc.pg.Eval(`async (html) => {
				const blob = new Blob([html], {type: 'text/html'});
				await navigator.clipboard.write([new ClipboardItem({'text/html': blob})]);
			}`, htmlBody); err != nil {
				return fmt.Errorf("clipboard write: %w", err)
			}
			el, err := locate(2 * time.Second)
			if err != nil {
				return err
			}
			if err := clickElement(el); err != nil {
				return err
			}
			if err := pressChord(cc.pg, input.KeyA); err != nil {
				return err
			}
			return pressChord(cc.pg, input.KeyV)
		}},
		{"plaintext-typing", func(ctx context.Context) error {
			el, err := locate(2 * time.Second)
			if err != nil {
				return err
			}
			if err := clickElement(el); err != nil {
				return err
			}
			return el.Input(stripTags(htmlBody))
		}},
	}

	name, err := tryStrategies(ctx, "body injection", strategies, func(ctx context.Context) bool {
		el, locErr := locate(2 * time.Second)
		if locErr != nil {
			return false
		}
		rendered, textErr := el.Text()
		if textErr != nil {
			return false
		}
		return bodyMatches(rendered, htmlBody)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBodyInjection, err)
	}

	logger.Debug("body injected", "strategy", name, "tracking_id", cc.task.TrackingID)
	return nil
}

// pressChord holds Ctrl while typing key.
func pressChord(pg *rod.Page, key input.Key) error {
	if err := pg.Keyboard.Press(input.ControlLeft); err != nil {
		return err
	}
	if err := pg.Keyboard.Type(key); err != nil {
		return err
	}
	return pg.Keyboard.Release(input.ControlLeft)
}

const bodyComparePrefix = 60

// bodyMatches compares rendered text against the intended HTML, stripped of
// markup. Long bodies compare on the first ~60 characters; short ones accept
// any non-empty rendering that shares a prefix.
func bodyMatches(renderedText, intendedHTML string) bool {
	want := normalizeText(stripTags(intendedHTML))
	got := normalizeText(renderedText)
	if want == "" {
		return true
	}
	if got == "" {
		return false
	}
	if len(want) > bodyComparePrefix {
		want = want[:bodyComparePrefix]
	}
	return strings.Contains(got, want)
}

var (
	tagRe    = regexp.MustCompile(`(?s)<[^>]*>`)
	spaceRe  = regexp.MustCompile(`\s+`)
	hiddenRe = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
)

// stripTags reduces HTML to its visible text.
func stripTags(s string) string {
	s = hiddenRe.ReplaceAllString(s, " ")
	s = tagRe.ReplaceAllString(s, " ")
	return html.UnescapeString(s)
}

func normalizeText(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}
