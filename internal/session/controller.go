// Package session owns the single live browser connection used for all DOM
// automation in a run, and the mutex that serializes access to it.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/ignite/webmail-courier/internal/pkg/logger"
)

// ErrSessionUnavailable means no browser could be attached or started. It is
// fatal for the run: the send pipeline fails fast and nothing is retried.
var ErrSessionUnavailable = errors.New("browser session unavailable")

// Config holds browser attachment settings.
type Config struct {
	// DebuggerURL attaches to an already-running Chrome the human has
	// authenticated. When empty a visible instance is launched instead.
	DebuggerURL string
	Bin         string
	NavTimeout  time.Duration
}

// Handle is the shared browser-driver object. At most one worker holds it at
// a time; callers must hold it for the full duration of any DOM interaction,
// screenshots included.
type Handle struct {
	browser *rod.Browser
	page    *rod.Page
}

// Page returns the driven page.
func (h *Handle) Page() *rod.Page { return h.page }

// Navigate loads url on the driven page and waits for the load event.
func (h *Handle) Navigate(url string, timeout time.Duration) error {
	pg := h.page.Timeout(timeout)
	if err := pg.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return pg.WaitLoad()
}

// Controller guards the single session behind a non-reentrant mutex.
type Controller struct {
	cfg    Config
	mu     sync.Mutex // the session lock; held across whole DOM interactions
	handle *Handle

	// seams for tests
	connect func(ctx context.Context) (*rod.Browser, error)
	alive   func(h *Handle) bool
}

// NewController creates a session controller. No browser work happens until
// Attach or WithSession.
func NewController(cfg Config) *Controller {
	c := &Controller{cfg: cfg}
	c.connect = c.connectBrowser
	c.alive = func(h *Handle) bool {
		_, err := h.browser.Version()
		return err == nil
	}
	return c
}

// Attach acquires the session once at pipeline start and navigates to the
// provider mailbox. Idempotent: an existing live handle is reused.
func (c *Controller) Attach(ctx context.Context, mailboxURL string) error {
	return c.WithSession(ctx, func(h *Handle) error {
		if mailboxURL == "" {
			return nil
		}
		return h.Navigate(mailboxURL, c.cfg.NavTimeout)
	})
}

// WithSession runs fn while holding the session lock, acquiring the browser
// first if needed. The lock is released on every exit path.
func (c *Controller) WithSession(ctx context.Context, fn func(h *Handle) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, err := c.ensureLocked(ctx)
	if err != nil {
		return err
	}
	return fn(h)
}

// Close shuts the browser down if this process launched it.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handle != nil {
		// Leave an attached (human-owned) browser running.
		if c.cfg.DebuggerURL == "" {
			_ = c.handle.browser.Close()
		}
		c.handle = nil
	}
}

func (c *Controller) ensureLocked(ctx context.Context) (*Handle, error) {
	if c.handle != nil {
		if c.alive(c.handle) {
			return c.handle, nil
		}
		logger.Warn("stale browser connection, reattaching")
		c.handle = nil
	}

	browser, err := c.connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionUnavailable, err)
	}

	page, err := firstPage(browser)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionUnavailable, err)
	}

	c.handle = &Handle{browser: browser, page: page}
	return c.handle, nil
}

func (c *Controller) connectBrowser(ctx context.Context) (*rod.Browser, error) {
	controlURL := c.cfg.DebuggerURL
	if controlURL == "" {
		// Visible browser: the human authenticates the webmail session by
		// hand before automation starts.
		l := launcher.New().Headless(false)
		if c.cfg.Bin != "" {
			l = l.Bin(c.cfg.Bin)
		}
		url, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		controlURL = url
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	return browser, nil
}

func firstPage(browser *rod.Browser) (*rod.Page, error) {
	pages, err := browser.Pages()
	if err != nil {
		return nil, err
	}
	if len(pages) > 0 {
		return pages[0], nil
	}
	return browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
}
