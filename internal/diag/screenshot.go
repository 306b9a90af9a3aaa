// Package diag captures best-effort diagnostic screenshots of the driven
// browser. Every failure in here is swallowed: diagnostics must never make
// a failing send fail harder.
package diag

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"

	"github.com/ignite/webmail-courier/internal/pkg/logger"
)

// Capturer writes screenshots into a directory.
type Capturer struct {
	dir string
}

// NewCapturer creates a capturer rooted at dir.
func NewCapturer(dir string) *Capturer {
	return &Capturer{dir: dir}
}

// Capture screenshots the page under a timestamped label and returns the
// file path, or "" when anything goes wrong. Callers must hold the session
// lock; a screenshot is a DOM interaction like any other.
func (c *Capturer) Capture(pg *rod.Page, label string) string {
	if c == nil || pg == nil {
		return ""
	}
	data, err := pg.Screenshot(false, nil)
	if err != nil {
		return ""
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return ""
	}
	path := filepath.Join(c.dir, fmt.Sprintf("%s_%s.png", time.Now().UTC().Format("20060102T150405"), label))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ""
	}
	logger.Debug("diagnostic screenshot captured", "path", path, "label", label)
	return path
}
