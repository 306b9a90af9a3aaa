package compose

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/ignite/webmail-courier/internal/pkg/logger"
)

// attachFile assigns the attachment to a file input and waits for a visible
// filename indicator. A missing file input, or an indicator that never
// appears, is a soft failure: the send continues without the attachment.
func (e *Engine) attachFile(ctx context.Context, cc *composeCtx) {
	path := cc.task.AttachmentPath
	if path == "" {
		return
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		logger.Warn("attachment path unusable, sending without it", "path", path, "error", err)
		return
	}

	el, ok := visibleFileInput(cc.pg, cc.refreshContainer(e.strategy))
	if !ok {
		logger.Warn("no file input found, sending without attachment", "path", abs)
		return
	}

	if err := el.SetFiles([]string{abs}); err != nil {
		logger.Warn("attachment assignment failed, sending without it", "path", abs, "error", err)
		return
	}

	name := filepath.Base(abs)
	indicated := waitSignal(ctx, e.timeouts.Attach, 500*time.Millisecond, func() bool {
		container := cc.refreshContainer(e.strategy)
		if container != nil && strings.Contains(elementHTML(container), name) {
			return true
		}
		return pageHasText(cc.pg, name)
	})
	if !indicated {
		logger.Warn("attachment indicator never appeared", "file", name)
		return
	}

	logger.Debug("attachment accepted", "file", name)
}
