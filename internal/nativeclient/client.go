// Package nativeclient is the optional non-browser delivery path. When a
// native send fails the dispatcher silently falls back to the browser
// pipeline; the caller only ever sees an error if both paths fail.
package nativeclient

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Client delivers one message outside the driven browser.
type Client interface {
	Name() string
	Send(ctx context.Context, recipient, subject, htmlBody string, attachments []string) error
}

// CommandClient execs an external helper binary, the opaque-collaborator
// form of a native mail client (e.g. a desktop Outlook bridge). The helper
// receives recipient, subject, body and attachment paths as arguments and
// signals failure via exit code.
type CommandClient struct {
	command string
}

// NewCommandClient wraps a helper binary path.
func NewCommandClient(command string) *CommandClient {
	return &CommandClient{command: command}
}

func (c *CommandClient) Name() string { return "command" }

func (c *CommandClient) Send(ctx context.Context, recipient, subject, htmlBody string, attachments []string) error {
	args := []string{recipient, subject, htmlBody}
	if len(attachments) > 0 {
		args = append(args, strings.Join(attachments, ","))
	}
	cmd := exec.CommandContext(ctx, c.command, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("native helper %s: %w (output: %s)", c.command, err, strings.TrimSpace(string(out)))
	}
	return nil
}
