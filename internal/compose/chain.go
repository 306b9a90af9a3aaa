package compose

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// strategyFn is one entry in a layered fallback chain. Chains are ordered
// most-specific-first; the driver stops at the first entry whose effect is
// observed on the page.
type strategyFn struct {
	name string
	run  func(ctx context.Context) error
}

// tryStrategies runs each strategy in order until one takes effect. A
// strategy "succeeds" only when verified confirms its effect on the page,
// not merely when run returns nil; providers routinely swallow input
// without applying it.
func tryStrategies(ctx context.Context, label string, strategies []strategyFn, verified func(ctx context.Context) bool) (string, error) {
	var attempts []string
	for _, s := range strategies {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if err := s.run(ctx); err != nil {
			attempts = append(attempts, fmt.Sprintf("%s: %v", s.name, err))
			continue
		}
		if verified(ctx) {
			return s.name, nil
		}
		attempts = append(attempts, s.name+": not observed")
	}
	return "", fmt.Errorf("%s: all strategies exhausted (%s)", label, strings.Join(attempts, "; "))
}

// waitSignal polls probe until it reports true or the window elapses.
// Blocks only the calling worker.
func waitSignal(ctx context.Context, window, interval time.Duration, probe func() bool) bool {
	deadline := time.NewTimer(window)
	defer deadline.Stop()
	tick := time.NewTicker(interval)
	defer tick.Stop()

	if probe() {
		return true
	}
	for {
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return false
		case <-tick.C:
			if probe() {
				return true
			}
		}
	}
}
