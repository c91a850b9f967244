// Package probe runs startup health checks before the server accepts
// traffic.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// checkTimeout bounds each individual check even when the caller's
// context is long-lived.
const checkTimeout = 5 * time.Second

// Check is one startup health check. A failing vital check aborts
// startup; a failing non-vital check is only logged.
type Check struct {
	Name  string
	Vital bool
	Fn    func(ctx context.Context) error
}

// Run executes the checks in order, logging each outcome, and returns
// the joined errors of the vital failures.
func Run(ctx context.Context, checks []Check) error {
	var failed []error

	for _, c := range checks {
		cctx, cancel := context.WithTimeout(ctx, checkTimeout)
		start := time.Now()
		err := c.Fn(cctx)
		cancel()
		elapsed := time.Since(start).Round(time.Millisecond)

		if err != nil {
			slog.Error("Probe: Check failed", "name", c.Name, "vital", c.Vital, "duration", elapsed, "error", err)
			if c.Vital {
				failed = append(failed, fmt.Errorf("%s: %w", c.Name, err))
			}
			continue
		}
		slog.Info("Probe: Check passed", "name", c.Name, "duration", elapsed)
	}

	return errors.Join(failed...)
}
