package browser

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrWaitTimeout is returned when a polled condition is still false at the
// wait ceiling.
var ErrWaitTimeout = errors.New("wait timed out")

// Poll evaluates cond immediately and then every interval until it returns
// true, ctx ends, or deadline passes. Errors from cond are treated as "not
// yet": a page that is mid-navigation often fails evaluation.
func Poll(ctx context.Context, interval time.Duration, deadline time.Time, what string, cond func() (bool, error)) error {
	var lastErr error
	check := func() bool {
		ok, err := cond()
		if err != nil {
			lastErr = err
			return false
		}
		return ok
	}
	if check() {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s: %w", what, ctx.Err())
		case <-timer.C:
			if check() {
				return nil
			}
			if lastErr != nil {
				return fmt.Errorf("waiting for %s: %w (last error: %v)", what, ErrWaitTimeout, lastErr)
			}
			return fmt.Errorf("waiting for %s: %w", what, ErrWaitTimeout)
		case <-ticker.C:
			if check() {
				return nil
			}
		}
	}
}
