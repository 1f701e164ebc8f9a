package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Policy describes a fixed-delay retry loop
type Policy struct {
	Attempts int
	Delay    time.Duration
}

// Do calls fn until it succeeds, the attempts are used up, or ctx is done.
// The error of the last attempt is returned.
func Do(ctx context.Context, policy Policy, name string, fn func(ctx context.Context) error) error {
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt < attempts {
			logrus.WithFields(logrus.Fields{
				"operation": name,
				"attempt":   attempt,
				"delay":     policy.Delay,
				"error":     lastErr,
			}).Warn("Attempt failed, retrying")

			if err := Sleep(ctx, policy.Delay); err != nil {
				return err
			}
		}
	}

	logrus.WithFields(logrus.Fields{
		"operation": name,
		"attempts":  attempts,
		"error":     lastErr,
	}).Debug("Giving up after final attempt")

	return fmt.Errorf("%s failed after %d attempts: %w", name, attempts, lastErr)
}

// Sleep waits for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
