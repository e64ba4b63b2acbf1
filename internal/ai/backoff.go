package ai

import (
	"context"
	"math/rand"
	"time"
)

const (
	backoffCap = 60 * time.Second

	// slowRetryBase applies to rate-limit/unavailable statuses where the
	// provider is telling us to back off hard.
	slowRetryBase = 60 * time.Second

	// fastRetryBase applies to the remaining transient statuses.
	fastRetryBase = 2 * time.Second
)

// transientStatus reports whether an HTTP status class is worth retrying.
func transientStatus(code int) bool {
	switch code {
	case 429, 500, 503, 408, 504:
		return true
	}
	return false
}

// slowStatus reports whether a status gets the long base delay.
func slowStatus(code int) bool {
	return code == 429 || code == 503
}

// backoffDelay computes a full-jitter truncated exponential delay for the
// given attempt (0-based): uniform in [0, min(cap, base<<attempt)]. A
// positive baseOverride replaces the per-status base while keeping the
// doubling and the jitter.
func backoffDelay(status, attempt int, baseOverride time.Duration) time.Duration {
	base := fastRetryBase
	if slowStatus(status) {
		base = slowRetryBase
	}
	if baseOverride > 0 {
		base = baseOverride
	}
	ceiling := base << attempt
	if ceiling > backoffCap || ceiling <= 0 {
		ceiling = backoffCap
	}
	return time.Duration(rand.Int63n(int64(ceiling) + 1))
}

// sleepCtx waits for d or until ctx is cancelled, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
