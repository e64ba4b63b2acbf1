package ai

import (
	"context"
	"testing"
	"time"
)

// ─── backoffDelay ──────────────────────────────────────────────────────

func TestBackoffDelay_BoundedByExponentialCeiling(t *testing.T) {
	t.Parallel()

	base := 8 * time.Millisecond
	for attempt := 0; attempt < 4; attempt++ {
		ceiling := base << attempt
		for i := 0; i < 100; i++ {
			if d := backoffDelay(500, attempt, base); d < 0 || d > ceiling {
				t.Fatalf("attempt %d: delay %v outside [0, %v]", attempt, d, ceiling)
			}
		}
	}
}

func TestBackoffDelay_BaseOverrideKeepsDoubling(t *testing.T) {
	t.Parallel()

	// With the ceiling at base<<attempt, later attempts must be able to
	// exceed the base itself. A constant override would never get there.
	base := 4 * time.Millisecond
	exceeded := false
	for i := 0; i < 500; i++ {
		if backoffDelay(503, 3, base) > base {
			exceeded = true
			break
		}
	}
	if !exceeded {
		t.Error("override pinned the delay to the base; doubling is gone")
	}
}

func TestBackoffDelay_SlowStatusUsesLongBase(t *testing.T) {
	t.Parallel()

	// Attempt 0 without an override: 429/503 draw from [0, 60s], others
	// from [0, 2s]. Sampling the fast path must stay under the slow base.
	for i := 0; i < 100; i++ {
		if d := backoffDelay(500, 0, 0); d > fastRetryBase {
			t.Fatalf("fast-path delay %v exceeds base %v", d, fastRetryBase)
		}
	}
}

// ─── sleepCtx ──────────────────────────────────────────────────────────

func TestSleepCtx_CompletesWhenUncancelled(t *testing.T) {
	t.Parallel()

	if err := sleepCtx(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("sleepCtx: %v", err)
	}
}

func TestSleepCtx_ReturnsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := sleepCtx(ctx, time.Minute)
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("sleepCtx waited %v after cancellation", elapsed)
	}
}
