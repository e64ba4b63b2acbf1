// Package quota enforces per-identifier request limits with a sliding
// window over a keyed document store.
package quota

import (
	"context"
	"time"

	"github.com/gitgauge/gitgauge/internal/interfaces"
	"github.com/gitgauge/gitgauge/internal/logging"
	"github.com/gitgauge/gitgauge/internal/model"
)

// Config holds the tracker limits.
type Config struct {
	// AnonymousLimit caps requests per window for hashed-IP identifiers.
	AnonymousLimit int

	// AuthenticatedLimit caps requests per window for signed-in users.
	AuthenticatedLimit int

	// Window is the sliding horizon requests are counted over.
	Window time.Duration
}

// DefaultConfig returns the production limits.
func DefaultConfig() Config {
	return Config{
		AnonymousLimit:     3,
		AuthenticatedLimit: 20,
		Window:             time.Hour,
	}
}

// Tracker is a sliding-window quota counter. If the backing store is
// unavailable it fails open: requests are allowed and the outage is logged,
// never surfaced to the caller. Availability wins over strict enforcement.
type Tracker struct {
	cfg    Config
	store  interfaces.QuotaStore
	logger logging.Logger

	// now is swappable in tests.
	now func() time.Time
}

// New creates a Tracker. A zero-valued cfg field falls back to its default.
func New(cfg Config, store interfaces.QuotaStore, logger logging.Logger) *Tracker {
	def := DefaultConfig()
	if cfg.AnonymousLimit <= 0 {
		cfg.AnonymousLimit = def.AnonymousLimit
	}
	if cfg.AuthenticatedLimit <= 0 {
		cfg.AuthenticatedLimit = def.AuthenticatedLimit
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	return &Tracker{cfg: cfg, store: store, logger: logger, now: time.Now}
}

func (t *Tracker) limit(authenticated bool) int {
	if authenticated {
		return t.cfg.AuthenticatedLimit
	}
	return t.cfg.AnonymousLimit
}

// prune drops entries older than the window. The stored list is oldest-first.
func prune(requests []time.Time, cutoff time.Time) []time.Time {
	kept := requests[:0:0]
	for _, ts := range requests {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	return kept
}

func (t *Tracker) resetAt(requests []time.Time, now time.Time) time.Time {
	if len(requests) == 0 {
		return now
	}
	return requests[0].Add(t.cfg.Window)
}

func (t *Tracker) failOpen(identifier string, limit int, err error) model.QuotaDecision {
	t.logger.Warn("quota store unavailable, failing open",
		logging.Field{Key: "identifier", Value: identifier},
		logging.Field{Key: "error", Value: err.Error()})
	return model.QuotaDecision{Allowed: true, Remaining: limit, ResetAt: t.now().Add(t.cfg.Window)}
}

// CheckAndConsume checks the identifier's window and, when under the limit,
// records one request.
func (t *Tracker) CheckAndConsume(ctx context.Context, identifier string, authenticated bool) model.QuotaDecision {
	limit := t.limit(authenticated)
	now := t.now()

	w, err := t.store.GetQuotaWindow(ctx, identifier)
	if err != nil {
		return t.failOpen(identifier, limit, err)
	}

	requests := prune(w.Requests, now.Add(-t.cfg.Window))
	if len(requests) >= limit {
		return model.QuotaDecision{Allowed: false, Remaining: 0, ResetAt: t.resetAt(requests, now)}
	}

	requests = append(requests, now)
	if err := t.store.PutQuotaWindow(ctx, identifier, &model.QuotaWindow{Requests: requests}); err != nil {
		return t.failOpen(identifier, limit, err)
	}

	return model.QuotaDecision{
		Allowed:   true,
		Remaining: limit - len(requests),
		ResetAt:   t.resetAt(requests, now),
	}
}

// CheckOnly reports the identifier's current quota standing without
// consuming. The stored window is filtered in memory, never rewritten.
func (t *Tracker) CheckOnly(ctx context.Context, identifier string, authenticated bool) model.QuotaDecision {
	limit := t.limit(authenticated)
	now := t.now()

	w, err := t.store.GetQuotaWindow(ctx, identifier)
	if err != nil {
		return t.failOpen(identifier, limit, err)
	}

	requests := prune(w.Requests, now.Add(-t.cfg.Window))
	remaining := limit - len(requests)
	if remaining < 0 {
		remaining = 0
	}
	return model.QuotaDecision{
		Allowed:   len(requests) < limit,
		Remaining: remaining,
		ResetAt:   t.resetAt(requests, now),
	}
}

// Consume appends one request without checking the limit. The orchestrator
// uses it right after a read-only check so quota is spent exactly once per
// scan.
func (t *Tracker) Consume(ctx context.Context, identifier string) {
	now := t.now()
	w, err := t.store.GetQuotaWindow(ctx, identifier)
	if err != nil {
		t.failOpen(identifier, 0, err)
		return
	}
	requests := append(prune(w.Requests, now.Add(-t.cfg.Window)), now)
	if err := t.store.PutQuotaWindow(ctx, identifier, &model.QuotaWindow{Requests: requests}); err != nil {
		t.failOpen(identifier, 0, err)
	}
}

// Refund removes the most recently recorded request for identifier. It is
// not a true semantic refund, but consumption and refund are paired 1:1
// within a single scan's lifecycle, which is sufficient here.
func (t *Tracker) Refund(ctx context.Context, identifier string) bool {
	w, err := t.store.GetQuotaWindow(ctx, identifier)
	if err != nil {
		t.logger.Warn("quota refund skipped, store unavailable",
			logging.Field{Key: "identifier", Value: identifier},
			logging.Field{Key: "error", Value: err.Error()})
		return false
	}
	if len(w.Requests) == 0 {
		return false
	}

	// Drop the newest entry; the list is kept oldest-first.
	newest := 0
	for i, ts := range w.Requests {
		if ts.After(w.Requests[newest]) {
			newest = i
		}
	}
	requests := append(w.Requests[:newest:newest], w.Requests[newest+1:]...)
	if err := t.store.PutQuotaWindow(ctx, identifier, &model.QuotaWindow{Requests: requests}); err != nil {
		t.logger.Warn("quota refund write failed",
			logging.Field{Key: "identifier", Value: identifier},
			logging.Field{Key: "error", Value: err.Error()})
		return false
	}
	return true
}
