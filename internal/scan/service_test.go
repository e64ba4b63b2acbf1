package scan_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gitgauge/gitgauge/internal/gitfetch"
	"github.com/gitgauge/gitgauge/internal/model"
	"github.com/gitgauge/gitgauge/internal/quota"
	"github.com/gitgauge/gitgauge/internal/scan"
	"github.com/gitgauge/gitgauge/internal/store"
	"github.com/gitgauge/gitgauge/internal/testutil"
)

type frontDoor struct {
	*pipeline
	svc *scan.Service
}

func newFrontDoor(t *testing.T) *frontDoor {
	t.Helper()

	st := store.NewMemoryStore()
	logger := &testutil.DummyLogger{}
	tracker := quota.New(quota.Config{AnonymousLimit: anonLimit, Window: time.Hour}, st, logger)
	fetcher := &testutil.DummyFetcher{CheckoutDir: t.TempDir()}
	analyzer := &testutil.DummyAnalyzer{}

	orch := scan.NewOrchestrator(st, tracker, fetcher, &testutil.DummySurveyor{}, analyzer, logger)
	t.Cleanup(func() { st.Close() })
	t.Cleanup(orch.Close)

	p := &pipeline{store: st, tracker: tracker, fetcher: fetcher, analyzer: analyzer, orch: orch}
	return &frontDoor{pipeline: p, svc: scan.NewService(st, tracker, fetcher, orch, logger)}
}

func anonSubmit(url string) scan.SubmitRequest {
	return scan.SubmitRequest{RepoURL: url, IP: "198.51.100.7"}
}

// ─── Validation ────────────────────────────────────────────────────────

func TestService_RejectsInvalidURL(t *testing.T) {
	t.Parallel()
	fd := newFrontDoor(t)

	bad := []string{
		"",
		"https://example.com/owner/repo",
		"ftp://github.com/o/r",
		"not a url",
	}
	for _, url := range bad {
		_, err := fd.svc.Submit(context.Background(), anonSubmit(url))
		if !errors.Is(err, scan.ErrInvalidURL) {
			t.Errorf("expected ErrInvalidURL for %q, got %v", url, err)
		}
	}
}

func TestService_RejectsInaccessibleRepo(t *testing.T) {
	t.Parallel()
	fd := newFrontDoor(t)
	fd.fetcher.Inaccessible = true

	_, err := fd.svc.Submit(context.Background(), anonSubmit("https://github.com/o/private"))
	if !errors.Is(err, gitfetch.ErrNotAccessible) {
		t.Fatalf("expected ErrNotAccessible, got %v", err)
	}
}

// ─── Quota fail-fast ───────────────────────────────────────────────────

func TestService_FailsFastOnExhaustedQuota(t *testing.T) {
	t.Parallel()
	fd := newFrontDoor(t)
	ctx := context.Background()

	identifier := scan.HashIP("198.51.100.7")
	for i := 0; i < anonLimit; i++ {
		fd.tracker.Consume(ctx, identifier)
	}

	_, err := fd.svc.Submit(ctx, anonSubmit("https://github.com/o/r"))
	if !errors.Is(err, scan.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
}

// ─── Submission ────────────────────────────────────────────────────────

func TestService_SubmitCreatesQueuedRecord(t *testing.T) {
	t.Parallel()
	fd := newFrontDoor(t)
	fd.fetcher.Gate = make(chan struct{})
	defer close(fd.fetcher.Gate)

	resp, err := fd.svc.Submit(context.Background(), anonSubmit("https://github.com/o/r"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if resp.Cached {
		t.Error("fresh submission must not report cached")
	}
	if resp.Record.Status != model.ScanQueued {
		t.Errorf("expected queued record, got %s", resp.Record.Status)
	}
	if resp.Record.RepoURL != "https://github.com/o/r.git" {
		t.Errorf("repo url not normalized: %q", resp.Record.RepoURL)
	}
	if resp.Record.CommitHash != "deadbeef" {
		t.Errorf("expected captured revision, got %q", resp.Record.CommitHash)
	}
	if resp.Record.Progress == nil || resp.Record.Progress.Stage != model.StageCloning {
		t.Errorf("expected initial cloning progress, got %+v", resp.Record.Progress)
	}
	if resp.Record.UserID != "" || resp.Record.IPHash == "" {
		t.Errorf("anonymous identity not recorded: %+v", resp.Record)
	}
}

func TestService_AuthenticatedSubmitKeepsUserID(t *testing.T) {
	t.Parallel()
	fd := newFrontDoor(t)
	fd.fetcher.Gate = make(chan struct{})
	defer close(fd.fetcher.Gate)

	resp, err := fd.svc.Submit(context.Background(), scan.SubmitRequest{
		RepoURL: "https://github.com/o/r",
		UserID:  "user-42",
		IP:      "198.51.100.7",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if resp.Record.UserID != "user-42" {
		t.Errorf("user id not kept: %+v", resp.Record)
	}
	if resp.Record.IPHash != "" {
		t.Error("authenticated submissions should not hash the IP")
	}
}

// ─── Cache hits ────────────────────────────────────────────────────────

func TestService_CacheHit(t *testing.T) {
	t.Parallel()
	fd := newFrontDoor(t)
	ctx := context.Background()

	// A full scan establishes the cached result.
	first, err := fd.svc.Submit(ctx, anonSubmit("https://github.com/o/r"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	done := fd.waitTerminal(t, first.ScanID)
	if done.Status != model.ScanSucceeded {
		t.Fatalf("seed scan failed: %s (%s)", done.Status, done.Error)
	}

	second, err := fd.svc.Submit(ctx, anonSubmit("https://github.com/o/r"))
	if err != nil {
		t.Fatalf("cached Submit: %v", err)
	}

	if !second.Cached {
		t.Fatal("expected a cache hit")
	}
	if second.ScanID == first.ScanID {
		t.Error("cache hit must still mint a fresh record")
	}
	if second.Record.Status != model.ScanSucceeded {
		t.Errorf("cached record should be born succeeded, got %s", second.Record.Status)
	}
	if second.Record.Description != done.Description {
		t.Errorf("cached result not copied: %q vs %q", second.Record.Description, done.Description)
	}
	if second.Record.CompletedAt == nil {
		t.Error("cached record should carry a completion time")
	}

	// The hit bypasses the queue entirely.
	if pending, _ := fd.orch.QueueDepth(); pending != 0 {
		t.Errorf("cache hit must not enqueue, pending %d", pending)
	}

	// Only the seed scan spent quota; the worker never ran for the hit.
	if r := fd.remaining(t, scan.HashIP("198.51.100.7")); r != anonLimit-1 {
		t.Errorf("cache hit must not spend quota, remaining %d", r)
	}
	if fd.fetcher.CheckoutCount() != 1 {
		t.Errorf("expected exactly one real checkout, got %d", fd.fetcher.CheckoutCount())
	}
}

func TestService_NewRevisionMissesCache(t *testing.T) {
	t.Parallel()
	fd := newFrontDoor(t)
	ctx := context.Background()

	first, err := fd.svc.Submit(ctx, anonSubmit("https://github.com/o/r"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	fd.waitTerminal(t, first.ScanID)

	// The remote moved on.
	fd.fetcher.Revision = "0123456789abcdef"

	second, err := fd.svc.Submit(ctx, anonSubmit("https://github.com/o/r"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if second.Cached {
		t.Error("a new revision must trigger a full scan")
	}
	fd.waitTerminal(t, second.ScanID)
}

// ─── HashIP ────────────────────────────────────────────────────────────

func TestHashIP(t *testing.T) {
	t.Parallel()

	a1 := scan.HashIP("198.51.100.7")
	a2 := scan.HashIP("198.51.100.7")
	b := scan.HashIP("198.51.100.8")

	if a1 != a2 {
		t.Error("hash must be deterministic")
	}
	if a1 == b {
		t.Error("distinct addresses must hash differently")
	}
	if a1 == "198.51.100.7" || len(a1) != 64 {
		t.Errorf("expected a sha256 hex digest, got %q", a1)
	}
}
