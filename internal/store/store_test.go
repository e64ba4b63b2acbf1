package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/gitgauge/gitgauge/internal/model"
	"github.com/gitgauge/gitgauge/internal/store"
	"github.com/gitgauge/gitgauge/internal/testutil"
)

// docStore is the combined surface both backends implement.
type docStore interface {
	CreateScan(ctx context.Context, rec *model.ScanRecord) error
	GetScan(ctx context.Context, id string) (*model.ScanRecord, error)
	UpdateScan(ctx context.Context, id string, mutate func(*model.ScanRecord)) (*model.ScanRecord, error)
	DeleteScan(ctx context.Context, id string) error
	FindSucceededScan(ctx context.Context, repoURL, commitHash string) (*model.ScanRecord, error)
	WatchScan(ctx context.Context, id string) (<-chan model.ScanRecord, func(), error)
	GetQuotaWindow(ctx context.Context, identifier string) (*model.QuotaWindow, error)
	PutQuotaWindow(ctx context.Context, identifier string, w *model.QuotaWindow) error
	DeleteQuotaWindow(ctx context.Context, identifier string) error
	Close() error
}

func eachStore(t *testing.T, run func(t *testing.T, s docStore)) {
	t.Helper()

	t.Run("memory", func(t *testing.T) {
		t.Parallel()
		s := store.NewMemoryStore()
		t.Cleanup(func() { s.Close() })
		run(t, s)
	})

	t.Run("sqlite", func(t *testing.T) {
		t.Parallel()
		s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "scans.db"), &testutil.DummyLogger{})
		if err != nil {
			t.Fatalf("NewSQLiteStore: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		run(t, s)
	})
}

func someRecord(id string) *model.ScanRecord {
	return &model.ScanRecord{
		ID:         id,
		RepoURL:    "https://github.com/o/r.git",
		Provider:   "github",
		Owner:      "o",
		Repo:       "r",
		CommitHash: "abc123",
		Status:     model.ScanQueued,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	}
}

// ─── Scan CRUD ─────────────────────────────────────────────────────────

func TestStore_CreateAndGet(t *testing.T) {
	t.Parallel()
	eachStore(t, func(t *testing.T, s docStore) {
		ctx := context.Background()
		if err := s.CreateScan(ctx, someRecord("s1")); err != nil {
			t.Fatalf("CreateScan: %v", err)
		}

		got, err := s.GetScan(ctx, "s1")
		if err != nil {
			t.Fatalf("GetScan: %v", err)
		}
		if got.RepoURL != "https://github.com/o/r.git" || got.Status != model.ScanQueued {
			t.Errorf("unexpected record: %+v", got)
		}
	})
}

func TestStore_GetMissing(t *testing.T) {
	t.Parallel()
	eachStore(t, func(t *testing.T, s docStore) {
		if _, err := s.GetScan(context.Background(), "nope"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestStore_UpdateScan(t *testing.T) {
	t.Parallel()
	eachStore(t, func(t *testing.T, s docStore) {
		ctx := context.Background()
		if err := s.CreateScan(ctx, someRecord("s1")); err != nil {
			t.Fatalf("CreateScan: %v", err)
		}

		updated, err := s.UpdateScan(ctx, "s1", func(rec *model.ScanRecord) {
			rec.Status = model.ScanRunning
			rec.Progress = &model.Progress{Stage: model.StageCloning, Percentage: 10}
		})
		if err != nil {
			t.Fatalf("UpdateScan: %v", err)
		}
		if updated.Status != model.ScanRunning || updated.Progress == nil {
			t.Errorf("mutation not applied: %+v", updated)
		}

		got, _ := s.GetScan(ctx, "s1")
		if got.Status != model.ScanRunning {
			t.Errorf("update not persisted: %+v", got)
		}
	})
}

func TestStore_UpdateMissing(t *testing.T) {
	t.Parallel()
	eachStore(t, func(t *testing.T, s docStore) {
		_, err := s.UpdateScan(context.Background(), "nope", func(*model.ScanRecord) {})
		if !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestStore_DeleteScan(t *testing.T) {
	t.Parallel()
	eachStore(t, func(t *testing.T, s docStore) {
		ctx := context.Background()
		if err := s.CreateScan(ctx, someRecord("s1")); err != nil {
			t.Fatalf("CreateScan: %v", err)
		}
		if err := s.DeleteScan(ctx, "s1"); err != nil {
			t.Fatalf("DeleteScan: %v", err)
		}
		if _, err := s.GetScan(ctx, "s1"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("record should be gone, got %v", err)
		}
		// Deleting an unknown id is not an error.
		if err := s.DeleteScan(ctx, "nope"); err != nil {
			t.Errorf("deleting unknown id: %v", err)
		}
	})
}

// ─── Cache lookup ──────────────────────────────────────────────────────

func TestStore_FindSucceededScan(t *testing.T) {
	t.Parallel()
	eachStore(t, func(t *testing.T, s docStore) {
		ctx := context.Background()

		older := someRecord("old")
		older.Status = model.ScanSucceeded
		older.Description = "older result"
		older.CreatedAt = time.Now().UTC().Add(-2 * time.Hour).Truncate(time.Second)

		newer := someRecord("new")
		newer.Status = model.ScanSucceeded
		newer.Description = "newer result"

		failed := someRecord("failed")
		failed.Status = model.ScanFailed

		for _, rec := range []*model.ScanRecord{older, newer, failed} {
			if err := s.CreateScan(ctx, rec); err != nil {
				t.Fatalf("CreateScan: %v", err)
			}
		}

		hit, err := s.FindSucceededScan(ctx, "https://github.com/o/r.git", "abc123")
		if err != nil {
			t.Fatalf("FindSucceededScan: %v", err)
		}
		if hit == nil || hit.ID != "new" {
			t.Errorf("expected newest succeeded record, got %+v", hit)
		}
	})
}

func TestStore_FindSucceededScan_Miss(t *testing.T) {
	t.Parallel()
	eachStore(t, func(t *testing.T, s docStore) {
		ctx := context.Background()
		rec := someRecord("s1")
		rec.Status = model.ScanSucceeded
		if err := s.CreateScan(ctx, rec); err != nil {
			t.Fatalf("CreateScan: %v", err)
		}

		hit, err := s.FindSucceededScan(ctx, "https://github.com/o/r.git", "different-hash")
		if err != nil {
			t.Fatalf("FindSucceededScan: %v", err)
		}
		if hit != nil {
			t.Errorf("expected miss, got %+v", hit)
		}
	})
}

// ─── Watch ─────────────────────────────────────────────────────────────

func TestStore_WatchDeliversUpdates(t *testing.T) {
	t.Parallel()
	eachStore(t, func(t *testing.T, s docStore) {
		ctx := context.Background()
		if err := s.CreateScan(ctx, someRecord("s1")); err != nil {
			t.Fatalf("CreateScan: %v", err)
		}

		updates, cancel, err := s.WatchScan(ctx, "s1")
		if err != nil {
			t.Fatalf("WatchScan: %v", err)
		}
		defer cancel()

		if _, err := s.UpdateScan(ctx, "s1", func(rec *model.ScanRecord) {
			rec.Status = model.ScanRunning
		}); err != nil {
			t.Fatalf("UpdateScan: %v", err)
		}

		select {
		case upd := <-updates:
			if upd.Status != model.ScanRunning {
				t.Errorf("unexpected update: %+v", upd)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("no update delivered")
		}
	})
}

func TestStore_WatchCancelClosesChannel(t *testing.T) {
	t.Parallel()
	eachStore(t, func(t *testing.T, s docStore) {
		ctx := context.Background()
		if err := s.CreateScan(ctx, someRecord("s1")); err != nil {
			t.Fatalf("CreateScan: %v", err)
		}

		updates, cancel, err := s.WatchScan(ctx, "s1")
		if err != nil {
			t.Fatalf("WatchScan: %v", err)
		}
		cancel()

		select {
		case _, ok := <-updates:
			if ok {
				t.Error("expected closed channel after cancel")
			}
		case <-time.After(2 * time.Second):
			t.Fatal("channel not closed after cancel")
		}
	})
}

// ─── Quota windows ─────────────────────────────────────────────────────

func TestStore_QuotaWindowRoundTrip(t *testing.T) {
	t.Parallel()
	eachStore(t, func(t *testing.T, s docStore) {
		ctx := context.Background()

		// Missing window yields an empty one, not an error.
		w, err := s.GetQuotaWindow(ctx, "anon")
		if err != nil {
			t.Fatalf("GetQuotaWindow: %v", err)
		}
		if len(w.Requests) != 0 {
			t.Errorf("expected empty window, got %+v", w)
		}

		ts := time.Now().UTC().Truncate(time.Second)
		if err := s.PutQuotaWindow(ctx, "anon", &model.QuotaWindow{Requests: []time.Time{ts}}); err != nil {
			t.Fatalf("PutQuotaWindow: %v", err)
		}

		w, err = s.GetQuotaWindow(ctx, "anon")
		if err != nil {
			t.Fatalf("GetQuotaWindow: %v", err)
		}
		if len(w.Requests) != 1 || !w.Requests[0].Equal(ts) {
			t.Errorf("unexpected window: %+v", w)
		}

		if err := s.DeleteQuotaWindow(ctx, "anon"); err != nil {
			t.Fatalf("DeleteQuotaWindow: %v", err)
		}
		w, _ = s.GetQuotaWindow(ctx, "anon")
		if len(w.Requests) != 0 {
			t.Errorf("window should be gone, got %+v", w)
		}
	})
}

// ─── Close ─────────────────────────────────────────────────────────────

func TestMemoryStore_UseAfterClose(t *testing.T) {
	t.Parallel()
	s := store.NewMemoryStore()
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.CreateScan(context.Background(), someRecord("s1")); !errors.Is(err, store.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
