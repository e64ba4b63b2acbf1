package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gitgauge/gitgauge/internal/model"
	"github.com/gitgauge/gitgauge/internal/quota"
	"github.com/gitgauge/gitgauge/internal/scan"
	"github.com/gitgauge/gitgauge/internal/server"
	"github.com/gitgauge/gitgauge/internal/store"
	"github.com/gitgauge/gitgauge/internal/testutil"
)

type testEnv struct {
	srv     *server.Server
	store   *store.MemoryStore
	fetcher *testutil.DummyFetcher
}

func newTestServer(t *testing.T) *testEnv {
	t.Helper()

	st := store.NewMemoryStore()
	logger := &testutil.DummyLogger{}
	tracker := quota.New(quota.Config{AnonymousLimit: 3, Window: time.Hour}, st, logger)
	fetcher := &testutil.DummyFetcher{CheckoutDir: t.TempDir()}

	orch := scan.NewOrchestrator(st, tracker, fetcher, &testutil.DummySurveyor{}, &testutil.DummyAnalyzer{}, logger)
	svc := scan.NewService(st, tracker, fetcher, orch, logger)

	s := server.NewServer(server.Config{
		ListenAddr: ":0",
		Verifier:   &server.StaticVerifier{Token: "sekrit", UserID: "user-1"},
		Logger:     logger,
	}, svc, orch, st, tracker)
	t.Cleanup(s.Close)

	return &testEnv{srv: s, store: st, fetcher: fetcher}
}

func doJSON(t *testing.T, s http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "198.51.100.7:58234"
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON response: %v (body: %s)", err, rec.Body.String())
	}
}

func waitTerminal(t *testing.T, st *store.MemoryStore, id string) *model.ScanRecord {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		rec, err := st.GetScan(context.Background(), id)
		if err == nil && rec.Terminal() {
			return rec
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("scan %s never reached a terminal status", id)
	return nil
}

// ─── CORS ──────────────────────────────────────────────────────────────

func TestServer_CORS_HeaderPresent(t *testing.T) {
	t.Parallel()
	env := newTestServer(t)

	rec := doJSON(t, env.srv, "GET", "/queue", "")

	if origin := rec.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("expected CORS origin *, got %q", origin)
	}
}

func TestServer_OptionsPreflight(t *testing.T) {
	t.Parallel()
	env := newTestServer(t)

	rec := doJSON(t, env.srv, "OPTIONS", "/scans", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 for OPTIONS, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("expected Allow-Methods header on OPTIONS")
	}
}

// ─── Submissions ───────────────────────────────────────────────────────

func TestServer_SubmitScan(t *testing.T) {
	t.Parallel()
	env := newTestServer(t)

	rec := doJSON(t, env.srv, "POST", "/scans", `{"repoUrl":"https://github.com/o/r"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp scan.SubmitResponse
	decodeJSON(t, rec, &resp)
	if resp.ScanID == "" {
		t.Fatal("expected a scan id")
	}
	if resp.Cached {
		t.Error("fresh submission must not report cached")
	}
	waitTerminal(t, env.store, resp.ScanID)
}

func TestServer_SubmitScan_InvalidJSON(t *testing.T) {
	t.Parallel()
	env := newTestServer(t)

	rec := doJSON(t, env.srv, "POST", "/scans", `{invalid}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestServer_SubmitScan_InvalidURL(t *testing.T) {
	t.Parallel()
	env := newTestServer(t)

	rec := doJSON(t, env.srv, "POST", "/scans", `{"repoUrl":"https://example.com/o/r"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestServer_SubmitScan_QuotaExhausted(t *testing.T) {
	t.Parallel()
	env := newTestServer(t)

	for i := 0; i < 3; i++ {
		rec := doJSON(t, env.srv, "POST", "/scans", `{"repoUrl":"https://github.com/o/r"}`)
		if rec.Code != http.StatusAccepted {
			t.Fatalf("submission %d: unexpected status %d: %s", i+1, rec.Code, rec.Body.String())
		}
		var resp scan.SubmitResponse
		decodeJSON(t, rec, &resp)
		waitTerminal(t, env.store, resp.ScanID)
		// Force a new revision so the next submission misses the cache.
		env.fetcher.Revision = strings.Repeat("a", i+7)
	}

	rec := doJSON(t, env.srv, "POST", "/scans", `{"repoUrl":"https://github.com/o/r"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d: %s", rec.Code, rec.Body.String())
	}
	var errResp server.ErrorResponse
	decodeJSON(t, rec, &errResp)
	if errResp.ErrorCode != string(model.CodeRateLimitExceeded) {
		t.Errorf("expected RATE_LIMIT_EXCEEDED, got %q", errResp.ErrorCode)
	}
}

func TestServer_SubmitScan_BadBearerRejected(t *testing.T) {
	t.Parallel()
	env := newTestServer(t)

	req := httptest.NewRequest("POST", "/scans", strings.NewReader(`{"repoUrl":"https://github.com/o/r"}`))
	req.Header.Set("Authorization", "Bearer wrong")
	req.RemoteAddr = "198.51.100.7:58234"
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestServer_SubmitScan_CachedResponse(t *testing.T) {
	t.Parallel()
	env := newTestServer(t)

	rec := doJSON(t, env.srv, "POST", "/scans", `{"repoUrl":"https://github.com/o/r"}`)
	var first scan.SubmitResponse
	decodeJSON(t, rec, &first)
	waitTerminal(t, env.store, first.ScanID)

	rec = doJSON(t, env.srv, "POST", "/scans", `{"repoUrl":"https://github.com/o/r"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for cache hit, got %d", rec.Code)
	}
	var second scan.SubmitResponse
	decodeJSON(t, rec, &second)
	if !second.Cached {
		t.Error("expected cached response")
	}
}

// ─── Record reads ──────────────────────────────────────────────────────

func TestServer_GetScan_NotFound(t *testing.T) {
	t.Parallel()
	env := newTestServer(t)

	rec := doJSON(t, env.srv, "GET", "/scans/nonexistent", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestServer_GetScan(t *testing.T) {
	t.Parallel()
	env := newTestServer(t)

	rec := doJSON(t, env.srv, "POST", "/scans", `{"repoUrl":"https://github.com/o/r"}`)
	var resp scan.SubmitResponse
	decodeJSON(t, rec, &resp)
	waitTerminal(t, env.store, resp.ScanID)

	rec = doJSON(t, env.srv, "GET", "/scans/"+resp.ScanID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got model.ScanRecord
	decodeJSON(t, rec, &got)
	if got.ID != resp.ScanID || got.Status != model.ScanSucceeded {
		t.Errorf("unexpected record: %+v", got)
	}
}

// ─── Cancellation ──────────────────────────────────────────────────────

func TestServer_CancelScan_NotQueued(t *testing.T) {
	t.Parallel()
	env := newTestServer(t)

	rec := doJSON(t, env.srv, "DELETE", "/scans/nonexistent", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 for unqueued scan, got %d", rec.Code)
	}
}

// ─── Introspection ─────────────────────────────────────────────────────

func TestServer_QueueState(t *testing.T) {
	t.Parallel()
	env := newTestServer(t)

	rec := doJSON(t, env.srv, "GET", "/queue", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var state server.QueueStateResponse
	decodeJSON(t, rec, &state)
	if state.Pending != 0 || state.Processing {
		t.Errorf("expected idle queue, got %+v", state)
	}
}

func TestServer_QuotaState(t *testing.T) {
	t.Parallel()
	env := newTestServer(t)

	rec := doJSON(t, env.srv, "GET", "/quota", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var state server.QuotaStateResponse
	decodeJSON(t, rec, &state)
	if !state.Allowed || state.Remaining != 3 {
		t.Errorf("expected full anonymous quota, got %+v", state)
	}
}

// ─── WebSocket streaming ───────────────────────────────────────────────

func TestServer_ScanWS_StreamsToTerminal(t *testing.T) {
	t.Parallel()
	env := newTestServer(t)

	ts := httptest.NewServer(env.srv)
	t.Cleanup(ts.Close)

	rec := doJSON(t, env.srv, "POST", "/scans", `{"repoUrl":"https://github.com/o/r"}`)
	var resp scan.SubmitResponse
	decodeJSON(t, rec, &resp)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/scans/" + resp.ScanID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var last model.ScanRecord
	for {
		var rec model.ScanRecord
		if err := conn.ReadJSON(&rec); err != nil {
			break
		}
		last = rec
		if rec.Terminal() {
			break
		}
	}
	if last.Status != model.ScanSucceeded {
		t.Errorf("expected the stream to end on a succeeded record, got %+v", last.Status)
	}
}
