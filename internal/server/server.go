// Package server exposes the scan pipeline over HTTP and WebSocket using a
// chi router. Submissions, record reads, queue and quota introspection are
// REST; live record updates stream over /ws.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/gitgauge/gitgauge/internal/gitfetch"
	"github.com/gitgauge/gitgauge/internal/interfaces"
	"github.com/gitgauge/gitgauge/internal/logging"
	"github.com/gitgauge/gitgauge/internal/model"
	"github.com/gitgauge/gitgauge/internal/quota"
	"github.com/gitgauge/gitgauge/internal/scan"
	"github.com/gitgauge/gitgauge/internal/store"
)

// Server is the HTTP + WebSocket API surface for GitGauge.
type Server struct {
	cfg      Config
	service  *scan.Service
	orch     *scan.Orchestrator
	store    interfaces.ScanStore
	quota    *quota.Tracker
	router   chi.Router
	upgrader websocket.Upgrader
	logger   logging.Logger
}

// NewServer wires the API surface around an assembled scan pipeline.
func NewServer(cfg Config, svc *scan.Service, orch *scan.Orchestrator, scans interfaces.ScanStore, tracker *quota.Tracker) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("Server")
	}

	s := &Server{
		cfg:     cfg,
		service: svc,
		orch:    orch,
		store:   scans,
		quota:   tracker,
		router:  chi.NewRouter(),
		logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// TODO: tighten for production
				return true
			},
		},
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	// CORS preflight
	r.Options("/scans", s.optionsHandler("POST"))
	r.Options("/scans/{scanID}", s.optionsHandler("GET, DELETE"))
	r.Options("/queue", s.optionsHandler("GET"))
	r.Options("/quota", s.optionsHandler("GET"))
	r.Options("/ws/scans/{scanID}", s.optionsHandler("GET"))

	// Scans
	r.Post("/scans", s.handleSubmitScan)
	r.Get("/scans/{scanID}", s.handleGetScan)
	r.Delete("/scans/{scanID}", s.handleCancelScan)

	// Introspection
	r.Get("/queue", s.handleQueueState)
	r.Get("/quota", s.handleQuotaState)

	// WebSocket for live record updates
	r.Get("/ws/scans/{scanID}", s.handleScanWS)

	// Interactive API docs
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}

	if r.Body != nil && r.Method == http.MethodPost {
		if bodyBytes, err := io.ReadAll(r.Body); err == nil {
			fields = append(fields, logging.Field{Key: "body", Value: string(bodyBytes)})
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	}

	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// Close shuts down the orchestrator and the backing store.
func (s *Server) Close() {
	if s.orch != nil {
		s.orch.Close()
	}
	if s.store != nil {
		s.store.Close()
	}
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // allow streaming
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func writeCodedError(w http.ResponseWriter, status int, msg string, code model.ErrorCode) {
	writeJSON(w, status, ErrorResponse{Error: msg, ErrorCode: string(code)})
}

// --- Identity ---

// bearerToken extracts the credential from an Authorization: Bearer header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return h[len(prefix):]
	}
	return ""
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// connection's remote address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// identity resolves the caller to (userID, ip). An invalid credential is an
// error; a missing one means anonymous.
func (s *Server) identity(r *http.Request) (string, string, error) {
	ip := clientIP(r)
	token := bearerToken(r)
	if token == "" || s.cfg.Verifier == nil {
		return "", ip, nil
	}
	userID, err := s.cfg.Verifier.Verify(r.Context(), token)
	if err != nil {
		return "", ip, err
	}
	return userID, ip, nil
}

// --- HTTP handlers ---

// Scans

func (s *Server) handleSubmitScan(w http.ResponseWriter, r *http.Request) {
	var body SubmitScanRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	userID, ip, err := s.identity(r)
	if err != nil {
		s.logger.Warn("rejecting credential", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusUnauthorized, "invalid credential")
		return
	}

	resp, err := s.service.Submit(r.Context(), scan.SubmitRequest{
		RepoURL: body.RepoURL,
		UserID:  userID,
		IP:      ip,
	})
	if err != nil {
		s.logger.Warn("submitting scan", logging.Field{Key: "error", Value: err.Error()})
		// Responses carry the stable error code; the raw error stays in
		// the log above.
		switch {
		case errors.Is(err, scan.ErrInvalidURL):
			writeError(w, http.StatusBadRequest, "invalid repository url")
		case errors.Is(err, scan.ErrQuotaExceeded):
			writeCodedError(w, http.StatusTooManyRequests, "quota exceeded", model.CodeRateLimitExceeded)
		case errors.Is(err, gitfetch.ErrNotAccessible):
			writeCodedError(w, http.StatusUnprocessableEntity, "repository is not accessible", model.CodeRepoNotAccessible)
		default:
			writeCodedError(w, http.StatusInternalServerError, "scan submission failed", model.CodeUnknown)
		}
		return
	}

	s.logger.Info("accepted scan",
		logging.Field{Key: "scan_id", Value: resp.ScanID},
		logging.Field{Key: "cached", Value: resp.Cached})
	status := http.StatusAccepted
	if resp.Cached {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	scanID := chi.URLParam(r, "scanID")

	rec, err := s.store.GetScan(r.Context(), scanID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "scan not found")
			return
		}
		s.logger.Warn("getting scan", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleCancelScan(w http.ResponseWriter, r *http.Request) {
	scanID := chi.URLParam(r, "scanID")

	if !s.orch.CancelIfQueued(r.Context(), scanID) {
		writeError(w, http.StatusConflict, "scan is not queued")
		return
	}
	s.logger.Info("cancelled scan", logging.Field{Key: "scan_id", Value: scanID})
	writeJSON(w, http.StatusNoContent, nil)
}

// Introspection

func (s *Server) handleQueueState(w http.ResponseWriter, r *http.Request) {
	pending, processing := s.orch.QueueDepth()
	writeJSON(w, http.StatusOK, QueueStateResponse{Pending: pending, Processing: processing})
}

func (s *Server) handleQuotaState(w http.ResponseWriter, r *http.Request) {
	userID, ip, err := s.identity(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credential")
		return
	}

	identifier := userID
	authenticated := userID != ""
	if !authenticated {
		identifier = scan.HashIP(ip)
	}

	dec := s.quota.CheckOnly(r.Context(), identifier, authenticated)
	writeJSON(w, http.StatusOK, QuotaStateResponse{
		Allowed:   dec.Allowed,
		Remaining: dec.Remaining,
		ResetAt:   dec.ResetAt.UTC().Format(time.RFC3339),
	})
}

// WebSockets

// handleScanWS streams record updates for one scan until it reaches a
// terminal status or the client disconnects.
func (s *Server) handleScanWS(w http.ResponseWriter, r *http.Request) {
	scanID := chi.URLParam(r, "scanID")

	rec, err := s.store.GetScan(r.Context(), scanID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "scan not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	updates, cancel, err := s.store.WatchScan(r.Context(), scanID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	defer cancel()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	// Send the snapshot first so subscribers never start blind.
	if err := conn.WriteJSON(rec); err != nil {
		return
	}
	if rec.Terminal() {
		return
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(upd); err != nil {
				// Assume client disconnected.
				return
			}
			if upd.Terminal() {
				return
			}
		}
	}
}
