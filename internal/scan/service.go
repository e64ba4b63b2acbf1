package scan

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gitgauge/gitgauge/internal/gitfetch"
	"github.com/gitgauge/gitgauge/internal/interfaces"
	"github.com/gitgauge/gitgauge/internal/logging"
	"github.com/gitgauge/gitgauge/internal/model"
	"github.com/gitgauge/gitgauge/internal/quota"
	"github.com/gitgauge/gitgauge/internal/repourl"
)

var (
	// ErrInvalidURL means the submitted URL is not an acceptable public
	// repository URL.
	ErrInvalidURL = errors.New("scan: invalid repository url")

	// ErrQuotaExceeded rejects a submission before a record is created.
	ErrQuotaExceeded = errors.New("scan: quota exceeded")
)

// SubmitRequest is one caller submission.
type SubmitRequest struct {
	RepoURL string

	// UserID is the verified user identity, empty for anonymous callers.
	UserID string

	// IP is the client address, used only to derive the anonymous quota
	// identifier.
	IP string
}

// SubmitResponse reports the created (or reused) record.
type SubmitResponse struct {
	ScanID string              `json:"scanId"`
	Cached bool                `json:"cached"`
	Record *model.ScanRecord   `json:"record"`
	Quota  model.QuotaDecision `json:"quota"`
}

// Service is the submission front door: it validates the URL, rejects
// exhausted identifiers early, detects cache hits, creates the record and
// hands its id to the orchestrator. After creation the orchestrator alone
// mutates the record.
type Service struct {
	store   interfaces.ScanStore
	quota   *quota.Tracker
	fetcher interfaces.RepoFetcher
	orch    *Orchestrator
	logger  logging.Logger
}

// NewService creates a Service.
func NewService(store interfaces.ScanStore, tracker *quota.Tracker, fetcher interfaces.RepoFetcher, orch *Orchestrator, logger logging.Logger) *Service {
	return &Service{store: store, quota: tracker, fetcher: fetcher, orch: orch, logger: logger}
}

// HashIP derives the anonymous quota identifier from a client address.
func HashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])
}

// Submit processes one submission end to end: validation, fail-fast quota
// check, accessibility probe, cache lookup, record creation, enqueue.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error) {
	if !repourl.IsValid(req.RepoURL) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, req.RepoURL)
	}
	loc := repourl.Parse(req.RepoURL)

	identifier := req.UserID
	authenticated := req.UserID != ""
	ipHash := ""
	if !authenticated {
		ipHash = HashIP(req.IP)
		identifier = ipHash
	}

	// Fail fast before any git traffic. The worker re-checks and is the one
	// that actually consumes.
	dec := s.quota.CheckOnly(ctx, identifier, authenticated)
	if !dec.Allowed {
		return nil, fmt.Errorf("%w: resets at %s", ErrQuotaExceeded, dec.ResetAt.Format(time.RFC3339))
	}

	if !s.fetcher.IsAccessible(ctx, loc.NormalizedURL) {
		return nil, fmt.Errorf("%w: %s", gitfetch.ErrNotAccessible, loc.NormalizedURL)
	}
	commitHash, err := s.fetcher.LatestRevision(ctx, loc.NormalizedURL)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rec := &model.ScanRecord{
		ID:         uuid.New().String(),
		RepoURL:    loc.NormalizedURL,
		Provider:   string(loc.Provider),
		Owner:      loc.Owner,
		Repo:       loc.Repo,
		CommitHash: commitHash,
		UserID:     req.UserID,
		IP:         req.IP,
		IPHash:     ipHash,
		CreatedAt:  now,
	}

	// Cache hit: same repository at the same revision already succeeded.
	// The new record is born succeeded with the prior results; no queue
	// entry, no quota spend.
	if prior, err := s.store.FindSucceededScan(ctx, loc.NormalizedURL, commitHash); err != nil {
		s.logger.Warn("cache lookup failed, proceeding with full scan",
			logging.Field{Key: "repo", Value: loc.NormalizedURL},
			logging.Field{Key: "error", Value: err.Error()})
	} else if prior != nil {
		copyResults(rec, prior)
		if err := s.store.CreateScan(ctx, rec); err != nil {
			return nil, fmt.Errorf("persist cached scan: %w", err)
		}
		s.logger.Info("cache hit",
			logging.Field{Key: "scan_id", Value: rec.ID},
			logging.Field{Key: "source_scan_id", Value: prior.ID})
		return &SubmitResponse{ScanID: rec.ID, Cached: true, Record: rec, Quota: dec}, nil
	}

	rec.Status = model.ScanQueued
	rec.Progress = &model.Progress{Stage: model.StageCloning, Message: "queued", Percentage: 0}
	if err := s.store.CreateScan(ctx, rec); err != nil {
		return nil, fmt.Errorf("persist scan: %w", err)
	}

	s.orch.Submit(rec.ID)
	return &SubmitResponse{ScanID: rec.ID, Cached: false, Record: rec, Quota: dec}, nil
}

func copyResults(dst, src *model.ScanRecord) {
	now := time.Now().UTC()
	dst.Status = model.ScanSucceeded
	dst.Description = src.Description
	dst.TechStack = src.TechStack
	dst.CategorizedTechStack = src.CategorizedTechStack
	dst.SkillLevel = src.SkillLevel
	dst.RepositoryInfo = src.RepositoryInfo
	dst.DetailedAssessment = src.DetailedAssessment
	dst.Timeline = src.Timeline
	dst.CompletedAt = &now
}
