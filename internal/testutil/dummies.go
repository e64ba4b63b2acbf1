// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O or network
// traffic.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/gitgauge/gitgauge/internal/interfaces"
	"github.com/gitgauge/gitgauge/internal/logging"
	"github.com/gitgauge/gitgauge/internal/model"
	"github.com/gitgauge/gitgauge/internal/store"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// ─── RepoFetcher ───────────────────────────────────────────────────────

// DummyFetcher implements interfaces.RepoFetcher without touching git.
// Zero value: every repository is accessible at revision "deadbeef" and
// checks out into CheckoutDir.
type DummyFetcher struct {
	Inaccessible bool
	Revision     string
	RevisionErr  error
	CheckoutDir  string
	CheckoutErr  error
	Commits      []model.Commit
	LogErr       error

	// Gate, when non-nil, blocks CheckoutRepo until a value is received.
	// Tests use it to hold a scan mid-flight.
	Gate chan struct{}

	mu        sync.Mutex
	Checkouts []string
	Cleanups  []string
}

var _ interfaces.RepoFetcher = (*DummyFetcher)(nil)

func (d *DummyFetcher) IsAccessible(_ context.Context, _ string) bool {
	return !d.Inaccessible
}

func (d *DummyFetcher) LatestRevision(_ context.Context, _ string) (string, error) {
	if d.RevisionErr != nil {
		return "", d.RevisionErr
	}
	if d.Revision != "" {
		return d.Revision, nil
	}
	return "deadbeef", nil
}

func (d *DummyFetcher) CheckoutRepo(ctx context.Context, url string) (string, error) {
	if d.Gate != nil {
		select {
		case <-d.Gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	d.mu.Lock()
	d.Checkouts = append(d.Checkouts, url)
	d.mu.Unlock()
	if d.CheckoutErr != nil {
		return "", d.CheckoutErr
	}
	return d.CheckoutDir, nil
}

func (d *DummyFetcher) CommitLog(_ context.Context, _ string, _ int) ([]model.Commit, error) {
	if d.LogErr != nil {
		return nil, d.LogErr
	}
	return append([]model.Commit(nil), d.Commits...), nil
}

func (d *DummyFetcher) Cleanup(localPath string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Cleanups = append(d.Cleanups, localPath)
}

// CheckoutCount reports how many checkouts started.
func (d *DummyFetcher) CheckoutCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Checkouts)
}

// CleanupCount reports how many checkout directories were released.
func (d *DummyFetcher) CleanupCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Cleanups)
}

// ─── Surveyor ──────────────────────────────────────────────────────────

// DummySurveyor implements interfaces.Surveyor with a preconfigured context.
type DummySurveyor struct {
	RC  *model.RepositoryContext
	Err error
}

var _ interfaces.Surveyor = (*DummySurveyor)(nil)

func (d *DummySurveyor) Survey(_, repoURL string) (*model.RepositoryContext, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	if d.RC != nil {
		return d.RC, nil
	}
	return &model.RepositoryContext{
		RepoURL:       repoURL,
		Languages:     map[string]int{"Go": 3},
		FileStructure: []string{"main.go"},
		ConfigFiles:   map[model.ConfigCategory][]model.ConfigFile{},
		TotalFiles:    3,
		TotalLines:    120,
	}, nil
}

// ─── Analyzer ──────────────────────────────────────────────────────────

// DummyAnalyzer implements interfaces.Analyzer with preconfigured results.
type DummyAnalyzer struct {
	Result      *model.AnalysisResult
	Err         error
	Timeline    []model.TimelineEvent
	TimelineErr error
}

var _ interfaces.Analyzer = (*DummyAnalyzer)(nil)

func (d *DummyAnalyzer) Analyze(_ context.Context, _ *model.RepositoryContext) (*model.AnalysisResult, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	if d.Result != nil {
		return d.Result, nil
	}
	return &model.AnalysisResult{
		Description: "a dummy project",
		TechStack:   []string{"Go"},
		SkillLevel:  model.SkillMidLevel,
	}, nil
}

func (d *DummyAnalyzer) SummarizeTimeline(_ context.Context, _ []model.Commit, _ string) ([]model.TimelineEvent, error) {
	if d.TimelineErr != nil {
		return nil, d.TimelineErr
	}
	return append([]model.TimelineEvent(nil), d.Timeline...), nil
}

// ─── Generator ─────────────────────────────────────────────────────────

// GeneratorStep is one scripted provider response.
type GeneratorStep struct {
	Payload []byte
	Err     error
}

// DummyGenerator implements interfaces.Generator, replaying scripted steps
// in order. Once the script is exhausted the last step repeats.
type DummyGenerator struct {
	Steps []GeneratorStep

	mu      sync.Mutex
	next    int
	Prompts []string
}

var _ interfaces.Generator = (*DummyGenerator)(nil)

func (d *DummyGenerator) Generate(_ context.Context, prompt string, _ *interfaces.ResponseSchema) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Prompts = append(d.Prompts, prompt)

	if len(d.Steps) == 0 {
		return []byte(`{}`), nil
	}
	step := d.Steps[d.next]
	if d.next < len(d.Steps)-1 {
		d.next++
	}
	return step.Payload, step.Err
}

// Calls reports how many times Generate ran.
func (d *DummyGenerator) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Prompts)
}

// ─── QuotaStore ────────────────────────────────────────────────────────

// UnavailableQuotaStore implements interfaces.QuotaStore and fails every
// call, exercising the tracker's fail-open behavior.
type UnavailableQuotaStore struct{}

var _ interfaces.QuotaStore = (*UnavailableQuotaStore)(nil)

func (UnavailableQuotaStore) GetQuotaWindow(context.Context, string) (*model.QuotaWindow, error) {
	return nil, store.ErrUnavailable
}

func (UnavailableQuotaStore) PutQuotaWindow(context.Context, string, *model.QuotaWindow) error {
	return store.ErrUnavailable
}

func (UnavailableQuotaStore) DeleteQuotaWindow(context.Context, string) error {
	return store.ErrUnavailable
}

// ─── time helpers ──────────────────────────────────────────────────────

// FakeClock is a manually advanced time source for quota window tests.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock starts a clock at t.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
