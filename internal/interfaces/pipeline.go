package interfaces

import (
	"context"

	"github.com/gitgauge/gitgauge/internal/model"
)

// RepoFetcher acquires repository content and history. Checkouts land in a
// scratch directory and are identified by their local path.
type RepoFetcher interface {
	// IsAccessible reports whether url can be reached without credentials.
	IsAccessible(ctx context.Context, url string) bool

	// LatestRevision returns the default branch head revision without
	// a checkout.
	LatestRevision(ctx context.Context, url string) (string, error)

	// CheckoutRepo clones url into a fresh local directory and returns its
	// path. The caller owns the directory and must Cleanup it.
	CheckoutRepo(ctx context.Context, url string) (string, error)

	// CommitLog extracts a bounded commit log from a local checkout, newest
	// first. limit <= 0 means the implementation's default.
	CommitLog(ctx context.Context, localPath string, limit int) ([]model.Commit, error)

	// Cleanup removes a checkout directory, best effort.
	Cleanup(localPath string)
}

// Surveyor condenses a checked-out repository into the structured context
// handed to analysis.
type Surveyor interface {
	Survey(localPath, repoURL string) (*model.RepositoryContext, error)
}

// Analyzer produces the scan results from a surveyed repository.
type Analyzer interface {
	// Analyze screens the context for prompt injection and generates the
	// structured assessment.
	Analyze(ctx context.Context, rc *model.RepositoryContext) (*model.AnalysisResult, error)

	// SummarizeTimeline condenses a commit log into dated events.
	SummarizeTimeline(ctx context.Context, commits []model.Commit, repoURL string) ([]model.TimelineEvent, error)
}
