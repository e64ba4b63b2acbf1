// Package gitfetch talks to remote repositories through the local git
// binary. Credential prompting is disabled on every command, so only
// publicly accessible repositories ever succeed.
package gitfetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gitgauge/gitgauge/internal/interfaces"
	"github.com/gitgauge/gitgauge/internal/logging"
	"github.com/gitgauge/gitgauge/internal/model"
)

var (
	// ErrNotAccessible covers invalid URLs, private or deleted repositories
	// and transport failures.
	ErrNotAccessible = errors.New("gitfetch: repository not accessible")

	// ErrTooLarge is raised when a checkout is terminated by its timeout.
	ErrTooLarge = errors.New("gitfetch: repository checkout exceeded timeout")
)

// Config holds fetcher limits and the scratch directory for checkouts.
type Config struct {
	// ScratchDir is the root for checkout directories.
	ScratchDir string

	// CloneDepth is the shallow-clone depth. Defaults to 1.
	CloneDepth int

	// CloneTimeout bounds a full checkout. A clone that runs past it is
	// killed and reported as ErrTooLarge.
	CloneTimeout time.Duration

	// AccessTimeout bounds remote reference listings.
	AccessTimeout time.Duration

	// StaleAge is how old a checkout directory must be before SweepStale
	// removes it.
	StaleAge time.Duration

	// LogLimit caps the commit log extracted for history summarization.
	LogLimit int
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		ScratchDir:    filepath.Join(os.TempDir(), "gitgauge-checkouts"),
		CloneDepth:    1,
		CloneTimeout:  180 * time.Second,
		AccessTimeout: 10 * time.Second,
		StaleAge:      time.Hour,
		LogLimit:      50,
	}
}

// Fetcher runs git operations with credential prompts disabled.
type Fetcher struct {
	cfg    Config
	logger logging.Logger
}

var _ interfaces.RepoFetcher = (*Fetcher)(nil)

// New creates a Fetcher, filling zero cfg fields with defaults.
func New(cfg Config, logger logging.Logger) *Fetcher {
	def := DefaultConfig()
	if cfg.ScratchDir == "" {
		cfg.ScratchDir = def.ScratchDir
	}
	if cfg.CloneDepth <= 0 {
		cfg.CloneDepth = def.CloneDepth
	}
	if cfg.CloneTimeout <= 0 {
		cfg.CloneTimeout = def.CloneTimeout
	}
	if cfg.AccessTimeout <= 0 {
		cfg.AccessTimeout = def.AccessTimeout
	}
	if cfg.StaleAge <= 0 {
		cfg.StaleAge = def.StaleAge
	}
	if cfg.LogLimit <= 0 {
		cfg.LogLimit = def.LogLimit
	}
	return &Fetcher{cfg: cfg, logger: logger}
}

// gitEnv disables every interactive credential path git knows about.
func gitEnv() []string {
	return append(os.Environ(),
		"GIT_TERMINAL_PROMPT=0",
		"GIT_ASKPASS=true",
		"GIT_SSH_COMMAND=ssh -oBatchMode=yes -oStrictHostKeyChecking=accept-new",
	)
}

func (f *Fetcher) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Env = gitEnv()
	out, err := cmd.Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := strings.TrimSpace(string(exitErr.Stderr))
		return nil, fmt.Errorf("git %s: %s", args[0], stderr)
	}
	if err != nil {
		return nil, fmt.Errorf("git %s: %w", args[0], err)
	}
	return out, nil
}

// IsAccessible reports whether url answers a remote reference listing
// within the access timeout. Any failure, auth prompt included, yields
// false.
func (f *Fetcher) IsAccessible(ctx context.Context, url string) bool {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.AccessTimeout)
	defer cancel()

	if _, err := f.run(ctx, "ls-remote", "--heads", url); err != nil {
		f.logger.Debug("repository not accessible",
			logging.Field{Key: "url", Value: url},
			logging.Field{Key: "error", Value: err.Error()})
		return false
	}
	return true
}

// LatestRevision returns the revision id of the default branch head via a
// remote reference listing, without a checkout.
func (f *Fetcher) LatestRevision(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.AccessTimeout)
	defer cancel()

	out, err := f.run(ctx, "ls-remote", url, "HEAD")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotAccessible, err)
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	hash, _, ok := strings.Cut(line, "\t")
	hash = strings.TrimSpace(hash)
	if !ok || len(hash) < 7 {
		return "", fmt.Errorf("%w: unparseable ls-remote output %q", ErrNotAccessible, line)
	}
	return hash, nil
}

// CheckoutRepo performs a shallow, single-branch clone into a fresh unique
// directory under the scratch root. A timeout-triggered kill maps to
// ErrTooLarge; every other failure maps to ErrNotAccessible. The partial
// directory is removed before either error is returned.
func (f *Fetcher) CheckoutRepo(ctx context.Context, url string) (string, error) {
	if err := os.MkdirAll(f.cfg.ScratchDir, 0o755); err != nil {
		return "", fmt.Errorf("ensure scratch dir: %w", err)
	}
	dest := filepath.Join(f.cfg.ScratchDir, uuid.New().String())

	cloneCtx, cancel := context.WithTimeout(ctx, f.cfg.CloneTimeout)
	defer cancel()

	_, err := f.run(cloneCtx, "clone",
		"--depth", fmt.Sprintf("%d", f.cfg.CloneDepth),
		"--single-branch",
		url, dest)
	if err != nil {
		f.Cleanup(dest)
		if cloneCtx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("%w: %s", ErrTooLarge, url)
		}
		return "", fmt.Errorf("%w: %v", ErrNotAccessible, err)
	}

	return dest, nil
}

// CommitLog extracts a bounded commit log from a local checkout, newest
// first. The limit falls back to the configured LogLimit when zero.
func (f *Fetcher) CommitLog(ctx context.Context, localPath string, limit int) ([]model.Commit, error) {
	if limit <= 0 {
		limit = f.cfg.LogLimit
	}
	out, err := f.run(ctx, "-C", localPath, "log",
		fmt.Sprintf("--max-count=%d", limit),
		"--date=iso-strict",
		"--pretty=format:%H%x1f%an%x1f%ad%x1f%s")
	if err != nil {
		return nil, fmt.Errorf("read commit log: %w", err)
	}

	var commits []model.Commit
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		parts := strings.Split(line, "\x1f")
		if len(parts) != 4 {
			continue
		}
		date, err := time.Parse(time.RFC3339, parts[2])
		if err != nil {
			continue
		}
		commits = append(commits, model.Commit{
			Hash:    parts[0],
			Author:  parts[1],
			Date:    date,
			Subject: parts[3],
		})
	}
	return commits, nil
}

// Cleanup removes a checkout directory. Best effort: failures are logged,
// never returned.
func (f *Fetcher) Cleanup(localPath string) {
	if localPath == "" {
		return
	}
	if err := os.RemoveAll(localPath); err != nil {
		f.logger.Warn("checkout cleanup failed",
			logging.Field{Key: "path", Value: localPath},
			logging.Field{Key: "error", Value: err.Error()})
	}
}

// SweepStale deletes checkout directories older than the configured stale
// age. A missing scratch root is a no-op.
func (f *Fetcher) SweepStale() {
	entries, err := os.ReadDir(f.cfg.ScratchDir)
	if err != nil {
		if !os.IsNotExist(err) {
			f.logger.Warn("stale sweep skipped",
				logging.Field{Key: "dir", Value: f.cfg.ScratchDir},
				logging.Field{Key: "error", Value: err.Error()})
		}
		return
	}

	cutoff := time.Now().Add(-f.cfg.StaleAge)
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			f.Cleanup(filepath.Join(f.cfg.ScratchDir, entry.Name()))
			f.logger.Info("removed stale checkout",
				logging.Field{Key: "name", Value: entry.Name()})
		}
	}
}
