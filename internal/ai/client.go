// Package ai builds structured prompts from surveyed repository content and
// calls the external generation provider with retry and abuse screening.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gitgauge/gitgauge/internal/interfaces"
	"github.com/gitgauge/gitgauge/internal/logging"
	"github.com/gitgauge/gitgauge/internal/model"
)

var (
	// ErrMaliciousContent means the pre-flight injection screen tripped and
	// the request was never sent to the provider.
	ErrMaliciousContent = errors.New("ai: prompt-injection content detected")

	// ErrRateLimited means the provider stayed overloaded through every
	// retry.
	ErrRateLimited = errors.New("ai: provider rate limited after retries")

	// ErrInvalidResponse means the provider answered with JSON that does not
	// satisfy the response contract. Not retriable.
	ErrInvalidResponse = errors.New("ai: response failed validation")
)

// Config holds the analysis client's retry policy.
type Config struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int

	// RetryBaseDelay, when positive, overrides the per-status base delay.
	// Used by tests to avoid real waits.
	RetryBaseDelay time.Duration
}

// DefaultConfig returns the production retry policy.
func DefaultConfig() Config {
	return Config{MaxRetries: 3}
}

// Client screens, prompts, calls and validates. The raw provider call is an
// injected Generator so the transport can be stubbed in tests.
type Client struct {
	cfg    Config
	gen    interfaces.Generator
	logger logging.Logger

	// sleep is swappable in tests. It must return early with the context
	// error once ctx is cancelled.
	sleep func(ctx context.Context, d time.Duration) error
}

var _ interfaces.Analyzer = (*Client)(nil)

// New creates a Client.
func New(cfg Config, gen interfaces.Generator, logger logging.Logger) *Client {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultConfig().MaxRetries
	}
	return &Client{cfg: cfg, gen: gen, logger: logger, sleep: sleepCtx}
}

// Analyze produces a validated assessment for a surveyed repository.
// Injection screening runs before any provider traffic.
func (c *Client) Analyze(ctx context.Context, rc *model.RepositoryContext) (*model.AnalysisResult, error) {
	if DetectInjection(rc) {
		c.logger.Warn("injection attempt blocked",
			logging.Field{Key: "repo", Value: rc.RepoURL})
		return nil, ErrMaliciousContent
	}

	payload, err := c.generateWithRetry(ctx, buildAnalysisPrompt(rc), analysisSchema())
	if err != nil {
		return nil, err
	}

	var result model.AnalysisResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if err := validateAnalysis(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func validateAnalysis(r *model.AnalysisResult) error {
	if r.Description == "" {
		return fmt.Errorf("%w: missing description", ErrInvalidResponse)
	}
	if len(r.TechStack) == 0 {
		return fmt.Errorf("%w: empty tech stack", ErrInvalidResponse)
	}
	if !model.ValidSkillLevel(r.SkillLevel) {
		return fmt.Errorf("%w: unknown skill level %q", ErrInvalidResponse, r.SkillLevel)
	}
	return nil
}

// SummarizeTimeline condenses a bounded commit log into 3-10 milestone
// events. Events with unknown types are clamped to "milestone" rather than
// rejected.
func (c *Client) SummarizeTimeline(ctx context.Context, commits []model.Commit, repoURL string) ([]model.TimelineEvent, error) {
	if len(commits) == 0 {
		return nil, nil
	}

	payload, err := c.generateWithRetry(ctx, buildTimelinePrompt(commits, repoURL), timelineSchema())
	if err != nil {
		return nil, err
	}

	var events []model.TimelineEvent
	if err := json.Unmarshal(payload, &events); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	kept := events[:0]
	for _, ev := range events {
		if ev.Title == "" || ev.Date == "" {
			continue
		}
		if !model.ValidTimelineEventType(ev.Type) {
			ev.Type = model.EventMilestone
		}
		kept = append(kept, ev)
	}
	if len(kept) > 10 {
		kept = kept[:10]
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("%w: no usable timeline events", ErrInvalidResponse)
	}
	return kept, nil
}

// generateWithRetry wraps the raw provider call with the transient-status
// retry loop: full-jitter truncated exponential backoff, long base delay
// for rate-limit/unavailable statuses, short base otherwise.
func (c *Client) generateWithRetry(ctx context.Context, prompt string, schema *interfaces.ResponseSchema) ([]byte, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		payload, err := c.gen.Generate(ctx, prompt, schema)
		if err == nil {
			return payload, nil
		}
		lastErr = err

		var statusErr *StatusError
		if !errors.As(err, &statusErr) || !transientStatus(statusErr.StatusCode) {
			return nil, fmt.Errorf("analysis request failed: %w", err)
		}
		if attempt >= c.cfg.MaxRetries {
			break
		}

		delay := backoffDelay(statusErr.StatusCode, attempt, c.cfg.RetryBaseDelay)
		c.logger.Warn("transient provider failure, backing off",
			logging.Field{Key: "status", Value: statusErr.StatusCode},
			logging.Field{Key: "attempt", Value: attempt + 1},
			logging.Field{Key: "delay", Value: delay.String()})

		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	var statusErr *StatusError
	if errors.As(lastErr, &statusErr) && slowStatus(statusErr.StatusCode) {
		return nil, fmt.Errorf("%w: %v", ErrRateLimited, lastErr)
	}
	return nil, fmt.Errorf("analysis retries exhausted: %w", lastErr)
}
