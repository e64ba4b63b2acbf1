package scan

import (
	"errors"

	"github.com/gitgauge/gitgauge/internal/ai"
	"github.com/gitgauge/gitgauge/internal/gitfetch"
	"github.com/gitgauge/gitgauge/internal/model"
)

// Classify maps any pipeline error to the closed error-code set. It is the
// single source of truth consumed everywhere refund and reporting decisions
// are made; anything unrecognized falls back to UNKNOWN_ERROR.
func Classify(err error) model.ErrorCode {
	switch {
	case errors.Is(err, errQuotaExceeded):
		return model.CodeRateLimitExceeded
	case errors.Is(err, gitfetch.ErrTooLarge):
		return model.CodeRepoTooLarge
	case errors.Is(err, gitfetch.ErrNotAccessible):
		return model.CodeRepoNotAccessible
	case errors.Is(err, ai.ErrMaliciousContent):
		return model.CodeMaliciousContent
	case errors.Is(err, ai.ErrRateLimited):
		return model.CodeGeminiRateLimit
	default:
		return model.CodeUnknown
	}
}

// errQuotaExceeded marks the worker's pre-consumption quota rejection.
var errQuotaExceeded = errors.New("scan: quota exhausted")

// errMalformedRecord marks a dequeued record missing its repository
// identity; it classifies as UNKNOWN_ERROR.
var errMalformedRecord = errors.New("scan: malformed scan record")
