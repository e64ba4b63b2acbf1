package model

// ErrorCode is the closed set of stable, user-visible failure codes. Raw
// error messages are retained for diagnostics only; callers branch on the
// code, never the message.
type ErrorCode string

const (
	CodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	CodeRepoNotAccessible ErrorCode = "REPO_NOT_ACCESSIBLE"
	CodeRepoTooLarge      ErrorCode = "REPO_TOO_LARGE"
	CodeGeminiRateLimit   ErrorCode = "GEMINI_RATE_LIMIT"
	CodeMaliciousContent  ErrorCode = "MALICIOUS_CONTENT"
	CodeUnknown           ErrorCode = "UNKNOWN_ERROR"
)

// ErrorType categorizes a failure for the refund decision and user messaging.
type ErrorType string

const (
	ErrorTypeClient    ErrorType = "client"
	ErrorTypeServer    ErrorType = "server"
	ErrorTypeMalicious ErrorType = "malicious"
)

// Refundable reports whether a failure with this code owes the caller their
// quota back. Quota was never consumed for RATE_LIMIT_EXCEEDED, and
// MALICIOUS_CONTENT deliberately keeps the charge.
func (c ErrorCode) Refundable() bool {
	switch c {
	case CodeRateLimitExceeded, CodeMaliciousContent:
		return false
	default:
		return true
	}
}

// Type returns the ErrorType associated with the code.
func (c ErrorCode) Type() ErrorType {
	switch c {
	case CodeRateLimitExceeded, CodeRepoNotAccessible:
		return ErrorTypeClient
	case CodeMaliciousContent:
		return ErrorTypeMalicious
	default:
		return ErrorTypeServer
	}
}
