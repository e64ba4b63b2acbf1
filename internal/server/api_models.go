package server

// SubmitScanRequest is the payload for submitting a repository scan.
type SubmitScanRequest struct {
	RepoURL string `json:"repoUrl" example:"https://github.com/vercel/next.js"`
}

// QueueStateResponse reports the worker queue's current shape.
type QueueStateResponse struct {
	Pending    int  `json:"pending" example:"2"`
	Processing bool `json:"processing" example:"true"`
}

// QuotaStateResponse reports the caller's remaining quota.
type QuotaStateResponse struct {
	Allowed   bool   `json:"allowed" example:"true"`
	Remaining int    `json:"remaining" example:"3"`
	ResetAt   string `json:"resetAt" example:"2026-01-01T13:00:00Z"`
}

// ErrorResponse is a uniform error payload returned by the API. ErrorCode is
// present only when the failure maps to one of the stable scan error codes.
type ErrorResponse struct {
	Error     string `json:"error" example:"quota exceeded"`
	ErrorCode string `json:"errorCode,omitempty" example:"RATE_LIMIT_EXCEEDED"`
}
