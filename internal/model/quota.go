package model

import "time"

// QuotaWindow is the stored request history for one quota identifier.
// Entries older than the tracked horizon are pruned lazily on read.
type QuotaWindow struct {
	// Requests holds the timestamps of consumed quota, oldest first.
	Requests []time.Time `json:"requests"`
}

// QuotaDecision is the outcome of a quota check.
type QuotaDecision struct {
	Allowed   bool      `json:"allowed"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"resetAt"`
}
