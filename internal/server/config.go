package server

import (
	"github.com/gitgauge/gitgauge/internal/interfaces"
	"github.com/gitgauge/gitgauge/internal/logging"
)

// Config holds the API server wiring.
type Config struct {
	// ListenAddr is the HTTP listen address for the API server.
	ListenAddr string

	// Verifier resolves bearer credentials on /scans submissions. When nil,
	// every request is treated as anonymous.
	Verifier interfaces.AuthVerifier

	// Logger defaults to a stdout JSON logger when nil.
	Logger logging.Logger
}
