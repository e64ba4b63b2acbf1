// Package store provides the keyed document store backing scan records and
// quota windows. Two implementations exist: an in-memory store and a SQLite
// store. Both expose the same watch primitive so callers outside the scan
// core can observe record changes.
package store

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("store: record not found")

	// ErrUnavailable is returned when the backing store cannot be reached.
	// The quota tracker treats it as a fail-open signal.
	ErrUnavailable = errors.New("store: backend unavailable")

	// ErrClosed is returned on use after Close.
	ErrClosed = errors.New("store: closed")
)
