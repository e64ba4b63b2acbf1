package interfaces

import (
	"context"

	"github.com/gitgauge/gitgauge/internal/model"
)

// ScanStore is the keyed document interface for scan records.
// Implementations should be safe for concurrent use.
type ScanStore interface {
	// CreateScan persists a new record. The record's ID must be set.
	CreateScan(ctx context.Context, rec *model.ScanRecord) error

	// GetScan returns the record with the given id, or store.ErrNotFound.
	GetScan(ctx context.Context, id string) (*model.ScanRecord, error)

	// UpdateScan applies mutate to the stored record under read-modify-write
	// semantics and notifies watchers with the updated record.
	UpdateScan(ctx context.Context, id string, mutate func(*model.ScanRecord)) (*model.ScanRecord, error)

	// DeleteScan removes a record. Deleting an unknown id is not an error.
	DeleteScan(ctx context.Context, id string) error

	// FindSucceededScan returns the most recent succeeded record matching
	// repoURL + commitHash, or nil when there is no cache hit.
	FindSucceededScan(ctx context.Context, repoURL, commitHash string) (*model.ScanRecord, error)

	// WatchScan subscribes to updates of one record. The returned cancel func
	// must be called to release the subscription; the channel is closed when
	// the watch ends.
	WatchScan(ctx context.Context, id string) (<-chan model.ScanRecord, func(), error)

	// Close releases resources used by the store.
	Close() error
}

// QuotaStore persists per-identifier request windows for the quota tracker.
type QuotaStore interface {
	// GetQuotaWindow returns the stored window for identifier. A missing
	// window yields an empty one, not an error.
	GetQuotaWindow(ctx context.Context, identifier string) (*model.QuotaWindow, error)

	// PutQuotaWindow replaces the stored window for identifier.
	PutQuotaWindow(ctx context.Context, identifier string, w *model.QuotaWindow) error

	// DeleteQuotaWindow discards the stored window for identifier.
	DeleteQuotaWindow(ctx context.Context, identifier string) error
}
