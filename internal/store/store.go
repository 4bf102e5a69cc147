// Package store persists scan records.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pokescan/internal/model"
)

// ErrNotFound is returned when a scan id has no record.
var ErrNotFound = eris.New("store: scan not found")

// ScanFilter specifies criteria for listing scans.
type ScanFilter struct {
	Status model.ScanStatus `json:"status,omitempty"`
	Limit  int              `json:"limit,omitempty"`
	Offset int              `json:"offset,omitempty"`
}

// Store defines the persistence interface for scan records. Deletion
// is intentionally absent: retention policy belongs to the backend.
type Store interface {
	// CreateScan assigns an id and timestamps and persists the record.
	CreateScan(ctx context.Context, record model.ScanRecord) (*model.ScanRecord, error)
	// GetScan returns the record for id, or ErrNotFound.
	GetScan(ctx context.Context, scanID string) (*model.ScanRecord, error)
	// ConfirmScan flips status to confirmed. Idempotent: confirming a
	// confirmed scan is a no-op. Returns ErrNotFound for unknown ids.
	ConfirmScan(ctx context.Context, scanID string) (*model.ScanRecord, error)
	// ListScans returns records matching the filter, newest first.
	ListScans(ctx context.Context, filter ScanFilter) ([]model.ScanRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
