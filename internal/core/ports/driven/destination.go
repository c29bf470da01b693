package driven

import (
	"context"

	"github.com/custodia-labs/sheetsync/internal/core/domain"
)

// Destination consumes the ordered operation stream a sync run emits.
// The contract is upsert-by-key, delete-by-key, and an opaque
// checkpoint blob committed once per run.
type Destination interface {
	// Upsert inserts or replaces one record, keyed by record["id"].
	Upsert(ctx context.Context, table string, record domain.Record) error

	// Delete removes one record by primary key.
	Delete(ctx context.Context, table, key string) error

	// Checkpoint durably commits the sync state. Called exactly once
	// per run, after all collections.
	Checkpoint(ctx context.Context, state *domain.SyncState) error

	// Close releases resources.
	Close() error
}

// SyncStateStore loads the checkpoint committed by a previous run.
type SyncStateStore interface {
	// Load retrieves the last committed state. A never-synced
	// installation returns an empty state, not an error.
	Load(ctx context.Context) (*domain.SyncState, error)
}
