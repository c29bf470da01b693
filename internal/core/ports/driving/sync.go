package driving

import (
	"context"

	"github.com/custodia-labs/sheetsync/internal/core/domain"
)

// SyncMode identifies whether a run fetches complete snapshots or only
// rows changed since the cursor.
type SyncMode int

const (
	// FullSync fetches the complete current row set per sheet and can
	// therefore detect deletions.
	FullSync SyncMode = iota

	// IncrementalSync fetches only rows changed since the cursor;
	// deletions cannot be observed and are never emitted.
	IncrementalSync
)

// String returns the mode name for logging.
func (m SyncMode) String() string {
	if m == IncrementalSync {
		return "incremental"
	}
	return "full"
}

// SyncRunner coordinates one synchronisation run across all configured
// sheets.
type SyncRunner interface {
	// Run executes one sync run: fetch, normalise and reconcile every
	// configured sheet, then commit a single checkpoint. Only
	// configuration errors abort the run.
	Run(ctx context.Context) (*RunReport, error)

	// Schema declares the destination table set for the configured
	// sheets.
	Schema(ctx context.Context) ([]domain.TableSchema, error)

	// Status returns the current run status.
	Status() *SyncStatus
}

// SyncStatus represents the progress of a running sync.
type SyncStatus struct {
	// Running indicates if a sync is currently in progress.
	Running bool

	// RowsProcessed is the count of rows upserted so far.
	RowsProcessed int

	// ErrorCount is the number of skipped rows and sheets.
	ErrorCount int
}

// RunReport summarises one completed run.
type RunReport struct {
	// RunID is a unique identifier for log correlation.
	RunID string

	// Mode is the sync mode the run executed in.
	Mode SyncMode

	// Cursor is the cursor committed by the run's checkpoint.
	Cursor string

	// Upserts, Deletes count the operations emitted.
	Upserts int
	Deletes int

	// SheetsSynced and SheetsFailed count per-collection outcomes.
	SheetsSynced int
	SheetsFailed int

	// RowsSkipped counts malformed rows dropped with a logged reason.
	RowsSkipped int
}
