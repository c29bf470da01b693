package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConfiguration indicates missing or invalid run configuration.
	// This is the only error class that aborts an entire run.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrMissingRowID indicates a fetched row has no identifier.
	// The row is skipped; the collection continues.
	ErrMissingRowID = errors.New("row has no id")

	// ErrInvalidCursor indicates a stored sync cursor could not be
	// parsed. The run falls back to full-sync mode.
	ErrInvalidCursor = errors.New("invalid sync cursor")

	// ErrSyncInProgress indicates a sync is already running.
	ErrSyncInProgress = errors.New("sync in progress")

	// ErrDestinationClosed indicates the destination has been closed.
	ErrDestinationClosed = errors.New("destination closed")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
