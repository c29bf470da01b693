// Package domain contains the core business types for sheetsync:
// collections, rows, normalised records, sync operations and the
// persisted sync state. It has no dependencies on adapters or
// external services.
package domain
