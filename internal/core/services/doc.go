// Package services contains the core application logic: the sync
// runner that reconciles fetched sheets against the destination, and
// the scheduler that re-runs it periodically in daemon mode.
package services
