package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sheetsync/internal/core/domain"
	"github.com/custodia-labs/sheetsync/internal/core/ports/driven"
	"github.com/custodia-labs/sheetsync/internal/core/ports/driving"
	"github.com/custodia-labs/sheetsync/internal/logger"
)

// Ensure SyncRunner implements the interface.
var _ driving.SyncRunner = (*SyncRunner)(nil)

// SyncRunner executes sync runs: one fetch-normalise-reconcile pass
// per configured sheet, followed by a single checkpoint. Sheets are
// processed strictly sequentially; the only shared state is the
// in-memory SyncState threaded through the run.
type SyncRunner struct {
	fetcher    driven.SheetFetcher
	normaliser driven.RowNormaliser
	dest       driven.Destination
	states     driven.SyncStateStore
	sheetIDs   []string

	// now is injected for staleness tests.
	now func() time.Time

	mu     sync.RWMutex
	status driving.SyncStatus
}

// NewSyncRunner creates a sync runner for the given sheet IDs.
func NewSyncRunner(
	fetcher driven.SheetFetcher,
	normaliser driven.RowNormaliser,
	dest driven.Destination,
	states driven.SyncStateStore,
	sheetIDs []string,
) *SyncRunner {
	return &SyncRunner{
		fetcher:    fetcher,
		normaliser: normaliser,
		dest:       dest,
		states:     states,
		sheetIDs:   sheetIDs,
		now:        time.Now,
	}
}

// Run executes one complete sync run.
func (r *SyncRunner) Run(ctx context.Context) (*driving.RunReport, error) {
	if len(r.sheetIDs) == 0 {
		return nil, fmt.Errorf("%w: no sheet IDs configured", domain.ErrConfiguration)
	}

	r.mu.Lock()
	if r.status.Running {
		r.mu.Unlock()
		return nil, domain.ErrSyncInProgress
	}
	r.status = driving.SyncStatus{Running: true}
	r.mu.Unlock()
	defer r.clearStatus()

	state, err := r.states.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sync state: %w", err)
	}

	report := &driving.RunReport{RunID: uuid.NewString()}
	report.Mode = r.determineMode(state)

	// The committed cursor is captured at run start, not run end, so
	// rows modified during the run are picked up next time.
	syncStart := r.now().UTC().Truncate(time.Second).Format(time.RFC3339)

	logger.Info("Run %s: %s sync of %d sheet(s)", report.RunID, report.Mode, len(r.sheetIDs))

	ops := r.produce(ctx, report.Mode, state, syncStart, report)

	for op := range ops {
		if err := r.apply(ctx, op); err != nil {
			if op.Type == domain.OpCheckpoint {
				return nil, fmt.Errorf("commit checkpoint: %w", err)
			}
			// A failed upsert/delete degrades gracefully. Incremental
			// runs may not re-fetch the row (the committed cursor is
			// this run's start), but the staleness window bounds the
			// gap: the next full sync re-emits it.
			logger.Warn("Apply %s on %s failed: %v", op.Type, op.Table, err)
			r.addError()
			continue
		}
		switch op.Type {
		case domain.OpUpsert:
			report.Upserts++
			r.addProcessed()
		case domain.OpDelete:
			report.Deletes++
		case domain.OpCheckpoint:
			report.Cursor = op.State.Cursor
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Info("Run %s complete: %d upserts, %d deletes, %d sheet(s) failed",
		report.RunID, report.Upserts, report.Deletes, report.SheetsFailed)
	return report, nil
}

// Schema declares the destination table set for the configured sheets.
func (r *SyncRunner) Schema(ctx context.Context) ([]domain.TableSchema, error) {
	if len(r.sheetIDs) == 0 {
		return nil, fmt.Errorf("%w: no sheet IDs configured", domain.ErrConfiguration)
	}

	schemas := make([]domain.TableSchema, 0, len(r.sheetIDs))
	for _, id := range r.sheetIDs {
		table := domain.FallbackTableName(id)
		name, err := r.fetcher.LookupName(ctx, id)
		if err != nil {
			logger.Warn("Name lookup for sheet %s failed: %v", id, err)
		} else {
			table = domain.FormatTableName(name)
		}
		schemas = append(schemas, domain.TableSchema{
			Table:      table,
			PrimaryKey: []string{"id"},
		})
	}
	return schemas, nil
}

// Status returns a copy of the current run status.
func (r *SyncRunner) Status() *driving.SyncStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	status := r.status
	return &status
}

// determineMode decides full vs incremental once per run, applied
// uniformly to every sheet. Incremental requires a parsable cursor
// younger than the staleness window; anything else forces full mode so
// delete detection runs.
func (r *SyncRunner) determineMode(state *domain.SyncState) driving.SyncMode {
	last, err := state.CursorTime()
	switch {
	case errors.Is(err, domain.ErrNotFound):
		logger.Info("No sync cursor; performing full sync")
		return driving.FullSync
	case err != nil:
		logger.Warn("Could not parse sync cursor: %v; forcing full sync", err)
		return driving.FullSync
	case r.now().Sub(last) >= domain.StaleCursorWindow:
		logger.Info("Forcing full sync due to age of sync cursor")
		return driving.FullSync
	default:
		return driving.IncrementalSync
	}
}

// produce is the operation generator. It yields the ordered stream of
// upsert/delete operations per sheet and a single terminal checkpoint;
// the consumer applies them in arrival order. Upserts for a sheet
// always precede its deletes, and deletes are only produced in full
// mode.
func (r *SyncRunner) produce(
	ctx context.Context,
	mode driving.SyncMode,
	state *domain.SyncState,
	syncStart string,
	report *driving.RunReport,
) <-chan domain.Operation {
	ops := make(chan domain.Operation)

	go func() {
		defer close(ops)

		for _, sheetID := range r.sheetIDs {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if err := r.syncSheet(ctx, ops, mode, state, sheetID, report); err != nil {
				// Fetch failure is isolated: the sheet is skipped for
				// this run and its prior state entry stays untouched.
				logger.Warn("Failed to sync sheet %s: %v", sheetID, err)
				report.SheetsFailed++
				r.addError()
				continue
			}
			report.SheetsSynced++
		}

		// One checkpoint per run, regardless of per-sheet failures.
		state.Cursor = syncStart
		select {
		case <-ctx.Done():
		case ops <- domain.Checkpoint(state):
		}
	}()

	return ops
}

// syncSheet fetches one sheet and emits its operations. Any returned
// error means no operation was emitted for the sheet.
func (r *SyncRunner) syncSheet(
	ctx context.Context,
	ops chan<- domain.Operation,
	mode driving.SyncMode,
	state *domain.SyncState,
	sheetID string,
	report *driving.RunReport,
) error {
	logger.Section("sheet " + sheetID)

	cursor := ""
	if mode == driving.IncrementalSync {
		cursor = state.Cursor
		logger.Info("Incremental fetch of sheet %s since %s", sheetID, cursor)
	} else {
		logger.Info("Full fetch of sheet %s", sheetID)
	}

	sheet, err := r.fetcher.FetchSheet(ctx, sheetID, cursor)
	if err != nil {
		return fmt.Errorf("fetch sheet: %w", err)
	}

	table := domain.FallbackTableName(sheetID)
	if sheet.Name != "" {
		table = domain.FormatTableName(sheet.Name)
	}

	previous := state.KnownIDs(sheetID)
	observed := make(map[string]struct{}, len(sheet.Rows))
	processed := 0

	for i := range sheet.Rows {
		row := &sheet.Rows[i]

		// Observed IDs come from the fetch itself, before
		// normalisation: a row that fails to normalise is skipped but
		// is still present remotely, so it must not read as deleted.
		if row.ID != 0 {
			observed[strconv.FormatInt(row.ID, 10)] = struct{}{}
		}

		record, err := r.normaliser.Normalise(*row, sheet.Columns)
		if err != nil {
			logger.Warn("Skipping row %d in sheet %s: %v", row.ID, sheetID, err)
			report.RowsSkipped++
			r.addError()
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case ops <- domain.Upsert(table, record):
			processed++
		}
	}

	logger.Info("Processed %d rows for sheet %s", processed, sheetID)

	current := observed
	if mode == driving.IncrementalSync {
		// A "changed since" response cannot prove absence, so known
		// IDs only grow until the next full sync.
		current = union(previous, observed)
	} else {
		for _, id := range sortedDiff(previous, observed) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case ops <- domain.Delete(table, id):
			}
		}
	}

	state.SetKnownIDs(sheetID, current)
	return nil
}

// apply routes one operation to the destination.
func (r *SyncRunner) apply(ctx context.Context, op domain.Operation) error {
	switch op.Type {
	case domain.OpUpsert:
		logger.Debug("upsert %s id=%s", op.Table, op.Record.ID())
		return r.dest.Upsert(ctx, op.Table, op.Record)
	case domain.OpDelete:
		logger.Debug("delete %s id=%s", op.Table, op.Key)
		return r.dest.Delete(ctx, op.Table, op.Key)
	case domain.OpCheckpoint:
		logger.Debug("checkpoint cursor=%s", op.State.Cursor)
		return r.dest.Checkpoint(ctx, op.State)
	default:
		return fmt.Errorf("unknown operation type %d", op.Type)
	}
}

func (r *SyncRunner) addProcessed() {
	r.mu.Lock()
	r.status.RowsProcessed++
	r.mu.Unlock()
}

func (r *SyncRunner) addError() {
	r.mu.Lock()
	r.status.ErrorCount++
	r.mu.Unlock()
}

func (r *SyncRunner) clearStatus() {
	r.mu.Lock()
	r.status.Running = false
	r.mu.Unlock()
}

// union returns the combined set of a and b.
func union(a, b map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(a)+len(b))
	for id := range a {
		out[id] = struct{}{}
	}
	for id := range b {
		out[id] = struct{}{}
	}
	return out
}

// sortedDiff returns the members of a missing from b, sorted for
// deterministic emission order.
func sortedDiff(a, b map[string]struct{}) []string {
	var out []string
	for id := range a {
		if _, ok := b[id]; !ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
