package services

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sheetsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sheetsync/internal/core/domain"
	"github.com/custodia-labs/sheetsync/internal/core/ports/driving"
	"github.com/custodia-labs/sheetsync/internal/normalisers"
)

// stubFetcher serves canned sheets and records the cursor each fetch
// was issued with.
type stubFetcher struct {
	sheets   map[string]*domain.Sheet
	fetchErr map[string]error
	names    map[string]string
	nameErr  map[string]error
	cursors  map[string]string
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{
		sheets:   make(map[string]*domain.Sheet),
		fetchErr: make(map[string]error),
		names:    make(map[string]string),
		nameErr:  make(map[string]error),
		cursors:  make(map[string]string),
	}
}

func (f *stubFetcher) FetchSheet(_ context.Context, sheetID, cursor string) (*domain.Sheet, error) {
	f.cursors[sheetID] = cursor
	if err := f.fetchErr[sheetID]; err != nil {
		return nil, err
	}
	sheet, ok := f.sheets[sheetID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return sheet, nil
}

func (f *stubFetcher) LookupName(_ context.Context, sheetID string) (string, error) {
	if err := f.nameErr[sheetID]; err != nil {
		return "", err
	}
	return f.names[sheetID], nil
}

func budgetRow(id int64, amount float64) domain.Row {
	return domain.Row{
		ID:        id,
		RowNumber: int(id),
		Cells: []domain.Cell{
			{ColumnID: 10, Value: domain.Number(amount)},
		},
	}
}

func budgetSheet(rows ...domain.Row) *domain.Sheet {
	return &domain.Sheet{
		ID:      "111",
		Name:    "Budget 2024",
		Columns: domain.ColumnMap{10: "amount"},
		Rows:    rows,
	}
}

func newTestRunner(fetcher *stubFetcher, dest *memory.Destination, sheetIDs ...string) *SyncRunner {
	return NewSyncRunner(fetcher, normalisers.New(), dest, dest, sheetIDs)
}

func seedState(t *testing.T, dest *memory.Destination, state *domain.SyncState) {
	t.Helper()
	require.NoError(t, dest.Checkpoint(context.Background(), state))
}

func loadState(t *testing.T, dest *memory.Destination) *domain.SyncState {
	t.Helper()
	state, err := dest.Load(context.Background())
	require.NoError(t, err)
	return state
}

func sortedKnownIDs(state *domain.SyncState, sheetID string) []string {
	ids := append([]string(nil), state.AllIDs[sheetID]...)
	sort.Strings(ids)
	return ids
}

func TestSyncRunner_Run_NoSheetIDs(t *testing.T) {
	dest := memory.NewDestination()
	runner := newTestRunner(newStubFetcher(), dest)

	_, err := runner.Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestSyncRunner_Run_FirstRunIsFullSync(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.sheets["111"] = budgetSheet(budgetRow(1, 10), budgetRow(2, 20), budgetRow(3, 30))
	dest := memory.NewDestination()
	runner := newTestRunner(fetcher, dest, "111")

	report, err := runner.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, driving.FullSync, report.Mode)
	assert.Equal(t, 3, report.Upserts)
	assert.Equal(t, 0, report.Deletes)
	assert.Equal(t, 1, report.SheetsSynced)

	// No cursor means the fetch must not be filtered.
	assert.Equal(t, "", fetcher.cursors["111"])

	// Table name is derived from the live display name.
	record, ok := dest.Get("budget_2024", "2")
	require.True(t, ok)
	assert.Equal(t, float64(20), record["amount"].AsNumber())

	state := loadState(t, dest)
	assert.Equal(t, []string{"1", "2", "3"}, sortedKnownIDs(state, "111"))

	// The committed cursor is the run start time.
	committed, err := time.Parse(time.RFC3339, state.Cursor)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), committed, time.Minute)
	assert.Equal(t, state.Cursor, report.Cursor)
}

func TestSyncRunner_Run_FullSyncDetectsDeletes(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.sheets["111"] = budgetSheet(budgetRow(2, 20), budgetRow(3, 30), budgetRow(4, 40))
	dest := memory.NewDestination()
	require.NoError(t, dest.Upsert(context.Background(), "budget_2024",
		domain.Record{"id": domain.String("1")}))
	previous := domain.NewSyncState()
	previous.AllIDs["111"] = []string{"1", "2", "3"}
	seedState(t, dest, previous)

	runner := newTestRunner(fetcher, dest, "111")

	report, err := runner.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, driving.FullSync, report.Mode)
	assert.Equal(t, 3, report.Upserts)
	assert.Equal(t, 1, report.Deletes)

	// Row 1 was not observed remotely, so it is removed downstream.
	_, ok := dest.Get("budget_2024", "1")
	assert.False(t, ok)

	state := loadState(t, dest)
	assert.Equal(t, []string{"2", "3", "4"}, sortedKnownIDs(state, "111"))
}

func TestSyncRunner_Run_EmptyFullFetchDeletesEverything(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.sheets["111"] = budgetSheet()
	dest := memory.NewDestination()
	previous := domain.NewSyncState()
	previous.AllIDs["111"] = []string{"1", "2", "3"}
	seedState(t, dest, previous)

	runner := newTestRunner(fetcher, dest, "111")

	report, err := runner.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, driving.FullSync, report.Mode)
	assert.Equal(t, 0, report.Upserts)
	assert.Equal(t, 3, report.Deletes)

	// A sheet emptied remotely empties its known-ID set too.
	state := loadState(t, dest)
	assert.Empty(t, sortedKnownIDs(state, "111"))
}

func TestSyncRunner_Run_IncrementalNeverDeletes(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.sheets["111"] = budgetSheet(budgetRow(4, 40))
	dest := memory.NewDestination()
	previous := domain.NewSyncState()
	previous.Cursor = time.Now().UTC().Add(-time.Hour).Truncate(time.Second).Format(time.RFC3339)
	previous.AllIDs["111"] = []string{"1", "2", "3"}
	seedState(t, dest, previous)

	runner := newTestRunner(fetcher, dest, "111")

	report, err := runner.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, driving.IncrementalSync, report.Mode)
	assert.Equal(t, 1, report.Upserts)
	assert.Equal(t, 0, report.Deletes)

	// Incremental fetches filter on the previous cursor.
	assert.Equal(t, previous.Cursor, fetcher.cursors["111"])

	// Known IDs only grow under incremental mode.
	state := loadState(t, dest)
	assert.Equal(t, []string{"1", "2", "3", "4"}, sortedKnownIDs(state, "111"))
}

func TestSyncRunner_Run_StaleCursorForcesFullSync(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.sheets["111"] = budgetSheet(budgetRow(2, 20))
	dest := memory.NewDestination()
	previous := domain.NewSyncState()
	previous.Cursor = time.Now().UTC().Add(-8 * 24 * time.Hour).Format(time.RFC3339)
	previous.AllIDs["111"] = []string{"1", "2"}
	seedState(t, dest, previous)

	runner := newTestRunner(fetcher, dest, "111")

	report, err := runner.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, driving.FullSync, report.Mode)
	assert.Equal(t, "", fetcher.cursors["111"], "stale cursor must not filter the fetch")
	assert.Equal(t, 1, report.Deletes)

	state := loadState(t, dest)
	assert.Equal(t, []string{"2"}, sortedKnownIDs(state, "111"))
}

func TestSyncRunner_Run_InvalidCursorForcesFullSync(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.sheets["111"] = budgetSheet(budgetRow(1, 10))
	dest := memory.NewDestination()
	previous := domain.NewSyncState()
	previous.Cursor = "not-a-timestamp"
	seedState(t, dest, previous)

	runner := newTestRunner(fetcher, dest, "111")

	report, err := runner.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, driving.FullSync, report.Mode)
	assert.Equal(t, "", fetcher.cursors["111"])
}

func TestSyncRunner_Run_FetchFailureIsIsolated(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.sheets["111"] = budgetSheet(budgetRow(1, 10))
	fetcher.fetchErr["222"] = errors.New("remote unavailable")
	dest := memory.NewDestination()
	previous := domain.NewSyncState()
	previous.AllIDs["222"] = []string{"9"}
	seedState(t, dest, previous)

	runner := newTestRunner(fetcher, dest, "111", "222")

	report, err := runner.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.SheetsSynced)
	assert.Equal(t, 1, report.SheetsFailed)
	assert.Equal(t, 1, report.Upserts)

	// The checkpoint is still committed, with the failed sheet's prior
	// ID set intact.
	state := loadState(t, dest)
	assert.NotEmpty(t, state.Cursor)
	assert.Equal(t, []string{"9"}, sortedKnownIDs(state, "222"))
	assert.Equal(t, []string{"1"}, sortedKnownIDs(state, "111"))
}

func TestSyncRunner_Run_MalformedRowSkippedNotDeleted(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.sheets["111"] = budgetSheet(domain.Row{ID: 0, RowNumber: 7}, budgetRow(2, 20))
	dest := memory.NewDestination()

	runner := newTestRunner(fetcher, dest, "111")

	report, err := runner.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.Upserts)
	assert.Equal(t, 1, report.RowsSkipped)
	assert.Equal(t, 0, report.Deletes)
}

func TestSyncRunner_Run_FallbackTableName(t *testing.T) {
	fetcher := newStubFetcher()
	sheet := budgetSheet(budgetRow(1, 10))
	sheet.Name = ""
	fetcher.sheets["111"] = sheet
	dest := memory.NewDestination()

	runner := newTestRunner(fetcher, dest, "111")

	_, err := runner.Run(context.Background())

	require.NoError(t, err)
	_, ok := dest.Get("sheet_111", "1")
	assert.True(t, ok)
}

func TestSyncRunner_Run_Idempotent(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.sheets["111"] = budgetSheet(budgetRow(1, 10), budgetRow(2, 20))
	dest := memory.NewDestination()
	runner := newTestRunner(fetcher, dest, "111")

	first, err := runner.Run(context.Background())
	require.NoError(t, err)

	// Make the second run a full sync again by ageing the cursor.
	runner.now = func() time.Time { return time.Now().UTC().Add(domain.StaleCursorWindow) }

	second, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, driving.FullSync, second.Mode)
	assert.Equal(t, first.Upserts, second.Upserts)
	assert.Equal(t, 0, second.Deletes)

	keys := dest.Keys("budget_2024")
	sort.Strings(keys)
	assert.Equal(t, []string{"1", "2"}, keys)
}

func TestSyncRunner_Run_CheckpointFailureAborts(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.sheets["111"] = budgetSheet(budgetRow(1, 10))
	dest := memory.NewDestination()
	require.NoError(t, dest.Close())

	runner := newTestRunner(fetcher, dest, "111")

	_, err := runner.Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDestinationClosed)
}

func TestSyncRunner_Run_RejectsConcurrentRuns(t *testing.T) {
	dest := memory.NewDestination()
	runner := newTestRunner(newStubFetcher(), dest, "111")

	runner.mu.Lock()
	runner.status.Running = true
	runner.mu.Unlock()

	_, err := runner.Run(context.Background())

	assert.ErrorIs(t, err, domain.ErrSyncInProgress)
}

func TestSyncRunner_Schema(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.names["111"] = "Budget 2024"
	fetcher.nameErr["222"] = errors.New("remote unavailable")
	dest := memory.NewDestination()

	runner := newTestRunner(fetcher, dest, "111", "222")

	schemas, err := runner.Schema(context.Background())

	require.NoError(t, err)
	require.Len(t, schemas, 2)
	assert.Equal(t, "budget_2024", schemas[0].Table)
	assert.Equal(t, []string{"id"}, schemas[0].PrimaryKey)
	assert.Equal(t, "sheet_222", schemas[1].Table, "name lookup failure falls back to the sheet ID")
}

func TestSyncRunner_Status(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.sheets["111"] = budgetSheet(budgetRow(1, 10))
	dest := memory.NewDestination()
	runner := newTestRunner(fetcher, dest, "111")

	assert.False(t, runner.Status().Running)

	_, err := runner.Run(context.Background())
	require.NoError(t, err)

	status := runner.Status()
	assert.False(t, status.Running)
	assert.Equal(t, 1, status.RowsProcessed)
}
