package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// StaleCursorWindow is how old a stored cursor may be before a run is
// forced back into full-sync mode. Incremental fetches cannot observe
// deletions, so the window bounds how long a genuine deletion can stay
// unreconciled.
const StaleCursorWindow = 7 * 24 * time.Hour

// SyncState is the process-wide persisted checkpoint: the incremental
// cursor plus the set of row IDs known per sheet. It is read once at
// run start, mutated in memory per collection, and written once at run
// end. The destination round-trips it verbatim.
type SyncState struct {
	// Cursor is an RFC 3339 timestamp marking the lower bound for
	// "modified since" fetches. Empty means no prior successful run.
	Cursor string `json:"sync_cursor,omitempty"`

	// AllIDs maps sheet ID to the row IDs known after the last run.
	AllIDs map[string][]string `json:"all_ids"`
}

// NewSyncState returns an empty state.
func NewSyncState() *SyncState {
	return &SyncState{AllIDs: make(map[string][]string)}
}

// KnownIDs returns the recorded row-ID set for a sheet. A sheet never
// synced before yields an empty set.
func (s *SyncState) KnownIDs(sheetID string) map[string]struct{} {
	ids := make(map[string]struct{}, len(s.AllIDs[sheetID]))
	for _, id := range s.AllIDs[sheetID] {
		ids[id] = struct{}{}
	}
	return ids
}

// SetKnownIDs replaces the recorded row-ID set for a sheet.
func (s *SyncState) SetKnownIDs(sheetID string, ids map[string]struct{}) {
	if s.AllIDs == nil {
		s.AllIDs = make(map[string][]string)
	}
	list := make([]string, 0, len(ids))
	for id := range ids {
		list = append(list, id)
	}
	s.AllIDs[sheetID] = list
}

// CursorTime parses the stored cursor. An empty cursor returns
// ErrNotFound; an unparsable one returns ErrInvalidCursor.
func (s *SyncState) CursorTime() (time.Time, error) {
	if s.Cursor == "" {
		return time.Time{}, ErrNotFound
	}
	t, err := time.Parse(time.RFC3339, s.Cursor)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidCursor, s.Cursor)
	}
	return t, nil
}

// Encode serialises the state to its JSON checkpoint form.
func (s *SyncState) Encode() ([]byte, error) {
	if s.AllIDs == nil {
		s.AllIDs = make(map[string][]string)
	}
	return json.Marshal(s)
}

// DecodeSyncState parses a checkpoint blob. Empty input yields a fresh
// state, forcing a full sync.
func DecodeSyncState(data []byte) (*SyncState, error) {
	if len(data) == 0 {
		return NewSyncState(), nil
	}
	var state SyncState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode sync state: %w", err)
	}
	if state.AllIDs == nil {
		state.AllIDs = make(map[string][]string)
	}
	return &state, nil
}
