package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/sheetsync/internal/core/domain"
	"github.com/custodia-labs/sheetsync/internal/core/ports/driven"
)

// Ensure Destination implements both driven interfaces.
var (
	_ driven.Destination    = (*Destination)(nil)
	_ driven.SyncStateStore = (*Destination)(nil)
)

// Destination is an in-memory implementation of driven.Destination and
// driven.SyncStateStore. Records live in per-table maps keyed by
// primary key; the checkpoint blob is round-tripped through its JSON
// form, like a real destination would.
type Destination struct {
	mu     sync.RWMutex
	tables map[string]map[string]domain.Record
	state  []byte
	closed bool
}

// NewDestination creates a new in-memory destination.
func NewDestination() *Destination {
	return &Destination{
		tables: make(map[string]map[string]domain.Record),
	}
}

// Upsert inserts or replaces one record by its "id" field.
func (d *Destination) Upsert(_ context.Context, table string, record domain.Record) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return domain.ErrDestinationClosed
	}
	rows, ok := d.tables[table]
	if !ok {
		rows = make(map[string]domain.Record)
		d.tables[table] = rows
	}
	rows[record.ID()] = record
	return nil
}

// Delete removes one record by primary key.
func (d *Destination) Delete(_ context.Context, table, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return domain.ErrDestinationClosed
	}
	delete(d.tables[table], key)
	return nil
}

// Checkpoint commits the sync state.
func (d *Destination) Checkpoint(_ context.Context, state *domain.SyncState) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return domain.ErrDestinationClosed
	}
	data, err := state.Encode()
	if err != nil {
		return err
	}
	d.state = data
	return nil
}

// Load retrieves the last committed state.
func (d *Destination) Load(_ context.Context) (*domain.SyncState, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return domain.DecodeSyncState(d.state)
}

// Close marks the destination closed; further writes fail.
func (d *Destination) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Get returns one stored record and whether it exists.
func (d *Destination) Get(table, key string) (domain.Record, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	record, ok := d.tables[table][key]
	return record, ok
}

// Keys returns the stored primary keys for a table.
func (d *Destination) Keys(table string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	keys := make([]string, 0, len(d.tables[table]))
	for key := range d.tables[table] {
		keys = append(keys, key)
	}
	return keys
}
