package domain

// OpType identifies the kind of destination operation.
type OpType int

const (
	// OpUpsert inserts or replaces one record by primary key.
	OpUpsert OpType = iota

	// OpDelete removes one record by primary key.
	OpDelete

	// OpCheckpoint commits the sync state. Emitted exactly once per
	// run, after all collections.
	OpCheckpoint
)

// String returns the operation type name for logging.
func (t OpType) String() string {
	switch t {
	case OpUpsert:
		return "upsert"
	case OpDelete:
		return "delete"
	case OpCheckpoint:
		return "checkpoint"
	default:
		return "unknown"
	}
}

// Operation is one tagged element of the ordered stream a sync run
// emits to the destination. Within a collection all upserts precede
// its deletes; the producer guarantees the ordering, not the consumer.
type Operation struct {
	// Type is the kind of operation.
	Type OpType

	// Table is the destination table, set for upserts and deletes.
	Table string

	// Record is the normalised row, set for upserts.
	Record Record

	// Key is the primary-key value, set for deletes.
	Key string

	// State is the checkpoint payload, set for checkpoints.
	State *SyncState
}

// Upsert builds an upsert operation.
func Upsert(table string, record Record) Operation {
	return Operation{Type: OpUpsert, Table: table, Record: record}
}

// Delete builds a delete operation.
func Delete(table, key string) Operation {
	return Operation{Type: OpDelete, Table: table, Key: key}
}

// Checkpoint builds the terminal checkpoint operation.
func Checkpoint(state *SyncState) Operation {
	return Operation{Type: OpCheckpoint, State: state}
}
