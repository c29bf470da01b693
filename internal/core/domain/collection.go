package domain

import (
	"strings"
	"time"
)

// Collection represents a configured remote data source (one sheet)
// synced into one destination table.
type Collection struct {
	// ID is the opaque remote identifier for the sheet.
	ID string

	// Name is the sheet's display name, fetched live. Empty until the
	// first successful fetch or name lookup.
	Name string
}

// TableName derives the destination table name: the display name
// lower-cased with spaces replaced by underscores. When the name is
// unknown (lookup failed) it falls back to "sheet_<id>".
func (c Collection) TableName() string {
	if c.Name == "" {
		return FallbackTableName(c.ID)
	}
	return FormatTableName(c.Name)
}

// FormatTableName converts a sheet display name to a table name.
func FormatTableName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// FallbackTableName is the table name used when a sheet's display
// name cannot be resolved.
func FallbackTableName(id string) string {
	return "sheet_" + id
}

// TableSchema declares one destination table.
type TableSchema struct {
	// Table is the derived destination table name.
	Table string

	// PrimaryKey lists the key column names. Always ["id"] for
	// sheet-backed tables.
	PrimaryKey []string
}

// ColumnMap maps a sheet's internal column IDs to human-readable
// column names. It is rebuilt from every fetch response; column sets
// can change between syncs, so it must never be cached.
type ColumnMap map[int64]string

// Cell is one cell of a raw row, keyed by internal column ID.
type Cell struct {
	ColumnID int64
	Value    Value
}

// Row is a raw fetched row before normalisation. Row identity is
// stable across syncs; content may change.
type Row struct {
	// ID is the remote row identifier, unique within its sheet.
	// Zero means the row is malformed and must be skipped.
	ID int64

	// RowNumber is the row's position within the sheet.
	RowNumber int

	// Expanded is the sheet UI expansion flag.
	Expanded bool

	// CreatedAt and ModifiedAt are remote timestamps.
	CreatedAt  time.Time
	ModifiedAt time.Time

	// Cells holds the row's cell values keyed by column ID.
	Cells []Cell
}

// Sheet is the result of one fetch: the collection's current column
// definitions and row set.
type Sheet struct {
	// ID is the remote sheet identifier.
	ID string

	// Name is the sheet's display name.
	Name string

	// Columns maps column IDs to column names.
	Columns ColumnMap

	// Rows is the fetched row set. Under an incremental fetch this
	// holds only rows modified since the cursor.
	Rows []Row
}
