package driven

import (
	"github.com/custodia-labs/sheetsync/internal/core/domain"
)

// RowNormaliser maps a raw row into a flat destination record using
// the column map derived from the same fetch response.
type RowNormaliser interface {
	// Normalise produces the record for one row. Cells whose column ID
	// has no entry in cols are dropped without error. A row without an
	// ID returns domain.ErrMissingRowID; the caller skips the row and
	// continues the collection.
	Normalise(row domain.Row, cols domain.ColumnMap) (domain.Record, error)
}
