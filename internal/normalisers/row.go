package normalisers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/custodia-labs/sheetsync/internal/core/domain"
	"github.com/custodia-labs/sheetsync/internal/core/ports/driven"
)

// Ensure RowNormaliser implements the interface.
var _ driven.RowNormaliser = (*RowNormaliser)(nil)

// RowNormaliser maps raw rows into destination records.
type RowNormaliser struct{}

// New creates a new row normaliser.
func New() *RowNormaliser {
	return &RowNormaliser{}
}

// Normalise produces the flat record for one row: the row's ID and
// metadata fields plus one entry per cell whose column ID resolves in
// cols. Cells with an unmapped column ID are dropped silently; that is
// defined behaviour, since a column deleted remotely can still appear
// in rows the API returns.
func (n *RowNormaliser) Normalise(row domain.Row, cols domain.ColumnMap) (domain.Record, error) {
	if row.ID == 0 {
		return nil, fmt.Errorf("%w (row number %d)", domain.ErrMissingRowID, row.RowNumber)
	}

	record := domain.Record{
		"id":          domain.String(strconv.FormatInt(row.ID, 10)),
		"row_number":  domain.Number(float64(row.RowNumber)),
		"expanded":    domain.Bool(row.Expanded),
		"created_at":  timestampValue(row.CreatedAt),
		"modified_at": timestampValue(row.ModifiedAt),
	}

	for _, cell := range row.Cells {
		name, ok := cols[cell.ColumnID]
		if !ok {
			continue
		}
		record[name] = cell.Value
	}

	return record, nil
}

// timestampValue renders a remote timestamp as an RFC 3339 string, or
// null when the remote omitted it.
func timestampValue(t time.Time) domain.Value {
	if t.IsZero() {
		return domain.Null()
	}
	return domain.String(t.UTC().Format(time.RFC3339))
}
