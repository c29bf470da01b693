package smartsheet

import (
	"time"

	"github.com/custodia-labs/sheetsync/internal/core/domain"
)

// Wire types for the getSheet response. Only the fields the sync
// pipeline consumes are decoded.

type sheetResponse struct {
	ID      int64            `json:"id"`
	Name    string           `json:"name"`
	Columns []columnResponse `json:"columns"`
	Rows    []rowResponse    `json:"rows"`
}

type columnResponse struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type rowResponse struct {
	ID         int64          `json:"id"`
	RowNumber  int            `json:"rowNumber"`
	Expanded   bool           `json:"expanded"`
	CreatedAt  string         `json:"createdAt"`
	ModifiedAt string         `json:"modifiedAt"`
	Cells      []cellResponse `json:"cells"`
}

type cellResponse struct {
	ColumnID int64 `json:"columnId"`
	Value    any   `json:"value"`
}

// toDomain converts the wire response into the domain Sheet. The
// column map is rebuilt from every response; it is never cached across
// fetches because column sets can change.
func (s *sheetResponse) toDomain(sheetID string) *domain.Sheet {
	cols := make(domain.ColumnMap, len(s.Columns))
	for _, c := range s.Columns {
		cols[c.ID] = c.Title
	}

	rows := make([]domain.Row, 0, len(s.Rows))
	for _, r := range s.Rows {
		row := domain.Row{
			ID:         r.ID,
			RowNumber:  r.RowNumber,
			Expanded:   r.Expanded,
			CreatedAt:  parseTimestamp(r.CreatedAt),
			ModifiedAt: parseTimestamp(r.ModifiedAt),
			Cells:      make([]domain.Cell, 0, len(r.Cells)),
		}
		for _, c := range r.Cells {
			row.Cells = append(row.Cells, domain.Cell{
				ColumnID: c.ColumnID,
				Value:    domain.FromAny(c.Value),
			})
		}
		rows = append(rows, row)
	}

	return &domain.Sheet{
		ID:      sheetID,
		Name:    s.Name,
		Columns: cols,
		Rows:    rows,
	}
}

// parseTimestamp parses the API's timestamp format. The API emits
// RFC 3339 with or without sub-second precision; anything unparsable
// yields the zero time, which normalises to a null field.
func parseTimestamp(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000Z07:00"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
