package driven

import (
	"context"

	"github.com/custodia-labs/sheetsync/internal/core/domain"
)

// SheetFetcher retrieves a sheet's current column definitions and row
// set from the remote service.
type SheetFetcher interface {
	// FetchSheet issues one request for the given sheet. A non-empty
	// cursor asks the remote service for rows modified since that
	// timestamp; the response then holds only changed rows, never a
	// complete snapshot.
	FetchSheet(ctx context.Context, sheetID, cursor string) (*domain.Sheet, error)

	// LookupName resolves a sheet's display name for table-name
	// derivation. Callers fall back to domain.FallbackTableName on
	// error.
	LookupName(ctx context.Context, sheetID string) (string, error)
}
