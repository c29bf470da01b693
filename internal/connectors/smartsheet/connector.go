package smartsheet

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sheetsync/internal/core/domain"
	"github.com/custodia-labs/sheetsync/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.SheetFetcher = (*Connector)(nil)

// Connector fetches sheets from the Smartsheet API.
type Connector struct {
	client *Client
}

// New creates a Smartsheet connector from parsed configuration.
func New(ctx context.Context, cfg *Config) *Connector {
	return &Connector{
		client: NewClient(ctx, cfg.APIToken, cfg.BaseURL),
	}
}

// NewWithClient creates a connector around an existing client.
func NewWithClient(client *Client) *Connector {
	return &Connector{client: client}
}

// FetchSheet issues one getSheet request. Pagination is not needed:
// the endpoint returns the sheet's full row set (or, with a cursor,
// all changed rows) in one response.
func (c *Connector) FetchSheet(ctx context.Context, sheetID, cursor string) (*domain.Sheet, error) {
	resp, err := c.client.GetSheet(ctx, sheetID, cursor)
	if err != nil {
		return nil, err
	}
	return resp.toDomain(sheetID), nil
}

// LookupName resolves a sheet's display name for table derivation.
func (c *Connector) LookupName(ctx context.Context, sheetID string) (string, error) {
	resp, err := c.client.GetSheet(ctx, sheetID, "")
	if err != nil {
		return "", fmt.Errorf("lookup sheet name: %w", err)
	}
	return resp.Name, nil
}
