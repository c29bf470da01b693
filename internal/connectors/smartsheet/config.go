package smartsheet

import (
	"strings"

	"github.com/custodia-labs/sheetsync/internal/core/ports/driven"
)

// Config holds the parsed configuration for the Smartsheet source.
type Config struct {
	// APIToken is the bearer token for the Smartsheet API.
	APIToken string

	// SheetIDs lists the sheets to sync, in configured order.
	SheetIDs []string

	// BaseURL overrides the API endpoint. Empty means production.
	BaseURL string
}

// Configuration keys.
const (
	KeyAPIToken = "smartsheet.api_token"
	KeySheetIDs = "smartsheet.sheet_ids"
	KeyBaseURL  = "smartsheet.base_url"
)

// ParseConfig reads the Smartsheet configuration from the config
// store. A missing or empty token or sheet-ID list is a fatal
// configuration error; nothing is fetched for such a run.
func ParseConfig(store driven.ConfigStore) (*Config, error) {
	cfg := &Config{
		APIToken: strings.TrimSpace(store.GetString(KeyAPIToken)),
		SheetIDs: SplitSheetIDs(store.GetString(KeySheetIDs)),
		BaseURL:  strings.TrimSpace(store.GetString(KeyBaseURL)),
	}

	if cfg.APIToken == "" {
		return nil, ErrMissingToken
	}
	if len(cfg.SheetIDs) == 0 {
		return nil, ErrMissingSheetIDs
	}

	return cfg, nil
}

// SplitSheetIDs parses the comma-separated sheet-ID list, dropping
// empty entries and surrounding whitespace.
func SplitSheetIDs(raw string) []string {
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if id := strings.TrimSpace(p); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
