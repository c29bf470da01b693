package smartsheet

import (
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/sheetsync/internal/core/domain"
)

// Smartsheet-specific errors. Both configuration errors carry
// domain.ErrConfiguration so callers can match on the class.
var (
	// ErrMissingToken indicates no API token is configured.
	ErrMissingToken = fmt.Errorf("%w: smartsheet API token not set", domain.ErrConfiguration)

	// ErrMissingSheetIDs indicates no sheet IDs are configured.
	ErrMissingSheetIDs = fmt.Errorf("%w: smartsheet sheet IDs not set", domain.ErrConfiguration)
)

// RateLimitError represents a rate limit exceeded error with reset time.
type RateLimitError struct {
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("smartsheet: rate limit exceeded, retry at %s", e.ResetAt.Format(time.RFC3339))
}

// APIError represents a Smartsheet API error response.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("smartsheet: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// IsNotFound checks if the error indicates a sheet was not found.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return false
}

// IsUnauthorized checks if the error indicates an authentication failure.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401
	}
	return false
}

// IsRateLimited checks if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	var rateLimitErr *RateLimitError
	return errors.As(err, &rateLimitErr)
}
