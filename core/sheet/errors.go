package sheet

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"google.golang.org/api/googleapi"
)

var (
	// ErrAuthentication means the session credentials were rejected.
	// Fatal for the session; callers must not retry through this client.
	ErrAuthentication = errors.New("sheet: authentication failed")

	// ErrColumnNotFound means a requested column name is absent from the
	// cached header row. A caller or mapping error, never retryable.
	ErrColumnNotFound = errors.New("sheet: column not found")
)

// QuotaError is returned when the provider rejects a call with HTTP 429.
// RetryAfter carries the server-supplied wait when the response included one,
// otherwise a conservative default.
type QuotaError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("sheet: quota exceeded, retry after %s: %v", e.RetryAfter, e.Err)
}

func (e *QuotaError) Unwrap() error { return e.Err }

// RetryAfterHint exposes the wait to the retry executor.
func (e *QuotaError) RetryAfterHint() time.Duration { return e.RetryAfter }

// defaultQuotaWait is used when a 429 response carries no Retry-After header.
// The provider's quota windows are per-minute, so half a window is a safe bet.
const defaultQuotaWait = 30 * time.Second

// wrapAPIError translates provider errors into the package taxonomy.
// Anything not recognized passes through unchanged and is treated as
// transient by the retry classifier.
func wrapAPIError(err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}

	switch gerr.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrAuthentication, gerr.Message)
	case http.StatusTooManyRequests:
		return &QuotaError{RetryAfter: retryAfterHeader(gerr), Err: gerr}
	default:
		return err
	}
}

// retryAfterHeader parses the Retry-After response header, in seconds.
func retryAfterHeader(gerr *googleapi.Error) time.Duration {
	if gerr.Header != nil {
		if v := gerr.Header.Get("Retry-After"); v != "" {
			if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
				return time.Duration(secs) * time.Second
			}
		}
	}
	return defaultQuotaWait
}
