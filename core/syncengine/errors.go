package syncengine

import (
	"errors"

	"broker-office/core/sheet"
)

// ErrAlreadyRunning is returned when a cycle is requested for a target that
// already has one in flight. At most one cycle may mutate a canonical table
// at a time; the caller retries later or surfaces the conflict.
var ErrAlreadyRunning = errors.New("sync: cycle already running for target")

// IsRetryable classifies errors for the retry executor. Authentication and
// mapping failures cannot succeed on a second attempt; everything else
// (network failures, timeouts, quota rejections) is worth retrying.
func IsRetryable(err error) bool {
	switch {
	case errors.Is(err, sheet.ErrAuthentication):
		return false
	case errors.Is(err, sheet.ErrColumnNotFound):
		return false
	case errors.Is(err, ErrAlreadyRunning):
		return false
	default:
		return true
	}
}
