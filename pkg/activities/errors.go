package activities

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/timeliness-app/activity-tracker/pkg/date"
)

// ErrFormat is returned for malformed duration text
var ErrFormat = date.ErrFormat

// ErrNotScheduled is returned when a date does not correspond to any occurrence of an activity
var ErrNotScheduled = errors.New("date is not scheduled")

// ErrOutOfRange is returned for an occurrence index outside of [0, len(occurrences))
var ErrOutOfRange = errors.New("occurrence index out of range")

// ErrInvalidTransition is returned when an action is not legal in the current occurrence state
var ErrInvalidTransition = errors.New("invalid transition")

// ErrUnknownAction is returned for action names the state machine does not know
var ErrUnknownAction = errors.New("unknown action")

// ErrInvalidPriority is returned for priorities other than High, Medium and Low
var ErrInvalidPriority = errors.New("invalid priority")

// ErrNotFound is returned when an activity does not exist
var ErrNotFound = errors.New("activity not found")

// ErrConcurrencyConflict is returned when the activity is locked or was modified concurrently. It is retryable.
var ErrConcurrencyConflict = errors.New("concurrent modification")

// ActionError describes a failed action on a single occurrence
type ActionError struct {
	ActivityID string
	Index      int
	Action     Action
	Err        error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("activity %s occurrence %d: %s: %v", e.ActivityID, e.Index, e.Action, e.Err)
}

// Unwrap returns the underlying error so errors.Is matches the sentinel errors
func (e *ActionError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the caller may retry the failed operation
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}
