package routing

import (
	"errors"
	"fmt"
)

// ErrUnknownRole is returned when a role has no configured primary provider.
// It is the only hard selection error; everything else degrades to a
// best-effort decision.
var ErrUnknownRole = errors.New("unknown agent role")

// ErrInvalidStrategy is returned for strategy values outside the enums.
// Never retried; surfaced to the caller as a validation failure.
var ErrInvalidStrategy = errors.New("invalid strategy")

// ErrRoutingUnavailable is returned when the selection circuit is open.
var ErrRoutingUnavailable = errors.New("routing temporarily unavailable")

// ExhaustedError reports that every allowed completion attempt failed. It
// wraps the error from the final attempt.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all %d completion attempts failed: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}
