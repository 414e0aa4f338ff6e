/*
errors.go - Error taxonomy for allocation failures

PURPOSE:
  All allocation-facing error types in one place. Sentinels support
  errors.Is dispatch; structured errors carry the detail the caller
  must surface verbatim (colliding dates, remaining balance).

ERROR CATEGORIES:
  1. Client errors - bad input or business-rule rejection; the ledger
     is left untouched and retrying unchanged will fail again
  2. Authorization errors - missing employee or wrong owning admin
  3. Transient errors - storage-layer contention or infrastructure
     failure; the whole call is safe to retry unmodified

USAGE:
  if errors.Is(err, ledger.ErrConflict) {
      var conflict *ledger.ConflictError
      errors.As(err, &conflict) // conflict.Dates names the collisions
  }
*/
package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bybuy30/leave-tracker/calendar"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned for malformed input: bad date, duration
	// below one, unknown leave type, missing holiday description.
	ErrValidation = errors.New("invalid allocation request")

	// ErrNotFound is returned when the referenced employee has no ledger.
	ErrNotFound = errors.New("employee not found")

	// ErrForbidden is returned when the caller does not own the employee.
	ErrForbidden = errors.New("not authorized for this employee")

	// ErrConflict is returned when the requested span would double-book
	// a calendar day. Wrapped by ConflictError.
	ErrConflict = errors.New("leave already allocated")

	// ErrQuotaExceeded is returned when the requested duration exceeds
	// the remaining balance. Wrapped by QuotaExceededError.
	ErrQuotaExceeded = errors.New("leave quota exceeded")

	// ErrWeekendStart is returned when the requested start date itself
	// falls on a weekend. The date is never silently shifted.
	ErrWeekendStart = errors.New("leave cannot start on a weekend")

	// ErrTransientStore is returned for storage infrastructure failures
	// (contention exhaustion, connectivity). Safe to retry unmodified.
	ErrTransientStore = errors.New("transient store failure")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConflictError names the calendar dates the requested span collides on.
type ConflictError struct {
	EmployeeID string
	Dates      []calendar.Date
}

func (e *ConflictError) Error() string {
	strs := make([]string, len(e.Dates))
	for i, d := range e.Dates {
		strs[i] = d.String()
	}
	return fmt.Sprintf("leave already allocated for %s; only one leave is allowed per day",
		strings.Join(strs, ", "))
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// QuotaExceededError reports how much balance the type has left.
type QuotaExceededError struct {
	Type      LeaveType
	Requested int
	Remaining int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("cannot allocate %d consecutive %s leaves: only %d remaining",
		e.Requested, e.Type, e.Remaining)
}

func (e *QuotaExceededError) Unwrap() error { return ErrQuotaExceeded }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable reports whether the whole call may succeed on an
// unmodified retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransientStore)
}

// IsClientError reports whether the error is the caller's fault:
// retrying without changing the request will fail again.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrQuotaExceeded) ||
		errors.Is(err, ErrWeekendStart)
}
