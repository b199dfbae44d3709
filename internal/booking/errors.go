// Package booking implements the booking engine: availability evaluation,
// price calculation, the booking status lifecycle and the transactional
// service that creates bookings and applies status updates.  These
// sentinel values let the HTTP layer map each failure mode to a distinct
// response; in particular ErrDateRangeUnavailable must stay
// distinguishable from a generic server error so the client can re-prompt
// for different dates.
package booking

import (
	"errors"
	"fmt"
)

// ErrInvalidRange is returned when a requested date range spans zero or a
// negative number of nights, or the dates cannot be parsed.
var ErrInvalidRange = errors.New("invalid date range")

// ErrInvalidRequest is returned when a create request is malformed beyond
// its dates: missing guest name, unusable guest email.  Kept separate
// from ErrInvalidRange so clients can tell a form problem from a date
// problem.
var ErrInvalidRequest = errors.New("invalid booking request")

// ErrStayLengthViolation is returned when the night count falls outside
// the apartment's min/max stay limits.  It is a distinct validation step
// from price computation so callers can show a targeted error.
var ErrStayLengthViolation = errors.New("stay length violation")

// ErrDateRangeUnavailable is returned when the requested range conflicts
// with an existing booking, a manual block or an external calendar date.
// It is raised both at validation time and at the commit-time re-check.
var ErrDateRangeUnavailable = errors.New("date range unavailable")

// ErrIllegalTransition is returned when a status change is not permitted
// by the lifecycle.  The stored booking is never mutated in that case.
var ErrIllegalTransition = errors.New("illegal status transition")

// ErrNotAuthorized is returned when an actor attempts to mutate a booking
// for an apartment it does not own.
var ErrNotAuthorized = errors.New("not authorized")

// ErrNotFound is returned when an apartment, host or booking does not
// exist.
var ErrNotFound = errors.New("not found")

// UnavailableError wraps ErrDateRangeUnavailable with every conflict the
// evaluator found, so callers can report the reason rather than just the
// fact.
type UnavailableError struct {
	Conflicts []Conflict
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("date range unavailable: %d conflict(s)", len(e.Conflicts))
}

func (e *UnavailableError) Unwrap() error { return ErrDateRangeUnavailable }

// CheckoutFailedError reports that the processor checkout session could
// not be created after the booking itself was already committed.  The
// booking remains valid; payment setup can be retried.  Callers must not
// treat this as a failed booking.
type CheckoutFailedError struct {
	BookingID uint64
	Err       error
}

func (e *CheckoutFailedError) Error() string {
	return fmt.Sprintf("booking %d committed but checkout session failed: %v", e.BookingID, e.Err)
}

func (e *CheckoutFailedError) Unwrap() error { return e.Err }
