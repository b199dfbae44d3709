package booking

import "fmt"

// Booking statuses.  REQUESTED and PENDING_PAYMENT are the two possible
// entry states: REQUESTED when the host must approve manually,
// PENDING_PAYMENT when a processor checkout has been created and payment
// is awaited.  CONFIRMED, PAID, REJECTED and CANCELED are the decided
// statuses; REJECTED and CANCELED are terminal and release the date range
// back to availability.
const (
	StatusRequested      = "REQUESTED"
	StatusPendingPayment = "PENDING_PAYMENT"
	StatusConfirmed      = "CONFIRMED"
	StatusPaid           = "PAID"
	StatusRejected       = "REJECTED"
	StatusCanceled       = "CANCELED"
)

// Notification template names fired on lifecycle transitions.  Rendering
// and delivery are the dispatcher's concern, not the state machine's.
const (
	TemplateBookingConfirmed = "booking_confirmed"
	TemplateBookingCanceled  = "booking_canceled"
)

// transitions is the legal edge set of the lifecycle.  Only REQUESTED may
// reach REJECTED; CANCELED is reachable from CONFIRMED and PAID alike
// (the refund obligation differs but the state transition is the same).
var transitions = map[string]map[string]bool{
	StatusRequested: {
		StatusConfirmed: true,
		StatusRejected:  true,
	},
	StatusPendingPayment: {
		StatusPaid: true,
	},
	StatusConfirmed: {
		StatusCanceled: true,
	},
	StatusPaid: {
		StatusCanceled: true,
	},
}

// InitialStatus is the creation-time decision point.  A processor-routed
// host always starts at PENDING_PAYMENT; otherwise the caller's approval
// policy picks REQUESTED or an immediately trusted CONFIRMED.
func InitialStatus(processorRouted, requireApproval bool) string {
	if processorRouted {
		return StatusPendingPayment
	}
	if requireApproval {
		return StatusRequested
	}
	return StatusConfirmed
}

// ValidStatus reports whether s is one of the lifecycle statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusRequested, StatusPendingPayment, StatusConfirmed, StatusPaid, StatusRejected, StatusCanceled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition may leave s.
func IsTerminal(s string) bool { return s == StatusRejected || s == StatusCanceled }

// IsDecided reports whether s counts as decided (CONFIRMED, PAID,
// REJECTED or CANCELED).
func IsDecided(s string) bool {
	switch s {
	case StatusConfirmed, StatusPaid, StatusRejected, StatusCanceled:
		return true
	}
	return false
}

// ValidateTransition checks that from -> to is a legal lifecycle edge.
// Illegal transitions return ErrIllegalTransition wrapped with both
// states; callers must leave the stored booking untouched on error.
func ValidateTransition(from, to string) error {
	if !ValidStatus(to) {
		return fmt.Errorf("%w: unknown status %q", ErrIllegalTransition, to)
	}
	if allowed, ok := transitions[from]; ok && allowed[to] {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
}

// NotificationTemplate returns the template to send for a from -> to
// transition, or ok=false when the transition is side-effect-free.
// Entering CONFIRMED (at creation or via host approval) fires the
// confirmation template; entering CANCELED fires the cancellation one.
func NotificationTemplate(to string) (string, bool) {
	switch to {
	case StatusConfirmed:
		return TemplateBookingConfirmed, true
	case StatusCanceled:
		return TemplateBookingCanceled, true
	}
	return "", false
}
