package booking

import (
	"time"

	"github.com/evelinagr/apartment-booking/internal/model"
)

// Conflict kinds reported by the availability evaluator.
const (
	ConflictBooking      = "booking"
	ConflictBlockedDate  = "blocked_date"
	ConflictExternalDate = "external_date"
)

// Conflict describes one reason a candidate range is not available.  The
// evaluator reports every conflict it finds, not just the first, so the
// caller can explain the rejection.
type Conflict struct {
	Kind      string `json:"kind"`
	BookingID uint64 `json:"booking_id,omitempty"`
	Date      string `json:"date,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// AvailabilityResult is the outcome of a range or single-day check.
type AvailabilityResult struct {
	Available bool       `json:"available"`
	Conflicts []Conflict `json:"conflicts"`
}

// DefaultConflictStatuses returns the booking statuses that occupy dates.
// Only CONFIRMED and PAID bookings block a range; a booking parked in
// PENDING_PAYMENT does not, unless the service's pending-hold policy adds
// it to this set.
func DefaultConflictStatuses() map[string]bool {
	return map[string]bool{StatusConfirmed: true, StatusPaid: true}
}

// Overlaps reports whether two half-open intervals [start1, end1) and
// [start2, end2) intersect.  Touching endpoints (one stay's check-out on
// another's check-in day) do not overlap.
func Overlaps(start1, end1, start2, end2 time.Time) bool {
	return start1.Before(end2) && end1.After(start2)
}

// CheckRange evaluates whether [start, end) is free for the apartment
// given the candidate bookings, manual blocks and externally imported
// blocked dates supplied by the caller.  It is a pure function: no I/O,
// no side effects, identical inputs yield identical output.  External
// date strings must be ISO dates (YYYY-MM-DD); malformed entries are
// skipped, since the feed is advisory evidence only.
func CheckRange(apartmentID uint64, start, end time.Time, bookings []model.Booking, blocks []model.BlockedDate, external []string, conflictStatuses map[string]bool) AvailabilityResult {
	conflicts := []Conflict{}
	for _, b := range bookings {
		if b.ApartmentID != apartmentID || !conflictStatuses[b.Status] {
			continue
		}
		if Overlaps(start, end, b.StartDate, b.EndDate) {
			conflicts = append(conflicts, Conflict{
				Kind:      ConflictBooking,
				BookingID: b.ID,
				Date:      b.StartDate.Format(dateLayout),
				Reason:    "overlapping " + b.Status + " booking",
			})
		}
	}
	for _, blk := range blocks {
		if !blk.AppliesTo(apartmentID) {
			continue
		}
		if withinRange(blk.Date, start, end) {
			reason := "manual block"
			if blk.Reason != nil && *blk.Reason != "" {
				reason = *blk.Reason
			}
			conflicts = append(conflicts, Conflict{
				Kind:   ConflictBlockedDate,
				Date:   blk.Date.Format(dateLayout),
				Reason: reason,
			})
		}
	}
	for _, ds := range external {
		d, err := time.ParseInLocation(dateLayout, ds, time.UTC)
		if err != nil {
			continue
		}
		if withinRange(d, start, end) {
			conflicts = append(conflicts, Conflict{
				Kind:   ConflictExternalDate,
				Date:   ds,
				Reason: "external calendar",
			})
		}
	}
	return AvailabilityResult{Available: len(conflicts) == 0, Conflicts: conflicts}
}

// CheckDay is the degenerate single-night case of CheckRange, used to
// render per-day availability for calendar views.
func CheckDay(apartmentID uint64, day time.Time, bookings []model.Booking, blocks []model.BlockedDate, external []string, conflictStatuses map[string]bool) AvailabilityResult {
	return CheckRange(apartmentID, day, day.AddDate(0, 0, 1), bookings, blocks, external, conflictStatuses)
}

const dateLayout = "2006-01-02"

// withinRange reports whether date d falls inside [start, end).
func withinRange(d, start, end time.Time) bool {
	return !d.Before(start) && d.Before(end)
}
