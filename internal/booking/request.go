package booking

import (
	"fmt"
	"strings"
	"time"
)

// CreateRequest is the validated input for CreateBooking.  HTTP handlers
// bind the JSON body into it and the engine trusts its shape only after
// Validate has run; no field is re-checked at call sites.  The
// non-serialized fields are supplied by the caller: RequireApproval from
// the host's approval policy (an external concern the engine only
// branches on) and ExternalBlockedDates from the external calendar feed.
type CreateRequest struct {
	ApartmentID uint64 `json:"apartment_id"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	GuestName   string `json:"guest_name"`
	GuestEmail  string `json:"guest_email"`
	SuccessURL  string `json:"success_url"`
	CancelURL   string `json:"cancel_url"`

	RequireApproval      bool     `json:"-"`
	ExternalBlockedDates []string `json:"-"`
}

// Validate parses the dates and checks required fields in one place.  It
// returns the normalized UTC-midnight check-in and check-out dates.
// Date parse failures and non-positive ranges surface as ErrInvalidRange.
func (r *CreateRequest) Validate() (start, end time.Time, err error) {
	if r.ApartmentID == 0 {
		return start, end, fmt.Errorf("%w: apartment id is required", ErrNotFound)
	}
	start, err = time.ParseInLocation(dateLayout, r.StartDate, time.UTC)
	if err != nil {
		return start, end, fmt.Errorf("%w: bad start_date %q", ErrInvalidRange, r.StartDate)
	}
	end, err = time.ParseInLocation(dateLayout, r.EndDate, time.UTC)
	if err != nil {
		return start, end, fmt.Errorf("%w: bad end_date %q", ErrInvalidRange, r.EndDate)
	}
	if !start.Before(end) {
		return start, end, fmt.Errorf("%w: %s to %s", ErrInvalidRange, r.StartDate, r.EndDate)
	}
	r.GuestName = strings.TrimSpace(r.GuestName)
	r.GuestEmail = strings.TrimSpace(r.GuestEmail)
	if r.GuestName == "" {
		return start, end, fmt.Errorf("%w: guest_name is required", ErrInvalidRequest)
	}
	if r.GuestEmail == "" || !strings.Contains(r.GuestEmail, "@") {
		return start, end, fmt.Errorf("%w: valid guest_email is required", ErrInvalidRequest)
	}
	return start, end, nil
}

// StatusUpdate is one entry of a bulk status change request.
type StatusUpdate struct {
	BookingID uint64 `json:"booking_id"`
	Status    string `json:"status"`
}

// Actor identifies who is applying a status update.  Hosts may only
// mutate bookings for apartments they own; an admin actor may mutate any.
type Actor struct {
	UserID uint64
	Admin  bool
}
