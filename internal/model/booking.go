package model

import "time"

// Booking records a guest's stay in an apartment over the half-open date
// interval [StartDate, EndDate): the guest occupies every night from
// check-in up to but not including the check-out date, so back-to-back
// stays may share a turnover day.  Money fields are minor units in the
// owning host's currency.
//
// Fields:
//  ID                 – primary key identifier.
//  ApartmentID        – apartment being booked.
//  GuestName          – guest display name.
//  GuestEmail         – guest contact address, used for notifications.
//  StartDate          – check-in date (DATE, UTC midnight).
//  EndDate            – check-out date (DATE, UTC midnight), exclusive.
//  Status             – lifecycle status (REQUESTED, PENDING_PAYMENT,
//                       CONFIRMED, PAID, REJECTED, CANCELED).
//  TotalPriceCents    – guest-facing total including any service fee.
//  HostPayoutCents    – net amount owed to the host.
//  CheckoutSessionRef – processor checkout session reference, if any.
//  CreatedAt          – creation timestamp.
//  UpdatedAt          – last update timestamp.
type Booking struct {
	ID                 uint64    // bookings.id
	ApartmentID        uint64    // bookings.apartment_id
	GuestName          string    // bookings.guest_name
	GuestEmail         string    // bookings.guest_email
	StartDate          time.Time // bookings.start_date
	EndDate            time.Time // bookings.end_date
	Status             string    // bookings.status
	TotalPriceCents    int64     // bookings.total_price_cents
	HostPayoutCents    int64     // bookings.host_payout_cents
	CheckoutSessionRef *string   // bookings.checkout_session_ref (nullable)
	CreatedAt          time.Time // bookings.created_at
	UpdatedAt          time.Time // bookings.updated_at
}
