package model

import "time"

// Apartment is a bookable listing owned by a host.  Pricing is stored in
// integer minor units (cents) of the owning host's currency.  Stay-length
// limits are expressed in nights over the half-open [check-in, check-out)
// interval.
//
// Fields:
//  ID              – primary key identifier.
//  HostID          – owning host.
//  Title           – display name of the listing.
//  BasePriceCents  – default nightly rate in minor units.
//  MinStayNights   – shortest bookable stay.
//  MaxStayNights   – longest bookable stay.
//  Capacity        – maximum number of guests.
//  ManualApproval  – host policy: new bookings start as REQUESTED and
//                    await host approval instead of confirming directly.
//                    Only meaningful for hosts without a processor payout.
//  CalendarFeedURL – optional external calendar feed consulted at read time.
//  PriceOverrides  – date-bounded nightly rate rules, loaded with the row.
type Apartment struct {
	ID              uint64          // apartments.id
	HostID          uint64          // apartments.host_id
	Title           string          // apartments.title
	BasePriceCents  int64           // apartments.base_price_cents
	MinStayNights   int             // apartments.min_stay_nights
	MaxStayNights   int             // apartments.max_stay_nights
	Capacity        int             // apartments.capacity
	ManualApproval  bool            // apartments.manual_approval
	CalendarFeedURL *string         // apartments.calendar_feed_url (nullable)
	PriceOverrides  []PriceOverride // price_overrides rows for this apartment
}

// PriceOverride replaces the base nightly rate for every night whose date
// falls within [StartDate, EndDate] (both endpoint dates inclusive, as
// hosts enter them).  Override ranges may overlap each other; when more
// than one rule covers a night the most recently created rule wins, with
// the higher ID breaking exact creation-time ties.
type PriceOverride struct {
	ID               uint64    // price_overrides.id
	ApartmentID      uint64    // price_overrides.apartment_id
	StartDate        time.Time // price_overrides.start_date (DATE, UTC midnight)
	EndDate          time.Time // price_overrides.end_date (DATE, UTC midnight)
	NightlyRateCents int64     // price_overrides.nightly_price_cents
	Label            string    // price_overrides.label
	CreatedAt        time.Time // price_overrides.created_at
}

// Covers reports whether the override applies to the given night.
func (o PriceOverride) Covers(night time.Time) bool {
	return !night.Before(o.StartDate) && !night.After(o.EndDate)
}
