package model

import "time"

// BlockedDate is a host-imposed manual block on a single calendar date.
// A nil ApartmentID blocks the date across every apartment the host
// owns.  Rows are created and deleted directly by the host and never
// mutated.
type BlockedDate struct {
	ID          uint64    // blocked_dates.id
	HostID      uint64    // blocked_dates.host_id
	ApartmentID *uint64   // blocked_dates.apartment_id (NULL = all apartments)
	Date        time.Time // blocked_dates.date (DATE, UTC midnight)
	Reason      *string   // blocked_dates.reason (nullable)
	CreatedAt   time.Time // blocked_dates.created_at
}

// AppliesTo reports whether the block covers the given apartment.
func (b BlockedDate) AppliesTo(apartmentID uint64) bool {
	return b.ApartmentID == nil || *b.ApartmentID == apartmentID
}
