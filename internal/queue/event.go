// Package queue defines the message payloads exchanged over the broker
// and the background consumer that delivers them.
package queue

// NotificationQueueName is the durable queue carrying notification events.
const NotificationQueueName = "booking.notifications"

// NotificationEvent is published when a booking transition requires an
// email.  It carries enough to render and send the message downstream
// without querying the primary database.  RefundDue distinguishes the
// audited cancellation of a PAID booking from that of a merely CONFIRMED
// one.
type NotificationEvent struct {
	Template    string `json:"template"`
	ToEmail     string `json:"to_email"`
	Subject     string `json:"subject"`
	BookingID   uint64 `json:"booking_id"`
	ApartmentID uint64 `json:"apartment_id"`
	GuestName   string `json:"guest_name"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	TotalCents  int64  `json:"total_price_cents"`
	Currency    string `json:"currency"`
	RefundDue   bool   `json:"refund_due"`
}
