package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/evelinagr/apartment-booking/internal/config"
	"github.com/evelinagr/apartment-booking/internal/model"
	"github.com/evelinagr/apartment-booking/internal/payment"
	"github.com/evelinagr/apartment-booking/internal/repository"
)

// Notification is the payload handed to the notification dispatcher on
// lifecycle transitions.  Rendering and delivery are the dispatcher's
// concern; a failed send is logged and never affects the committed
// transaction that triggered it.
type Notification struct {
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

// Notifier dispatches a notification.  Implementations must be safe to
// call after the service's transaction has closed.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// Service orchestrates the availability evaluator, the price calculator
// and persistence under one transaction boundary.  It is the only writer
// of booking rows.  Each call runs within a single database transaction;
// concurrent calls for the same apartment or booking serialize on row
// locks held inside that transaction.
type Service struct {
	db          *sql.DB
	apartments  *repository.ApartmentRepo
	hosts       *repository.HostRepo
	bookings    *repository.BookingRepo
	blocked     *repository.BlockedDateRepo
	fees        config.ProcessorFees
	checkout    payment.Client
	notifier    Notifier
	pendingHold bool
}

// Option configures a Service at construction.
type Option func(*Service)

// WithCheckout wires the payment processor adapter.  Without it,
// processor-routed hosts still get PENDING_PAYMENT bookings but no
// session is created.
func WithCheckout(c payment.Client) Option { return func(s *Service) { s.checkout = c } }

// WithNotifier wires the notification dispatcher.
func WithNotifier(n Notifier) Option { return func(s *Service) { s.notifier = n } }

// WithPendingHold makes PENDING_PAYMENT bookings count as availability
// conflicts, closing the window where two guests could both be paying for
// the same dates.  Off by default: first completed payment wins and an
// abandoned checkout never blocks the calendar.
func WithPendingHold(enabled bool) Option { return func(s *Service) { s.pendingHold = enabled } }

// NewService constructs the booking transaction service.  The processor
// fee table is resolved once here and injected into every quote.
func NewService(db *sql.DB, apartments *repository.ApartmentRepo, hosts *repository.HostRepo, bookings *repository.BookingRepo, blocked *repository.BlockedDateRepo, fees config.ProcessorFees, opts ...Option) *Service {
	if db == nil || apartments == nil || hosts == nil || bookings == nil || blocked == nil {
		panic("nil dependency passed to NewService")
	}
	s := &Service{
		db:         db,
		apartments: apartments,
		hosts:      hosts,
		bookings:   bookings,
		blocked:    blocked,
		fees:       fees,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ConflictStatuses returns the statuses that block availability under the
// service's pending-hold policy.
func (s *Service) ConflictStatuses() map[string]bool {
	set := DefaultConflictStatuses()
	if s.pendingHold {
		set[StatusPendingPayment] = true
	}
	return set
}

func (s *Service) conflictStatusList() []string {
	set := s.ConflictStatuses()
	list := make([]string, 0, len(set))
	for _, st := range []string{StatusConfirmed, StatusPaid, StatusPendingPayment} {
		if set[st] {
			list = append(list, st)
		}
	}
	return list
}

// Quote prices a prospective stay without creating anything.  Validation
// order mirrors CreateBooking: range first, then stay length, then price.
func (s *Service) Quote(ctx context.Context, apartmentID uint64, start, end time.Time) (Quote, error) {
	ap, host, err := s.loadApartmentHost(ctx, apartmentID)
	if err != nil {
		return Quote{}, err
	}
	if err := ValidateStay(ap, start, end); err != nil {
		return Quote{}, err
	}
	return ComputeQuote(ap, host, start, end, s.fees)
}

// CreateBooking validates, prices and atomically creates a booking.
//
// Validation failures (ErrInvalidRange, ErrInvalidRequest,
// ErrStayLengthViolation) surface before any transaction is opened, as
// does an advisory availability pass over committed state, so an
// obviously taken range never costs a transaction or a row lock.
//
// The advisory answer can go stale the moment it is computed.  Inside
// the transaction the apartment row is locked and availability is
// re-evaluated against committed state, closing the race against a
// concurrent booking for the same dates: of two overlapping attempts,
// the second to acquire the lock sees the first's row and fails with
// ErrDateRangeUnavailable, rolling back with no partial state.
//
// For processor-routed hosts a checkout session is created after the
// local transaction commits (it is an external network call); a session
// failure is reported via *CheckoutFailedError together with the still
// valid booking, and payment setup can be retried.
func (s *Service) CreateBooking(ctx context.Context, req CreateRequest) (*model.Booking, error) {
	start, end, err := req.Validate()
	if err != nil {
		return nil, err
	}
	ap, host, err := s.loadApartmentHost(ctx, req.ApartmentID)
	if err != nil {
		return nil, err
	}
	if err := ValidateStay(ap, start, end); err != nil {
		return nil, err
	}
	quote, err := ComputeQuote(ap, host, start, end, s.fees)
	if err != nil {
		return nil, err
	}
	status := InitialStatus(host.ProcessorRouted(), req.RequireApproval)

	// Advisory pass over committed state; cheap reads, no locks.  The
	// authoritative re-check happens under the apartment lock below.
	preBookings, err := s.bookings.ListByApartment(ctx, ap.ID)
	if err != nil {
		return nil, err
	}
	preBlocks, err := s.blocked.ListForApartment(ctx, ap.HostID, ap.ID)
	if err != nil {
		return nil, err
	}
	if pre := CheckRange(ap.ID, start, end, preBookings, preBlocks, req.ExternalBlockedDates, s.ConflictStatuses()); !pre.Available {
		return nil, &UnavailableError{Conflicts: pre.Conflicts}
	}

	b := &model.Booking{
		ApartmentID:     ap.ID,
		GuestName:       req.GuestName,
		GuestEmail:      req.GuestEmail,
		StartDate:       start,
		EndDate:         end,
		Status:          status,
		TotalPriceCents: quote.TotalCents,
		HostPayoutCents: quote.HostPayoutCents,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Serialize concurrent attempts for this apartment, then re-check
	// availability against what is actually committed.
	if err := s.apartments.LockTx(ctx, tx, ap.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: apartment %d", ErrNotFound, ap.ID)
		}
		return nil, err
	}
	existing, err := s.bookings.ListByApartmentStatusTx(ctx, tx, ap.ID, s.conflictStatusList())
	if err != nil {
		return nil, err
	}
	blocks, err := s.blocked.ListForApartmentTx(ctx, tx, ap.HostID, ap.ID)
	if err != nil {
		return nil, err
	}
	result := CheckRange(ap.ID, start, end, existing, blocks, req.ExternalBlockedDates, s.ConflictStatuses())
	if !result.Available {
		return nil, &UnavailableError{Conflicts: result.Conflicts}
	}
	if err := s.bookings.CreateTx(ctx, tx, b); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	if status == StatusConfirmed {
		s.dispatch(ctx, s.buildNotification(TemplateBookingConfirmed, b, host.CurrencyCode, false))
	}
	if host.ProcessorRouted() && s.checkout != nil {
		if err := s.createCheckout(ctx, b, host, quote, req); err != nil {
			return b, &CheckoutFailedError{BookingID: b.ID, Err: err}
		}
	}
	return b, nil
}

// createCheckout opens the processor session for the gross total with the
// host's net payout as the transfer instruction, then stores the session
// reference on the booking.
func (s *Service) createCheckout(ctx context.Context, b *model.Booking, host *model.Host, quote Quote, req CreateRequest) error {
	session, err := s.checkout.CreateCheckoutSession(ctx, payment.SessionParams{
		AmountCents:       quote.TotalCents,
		Currency:          host.CurrencyCode,
		PayoutDestination: *host.ProcessorAccountID,
		PayoutAmountCents: quote.HostPayoutCents,
		SuccessURL:        req.SuccessURL,
		CancelURL:         req.CancelURL,
		Metadata: map[string]string{
			"booking_id":   strconv.FormatUint(b.ID, 10),
			"apartment_id": strconv.FormatUint(b.ApartmentID, 10),
		},
	})
	if err != nil {
		return err
	}
	if err := s.bookings.SetCheckoutSessionRef(ctx, b.ID, session.SessionID); err != nil {
		return err
	}
	b.CheckoutSessionRef = &session.SessionID
	return nil
}

// UpdateBookingStatuses applies a batch of status changes in one
// transaction, all-or-nothing.  Each booking is loaded with a row lock,
// the actor's ownership is checked (admins may mutate any booking), and
// the transition is validated by the lifecycle before persisting.  Any
// single failure rolls the entire batch back, leaving every booking in
// its pre-call state.  Cancellation notifications fire only after the
// transaction commits.
func (s *Service) UpdateBookingStatuses(ctx context.Context, updates []StatusUpdate, actor Actor) ([]model.Booking, error) {
	if len(updates) == 0 {
		return []model.Booking{}, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	out := make([]model.Booking, 0, len(updates))
	notifications := []Notification{}
	for _, u := range updates {
		ob, err := s.bookings.GetForUpdateTx(ctx, tx, u.BookingID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("%w: booking %d", ErrNotFound, u.BookingID)
			}
			return nil, err
		}
		if !actor.Admin && ob.HostID != actor.UserID {
			return nil, fmt.Errorf("%w: booking %d belongs to another host", ErrNotAuthorized, u.BookingID)
		}
		if err := ValidateTransition(ob.Status, u.Status); err != nil {
			return nil, err
		}
		if err := s.bookings.UpdateStatusTx(ctx, tx, u.BookingID, u.Status); err != nil {
			return nil, err
		}
		if tmpl, ok := NotificationTemplate(u.Status); ok {
			currency := ""
			if host, herr := s.hosts.GetByID(ctx, ob.HostID); herr != nil {
				log.Printf("booking: host %d lookup for notification currency failed: %v", ob.HostID, herr)
			} else {
				currency = host.CurrencyCode
			}
			updated := ob.Booking
			updated.Status = u.Status
			notifications = append(notifications, s.buildNotification(tmpl, &updated, currency, ob.Status == StatusPaid))
		}
		b := ob.Booking
		b.Status = u.Status
		out = append(out, b)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	for _, n := range notifications {
		s.dispatch(ctx, n)
	}
	return out, nil
}

// MarkPaid drives a PENDING_PAYMENT booking to PAID when the processor
// webhook reports the session complete.  Same lock-then-validate pattern
// as the batch path; an unknown session reference returns ErrNotFound.
// Processors redeliver events until acknowledged, so a replay for an
// already PAID booking succeeds without touching the row.
func (s *Service) MarkPaid(ctx context.Context, sessionRef string) (*model.Booking, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	ob, err := s.bookings.GetBySessionRefForUpdateTx(ctx, tx, sessionRef)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: checkout session %q", ErrNotFound, sessionRef)
		}
		return nil, err
	}
	if ob.Status == StatusPaid {
		b := ob.Booking
		return &b, nil
	}
	if err := ValidateTransition(ob.Status, StatusPaid); err != nil {
		return nil, err
	}
	if err := s.bookings.UpdateStatusTx(ctx, tx, ob.ID, StatusPaid); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	b := ob.Booking
	b.Status = StatusPaid
	return &b, nil
}

func (s *Service) loadApartmentHost(ctx context.Context, apartmentID uint64) (*model.Apartment, *model.Host, error) {
	ap, err := s.apartments.GetByID(ctx, apartmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, fmt.Errorf("%w: apartment %d", ErrNotFound, apartmentID)
		}
		return nil, nil, err
	}
	host, err := s.hosts.GetByID(ctx, ap.HostID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, fmt.Errorf("%w: host %d", ErrNotFound, ap.HostID)
		}
		return nil, nil, err
	}
	return ap, host, nil
}

func (s *Service) buildNotification(template string, b *model.Booking, currency string, refundDue bool) Notification {
	subject := "Your booking is confirmed"
	if template == TemplateBookingCanceled {
		subject = "Your booking was canceled"
	}
	return Notification{
		Template:    template,
		ToEmail:     b.GuestEmail,
		Subject:     subject,
		BookingID:   b.ID,
		ApartmentID: b.ApartmentID,
		GuestName:   b.GuestName,
		StartDate:   b.StartDate.Format(dateLayout),
		EndDate:     b.EndDate.Format(dateLayout),
		TotalCents:  b.TotalPriceCents,
		Currency:    currency,
		RefundDue:   refundDue,
	}
}

// dispatch sends a notification after commit.  Failures are logged and
// swallowed: a failed email must never affect the already committed
// booking or status change.
func (s *Service) dispatch(ctx context.Context, n Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, n); err != nil {
		log.Printf("booking: notification %s for booking %d failed: %v", n.Template, n.BookingID, err)
	}
}
