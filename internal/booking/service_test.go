package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/evelinagr/apartment-booking/internal/config"
	"github.com/evelinagr/apartment-booking/internal/payment"
	"github.com/evelinagr/apartment-booking/internal/repository"
)

// recordingNotifier captures dispatched notifications for assertions.
type recordingNotifier struct {
	sent []Notification
	fail bool
}

func (r *recordingNotifier) Send(_ context.Context, n Notification) error {
	if r.fail {
		return errors.New("broker down")
	}
	r.sent = append(r.sent, n)
	return nil
}

// fakeCheckout stands in for the payment processor adapter.
type fakeCheckout struct {
	session *payment.Session
	err     error
	params  payment.SessionParams
}

func (f *fakeCheckout) CreateCheckoutSession(_ context.Context, p payment.SessionParams) (*payment.Session, error) {
	f.params = p
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

func newTestService(t *testing.T, opts ...Option) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	svc := NewService(db,
		repository.NewApartmentRepo(db),
		repository.NewHostRepo(db),
		repository.NewBookingRepo(db),
		repository.NewBlockedDateRepo(db),
		config.ProcessorFees{RatePct: 0.029, FixedFeeCents: map[string]int64{"USD": 30}},
		opts...)
	return svc, mock
}

func bookingRowColumns() []string {
	return []string{
		"id", "apartment_id", "guest_name", "guest_email", "start_date", "end_date",
		"status", "total_price_cents", "host_payout_cents", "checkout_session_ref",
		"created_at", "updated_at",
	}
}

// expectApartmentHost queues the read-only apartment, override and host
// lookups that precede every quote and create.
func expectApartmentHost(mock sqlmock.Sqlmock, processorAccount any) {
	mock.ExpectQuery(`SELECT id, host_id, title, base_price_cents`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "host_id", "title", "base_price_cents", "min_stay_nights",
			"max_stay_nights", "capacity", "manual_approval", "calendar_feed_url",
		}).AddRow(7, 1, "Sea View Flat", 10000, 1, 0, 2, false, nil))
	mock.ExpectQuery(`FROM price_overrides`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "apartment_id", "start_date", "end_date", "nightly_price_cents", "label", "created_at",
		}))
	mock.ExpectQuery(`FROM hosts WHERE id =`).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "name", "commission_rate", "processor_account_id", "currency_code",
		}).AddRow(1, "host@example.com", "Eva", 0.04, processorAccount, "USD"))
}

func blockedColumns() []string {
	return []string{"id", "host_id", "apartment_id", "date", "reason", "created_at"}
}

// expectAvailabilityPrecheck queues the lock-free advisory reads that run
// before the transaction opens, both returning no conflicts.
func expectAvailabilityPrecheck(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`FROM bookings WHERE apartment_id = (.+) ORDER BY created_at DESC`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(bookingRowColumns()))
	mock.ExpectQuery(`FROM blocked_dates`).
		WithArgs(uint64(1), uint64(7)).
		WillReturnRows(sqlmock.NewRows(blockedColumns()))
}

func validCreateRequest() CreateRequest {
	return CreateRequest{
		ApartmentID: 7,
		StartDate:   "2026-06-01",
		EndDate:     "2026-06-04",
		GuestName:   "Nora Guest",
		GuestEmail:  "nora@example.com",
	}
}

func TestCreateBookingHappyPath(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, mock := newTestService(t, WithNotifier(notifier))

	expectApartmentHost(mock, nil) // direct host, no processor
	expectAvailabilityPrecheck(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM apartments WHERE id = (.+) FOR UPDATE`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(`FROM bookings(.+)status IN`).
		WillReturnRows(sqlmock.NewRows(bookingRowColumns()))
	mock.ExpectQuery(`FROM blocked_dates`).
		WithArgs(uint64(1), uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "host_id", "apartment_id", "date", "reason", "created_at"}))
	mock.ExpectExec(`INSERT INTO bookings`).
		WillReturnResult(sqlmock.NewResult(42, 1))
	now := time.Now().UTC()
	mock.ExpectQuery(`FROM bookings WHERE id =`).
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows(bookingRowColumns()).AddRow(
			42, 7, "Nora Guest", "nora@example.com", day("2026-06-01"), day("2026-06-04"),
			StatusConfirmed, 30000, 30000, nil, now, now,
		))
	mock.ExpectCommit()

	b, err := svc.CreateBooking(context.Background(), validCreateRequest())
	assert.NoError(t, err)
	assert.Equal(t, uint64(42), b.ID)
	assert.Equal(t, StatusConfirmed, b.Status)
	assert.Equal(t, int64(30000), b.TotalPriceCents)
	assert.NoError(t, mock.ExpectationsWereMet())

	// confirmation fires only after commit
	assert.Len(t, notifier.sent, 1)
	assert.Equal(t, TemplateBookingConfirmed, notifier.sent[0].Template)
	assert.Equal(t, "nora@example.com", notifier.sent[0].ToEmail)
	assert.Equal(t, "USD", notifier.sent[0].Currency)
}

func TestCreateBookingConflictRollsBack(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, mock := newTestService(t, WithNotifier(notifier))

	expectApartmentHost(mock, nil)
	expectAvailabilityPrecheck(mock)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM apartments WHERE id = (.+) FOR UPDATE`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	// a concurrent booking committed between the advisory pass and the
	// lock; only the in-tx re-check can see it
	mock.ExpectQuery(`FROM bookings(.+)status IN`).
		WillReturnRows(sqlmock.NewRows(bookingRowColumns()).AddRow(
			11, 7, "Earlier Guest", "early@example.com", day("2026-06-02"), day("2026-06-05"),
			StatusConfirmed, 30000, 30000, nil, now, now,
		))
	mock.ExpectQuery(`FROM blocked_dates`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "host_id", "apartment_id", "date", "reason", "created_at"}))
	mock.ExpectRollback()

	b, err := svc.CreateBooking(context.Background(), validCreateRequest())
	assert.Nil(t, b)
	assert.ErrorIs(t, err, ErrDateRangeUnavailable)

	var unavailable *UnavailableError
	assert.ErrorAs(t, err, &unavailable)
	assert.Len(t, unavailable.Conflicts, 1)
	assert.Equal(t, uint64(11), unavailable.Conflicts[0].BookingID)

	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Empty(t, notifier.sent)
}

func TestCreateBookingPrecheckShortCircuits(t *testing.T) {
	svc, mock := newTestService(t)

	expectApartmentHost(mock, nil)

	now := time.Now().UTC()
	// the advisory pass already sees a PAID booking covering the dates,
	// so no transaction is ever opened
	mock.ExpectQuery(`FROM bookings WHERE apartment_id = (.+) ORDER BY created_at DESC`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(bookingRowColumns()).AddRow(
			11, 7, "Earlier Guest", "early@example.com", day("2026-06-02"), day("2026-06-05"),
			StatusPaid, 30000, 30000, nil, now, now,
		))
	mock.ExpectQuery(`FROM blocked_dates`).
		WithArgs(uint64(1), uint64(7)).
		WillReturnRows(sqlmock.NewRows(blockedColumns()))

	b, err := svc.CreateBooking(context.Background(), validCreateRequest())
	assert.Nil(t, b)
	assert.ErrorIs(t, err, ErrDateRangeUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingValidationShortCircuits(t *testing.T) {
	svc, mock := newTestService(t)

	req := validCreateRequest()
	req.EndDate = "2026-06-01" // zero nights

	b, err := svc.CreateBooking(context.Background(), req)
	assert.Nil(t, b)
	assert.ErrorIs(t, err, ErrInvalidRange)
	// no transaction was ever opened
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingProcessorRouted(t *testing.T) {
	checkout := &fakeCheckout{session: &payment.Session{SessionID: "cs_123", SessionURL: "https://pay.example/cs_123"}}
	svc, mock := newTestService(t, WithCheckout(checkout))

	expectApartmentHost(mock, "acct_9") // processor-routed host
	expectAvailabilityPrecheck(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM apartments WHERE id = (.+) FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(`FROM bookings(.+)status IN`).
		WillReturnRows(sqlmock.NewRows(bookingRowColumns()))
	mock.ExpectQuery(`FROM blocked_dates`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "host_id", "apartment_id", "date", "reason", "created_at"}))
	mock.ExpectExec(`INSERT INTO bookings`).
		WillReturnResult(sqlmock.NewResult(43, 1))
	now := time.Now().UTC()
	// gross-up of 30000 at 4% commission, 2.9% + 30c processor fees
	mock.ExpectQuery(`FROM bookings WHERE id =`).
		WillReturnRows(sqlmock.NewRows(bookingRowColumns()).AddRow(
			43, 7, "Nora Guest", "nora@example.com", day("2026-06-01"), day("2026-06-04"),
			StatusPendingPayment, 32256, 30000, nil, now, now,
		))
	mock.ExpectCommit()
	mock.ExpectExec(`UPDATE bookings SET checkout_session_ref`).
		WithArgs("cs_123", uint64(43)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	b, err := svc.CreateBooking(context.Background(), validCreateRequest())
	assert.NoError(t, err)
	assert.Equal(t, StatusPendingPayment, b.Status)
	assert.NotNil(t, b.CheckoutSessionRef)
	assert.Equal(t, "cs_123", *b.CheckoutSessionRef)

	// the session charges the gross total and routes the net payout
	assert.Equal(t, int64(32256), checkout.params.AmountCents)
	assert.Equal(t, int64(30000), checkout.params.PayoutAmountCents)
	assert.Equal(t, "acct_9", checkout.params.PayoutDestination)
	assert.Equal(t, "43", checkout.params.Metadata["booking_id"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingCheckoutFailureKeepsBooking(t *testing.T) {
	checkout := &fakeCheckout{err: errors.New("processor unreachable")}
	svc, mock := newTestService(t, WithCheckout(checkout))

	expectApartmentHost(mock, "acct_9")
	expectAvailabilityPrecheck(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM apartments WHERE id = (.+) FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(`FROM bookings(.+)status IN`).
		WillReturnRows(sqlmock.NewRows(bookingRowColumns()))
	mock.ExpectQuery(`FROM blocked_dates`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "host_id", "apartment_id", "date", "reason", "created_at"}))
	mock.ExpectExec(`INSERT INTO bookings`).
		WillReturnResult(sqlmock.NewResult(44, 1))
	now := time.Now().UTC()
	mock.ExpectQuery(`FROM bookings WHERE id =`).
		WillReturnRows(sqlmock.NewRows(bookingRowColumns()).AddRow(
			44, 7, "Nora Guest", "nora@example.com", day("2026-06-01"), day("2026-06-04"),
			StatusPendingPayment, 32256, 30000, nil, now, now,
		))
	mock.ExpectCommit()

	b, err := svc.CreateBooking(context.Background(), validCreateRequest())
	// the booking committed; the failure is reported as a typed warning
	assert.NotNil(t, b)
	assert.Equal(t, uint64(44), b.ID)

	var checkoutErr *CheckoutFailedError
	assert.ErrorAs(t, err, &checkoutErr)
	assert.Equal(t, uint64(44), checkoutErr.BookingID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func ownedBookingColumns() []string {
	return append(bookingRowColumns(), "host_id")
}

func expectLockedBooking(mock sqlmock.Sqlmock, id uint64, status string, hostID uint64) {
	now := time.Now().UTC()
	mock.ExpectQuery(`JOIN apartments(.+)FOR UPDATE`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(ownedBookingColumns()).AddRow(
			id, 7, "Nora Guest", "nora@example.com", day("2026-06-01"), day("2026-06-04"),
			status, 30000, 30000, nil, now, now, hostID,
		))
}

func TestUpdateBookingStatusesHappyPath(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, mock := newTestService(t, WithNotifier(notifier))

	mock.ExpectBegin()
	expectLockedBooking(mock, 21, StatusRequested, 1)
	mock.ExpectExec(`UPDATE bookings SET status`).
		WithArgs(StatusConfirmed, uint64(21)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// currency lookup for the confirmation notification
	mock.ExpectQuery(`FROM hosts WHERE id =`).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "name", "commission_rate", "processor_account_id", "currency_code",
		}).AddRow(1, "host@example.com", "Eva", 0.04, nil, "USD"))
	expectLockedBooking(mock, 22, StatusPaid, 1)
	mock.ExpectExec(`UPDATE bookings SET status`).
		WithArgs(StatusCanceled, uint64(22)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM hosts WHERE id =`).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "name", "commission_rate", "processor_account_id", "currency_code",
		}).AddRow(1, "host@example.com", "Eva", 0.04, nil, "USD"))
	mock.ExpectCommit()

	updates := []StatusUpdate{
		{BookingID: 21, Status: StatusConfirmed},
		{BookingID: 22, Status: StatusCanceled},
	}
	out, err := svc.UpdateBookingStatuses(context.Background(), updates, Actor{UserID: 1})
	assert.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, StatusConfirmed, out[0].Status)
	assert.Equal(t, StatusCanceled, out[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())

	// both transitions notify, and canceling a PAID booking owes a refund
	assert.Len(t, notifier.sent, 2)
	assert.Equal(t, TemplateBookingConfirmed, notifier.sent[0].Template)
	assert.False(t, notifier.sent[0].RefundDue)
	assert.Equal(t, TemplateBookingCanceled, notifier.sent[1].Template)
	assert.True(t, notifier.sent[1].RefundDue)
}

func TestUpdateBookingStatusesCurrencyLookupFailureIsNonFatal(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, mock := newTestService(t, WithNotifier(notifier))

	mock.ExpectBegin()
	expectLockedBooking(mock, 21, StatusRequested, 1)
	mock.ExpectExec(`UPDATE bookings SET status`).
		WithArgs(StatusConfirmed, uint64(21)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM hosts WHERE id =`).
		WithArgs(uint64(1)).
		WillReturnError(errors.New("host row gone"))
	mock.ExpectCommit()

	out, err := svc.UpdateBookingStatuses(context.Background(), []StatusUpdate{{BookingID: 21, Status: StatusConfirmed}}, Actor{UserID: 1})
	assert.NoError(t, err)
	assert.Len(t, out, 1)
	assert.NoError(t, mock.ExpectationsWereMet())

	// the notification still goes out, just without a currency
	assert.Len(t, notifier.sent, 1)
	assert.Equal(t, "", notifier.sent[0].Currency)
}

func TestUpdateBookingStatusesAllOrNothing(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, mock := newTestService(t, WithNotifier(notifier))

	mock.ExpectBegin()
	expectLockedBooking(mock, 21, StatusRequested, 1)
	mock.ExpectExec(`UPDATE bookings SET status`).
		WithArgs(StatusRejected, uint64(21)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// second update is an illegal edge; the whole batch rolls back
	expectLockedBooking(mock, 22, StatusRequested, 1)
	mock.ExpectRollback()

	updates := []StatusUpdate{
		{BookingID: 21, Status: StatusRejected},
		{BookingID: 22, Status: StatusPaid},
	}
	out, err := svc.UpdateBookingStatuses(context.Background(), updates, Actor{UserID: 1})
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Empty(t, notifier.sent)
}

func TestUpdateBookingStatusesOwnership(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	expectLockedBooking(mock, 21, StatusRequested, 5) // owned by host 5
	mock.ExpectRollback()

	updates := []StatusUpdate{{BookingID: 21, Status: StatusConfirmed}}
	out, err := svc.UpdateBookingStatuses(context.Background(), updates, Actor{UserID: 1})
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrNotAuthorized)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBookingStatusesAdminBypassesOwnership(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	expectLockedBooking(mock, 21, StatusRequested, 5)
	mock.ExpectExec(`UPDATE bookings SET status`).
		WithArgs(StatusRejected, uint64(21)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	updates := []StatusUpdate{{BookingID: 21, Status: StatusRejected}}
	out, err := svc.UpdateBookingStatuses(context.Background(), updates, Actor{UserID: 1, Admin: true})
	assert.NoError(t, err)
	assert.Len(t, out, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBookingStatusesUnknownBooking(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`JOIN apartments(.+)FOR UPDATE`).
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows(ownedBookingColumns()))
	mock.ExpectRollback()

	out, err := svc.UpdateBookingStatuses(context.Background(), []StatusUpdate{{BookingID: 99, Status: StatusConfirmed}}, Actor{UserID: 1})
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkPaid(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`checkout_session_ref = (.+) FOR UPDATE`).
		WithArgs("cs_123").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(43))
	expectLockedBooking(mock, 43, StatusPendingPayment, 1)
	mock.ExpectExec(`UPDATE bookings SET status`).
		WithArgs(StatusPaid, uint64(43)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	b, err := svc.MarkPaid(context.Background(), "cs_123")
	assert.NoError(t, err)
	assert.Equal(t, StatusPaid, b.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkPaidReplayIsIdempotent(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`checkout_session_ref = (.+) FOR UPDATE`).
		WithArgs("cs_123").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(43))
	expectLockedBooking(mock, 43, StatusPaid, 1)
	// redelivered event: no status write, the read-only tx just closes
	mock.ExpectRollback()

	b, err := svc.MarkPaid(context.Background(), "cs_123")
	assert.NoError(t, err)
	assert.Equal(t, StatusPaid, b.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkPaidUnknownSession(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`checkout_session_ref = (.+) FOR UPDATE`).
		WithArgs("cs_missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	b, err := svc.MarkPaid(context.Background(), "cs_missing")
	assert.Nil(t, b)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConflictStatusesPendingHold(t *testing.T) {
	svc, _ := newTestService(t)
	assert.False(t, svc.ConflictStatuses()[StatusPendingPayment])

	held, _ := newTestService(t, WithPendingHold(true))
	assert.True(t, held.ConflictStatuses()[StatusPendingPayment])
	assert.ElementsMatch(t, []string{StatusConfirmed, StatusPaid, StatusPendingPayment}, held.conflictStatusList())
}
