package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/evelinagr/apartment-booking/internal/model"
)

// BookingRepo provides persistence for bookings.  The write path belongs
// to the booking transaction service, which calls the ...Tx variants
// inside a transaction it owns; plain variants serve read-only listings.
// All DATE columns are stored and compared in UTC.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, apartment_id, guest_name, guest_email, start_date, end_date,
	status, total_price_cents, host_payout_cents, checkout_session_ref, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*model.Booking, error) {
	var b model.Booking
	var ref sql.NullString
	err := row.Scan(
		&b.ID, &b.ApartmentID, &b.GuestName, &b.GuestEmail, &b.StartDate, &b.EndDate,
		&b.Status, &b.TotalPriceCents, &b.HostPayoutCents, &ref, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if ref.Valid {
		s := ref.String
		b.CheckoutSessionRef = &s
	}
	return &b, nil
}

// CreateTx inserts a booking within the scope of an existing transaction
// and populates the generated ID and timestamps on the passed value.  The
// caller must commit or roll back the transaction.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings
	           (apartment_id, guest_name, guest_email, start_date, end_date, status, total_price_cents, host_payout_cents)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q,
		b.ApartmentID, b.GuestName, b.GuestEmail,
		b.StartDate.Format("2006-01-02"), b.EndDate.Format("2006-01-02"),
		b.Status, b.TotalPriceCents, b.HostPayoutCents,
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults.
	sel := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	got, err := scanBooking(tx.QueryRowContext(ctx, sel, b.ID))
	if err != nil {
		return err
	}
	*b = *got
	return nil
}

// ListByApartmentStatusTx returns the apartment's bookings whose status is
// in the given set, within the provided transaction.  The transaction
// service runs this after locking the apartment row, so the result
// reflects every committed concurrent booking.
func (r *BookingRepo) ListByApartmentStatusTx(ctx context.Context, tx *sql.Tx, apartmentID uint64, statuses []string) ([]model.Booking, error) {
	if len(statuses) == 0 {
		return []model.Booking{}, nil
	}
	placeholders := make([]string, 0, len(statuses))
	args := []any{apartmentID}
	for _, s := range statuses {
		placeholders = append(placeholders, "?")
		args = append(args, s)
	}
	q := `SELECT ` + bookingColumns + ` FROM bookings
	      WHERE apartment_id = ? AND status IN (` + strings.Join(placeholders, ",") + `)`
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// OwnedBooking is a booking joined with the owning host of its apartment,
// used by the status update path for authorization checks.
type OwnedBooking struct {
	model.Booking
	HostID uint64
}

// GetForUpdateTx loads a booking with a row lock (SELECT ... FOR UPDATE)
// so concurrent status updates to the same booking serialize; the losing
// caller observes committed state instead of overwriting it.  The
// apartment's host id is returned alongside for ownership checks.
// sql.ErrNoRows is returned when the booking does not exist.
func (r *BookingRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*OwnedBooking, error) {
	const q = `SELECT b.id, b.apartment_id, b.guest_name, b.guest_email, b.start_date, b.end_date,
	                  b.status, b.total_price_cents, b.host_payout_cents, b.checkout_session_ref,
	                  b.created_at, b.updated_at, a.host_id
	           FROM bookings b
	           JOIN apartments a ON a.id = b.apartment_id
	           WHERE b.id = ?
	           FOR UPDATE`
	var ob OwnedBooking
	var ref sql.NullString
	err := tx.QueryRowContext(ctx, q, id).Scan(
		&ob.ID, &ob.ApartmentID, &ob.GuestName, &ob.GuestEmail, &ob.StartDate, &ob.EndDate,
		&ob.Status, &ob.TotalPriceCents, &ob.HostPayoutCents, &ref,
		&ob.CreatedAt, &ob.UpdatedAt, &ob.HostID,
	)
	if err != nil {
		return nil, err
	}
	if ref.Valid {
		s := ref.String
		ob.CheckoutSessionRef = &s
	}
	return &ob, nil
}

// GetBySessionRefForUpdateTx is GetForUpdateTx keyed by the processor
// checkout session reference, used by the payment webhook path.
func (r *BookingRepo) GetBySessionRefForUpdateTx(ctx context.Context, tx *sql.Tx, sessionRef string) (*OwnedBooking, error) {
	const q = `SELECT b.id FROM bookings b WHERE b.checkout_session_ref = ? FOR UPDATE`
	var id uint64
	if err := tx.QueryRowContext(ctx, q, sessionRef).Scan(&id); err != nil {
		return nil, err
	}
	return r.GetForUpdateTx(ctx, tx, id)
}

// UpdateStatusTx persists a status change within the transaction.
func (r *BookingRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	const q = `UPDATE bookings SET status = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, status, id)
	return err
}

// SetCheckoutSessionRef stores the processor session reference on an
// already committed booking.  It runs outside any transaction because the
// session is created after commit.
func (r *BookingRepo) SetCheckoutSessionRef(ctx context.Context, id uint64, ref string) error {
	const q = `UPDATE bookings SET checkout_session_ref = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, ref, id)
	return err
}

// ListByApartment returns all bookings for an apartment, newest first.
// Read-only; used by calendar rendering and host listings.
func (r *BookingRepo) ListByApartment(ctx context.Context, apartmentID uint64) ([]model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE apartment_id = ? ORDER BY created_at DESC`
	return r.list(ctx, q, apartmentID)
}

// ListByHost returns all bookings across a host's apartments, newest
// first.
func (r *BookingRepo) ListByHost(ctx context.Context, hostID uint64) ([]model.Booking, error) {
	const q = `SELECT b.id, b.apartment_id, b.guest_name, b.guest_email, b.start_date, b.end_date,
	                  b.status, b.total_price_cents, b.host_payout_cents, b.checkout_session_ref,
	                  b.created_at, b.updated_at
	           FROM bookings b
	           JOIN apartments a ON a.id = b.apartment_id
	           WHERE a.host_id = ?
	           ORDER BY b.created_at DESC`
	return r.list(ctx, q, hostID)
}

// ListByGuestEmail returns all bookings made under the given guest
// address, newest first.
func (r *BookingRepo) ListByGuestEmail(ctx context.Context, email string) ([]model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE guest_email = ? ORDER BY created_at DESC`
	return r.list(ctx, q, email)
}

func (r *BookingRepo) list(ctx context.Context, q string, args ...any) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}
