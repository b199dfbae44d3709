package repository

import (
	"context"
	"database/sql"

	"github.com/evelinagr/apartment-booking/internal/model"
)

// ApartmentRepo provides read access to apartments and their price
// override rules.  Apartments are owned by the host CRUD layer; the
// booking engine only reads them, plus takes a row lock to serialize
// concurrent booking attempts for the same apartment.
type ApartmentRepo struct {
	db *sql.DB
}

// NewApartmentRepo returns a new ApartmentRepo bound to the given database.
func NewApartmentRepo(db *sql.DB) *ApartmentRepo { return &ApartmentRepo{db: db} }

// GetByID loads an apartment together with all of its price override
// rules.  Overrides are returned ordered by created_at then id so the
// slice order is stable, though pricing never depends on it.  When the
// apartment does not exist, sql.ErrNoRows is returned.
func (r *ApartmentRepo) GetByID(ctx context.Context, id uint64) (*model.Apartment, error) {
	const q = `SELECT id, host_id, title, base_price_cents, min_stay_nights, max_stay_nights, capacity, manual_approval, calendar_feed_url
	           FROM apartments WHERE id = ?`
	var ap model.Apartment
	var feedURL sql.NullString
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&ap.ID, &ap.HostID, &ap.Title, &ap.BasePriceCents,
		&ap.MinStayNights, &ap.MaxStayNights, &ap.Capacity, &ap.ManualApproval, &feedURL,
	)
	if err != nil {
		return nil, err
	}
	if feedURL.Valid {
		u := feedURL.String
		ap.CalendarFeedURL = &u
	}
	const oq = `SELECT id, apartment_id, start_date, end_date, nightly_price_cents, label, created_at
	            FROM price_overrides WHERE apartment_id = ?
	            ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, oq, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var o model.PriceOverride
		var label sql.NullString
		if err := rows.Scan(&o.ID, &o.ApartmentID, &o.StartDate, &o.EndDate, &o.NightlyRateCents, &label, &o.CreatedAt); err != nil {
			return nil, err
		}
		if label.Valid {
			o.Label = label.String
		}
		ap.PriceOverrides = append(ap.PriceOverrides, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &ap, nil
}

// LockTx acquires a row lock on the apartment within the provided
// transaction (SELECT ... FOR UPDATE).  Two concurrent booking attempts
// for the same apartment serialize on this lock, so the second to acquire
// it observes the first's committed booking during the availability
// re-check.  Returns sql.ErrNoRows when the apartment does not exist.
func (r *ApartmentRepo) LockTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	const q = `SELECT id FROM apartments WHERE id = ? FOR UPDATE`
	var got uint64
	return tx.QueryRowContext(ctx, q, id).Scan(&got)
}
