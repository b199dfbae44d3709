package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/evelinagr/apartment-booking/internal/model"
)

// BlockedDateRepo provides access to host-imposed manual blocks.  A row
// with a NULL apartment_id blocks the date across every apartment the
// host owns.  Rows are only ever created and deleted, never updated.
type BlockedDateRepo struct {
	db *sql.DB
}

// NewBlockedDateRepo returns a new BlockedDateRepo bound to the given database.
func NewBlockedDateRepo(db *sql.DB) *BlockedDateRepo { return &BlockedDateRepo{db: db} }

const blockedQuery = `SELECT id, host_id, apartment_id, date, reason, created_at
	FROM blocked_dates
	WHERE host_id = ? AND (apartment_id IS NULL OR apartment_id = ?)`

// ListForApartmentTx returns the blocks relevant to one apartment (its
// own rows plus the host-wide sentinel rows) within the provided
// transaction, so the availability re-check sees committed state under
// the apartment row lock.
func (r *BlockedDateRepo) ListForApartmentTx(ctx context.Context, tx *sql.Tx, hostID, apartmentID uint64) ([]model.BlockedDate, error) {
	rows, err := tx.QueryContext(ctx, blockedQuery, hostID, apartmentID)
	if err != nil {
		return nil, err
	}
	return collectBlocked(rows)
}

// ListForApartment is the read-only variant used for calendar rendering.
func (r *BlockedDateRepo) ListForApartment(ctx context.Context, hostID, apartmentID uint64) ([]model.BlockedDate, error) {
	rows, err := r.db.QueryContext(ctx, blockedQuery, hostID, apartmentID)
	if err != nil {
		return nil, err
	}
	return collectBlocked(rows)
}

func collectBlocked(rows *sql.Rows) ([]model.BlockedDate, error) {
	defer rows.Close()
	out := []model.BlockedDate{}
	for rows.Next() {
		var b model.BlockedDate
		var apID sql.NullInt64
		var reason sql.NullString
		if err := rows.Scan(&b.ID, &b.HostID, &apID, &b.Date, &reason, &b.CreatedAt); err != nil {
			return nil, err
		}
		if apID.Valid {
			id := uint64(apID.Int64)
			b.ApartmentID = &id
		}
		if reason.Valid {
			s := reason.String
			b.Reason = &s
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Create inserts a manual block and populates the generated ID.
func (r *BlockedDateRepo) Create(ctx context.Context, b *model.BlockedDate) error {
	const q = `INSERT INTO blocked_dates (host_id, apartment_id, date, reason) VALUES (?, ?, ?, ?)`
	var apID any
	if b.ApartmentID != nil {
		apID = *b.ApartmentID
	}
	var reason any
	if b.Reason != nil {
		reason = *b.Reason
	}
	result, err := r.db.ExecContext(ctx, q, b.HostID, apID, b.Date.Format("2006-01-02"), reason)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	b.CreatedAt = time.Now().UTC()
	return nil
}

// Delete removes a block owned by the given host.  sql.ErrNoRows is
// returned when no matching row exists, which also covers attempts to
// delete another host's block.
func (r *BlockedDateRepo) Delete(ctx context.Context, hostID, id uint64) error {
	const q = `DELETE FROM blocked_dates WHERE id = ? AND host_id = ?`
	result, err := r.db.ExecContext(ctx, q, id, hostID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
