package repository

import (
	"context"
	"database/sql"

	"github.com/evelinagr/apartment-booking/internal/model"
)

// HostRepo provides read access to hosts.  The booking engine reads the
// commission rate, payout routing and currency; host CRUD lives outside
// the engine.
type HostRepo struct {
	db *sql.DB
}

// NewHostRepo returns a new HostRepo bound to the given database.
func NewHostRepo(db *sql.DB) *HostRepo { return &HostRepo{db: db} }

// GetByID returns a host by primary key.  sql.ErrNoRows is returned when
// the host does not exist.
func (r *HostRepo) GetByID(ctx context.Context, id uint64) (*model.Host, error) {
	const q = `SELECT id, email, name, commission_rate, processor_account_id, currency_code
	           FROM hosts WHERE id = ?`
	var h model.Host
	var acct sql.NullString
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&h.ID, &h.Email, &h.Name, &h.CommissionRate, &acct, &h.CurrencyCode,
	)
	if err != nil {
		return nil, err
	}
	if acct.Valid {
		a := acct.String
		h.ProcessorAccountID = &a
	}
	return &h, nil
}
