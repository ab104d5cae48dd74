package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/faculty-fest/internal/model"
)

// ClaimRepo stores voucher claims.  The unique index on registrant_id
// guarantees at most one claim per registrant.
type ClaimRepo struct {
	db *sql.DB
}

// NewClaimRepo returns a ClaimRepo bound to the given database.
func NewClaimRepo(db *sql.DB) *ClaimRepo { return &ClaimRepo{db: db} }

var claimKeys = map[string][]string{
	KeyClaim: {"uq_voucher_claims_registrant", "voucher_claims.registrant_id"},
}

// Create inserts the claim.  A second claim for the same registrant is
// returned as a *DuplicateError keyed KeyClaim.
func (r *ClaimRepo) Create(ctx context.Context, c *model.VoucherClaim) error {
	c.ClaimedAt = time.Now().UTC().Truncate(time.Second)
	const q = `INSERT INTO voucher_claims (registrant_id, tier_id, code, claimed_at) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, c.RegistrantID, c.TierID, c.Code, c.ClaimedAt)
	if err != nil {
		return asDuplicate(err, claimKeys)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// GetByRegistrant returns the registrant's claim or ErrNotFound.
func (r *ClaimRepo) GetByRegistrant(ctx context.Context, registrantID uint64) (model.VoucherClaim, error) {
	const q = `SELECT id, registrant_id, tier_id, code, claimed_at FROM voucher_claims WHERE registrant_id = ?`
	var c model.VoucherClaim
	err := r.db.QueryRowContext(ctx, q, registrantID).Scan(&c.ID, &c.RegistrantID, &c.TierID, &c.Code, &c.ClaimedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.VoucherClaim{}, ErrNotFound
	}
	return c, err
}

// List returns all claims in claim order.
func (r *ClaimRepo) List(ctx context.Context) ([]model.VoucherClaim, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, registrant_id, tier_id, code, claimed_at FROM voucher_claims ORDER BY claimed_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.VoucherClaim{}
	for rows.Next() {
		var c model.VoucherClaim
		if err := rows.Scan(&c.ID, &c.RegistrantID, &c.TierID, &c.Code, &c.ClaimedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
