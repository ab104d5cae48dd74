package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/faculty-fest/internal/model"
)

// RegistrantRepo persists faculty registrants and their ranks.
type RegistrantRepo struct{ DB DBTX }

// DBTX is the part of *sql.DB the registrant queries need.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func NewRegistrantRepo(db DBTX) *RegistrantRepo { return &RegistrantRepo{DB: db} }

var registrantKeys = map[string][]string{
	KeySICNumber:  {"uq_registrants_sic", "registrants.sic_number"},
	KeyEmail:      {"uq_registrants_email", "registrants.email"},
	KeyVisitOrder: {"uq_registrants_visit_order", "registrants.visit_order"},
}

// rankAttempts bounds how often Create re-runs the insert when two
// signups computed the same next rank and the unique index rejected
// one, or when MySQL picked the insert as a deadlock victim.
const rankAttempts = 5

const registrantColumns = "id, sic_number, email, phone, name, password_hash, visit_order, created_at"

// retryableRank reports whether the rank insert lost a race and can be
// run again as is.
func retryableRank(err error) bool {
	return DuplicateKey(err) == KeyVisitOrder || isLockConflict(err)
}

func rankBackoff(ctx context.Context, attempt int) error {
	t := time.NewTimer(time.Duration(attempt+1) * 5 * time.Millisecond)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Create inserts the registrant and lets the store assign the next rank
// in the same statement.  On success r.ID, r.Rank and r.CreatedAt are
// populated.  A duplicate SIC number or email is returned as a
// *DuplicateError.
func (r *RegistrantRepo) Create(ctx context.Context, reg *model.Registrant) error {
	reg.Email = strings.ToLower(strings.TrimSpace(reg.Email))
	reg.SICNumber = strings.TrimSpace(reg.SICNumber)
	now := time.Now().UTC().Truncate(time.Second)

	const q = `INSERT INTO registrants (sic_number, email, phone, name, password_hash, visit_order, created_at)
	           SELECT ?, ?, ?, ?, ?, COALESCE(MAX(visit_order), 0) + 1, ? FROM registrants`
	var (
		res sql.Result
		err error
	)
	for attempt := 0; attempt < rankAttempts; attempt++ {
		res, err = r.DB.ExecContext(ctx, q, reg.SICNumber, reg.Email, reg.Phone, reg.Name, reg.PasswordHash, now)
		err = asDuplicate(err, registrantKeys)
		if !retryableRank(err) {
			break
		}
		if werr := rankBackoff(ctx, attempt); werr != nil {
			return werr
		}
	}
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*reg = stored
	return nil
}

// GetByID fetches a registrant by id.
func (r *RegistrantRepo) GetByID(ctx context.Context, id uint64) (model.Registrant, error) {
	return r.getOne(ctx, "SELECT "+registrantColumns+" FROM registrants WHERE id=? LIMIT 1", id)
}

// GetBySIC fetches a registrant by institution id.
func (r *RegistrantRepo) GetBySIC(ctx context.Context, sic string) (model.Registrant, error) {
	return r.getOne(ctx, "SELECT "+registrantColumns+" FROM registrants WHERE sic_number=? LIMIT 1", strings.TrimSpace(sic))
}

// GetByEmail fetches a registrant by normalized email.
func (r *RegistrantRepo) GetByEmail(ctx context.Context, email string) (model.Registrant, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.getOne(ctx, "SELECT "+registrantColumns+" FROM registrants WHERE email=? LIMIT 1", email)
}

// EmailBySIC resolves the contact email registered for an institution id.
func (r *RegistrantRepo) EmailBySIC(ctx context.Context, sic string) (string, error) {
	var email string
	err := r.DB.QueryRowContext(ctx,
		"SELECT email FROM registrants WHERE sic_number=? LIMIT 1", strings.TrimSpace(sic)).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return email, err
}

// ListEligibleUnclaimed returns registrants ranked 1..maxRank that have
// no voucher claim yet, ordered by rank.
func (r *RegistrantRepo) ListEligibleUnclaimed(ctx context.Context, maxRank int) ([]model.Registrant, error) {
	const q = `SELECT r.id, r.sic_number, r.email, r.phone, r.name, r.password_hash, r.visit_order, r.created_at
	           FROM registrants r
	           LEFT JOIN voucher_claims c ON c.registrant_id = r.id
	           WHERE r.visit_order IS NOT NULL AND r.visit_order <= ? AND c.id IS NULL
	           ORDER BY r.visit_order`
	rows, err := r.DB.QueryContext(ctx, q, maxRank)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Registrant{}
	for rows.Next() {
		reg, err := scanRegistrant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

// ListWithClaims returns every registrant ordered by rank together with
// the claim timestamp when one exists.  Unranked rows sort last.
func (r *RegistrantRepo) ListWithClaims(ctx context.Context) ([]model.RegistrantSummary, error) {
	const q = `SELECT r.id, r.sic_number, r.email, r.phone, r.name, r.password_hash, r.visit_order, r.created_at,
	                  c.tier_id, c.claimed_at
	           FROM registrants r
	           LEFT JOIN voucher_claims c ON c.registrant_id = r.id
	           ORDER BY r.visit_order IS NULL, r.visit_order, r.id`
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.RegistrantSummary{}
	for rows.Next() {
		var (
			s         model.RegistrantSummary
			rank      sql.NullInt64
			tierID    sql.NullString
			claimedAt sql.NullTime
		)
		if err := rows.Scan(&s.ID, &s.SICNumber, &s.Email, &s.Phone, &s.Name, &s.PasswordHash,
			&rank, &s.CreatedAt, &tierID, &claimedAt); err != nil {
			return nil, err
		}
		s.Rank = rankPtr(rank)
		if tierID.Valid {
			s.TierID = tierID.String
		}
		if claimedAt.Valid {
			t := claimedAt.Time
			s.ClaimedAt = &t
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *RegistrantRepo) getOne(ctx context.Context, q string, arg any) (model.Registrant, error) {
	reg, err := scanRegistrant(r.DB.QueryRowContext(ctx, q, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Registrant{}, ErrNotFound
	}
	return reg, err
}

func scanRegistrant(s rowScanner) (model.Registrant, error) {
	var (
		reg  model.Registrant
		rank sql.NullInt64
	)
	err := s.Scan(&reg.ID, &reg.SICNumber, &reg.Email, &reg.Phone, &reg.Name, &reg.PasswordHash, &rank, &reg.CreatedAt)
	if err != nil {
		return model.Registrant{}, err
	}
	reg.Rank = rankPtr(rank)
	return reg, nil
}

func rankPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

// RoleRepo answers capability queries against the user_roles table.
type RoleRepo struct{ DB *sql.DB }

func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{DB: db} }

// HasRole reports whether the registrant holds role.
func (r *RoleRepo) HasRole(ctx context.Context, registrantID uint64, role string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM user_roles WHERE registrant_id=? AND role=?", registrantID, role).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Grant assigns role to the registrant.  Granting an existing role is a no-op.
func (r *RoleRepo) Grant(ctx context.Context, registrantID uint64, role string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO user_roles (registrant_id, role) VALUES (?, ?)", registrantID, role)
	if isDuplicate(err) {
		return nil
	}
	return err
}
