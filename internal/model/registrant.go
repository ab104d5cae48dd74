package model

import "time"

// Registrant represents a faculty member as stored in the
// `registrants` table.  A registrant is created on signup and is
// never mutated afterwards except for the rank assignment, which the
// store performs in the same statement that inserts the row.
//
// Fields:
//
//	ID           – primary key identifier.
//	SICNumber    – institution identifier used for login; unique.
//	Email        – unique, lowercased contact email.
//	Phone        – contact phone as entered at signup.
//	Name         – display name.
//	PasswordHash – bcrypt hashed password.
//	Rank         – visit order; nil until assigned, unique once set.
//	CreatedAt    – timestamp of creation.
type Registrant struct {
	ID           uint64    `json:"id"`         // registrants.id
	SICNumber    string    `json:"sic_number"` // registrants.sic_number
	Email        string    `json:"email"`      // registrants.email
	Phone        string    `json:"phone"`      // registrants.phone
	Name         string    `json:"name"`       // registrants.name
	PasswordHash string    `json:"-"`          // registrants.password_hash
	Rank         *int      `json:"rank"`       // registrants.visit_order (nullable)
	CreatedAt    time.Time `json:"created_at"` // registrants.created_at
}

// RoleAdmin is the only role the application checks.  Role
// assignments live in the `user_roles` table, one row per
// (registrant, role).
const RoleAdmin = "admin"

// RefreshToken models an entry in the `refresh_tokens` table.  The
// plain token is never stored; only its SHA‑256 hash.
//
// Fields:
//
//	ID           – primary key identifier.
//	RegistrantID – owner of the token.
//	TokenHash    – SHA‑256 hex digest of the token value.
//	ExpiresAt    – expiration timestamp of the token.
//	RevokedAt    – when the token was revoked (null if still active).
//	CreatedAt    – timestamp of creation.
type RefreshToken struct {
	ID           uint64     // refresh_tokens.id
	RegistrantID uint64     // refresh_tokens.registrant_id
	TokenHash    string     // refresh_tokens.token_hash
	ExpiresAt    time.Time  // refresh_tokens.expires_at
	RevokedAt    *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt    time.Time  // refresh_tokens.created_at
}

// RegistrantSummary is the admin view of a registrant: the profile
// plus the tier it resolves to and any claim already recorded.
type RegistrantSummary struct {
	Registrant
	TierID    string     `json:"tier_id,omitempty"`
	ClaimedAt *time.Time `json:"claimed_at,omitempty"`
}
