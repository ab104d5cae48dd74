package model

import "time"

// VoucherClaim is a registrant's one-time redemption record for the
// tier their rank entitles them to.  At most one row exists per
// registrant; claims are never updated or deleted.
//
// Fields:
//
//	ID           – primary key identifier.
//	RegistrantID – registrant who claimed the voucher (unique).
//	TierID       – identifier of the claimed tier.
//	Code         – redemption code shown at the food counter.
//	ClaimedAt    – creation timestamp.
type VoucherClaim struct {
	ID           uint64    `json:"id"`            // voucher_claims.id
	RegistrantID uint64    `json:"registrant_id"` // voucher_claims.registrant_id
	TierID       string    `json:"tier_id"`       // voucher_claims.tier_id
	Code         string    `json:"code"`          // voucher_claims.code
	ClaimedAt    time.Time `json:"claimed_at"`    // voucher_claims.claimed_at
}
