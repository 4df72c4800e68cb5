package models

import "time"

// RefreshToken is the persisted grant behind a signed refresh token.
// TokenID is the opaque identifier carried in the token's "tid" claim.
type RefreshToken struct {
	TokenID   string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the grant is no longer redeemable at now.
// The expiry instant itself counts as expired.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
