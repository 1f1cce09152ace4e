package domain

import "time"

// LoginTokenTTL is how long a magic-link secret can be redeemed.
const LoginTokenTTL = 15 * time.Minute

// LoginToken is an issued magic-link credential. Only the fingerprint of the
// secret is stored. Rows are kept after use or expiry as an audit trail.
type LoginToken struct {
	ID        string
	Email     string
	TokenHash string
	ExpiresAt time.Time
	Used      bool
	UsedAt    *time.Time
	CreatedAt time.Time
}

// IsRedeemable reports whether the token is unused and strictly before its
// expiry at now.
func (t LoginToken) IsRedeemable(now time.Time) bool {
	return !t.Used && now.Before(t.ExpiresAt)
}
