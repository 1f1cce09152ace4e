package domain

import "time"

// Session is a server-side login session bound after a magic link was
// redeemed. The browser only holds a signed reference to its ID.
type Session struct {
	ID        string
	Email     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (s Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
