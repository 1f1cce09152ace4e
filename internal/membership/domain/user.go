package domain

import (
	"strings"
	"time"
)

type UserStatus string

const (
	UserStatusInactive UserStatus = "inactive"
	UserStatusActive   UserStatus = "active"
	UserStatusExpired  UserStatus = "expired"
)

// User is keyed by its normalized email across the whole system.
type User struct {
	ID          string
	Email       string
	CustomerRef string // commerce platform customer id, empty when unknown
	Status      UserStatus
	ExpiresAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsEntitled reports whether the membership is live at now. Status alone is
// not trusted: an active user whose expiry has passed is not entitled.
func (u User) IsEntitled(now time.Time) bool {
	return u.Status == UserStatusActive && u.ExpiresAt != nil && u.ExpiresAt.After(now)
}

// IsLapsed reports an active user whose expiry is at or before now. Such a
// user is flipped to expired when read.
func (u User) IsLapsed(now time.Time) bool {
	return u.Status == UserStatusActive && u.ExpiresAt != nil && !u.ExpiresAt.After(now)
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
