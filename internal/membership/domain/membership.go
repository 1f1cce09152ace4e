package domain

import "time"

// MembershipDuration is the fixed length of one activation. Renewals restart
// the window from the moment of processing; unused days do not carry over.
const MembershipDuration = 30 * 24 * time.Hour

// Membership records one activation caused by one paid order. Rows are never
// rewritten; each order id appears at most once.
type Membership struct {
	ID         string
	UserID     string
	OrderID    string
	SKU        string
	ActiveFrom time.Time
	ActiveTo   time.Time
	CreatedAt  time.Time
}
