package store

import (
	"context"
	"errors"
	"time"

	"github.com/GabrielAlexander97/neverpayforads/internal/membership/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface implemented by the sqlite and
// postgres drivers. Repositories hang off it as methods so a Tx-scoped Store
// hands out Tx-scoped repositories and nothing nests transactions by accident.
type Store interface {
	Users() Users
	Memberships() Memberships
	LoginTokens() LoginTokens
	Sessions() Sessions

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise. Inside fn only use the repositories of tx.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It exposes the same repos plus Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// ActivateUserParams carries the user-side effect of one activation.
type ActivateUserParams struct {
	ID          string // used only when the user row does not exist yet
	Email       string
	CustomerRef string
	ExpiresAt   time.Time
	Now         time.Time
}

type Users interface {
	// GetUserByEmail returns the user for a normalized email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// EnsureUser inserts u (status inactive) unless a user with the same email
	// exists, and returns the stored row either way. Concurrent calls for one
	// email never produce two rows.
	EnsureUser(ctx context.Context, u domain.User) (domain.User, error)

	// ActivateUser upserts on email: status=active, expires_at=p.ExpiresAt and
	// customer_ref filled in only when previously empty. Last write wins on
	// expiry.
	ActivateUser(ctx context.Context, p ActivateUserParams) (domain.User, error)

	// ExpireIfLapsed flips active -> expired when expires_at <= now. Reports
	// whether a row changed.
	ExpireIfLapsed(ctx context.Context, email string, now time.Time) (bool, error)

	// SetStatus overwrites the status. ErrNotFound when no such user.
	SetStatus(ctx context.Context, email string, status domain.UserStatus, now time.Time) error

	// ListUsers pages through users, newest first.
	ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error)

	CountUsers(ctx context.Context) (int, error)
}

type Memberships interface {
	// CreateMembership inserts one activation record. ErrAlreadyExists when the
	// order id was recorded before; the existing row is left untouched.
	CreateMembership(ctx context.Context, m domain.Membership) error

	// GetMembershipByOrderID looks up the activation for an order.
	GetMembershipByOrderID(ctx context.Context, orderID string) (domain.Membership, error)

	// ListMembershipsByUser returns a user's activations, newest first.
	ListMembershipsByUser(ctx context.Context, userID string) ([]domain.Membership, error)
}

type LoginTokens interface {
	// CreateLoginToken stores a freshly issued token (hash only).
	CreateLoginToken(ctx context.Context, t domain.LoginToken) error

	// RedeemLoginToken atomically marks the token with this hash used when it
	// is unused and now < expires_at, returning its email. Any other case is
	// ErrNotFound. Of concurrent callers with the same hash at most one wins.
	RedeemLoginToken(ctx context.Context, hash string, now time.Time) (string, error)
}

type Sessions interface {
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSession returns a session by id, including expired ones; callers
	// check expiry against their own clock.
	GetSession(ctx context.Context, id string) (domain.Session, error)

	// DeleteSession removes a session. Deleting a missing session is not an error.
	DeleteSession(ctx context.Context, id string) error

	// DeleteExpiredSessions is housekeeping; returns rows removed.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}
