package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GabrielAlexander97/neverpayforads/internal/membership/domain"
	"github.com/GabrielAlexander97/neverpayforads/internal/membership/store"
	"github.com/GabrielAlexander97/neverpayforads/pkg/idx"
	"github.com/GabrielAlexander97/neverpayforads/pkg/slogx"
)

const (
	DefaultPageSize = 25
	MaxPageSize     = 100
)

type UserWithMemberships struct {
	User        domain.User
	Memberships []domain.Membership
}

type UserPage struct {
	Users []UserWithMemberships
	Page  int
	Limit int
	Total int
	Pages int
}

// AdminService backs the operator endpoints used to reconcile memberships by
// hand, e.g. after an activation failed post-verification.
type AdminService struct {
	Store  store.Store
	Tokens *TokenService
	Now    func() time.Time
}

// ListUsers returns one page of users, newest first, with their memberships.
// page starts at 1; limit defaults to 25 and is capped at 100.
func (s *AdminService) ListUsers(ctx context.Context, page, limit int) (UserPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	total, err := s.Store.Users().CountUsers(ctx)
	if err != nil {
		return UserPage{}, fmt.Errorf("%w: count users: %v", ErrStoreFailure, err)
	}

	users, err := s.Store.Users().ListUsers(ctx, limit, (page-1)*limit)
	if err != nil {
		return UserPage{}, fmt.Errorf("%w: list users: %v", ErrStoreFailure, err)
	}

	out := UserPage{
		Users: make([]UserWithMemberships, 0, len(users)),
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: (total + limit - 1) / limit,
	}
	for _, u := range users {
		ms, err := s.Store.Memberships().ListMembershipsByUser(ctx, u.ID)
		if err != nil {
			return UserPage{}, fmt.Errorf("%w: list memberships: %v", ErrStoreFailure, err)
		}
		out.Users = append(out.Users, UserWithMemberships{User: u, Memberships: ms})
	}
	return out, nil
}

// Extend sets an existing user active until now + 30 days. Like activation,
// the window restarts rather than stacking.
func (s *AdminService) Extend(ctx context.Context, email string) (domain.User, error) {
	email = domain.NormalizeEmail(email)
	now := nowOr(s.Now)

	var user domain.User
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Users().GetUserByEmail(ctx, email); err != nil {
			return err
		}
		u, err := tx.Users().ActivateUser(ctx, store.ActivateUserParams{
			ID:        idx.NewAt(now).String(),
			Email:     email,
			ExpiresAt: now.Add(domain.MembershipDuration),
			Now:       now,
		})
		user = u
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: extend: %v", ErrStoreFailure, err)
	}

	slogx.FromContext(ctx).Info("membership extended by admin", slogx.Email("email", email))
	return user, nil
}

// Deactivate sets the user inactive. Expiry is left as is for the record.
func (s *AdminService) Deactivate(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)

	err := s.Store.Users().SetStatus(ctx, email, domain.UserStatusInactive, nowOr(s.Now))
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: deactivate: %v", ErrStoreFailure, err)
	}

	slogx.FromContext(ctx).Info("user deactivated by admin", slogx.Email("email", email))
	return nil
}

// ResendMagicLink sends a fresh login link to an existing user.
func (s *AdminService) ResendMagicLink(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)

	if _, err := s.Store.Users().GetUserByEmail(ctx, email); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("%w: get user: %v", ErrStoreFailure, err)
	}
	return s.Tokens.Send(ctx, email)
}
