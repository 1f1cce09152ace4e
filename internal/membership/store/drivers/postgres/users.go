package postgres

import (
	"context"
	"time"

	"github.com/GabrielAlexander97/neverpayforads/internal/membership/domain"
	"github.com/GabrielAlexander97/neverpayforads/internal/membership/store"

	"github.com/jackc/pgx/v5"
)

const userColumns = `id, email, customer_ref, status, expires_at, created_at, updated_at`

type usersRepo struct {
	db dbtx
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		u           domain.User
		customerRef *string
		status      string
	)
	if err := row.Scan(&u.ID, &u.Email, &customerRef, &status, &u.ExpiresAt, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return domain.User{}, err
	}
	u.CustomerRef = fromNullString(customerRef)
	u.Status = domain.UserStatus(status)
	u.ExpiresAt = utcPtr(u.ExpiresAt)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) EnsureUser(ctx context.Context, u domain.User) (domain.User, error) {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, email, customer_ref, status, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, 'inactive', NULL, $4, $4)
		ON CONFLICT (email) DO NOTHING`,
		u.ID, u.Email, toNullString(u.CustomerRef), u.CreatedAt.UTC(),
	)
	if err != nil {
		return domain.User{}, err
	}
	return r.GetUserByEmail(ctx, u.Email)
}

func (r *usersRepo) ActivateUser(ctx context.Context, p store.ActivateUserParams) (domain.User, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (id, email, customer_ref, status, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, 'active', $4, $5, $5)
		ON CONFLICT (email) DO UPDATE SET
			status       = 'active',
			expires_at   = EXCLUDED.expires_at,
			customer_ref = COALESCE(NULLIF(users.customer_ref, ''), EXCLUDED.customer_ref),
			updated_at   = EXCLUDED.updated_at
		RETURNING `+userColumns,
		p.ID, p.Email, toNullString(p.CustomerRef), p.ExpiresAt.UTC(), p.Now.UTC(),
	)
	return scanUser(row)
}

func (r *usersRepo) ExpireIfLapsed(ctx context.Context, email string, now time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET status = 'expired', updated_at = $2
		WHERE email = $1 AND status = 'active' AND expires_at IS NOT NULL AND expires_at <= $2`,
		email, now.UTC(),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *usersRepo) SetStatus(ctx context.Context, email string, status domain.UserStatus, now time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET status = $2, updated_at = $3 WHERE email = $1`,
		email, string(status), now.UTC(),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *usersRepo) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
