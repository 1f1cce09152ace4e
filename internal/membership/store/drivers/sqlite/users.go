package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/GabrielAlexander97/neverpayforads/internal/membership/domain"
	"github.com/GabrielAlexander97/neverpayforads/internal/membership/store"
)

const userColumns = `id, email, customer_ref, status, expires_at, created_at, updated_at`

type usersRepo struct {
	db dbtx
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		u           domain.User
		customerRef sql.NullString
		status      string
		expiresAt   sql.NullInt64
		createdAt   int64
		updatedAt   int64
	)
	if err := row.Scan(&u.ID, &u.Email, &customerRef, &status, &expiresAt, &createdAt, &updatedAt); err != nil {
		return domain.User{}, err
	}
	u.CustomerRef = fromNullString(customerRef)
	u.Status = domain.UserStatus(status)
	u.ExpiresAt = fromNullMillis(expiresAt)
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return u, nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) EnsureUser(ctx context.Context, u domain.User) (domain.User, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, customer_ref, status, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, NULL, ?, ?)
		ON CONFLICT (email) DO NOTHING`,
		u.ID, u.Email, toNullString(u.CustomerRef), string(domain.UserStatusInactive),
		toMillis(u.CreatedAt), toMillis(u.CreatedAt),
	)
	if err != nil {
		return domain.User{}, err
	}
	return r.GetUserByEmail(ctx, u.Email)
}

func (r *usersRepo) ActivateUser(ctx context.Context, p store.ActivateUserParams) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO users (id, email, customer_ref, status, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, 'active', ?, ?, ?)
		ON CONFLICT (email) DO UPDATE SET
			status       = 'active',
			expires_at   = excluded.expires_at,
			customer_ref = COALESCE(NULLIF(users.customer_ref, ''), excluded.customer_ref),
			updated_at   = excluded.updated_at
		RETURNING `+userColumns,
		p.ID, p.Email, toNullString(p.CustomerRef),
		toMillis(p.ExpiresAt), toMillis(p.Now), toMillis(p.Now),
	)
	return scanUser(row)
}

func (r *usersRepo) ExpireIfLapsed(ctx context.Context, email string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET status = 'expired', updated_at = ?
		WHERE email = ? AND status = 'active' AND expires_at IS NOT NULL AND expires_at <= ?`,
		toMillis(now), email, toMillis(now),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *usersRepo) SetStatus(ctx context.Context, email string, status domain.UserStatus, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET status = ?, updated_at = ? WHERE email = ?`,
		string(status), toMillis(now), email,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
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
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
