package sqlite

import (
	"context"
	"time"

	"github.com/GabrielAlexander97/neverpayforads/internal/membership/domain"
)

type loginTokensRepo struct {
	db dbtx
}

func (r *loginTokensRepo) CreateLoginToken(ctx context.Context, t domain.LoginToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO login_tokens (id, email, token_hash, expires_at, used, used_at, created_at)
		VALUES (?, ?, ?, ?, 0, NULL, ?)`,
		t.ID, t.Email, t.TokenHash, toMillis(t.ExpiresAt), toMillis(t.CreatedAt),
	)
	return err
}

// RedeemLoginToken is a single conditional UPDATE so that the check and the
// flip of the used flag cannot interleave with another redeemer.
func (r *loginTokensRepo) RedeemLoginToken(ctx context.Context, hash string, now time.Time) (string, error) {
	var email string
	err := r.db.QueryRowContext(ctx, `
		UPDATE login_tokens SET used = 1, used_at = ?
		WHERE token_hash = ? AND used = 0 AND expires_at > ?
		RETURNING email`,
		toMillis(now), hash, toMillis(now),
	).Scan(&email)
	if err != nil {
		return "", mapNotFound(err)
	}
	return email, nil
}
