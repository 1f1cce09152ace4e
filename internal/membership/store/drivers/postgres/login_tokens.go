package postgres

import (
	"context"
	"time"

	"github.com/GabrielAlexander97/neverpayforads/internal/membership/domain"
)

type loginTokensRepo struct {
	db dbtx
}

func (r *loginTokensRepo) CreateLoginToken(ctx context.Context, t domain.LoginToken) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO login_tokens (id, email, token_hash, expires_at, used, used_at, created_at)
		VALUES ($1, $2, $3, $4, FALSE, NULL, $5)`,
		t.ID, t.Email, t.TokenHash, t.ExpiresAt.UTC(), t.CreatedAt.UTC(),
	)
	return err
}

// RedeemLoginToken relies on the row lock taken by UPDATE: a concurrent
// redeemer blocks, then re-evaluates the predicate against the committed row
// and matches nothing.
func (r *loginTokensRepo) RedeemLoginToken(ctx context.Context, hash string, now time.Time) (string, error) {
	var email string
	err := r.db.QueryRow(ctx, `
		UPDATE login_tokens SET used = TRUE, used_at = $2
		WHERE token_hash = $1 AND NOT used AND expires_at > $2
		RETURNING email`,
		hash, now.UTC(),
	).Scan(&email)
	if err != nil {
		return "", mapNotFound(err)
	}
	return email, nil
}
