package sqlite

import (
	"context"
	"time"

	"github.com/GabrielAlexander97/neverpayforads/internal/membership/domain"
)

type sessionsRepo struct {
	db dbtx
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, email, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		s.ID, s.Email, toMillis(s.ExpiresAt), toMillis(s.CreatedAt),
	)
	return err
}

func (r *sessionsRepo) GetSession(ctx context.Context, id string) (domain.Session, error) {
	var (
		s                    domain.Session
		expiresAt, createdAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, expires_at, created_at FROM sessions WHERE id = ?`, id,
	).Scan(&s.ID, &s.Email, &expiresAt, &createdAt)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	s.ExpiresAt = fromMillis(expiresAt)
	s.CreatedAt = fromMillis(createdAt)
	return s, nil
}

func (r *sessionsRepo) DeleteSession(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, toMillis(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
