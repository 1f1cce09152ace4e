package postgres

import (
	"context"
	"time"

	"github.com/GabrielAlexander97/neverpayforads/internal/membership/domain"
)

type sessionsRepo struct {
	db dbtx
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO sessions (id, email, expires_at, created_at) VALUES ($1, $2, $3, $4)`,
		s.ID, s.Email, s.ExpiresAt.UTC(), s.CreatedAt.UTC(),
	)
	return err
}

func (r *sessionsRepo) GetSession(ctx context.Context, id string) (domain.Session, error) {
	var s domain.Session
	err := r.db.QueryRow(ctx,
		`SELECT id, email, expires_at, created_at FROM sessions WHERE id = $1`, id,
	).Scan(&s.ID, &s.Email, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	s.ExpiresAt = s.ExpiresAt.UTC()
	s.CreatedAt = s.CreatedAt.UTC()
	return s, nil
}

func (r *sessionsRepo) DeleteSession(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
