// Package redis stores login sessions in Redis with key expiry matching the
// session lifetime. It implements only store.Sessions; every other entity
// stays in the SQL store.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/GabrielAlexander97/neverpayforads/internal/membership/domain"
	"github.com/GabrielAlexander97/neverpayforads/internal/membership/store"

	goredis "github.com/redis/go-redis/v9"
)

const defaultPrefix = "npfa:session:"

var ErrSessionExpired = errors.New("redis: session already expired")

type sessionRecord struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Options configures the connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type SessionStore struct {
	client *goredis.Client
	prefix string

	// Now is the clock used to derive key TTLs.
	Now func() time.Time
}

var _ store.Sessions = (*SessionStore)(nil)

// Connect dials Redis and checks it answers before returning.
func Connect(ctx context.Context, opts Options) (*SessionStore, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewSessionStore(client, opts.Prefix), nil
}

// NewSessionStore wraps an existing client. An empty prefix uses the default.
func NewSessionStore(client *goredis.Client, prefix string) *SessionStore {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &SessionStore{client: client, prefix: prefix, Now: time.Now}
}

func (s *SessionStore) key(id string) string {
	return s.prefix + id
}

func (s *SessionStore) CreateSession(ctx context.Context, sess domain.Session) error {
	ttl := sess.ExpiresAt.Sub(s.Now())
	if ttl <= 0 {
		return ErrSessionExpired
	}

	data, err := json.Marshal(sessionRecord{
		ID:        sess.ID,
		Email:     sess.Email,
		ExpiresAt: sess.ExpiresAt.UTC(),
		CreatedAt: sess.CreatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("redis: marshal session: %w", err)
	}

	return s.client.Set(ctx, s.key(sess.ID), data, ttl).Err()
}

func (s *SessionStore) GetSession(ctx context.Context, id string) (domain.Session, error) {
	val, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return domain.Session{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Session{}, err
	}

	var rec sessionRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return domain.Session{}, fmt.Errorf("redis: unmarshal session: %w", err)
	}

	return domain.Session{
		ID:        rec.ID,
		Email:     rec.Email,
		ExpiresAt: rec.ExpiresAt,
		CreatedAt: rec.CreatedAt,
	}, nil
}

func (s *SessionStore) DeleteSession(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

// DeleteExpiredSessions is a no-op: Redis evicts keys when their TTL runs out.
func (s *SessionStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

// Ping reports whether Redis is reachable.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *SessionStore) Close() error {
	return s.client.Close()
}
