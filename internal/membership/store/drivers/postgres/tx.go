package postgres

import (
	"context"
	"errors"

	"github.com/GabrielAlexander97/neverpayforads/internal/membership/store"

	"github.com/jackc/pgx/v5"
)

// ErrNestedTx is returned when a transaction is started from inside another.
var ErrNestedTx = errors.New("postgres: nested transactions are not supported")

type txStore struct {
	tx  pgx.Tx
	ctx context.Context
}

func (t *txStore) Commit() error { return t.tx.Commit(t.ctx) }

// Rollback uses a fresh context so a cancelled request still releases the
// connection.
func (t *txStore) Rollback() error {
	err := t.tx.Rollback(context.WithoutCancel(t.ctx))
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

func (t *txStore) Close() error                   { return nil }
func (t *txStore) Ping(ctx context.Context) error { return nil }

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	return nil, ErrNestedTx
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return ErrNestedTx
}

func (t *txStore) Users() store.Users             { return &usersRepo{db: t.tx} }
func (t *txStore) Memberships() store.Memberships { return &membershipsRepo{db: t.tx} }
func (t *txStore) LoginTokens() store.LoginTokens { return &loginTokensRepo{db: t.tx} }
func (t *txStore) Sessions() store.Sessions       { return &sessionsRepo{db: t.tx} }

func (t *txStore) ApplyMigrations() error { return nil }
