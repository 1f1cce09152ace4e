package postgres

import (
	"context"

	"github.com/GabrielAlexander97/neverpayforads/internal/membership/domain"
	"github.com/GabrielAlexander97/neverpayforads/internal/membership/store"

	"github.com/jackc/pgx/v5"
)

const membershipColumns = `id, user_id, order_id, sku, active_from, active_to, created_at`

type membershipsRepo struct {
	db dbtx
}

func scanMembership(row pgx.Row) (domain.Membership, error) {
	var m domain.Membership
	if err := row.Scan(&m.ID, &m.UserID, &m.OrderID, &m.SKU, &m.ActiveFrom, &m.ActiveTo, &m.CreatedAt); err != nil {
		return domain.Membership{}, err
	}
	m.ActiveFrom = m.ActiveFrom.UTC()
	m.ActiveTo = m.ActiveTo.UTC()
	m.CreatedAt = m.CreatedAt.UTC()
	return m, nil
}

func (r *membershipsRepo) CreateMembership(ctx context.Context, m domain.Membership) error {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO memberships (id, user_id, order_id, sku, active_from, active_to, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (order_id) DO NOTHING`,
		m.ID, m.UserID, m.OrderID, m.SKU, m.ActiveFrom.UTC(), m.ActiveTo.UTC(), m.CreatedAt.UTC(),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrAlreadyExists
	}
	return nil
}

func (r *membershipsRepo) GetMembershipByOrderID(ctx context.Context, orderID string) (domain.Membership, error) {
	m, err := scanMembership(r.db.QueryRow(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE order_id = $1`, orderID))
	if err != nil {
		return domain.Membership{}, mapNotFound(err)
	}
	return m, nil
}

func (r *membershipsRepo) ListMembershipsByUser(ctx context.Context, userID string) ([]domain.Membership, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE user_id = $1 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
