package sqlite

import (
	"context"

	"github.com/GabrielAlexander97/neverpayforads/internal/membership/domain"
	"github.com/GabrielAlexander97/neverpayforads/internal/membership/store"
)

const membershipColumns = `id, user_id, order_id, sku, active_from, active_to, created_at`

type membershipsRepo struct {
	db dbtx
}

func scanMembership(row rowScanner) (domain.Membership, error) {
	var (
		m                               domain.Membership
		activeFrom, activeTo, createdAt int64
	)
	if err := row.Scan(&m.ID, &m.UserID, &m.OrderID, &m.SKU, &activeFrom, &activeTo, &createdAt); err != nil {
		return domain.Membership{}, err
	}
	m.ActiveFrom = fromMillis(activeFrom)
	m.ActiveTo = fromMillis(activeTo)
	m.CreatedAt = fromMillis(createdAt)
	return m, nil
}

func (r *membershipsRepo) CreateMembership(ctx context.Context, m domain.Membership) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO memberships (id, user_id, order_id, sku, active_from, active_to, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (order_id) DO NOTHING`,
		m.ID, m.UserID, m.OrderID, m.SKU,
		toMillis(m.ActiveFrom), toMillis(m.ActiveTo), toMillis(m.CreatedAt),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrAlreadyExists
	}
	return nil
}

func (r *membershipsRepo) GetMembershipByOrderID(ctx context.Context, orderID string) (domain.Membership, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE order_id = ?`, orderID)
	m, err := scanMembership(row)
	if err != nil {
		return domain.Membership{}, mapNotFound(err)
	}
	return m, nil
}

func (r *membershipsRepo) ListMembershipsByUser(ctx context.Context, userID string) ([]domain.Membership, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
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
