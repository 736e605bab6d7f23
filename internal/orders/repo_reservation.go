package orders

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReservationRepo struct{ DB *pgxpool.Pool }

// ReleaseAll restores the reserved stock for an order and flips its
// reservations to RELEASED, all in one transaction. Safe to call twice:
// the second run finds no RESERVED rows and restores nothing.
func (r *ReservationRepo) ReleaseAll(ctx context.Context, tenantID, orderID string) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx,
		`SELECT product_id, qty FROM reservations
		 WHERE order_id=$1 AND status='RESERVED' FOR UPDATE`, orderID)
	if err != nil {
		return err
	}
	type rec struct {
		pid string
		qty int
	}
	var recs []rec
	for rows.Next() {
		var x rec
		if err := rows.Scan(&x.pid, &x.qty); err != nil {
			rows.Close()
			return err
		}
		recs = append(recs, x)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, x := range recs {
		if _, err := tx.Exec(ctx,
			`UPDATE products SET stock = stock + $3, updated_at = now()
			 WHERE id=$1 AND tenant_id=$2`, x.pid, tenantID, x.qty); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(ctx,
		`UPDATE reservations SET status='RELEASED'
		 WHERE order_id=$1 AND status='RESERVED'`, orderID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
