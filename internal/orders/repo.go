package orders

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

type CreateResult struct {
	OrderID string
	// Total recomputed from the products table, not the caller's numbers.
	TotalAmount float64
	Existed     bool
}

// CreateOrder runs the whole reservation workflow in one transaction:
// order insert, per-item conditional stock decrement, reservation rows and
// the pending -> stock_reserved transition. Any item failure rolls the
// entire thing back, so there is never an order row without its stock.
//
// Idempotent via external_id when the caller supplies one.
func (r *Repo) CreateOrder(ctx context.Context, req CreateOrderRequest) (CreateResult, error) {
	if req.ExternalID != "" {
		var existingID string
		var existingTotal float64
		err := r.DB.QueryRow(ctx,
			`SELECT id, total_amount FROM orders WHERE external_id=$1 AND tenant_id=$2`,
			req.ExternalID, req.TenantID).Scan(&existingID, &existingTotal)
		if err == nil {
			return CreateResult{OrderID: existingID, TotalAmount: existingTotal, Existed: true}, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return CreateResult{}, err
		}
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return CreateResult{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Authoritative titles and prices, scoped to the caller's tenant. A
	// product that exists only under another tenant is simply absent here.
	type productRow struct {
		title string
		price float64
		stock int
	}
	known := make(map[string]productRow, len(req.Items))
	ids := make([]string, 0, len(req.Items))
	for _, it := range req.Items {
		ids = append(ids, it.ProductID)
	}
	rows, err := tx.Query(ctx,
		`SELECT id, title, price, stock FROM products WHERE tenant_id=$1 AND id = ANY($2)`,
		req.TenantID, ids)
	if err != nil {
		return CreateResult{}, err
	}
	for rows.Next() {
		var id string
		var p productRow
		if err := rows.Scan(&id, &p.title, &p.price, &p.stock); err != nil {
			rows.Close()
			return CreateResult{}, err
		}
		known[id] = p
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return CreateResult{}, err
	}

	var total float64
	for _, it := range req.Items {
		p, ok := known[it.ProductID]
		if !ok {
			return CreateResult{}, &NotFoundError{ProductID: it.ProductID}
		}
		total += p.price * float64(it.Quantity)
	}

	orderID := uuid.NewString()
	_, err = tx.Exec(ctx, `
		INSERT INTO orders(id, external_id, tenant_id, customer_id, seller_id,
		                   status, total_amount, delivery_address, notes)
		VALUES ($1, NULLIF($2,''), $3, $4, $5, $6, $7, $8, $9)`,
		orderID, req.ExternalID, req.TenantID, req.CustomerID, req.SellerID,
		StatusPending, total, req.DeliveryAddress, req.Notes)
	if err != nil {
		return CreateResult{}, err
	}

	for _, it := range req.Items {
		p := known[it.ProductID]
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(order_id, product_id, quantity, price)
			VALUES ($1, $2, $3, $4)`,
			orderID, it.ProductID, it.Quantity, p.price); err != nil {
			return CreateResult{}, err
		}
	}

	// Decrement and reserve per product, not per line item: two lines for
	// the same product must carry their combined quantity into the single
	// reservation row, or a later release restores too little stock.
	need, pids := combinedQuantities(req.Items)
	for _, pid := range pids {
		qty := need[pid]

		// Check and decrement in one statement. Zero rows affected means
		// insufficient stock; re-read only to build the error message.
		ct, err := tx.Exec(ctx, `
			UPDATE products SET stock = stock - $3, updated_at = now()
			WHERE id=$1 AND tenant_id=$2 AND stock >= $3`,
			pid, req.TenantID, qty)
		if err != nil {
			return CreateResult{}, err
		}
		if ct.RowsAffected() == 0 {
			var available int
			if err := tx.QueryRow(ctx,
				`SELECT stock FROM products WHERE id=$1 AND tenant_id=$2`,
				pid, req.TenantID).Scan(&available); err != nil {
				return CreateResult{}, err
			}
			return CreateResult{}, &InsufficientStockError{
				ProductID: pid,
				Title:     known[pid].title,
				Available: available,
				Requested: qty,
			}
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO reservations(order_id, product_id, qty, status)
			VALUES ($1, $2, $3, 'RESERVED')`,
			orderID, pid, qty); err != nil {
			return CreateResult{}, err
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE orders SET status=$2, updated_at=now() WHERE id=$1`,
		orderID, StatusStockReserved); err != nil {
		return CreateResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return CreateResult{}, err
	}
	return CreateResult{OrderID: orderID, TotalAmount: total}, nil
}

// combinedQuantities merges duplicate product ids into one quantity each.
// Ids come back sorted so concurrent orders lock product rows in the same
// order.
func combinedQuantities(items []ItemInput) (map[string]int, []string) {
	need := make(map[string]int, len(items))
	for _, it := range items {
		need[it.ProductID] += it.Quantity
	}
	ids := make([]string, 0, len(need))
	for id := range need {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return need, ids
}

func (r *Repo) GetOrderStatus(ctx context.Context, tenantID, orderID string) (Status, error) {
	var s string
	err := r.DB.QueryRow(ctx,
		`SELECT status FROM orders WHERE id=$1 AND tenant_id=$2`,
		orderID, tenantID).Scan(&s)
	if err != nil {
		return "", err
	}
	return Status(s), nil
}

// TransitionStatus applies a state-machine-checked status change. The row
// is locked so two webhook deliveries cannot race each other through an
// illegal pair of transitions.
func (r *Repo) TransitionStatus(ctx context.Context, tenantID, orderID string, to Status) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var cur string
	if err := tx.QueryRow(ctx,
		`SELECT status FROM orders WHERE id=$1 AND tenant_id=$2 FOR UPDATE`,
		orderID, tenantID).Scan(&cur); err != nil {
		return err
	}
	from := Status(cur)
	if from == to {
		return nil // already there, treat as idempotent replay
	}
	if !CanTransition(from, to) {
		return &TransitionError{OrderID: orderID, From: from, To: to}
	}
	if _, err := tx.Exec(ctx,
		`UPDATE orders SET status=$3, updated_at=now() WHERE id=$1 AND tenant_id=$2`,
		orderID, tenantID, to); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repo) ListProducts(ctx context.Context, tenantID string) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, tenant_id, seller_id, title, stock, price, created_at, updated_at
		FROM products WHERE tenant_id=$1 ORDER BY title`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.TenantID, &p.SellerID, &p.Title,
			&p.Stock, &p.Price, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
