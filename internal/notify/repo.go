package notify

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dexday077/kep-orders/internal/orders"
)

// LogRepo is the durable notification ledger written by the dispatcher.
// Unique on event_id, so redeliveries that slip past the Redis dedup still
// insert only one row.
type LogRepo struct{ DB *pgxpool.Pool }

func (r *LogRepo) Record(ctx context.Context, eventID string, p orders.NotifyPayload) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO notifications(id, event_id, tenant_id, audience, recipient_id,
		                          kind, order_id, amount, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (event_id) DO NOTHING`,
		uuid.NewString(), eventID, p.TenantID, p.Audience, p.RecipientID,
		p.Kind, p.OrderID, p.Amount, p.Message)
	return err
}
