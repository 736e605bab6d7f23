package webhooks

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DeadLetterRepo keeps provider events we could not correlate to a local
// payment, plus chargeback notices. Losing these silently would hide
// reconciliation bugs, so they are durable and operator-visible.
type DeadLetterRepo struct{ DB *pgxpool.Pool }

func (r *DeadLetterRepo) Record(ctx context.Context, provider, eventID, eventType, providerPaymentID, reason string, body []byte) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO webhook_dead_letters(id, provider, event_id, event_type,
		                                 provider_payment_id, reason, body)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.NewString(), provider, eventID, eventType, providerPaymentID, reason, body)
	return err
}

func (r *DeadLetterRepo) RecordChargeback(ctx context.Context, provider, eventID, providerPaymentID, orderID string, body []byte) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO chargebacks(id, provider, event_id, provider_payment_id, order_id, body)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.NewString(), provider, eventID, providerPaymentID, orderID, body)
	return err
}
