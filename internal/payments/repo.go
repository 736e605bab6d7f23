package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("payment not found")

type Repo struct{ DB *pgxpool.Pool }

// Create inserts a pending payment for a freshly placed order. Deliberately
// outside the order transaction: the order survives even if this insert
// fails, and checkout retries the payment step.
func (r *Repo) Create(ctx context.Context, orderID, tenantID, customerID string, amount float64, currency string) (string, error) {
	id := uuid.NewString()
	_, err := r.DB.Exec(ctx, `
		INSERT INTO payments(id, order_id, tenant_id, customer_id, amount, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, orderID, tenantID, customerID, amount, currency, StatusPending)
	if err != nil {
		return "", fmt.Errorf("insert payment: %w", err)
	}
	return id, nil
}

// AttachProviderRef records which provider intent belongs to this payment,
// called when checkout initializes the provider session.
func (r *Repo) AttachProviderRef(ctx context.Context, tenantID, paymentID, provider, providerPaymentID string) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE payments SET provider=$3, provider_payment_id=$4, updated_at=now()
		WHERE id=$1 AND tenant_id=$2`,
		paymentID, tenantID, provider, providerPaymentID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByProviderRef is the webhook correlation lookup: exact match on the
// provider's payment id plus the provider name.
func (r *Repo) FindByProviderRef(ctx context.Context, provider, providerPaymentID string) (Payment, error) {
	var p Payment
	err := r.DB.QueryRow(ctx, `
		SELECT id, order_id, tenant_id, customer_id,
		       COALESCE(provider,''), COALESCE(provider_payment_id,''),
		       amount, currency, status, COALESCE(failure_reason,''),
		       COALESCE(method_brand,''), COALESCE(method_last4,''),
		       paid_at, created_at, updated_at
		FROM payments WHERE provider=$1 AND provider_payment_id=$2`,
		provider, providerPaymentID).Scan(
		&p.ID, &p.OrderID, &p.TenantID, &p.CustomerID,
		&p.Provider, &p.ProviderPaymentID,
		&p.Amount, &p.Currency, &p.Status, &p.FailureReason,
		&p.MethodBrand, &p.MethodLast4,
		&p.PaidAt, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Payment{}, ErrNotFound
	}
	if err != nil {
		return Payment{}, err
	}
	return p, nil
}

// MarkSucceeded transitions pending -> succeeded. A replayed webhook for an
// already-succeeded payment is a no-op; any other terminal state is an error.
func (r *Repo) MarkSucceeded(ctx context.Context, paymentID string, method MethodDetails) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE payments SET status=$2, method_brand=$3, method_last4=$4,
		       paid_at=now(), updated_at=now()
		WHERE id=$1 AND status=$5`,
		paymentID, StatusSucceeded, method.Brand, method.Last4, StatusPending)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return r.requireStatus(ctx, paymentID, StatusSucceeded)
	}
	return nil
}

// MarkFailed transitions pending -> failed with the provider's reason.
func (r *Repo) MarkFailed(ctx context.Context, paymentID, reason string) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE payments SET status=$2, failure_reason=$3, updated_at=now()
		WHERE id=$1 AND status=$4`,
		paymentID, StatusFailed, reason, StatusPending)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return r.requireStatus(ctx, paymentID, StatusFailed)
	}
	return nil
}

func (r *Repo) requireStatus(ctx context.Context, paymentID string, want Status) error {
	var got Status
	if err := r.DB.QueryRow(ctx,
		`SELECT status FROM payments WHERE id=$1`, paymentID).Scan(&got); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if got == want {
		return nil // replayed event, nothing to do
	}
	return fmt.Errorf("payment %s: cannot move %s payment to %s", paymentID, got, want)
}
