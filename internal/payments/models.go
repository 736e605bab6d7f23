package payments

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

type Payment struct {
	ID         string
	OrderID    string
	TenantID   string
	CustomerID string
	// Provider and ProviderPaymentID are empty until checkout initializes
	// the provider-side intent; inbound webhooks correlate on the pair.
	Provider          string
	ProviderPaymentID string
	Amount            float64
	Currency          string
	Status            Status
	FailureReason     string
	MethodBrand       string
	MethodLast4       string
	PaidAt            *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type MethodDetails struct {
	Brand string
	Last4 string
}
