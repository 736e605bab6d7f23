package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderPlaced     = "OrderPlaced"
	EventOrderConfirmed  = "OrderConfirmed"
	EventOrderCancelled  = "OrderCancelled"
	EventNotifyRequested = "NotificationRequested"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // usually order_id
	Payload       json.RawMessage `json:"payload"`
}

type ItemQty struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type OrderPlacedPayload struct {
	OrderID     string    `json:"order_id"`
	TenantID    string    `json:"tenant_id"`
	CustomerID  string    `json:"customer_id"`
	SellerID    string    `json:"seller_id"`
	Items       []ItemQty `json:"items"`
	TotalAmount float64   `json:"total_amount"`
}

type OrderStatusPayload struct {
	OrderID  string `json:"order_id"`
	TenantID string `json:"tenant_id"`
	Status   Status `json:"status"`
	Reason   string `json:"reason,omitempty"`
}

// NotifyPayload is what the dispatcher worker delivers: a templated message
// aimed at a seller, customer or the tenant admins.
type NotifyPayload struct {
	TenantID    string  `json:"tenant_id"`
	Audience    string  `json:"audience"` // seller | customer | admin
	RecipientID string  `json:"recipient_id,omitempty"`
	Kind        string  `json:"kind"` // order_placed | payment_succeeded | payment_failed | chargeback
	OrderID     string  `json:"order_id"`
	Amount      float64 `json:"amount,omitempty"`
	Message     string  `json:"message"`
}
