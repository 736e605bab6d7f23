package notify

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/dexday077/kep-orders/internal/kafka"
	"github.com/dexday077/kep-orders/internal/orders"
)

// Notifier publishes notification requests for the dispatcher worker.
// Strictly best-effort: a nil producer or a broker problem is logged and
// ignored, it never influences the caller's outcome.
type Notifier struct {
	Producer *kafkax.Producer
	Service  string
}

func (n *Notifier) OrderPlaced(tenantID, sellerID, orderID string, total float64) {
	n.send(orders.NotifyPayload{
		TenantID:    tenantID,
		Audience:    "seller",
		RecipientID: sellerID,
		Kind:        "order_placed",
		OrderID:     orderID,
		Amount:      total,
		Message:     fmt.Sprintf("New order %s placed, total %.2f", orderID, total),
	})
}

func (n *Notifier) PaymentSucceeded(tenantID, customerID, orderID string, amount float64) {
	n.send(orders.NotifyPayload{
		TenantID:    tenantID,
		Audience:    "customer",
		RecipientID: customerID,
		Kind:        "payment_succeeded",
		OrderID:     orderID,
		Amount:      amount,
		Message:     fmt.Sprintf("Payment received, order %s is confirmed", orderID),
	})
}

func (n *Notifier) PaymentFailed(tenantID, customerID, orderID, reason string) {
	n.send(orders.NotifyPayload{
		TenantID:    tenantID,
		Audience:    "customer",
		RecipientID: customerID,
		Kind:        "payment_failed",
		OrderID:     orderID,
		Message:     fmt.Sprintf("Payment for order %s failed: %s", orderID, reason),
	})
}

func (n *Notifier) Chargeback(tenantID, orderID, provider string) {
	n.send(orders.NotifyPayload{
		TenantID: tenantID,
		Audience: "admin",
		Kind:     "chargeback",
		OrderID:  orderID,
		Message:  fmt.Sprintf("Chargeback opened via %s for order %s", provider, orderID),
	})
}

func (n *Notifier) send(p orders.NotifyPayload) {
	if n == nil || n.Producer == nil {
		log.Printf("notifier disabled, dropping %s for order %s", p.Kind, p.OrderID)
		return
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventNotifyRequested,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      n.Service,
		CorrelationID: p.OrderID,
		Payload:       kafkax.MustMarshal(p),
	}
	n.Producer.Publish(orders.PartitionKey(p.OrderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventNotifyRequested)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
