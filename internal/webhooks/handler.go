package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/dexday077/kep-orders/internal/kafka"
	"github.com/dexday077/kep-orders/internal/orders"
	"github.com/dexday077/kep-orders/internal/payments"
	"github.com/dexday077/kep-orders/internal/redisx"
)

const maxBodyBytes = 1 << 20

type PaymentStore interface {
	FindByProviderRef(ctx context.Context, provider, providerPaymentID string) (payments.Payment, error)
	MarkSucceeded(ctx context.Context, paymentID string, method payments.MethodDetails) error
	MarkFailed(ctx context.Context, paymentID, reason string) error
}

type OrderStore interface {
	TransitionStatus(ctx context.Context, tenantID, orderID string, to orders.Status) error
}

type ReservationStore interface {
	ReleaseAll(ctx context.Context, tenantID, orderID string) error
}

type DeadLetterStore interface {
	Record(ctx context.Context, provider, eventID, eventType, providerPaymentID, reason string, body []byte) error
	RecordChargeback(ctx context.Context, provider, eventID, providerPaymentID, orderID string, body []byte) error
}

type Notifier interface {
	PaymentSucceeded(tenantID, customerID, orderID string, amount float64)
	PaymentFailed(tenantID, customerID, orderID, reason string)
	Chargeback(tenantID, orderID, provider string)
}

type Handler struct {
	Payments     PaymentStore
	Orders       OrderStore
	Reservations ReservationStore
	DeadLetters  DeadLetterStore
	Notify       Notifier
	Events       *kafkax.Producer // order lifecycle events, nil disables publishing
	Service      string
	Redis        *redis.Client
	Secrets      map[string]string
}

func (h *Handler) Register(r *chi.Mux) {
	r.Post("/webhooks/payment/{provider}", h.handleEvent)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) handleEvent(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	if !KnownProvider(provider) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown payment provider"})
		return
	}

	sig := r.Header.Get(SignatureHeader(provider))
	if sig == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing signature header"})
		return
	}

	// An unset secret must not become an empty HMAC key anyone can sign
	// against.
	secret := h.Secrets[provider]
	if secret == "" {
		log.Printf("webhook: no signing secret configured for %s, rejecting delivery", provider)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid signature"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable body"})
		return
	}

	if err := VerifySignature(provider, secret, sig, body); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid signature"})
		return
	}

	ev, err := ParseEvent(provider, body)
	if errors.Is(err, ErrIgnoredEvent) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "event ignored"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid event payload"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if h.seen(ctx, provider, ev.ID) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "duplicate event"})
		return
	}
	// The seen key is written only after the event is fully handled;
	// a 5xx must leave the provider free to redeliver.

	pay, err := h.Payments.FindByProviderRef(ctx, provider, ev.ProviderPaymentID)
	if errors.Is(err, payments.ErrNotFound) {
		// Not silently dropped: record it so operators can see correlation
		// failures, but still 2xx so the provider stops redelivering.
		if dlErr := h.DeadLetters.Record(ctx, provider, ev.ID, ev.Type, ev.ProviderPaymentID, "no matching payment", body); dlErr != nil {
			log.Printf("webhook dead-letter: %v", dlErr)
		}
		h.markSeen(ctx, provider, ev.ID)
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "event not matched"})
		return
	}
	if err != nil {
		log.Printf("webhook payment lookup: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	switch ev.Type {
	case EventSucceeded:
		if err := h.Payments.MarkSucceeded(ctx, pay.ID, ev.Method); err != nil {
			log.Printf("webhook mark succeeded: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
		h.transition(ctx, pay, orders.StatusConfirmed, "")
		h.Notify.PaymentSucceeded(pay.TenantID, pay.CustomerID, pay.OrderID, pay.Amount)
		h.markSeen(ctx, provider, ev.ID)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "payment confirmed"})

	case EventFailed:
		if err := h.Payments.MarkFailed(ctx, pay.ID, ev.Reason); err != nil {
			log.Printf("webhook mark failed: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
		h.transition(ctx, pay, orders.StatusCancelled, ev.Reason)
		// Compensation: give the reserved stock back. A failure here leaves
		// an inconsistency that is logged, never surfaced to the provider.
		if err := h.Reservations.ReleaseAll(ctx, pay.TenantID, pay.OrderID); err != nil {
			log.Printf("webhook release reservations order=%s: %v", pay.OrderID, err)
		}
		h.Notify.PaymentFailed(pay.TenantID, pay.CustomerID, pay.OrderID, ev.Reason)
		h.markSeen(ctx, provider, ev.ID)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "payment failed, order cancelled"})

	case EventChargeback:
		// Informational only: no payment or order mutation, but durable.
		log.Printf("chargeback received provider=%s payment=%s order=%s", provider, pay.ID, pay.OrderID)
		if err := h.DeadLetters.RecordChargeback(ctx, provider, ev.ID, ev.ProviderPaymentID, pay.OrderID, body); err != nil {
			log.Printf("webhook record chargeback: %v", err)
		}
		h.Notify.Chargeback(pay.TenantID, pay.OrderID, provider)
		h.markSeen(ctx, provider, ev.ID)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "chargeback recorded"})
	}
}

// transition applies the order status change and refreshes the status
// cache. An illegal transition (e.g. replay against a completed order) is
// logged, not fatal: the payment row is already authoritative.
func (h *Handler) transition(ctx context.Context, pay payments.Payment, to orders.Status, reason string) {
	if err := h.Orders.TransitionStatus(ctx, pay.TenantID, pay.OrderID, to); err != nil {
		var te *orders.TransitionError
		if errors.As(err, &te) {
			log.Printf("webhook: %v", te)
			return
		}
		log.Printf("webhook order transition order=%s: %v", pay.OrderID, err)
		return
	}
	if h.Redis != nil {
		key := fmt.Sprintf(redisx.KeyOrderStatus, pay.TenantID, pay.OrderID)
		_ = h.Redis.Set(ctx, key, fmt.Sprintf(`{"status":%q}`, to), redisx.TTLStatusCache).Err()
	}
	h.publishStatus(pay, to, reason)
}

func (h *Handler) publishStatus(pay payments.Payment, to orders.Status, reason string) {
	if h.Events == nil {
		return
	}
	eventType := orders.EventOrderConfirmed
	if to == orders.StatusCancelled {
		eventType = orders.EventOrderCancelled
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		CorrelationID: pay.OrderID,
		Payload: kafkax.MustMarshal(orders.OrderStatusPayload{
			OrderID:  pay.OrderID,
			TenantID: pay.TenantID,
			Status:   to,
			Reason:   reason,
		}),
	}
	h.Events.Publish(orders.PartitionKey(pay.OrderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *Handler) seen(ctx context.Context, provider, eventID string) bool {
	if h.Redis == nil || eventID == "" {
		return false
	}
	key := fmt.Sprintf(redisx.KeyWebhookSeen, provider, eventID)
	ok, _ := redisx.Exists(ctx, h.Redis, key)
	return ok
}

func (h *Handler) markSeen(ctx context.Context, provider, eventID string) {
	if h.Redis == nil || eventID == "" {
		return
	}
	key := fmt.Sprintf(redisx.KeyWebhookSeen, provider, eventID)
	_ = h.Redis.Set(ctx, key, "1", redisx.TTLWebhookSeen).Err()
}
