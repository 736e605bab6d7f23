package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/dexday077/kep-orders/internal/kafka"
	"github.com/dexday077/kep-orders/internal/notify"
	"github.com/dexday077/kep-orders/internal/orders"
	"github.com/dexday077/kep-orders/internal/redisx"
)

type OrderStore interface {
	CreateOrder(ctx context.Context, req orders.CreateOrderRequest) (orders.CreateResult, error)
	GetOrderStatus(ctx context.Context, tenantID, orderID string) (orders.Status, error)
	ListProducts(ctx context.Context, tenantID string) ([]orders.Product, error)
}

type PaymentCreator interface {
	Create(ctx context.Context, orderID, tenantID, customerID string, amount float64, currency string) (string, error)
}

type OrdersHandler struct {
	Store    OrderStore
	Payments PaymentCreator
	Producer *kafkax.Producer // order.placed events
	Notify   *notify.Notifier
	Redis    *redis.Client
	Service  string
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.createOrder)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/products", h.listProducts)
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mt != "application/json" {
		writeJSON(w, http.StatusUnsupportedMediaType,
			map[string]string{"error": "Content-Type must be application/json"})
		return
	}

	var req orders.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "Invalid request", "details": []string{"body must be a JSON object"},
		})
		return
	}
	if details := req.Validate(); len(details) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "Invalid request", "details": details,
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// Idempotency fast path: a replayed external_id is answered from Redis
	// without touching the database. The unique index on (external_id,
	// tenant_id) still backstops a cache miss.
	if req.ExternalID != "" && h.Redis != nil {
		idemKey := fmt.Sprintf(redisx.KeyIdemOrderCreate, req.TenantID, req.ExternalID)
		if id, err := h.Redis.Get(ctx, idemKey).Result(); err == nil && id != "" {
			writeJSON(w, http.StatusCreated, map[string]any{
				"success":  true,
				"order_id": id,
				"message":  "Order created successfully",
			})
			return
		}
	}

	res, err := h.Store.CreateOrder(ctx, req)
	if err != nil {
		var nf *orders.NotFoundError
		var is *orders.InsufficientStockError
		switch {
		case errors.As(err, &nf), errors.As(err, &is):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			log.Printf("create order: %v", err)
			writeJSON(w, http.StatusInternalServerError,
				map[string]string{"error": "failed to create order"})
		}
		return
	}

	// Totals are authoritative from the products table; a diverging
	// client-side total is worth knowing about but not worth rejecting.
	if req.TotalAmount != nil && math.Abs(*req.TotalAmount-res.TotalAmount) > 0.01 {
		log.Printf("order %s: submitted total %.2f differs from computed %.2f",
			res.OrderID, *req.TotalAmount, res.TotalAmount)
	}

	if !res.Existed && h.Payments != nil {
		// Payment row is created outside the order transaction; on failure
		// the order stands and checkout retries the payment step.
		if _, err := h.Payments.Create(ctx, res.OrderID, req.TenantID, req.CustomerID, res.TotalAmount, "TRY"); err != nil {
			log.Printf("create payment for order %s: %v", res.OrderID, err)
		}
	}

	if h.Redis != nil {
		if req.ExternalID != "" {
			idemKey := fmt.Sprintf(redisx.KeyIdemOrderCreate, req.TenantID, req.ExternalID)
			_ = h.Redis.Set(ctx, idemKey, res.OrderID, redisx.TTLIdempotency).Err()
		}
		if !res.Existed {
			// A replayed order may have moved past stock_reserved already.
			statusKey := fmt.Sprintf(redisx.KeyOrderStatus, req.TenantID, res.OrderID)
			_ = h.Redis.Set(ctx, statusKey, `{"status":"stock_reserved"}`, redisx.TTLStatusCache).Err()
		}
	}

	if !res.Existed {
		h.publishPlaced(r, req, res)
		h.Notify.OrderPlaced(req.TenantID, req.SellerID, res.OrderID, res.TotalAmount)
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":  true,
		"order_id": res.OrderID,
		"message":  "Order created successfully",
	})
}

func (h *OrdersHandler) publishPlaced(r *http.Request, req orders.CreateOrderRequest, res orders.CreateResult) {
	if h.Producer == nil {
		return
	}
	items := make([]orders.ItemQty, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, orders.ItemQty{ProductID: it.ProductID, Qty: it.Quantity})
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderPlaced,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: res.OrderID,
		Payload: kafkax.MustMarshal(orders.OrderPlacedPayload{
			OrderID:     res.OrderID,
			TenantID:    req.TenantID,
			CustomerID:  req.CustomerID,
			SellerID:    req.SellerID,
			Items:       items,
			TotalAmount: res.TotalAmount,
		}),
	}
	h.Producer.Publish(orders.PartitionKey(res.OrderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderPlaced)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	tenantID := r.URL.Query().Get("tenant")
	if orderID == "" || tenantID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing id or tenant"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := fmt.Sprintf(redisx.KeyOrderStatus, tenantID, orderID)
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	status, err := h.Store.GetOrderStatus(ctx, tenantID, orderID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	body := map[string]any{"status": status}
	if h.Redis != nil {
		_ = h.Redis.Set(ctx, key, kafkax.MustMarshal(body), redisx.TTLStatusCache).Err()
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *OrdersHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	tenantID := r.URL.Query().Get("tenant")
	if tenantID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "tenant query string is required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Store.ListProducts(ctx, tenantID)
	if err != nil {
		log.Printf("list products: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list products"})
		return
	}
	writeJSON(w, http.StatusOK, ps)
}
