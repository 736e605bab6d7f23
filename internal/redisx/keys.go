package redisx

import "time"

const (
	// Idempotency fast-path for order creation:
	// idem:order:create:{tenant_id}:{external_id} -> order_id
	KeyIdemOrderCreate = "idem:order:create:%s:%s"

	// Cached order status, tenant-scoped like the orders table itself:
	// order_status:{tenant_id}:{order_id} -> {"status": "..."}
	KeyOrderStatus = "order_status:%s:%s"

	// Dedup for consumed/delivered events: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Dedup for inbound provider webhook events: webhook:seen:{provider}:{event_id}
	KeyWebhookSeen = "webhook:seen:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
	TTLWebhookSeen = 72 * time.Hour
)
