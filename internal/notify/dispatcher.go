package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/dexday077/kep-orders/internal/kafka"
	"github.com/dexday077/kep-orders/internal/orders"
	"github.com/dexday077/kep-orders/internal/redisx"
)

// Dispatcher consumes notification requests and records the delivery.
// Registered as the consumer handler in cmd/notifier.
type Dispatcher struct {
	Log         *LogRepo
	Redis       *redis.Client
	ServiceName string
}

func (d *Dispatcher) HandleNotifyRequested(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventNotifyRequested {
		return nil // ignore
	}

	// Dedup by event_id so a redelivered message is not sent twice.
	if d.Redis != nil {
		dkey := fmt.Sprintf(redisx.KeyDedup, "notifier", env.EventID)
		exists, _ := redisx.Exists(ctx, d.Redis, dkey)
		if exists {
			return nil
		}
		_ = d.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	}

	p, err := kafkax.UnwrapPayload[orders.NotifyPayload](env.Payload)
	if err != nil {
		return err
	}

	if err := d.Log.Record(ctx, env.EventID, p); err != nil {
		return err
	}
	log.Printf("notification delivered: kind=%s audience=%s order=%s tenant=%s",
		p.Kind, p.Audience, p.OrderID, p.TenantID)
	return nil
}
