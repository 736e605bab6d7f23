package orders

const (
	TopicOrderPlaced   = "order.placed"
	TopicOrderUpdated  = "order.status.updated"
	TopicNotifications = "notifications.requested"
)

// Partition key = order_id so every event for one order stays ordered.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
