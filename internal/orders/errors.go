package orders

import "fmt"

// NotFoundError: the product does not exist under the requested tenant.
// Deliberately indistinguishable from "exists under another tenant".
type NotFoundError struct {
	ProductID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("product %s not found or not accessible", e.ProductID)
}

type InsufficientStockError struct {
	ProductID string
	Title     string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for product %q: available %d, requested %d",
		e.Title, e.Available, e.Requested)
}

// TransitionError reports an order status change the state machine forbids.
type TransitionError struct {
	OrderID string
	From    Status
	To      Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("order %s: illegal status transition %s -> %s", e.OrderID, e.From, e.To)
}
