package orders

import (
	"fmt"
	"strings"
)

type ItemInput struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type CreateOrderRequest struct {
	ExternalID      string      `json:"external_id,omitempty"`
	CustomerID      string      `json:"customer_id"`
	SellerID        string      `json:"seller_id"`
	TenantID        string      `json:"tenant_id"`
	Items           []ItemInput `json:"items"`
	TotalAmount     *float64    `json:"total_amount"`
	DeliveryAddress string      `json:"delivery_address"`
	Notes           string      `json:"notes,omitempty"`
}

// Validate checks every field independently and returns the full list of
// problems, so a caller fixes everything in one round trip.
func (r *CreateOrderRequest) Validate() []string {
	var errs []string
	if r.CustomerID == "" {
		errs = append(errs, "customer_id is required")
	}
	if r.SellerID == "" {
		errs = append(errs, "seller_id is required")
	}
	if r.TenantID == "" {
		errs = append(errs, "tenant_id is required")
	}
	if len(r.Items) == 0 {
		errs = append(errs, "items must be a non-empty array")
	}
	for i, it := range r.Items {
		if it.ProductID == "" {
			errs = append(errs, fmt.Sprintf("items[%d].product_id is required", i))
		}
		if it.Quantity <= 0 {
			errs = append(errs, fmt.Sprintf("items[%d].quantity must be a positive integer", i))
		}
		if it.Price < 0 {
			errs = append(errs, fmt.Sprintf("items[%d].price must be a non-negative number", i))
		}
	}
	if r.TotalAmount == nil || *r.TotalAmount < 0 {
		errs = append(errs, "total_amount must be a non-negative number")
	}
	if strings.TrimSpace(r.DeliveryAddress) == "" {
		errs = append(errs, "delivery_address must be a non-empty string")
	}
	return errs
}
