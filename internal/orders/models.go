package orders

import "time"

type Product struct {
	ID        string
	TenantID  string
	SellerID  string
	Title     string
	Stock     int
	Price     float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Order struct {
	ID              string
	ExternalID      string
	TenantID        string
	CustomerID      string
	SellerID        string
	Status          Status // see status.go
	TotalAmount     float64
	DeliveryAddress string
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type OrderItem struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  int
	Price     float64
}

type Reservation struct {
	ID        string
	OrderID   string
	ProductID string
	Qty       int
	Status    string // RESERVED | RELEASED
	CreatedAt time.Time
}
