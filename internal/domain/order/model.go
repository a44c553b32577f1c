package order

import (
	"time"

	"github.com/merchbay/storefront/internal/domain/cart"
)

// Order is a past order as reported by the shop backend. Status is owned by
// the backend and treated as opaque text here.
type Order struct {
	ID       string      `json:"id"`
	Lines    []cart.Line `json:"lines"`
	Total    float64     `json:"total"`
	Status   string      `json:"status"`
	PlacedAt time.Time   `json:"placed_at"`
}

// Notification is a user-facing message delivered by the backend.
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// ProductSales is one row of a sales report.
type ProductSales struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name,omitempty"`
	Units     int     `json:"units"`
	Revenue   float64 `json:"revenue"`
}

// SalesReport aggregates orders over a period for the admin panel.
type SalesReport struct {
	From        time.Time      `json:"from"`
	To          time.Time      `json:"to"`
	Orders      int            `json:"orders"`
	Revenue     float64        `json:"revenue"`
	TopProducts []ProductSales `json:"top_products,omitempty"`
}
