// Package order defines the order model: an immutable record linking an
// authenticated user to the cart snapshot they checked out.
package order

import "time"

// Item is a single order line captured at checkout time.
// Name and Price are snapshots of the product at the moment it was added
// to the cart and are not re-resolved against the catalog later.
type Item struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// Order is created once by the order ledger and never updated or deleted.
type Order struct {
	// ID is the unique identifier of the order, meaning a UUID.
	ID string `json:"id"`

	// UserID references the owning user; it is validated at creation time.
	UserID string `json:"userId"`

	Items []Item  `json:"items"`
	Total float64 `json:"total"`

	CreatedAt time.Time `json:"date"`
}
