// Package product defines the catalog product model. The catalog itself is
// read-only for this service: products are served to clients so they can
// build cart lines, but never mutated through the API.
package product

// Product is a single catalog entry.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Image       string  `json:"image,omitempty"`
	Description string  `json:"description,omitempty"`
}
