// Package user defines the user model used throughout the application,
// particularly for authentication, profile management and order history.
package user

// User represents a registered customer of the storefront.
//
// PasswordHash is persisted by the storage layer but must never be
// serialized into an API response; outward-facing representations live
// in the models package and carry no password field.
type User struct {
	// ID is the unique identifier of the user, meaning a UUID.
	ID string `json:"id"`

	// Username is unique across the whole store, case-sensitive.
	Username string `json:"username"`

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string `json:"password"`

	Name          string `json:"name"`
	Surname       string `json:"surname"`
	Address       string `json:"address"`
	PaymentMethod string `json:"paymentMethod"`

	// Orders holds the identities of the user's orders in creation order.
	// The list only ever grows, by one entry per successfully placed order.
	Orders []string `json:"orders"`
}
