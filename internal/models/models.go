// Package models contains the request/response DTOs of the HTTP API and
// the sentinel errors shared between the storage and service layers.
package models

import (
	"errors"

	"github.com/patric-chuzhbe/storefront/internal/order"
)

// RegisterRequest is the payload of POST /api/users/register.
type RegisterRequest struct {
	Username      string `json:"username" validate:"required"`
	Password      string `json:"password" validate:"required"`
	Name          string `json:"name"`
	Surname       string `json:"surname"`
	Address       string `json:"address"`
	PaymentMethod string `json:"paymentMethod"`
}

// LoginRequest is the payload of POST /api/users/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UserInfo is the outward-facing representation of a user.
// It deliberately has no password field.
type UserInfo struct {
	ID            string   `json:"id"`
	Username      string   `json:"username"`
	Name          string   `json:"name"`
	Surname       string   `json:"surname"`
	Address       string   `json:"address"`
	PaymentMethod string   `json:"paymentMethod"`
	Orders        []string `json:"orders"`
}

// LoginResponse carries the issued bearer token together with the
// authenticated user's profile.
type LoginResponse struct {
	Token string   `json:"token"`
	User  UserInfo `json:"user"`
}

// ProfileUpdateRequest is the payload of PUT /api/users/me. Every field is
// a pointer so that an absent field and a supplied empty string stay
// distinguishable: nil means "leave unchanged", a non-nil pointer always
// overwrites, even with "".
type ProfileUpdateRequest struct {
	Name          *string `json:"name"`
	Surname       *string `json:"surname"`
	Address       *string `json:"address"`
	PaymentMethod *string `json:"paymentMethod"`
}

// OrderRequest is the payload of POST /api/orders: the cart snapshot
// submitted at checkout.
type OrderRequest struct {
	Items []order.Item `json:"items" validate:"required,min=1,dive"`
	Total float64      `json:"total"`
}

// MessageResponse is the generic confirmation/error envelope of the API.
type MessageResponse struct {
	Message string `json:"message"`
}

// OrderResponse is returned by POST /api/orders on success.
type OrderResponse struct {
	Message string      `json:"message"`
	Order   order.Order `json:"order"`
}

// InternalStatsResponse is returned by GET /api/internal/stats.
type InternalStatsResponse struct {
	Users  int64 `json:"users"`
	Orders int64 `json:"orders"`
}

// Storage type selection, in priority order of the configuration values.
const (
	StorageTypeUnknown = iota
	StorageTypePostgresql
	StorageTypeFile
	StorageTypeMemory
)

// ErrUserAlreadyExists is returned by the storage layer when a user with
// the same username is already registered.
var ErrUserAlreadyExists = errors.New("user already exists")

// ErrUserNotFound is returned when the referenced user identity does not
// resolve to a stored record.
var ErrUserNotFound = errors.New("user not found")
