// Package memorystorage provides the in-memory storage backend: the jsondb
// document cache without a backing file. It is used when neither a
// database DSN nor a storage file is configured, and in tests.
package memorystorage

import (
	"context"

	"github.com/patric-chuzhbe/storefront/internal/db/jsondb"
	"github.com/patric-chuzhbe/storefront/internal/order"
	"github.com/patric-chuzhbe/storefront/internal/product"
	"github.com/patric-chuzhbe/storefront/internal/user"
)

// MemoryStorage keeps all users, orders and products in process memory.
type MemoryStorage struct {
	*jsondb.JSONDB
}

// New returns an empty in-memory store.
func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		JSONDB: &jsondb.JSONDB{
			Cache: jsondb.Document{
				Users:          map[string]*user.User{},
				UsernamesToIDs: map[string]string{},
				Orders:         []*order.Order{},
				Products:       []product.Product{},
			},
		},
	}, nil
}

// Close is a no-op: there is nothing to flush.
func (theStorage *MemoryStorage) Close() error {
	return nil
}

// Ping always reports a healthy store.
func (theStorage *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}
