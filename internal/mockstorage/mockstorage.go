// Package mockstorage provides a testify-based mock implementation
// of the internal storage interfaces used by the router and service
// packages. It is used for unit testing handlers by simulating storage
// behavior, including collaborator failures.
package mockstorage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/storefront/internal/db/storage"
	"github.com/patric-chuzhbe/storefront/internal/order"
	"github.com/patric-chuzhbe/storefront/internal/product"
	"github.com/patric-chuzhbe/storefront/internal/user"
)

// StorageMock is a testify mock that implements all interfaces
// used by the router and service for storage operations.
//
// Use it in tests to simulate database behavior.
type StorageMock struct {
	mock.Mock
}

// CreateUser mocks storing a new user record.
func (m *StorageMock) CreateUser(ctx context.Context, usr *user.User, transaction *storage.Tx) (string, error) {
	args := m.Called(ctx, usr, transaction)
	return args.String(0), args.Error(1)
}

// FindUserByUsername mocks resolving a user by username.
func (m *StorageMock) FindUserByUsername(ctx context.Context, username string, transaction *storage.Tx) (*user.User, bool, error) {
	args := m.Called(ctx, username, transaction)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Bool(1), args.Error(2)
}

// FindUserByID mocks resolving a user by identity.
func (m *StorageMock) FindUserByID(ctx context.Context, userID string, transaction *storage.Tx) (*user.User, bool, error) {
	args := m.Called(ctx, userID, transaction)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Bool(1), args.Error(2)
}

// UpdateUser mocks overwriting a stored user record.
func (m *StorageMock) UpdateUser(ctx context.Context, usr *user.User, transaction *storage.Tx) error {
	args := m.Called(ctx, usr, transaction)
	return args.Error(0)
}

// InsertOrder mocks persisting an order record.
func (m *StorageMock) InsertOrder(ctx context.Context, ord *order.Order, transaction *storage.Tx) error {
	args := m.Called(ctx, ord, transaction)
	return args.Error(0)
}

// AppendOrderReference mocks recording an order on a user's history list.
func (m *StorageMock) AppendOrderReference(ctx context.Context, userID, orderID string, transaction *storage.Tx) error {
	args := m.Called(ctx, userID, orderID, transaction)
	return args.Error(0)
}

// FindOrdersByUser mocks listing a user's orders.
func (m *StorageMock) FindOrdersByUser(ctx context.Context, userID string) ([]order.Order, error) {
	args := m.Called(ctx, userID)
	orders, _ := args.Get(0).([]order.Order)
	return orders, args.Error(1)
}

// FindProducts mocks listing the product catalog.
func (m *StorageMock) FindProducts(ctx context.Context) ([]product.Product, error) {
	args := m.Called(ctx)
	products, _ := args.Get(0).([]product.Product)
	return products, args.Error(1)
}

// GetNumberOfUsers mocks the user counter.
func (m *StorageMock) GetNumberOfUsers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// GetNumberOfOrders mocks the order counter.
func (m *StorageMock) GetNumberOfOrders(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// BeginTransaction mocks the beginning of a transaction.
func (m *StorageMock) BeginTransaction() (*storage.Tx, error) {
	args := m.Called()
	tx, _ := args.Get(0).(*storage.Tx)
	return tx, args.Error(1)
}

// CommitTransaction mocks committing a transaction.
func (m *StorageMock) CommitTransaction(tx *storage.Tx) error {
	args := m.Called(tx)
	return args.Error(0)
}

// RollbackTransaction mocks rolling back a transaction.
func (m *StorageMock) RollbackTransaction(tx *storage.Tx) error {
	args := m.Called(tx)
	return args.Error(0)
}

// Ping mocks the storage health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks releasing the storage resources.
func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
