// Package storage declares the full repository contract implemented by the
// jsondb, memorystorage and postgresdb backends. The document-oriented
// read/write pattern of the file backend stays hidden behind these
// per-entity operations.
package storage

import (
	"context"
	"database/sql"

	"github.com/patric-chuzhbe/storefront/internal/order"
	"github.com/patric-chuzhbe/storefront/internal/product"
	"github.com/patric-chuzhbe/storefront/internal/user"
)

// Tx is the opaque transaction handle returned by BeginTransaction and
// consumed by CommitTransaction/RollbackTransaction. SQL backends carry
// the live *sql.Tx in it; the file backend stamps the generation of its
// single-writer lock instead, so that a rollback deferred past its own
// commit can recognize it no longer owns the lock and must not release a
// successor's transaction.
type Tx struct {
	SQLTx      *sql.Tx
	Generation uint64
}

// Storage is the union of every capability the application wires. The
// service layer depends on narrower per-concern interfaces; this one is
// used by the app wiring and the testify mock.
type Storage interface {
	CreateUser(ctx context.Context, usr *user.User, transaction *Tx) (string, error)

	FindUserByUsername(ctx context.Context, username string, transaction *Tx) (*user.User, bool, error)

	FindUserByID(ctx context.Context, userID string, transaction *Tx) (*user.User, bool, error)

	UpdateUser(ctx context.Context, usr *user.User, transaction *Tx) error

	InsertOrder(ctx context.Context, ord *order.Order, transaction *Tx) error

	AppendOrderReference(ctx context.Context, userID, orderID string, transaction *Tx) error

	FindOrdersByUser(ctx context.Context, userID string) ([]order.Order, error)

	FindProducts(ctx context.Context) ([]product.Product, error)

	GetNumberOfUsers(ctx context.Context) (int64, error)

	GetNumberOfOrders(ctx context.Context) (int64, error)

	BeginTransaction() (*Tx, error)

	CommitTransaction(transaction *Tx) error

	RollbackTransaction(transaction *Tx) error

	Ping(ctx context.Context) error

	Close() error
}
