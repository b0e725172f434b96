// Package postgresdb provides a PostgreSQL-based implementation of the
// storage interface for persisting users, orders and the product catalog.
// It supports transactional operations so that an order insert and the
// owning user's order-reference append commit together.
package postgresdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/patric-chuzhbe/storefront/internal/db/storage"
	"github.com/patric-chuzhbe/storefront/internal/models"
	"github.com/patric-chuzhbe/storefront/internal/order"
	"github.com/patric-chuzhbe/storefront/internal/product"
	"github.com/patric-chuzhbe/storefront/internal/user"
)

const uniqueViolationCode = "23505"

// PostgresDB is a PostgreSQL-backed implementation of the storefront
// storage. It handles all persistence operations via a database/sql
// connection using the pgx driver.
type PostgresDB struct {
	database          *sql.DB
	connectionTimeout time.Duration
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// New establishes a connection to the PostgreSQL database,
// runs schema migrations, and returns a configured PostgresDB instance.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
	migrationsDir string,
) (*PostgresDB, error) {
	database, err := sql.Open("pgx", databaseDSN)
	if err != nil {
		return nil, err
	}

	result := &PostgresDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `goose.SetDialect()` calling: %w",
				err,
			)
	}

	if err := goose.Up(result.database, migrationsDir); err != nil {
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `goose.Up()` calling: %w",
				err,
			)
	}

	return result, nil
}

// BeginTransaction starts a database transaction.
func (db *PostgresDB) BeginTransaction() (*storage.Tx, error) {
	tx, err := db.database.Begin()
	if err != nil {
		return nil, err
	}

	return &storage.Tx{SQLTx: tx}, nil
}

// CommitTransaction commits the given transaction.
func (db *PostgresDB) CommitTransaction(transaction *storage.Tx) error {
	if transaction == nil || transaction.SQLTx == nil {
		return nil
	}

	return transaction.SQLTx.Commit()
}

// RollbackTransaction rolls the transaction back. A rollback after a
// successful commit is a no-op, so callers may keep it in a defer.
func (db *PostgresDB) RollbackTransaction(transaction *storage.Tx) error {
	if transaction == nil || transaction.SQLTx == nil {
		return nil
	}

	err := transaction.SQLTx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}

	return err
}

// CreateUser inserts a new user record. A username collision surfaces as
// models.ErrUserAlreadyExists.
func (db *PostgresDB) CreateUser(ctx context.Context, usr *user.User, transaction *storage.Tx) (string, error) {
	_, err := db.getExecutor(transaction).ExecContext(
		ctx,
		`
			INSERT INTO users (id, username, password_hash, name, surname, address, payment_method)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
		`,
		usr.ID,
		usr.Username,
		usr.PasswordHash,
		usr.Name,
		usr.Surname,
		usr.Address,
		usr.PaymentMethod,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return "", models.ErrUserAlreadyExists
		}

		return "", err
	}

	return usr.ID, nil
}

// FindUserByUsername resolves a user record by its unique username.
func (db *PostgresDB) FindUserByUsername(ctx context.Context, username string, transaction *storage.Tx) (*user.User, bool, error) {
	return db.findUser(
		ctx,
		db.getQueryer(transaction),
		`
			SELECT id, username, password_hash, name, surname, address, payment_method
				FROM users
				WHERE username = $1
		`,
		username,
	)
}

// FindUserByID resolves a user record by its identity. Inside a
// transaction the row is locked with FOR UPDATE: the service's
// read-modify-write flows (profile update, order placement) must not let
// two concurrent writers read the same snapshot, or the later UPDATE
// silently drops the earlier one's fields.
func (db *PostgresDB) FindUserByID(ctx context.Context, userID string, transaction *storage.Tx) (*user.User, bool, error) {
	query := `
			SELECT id, username, password_hash, name, surname, address, payment_method
				FROM users
				WHERE id = $1
		`
	if transaction != nil && transaction.SQLTx != nil {
		query += ` FOR UPDATE`
	}

	return db.findUser(
		ctx,
		db.getQueryer(transaction),
		query,
		userID,
	)
}

// UpdateUser overwrites the profile fields of an existing user.
func (db *PostgresDB) UpdateUser(ctx context.Context, usr *user.User, transaction *storage.Tx) error {
	result, err := db.getExecutor(transaction).ExecContext(
		ctx,
		`
			UPDATE users
				SET name = $2,
					surname = $3,
					address = $4,
					payment_method = $5
				WHERE id = $1
		`,
		usr.ID,
		usr.Name,
		usr.Surname,
		usr.Address,
		usr.PaymentMethod,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrUserNotFound
	}

	return nil
}

// InsertOrder persists an immutable order record. The line items are
// stored as a JSONB snapshot.
func (db *PostgresDB) InsertOrder(ctx context.Context, ord *order.Order, transaction *storage.Tx) error {
	items, err := json.Marshal(ord.Items)
	if err != nil {
		return fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/InsertOrder(): error while `json.Marshal()` calling: %w",
			err,
		)
	}

	_, err = db.getExecutor(transaction).ExecContext(
		ctx,
		`
			INSERT INTO orders (id, user_id, items, total, created_at)
				VALUES ($1, $2, $3, $4, $5)
		`,
		ord.ID,
		ord.UserID,
		items,
		ord.Total,
		ord.CreatedAt,
	)

	return err
}

// AppendOrderReference records the order identity on the owning user's
// history list.
func (db *PostgresDB) AppendOrderReference(ctx context.Context, userID, orderID string, transaction *storage.Tx) error {
	_, err := db.getExecutor(transaction).ExecContext(
		ctx,
		`INSERT INTO user_orders (user_id, order_id) VALUES ($1, $2)`,
		userID,
		orderID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return models.ErrUserNotFound
		}

		return err
	}

	return nil
}

// FindOrdersByUser returns the user's orders ordered by creation time
// ascending. An unknown user yields an empty slice.
func (db *PostgresDB) FindOrdersByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := db.database.QueryContext(
		ctx,
		`
			SELECT id, user_id, items, total, created_at
				FROM orders
				WHERE user_id = $1
				ORDER BY created_at ASC
		`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []order.Order{}
	for rows.Next() {
		var (
			ord   order.Order
			items []byte
		)
		if err := rows.Scan(&ord.ID, &ord.UserID, &items, &ord.Total, &ord.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(items, &ord.Items); err != nil {
			return nil, err
		}
		orders = append(orders, ord)
	}

	return orders, rows.Err()
}

// FindProducts returns the whole product catalog.
func (db *PostgresDB) FindProducts(ctx context.Context) ([]product.Product, error) {
	rows, err := db.database.QueryContext(
		ctx,
		`SELECT id, name, price, image, description FROM products ORDER BY name ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []product.Product{}
	for rows.Next() {
		var p product.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Image, &p.Description); err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	return products, rows.Err()
}

// GetNumberOfUsers returns the amount of registered users.
func (db *PostgresDB) GetNumberOfUsers(ctx context.Context) (int64, error) {
	return db.count(ctx, `SELECT COUNT(*) FROM users`)
}

// GetNumberOfOrders returns the amount of placed orders.
func (db *PostgresDB) GetNumberOfOrders(ctx context.Context) (int64, error) {
	return db.count(ctx, `SELECT COUNT(*) FROM orders`)
}

// Ping verifies the database connection within the configured timeout.
func (db *PostgresDB) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.database.PingContext(ctxWithTimeout)
}

// Close closes the underlying database connection.
func (db *PostgresDB) Close() error {
	return db.database.Close()
}

func (db *PostgresDB) findUser(
	ctx context.Context,
	q queryer,
	query string,
	arg string,
) (*user.User, bool, error) {
	usr := &user.User{}
	err := q.QueryRowContext(ctx, query, arg).Scan(
		&usr.ID,
		&usr.Username,
		&usr.PasswordHash,
		&usr.Name,
		&usr.Surname,
		&usr.Address,
		&usr.PaymentMethod,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	usr.Orders, err = db.findOrderReferences(ctx, q, usr.ID)
	if err != nil {
		return nil, false, err
	}

	return usr, true, nil
}

func (db *PostgresDB) findOrderReferences(ctx context.Context, q queryer, userID string) ([]string, error) {
	rows, err := q.QueryContext(
		ctx,
		`
			SELECT order_id
				FROM user_orders
				WHERE user_id = $1
				ORDER BY position ASC
		`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	references := []string{}
	for rows.Next() {
		var orderID string
		if err := rows.Scan(&orderID); err != nil {
			return nil, err
		}
		references = append(references, orderID)
	}

	return references, rows.Err()
}

func (db *PostgresDB) count(ctx context.Context, query string) (int64, error) {
	var result int64
	err := db.database.QueryRowContext(ctx, query).Scan(&result)

	return result, err
}

func (db *PostgresDB) getExecutor(transaction *storage.Tx) executor {
	if transaction != nil && transaction.SQLTx != nil {
		return transaction.SQLTx
	}

	return db.database
}

func (db *PostgresDB) getQueryer(transaction *storage.Tx) queryer {
	if transaction != nil && transaction.SQLTx != nil {
		return transaction.SQLTx
	}

	return db.database
}
