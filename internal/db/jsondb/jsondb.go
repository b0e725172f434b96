// Package jsondb implements the storage contract on top of a single JSON
// document file. The whole document lives in memory and is flushed to disk
// on transaction commit and on Close, which mirrors the full-document
// semantics of the original data file while exposing only per-entity
// operations to callers.
package jsondb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/storefront/internal/db/storage"
	"github.com/patric-chuzhbe/storefront/internal/models"
	"github.com/patric-chuzhbe/storefront/internal/order"
	"github.com/patric-chuzhbe/storefront/internal/product"
	"github.com/patric-chuzhbe/storefront/internal/user"
)

// Document is the persisted shape of the store: all users keyed by ID with
// a username index, orders in creation order and the product catalog.
type Document struct {
	Users          map[string]*user.User `json:"users"`
	UsernamesToIDs map[string]string     `json:"usernames"`
	Orders         []*order.Order        `json:"orders"`
	Products       []product.Product     `json:"products"`
}

// JSONDB is a file-backed document store. mu guards the in-memory cache;
// txMu serializes mutating request flows so that two concurrent
// read-modify-write cycles can never silently overwrite each other.
type JSONDB struct {
	fileName string

	mu   sync.RWMutex
	txMu sync.Mutex

	// stateMu guards the generation bookkeeping below. Every transaction
	// handle is stamped with the generation current at its Begin;
	// activeGeneration names the handle holding txMu right now (0 when
	// none), so a stale handle cannot end a successor's transaction.
	stateMu          sync.Mutex
	generation       uint64
	activeGeneration uint64

	Cache Document
}

// New opens or creates the JSON document file and loads it into memory.
func New(fileName string) (*JSONDB, error) {
	db := &JSONDB{fileName: fileName}

	err := parseJSONFile(db.fileName, &db.Cache)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		if err := initDBFile(fileName); err != nil {
			return nil, err
		}
		if err := parseJSONFile(db.fileName, &db.Cache); err != nil {
			return nil, err
		}
	}

	normalizeDocument(&db.Cache)

	return db, nil
}

// BeginTransaction acquires the single-writer lock and returns a handle
// stamped with a fresh generation. The file backend has no SQL
// transactions, the lock itself is the serialization mechanism.
func (db *JSONDB) BeginTransaction() (*storage.Tx, error) {
	db.txMu.Lock()

	db.stateMu.Lock()
	db.generation++
	db.activeGeneration = db.generation
	transaction := &storage.Tx{Generation: db.generation}
	db.stateMu.Unlock()

	return transaction, nil
}

// CommitTransaction flushes the document to disk and releases the
// single-writer lock. A handle whose transaction already ended is a
// no-op.
func (db *JSONDB) CommitTransaction(transaction *storage.Tx) error {
	if !db.endTransaction(transaction) {
		return nil
	}

	err := db.flush()
	db.txMu.Unlock()

	return err
}

// RollbackTransaction releases the single-writer lock without flushing.
// Calling it after CommitTransaction is a harmless no-op, so callers may
// keep it in a defer: the stale handle no longer matches the active
// generation and cannot unlock a transaction begun by somebody else in
// the meantime.
func (db *JSONDB) RollbackTransaction(transaction *storage.Tx) error {
	if !db.endTransaction(transaction) {
		return nil
	}
	db.txMu.Unlock()

	return nil
}

// endTransaction reports whether transaction still owns the single-writer
// lock, marking it ended when it does. The caller must then unlock txMu.
func (db *JSONDB) endTransaction(transaction *storage.Tx) bool {
	if transaction == nil {
		return false
	}

	db.stateMu.Lock()
	defer db.stateMu.Unlock()

	if db.activeGeneration != transaction.Generation {
		return false
	}
	db.activeGeneration = 0

	return true
}

// CreateUser stores a new user record. It fails with
// models.ErrUserAlreadyExists when the username is taken.
func (db *JSONDB) CreateUser(ctx context.Context, usr *user.User, transaction *storage.Tx) (string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.Cache.UsernamesToIDs[usr.Username]; exists {
		return "", models.ErrUserAlreadyExists
	}

	stored := cloneUser(usr)
	if stored.Orders == nil {
		stored.Orders = []string{}
	}

	db.Cache.Users[stored.ID] = stored
	db.Cache.UsernamesToIDs[stored.Username] = stored.ID

	return stored.ID, nil
}

// FindUserByUsername returns a copy of the user with the given username.
func (db *JSONDB) FindUserByUsername(ctx context.Context, username string, transaction *storage.Tx) (*user.User, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	userID, found := db.Cache.UsernamesToIDs[username]
	if !found {
		return nil, false, nil
	}

	return cloneUser(db.Cache.Users[userID]), true, nil
}

// FindUserByID returns a copy of the user with the given identity.
func (db *JSONDB) FindUserByID(ctx context.Context, userID string, transaction *storage.Tx) (*user.User, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	usr, found := db.Cache.Users[userID]
	if !found {
		return nil, false, nil
	}

	return cloneUser(usr), true, nil
}

// UpdateUser replaces the stored record of an existing user.
func (db *JSONDB) UpdateUser(ctx context.Context, usr *user.User, transaction *storage.Tx) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, found := db.Cache.Users[usr.ID]; !found {
		return models.ErrUserNotFound
	}

	db.Cache.Users[usr.ID] = cloneUser(usr)

	return nil
}

// InsertOrder appends an order to the ledger. Orders are immutable after
// this call.
func (db *JSONDB) InsertOrder(ctx context.Context, ord *order.Order, transaction *storage.Tx) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	stored := *ord
	stored.Items = make([]order.Item, len(ord.Items))
	copy(stored.Items, ord.Items)
	db.Cache.Orders = append(db.Cache.Orders, &stored)

	return nil
}

// AppendOrderReference records orderID on the owning user's history list.
func (db *JSONDB) AppendOrderReference(ctx context.Context, userID, orderID string, transaction *storage.Tx) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	usr, found := db.Cache.Users[userID]
	if !found {
		return models.ErrUserNotFound
	}

	usr.Orders = append(usr.Orders, orderID)

	return nil
}

// FindOrdersByUser returns the user's orders in creation order.
// An unknown user yields an empty slice, not an error.
func (db *JSONDB) FindOrdersByUser(ctx context.Context, userID string) ([]order.Order, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	matched := funk.Filter(db.Cache.Orders, func(ord *order.Order) bool {
		return ord.UserID == userID
	}).([]*order.Order)

	orders := make([]order.Order, 0, len(matched))
	for _, ord := range matched {
		orders = append(orders, *ord)
	}

	return orders, nil
}

// FindProducts returns the product catalog.
func (db *JSONDB) FindProducts(ctx context.Context) ([]product.Product, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	products := make([]product.Product, len(db.Cache.Products))
	copy(products, db.Cache.Products)

	return products, nil
}

// GetNumberOfUsers returns the amount of registered users.
func (db *JSONDB) GetNumberOfUsers(ctx context.Context) (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return int64(len(db.Cache.Users)), nil
}

// GetNumberOfOrders returns the amount of placed orders.
func (db *JSONDB) GetNumberOfOrders(ctx context.Context) (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return int64(len(db.Cache.Orders)), nil
}

// Ping reports the health of the store. The file backend is always ready.
func (db *JSONDB) Ping(ctx context.Context) error {
	return nil
}

// Close flushes the document to the backing file.
func (db *JSONDB) Close() error {
	return db.flush()
}

func (db *JSONDB) flush() error {
	if db.fileName == "" {
		return nil
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	return writeToJSONFile(db.fileName, db.Cache)
}

func cloneUser(usr *user.User) *user.User {
	clone := *usr
	if usr.Orders != nil {
		clone.Orders = make([]string, len(usr.Orders))
		copy(clone.Orders, usr.Orders)
	}

	return &clone
}

func normalizeDocument(doc *Document) {
	if doc.Users == nil {
		doc.Users = map[string]*user.User{}
	}
	if doc.UsernamesToIDs == nil {
		doc.UsernamesToIDs = map[string]string{}
	}
	if doc.Orders == nil {
		doc.Orders = []*order.Order{}
	}
	if doc.Products == nil {
		doc.Products = []product.Product{}
	}
}

func initDBFile(fileName string) error {
	dbFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(dbFile, `{
	"users": {},
	"usernames": {},
	"orders": [],
	"products": []
}`)
	if err != nil {
		return err
	}
	return dbFile.Close()
}

func writeToJSONFile(fileName string, cache interface{}) error {
	jsonData, err := json.MarshalIndent(cache, "", "\t")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %s", err)
	}

	file, err2 := os.OpenFile(fileName, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err2 != nil {
		return fmt.Errorf("error opening file: %s", err2)
	}
	defer file.Close()

	_, err = file.Write(jsonData)
	if err != nil {
		return fmt.Errorf("error writing to file: %s", err)
	}

	return nil
}

func parseJSONFile(fileName string, doc *Document) error {
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	err = decoder.Decode(doc)
	if err != nil {
		return err
	}

	return nil
}
