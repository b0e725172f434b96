// Package service contains the business logic of the storefront: the
// credential store operations, the token issuance on login, and the order
// ledger. Handlers stay thin and delegate here; persistence is reached
// through narrow per-concern interfaces.
package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/storefront/internal/db/storage"
	"github.com/patric-chuzhbe/storefront/internal/models"
	"github.com/patric-chuzhbe/storefront/internal/order"
	"github.com/patric-chuzhbe/storefront/internal/passhash"
	"github.com/patric-chuzhbe/storefront/internal/product"
	"github.com/patric-chuzhbe/storefront/internal/user"
)

type usersKeeper interface {
	CreateUser(ctx context.Context, usr *user.User, transaction *storage.Tx) (string, error)

	FindUserByUsername(ctx context.Context, username string, transaction *storage.Tx) (*user.User, bool, error)

	FindUserByID(ctx context.Context, userID string, transaction *storage.Tx) (*user.User, bool, error)

	UpdateUser(ctx context.Context, usr *user.User, transaction *storage.Tx) error
}

type ordersKeeper interface {
	InsertOrder(ctx context.Context, ord *order.Order, transaction *storage.Tx) error

	AppendOrderReference(ctx context.Context, userID, orderID string, transaction *storage.Tx) error

	FindOrdersByUser(ctx context.Context, userID string) ([]order.Order, error)
}

type productsKeeper interface {
	FindProducts(ctx context.Context) ([]product.Product, error)
}

type statsKeeper interface {
	GetNumberOfUsers(ctx context.Context) (int64, error)

	GetNumberOfOrders(ctx context.Context) (int64, error)
}

type transactioner interface {
	BeginTransaction() (*storage.Tx, error)

	RollbackTransaction(transaction *storage.Tx) error

	CommitTransaction(transaction *storage.Tx) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

type repository interface {
	usersKeeper
	ordersKeeper
	productsKeeper
	statsKeeper
	transactioner
	pinger
}

type tokenIssuer interface {
	Issue(userID string) (string, error)
}

// ErrInvalidCredentials is returned by Login for an unknown username or a
// wrong password; the two cases are deliberately indistinguishable.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ErrOrderItemsRequired is returned by PlaceOrder for an empty or
// malformed cart snapshot.
var ErrOrderItemsRequired = errors.New("order items required")

// ErrOrderTotalMismatch is returned by PlaceOrder when the client-submitted
// total differs from the total recomputed from the line items.
var ErrOrderTotalMismatch = errors.New("order total does not match its items")

// totalTolerance absorbs float noise accumulated by clients summing
// price*quantity in a different order than the server.
const totalTolerance = 1e-9

// Service implements the storefront operations over a storage backend and
// a token issuer.
type Service struct {
	db     repository
	tokens tokenIssuer
}

// New creates a Service.
func New(db repository, tokens tokenIssuer) *Service {
	return &Service{
		db:     db,
		tokens: tokens,
	}
}

// Register creates a new user with a hashed password and an empty order
// history. A taken username surfaces as models.ErrUserAlreadyExists.
func (s *Service) Register(ctx context.Context, request models.RegisterRequest) error {
	hash, err := passhash.Hash(request.Password)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTransaction()
	if err != nil {
		return err
	}
	defer func() {
		_ = s.db.RollbackTransaction(tx)
	}()

	_, err = s.db.CreateUser(
		ctx,
		&user.User{
			ID:            uuid.New().String(),
			Username:      request.Username,
			PasswordHash:  hash,
			Name:          request.Name,
			Surname:       request.Surname,
			Address:       request.Address,
			PaymentMethod: request.PaymentMethod,
			Orders:        []string{},
		},
		tx,
	)
	if err != nil {
		return err
	}

	return s.db.CommitTransaction(tx)
}

// Login validates the credentials and returns a fresh bearer token along
// with the user's outward profile. The password hash never leaves the
// service boundary.
func (s *Service) Login(ctx context.Context, username, password string) (string, models.UserInfo, error) {
	usr, found, err := s.db.FindUserByUsername(ctx, username, nil)
	if err != nil {
		return "", models.UserInfo{}, err
	}
	if !found {
		return "", models.UserInfo{}, ErrInvalidCredentials
	}

	if err := passhash.Compare(password, usr.PasswordHash); err != nil {
		if errors.Is(err, passhash.ErrMismatch) {
			return "", models.UserInfo{}, ErrInvalidCredentials
		}

		return "", models.UserInfo{}, err
	}

	tokenString, err := s.tokens.Issue(usr.ID)
	if err != nil {
		return "", models.UserInfo{}, err
	}

	return tokenString, toUserInfo(usr), nil
}

// GetProfile returns the outward profile of the given user.
func (s *Service) GetProfile(ctx context.Context, userID string) (models.UserInfo, error) {
	usr, found, err := s.db.FindUserByID(ctx, userID, nil)
	if err != nil {
		return models.UserInfo{}, err
	}
	if !found {
		return models.UserInfo{}, models.ErrUserNotFound
	}

	return toUserInfo(usr), nil
}

// UpdateProfile overwrites exactly the fields supplied in the request:
// a nil pointer preserves the stored value, a pointer to "" clears it.
func (s *Service) UpdateProfile(
	ctx context.Context,
	userID string,
	request models.ProfileUpdateRequest,
) (models.UserInfo, error) {
	tx, err := s.db.BeginTransaction()
	if err != nil {
		return models.UserInfo{}, err
	}
	defer func() {
		_ = s.db.RollbackTransaction(tx)
	}()

	usr, found, err := s.db.FindUserByID(ctx, userID, tx)
	if err != nil {
		return models.UserInfo{}, err
	}
	if !found {
		return models.UserInfo{}, models.ErrUserNotFound
	}

	if request.Name != nil {
		usr.Name = *request.Name
	}
	if request.Surname != nil {
		usr.Surname = *request.Surname
	}
	if request.Address != nil {
		usr.Address = *request.Address
	}
	if request.PaymentMethod != nil {
		usr.PaymentMethod = *request.PaymentMethod
	}

	if err := s.db.UpdateUser(ctx, usr, tx); err != nil {
		return models.UserInfo{}, err
	}

	if err := s.db.CommitTransaction(tx); err != nil {
		return models.UserInfo{}, err
	}

	return toUserInfo(usr), nil
}

// PlaceOrder validates the cart snapshot, recomputes the total
// server-side and persists the order together with the owning user's
// order-reference append in one transaction. It returns the created,
// immutable order.
func (s *Service) PlaceOrder(
	ctx context.Context,
	userID string,
	items []order.Item,
	total float64,
) (*order.Order, error) {
	if len(items) == 0 {
		return nil, ErrOrderItemsRequired
	}
	if invalid := funk.Find(items, func(item order.Item) bool {
		return item.Quantity <= 0 || item.Price < 0
	}); invalid != nil {
		return nil, ErrOrderItemsRequired
	}

	computedTotal := computeTotal(items)
	if math.Abs(computedTotal-total) > totalTolerance {
		return nil, ErrOrderTotalMismatch
	}

	tx, err := s.db.BeginTransaction()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = s.db.RollbackTransaction(tx)
	}()

	_, found, err := s.db.FindUserByID(ctx, userID, tx)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.ErrUserNotFound
	}

	ord := &order.Order{
		ID:        uuid.New().String(),
		UserID:    userID,
		Items:     items,
		Total:     computedTotal,
		CreatedAt: time.Now(),
	}

	if err := s.db.InsertOrder(ctx, ord, tx); err != nil {
		return nil, err
	}

	if err := s.db.AppendOrderReference(ctx, userID, ord.ID, tx); err != nil {
		return nil, err
	}

	if err := s.db.CommitTransaction(tx); err != nil {
		return nil, err
	}

	return ord, nil
}

// ListOrders returns the user's orders ordered by creation time ascending.
// A user without orders gets an empty slice, not an error.
func (s *Service) ListOrders(ctx context.Context, userID string) ([]order.Order, error) {
	_, found, err := s.db.FindUserByID(ctx, userID, nil)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.ErrUserNotFound
	}

	return s.db.FindOrdersByUser(ctx, userID)
}

// ListProducts returns the catalog for clients to build cart lines from.
func (s *Service) ListProducts(ctx context.Context) ([]product.Product, error) {
	return s.db.FindProducts(ctx)
}

// GetInternalStats returns counters for the internal stats endpoint.
func (s *Service) GetInternalStats(ctx context.Context) (models.InternalStatsResponse, error) {
	users, err := s.db.GetNumberOfUsers(ctx)
	if err != nil {
		return models.InternalStatsResponse{}, err
	}

	orders, err := s.db.GetNumberOfOrders(ctx)
	if err != nil {
		return models.InternalStatsResponse{}, err
	}

	return models.InternalStatsResponse{
		Users:  users,
		Orders: orders,
	}, nil
}

// Ping checks the health of the database/storage layer.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func computeTotal(items []order.Item) float64 {
	var total float64
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}

	return total
}

func toUserInfo(usr *user.User) models.UserInfo {
	orders := usr.Orders
	if orders == nil {
		orders = []string{}
	}

	return models.UserInfo{
		ID:            usr.ID,
		Username:      usr.Username,
		Name:          usr.Name,
		Surname:       usr.Surname,
		Address:       usr.Address,
		PaymentMethod: usr.PaymentMethod,
		Orders:        orders,
	}
}
