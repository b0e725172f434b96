// Package cart implements the client-side cart state machine: a pure,
// single-owner mapping of product to quantity with deterministic
// transitions and no network I/O except at checkout. A cart is never
// persisted server-side; it is discarded on successful checkout and on
// process restart.
package cart

import (
	"context"
	"errors"

	"github.com/patric-chuzhbe/storefront/internal/order"
	"github.com/patric-chuzhbe/storefront/internal/product"
)

// ErrEmptyCart is returned by Checkout when the cart holds no lines.
var ErrEmptyCart = errors.New("the cart is empty")

// ErrUnauthenticated is returned by Checkout when no valid bearer token is
// available; the user must log in before ordering.
var ErrUnauthenticated = errors.New("checkout requires a logged in user")

type orderPlacer interface {
	Authenticated() bool
	PlaceOrder(ctx context.Context, items []order.Item, total float64) (*order.Order, error)
}

// Cart accumulates line items for a single client session. Lines keep
// their insertion order; a line whose quantity drops to zero is removed,
// so exposed contents never show a non-positive quantity.
//
// Cart is not safe for concurrent use: it is mutated only by sequential
// user actions of its single owner.
type Cart struct {
	api   orderPlacer
	lines []order.Item
}

// New creates an empty cart submitting through api at checkout.
func New(api orderPlacer) *Cart {
	return &Cart{api: api}
}

// Add puts one unit of p into the cart. A product already present gets its
// quantity incremented; a new product is inserted with quantity 1,
// snapshotting its name and price at insertion time.
func (c *Cart) Add(p product.Product) {
	if line := c.find(p.ID); line != nil {
		line.Quantity++

		return
	}

	c.lines = append(c.lines, order.Item{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Quantity:  1,
	})
}

// Increase increments the quantity of an existing line by 1.
// It is a no-op when the product is not in the cart.
func (c *Cart) Increase(productID string) {
	if line := c.find(productID); line != nil {
		line.Quantity++
	}
}

// Decrease decrements the quantity of a line by 1 and removes the line
// entirely when the quantity reaches zero.
func (c *Cart) Decrease(productID string) {
	line := c.find(productID)
	if line == nil {
		return
	}

	line.Quantity--
	if line.Quantity <= 0 {
		c.Remove(productID)
	}
}

// Remove unconditionally deletes the line for productID if present.
func (c *Cart) Remove(productID string) {
	for i, line := range c.lines {
		if line.ProductID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)

			return
		}
	}
}

// Items returns a copy of the current cart lines in insertion order.
func (c *Cart) Items() []order.Item {
	items := make([]order.Item, len(c.lines))
	copy(items, c.lines)

	return items
}

// Total returns the sum of price times quantity over all lines.
func (c *Cart) Total() float64 {
	var total float64
	for _, line := range c.lines {
		total += line.Price * float64(line.Quantity)
	}

	return total
}

// Len returns the number of distinct lines in the cart.
func (c *Cart) Len() int {
	return len(c.lines)
}

// Checkout submits the cart snapshot and clears the cart on success.
// On any submission failure the cart is left unchanged so the user may
// retry.
func (c *Cart) Checkout(ctx context.Context) (*order.Order, error) {
	if len(c.lines) == 0 {
		return nil, ErrEmptyCart
	}
	if !c.api.Authenticated() {
		return nil, ErrUnauthenticated
	}

	placed, err := c.api.PlaceOrder(ctx, c.Items(), c.Total())
	if err != nil {
		return nil, err
	}

	c.lines = nil

	return placed, nil
}

func (c *Cart) find(productID string) *order.Item {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			return &c.lines[i]
		}
	}

	return nil
}
