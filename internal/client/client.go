// Package client is a typed HTTP client for the storefront API. It keeps
// the bearer token obtained at login and attaches it to every protected
// call; the cart state machine submits its checkout snapshot through it.
package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/patric-chuzhbe/storefront/internal/models"
	"github.com/patric-chuzhbe/storefront/internal/order"
	"github.com/patric-chuzhbe/storefront/internal/product"
)

// Client talks to a storefront server. It is not safe for concurrent use:
// like the cart it belongs to a single client session.
type Client struct {
	http        *resty.Client
	bearerToken string
}

// New creates a Client for the API at baseURL.
func New(baseURL string) *Client {
	return &Client{
		http: resty.New().SetBaseURL(baseURL),
	}
}

// Authenticated reports whether a login has stored a bearer token.
func (c *Client) Authenticated() bool {
	return c.bearerToken != ""
}

// Register creates a new account. The call does not log the user in.
func (c *Client) Register(ctx context.Context, request models.RegisterRequest) error {
	var confirmation models.MessageResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(request).
		SetResult(&confirmation).
		Post("/api/users/register")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return apiError(resp)
	}

	return nil
}

// Login validates the credentials and stores the issued bearer token for
// subsequent protected calls.
func (c *Client) Login(ctx context.Context, username, password string) (models.UserInfo, error) {
	var loginResponse models.LoginResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(models.LoginRequest{Username: username, Password: password}).
		SetResult(&loginResponse).
		Post("/api/users/login")
	if err != nil {
		return models.UserInfo{}, err
	}
	if resp.IsError() {
		return models.UserInfo{}, apiError(resp)
	}

	c.bearerToken = loginResponse.Token

	return loginResponse.User, nil
}

// Logout drops the stored bearer token.
func (c *Client) Logout() {
	c.bearerToken = ""
}

// Me returns the profile of the logged in user.
func (c *Client) Me(ctx context.Context) (models.UserInfo, error) {
	var userInfo models.UserInfo
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.bearerToken).
		SetResult(&userInfo).
		Get("/api/users/me")
	if err != nil {
		return models.UserInfo{}, err
	}
	if resp.IsError() {
		return models.UserInfo{}, apiError(resp)
	}

	return userInfo, nil
}

// UpdateMe applies a partial profile update and returns the new profile.
func (c *Client) UpdateMe(ctx context.Context, request models.ProfileUpdateRequest) (models.UserInfo, error) {
	var userInfo models.UserInfo
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.bearerToken).
		SetBody(request).
		SetResult(&userInfo).
		Put("/api/users/me")
	if err != nil {
		return models.UserInfo{}, err
	}
	if resp.IsError() {
		return models.UserInfo{}, apiError(resp)
	}

	return userInfo, nil
}

// PlaceOrder submits a cart snapshot and returns the created order.
func (c *Client) PlaceOrder(ctx context.Context, items []order.Item, total float64) (*order.Order, error) {
	var orderResponse models.OrderResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.bearerToken).
		SetBody(models.OrderRequest{Items: items, Total: total}).
		SetResult(&orderResponse).
		Post("/api/orders")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}

	return &orderResponse.Order, nil
}

// Orders returns the order history of the logged in user, oldest first.
func (c *Client) Orders(ctx context.Context) ([]order.Order, error) {
	var orders []order.Order
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.bearerToken).
		SetResult(&orders).
		Get("/api/users/me/orders")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}

	return orders, nil
}

// Products returns the catalog to build cart lines from.
func (c *Client) Products(ctx context.Context) ([]product.Product, error) {
	var products []product.Product
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&products).
		Get("/api/products")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}

	return products, nil
}

func apiError(resp *resty.Response) error {
	var message models.MessageResponse
	if err := json.Unmarshal(resp.Body(), &message); err == nil && message.Message != "" {
		return fmt.Errorf("server responded %d: %s", resp.StatusCode(), message.Message)
	}

	return fmt.Errorf("server responded %d", resp.StatusCode())
}
