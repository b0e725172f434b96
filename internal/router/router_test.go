package router

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/storefront/internal/auth"
	"github.com/patric-chuzhbe/storefront/internal/db/memorystorage"
	"github.com/patric-chuzhbe/storefront/internal/ipchecker"
	"github.com/patric-chuzhbe/storefront/internal/mockstorage"
	"github.com/patric-chuzhbe/storefront/internal/models"
	"github.com/patric-chuzhbe/storefront/internal/order"
	"github.com/patric-chuzhbe/storefront/internal/product"
	"github.com/patric-chuzhbe/storefront/internal/service"
	"github.com/patric-chuzhbe/storefront/internal/token"
)

var testSigningSecret = []byte("test-signing-secret")

// newTestServer tolerates a nil t so the Example functions can reuse it;
// those callers must Close the returned server themselves.
func newTestServer(t *testing.T, trustedSubnet string) (*httptest.Server, *memorystorage.MemoryStorage) {
	storage, err := memorystorage.New()
	if t != nil {
		t.Helper()
		require.NoError(t, err)
	}

	tokens := token.New(testSigningSecret, time.Hour)
	theService := service.New(storage, tokens)
	theIPChecker, err := ipchecker.New(trustedSubnet)
	if t != nil {
		require.NoError(t, err)
	}

	server := httptest.NewServer(New(
		theService,
		auth.New(tokens),
		theIPChecker,
		"testdata",
	))
	if t != nil {
		t.Cleanup(server.Close)
		t.Cleanup(func() { storage.Close() })
	}

	return server, storage
}

func registerAndLogin(t *testing.T, client *resty.Client, username, password string) (string, models.UserInfo) {
	t.Helper()

	response, err := client.R().
		SetBody(models.RegisterRequest{Username: username, Password: password}).
		Post("/api/users/register")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, response.StatusCode())

	var loginResponse models.LoginResponse
	response, err = client.R().
		SetBody(models.LoginRequest{Username: username, Password: password}).
		SetResult(&loginResponse).
		Post("/api/users/login")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, response.StatusCode())
	require.NotEmpty(t, loginResponse.Token)

	return loginResponse.Token, loginResponse.User
}

func TestRegister(t *testing.T) {
	server, _ := newTestServer(t, "")
	client := resty.New().SetBaseURL(server.URL)

	testCases := []struct {
		name            string
		body            interface{}
		expectedStatus  int
		expectedMessage string
	}{
		{
			name:            "successful registration",
			body:            models.RegisterRequest{Username: "alice", Password: "pw1"},
			expectedStatus:  http.StatusCreated,
			expectedMessage: "User registered successfully",
		},
		{
			name:            "duplicate username",
			body:            models.RegisterRequest{Username: "alice", Password: "pw2"},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "User already exists",
		},
		{
			name:            "missing password",
			body:            map[string]string{"username": "bob"},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Username and password required",
		},
		{
			name:            "missing username",
			body:            map[string]string{"password": "pw"},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Username and password required",
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			var message models.MessageResponse
			response, err := client.R().
				SetBody(testCase.body).
				SetResult(&message).
				SetError(&message).
				Post("/api/users/register")
			require.NoError(t, err)
			assert.Equal(t, testCase.expectedStatus, response.StatusCode())
			assert.Equal(t, testCase.expectedMessage, message.Message)
		})
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	server, _ := newTestServer(t, "")
	client := resty.New().SetBaseURL(server.URL)
	registerAndLogin(t, client, "alice", "pw1")

	testCases := []struct {
		name string
		body models.LoginRequest
	}{
		{name: "wrong password", body: models.LoginRequest{Username: "alice", Password: "wrong"}},
		{name: "unknown user", body: models.LoginRequest{Username: "nobody", Password: "pw1"}},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			var message models.MessageResponse
			response, err := client.R().
				SetBody(testCase.body).
				SetError(&message).
				Post("/api/users/login")
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, response.StatusCode())
			assert.Equal(t, "Invalid username or password", message.Message)
		})
	}
}

func TestLoginNeverExposesPasswordHash(t *testing.T) {
	server, _ := newTestServer(t, "")
	client := resty.New().SetBaseURL(server.URL)
	registerAndLogin(t, client, "alice", "pw1")

	response, err := client.R().
		SetBody(models.LoginRequest{Username: "alice", Password: "pw1"}).
		Post("/api/users/login")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, response.StatusCode())
	assert.NotContains(t, string(response.Body()), "password")
}

func TestProtectedEndpointsRequireToken(t *testing.T) {
	server, _ := newTestServer(t, "")
	client := resty.New().SetBaseURL(server.URL)

	testCases := []struct {
		name           string
		authorization  string
		expectedStatus int
	}{
		{
			name:           "missing token",
			authorization:  "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "malformed token",
			authorization:  "Bearer not.a.token",
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "token signed with another secret",
			authorization:  "Bearer " + issueWith(t, []byte("another-secret"), time.Hour),
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "expired token",
			authorization:  "Bearer " + issueWith(t, testSigningSecret, -time.Minute),
			expectedStatus: http.StatusForbidden,
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			request := client.R()
			if testCase.authorization != "" {
				request.SetHeader("Authorization", testCase.authorization)
			}
			response, err := request.Get("/api/users/me")
			require.NoError(t, err)
			assert.Equal(t, testCase.expectedStatus, response.StatusCode())
		})
	}
}

func issueWith(t *testing.T, secret []byte, ttl time.Duration) string {
	t.Helper()

	tokenString, err := token.New(secret, ttl).Issue("user-1")
	require.NoError(t, err)

	return tokenString
}

func TestGetAndUpdateProfile(t *testing.T) {
	server, _ := newTestServer(t, "")
	client := resty.New().SetBaseURL(server.URL)
	bearer, registered := registerAndLogin(t, client, "alice", "pw1")
	client.SetAuthToken(bearer)

	var profile models.UserInfo
	response, err := client.R().SetResult(&profile).Get("/api/users/me")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, response.StatusCode())
	assert.Equal(t, registered, profile)

	var updated models.UserInfo
	response, err = client.R().
		SetBody(map[string]string{"name": "Alice", "address": "1 Main st"}).
		SetResult(&updated).
		Put("/api/users/me")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, response.StatusCode())
	assert.Equal(t, "Alice", updated.Name)
	assert.Equal(t, "1 Main st", updated.Address)

	// An omitted field is preserved, an empty string clears.
	response, err = client.R().
		SetBody(map[string]string{"name": ""}).
		SetResult(&updated).
		Put("/api/users/me")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, response.StatusCode())
	assert.Empty(t, updated.Name)
	assert.Equal(t, "1 Main st", updated.Address)
}

func TestPlaceOrderFlow(t *testing.T) {
	server, storage := newTestServer(t, "")
	storage.Cache.Products = []product.Product{
		{ID: "p1", Name: "Laptop", Price: 20, Image: "/images/p1.png"},
		{ID: "p2", Name: "Mouse", Price: 5, Image: "/images/p2.png"},
	}

	client := resty.New().SetBaseURL(server.URL)
	bearer, _ := registerAndLogin(t, client, "alice", "pw1")
	client.SetAuthToken(bearer)

	var products []product.Product
	response, err := client.R().SetResult(&products).Get("/api/products")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, response.StatusCode())
	require.Len(t, products, 2)

	var orderResponse models.OrderResponse
	response, err = client.R().
		SetBody(models.OrderRequest{
			Items: []order.Item{
				{ProductID: "p1", Name: "Laptop", Price: 20, Quantity: 2},
			},
			Total: 40,
		}).
		SetResult(&orderResponse).
		Post("/api/orders")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, response.StatusCode())
	assert.Equal(t, "Order placed", orderResponse.Message)
	assert.NotEmpty(t, orderResponse.Order.ID)
	assert.InDelta(t, 40, orderResponse.Order.Total, 1e-9)

	var orders []order.Order
	response, err = client.R().SetResult(&orders).Get("/api/users/me/orders")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, response.StatusCode())
	require.Len(t, orders, 1)
	assert.Equal(t, orderResponse.Order.ID, orders[0].ID)

	var profile models.UserInfo
	response, err = client.R().SetResult(&profile).Get("/api/users/me")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, response.StatusCode())
	assert.Equal(t, []string{orderResponse.Order.ID}, profile.Orders)
}

func TestPlaceOrderRejections(t *testing.T) {
	server, _ := newTestServer(t, "")
	client := resty.New().SetBaseURL(server.URL)
	bearer, _ := registerAndLogin(t, client, "alice", "pw1")
	client.SetAuthToken(bearer)

	testCases := []struct {
		name            string
		body            models.OrderRequest
		expectedMessage string
	}{
		{
			name:            "empty items",
			body:            models.OrderRequest{Items: []order.Item{}, Total: 0},
			expectedMessage: "Order items required",
		},
		{
			name: "total mismatch",
			body: models.OrderRequest{
				Items: []order.Item{
					{ProductID: "p1", Price: 20, Quantity: 2},
				},
				Total: 250,
			},
			expectedMessage: "Order total does not match its items",
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			var message models.MessageResponse
			response, err := client.R().
				SetBody(testCase.body).
				SetError(&message).
				Post("/api/orders")
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, response.StatusCode())
			assert.Equal(t, testCase.expectedMessage, message.Message)
		})
	}
}

func TestInternalStats(t *testing.T) {
	t.Run("no trusted subnet configured", func(t *testing.T) {
		server, _ := newTestServer(t, "")
		client := resty.New().SetBaseURL(server.URL)

		response, err := client.R().Get("/api/internal/stats")
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, response.StatusCode())
	})

	t.Run("caller outside the trusted subnet", func(t *testing.T) {
		server, _ := newTestServer(t, "10.0.0.0/8")
		client := resty.New().SetBaseURL(server.URL)

		response, err := client.R().
			SetHeader("X-Real-IP", "192.168.1.10").
			Get("/api/internal/stats")
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, response.StatusCode())
	})

	t.Run("caller inside the trusted subnet", func(t *testing.T) {
		server, _ := newTestServer(t, "10.0.0.0/8")
		client := resty.New().SetBaseURL(server.URL)
		registerAndLogin(t, client, "alice", "pw1")

		var stats models.InternalStatsResponse
		response, err := client.R().
			SetHeader("X-Real-IP", "10.1.2.3").
			SetResult(&stats).
			Get("/api/internal/stats")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, response.StatusCode())
		assert.Equal(t, int64(1), stats.Users)
		assert.Equal(t, int64(0), stats.Orders)
	})
}

func TestPing(t *testing.T) {
	server, _ := newTestServer(t, "")
	client := resty.New().SetBaseURL(server.URL)

	response, err := client.R().Get("/ping")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, response.StatusCode())
}

func TestStorageFailureYieldsInternalServerError(t *testing.T) {
	storage := new(mockstorage.StorageMock)
	storage.On("FindProducts", mock.Anything).
		Return([]product.Product(nil), errors.New("storage unavailable"))

	theService := service.New(storage, token.New(testSigningSecret, time.Hour))
	theIPChecker, err := ipchecker.New("")
	require.NoError(t, err)

	server := httptest.NewServer(New(
		theService,
		auth.New(token.New(testSigningSecret, time.Hour)),
		theIPChecker,
		t.TempDir(),
	))
	defer server.Close()

	response, err := resty.New().SetBaseURL(server.URL).R().Get("/api/products")
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, response.StatusCode())
	storage.AssertExpectations(t)
}
