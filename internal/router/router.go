// Package router wires the chi mux and implements the HTTP handlers of the
// storefront API. Handlers decode and validate the JSON payloads, map the
// service error taxonomy onto status codes and never touch storage
// directly.
package router

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/storefront/internal/auth"
	"github.com/patric-chuzhbe/storefront/internal/authenticator"
	"github.com/patric-chuzhbe/storefront/internal/gzippedhttp"
	"github.com/patric-chuzhbe/storefront/internal/ipchecker"
	"github.com/patric-chuzhbe/storefront/internal/logger"
	"github.com/patric-chuzhbe/storefront/internal/models"
	"github.com/patric-chuzhbe/storefront/internal/service"
)

var validate = validator.New()

// Router holds the handlers of the storefront API.
type Router struct {
	service   *service.Service
	ipChecker *ipchecker.IPChecker
}

// New assembles the chi mux: public routes, the token-gated group and the
// static product images.
func New(
	theService *service.Service,
	theAuth authenticator.Authenticator,
	theIPChecker *ipchecker.IPChecker,
	imagesDir string,
) http.Handler {
	myRouter := Router{
		service:   theService,
		ipChecker: theIPChecker,
	}

	router := chi.NewRouter()
	router.Use(
		logger.WithLoggingHTTPMiddleware,
		gzippedhttp.UngzipRequest,
		gzippedhttp.GzipResponse,
	)

	router.Get(`/ping`, myRouter.GetPing)

	router.Route(`/api`, func(r chi.Router) {
		r.Post(`/users/register`, myRouter.PostApiusersregister)
		r.Post(`/users/login`, myRouter.PostApiuserslogin)
		r.Get(`/products`, myRouter.GetApiproducts)
		r.Get(`/internal/stats`, myRouter.GetApiinternalstats)

		r.Group(func(r chi.Router) {
			r.Use(theAuth.AuthenticateUser)
			r.Get(`/users/me`, myRouter.GetApiusersme)
			r.Put(`/users/me`, myRouter.PutApiusersme)
			r.Get(`/users/me/orders`, myRouter.GetApiusersmeorders)
			r.Post(`/orders`, myRouter.PostApiorders)
		})
	})

	router.Handle(
		`/images/*`,
		http.StripPrefix("/images/", http.FileServer(http.Dir(imagesDir))),
	)

	return router
}

// PostApiusersregister handles user registration.
func (router *Router) PostApiusersregister(response http.ResponseWriter, request *http.Request) {
	var registerRequest models.RegisterRequest
	if err := json.NewDecoder(request.Body).Decode(&registerRequest); err != nil {
		writeJSON(response, http.StatusBadRequest, models.MessageResponse{Message: "invalid request"})

		return
	}

	if err := validate.Struct(registerRequest); err != nil {
		writeJSON(response, http.StatusBadRequest, models.MessageResponse{Message: "Username and password required"})

		return
	}

	err := router.service.Register(request.Context(), registerRequest)
	if errors.Is(err, models.ErrUserAlreadyExists) {
		writeJSON(response, http.StatusBadRequest, models.MessageResponse{Message: "User already exists"})

		return
	}
	if err != nil {
		logger.Log.Debugln("Error calling the `router.service.Register()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)

		return
	}

	writeJSON(response, http.StatusCreated, models.MessageResponse{Message: "User registered successfully"})
}

// PostApiuserslogin handles login and returns the issued bearer token
// together with the user profile.
func (router *Router) PostApiuserslogin(response http.ResponseWriter, request *http.Request) {
	var loginRequest models.LoginRequest
	if err := json.NewDecoder(request.Body).Decode(&loginRequest); err != nil {
		writeJSON(response, http.StatusBadRequest, models.MessageResponse{Message: "invalid request"})

		return
	}

	tokenString, userInfo, err := router.service.Login(request.Context(), loginRequest.Username, loginRequest.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		writeJSON(response, http.StatusBadRequest, models.MessageResponse{Message: "Invalid username or password"})

		return
	}
	if err != nil {
		logger.Log.Debugln("Error calling the `router.service.Login()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)

		return
	}

	writeJSON(response, http.StatusOK, models.LoginResponse{
		Token: tokenString,
		User:  userInfo,
	})
}

// GetApiusersme returns the authenticated user's profile.
func (router *Router) GetApiusersme(response http.ResponseWriter, request *http.Request) {
	userInfo, err := router.service.GetProfile(request.Context(), auth.UserIDFromContext(request.Context()))
	if errors.Is(err, models.ErrUserNotFound) {
		writeJSON(response, http.StatusNotFound, models.MessageResponse{Message: "User not found"})

		return
	}
	if err != nil {
		logger.Log.Debugln("Error calling the `router.service.GetProfile()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)

		return
	}

	writeJSON(response, http.StatusOK, userInfo)
}

// PutApiusersme applies a partial profile update: only the fields present
// in the JSON body overwrite stored values.
func (router *Router) PutApiusersme(response http.ResponseWriter, request *http.Request) {
	var updateRequest models.ProfileUpdateRequest
	if err := json.NewDecoder(request.Body).Decode(&updateRequest); err != nil {
		writeJSON(response, http.StatusBadRequest, models.MessageResponse{Message: "invalid request"})

		return
	}

	userInfo, err := router.service.UpdateProfile(
		request.Context(),
		auth.UserIDFromContext(request.Context()),
		updateRequest,
	)
	if errors.Is(err, models.ErrUserNotFound) {
		writeJSON(response, http.StatusNotFound, models.MessageResponse{Message: "User not found"})

		return
	}
	if err != nil {
		logger.Log.Debugln("Error calling the `router.service.UpdateProfile()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)

		return
	}

	writeJSON(response, http.StatusOK, userInfo)
}

// PostApiorders places an order for the authenticated user from the
// submitted cart snapshot.
func (router *Router) PostApiorders(response http.ResponseWriter, request *http.Request) {
	var orderRequest models.OrderRequest
	if err := json.NewDecoder(request.Body).Decode(&orderRequest); err != nil {
		writeJSON(response, http.StatusBadRequest, models.MessageResponse{Message: "invalid request"})

		return
	}

	if err := validate.Struct(orderRequest); err != nil {
		writeJSON(response, http.StatusBadRequest, models.MessageResponse{Message: "Order items required"})

		return
	}

	ord, err := router.service.PlaceOrder(
		request.Context(),
		auth.UserIDFromContext(request.Context()),
		orderRequest.Items,
		orderRequest.Total,
	)
	switch {
	case errors.Is(err, service.ErrOrderItemsRequired):
		writeJSON(response, http.StatusBadRequest, models.MessageResponse{Message: "Order items required"})

		return

	case errors.Is(err, service.ErrOrderTotalMismatch):
		writeJSON(response, http.StatusBadRequest, models.MessageResponse{Message: "Order total does not match its items"})

		return

	case errors.Is(err, models.ErrUserNotFound):
		writeJSON(response, http.StatusNotFound, models.MessageResponse{Message: "User not found"})

		return

	case err != nil:
		logger.Log.Debugln("Error calling the `router.service.PlaceOrder()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)

		return
	}

	writeJSON(response, http.StatusCreated, models.OrderResponse{
		Message: "Order placed",
		Order:   *ord,
	})
}

// GetApiusersmeorders returns the authenticated user's order history,
// oldest first.
func (router *Router) GetApiusersmeorders(response http.ResponseWriter, request *http.Request) {
	orders, err := router.service.ListOrders(request.Context(), auth.UserIDFromContext(request.Context()))
	if errors.Is(err, models.ErrUserNotFound) {
		writeJSON(response, http.StatusNotFound, models.MessageResponse{Message: "User not found"})

		return
	}
	if err != nil {
		logger.Log.Debugln("Error calling the `router.service.ListOrders()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)

		return
	}

	writeJSON(response, http.StatusOK, orders)
}

// GetApiproducts returns the product catalog.
func (router *Router) GetApiproducts(response http.ResponseWriter, request *http.Request) {
	products, err := router.service.ListProducts(request.Context())
	if err != nil {
		logger.Log.Debugln("Error calling the `router.service.ListProducts()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)

		return
	}

	writeJSON(response, http.StatusOK, products)
}

// GetApiinternalstats returns user and order counters to callers from the
// trusted subnet only.
func (router *Router) GetApiinternalstats(response http.ResponseWriter, request *http.Request) {
	if router.ipChecker.IsTrustedSubnetEmpty() {
		response.WriteHeader(http.StatusForbidden)

		return
	}

	clientIP, err := router.ipChecker.GetClientIP(request)
	if err != nil || !router.ipChecker.Check(clientIP) {
		response.WriteHeader(http.StatusForbidden)

		return
	}

	stats, err := router.service.GetInternalStats(request.Context())
	if err != nil {
		logger.Log.Debugln("Error calling the `router.service.GetInternalStats()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)

		return
	}

	writeJSON(response, http.StatusOK, stats)
}

// GetPing reports the health of the storage layer.
func (router *Router) GetPing(response http.ResponseWriter, request *http.Request) {
	if err := router.service.Ping(request.Context()); err != nil {
		logger.Log.Debugln("Error calling the `router.service.Ping()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)

		return
	}

	response.WriteHeader(http.StatusOK)
}

func writeJSON(response http.ResponseWriter, statusCode int, payload interface{}) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(statusCode)
	if err := json.NewEncoder(response).Encode(payload); err != nil {
		logger.Log.Debugln("Error calling the `json.NewEncoder().Encode()`: ", zap.Error(err))
	}
}
