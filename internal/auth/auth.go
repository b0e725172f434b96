// Package auth provides the session middleware that gates protected
// endpoints. It extracts the bearer token from the Authorization header,
// verifies it and injects the resolved user identity into the request
// context; handlers learn "who is calling" from the context only.
package auth

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/patric-chuzhbe/storefront/internal/logger"
)

type tokenVerifier interface {
	Verify(tokenString string) (string, error)
}

// Auth authenticates incoming HTTP requests with bearer tokens.
type Auth struct {
	tokens tokenVerifier
}

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

// UserIDKey is the context key used to store and retrieve the authenticated user's ID.
const UserIDKey ContextKey = "userID"

// New creates a new Auth middleware around the given token verifier.
func New(tokens tokenVerifier) *Auth {
	return &Auth{tokens: tokens}
}

// AuthenticateUser is an HTTP middleware that fails closed: a missing
// credential is rejected with 401 before any business logic runs, an
// invalid or expired one with 403. On success the user ID is added to the
// request context under UserIDKey.
func (a *Auth) AuthenticateUser(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		tokenString := bearerToken(request)
		if tokenString == "" {
			response.WriteHeader(http.StatusUnauthorized)

			return
		}

		userID, err := a.tokens.Verify(tokenString)
		if err != nil {
			logger.Log.Debugln("Error calling the `a.tokens.Verify()`: ", zap.Error(err))
			response.WriteHeader(http.StatusForbidden)

			return
		}

		ctx := context.WithValue(request.Context(), UserIDKey, userID)
		h.ServeHTTP(response, request.WithContext(ctx))
	}

	return http.HandlerFunc(middleware)
}

// UserIDFromContext returns the authenticated user identity stored by
// AuthenticateUser, or "" when the request never passed the middleware.
func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)

	return userID
}

func bearerToken(request *http.Request) string {
	header := request.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return parts[1]
}
