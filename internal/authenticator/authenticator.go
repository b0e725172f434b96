// Package authenticator declares the middleware contract the router needs
// from the auth layer, so handler tests can substitute a pass-through.
package authenticator

import "net/http"

// Authenticator gates protected routes.
type Authenticator interface {
	AuthenticateUser(h http.Handler) http.Handler
}
