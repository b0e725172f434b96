// Package passhash wraps the bcrypt primitive behind the two operations the
// rest of the application needs: hashing a raw password at registration and
// verifying a login attempt against the stored hash.
package passhash

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// hashCost matches bcrypt.DefaultCost; raising it invalidates no stored
// hashes because the cost is embedded in each hash.
const hashCost = 10

// ErrMismatch reports that a password does not match the stored hash.
// It is distinct from infrastructure failures of the hashing primitive.
var ErrMismatch = errors.New("password does not match the stored hash")

// Hash produces a salted one-way hash of password.
func Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", fmt.Errorf("in internal/passhash/passhash.go/Hash(): error while `bcrypt.GenerateFromPassword()` calling: %w", err)
	}

	return string(hash), nil
}

// Compare verifies password against hash. It returns ErrMismatch for a
// wrong password and the underlying error for anything else.
func Compare(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatch
		}

		return fmt.Errorf("in internal/passhash/passhash.go/Compare(): error while `bcrypt.CompareHashAndPassword()` calling: %w", err)
	}

	return nil
}
