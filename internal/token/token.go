// Package token issues and verifies the signed bearer tokens that carry an
// authenticated user identity between requests. Tokens are stateless: no
// revocation list exists, validity is determined by signature and expiry
// alone.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Claims represents the JWT claims used by the system.
// It embeds standard JWT claims and adds a user-specific identifier.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// ErrInvalidToken is returned for malformed tokens and signature
// mismatches. The caller must re-authenticate.
var ErrInvalidToken = errors.New("invalid token")

// ErrTokenExpired is returned for a structurally valid token whose
// lifetime has elapsed. The caller must re-authenticate.
var ErrTokenExpired = errors.New("token expired")

// Service signs and verifies bearer tokens with an HMAC secret injected at
// construction time.
type Service struct {
	signingSecretKey []byte
	tokenTTL         time.Duration
}

// New creates a token Service. signingSecretKey must be non-empty;
// tokenTTL is the fixed lifetime of every issued token.
func New(signingSecretKey []byte, tokenTTL time.Duration) *Service {
	return &Service{
		signingSecretKey: signingSecretKey,
		tokenTTL:         tokenTTL,
	}
}

// Issue returns a signed token binding userID to an expiry instant
// tokenTTL from now.
func (s *Service) Issue(userID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(
		jwt.SigningMethodHS256,
		Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			},
			UserID: userID,
		},
	)

	tokenString, err := token.SignedString(s.signingSecretKey)
	if err != nil {
		return "", fmt.Errorf("in internal/token/token.go/Issue(): error while `token.SignedString()` calling: %w", err)
	}

	return tokenString, nil
}

// Verify checks tokenString and returns the user identity it carries.
// Expired tokens yield ErrTokenExpired, everything else that fails to
// parse or verify yields ErrInvalidToken.
func (s *Service) Verify(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return s.signingSecretKey, nil
		},
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrInvalidToken
	}
	if !token.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}

	return claims.UserID, nil
}
