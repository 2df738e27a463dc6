// Package auth issues and verifies the session tokens of the auth service
// and hashes account passwords.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenLifetime is how long an issued token stays valid.
const DefaultTokenLifetime = 2 * time.Hour

// Claims carries the identity asserted by a token next to the standard
// registered claims.
type Claims struct {
	jwt.RegisteredClaims
	UserID string      `json:"id"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
}

// Identity returns the identity carried by the claims.
func (c *Claims) Identity() models.Identity {
	return models.Identity{ID: c.UserID, Email: c.Email, Role: c.Role}
}

// Issuer signs HS256 tokens with a shared secret.
type Issuer struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewIssuer returns an Issuer. A non-positive lifetime falls back to
// DefaultTokenLifetime.
func NewIssuer(secret []byte, lifetime time.Duration) *Issuer {
	if lifetime <= 0 {
		lifetime = DefaultTokenLifetime
	}
	return &Issuer{secret: secret, lifetime: lifetime, now: time.Now}
}

// Sign issues a token for id that expires after the issuer lifetime.
func (i *Issuer) Sign(id models.Identity) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.lifetime)),
		},
		UserID: id.ID,
		Email:  id.Email,
		Role:   id.Role,
	})

	return token.SignedString(i.secret)
}

// Parse verifies tokenString and returns its claims. Expired tokens yield
// common.ErrTokenExpired, anything else that fails yields
// common.ErrInvalidToken.
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
