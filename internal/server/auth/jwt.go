// Package auth holds the credential primitives of the server: parsing and
// verifying stored password hashes, hashing new passwords, and issuing and
// validating access tokens.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/aidesk/internal/common"
	"github.com/dmitrijs2005/aidesk/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the signed payload of an access token.
type Claims struct {
	PrincipalID int64                `json:"id"`
	Email       string               `json:"email"`
	Role        string               `json:"role"`
	Type        models.PrincipalType `json:"type"`
	jwt.RegisteredClaims
}

// Identity returns the principal the token was issued to.
func (c *Claims) Identity() models.Identity {
	return models.Identity{ID: c.PrincipalID, Email: c.Email, Role: c.Role, Type: c.Type}
}

// Issuer signs and validates HS256 access tokens with one secret and one TTL.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer returns an Issuer for the given secret and token lifetime.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL is the lifetime of issued tokens.
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue signs a token for p and returns it with its expiry time.
func (i *Issuer) Issue(p models.Principal) (string, time.Time, error) {
	id := p.Identity()
	if !id.Type.Valid() {
		return "", time.Time{}, fmt.Errorf("issue token: unknown principal type %q", id.Type)
	}

	now := i.now()
	expiresAt := now.Add(i.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		PrincipalID: id.ID,
		Email:       id.Email,
		Role:        id.Role,
		Type:        id.Type,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate checks the signature and expiry of tokenString. An expired token
// yields common.ErrTokenExpired; any other problem yields common.ErrInvalidToken.
func (i *Issuer) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || !claims.Type.Valid() {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
