package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("security: invalid token")
	ErrTokenExpired = errors.New("security: token expired")
)

// Principal is the upstream-verified identity; the subject is the customer id.
type Principal struct {
	CustomerID string
	Phone      string
}

type tokenClaims struct {
	Phone string `json:"phone,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier validates HS256 tokens minted by the identity provider.
// The core only consumes the subject; issuing tokens is not its business.
type TokenVerifier struct {
	Secret []byte
}

func (v TokenVerifier) Verify(raw string) (Principal, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("security: unexpected signing method %v", t.Header["alg"])
		}
		return v.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, ErrTokenExpired
		}
		return Principal{}, ErrInvalidToken
	}
	if !token.Valid || claims.Subject == "" {
		return Principal{}, ErrInvalidToken
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return Principal{}, ErrTokenExpired
	}
	return Principal{CustomerID: claims.Subject, Phone: claims.Phone}, nil
}
