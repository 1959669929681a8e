package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Signer signs access-token claims.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
}

// Verifier parses and verifies a raw token, returning its claims.
// Transport middleware external to the core uses this to gate requests.
type Verifier interface {
	Verify(raw string) (Claims, error)
}

const minKeyBytes = 32

// HS256 signs and verifies tokens with a shared symmetric key.
// The same key must be distributed to every service that verifies tokens.
type HS256 struct {
	key []byte
}

// NewHS256 builds a symmetric signer/verifier. Keys shorter than 256 bits
// are rejected outright rather than silently weakening every token.
func NewHS256(key []byte) (*HS256, error) {
	if len(key) < minKeyBytes {
		return nil, fmt.Errorf("jwtx: HS256 key must be at least %d bytes, got %d", minKeyBytes, len(key))
	}
	return &HS256{key: key}, nil
}

func (s *HS256) Alg() string { return "HS256" }

// Sign produces a compact JWS for the given claims.
func (s *HS256) Sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.key)
}

// Verify parses raw, checks the HS256 signature and standard time claims,
// and returns the embedded claims.
func (s *HS256) Verify(raw string) (Claims, error) {
	var claims Claims

	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("jwtx: unexpected signing method %q", t.Method.Alg())
		}
		return s.key, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, ErrExpired
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return Claims{}, ErrNotYetValid
		default:
			return Claims{}, ErrInvalidToken
		}
	}

	return claims, nil
}
