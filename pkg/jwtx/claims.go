package jwtx

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultAccessTokenTTL is the default lifetime for access tokens.
// Short-lived for security; a new token requires a new mint.
const DefaultAccessTokenTTL = 15 * time.Minute

// Claims are the access-token claims shared across services. Changes must
// stay additive to preserve compatibility with deployed verifiers.
type Claims struct {
	jwt.RegisteredClaims

	// Email of the authenticated user.
	Email string `json:"email,omitempty"`

	// FullName is the display name for the user.
	FullName string `json:"full_name,omitempty"`

	// Roles the user belongs to, e.g. ["Admin","User"].
	Roles []string `json:"roles,omitempty"`

	// Permissions resolved from the user's roles, e.g. ["users:view"].
	// Authorization middleware checks these, never the roles directly.
	Permissions []string `json:"permissions,omitempty"`
}

// NewAccessClaims builds minimally-correct claims for an access token.
// The jti is a fresh random UUID per call so every minted token is unique.
func NewAccessClaims(
	subject, email, fullName string,
	roles, permissions []string,
	ttl time.Duration,
	issuer, audience string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Email:       email,
		FullName:    fullName,
		Roles:       roles,
		Permissions: permissions,
	}
}

// ValidateIssuer checks the issuer matches the expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateAudience checks at least one expected audience is present.
func (c *Claims) ValidateAudience(expected ...string) error {
	if len(expected) == 0 {
		return nil
	}
	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}
	return ErrAudience
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't used
// before it is valid (nbf).
func (c *Claims) ValidateExpiry() error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}
	return nil
}
