package domain

import "time"

// AuthResponse is what every successful credential operation returns: the
// short-lived access token (JWT) and the opaque refresh token.
type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"` // always "Bearer"
	ExpiresIn    int    `json:"expires_in"` // seconds, informational; exp inside the token governs
	RefreshToken string `json:"refresh_token"`
}

// RefreshToken models the stored refresh token record. The record is keyed
// by the SHA-256 fingerprint of the opaque value; the value itself is never
// persisted. Rows are immutable except for the one-way revoke transition and
// are kept after revocation as an audit trail.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string // base64url SHA-256 of the opaque token
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
