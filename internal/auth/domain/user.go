package domain

import "time"

type User struct {
	ID           string
	Email        string // stored lower-case; lookups are case-insensitive
	FullName     string
	PasswordHash string // argon2 encoded
	Roles        []string

	EmailConfirmed    bool
	FailedAccessCount int
	LockoutUntil      *time.Time // nil when not locked out

	// SecurityStamp rotates whenever the password hash changes or the email
	// is confirmed. One-time codes are bound to it, so applying a code's
	// side effect retires every outstanding code for the user.
	SecurityStamp string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsLockedOut reports whether the user's lockout window covers now.
func (u User) IsLockedOut(now time.Time) bool {
	return u.LockoutUntil != nil && now.Before(*u.LockoutUntil)
}
