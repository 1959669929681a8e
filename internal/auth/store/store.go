package store

import (
	"context"
	"errors"
	"time"

	"github.com/almny/almny-auth/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today,
// postgres later) implement this. The credential core depends only on this
// interface, never on a driver.
type Store interface {
	Users() Users
	RefreshTokens() RefreshTokens

	ApplyMigrations() error

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transaction-scoped Store. Nested transactions are not supported.
type Tx interface {
	Users() Users
	RefreshTokens() RefreshTokens
}

// Users is the credential store: persisted user records with confirmation
// and lockout state. Email comparisons are case-insensitive; drivers store
// emails lower-cased and lower-case lookup input.
type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail returns a user by email, case-insensitively.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	// Returns ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash replaces the password hash and rotates the
	// security stamp in the same write, retiring outstanding reset codes.
	UpdatePasswordHash(ctx context.Context, userID, newHash, newStamp string) error

	// SetEmailConfirmed marks the email confirmed and rotates the security
	// stamp, retiring outstanding confirmation codes.
	SetEmailConfirmed(ctx context.Context, userID, newStamp string) error

	// IncrementFailedAccess bumps the failed-access counter. The counter is
	// a throttle; concurrent failures may race and that is acceptable.
	IncrementFailedAccess(ctx context.Context, userID string) error

	// ResetFailedAccess zeroes the counter and clears any lockout.
	ResetFailedAccess(ctx context.Context, userID string) error

	// SetLockout records a lockout window end for the user.
	SetLockout(ctx context.Context, userID string, until time.Time) error
}

// RefreshTokens is the refresh-token ledger. Tokens are stored by SHA-256
// fingerprint and never deleted on revocation; expired rows are only removed
// by housekeeping.
type RefreshTokens interface {
	// CreateRefreshToken stores a new refresh token record.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash returns the token row by fingerprint.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// ConsumeRefreshToken atomically flips revoked on the row identified by
	// hash, but only while it is still active (not revoked, not expired at
	// now). Exactly one of any number of concurrent consumers succeeds; the
	// rest get ErrNotFound. Returns the consumed row.
	ConsumeRefreshToken(ctx context.Context, hash string, now time.Time) (domain.RefreshToken, error)

	// RevokeRefreshToken flips revoked on an active row, additionally
	// requiring the owning user to match. ErrNotFound when absent, already
	// revoked, or owned by someone else.
	RevokeRefreshToken(ctx context.Context, hash, userID string) error

	// DeleteExpiredRefreshTokens is housekeeping.
	DeleteExpiredRefreshTokens(ctx context.Context) error
}
