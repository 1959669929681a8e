package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/almny/almny-auth/internal/auth/domain"
	"github.com/almny/almny-auth/internal/auth/store"
	"github.com/almny/almny-auth/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "auth_test.db")
	s, err := NewStore(dsn)
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())

	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedUser(t *testing.T, s *Store, email string) domain.User {
	t.Helper()

	u := domain.User{
		ID:            idx.New().String(),
		Email:         email,
		FullName:      "Test User",
		PasswordHash:  "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		Roles:         []string{"User"},
		SecurityStamp: idx.New().String(),
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func TestUsersRepo(t *testing.T) {
	ctx := context.Background()

	t.Run("create and fetch by email is case-insensitive", func(t *testing.T) {
		s := newTestStore(t)
		u := seedUser(t, s, "Alice@Example.COM")

		got, err := s.Users().GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)
		require.Equal(t, "alice@example.com", got.Email)
		require.Equal(t, []string{"User"}, got.Roles)
		require.False(t, got.EmailConfirmed)
		require.Nil(t, got.LockoutUntil)

		got2, err := s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, got.Email, got2.Email)
	})

	t.Run("duplicate email returns ErrAlreadyExists", func(t *testing.T) {
		s := newTestStore(t)
		seedUser(t, s, "dup@example.com")

		err := s.Users().CreateUser(ctx, domain.User{
			ID:            idx.New().String(),
			Email:         "DUP@example.com",
			FullName:      "Other",
			PasswordHash:  "x",
			SecurityStamp: "y",
		})
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("unknown user returns ErrNotFound", func(t *testing.T) {
		s := newTestStore(t)

		_, err := s.Users().GetUserByEmail(ctx, "nobody@example.com")
		require.ErrorIs(t, err, store.ErrNotFound)

		err = s.Users().ResetFailedAccess(ctx, "missing")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("failed access counter and lockout", func(t *testing.T) {
		s := newTestStore(t)
		u := seedUser(t, s, "lock@example.com")

		for i := 0; i < 3; i++ {
			require.NoError(t, s.Users().IncrementFailedAccess(ctx, u.ID))
		}
		got, err := s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, 3, got.FailedAccessCount)

		until := time.Now().Add(5 * time.Minute)
		require.NoError(t, s.Users().SetLockout(ctx, u.ID, until))
		got, err = s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.NotNil(t, got.LockoutUntil)
		require.True(t, got.IsLockedOut(time.Now()))

		require.NoError(t, s.Users().ResetFailedAccess(ctx, u.ID))
		got, err = s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Zero(t, got.FailedAccessCount)
		require.Nil(t, got.LockoutUntil)
	})

	t.Run("confirm email rotates the security stamp", func(t *testing.T) {
		s := newTestStore(t)
		u := seedUser(t, s, "confirm@example.com")

		require.NoError(t, s.Users().SetEmailConfirmed(ctx, u.ID, "new-stamp"))
		got, err := s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.True(t, got.EmailConfirmed)
		require.Equal(t, "new-stamp", got.SecurityStamp)
	})

	t.Run("password update rotates the security stamp", func(t *testing.T) {
		s := newTestStore(t)
		u := seedUser(t, s, "pw@example.com")

		require.NoError(t, s.Users().UpdatePasswordHash(ctx, u.ID, "new-hash", "rotated"))
		got, err := s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, "new-hash", got.PasswordHash)
		require.Equal(t, "rotated", got.SecurityStamp)
	})
}

func TestRefreshTokensRepo(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	seedToken := func(t *testing.T, s *Store, userID string, expiresAt time.Time) domain.RefreshToken {
		t.Helper()
		tok := domain.RefreshToken{
			ID:        idx.New().String(),
			UserID:    userID,
			TokenHash: idx.New().String(),
			ExpiresAt: expiresAt,
		}
		require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, tok))
		return tok
	}

	t.Run("consume succeeds exactly once", func(t *testing.T) {
		s := newTestStore(t)
		u := seedUser(t, s, "rt@example.com")
		tok := seedToken(t, s, u.ID, now.Add(time.Hour))

		got, err := s.RefreshTokens().ConsumeRefreshToken(ctx, tok.TokenHash, now)
		require.NoError(t, err)
		require.Equal(t, tok.ID, got.ID)
		require.Equal(t, u.ID, got.UserID)
		require.True(t, got.Revoked)

		_, err = s.RefreshTokens().ConsumeRefreshToken(ctx, tok.TokenHash, now)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("consume rejects expired tokens", func(t *testing.T) {
		s := newTestStore(t)
		u := seedUser(t, s, "expired@example.com")
		tok := seedToken(t, s, u.ID, now.Add(-time.Minute))

		_, err := s.RefreshTokens().ConsumeRefreshToken(ctx, tok.TokenHash, now)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("revoke requires the owning user", func(t *testing.T) {
		s := newTestStore(t)
		u := seedUser(t, s, "owner@example.com")
		tok := seedToken(t, s, u.ID, now.Add(time.Hour))

		err := s.RefreshTokens().RevokeRefreshToken(ctx, tok.TokenHash, "someone-else")
		require.ErrorIs(t, err, store.ErrNotFound)

		require.NoError(t, s.RefreshTokens().RevokeRefreshToken(ctx, tok.TokenHash, u.ID))

		// Already revoked.
		err = s.RefreshTokens().RevokeRefreshToken(ctx, tok.TokenHash, u.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("housekeeping deletes only expired rows", func(t *testing.T) {
		s := newTestStore(t)
		u := seedUser(t, s, "sweep@example.com")
		stale := seedToken(t, s, u.ID, now.Add(-time.Hour))
		fresh := seedToken(t, s, u.ID, now.Add(time.Hour))

		require.NoError(t, s.RefreshTokens().DeleteExpiredRefreshTokens(ctx))

		_, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, stale.TokenHash)
		require.ErrorIs(t, err, store.ErrNotFound)

		_, err = s.RefreshTokens().GetRefreshTokenByHash(ctx, fresh.TokenHash)
		require.NoError(t, err)
	})
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	errBoom := domain.ErrRegistrationFailed
	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, domain.User{
			ID:            idx.New().String(),
			Email:         "tx@example.com",
			FullName:      "Tx",
			PasswordHash:  "x",
			SecurityStamp: "y",
		}); err != nil {
			return err
		}
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	_, err = s.Users().GetUserByEmail(ctx, "tx@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}
