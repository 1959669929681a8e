package service

import (
	"context"
	"errors"
	"time"
	"unicode"

	"github.com/almny/almny-auth/internal/auth/domain"
	"github.com/almny/almny-auth/internal/auth/permission"
	"github.com/almny/almny-auth/internal/auth/store"
	"github.com/almny/almny-auth/pkg/cryptox"
	"github.com/almny/almny-auth/pkg/idx"
	"github.com/almny/almny-auth/pkg/jwtx"
	"github.com/almny/almny-auth/pkg/slogx"
)

// Register creates a new account and signs the user straight in. The
// confirmation email is sent best-effort: the user can hold tokens already
// but cannot log in again until the email is confirmed.
func (s *Service) Register(ctx context.Context, email, password, fullName string) (domain.AuthResponse, error) {
	email = normalizeEmail(email)

	if err := validatePassword(password); err != nil {
		return domain.AuthResponse{}, err
	}

	if _, err := s.Store.Users().GetUserByEmail(ctx, email); err == nil {
		return domain.AuthResponse{}, domain.ErrDuplicateEmail
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.AuthResponse{}, err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.AuthResponse{}, err
	}

	roles := []string{permission.RoleUser}
	if s.BootstrapAdminEmail != "" && email == s.BootstrapAdminEmail {
		roles = append(roles, permission.RoleAdmin)
	}

	user := domain.User{
		ID:            idx.New().String(),
		Email:         email,
		FullName:      fullName,
		PasswordHash:  hash,
		Roles:         roles,
		SecurityStamp: cryptox.MustGenerateToken(cryptox.TokenSize128),
	}

	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.AuthResponse{}, domain.ErrDuplicateEmail
		}
		return domain.AuthResponse{}, err
	}

	s.sendConfirmationEmail(ctx, user)

	return s.createSession(ctx, user, time.Now())
}

// Login validates credentials and mints a token pair. The check order is
// fixed: lookup, lockout, password, confirmation. Lockout is checked before
// the password so a locked account reveals nothing about the password, and
// confirmation is checked after so an unconfirmed user with the right
// password learns they must confirm rather than being told the credentials
// are wrong.
func (s *Service) Login(ctx context.Context, email, password string) (domain.AuthResponse, error) {
	now := time.Now()
	l := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.AuthResponse{}, domain.ErrInvalidCredentials
		}
		return domain.AuthResponse{}, err
	}

	if user.IsLockedOut(now) {
		l.Info("login rejected, account locked", "user_id", user.ID)
		return domain.AuthResponse{}, domain.ErrLockedOut
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			return domain.AuthResponse{}, err
		}
		if err := s.recordFailedAttempt(ctx, user, now); err != nil {
			return domain.AuthResponse{}, err
		}
		return domain.AuthResponse{}, domain.ErrInvalidCredentials
	}

	if !user.EmailConfirmed {
		return domain.AuthResponse{}, domain.ErrEmailNotConfirmed
	}

	if user.FailedAccessCount > 0 || user.LockoutUntil != nil {
		if err := s.Store.Users().ResetFailedAccess(ctx, user.ID); err != nil {
			return domain.AuthResponse{}, err
		}
	}

	return s.createSession(ctx, user, now)
}

// recordFailedAttempt bumps the counter and trips the lockout once the
// threshold is reached. The counter resets when the lockout is set so the
// next window starts clean.
func (s *Service) recordFailedAttempt(ctx context.Context, user domain.User, now time.Time) error {
	failed := user.FailedAccessCount + 1
	if failed < s.LockoutThreshold {
		return s.Store.Users().IncrementFailedAccess(ctx, user.ID)
	}

	until := now.Add(s.LockoutWindow)
	slogx.FromContext(ctx).Warn("account locked out",
		"user_id", user.ID, "failed_attempts", failed, "until", until)

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().SetLockout(ctx, user.ID, until); err != nil {
			return err
		}
		return tx.Users().ResetFailedAccess(ctx, user.ID)
	})
}

// createSession mints the access token and issues a fresh refresh token.
// Only the refresh token's fingerprint is persisted.
func (s *Service) createSession(ctx context.Context, user domain.User, now time.Time) (domain.AuthResponse, error) {
	perms := s.Catalog.ForRoles(user.Roles)

	claims := jwtx.NewAccessClaims(
		user.ID, user.Email, user.FullName,
		user.Roles, perms,
		s.AccessTTL, s.Issuer, s.Audience, now,
	)

	accessToken, err := s.Signer.Sign(claims)
	if err != nil {
		return domain.AuthResponse{}, err
	}

	refreshOpaque, err := cryptox.GenerateToken(cryptox.TokenSize512)
	if err != nil {
		return domain.AuthResponse{}, err
	}

	refresh := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    user.ID,
		TokenHash: cryptox.FingerprintToken(refreshOpaque),
		ExpiresAt: now.Add(s.RefreshTTL),
	}
	if err := s.Store.RefreshTokens().CreateRefreshToken(ctx, refresh); err != nil {
		return domain.AuthResponse{}, err
	}

	return domain.AuthResponse{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.AccessTTL.Seconds()),
		RefreshToken: refreshOpaque,
	}, nil
}

// validatePassword enforces the baseline password policy: at least 8
// characters with upper case, lower case, and a digit.
func validatePassword(password string) error {
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if len(password) < 8 || !hasUpper || !hasLower || !hasDigit {
		return domain.ErrRegistrationFailed.WithDescription(
			"Password must be at least 8 characters and contain an upper case letter, a lower case letter, and a digit.")
	}
	return nil
}
