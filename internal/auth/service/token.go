package service

import (
	"context"
	"errors"
	"time"

	"github.com/almny/almny-auth/internal/auth/domain"
	"github.com/almny/almny-auth/internal/auth/store"
	"github.com/almny/almny-auth/pkg/cryptox"
	"github.com/almny/almny-auth/pkg/slogx"
)

// Refresh rotates a refresh token: the presented token is consumed and a
// fresh pair is minted. Consumption is a conditional update in the store, so
// of any number of concurrent calls with the same token exactly one wins;
// the rest see an invalid token. A consumed row stays in the store as an
// audit trail.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (domain.AuthResponse, error) {
	now := time.Now()

	row, err := s.Store.RefreshTokens().ConsumeRefreshToken(ctx, cryptox.FingerprintToken(refreshToken), now)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.AuthResponse{}, domain.ErrInvalidRefreshToken
		}
		return domain.AuthResponse{}, err
	}

	user, err := s.Store.Users().GetUserByID(ctx, row.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.AuthResponse{}, domain.ErrInvalidRefreshToken
		}
		return domain.AuthResponse{}, err
	}

	if user.IsLockedOut(now) {
		slogx.FromContext(ctx).Info("refresh rejected, account locked", "user_id", user.ID)
		return domain.AuthResponse{}, domain.ErrLockedOut
	}

	return s.createSession(ctx, user, now)
}

// Revoke invalidates a single refresh token belonging to userID. Revoking a
// token that is absent, already revoked, expired, or owned by another user
// reports an invalid token; no distinction is made between those cases.
func (s *Service) Revoke(ctx context.Context, refreshToken, userID string) error {
	err := s.Store.RefreshTokens().RevokeRefreshToken(ctx, cryptox.FingerprintToken(refreshToken), userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.ErrInvalidRefreshToken
	}
	return err
}
