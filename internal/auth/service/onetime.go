package service

import (
	"context"
	"errors"
	"net/url"

	"github.com/almny/almny-auth/internal/auth/domain"
	"github.com/almny/almny-auth/internal/auth/mail"
	"github.com/almny/almny-auth/internal/auth/store"
	"github.com/almny/almny-auth/pkg/cryptox"
	"github.com/almny/almny-auth/pkg/slogx"
)

// ConfirmEmail consumes a confirmation code. Confirming rotates the user's
// security stamp, which retires the code (and every other outstanding code)
// so it cannot be replayed. Every failure collapses to the same generic
// error so callers cannot probe code state.
func (s *Service) ConfirmEmail(ctx context.Context, userID, code string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ErrEmailConfirmationFailed
		}
		return err
	}

	if err := s.ConfirmCodes.Verify(code, user.ID, user.SecurityStamp); err != nil {
		return domain.ErrEmailConfirmationFailed
	}

	if user.EmailConfirmed {
		return nil
	}

	newStamp := cryptox.MustGenerateToken(cryptox.TokenSize128)
	return s.Store.Users().SetEmailConfirmed(ctx, user.ID, newStamp)
}

// ResendConfirmation re-sends the confirmation email. It reports success
// whether or not the account exists or is already confirmed, so the endpoint
// cannot be used to enumerate accounts.
func (s *Service) ResendConfirmation(ctx context.Context, email string) error {
	user, err := s.Store.Users().GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	if user.EmailConfirmed {
		return nil
	}

	s.sendConfirmationEmail(ctx, user)
	return nil
}

// ForgotPassword sends a password-reset email. Like ResendConfirmation it
// always reports success; only confirmed accounts actually get mail.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.Store.Users().GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	if !user.EmailConfirmed {
		return nil
	}

	s.sendResetEmail(ctx, user)
	return nil
}

// ResetPassword consumes a reset code and replaces the password hash. The
// stamp rotation inside UpdatePasswordHash retires the consumed code, and
// the lockout state is cleared since the caller just proved control of the
// mailbox.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	user, err := s.Store.Users().GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ErrInvalidResetToken
		}
		return err
	}

	if err := s.ResetCodes.Verify(code, user.ID, user.SecurityStamp); err != nil {
		return domain.ErrInvalidResetToken
	}

	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}
	newStamp := cryptox.MustGenerateToken(cryptox.TokenSize128)

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdatePasswordHash(ctx, user.ID, hash, newStamp); err != nil {
			return err
		}
		return tx.Users().ResetFailedAccess(ctx, user.ID)
	})
}

// sendConfirmationEmail generates a confirmation link and delivers it
// best-effort. Delivery failure never fails the triggering flow; the link is
// logged instead so an operator can hand it over out of band.
func (s *Service) sendConfirmationEmail(ctx context.Context, user domain.User) {
	l := slogx.FromContext(ctx)

	code, err := s.ConfirmCodes.Generate(user.ID, user.SecurityStamp)
	if err != nil {
		l.Error("failed to generate confirmation code", "error", err, "user_id", user.ID)
		return
	}

	link := s.BaseURL + "/v1/auth/confirm-email?uid=" + url.QueryEscape(user.ID) +
		"&code=" + url.QueryEscape(code)

	body, err := mail.RenderConfirmation(mail.LinkData{FullName: user.FullName, Link: link})
	if err != nil {
		l.Error("failed to render confirmation email", "error", err, "user_id", user.ID)
		return
	}

	if err := s.Mail.Send(ctx, user.Email, "Confirm your email", body); err != nil {
		l.Info("confirmation email delivery failed, link still valid",
			"error", err, "user_id", user.ID, "link", link)
	}
}

func (s *Service) sendResetEmail(ctx context.Context, user domain.User) {
	l := slogx.FromContext(ctx)

	code, err := s.ResetCodes.Generate(user.ID, user.SecurityStamp)
	if err != nil {
		l.Error("failed to generate reset code", "error", err, "user_id", user.ID)
		return
	}

	link := s.BaseURL + "/reset-password?email=" + url.QueryEscape(user.Email) +
		"&code=" + url.QueryEscape(code)

	body, err := mail.RenderPasswordReset(mail.LinkData{FullName: user.FullName, Link: link})
	if err != nil {
		l.Error("failed to render reset email", "error", err, "user_id", user.ID)
		return
	}

	if err := s.Mail.Send(ctx, user.Email, "Reset your password", body); err != nil {
		l.Info("reset email delivery failed, link still valid",
			"error", err, "user_id", user.ID, "link", link)
	}
}
