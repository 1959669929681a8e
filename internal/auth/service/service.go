// Package service implements the credential core: registration, login with
// lockout, access-token minting, refresh-token rotation, and the one-time
// code flows for email confirmation and password reset.
package service

import (
	"strings"
	"time"

	"github.com/almny/almny-auth/internal/auth/mail"
	"github.com/almny/almny-auth/internal/auth/permission"
	"github.com/almny/almny-auth/internal/auth/store"
	"github.com/almny/almny-auth/pkg/cryptox"
	"github.com/almny/almny-auth/pkg/jwtx"
)

const (
	// DefaultRefreshTTL is how long a refresh token stays usable.
	DefaultRefreshTTL = 14 * 24 * time.Hour

	// DefaultLockoutThreshold is the number of consecutive failed logins
	// that trips a lockout.
	DefaultLockoutThreshold = 5

	// DefaultLockoutWindow is how long a tripped lockout lasts.
	DefaultLockoutWindow = 5 * time.Minute

	// DefaultConfirmCodeTTL bounds email-confirmation links.
	DefaultConfirmCodeTTL = 48 * time.Hour

	// DefaultResetCodeTTL bounds password-reset links.
	DefaultResetCodeTTL = 2 * time.Hour
)

// One-time codes are purpose-bound; a confirmation code can never pass as a
// reset code.
const (
	purposeConfirmEmail  = "confirm-email"
	purposeResetPassword = "reset-password"
)

// Service is the credential core. Fields are set once at wiring time and
// never mutated after, so the value is safe for concurrent use.
type Service struct {
	Store   store.Store
	Signer  jwtx.Signer
	Catalog *permission.Catalog
	Mail    mail.Sender

	Issuer   string
	Audience string

	AccessTTL  time.Duration
	RefreshTTL time.Duration

	LockoutThreshold int
	LockoutWindow    time.Duration

	// BaseURL is the externally reachable origin used to build the links
	// embedded in account emails.
	BaseURL string

	// BootstrapAdminEmail, when set, grants the Admin role to the user who
	// registers with that exact email. Meant for first-run setup.
	BootstrapAdminEmail string

	ConfirmCodes *cryptox.CodeMinter
	ResetCodes   *cryptox.CodeMinter
}

// Options carries the tunables New needs beyond the collaborator handles.
type Options struct {
	Issuer   string
	Audience string

	AccessTTL  time.Duration
	RefreshTTL time.Duration

	LockoutThreshold int
	LockoutWindow    time.Duration

	BaseURL             string
	BootstrapAdminEmail string

	// CodeKey keys the one-time code MACs. Independent of the JWT secret so
	// the two can be rotated separately.
	CodeKey []byte

	ConfirmCodeTTL time.Duration
	ResetCodeTTL   time.Duration
}

// New builds a Service, filling unset durations and thresholds with the
// package defaults.
func New(st store.Store, signer jwtx.Signer, catalog *permission.Catalog, sender mail.Sender, opts Options) *Service {
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = jwtx.DefaultAccessTokenTTL
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = DefaultRefreshTTL
	}
	if opts.LockoutThreshold <= 0 {
		opts.LockoutThreshold = DefaultLockoutThreshold
	}
	if opts.LockoutWindow <= 0 {
		opts.LockoutWindow = DefaultLockoutWindow
	}
	if opts.ConfirmCodeTTL <= 0 {
		opts.ConfirmCodeTTL = DefaultConfirmCodeTTL
	}
	if opts.ResetCodeTTL <= 0 {
		opts.ResetCodeTTL = DefaultResetCodeTTL
	}

	return &Service{
		Store:   st,
		Signer:  signer,
		Catalog: catalog,
		Mail:    sender,

		Issuer:   opts.Issuer,
		Audience: opts.Audience,

		AccessTTL:  opts.AccessTTL,
		RefreshTTL: opts.RefreshTTL,

		LockoutThreshold: opts.LockoutThreshold,
		LockoutWindow:    opts.LockoutWindow,

		BaseURL:             strings.TrimRight(opts.BaseURL, "/"),
		BootstrapAdminEmail: normalizeEmail(opts.BootstrapAdminEmail),

		ConfirmCodes: cryptox.NewCodeMinter(opts.CodeKey, purposeConfirmEmail, opts.ConfirmCodeTTL),
		ResetCodes:   cryptox.NewCodeMinter(opts.CodeKey, purposeResetPassword, opts.ResetCodeTTL),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
