// Package http wires the credential core to its JSON API surface.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/almny/almny-auth/internal/auth/service"
	"github.com/almny/almny-auth/internal/auth/store"
	"github.com/almny/almny-auth/pkg/httpx"
	"github.com/almny/almny-auth/pkg/jwtx"
	"github.com/almny/almny-auth/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	issuer       string
	audience     string
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store
	Auth  *service.Service
}

func NewRouter(
	verifier jwtx.Verifier,
	issuer, audience, buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		issuer:       issuer,
		audience:     audience,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	// POST /register - moderate limit; duplicate-email probing is bounded
	// by the rate limit, not hidden, since register must report conflicts.
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(&RegisterHandler{Auth: r.Auth},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /login - strict limit keyed by IP + submitted email so a
	// distributed guess against one account is throttled too.
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(&LoginHandler{Auth: r.Auth},
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "email"),
		),
	)

	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(&RefreshHandler{Auth: r.Auth},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// Revocation requires a valid access token; the refresh token alone is
	// not proof of ownership.
	r.Mux.Handle("POST /v1/auth/revoke-refresh-token",
		httpx.Chain(&RevokeHandler{Auth: r.Auth},
			httpx.AuthnMiddleware(r.verifier, r.issuer, r.audience),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// GET /confirm-email - link target from the account email, renders HTML.
	r.Mux.Handle("GET /v1/auth/confirm-email",
		httpx.Chain(&ConfirmEmailHandler{Auth: r.Auth},
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	r.Mux.Handle("POST /v1/auth/resend-confirmation",
		httpx.Chain(&ResendConfirmationHandler{Auth: r.Auth},
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "email"),
		),
	)

	r.Mux.Handle("POST /v1/auth/forgot-password",
		httpx.Chain(&ForgotPasswordHandler{Auth: r.Auth},
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "email"),
		),
	)

	r.Mux.Handle("POST /v1/auth/reset-password",
		httpx.Chain(&ResetPasswordHandler{Auth: r.Auth},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
}
