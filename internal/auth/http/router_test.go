package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/almny/almny-auth/internal/auth/domain"
	"github.com/almny/almny-auth/internal/auth/permission"
	"github.com/almny/almny-auth/internal/auth/service"
	"github.com/almny/almny-auth/internal/auth/store/drivers/sqlite"
	"github.com/almny/almny-auth/pkg/cryptox"
	"github.com/almny/almny-auth/pkg/jwtx"
	"github.com/almny/almny-auth/pkg/slogx"
	"github.com/stretchr/testify/require"
)

// linkSender records delivered emails so tests can fish out the links.
type linkSender struct {
	mu   sync.Mutex
	sent []string // html bodies in order
}

func (s *linkSender) Send(_ context.Context, _, _, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, body)
	return nil
}

func (s *linkSender) lastBody(t *testing.T) string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.sent)
	return s.sent[len(s.sent)-1]
}

func newTestRouter(t *testing.T) (*Router, *linkSender) {
	t.Helper()

	cryptox.SetPepperPath(filepath.Join(t.TempDir(), "pepper"))

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "auth_test.db"))
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	signer, err := jwtx.NewHS256([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	sender := &linkSender{}
	svc := service.New(st, signer, permission.DefaultCatalog(), sender, service.Options{
		Issuer:   "https://auth.test",
		Audience: "https://api.test",
		BaseURL:  "https://auth.test",
		CodeKey:  []byte("another-32-byte-key-for-otc-macs"),
	})

	logger := slogx.New(slogx.Config{Service: "auth-test", Level: "error", Format: "text"})

	router := NewRouter(signer, "https://auth.test", "https://api.test", "test", st, logger)
	router.Auth = svc
	router.ApplyRoutes()
	return router, sender
}

func doJSON(t *testing.T, router *Router, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

// linkQueryParam pulls a query parameter out of the first link in an email
// body, the same way a user would click it.
func linkQueryParam(t *testing.T, body, param string) string {
	t.Helper()

	start := strings.Index(body, `href="`)
	require.GreaterOrEqual(t, start, 0)
	rest := body[start+len(`href="`):]
	end := strings.Index(rest, `"`)
	require.GreaterOrEqual(t, end, 0)

	u, err := url.Parse(strings.ReplaceAll(rest[:end], "&amp;", "&"))
	require.NoError(t, err)
	return u.Query().Get(param)
}

// confirmationLink pulls the uid/code pair out of the last confirmation
// email.
func confirmationLink(t *testing.T, sender *linkSender) (uid, code string) {
	t.Helper()
	body := sender.lastBody(t)
	return linkQueryParam(t, body, "uid"), linkQueryParam(t, body, "code")
}

func registerAndConfirm(t *testing.T, router *Router, sender *linkSender, email, password string) domain.AuthResponse {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/v1/auth/register", map[string]string{
		"email": email, "password": password, "full_name": "Test User",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[domain.AuthResponse](t, rec)

	uid, code := confirmationLink(t, sender)
	require.NoError(t, router.Auth.ConfirmEmail(context.Background(), uid, code))
	return resp
}

func TestRegisterEndpoint(t *testing.T) {
	t.Run("returns a token pair", func(t *testing.T) {
		router, _ := newTestRouter(t)

		rec := doJSON(t, router, http.MethodPost, "/v1/auth/register", map[string]string{
			"email": "a@x.com", "password": "Abcd1234", "full_name": "Ada",
		}, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decodeBody[domain.AuthResponse](t, rec)
		require.NotEmpty(t, resp.AccessToken)
		require.NotEmpty(t, resp.RefreshToken)
		require.Equal(t, "Bearer", resp.TokenType)
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		router, _ := newTestRouter(t)

		rec := doJSON(t, router, http.MethodPost, "/v1/auth/register", map[string]string{
			"email": "a@x.com", "password": "Abcd1234",
		}, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = doJSON(t, router, http.MethodPost, "/v1/auth/register", map[string]string{
			"email": "A@X.com", "password": "Abcd1234",
		}, nil)
		require.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		router, _ := newTestRouter(t)

		rec := doJSON(t, router, http.MethodPost, "/v1/auth/register", map[string]string{
			"email": "not-an-email", "password": "Abcd1234",
		}, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		rec = doJSON(t, router, http.MethodPost, "/v1/auth/register", map[string]string{
			"email": "a@x.com", "password": "weak",
		}, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		req := httptest.NewRequest(http.MethodPost, "/v1/auth/register", strings.NewReader("{not json"))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		require.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestLoginEndpoint(t *testing.T) {
	t.Run("confirmed user logs in", func(t *testing.T) {
		router, sender := newTestRouter(t)
		registerAndConfirm(t, router, sender, "a@x.com", "Abcd1234")

		rec := doJSON(t, router, http.MethodPost, "/v1/auth/login", map[string]string{
			"email": "a@x.com", "password": "Abcd1234",
		}, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decodeBody[domain.AuthResponse](t, rec)
		require.NotEmpty(t, resp.AccessToken)
	})

	t.Run("wrong password and unknown user look identical", func(t *testing.T) {
		router, sender := newTestRouter(t)
		registerAndConfirm(t, router, sender, "a@x.com", "Abcd1234")

		known := doJSON(t, router, http.MethodPost, "/v1/auth/login", map[string]string{
			"email": "a@x.com", "password": "Wrong1234",
		}, nil)
		unknown := doJSON(t, router, http.MethodPost, "/v1/auth/login", map[string]string{
			"email": "nobody@x.com", "password": "Wrong1234",
		}, nil)

		require.Equal(t, http.StatusUnauthorized, known.Code)
		require.Equal(t, http.StatusUnauthorized, unknown.Code)
		require.JSONEq(t, known.Body.String(), unknown.Body.String())
	})

	t.Run("unconfirmed user is told to confirm", func(t *testing.T) {
		router, _ := newTestRouter(t)

		rec := doJSON(t, router, http.MethodPost, "/v1/auth/register", map[string]string{
			"email": "a@x.com", "password": "Abcd1234",
		}, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = doJSON(t, router, http.MethodPost, "/v1/auth/login", map[string]string{
			"email": "a@x.com", "password": "Abcd1234",
		}, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), "user.email_not_confirmed")
	})
}

func TestRefreshEndpoint(t *testing.T) {
	router, sender := newTestRouter(t)
	first := registerAndConfirm(t, router, sender, "a@x.com", "Abcd1234")

	rec := doJSON(t, router, http.MethodPost, "/v1/auth/refresh", map[string]string{
		"refresh_token": first.RefreshToken,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rotated := decodeBody[domain.AuthResponse](t, rec)
	require.NotEqual(t, first.RefreshToken, rotated.RefreshToken)

	// Replay of the consumed token.
	rec = doJSON(t, router, http.MethodPost, "/v1/auth/refresh", map[string]string{
		"refresh_token": first.RefreshToken,
	}, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "user.invalid_refresh_token")
}

func TestRevokeEndpoint(t *testing.T) {
	router, sender := newTestRouter(t)
	session := registerAndConfirm(t, router, sender, "a@x.com", "Abcd1234")

	t.Run("requires a bearer token", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/auth/revoke-refresh-token", map[string]string{
			"refresh_token": session.RefreshToken,
		}, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("owner revokes and the token dies", func(t *testing.T) {
		header := http.Header{"Authorization": {"Bearer " + session.AccessToken}}

		rec := doJSON(t, router, http.MethodPost, "/v1/auth/revoke-refresh-token", map[string]string{
			"refresh_token": session.RefreshToken,
		}, header)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = doJSON(t, router, http.MethodPost, "/v1/auth/refresh", map[string]string{
			"refresh_token": session.RefreshToken,
		}, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestConfirmEmailEndpoint(t *testing.T) {
	router, sender := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/auth/register", map[string]string{
		"email": "a@x.com", "password": "Abcd1234",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	uid, code := confirmationLink(t, sender)

	t.Run("valid link renders success", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			"/v1/auth/confirm-email?uid="+url.QueryEscape(uid)+"&code="+url.QueryEscape(code), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		require.Contains(t, rr.Header().Get("Content-Type"), "text/html")
		require.Contains(t, rr.Body.String(), "Email confirmed")
	})

	t.Run("garbage link renders failure, still 200", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/auth/confirm-email?uid=x&code=garbage", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		require.Contains(t, rr.Body.String(), "Confirmation failed")
	})
}

func TestForgotPasswordEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/auth/register", map[string]string{
		"email": "unconfirmed@x.com", "password": "Abcd1234",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Unknown and existing-but-unconfirmed must be indistinguishable.
	unknown := doJSON(t, router, http.MethodPost, "/v1/auth/forgot-password", map[string]string{
		"email": "nobody@x.com",
	}, nil)
	existing := doJSON(t, router, http.MethodPost, "/v1/auth/forgot-password", map[string]string{
		"email": "unconfirmed@x.com",
	}, nil)

	require.Equal(t, http.StatusOK, unknown.Code)
	require.Equal(t, http.StatusOK, existing.Code)
	require.JSONEq(t, unknown.Body.String(), existing.Body.String())
}

func TestResetPasswordEndpoint(t *testing.T) {
	router, sender := newTestRouter(t)
	registerAndConfirm(t, router, sender, "a@x.com", "Abcd1234")

	rec := doJSON(t, router, http.MethodPost, "/v1/auth/forgot-password", map[string]string{
		"email": "a@x.com",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// The reset link carries email+code in its query.
	body := sender.lastBody(t)
	require.Contains(t, body, "reset-password")
	code := linkQueryParam(t, body, "code")

	t.Run("garbage code is rejected with 400", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/auth/reset-password", map[string]string{
			"email": "a@x.com", "code": "garbage", "new_password": "NewPass99",
		}, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "user.invalid_reset_token")
	})

	t.Run("valid code resets the password", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/auth/reset-password", map[string]string{
			"email": "a@x.com", "code": code, "new_password": "NewPass99",
		}, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = doJSON(t, router, http.MethodPost, "/v1/auth/login", map[string]string{
			"email": "a@x.com", "password": "NewPass99",
		}, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestHealthEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"status":"ok"`)

	req = httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
}
