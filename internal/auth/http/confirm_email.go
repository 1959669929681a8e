package http

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/almny/almny-auth/internal/auth/service"
	"github.com/almny/almny-auth/pkg/httpx"
	"github.com/almny/almny-auth/pkg/slogx"
)

//go:embed pages/*.html
var pagesFS embed.FS

var pages = template.Must(template.ParseFS(pagesFS, "pages/*.html"))

// ConfirmEmailHandler serves GET /v1/auth/confirm-email, the target of the
// link in the confirmation email. It renders an HTML result page for humans;
// the outcome is carried in the page body, not the status code.
type ConfirmEmailHandler struct {
	Auth *service.Service
}

type confirmResult struct {
	Confirmed bool
}

func (h *ConfirmEmailHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	uid := r.URL.Query().Get("uid")
	code := r.URL.Query().Get("code")

	result := confirmResult{Confirmed: false}
	if uid != "" && code != "" {
		if err := h.Auth.ConfirmEmail(r.Context(), uid, code); err == nil {
			result.Confirmed = true
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := pages.ExecuteTemplate(w, "confirm_result.html", result); err != nil {
		slogx.FromContext(r.Context()).Error("failed to render confirmation page", "error", err)
	}
}

// ResendConfirmationHandler serves POST /v1/auth/resend-confirmation. The
// response is identical whether or not the account exists.
type ResendConfirmationHandler struct {
	Auth *service.Service
}

type resendConfirmationRequest struct {
	Email string `json:"email"`
}

func (h *ResendConfirmationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req resendConfirmationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if !validEmail(req.Email) {
		httpx.WriteProblem(w, http.StatusBadRequest,
			"invalid_email", "A valid email address is required.")
		return
	}

	if err := h.Auth.ResendConfirmation(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, messageResponse{
		Message: "If the account exists and is unconfirmed, a confirmation email has been sent.",
	})
}
