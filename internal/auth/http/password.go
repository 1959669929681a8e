package http

import (
	"net/http"

	"github.com/almny/almny-auth/internal/auth/service"
	"github.com/almny/almny-auth/pkg/httpx"
)

// ForgotPasswordHandler serves POST /v1/auth/forgot-password. Always
// acknowledges with the same body so the endpoint cannot be used to probe
// which emails have accounts.
type ForgotPasswordHandler struct {
	Auth *service.Service
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (h *ForgotPasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if !validEmail(req.Email) {
		httpx.WriteProblem(w, http.StatusBadRequest,
			"invalid_email", "A valid email address is required.")
		return
	}

	if err := h.Auth.ForgotPassword(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, messageResponse{
		Message: "If the account exists, a password reset email has been sent.",
	})
}

// ResetPasswordHandler serves POST /v1/auth/reset-password.
type ResetPasswordHandler struct {
	Auth *service.Service
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

func (h *ResetPasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Email == "" || req.Code == "" || req.NewPassword == "" {
		httpx.WriteProblem(w, http.StatusBadRequest,
			"invalid_request", "Email, code, and new password are required.")
		return
	}

	if err := h.Auth.ResetPassword(r.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, messageResponse{Message: "Password has been reset."})
}
