package http

import (
	"net/http"
	"strings"

	"github.com/almny/almny-auth/internal/auth/service"
	"github.com/almny/almny-auth/pkg/httpx"
)

// RegisterHandler serves POST /v1/auth/register.
type RegisterHandler struct {
	Auth *service.Service
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if !validEmail(req.Email) {
		httpx.WriteProblem(w, http.StatusBadRequest,
			"invalid_email", "A valid email address is required.")
		return
	}
	if req.Password == "" {
		httpx.WriteProblem(w, http.StatusBadRequest,
			"invalid_password", "A password is required.")
		return
	}

	resp, err := h.Auth.Register(r.Context(), req.Email, req.Password, strings.TrimSpace(req.FullName))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}
