package http

import (
	"net/http"

	"github.com/almny/almny-auth/internal/auth/service"
	"github.com/almny/almny-auth/pkg/httpx"
)

// RefreshHandler serves POST /v1/auth/refresh.
type RefreshHandler struct {
	Auth *service.Service
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.RefreshToken == "" {
		httpx.WriteProblem(w, http.StatusBadRequest,
			"invalid_request", "A refresh token is required.")
		return
	}

	resp, err := h.Auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}
