package http

import (
	"net/http"

	"github.com/almny/almny-auth/internal/auth/service"
	"github.com/almny/almny-auth/pkg/httpx"
)

// RevokeHandler serves POST /v1/auth/revoke-refresh-token. It sits behind
// the authentication middleware; the authenticated subject may only revoke
// its own tokens.
type RevokeHandler struct {
	Auth *service.Service
}

type revokeRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *RevokeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpx.UserIDFromContext(r.Context())
	if !ok {
		httpx.WriteProblem(w, http.StatusUnauthorized,
			"unauthorized", "Authentication is required.")
		return
	}

	var req revokeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.RefreshToken == "" {
		httpx.WriteProblem(w, http.StatusBadRequest,
			"invalid_request", "A refresh token is required.")
		return
	}

	if err := h.Auth.Revoke(r.Context(), req.RefreshToken, userID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, messageResponse{Message: "Refresh token revoked."})
}
