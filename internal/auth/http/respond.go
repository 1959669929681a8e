package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/almny/almny-auth/internal/auth/domain"
	"github.com/almny/almny-auth/pkg/httpx"
	"github.com/almny/almny-auth/pkg/slogx"
)

const maxBodyBytes = 1 << 20

// messageResponse is the generic acknowledgement body used by endpoints
// that must not reveal account state.
type messageResponse struct {
	Message string `json:"message"`
}

// decodeJSON reads a bounded JSON body into dst, writing the 400 itself on
// failure. Returns false when the caller should stop.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httpx.WriteProblem(w, http.StatusBadRequest,
			"invalid_body", "Request body must be valid JSON.")
		return false
	}
	return true
}

// writeServiceError maps typed credential-core failures onto status codes
// and hides everything else behind a logged 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.Error
	if errors.As(err, &de) {
		httpx.WriteProblem(w, statusForKind(de.Kind), de.Code, de.Description)
		return
	}

	slogx.FromContext(r.Context()).Error("request failed",
		"error", err, "path", r.URL.Path)
	httpx.WriteProblem(w, http.StatusInternalServerError,
		"internal_error", "An unexpected error occurred.")
}

func statusForKind(kind domain.Kind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// validEmail is a shape check, not RFC 5322 validation; the confirmation
// email is the real proof of deliverability.
func validEmail(email string) bool {
	email = strings.TrimSpace(email)
	if len(email) < 3 || len(email) > 254 {
		return false
	}
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}
