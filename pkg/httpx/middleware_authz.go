package httpx

import (
	"net/http"
	"strings"
)

// RequirePermission gates a handler on the caller holding at least one of
// the listed permission claims. AuthnMiddleware must run first.
func RequirePermission(required ...string) Middleware {
	want := make(map[string]struct{}, len(required))
	for _, p := range required {
		want[p] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, p := range permissionsFromCtx(r.Context()) {
				if _, ok := want[p]; ok {
					next.ServeHTTP(w, r)
					return
				}
			}

			writePermissionError(w, required...)
		})
	}
}

// RFC 6750-compliant error response for insufficient permissions.
func writePermissionError(w http.ResponseWriter, required ...string) {
	w.Header().Set("WWW-Authenticate",
		`Bearer error="insufficient_scope", scope="`+strings.Join(required, " ")+`"`)
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte("insufficient_permission"))
}
