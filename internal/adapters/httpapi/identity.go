package httpapi

import (
	"net/http"
	"strings"

	"github.com/sfc-mobility/campus-rides-api/internal/domain"
)

// UserIDHeader carries the caller's self-asserted identity. There is no
// cryptographic verification; the id is trusted as-is.
const UserIDHeader = "X-User-Id"

// NewIdentityMiddleware extracts the caller's user id from UserIDHeader and
// stores it in request context. A missing or malformed header leaves the
// request anonymous; handlers that need an identity reject it themselves, so
// public endpoints (ride listing, dashboard) keep working without one.
func NewIdentityMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(UserIDHeader))
			if raw != "" {
				if id, ok := domain.ParseUserID(raw); ok {
					r = r.WithContext(WithUserID(r.Context(), id))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
