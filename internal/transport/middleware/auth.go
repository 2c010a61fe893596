package middleware

import (
	"net/http"

	"github.com/frahmantamala/it-helpdesk/internal"
	"github.com/frahmantamala/it-helpdesk/pkg/logger"
)

// UserContext tags the request logger with the authenticated caller. It must run after the
// authentication middleware.
func UserContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := internal.UserFromContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		ctx := logger.With(r.Context(), "user_id", user.ID, "role", string(user.Role))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
