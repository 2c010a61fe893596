package middleware

import (
	"net/http"

	"github.com/frahmantamala/it-helpdesk/internal"
	"github.com/frahmantamala/it-helpdesk/internal/transport"
	"github.com/frahmantamala/it-helpdesk/pkg/logger"
)

// RequireAdmin lets through only callers whose role can administer tickets and users.
func RequireAdmin(next http.Handler) http.Handler {
	h := transport.NewBaseHandler(logger.LoggerWrapper())
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := internal.UserFromContext(r.Context())
		if !ok {
			h.WriteAppError(w, internal.ErrMissingToken)
			return
		}

		if !user.Role.CanAdminister() {
			logger.From(r.Context()).Warn("access denied: admin role required",
				"user_id", user.ID,
				"role", string(user.Role),
				"path", r.URL.Path)
			h.WriteAppError(w, internal.ErrInsufficientRole)
			return
		}

		next.ServeHTTP(w, r)
	})
}
