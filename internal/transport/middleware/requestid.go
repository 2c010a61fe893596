package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/frahmantamala/it-helpdesk/pkg/logger"
)

const TraceIDHeader = "X-Trace-ID"

// RequestID reuses the caller's trace id or mints one, and echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(TraceIDHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		ctx := logger.WithTraceID(r.Context(), traceID)
		w.Header().Set(TraceIDHeader, traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
