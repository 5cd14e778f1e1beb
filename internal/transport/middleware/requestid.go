package middleware

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/grievance-portal/pkg/logger"
	"github.com/google/uuid"
)

// RequestID tags the request logger with a trace id taken from X-Trace-ID or
// freshly generated, and echoes it on the response.
func RequestID(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get("X-Trace-ID")
			if traceID == "" {
				traceID = uuid.NewString()
			}

			ctx := logger.Into(r.Context(), base.With("traceID", traceID))
			w.Header().Set("X-Trace-ID", traceID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
