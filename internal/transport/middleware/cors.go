package middleware

import (
	"log/slog"
	"net/http"
	"strings"
)

// CORS allows browser calls from the configured origins. "*" allows any.
func CORS(allowed string, logger *slog.Logger) func(next http.Handler) http.Handler {
	origins := map[string]bool{}
	for _, o := range strings.Split(allowed, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins[o] = true
		}
	}
	anyOrigin := origins["*"]

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !anyOrigin && !origins[origin] {
				logger.Warn("CORS: origin not allowed", "path", r.URL.Path, "origin", origin)
				w.WriteHeader(http.StatusForbidden)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Authorization, X-Trace-ID")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PATCH")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Trace-ID")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
