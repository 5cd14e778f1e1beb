package session

import (
	"net/http"
	"strings"

	"github.com/frahmantamala/grievance-portal/pkg/logger"
)

// ErrorWriter renders a failed authentication. transport.BaseHandler
// satisfies it.
type ErrorWriter interface {
	HandleServiceError(w http.ResponseWriter, r *http.Request, err error)
}

// BearerToken extracts the token from an Authorization header.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireSession rejects requests without a live session and attaches the
// session to the request context otherwise.
func (m *Manager) RequireSession(ew ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				ew.HandleServiceError(w, r, errInvalidTokenMissing)
				return
			}

			s, err := m.Resolve(token)
			if err != nil {
				ew.HandleServiceError(w, r, err)
				return
			}

			ctx := WithSession(r.Context(), s)
			ctx = logger.With(ctx, "admin", s.Username, "department", s.ActiveDepartment)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
