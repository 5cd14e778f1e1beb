// Package session owns the lifecycle of logged-in admin sessions. A session
// is created on login, resolved from a bearer token on every admin request and
// destroyed on logout or expiry.
package session

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Session struct {
	ID               string    `json:"id"`
	Username         string    `json:"username"`
	Department       string    `json:"department"`
	ActiveDepartment string    `json:"activeDepartment"`
	Email            string    `json:"email"`
	CreatedAt        time.Time `json:"createdAt"`
	ExpiresAt        time.Time `json:"expiresAt"`
}

// AllDepartments is the department value that lifts the dashboard scope.
const AllDepartments = "All"

// Scope returns the department filter for admin listings, or "" when the
// session sees every department.
func (s *Session) Scope() string {
	if s.ActiveDepartment == AllDepartments {
		return ""
	}
	return s.ActiveDepartment
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Claims is the signed part of a session token.
type Claims struct {
	SessionID  string `json:"sid"`
	Department string `json:"department"`
	jwt.RegisteredClaims
}

type ctxKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session attached by the auth middleware.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok && s != nil
}
