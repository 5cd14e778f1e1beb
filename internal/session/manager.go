package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/frahmantamala/grievance-portal/internal"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var errInvalidTokenMissing = apperrors.NewUnauthorizedError("Missing authorization token", apperrors.ErrCodeInvalidToken)

type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(secret string, ttl time.Duration, logger *slog.Logger) *Manager {
	return &Manager{
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// WithClock replaces the time source. Tests use it to expire sessions.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Create opens a session for the admin and returns it with its bearer token.
func (m *Manager) Create(username, department, email string) (*Session, string, error) {
	now := m.now()
	s := &Session{
		ID:               uuid.NewString(),
		Username:         username,
		Department:       department,
		ActiveDepartment: department,
		Email:            email,
		CreatedAt:        now,
		ExpiresAt:        now.Add(m.ttl),
	}

	claims := &Claims{
		SessionID:  s.ID,
		Department: department,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
			ID:        s.ID,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, "", fmt.Errorf("sign session token: %w", err)
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Info("session created", "session_id", s.ID, "username", username, "department", department)
	return s, token, nil
}

// Resolve returns the live session behind token.
func (m *Manager) Resolve(token string) (*Session, error) {
	claims, err := m.parse(token, true)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	s, ok := m.sessions[claims.SessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}

	if s.Expired(m.now()) {
		m.remove(s.ID)
		return nil, apperrors.ErrTokenExpired
	}

	out := *s
	return &out, nil
}

// Destroy ends the session behind token. Expired tokens are accepted so a
// client can always log out.
func (m *Manager) Destroy(token string) error {
	claims, err := m.parse(token, false)
	if err != nil {
		return err
	}
	if !m.remove(claims.SessionID) {
		return apperrors.ErrSessionNotFound
	}
	m.logger.Info("session destroyed", "session_id", claims.SessionID, "username", claims.Subject)
	return nil
}

// Sweep drops expired sessions and returns how many were removed.
func (m *Manager) Sweep() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

func (m *Manager) parse(token string, validateExpiry bool) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	}
	if !validateExpiry {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrInvalidToken.WithCause(err)
	}
	if claims.SessionID == "" {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}
