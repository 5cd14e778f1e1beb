package admin

import (
	"context"
	"net/http"

	errors "github.com/frahmantamala/grievance-portal/internal"
	"github.com/frahmantamala/grievance-portal/internal/session"
	"github.com/frahmantamala/grievance-portal/internal/transport"
)

type ServiceAPI interface {
	Register(ctx context.Context, dto RegisterDTO) (*Admin, error)
	Authenticate(ctx context.Context, dto LoginDTO) (*Admin, error)
}

type SessionAPI interface {
	Create(username, department, email string) (*session.Session, string, error)
	Destroy(token string) error
}

type LoginMetrics interface {
	IncLogin(result string)
}

type LoginResponse struct {
	Token   string           `json:"token"`
	Session *session.Session `json:"session"`
}

type Handler struct {
	*transport.BaseHandler
	Service  ServiceAPI
	Sessions SessionAPI
	Metrics  LoginMetrics
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, sessions SessionAPI, metrics LoginMetrics) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		Sessions:    sessions,
		Metrics:     metrics,
	}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var dto RegisterDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	a, err := h.Service.Register(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, a.ToResponse())
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	a, err := h.Service.Authenticate(r.Context(), dto)
	if err != nil {
		h.countLogin("rejected")
		h.HandleServiceError(w, r, err)
		return
	}

	s, token, err := h.Sessions.Create(a.Username, a.Department, a.Email)
	if err != nil {
		h.countLogin("error")
		h.HandleServiceError(w, r, errors.NewInternalError("failed to create session", err))
		return
	}

	h.countLogin("ok")
	h.WriteJSON(w, http.StatusOK, LoginResponse{Token: token, Session: s})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := session.BearerToken(r)
	if token == "" {
		h.HandleServiceError(w, r, errors.ErrInvalidToken)
		return
	}

	if err := h.Sessions.Destroy(token); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Me returns the session attached by the auth middleware.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, r, errors.ErrSessionNotFound)
		return
	}
	h.WriteJSON(w, http.StatusOK, s)
}

func (h *Handler) countLogin(result string) {
	if h.Metrics != nil {
		h.Metrics.IncLogin(result)
	}
}
