package grievance

import (
	"context"
	"net/http"
	"strconv"

	errors "github.com/frahmantamala/grievance-portal/internal"
	"github.com/frahmantamala/grievance-portal/internal/session"
	"github.com/frahmantamala/grievance-portal/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	Submit(ctx context.Context, dto SubmitDTO) (*Grievance, string, error)
	List(ctx context.Context, filter Filter) ([]Grievance, error)
	Get(ctx context.Context, id int64) (*Grievance, error)
	Stats(ctx context.Context) (Stats, error)
	Upvote(ctx context.Context, id int64) (*Grievance, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*Grievance, error)
	AppendNote(ctx context.Context, id int64, note string) (*Grievance, error)
	ClearAll(ctx context.Context, confirm ClearConfirmation) (int, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var dto SubmitDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	g, key, err := h.Service.Submit(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, SubmitResponse{Grievance: g, Key: key})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := Filter{
		Status:    r.URL.Query().Get("status"),
		Authority: r.URL.Query().Get("authority"),
	}

	grievances, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, GrievancesResponse{Grievances: grievances, Count: len(grievances)})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats(r.Context())
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) Upvote(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	g, err := h.Service.Upvote(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	if g == nil {
		h.HandleServiceError(w, r, errors.ErrGrievanceNotFound)
		return
	}

	h.WriteJSON(w, http.StatusOK, g)
}

// AdminList is the dashboard listing. It is restricted to the session's
// department unless the admin sees all departments.
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, r, errors.ErrSessionNotFound)
		return
	}

	filter := Filter{
		Status:    r.URL.Query().Get("status"),
		Authority: r.URL.Query().Get("authority"),
	}
	if scope := s.Scope(); scope != "" {
		filter.Authority = scope
	}

	grievances, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, GrievancesResponse{Grievances: grievances, Count: len(grievances)})
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorizeGrievance(w, r)
	if !ok {
		return
	}

	var dto StatusUpdateDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	g, err := h.Service.UpdateStatus(r.Context(), id, dto.Status)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	if g == nil {
		h.HandleServiceError(w, r, errors.ErrGrievanceNotFound)
		return
	}

	h.WriteJSON(w, http.StatusOK, g)
}

func (h *Handler) AppendNote(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorizeGrievance(w, r)
	if !ok {
		return
	}

	var dto NoteDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	g, err := h.Service.AppendNote(r.Context(), id, dto.Note)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	if g == nil {
		h.HandleServiceError(w, r, errors.ErrGrievanceNotFound)
		return
	}

	h.WriteJSON(w, http.StatusOK, g)
}

// ClearAll deletes every department's grievances, so only admins that see all
// departments may call it.
func (h *Handler) ClearAll(w http.ResponseWriter, r *http.Request) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, r, errors.ErrSessionNotFound)
		return
	}
	if s.Scope() != "" {
		h.HandleServiceError(w, r, errors.ErrDepartmentScope)
		return
	}

	var confirm ClearConfirmation
	if !h.DecodeJSON(w, r, &confirm) {
		return
	}

	removed, err := h.Service.ClearAll(r.Context(), confirm)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ClearResponse{Removed: removed})
}

// authorizeGrievance resolves the path id and checks that the grievance is
// inside the session's department.
func (h *Handler) authorizeGrievance(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := h.parseID(w, r)
	if !ok {
		return 0, false
	}

	s, ok := session.FromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, r, errors.ErrSessionNotFound)
		return 0, false
	}

	g, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return 0, false
	}
	if g == nil {
		h.HandleServiceError(w, r, errors.ErrGrievanceNotFound)
		return 0, false
	}
	if scope := s.Scope(); scope != "" && g.Authority != scope {
		h.HandleServiceError(w, r, errors.ErrDepartmentScope)
		return 0, false
	}
	return id, true
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.HandleServiceError(w, r, errors.NewValidationFieldError("id", "id must be a positive integer", errors.ErrCodeInvalidFormat))
		return 0, false
	}
	return id, true
}
