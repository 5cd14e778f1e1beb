package export

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/frahmantamala/grievance-portal/internal/transport"
)

type ServiceAPI interface {
	Export(ctx context.Context, format Format) (*File, error)
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

// Download sends the export as an attachment.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	format, err := ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	file, err := h.Service.Export(r.Context(), format)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Data); err != nil {
		h.Logger.Error("failed to write export", "file", file.Name, "error", err)
	}
}
