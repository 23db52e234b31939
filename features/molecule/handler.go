package molecule

import (
	"net/http"
	"strings"

	"chemtutor/internal/httpx"
	"chemtutor/internal/session"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) Visualize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		httpx.WriteError(r.Context(), w, httpx.CodeInvalidArgument, "name is required", http.StatusBadRequest)
		return
	}

	sess, ok := httpx.RequireSession(w, r)
	if !ok {
		return
	}
	sess.Lock()
	defer sess.Unlock()

	res, err := h.service.Lookup(r.Context(), name, sess.Mode == session.ModeAccessibility)
	if err != nil {
		httpx.WriteServiceError(r.Context(), w, err)
		return
	}
	sess.Tab = session.TabMolecules
	httpx.WriteData(r.Context(), w, http.StatusOK, res)
}
