package labs

import (
	"errors"
	"net/http"

	"chemtutor/internal/httpx"
	"chemtutor/internal/session"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	httpx.WriteData(r.Context(), w, http.StatusOK, h.service.Catalog())
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	lab, err := h.service.Catalog().Lab(r.PathValue("id"))
	if err != nil {
		httpx.WriteError(r.Context(), w, httpx.CodeNotFound, "Lab not found", http.StatusNotFound)
		return
	}
	httpx.WriteData(r.Context(), w, http.StatusOK, lab)
}

func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	sess, ok := httpx.RequireSession(w, r)
	if !ok {
		return
	}
	sess.Lock()
	defer sess.Unlock()

	reply, err := h.service.Ask(r.Context(), r.PathValue("id"), req.Question, sess.Mode == session.ModeAccessibility)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sess.Tab = session.TabLabs
	httpx.WriteData(r.Context(), w, http.StatusOK, reply)
}

func (h *Handler) Intro(w http.ResponseWriter, r *http.Request) {
	sess, ok := httpx.RequireSession(w, r)
	if !ok {
		return
	}
	sess.Lock()
	defer sess.Unlock()

	reply, err := h.service.Intro(r.Context(), r.PathValue("id"), sess.Mode == session.ModeAccessibility)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sess.Tab = session.TabLabs
	httpx.WriteData(r.Context(), w, http.StatusOK, reply)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrLabNotFound):
		httpx.WriteError(r.Context(), w, httpx.CodeNotFound, "Lab not found", http.StatusNotFound)
	case errors.Is(err, ErrEmptyQuestion):
		httpx.WriteError(r.Context(), w, httpx.CodeInvalidArgument, err.Error(), http.StatusBadRequest)
	default:
		httpx.WriteServiceError(r.Context(), w, err)
	}
}
