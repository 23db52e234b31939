package chat

import (
	"log/slog"
	"net/http"
	"strings"

	"chemtutor/internal/httpx"
	"chemtutor/internal/session"
)

type Handler struct {
	composer *Composer
}

func NewHandler(c *Composer) *Handler {
	return &Handler{composer: c}
}

func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		httpx.WriteError(r.Context(), w, httpx.CodeInvalidArgument, "question is required", http.StatusBadRequest)
		return
	}

	sess, ok := httpx.RequireSession(w, r)
	if !ok {
		return
	}
	sess.Lock()
	defer sess.Unlock()

	history := make([]session.Turn, len(sess.History))
	copy(history, sess.History)

	ans, err := h.composer.Answer(r.Context(), Query{Mode: sess.Mode, History: history, Question: question})
	if err != nil {
		httpx.WriteServiceError(r.Context(), w, err)
		return
	}

	sess.Append(question, ans.Text)
	slog.InfoContext(r.Context(), "question answered", "mode", sess.Mode, "sources", len(ans.Sources))
	httpx.WriteData(r.Context(), w, http.StatusOK, ans)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	sess, ok := httpx.RequireSession(w, r)
	if !ok {
		return
	}
	sess.Lock()
	turns := make([]session.Turn, len(sess.History))
	copy(turns, sess.History)
	sess.Unlock()

	httpx.WriteData(r.Context(), w, http.StatusOK, turns)
}

func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	sess, ok := httpx.RequireSession(w, r)
	if !ok {
		return
	}
	sess.Lock()
	sess.ClearHistory()
	sess.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := httpx.RequireSession(w, r)
	if !ok {
		return
	}
	sess.Lock()
	view := sess.View()
	sess.Unlock()

	httpx.WriteData(r.Context(), w, http.StatusOK, view)
}

func (h *Handler) SetMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode string `json:"mode"`
	}
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	mode, err := session.ParseMode(req.Mode)
	if err != nil {
		httpx.WriteError(r.Context(), w, httpx.CodeInvalidArgument, err.Error(), http.StatusBadRequest)
		return
	}

	sess, ok := httpx.RequireSession(w, r)
	if !ok {
		return
	}
	sess.Lock()
	sess.Mode = mode
	view := sess.View()
	sess.Unlock()

	slog.InfoContext(r.Context(), "mode changed", "mode", mode)
	httpx.WriteData(r.Context(), w, http.StatusOK, view)
}
