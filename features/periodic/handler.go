package periodic

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"chemtutor/internal/httpx"
	"chemtutor/internal/session"
)

type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type Handler struct {
	table       *Table
	synthesizer Synthesizer
}

func NewHandler(t *Table, s Synthesizer) *Handler {
	return &Handler{table: t, synthesizer: s}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := Filter{Search: q.Get("q")}
	for _, c := range q["category"] {
		f.Categories = append(f.Categories, strings.Split(c, ",")...)
	}

	var err error
	if f.Min, err = intParam(q.Get("min")); err != nil {
		httpx.WriteError(r.Context(), w, httpx.CodeInvalidArgument, "min must be an integer", http.StatusBadRequest)
		return
	}
	if f.Max, err = intParam(q.Get("max")); err != nil {
		httpx.WriteError(r.Context(), w, httpx.CodeInvalidArgument, "max must be an integer", http.StatusBadRequest)
		return
	}

	elements := h.table.Filter(f)
	httpx.WriteData(r.Context(), w, http.StatusOK, map[string]interface{}{
		"elements": elements,
		"colors":   CategoryColors,
		"count":    len(elements),
	})
}

type ElementDetail struct {
	Element
	Description string `json:"description"`
	Audio       string `json:"audio,omitempty"`
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	e, ok := h.table.Get(r.PathValue("symbol"))
	if !ok {
		httpx.WriteError(r.Context(), w, httpx.CodeNotFound, "Element not found", http.StatusNotFound)
		return
	}

	detail := ElementDetail{Element: e, Description: e.Describe()}

	speak, _ := strconv.ParseBool(r.URL.Query().Get("speak"))
	if sess, ok := session.FromContext(r.Context()); ok && !speak {
		sess.Lock()
		speak = sess.Mode == session.ModeAccessibility
		sess.Unlock()
	}
	if speak && h.synthesizer != nil {
		audio, err := h.synthesizer.Synthesize(r.Context(), detail.Description)
		if err != nil {
			slog.WarnContext(r.Context(), "speech synthesis failed", "symbol", e.Symbol, "error", err)
		} else {
			detail.Audio = base64.StdEncoding.EncodeToString(audio)
		}
	}

	httpx.WriteData(r.Context(), w, http.StatusOK, detail)
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
