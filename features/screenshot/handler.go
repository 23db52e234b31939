package screenshot

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"chemtutor/features/chat"
	"chemtutor/internal/adapter/gemini"
	"chemtutor/internal/httpx"
	"chemtutor/internal/session"
)

var imageFormats = map[string]string{
	".png":  "png",
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".webp": "webp",
}

type Handler struct {
	service  *Service
	maxBytes int64
}

func NewHandler(s *Service, maxBytes int64) *Handler {
	return &Handler{service: s, maxBytes: maxBytes}
}

func (h *Handler) Solve(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		httpx.WriteError(r.Context(), w, httpx.CodeInvalidArgument, "File too large or not multipart", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		httpx.WriteError(r.Context(), w, httpx.CodeInvalidArgument, "image is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	format, ok := imageFormats[strings.ToLower(filepath.Ext(header.Filename))]
	if !ok {
		httpx.WriteError(r.Context(), w, httpx.CodeInvalidArgument, "Unsupported image type", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		httpx.WriteError(r.Context(), w, httpx.CodeInvalidArgument, "Unable to read image", http.StatusBadRequest)
		return
	}

	teacher, _ := strconv.ParseBool(r.FormValue("teacher_mode"))

	sess, ok := httpx.RequireSession(w, r)
	if !ok {
		return
	}
	sess.Lock()
	defer sess.Unlock()

	teacher = teacher || sess.Mode == session.ModeTeacher
	history := make([]session.Turn, len(sess.History))
	copy(history, sess.History)

	sol, err := h.service.Solve(r.Context(), gemini.Image{Format: format, Data: data}, teacher, chat.Query{Mode: sess.Mode, History: history})
	if errors.Is(err, ErrNoQuestion) {
		httpx.WriteError(r.Context(), w, httpx.CodeUnprocessable, "Could not read the question from the image. Please try again with a clearer image.", http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		httpx.WriteServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteData(r.Context(), w, http.StatusOK, sol)
}
