package material

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"chemtutor/internal/document"
	"chemtutor/internal/httpx"
)

type Handler struct {
	service  *Service
	maxBytes int64
}

func NewHandler(s *Service, maxBytes int64) *Handler {
	return &Handler{service: s, maxBytes: maxBytes}
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		httpx.WriteError(ctx, w, httpx.CodeInvalidArgument, "File too large or not multipart", http.StatusBadRequest)
		return
	}

	var docs []document.Document
	for _, fh := range r.MultipartForm.File["files"] {
		f, err := fh.Open()
		if err != nil {
			httpx.WriteError(ctx, w, httpx.CodeInvalidArgument, "Unable to read "+fh.Filename, http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			httpx.WriteError(ctx, w, httpx.CodeInvalidArgument, "Unable to read "+fh.Filename, http.StatusBadRequest)
			return
		}
		docs = append(docs, document.Document{Name: fh.Filename, Data: data})
	}

	slog.InfoContext(ctx, "material upload", "files", len(docs))

	m, err := h.service.Upload(ctx, docs)
	switch {
	case errors.Is(err, ErrNoDocuments), errors.Is(err, ErrUnsupportedFile):
		httpx.WriteError(ctx, w, httpx.CodeInvalidArgument, err.Error(), http.StatusBadRequest)
		return
	case err != nil && m == nil:
		slog.ErrorContext(ctx, "material upload failed", "error", err)
		httpx.WriteError(ctx, w, httpx.CodeInternal, "Failed to store material", http.StatusInternalServerError)
		return
	case err != nil:
		httpx.WriteServiceError(ctx, w, err)
		return
	}

	status := http.StatusCreated
	switch {
	case m.Duplicate:
		status = http.StatusOK
	case m.Status == StatusQueued:
		status = http.StatusAccepted
	}
	httpx.WriteData(ctx, w, status, m)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	materials, err := h.service.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list materials", "error", err)
		httpx.WriteError(r.Context(), w, httpx.CodeInternal, "Failed to list materials", http.StatusInternalServerError)
		return
	}
	if materials == nil {
		materials = []Material{}
	}
	httpx.WriteData(r.Context(), w, http.StatusOK, materials)
}
