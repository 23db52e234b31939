package job

import (
	"errors"
	"log/slog"
	"net/http"

	"chemtutor/internal/httpx"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobs, err := h.service.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list jobs", "error", err)
		httpx.WriteError(ctx, w, httpx.CodeInternal, "Failed to list jobs", http.StatusInternalServerError)
		return
	}
	if jobs == nil {
		jobs = []Job{}
	}
	httpx.WriteData(ctx, w, http.StatusOK, jobs)
}

func (h *Handler) Retry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	slog.InfoContext(ctx, "retrying job", "id", id)

	err := h.service.Retry(ctx, id)
	switch {
	case err == nil:
		httpx.WriteData(ctx, w, http.StatusOK, map[string]string{"id": id, "status": "requeued"})
	case errors.Is(err, ErrNotFound):
		httpx.WriteError(ctx, w, httpx.CodeNotFound, "Job not found", http.StatusNotFound)
	case errors.Is(err, ErrQueueDisabled):
		httpx.WriteError(ctx, w, httpx.CodeConflict, err.Error(), http.StatusConflict)
	default:
		slog.ErrorContext(ctx, "failed to retry job", "id", id, "error", err)
		httpx.WriteError(ctx, w, httpx.CodeInternal, "Failed to retry job", http.StatusInternalServerError)
	}
}
