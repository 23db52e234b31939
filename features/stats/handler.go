package stats

import (
	"context"
	"log/slog"
	"net/http"

	"chemtutor/internal/httpx"
)

// Counter is satisfied by the material and job repositories and the index store.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

type SessionCounter interface {
	Count() int
}

type Handler struct {
	materials Counter
	jobs      Counter
	chunks    Counter
	sessions  SessionCounter
}

func NewHandler(materials, jobs, chunks Counter, sessions SessionCounter) *Handler {
	return &Handler{materials: materials, jobs: jobs, chunks: chunks, sessions: sessions}
}

type StatsResponse struct {
	Materials      int `json:"materials"`
	Chunks         int `json:"chunks"`
	FailedJobs     int `json:"failed_jobs"`
	ActiveSessions int `json:"active_sessions"`
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var resp StatsResponse
	counts := []struct {
		name string
		src  Counter
		dst  *int
	}{
		{"materials", h.materials, &resp.Materials},
		{"failed jobs", h.jobs, &resp.FailedJobs},
		{"chunks", h.chunks, &resp.Chunks},
	}
	for _, c := range counts {
		n, err := c.src.Count(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "failed to count "+c.name, "error", err)
			httpx.WriteError(ctx, w, httpx.CodeInternal, "failed to count "+c.name, http.StatusInternalServerError)
			return
		}
		*c.dst = n
	}
	resp.ActiveSessions = h.sessions.Count()

	httpx.WriteData(ctx, w, http.StatusOK, resp)
}
