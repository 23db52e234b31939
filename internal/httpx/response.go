package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"chemtutor/internal/apperr"
	"chemtutor/internal/index"
	"chemtutor/internal/middleware"
	"chemtutor/internal/molecule"
	"chemtutor/internal/quiz"
)

// Error codes shared by all handlers.
const (
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeIndexNotFound   = "INDEX_NOT_FOUND"
	CodeUpstream        = "UPSTREAM_ERROR"
	CodeMalformedOutput = "MALFORMED_OUTPUT"
	CodeUnprocessable   = "UNPROCESSABLE"
	CodeInternal        = "INTERNAL_ERROR"
)

// WriteData encodes v under the "data" key.
func WriteData(ctx context.Context, w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": v}); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func WriteError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.ErrorContext(ctx, "failed to encode error response", "error", err)
	}
}

// DecodeJSON reads a JSON body into dst, writing an INVALID_ARGUMENT error on failure.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteError(r.Context(), w, CodeInvalidArgument, "Invalid JSON", http.StatusBadRequest)
		return false
	}
	return true
}

// WriteServiceError maps domain and upstream errors onto the error envelope.
func WriteServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	var parseErr *quiz.ParseError
	switch {
	case errors.Is(err, index.ErrIndexNotFound):
		WriteError(ctx, w, CodeIndexNotFound, "upload study material first", http.StatusConflict)
	case errors.As(err, &parseErr):
		slog.WarnContext(ctx, "model output rejected", "error", err)
		WriteError(ctx, w, CodeMalformedOutput, "The model returned an unexpected format, please try again", http.StatusBadGateway)
	case errors.Is(err, molecule.ErrInvalidSMILES):
		WriteError(ctx, w, CodeUnprocessable, "Could not interpret that compound, try another name", http.StatusUnprocessableEntity)
	case errors.Is(err, index.ErrEmptyCorpus):
		WriteError(ctx, w, CodeUnprocessable, "No text could be extracted from the uploaded files", http.StatusUnprocessableEntity)
	case errors.Is(err, apperr.ErrUpstream), errors.Is(err, context.DeadlineExceeded):
		slog.ErrorContext(ctx, "upstream call failed", "error", err)
		WriteError(ctx, w, CodeUpstream, "An external service failed, please try again", http.StatusBadGateway)
	default:
		slog.ErrorContext(ctx, "request failed", "error", err)
		WriteError(ctx, w, CodeInternal, "Internal Server Error", http.StatusInternalServerError)
	}
}
