package gemini

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/generative-ai-go/genai"

	"chemtutor/internal/apperr"
)

var ErrEmptyEmbedding = errors.New("empty embedding received")

type Embedder struct {
	client  *Client
	model   string
	timeout time.Duration
}

func NewEmbedder(client *Client, model string, timeout time.Duration) *Embedder {
	return &Embedder{client: client, model: model, timeout: timeout}
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	client, err := e.client.get(ctx)
	if err != nil {
		return nil, err
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	slog.DebugContext(ctx, "embedding content", "model", e.model, "length", len(text))
	res, err := client.EmbeddingModel(e.model).EmbedContent(ctx, genai.Text(text))
	if err != nil {
		slog.ErrorContext(ctx, "embedding failed", "error", err)
		return nil, apperr.Upstream("embed content", err)
	}

	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, apperr.Upstream("embed content", ErrEmptyEmbedding)
	}

	return res.Embedding.Values, nil
}
