package index

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Builder struct {
	embedder Embedder
	store    Store
}

func NewBuilder(e Embedder, s Store) *Builder {
	return &Builder{embedder: e, store: s}
}

// Build embeds every chunk and then replaces the stored index. Nothing is
// written unless all embeddings succeed.
func (b *Builder) Build(ctx context.Context, chunks []string) (int, error) {
	if len(chunks) == 0 {
		return 0, ErrEmptyCorpus
	}

	start := time.Now()
	entries := make([]Entry, 0, len(chunks))
	for i, content := range chunks {
		vec, err := b.embedder.Embed(ctx, content)
		if err != nil {
			return 0, fmt.Errorf("embed chunk %d: %w", i, err)
		}
		entries = append(entries, Entry{
			Chunk:  Chunk{ID: ChunkID(i), Index: i, Content: content},
			Vector: vec,
		})
	}

	if err := b.store.Replace(ctx, entries); err != nil {
		return 0, fmt.Errorf("replace index: %w", err)
	}

	slog.InfoContext(ctx, "index rebuilt", "chunks", len(entries), "duration_ms", time.Since(start).Milliseconds())
	return len(entries), nil
}
