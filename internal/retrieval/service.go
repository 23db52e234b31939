package retrieval

import (
	"context"
	"errors"
	"strings"
	"time"

	"chemtutor/internal/index"
	"chemtutor/internal/middleware"
)

var ErrEmptyQuery = errors.New("query is empty")

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Service struct {
	embedder Embedder
	store    index.Store
	topK     int
	logger   *QueryLogger
}

func NewService(e Embedder, s index.Store, topK int, l *QueryLogger) *Service {
	return &Service{embedder: e, store: s, topK: topK, logger: l}
}

// Search returns the topK chunks closest to the query, best first.
func (s *Service) Search(ctx context.Context, query string) ([]index.Match, error) {
	return s.SearchN(ctx, query, s.topK)
}

func (s *Service) SearchN(ctx context.Context, query string, limit int) ([]index.Match, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	start := time.Now()
	var docs []index.Match
	var err error

	defer func() {
		if s.logger != nil && err == nil {
			s.logger.Log(QueryLogEntry{
				Query:         query,
				NumResults:    len(docs),
				Duration:      time.Since(start),
				CorrelationID: middleware.GetCorrelationID(ctx),
			})
		}
	}()

	var vec []float32
	vec, err = s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	docs, err = s.store.Search(ctx, vec, limit)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// Chunks lists every stored chunk in document order.
func (s *Service) Chunks(ctx context.Context) ([]index.Chunk, error) {
	return s.store.Chunks(ctx)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}
