package quiz

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"chemtutor/internal/adapter/gemini"
	"chemtutor/internal/index"
	mcq "chemtutor/internal/quiz"
)

const (
	DefaultQuestions = 5
	MaxQuestions     = 20
	maxChunks        = 3
)

type ChunkSource interface {
	Chunks(ctx context.Context) ([]index.Chunk, error)
}

type Generator interface {
	Generate(ctx context.Context, req gemini.Request) (string, error)
}

const prompt = `Generate %d multiple-choice chemistry questions in Sinhala from this text.
Focus on DIFFERENT TOPICS each time. Write one question per line, formatted exactly as:
%s
Option A must always be the correct answer.
Text: %s`

type Service struct {
	chunks      ChunkSource
	generator   Generator
	temperature float32

	mu  sync.Mutex
	rng *rand.Rand
}

func NewService(c ChunkSource, g Generator, temperature float32, rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Service{chunks: c, generator: g, temperature: temperature, rng: rng}
}

// Generate builds a quiz of at most n items from up to three random chunks of
// the current index.
func (s *Service) Generate(ctx context.Context, n int) (*mcq.Attempt, error) {
	chunks, err := s.chunks.Chunks(ctx)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, index.ErrIndexNotFound
	}

	selected := s.sample(chunks, maxChunks)
	perChunk := (n + len(selected) - 1) / len(selected)

	var items []mcq.Item
	var parseErr error
	for _, c := range selected {
		text, err := s.generator.Generate(ctx, gemini.Request{
			Prompt:      fmt.Sprintf(prompt, perChunk, mcq.Format, c.Content),
			Temperature: gemini.Temp(s.temperature),
		})
		if err != nil {
			return nil, err
		}

		got, err := mcq.Parse(text)
		if err != nil {
			slog.WarnContext(ctx, "discarding quiz output", "chunk", c.ID, "error", err)
			parseErr = err
			continue
		}
		items = append(items, got...)
	}

	if len(items) == 0 {
		return nil, parseErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
	if len(items) > n {
		items = items[:n]
	}
	return mcq.Present(items, "", s.rng), nil
}

func (s *Service) sample(chunks []index.Chunk, k int) []index.Chunk {
	s.mu.Lock()
	defer s.mu.Unlock()

	perm := s.rng.Perm(len(chunks))
	if len(perm) > k {
		perm = perm[:k]
	}
	out := make([]index.Chunk, 0, len(perm))
	for _, i := range perm {
		out = append(out, chunks[i])
	}
	return out
}
