package index

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrIndexNotFound is the load error returned before any material was ingested.
	ErrIndexNotFound = errors.New("no index has been built yet")
	ErrEmptyCorpus   = errors.New("no text to index")
)

type Chunk struct {
	ID      string `json:"id"`
	Index   int    `json:"index"`
	Content string `json:"content"`
}

// Entry pairs a chunk with its single embedding vector.
type Entry struct {
	Chunk
	Vector []float32
}

type Match struct {
	Chunk
	Score float32 `json:"score"`
}

// Store is a persisted nearest-neighbour index that is only ever replaced whole.
type Store interface {
	Replace(ctx context.Context, entries []Entry) error
	Search(ctx context.Context, vector []float32, limit int) ([]Match, error)
	Chunks(ctx context.Context) ([]Chunk, error)
	Count(ctx context.Context) (int, error)
}

func ChunkID(i int) string {
	return fmt.Sprintf("chunk-%06d", i)
}

// SortMatches orders by score descending, then by chunk index ascending.
func SortMatches(m []Match) {
	sort.SliceStable(m, func(i, j int) bool {
		if m[i].Score != m[j].Score {
			return m[i].Score > m[j].Score
		}
		return m[i].Index < m[j].Index
	})
}
