package chromem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/philippgille/chromem-go"

	"chemtutor/internal/index"
)

const metaChunkIndex = "chunk_index"

var errImplicitEmbedding = errors.New("chromem: embeddings must be supplied by the index builder")

// noEmbed keeps chromem from calling a default embedding provider.
func noEmbed(ctx context.Context, text string) ([]float32, error) {
	return nil, errImplicitEmbedding
}

// Store keeps the index in an on-disk chromem database. Each build is written
// to a fresh generation collection named "<name>-<unix nanos>"; the newest
// complete generation is the live index.
type Store struct {
	mu     sync.RWMutex
	db     *chromem.DB
	name   string
	active string
}

func NewStore(dir string, compress bool, collection string) (*Store, error) {
	db, err := chromem.NewPersistentDB(dir, compress)
	if err != nil {
		return nil, fmt.Errorf("open index dir %s: %w", dir, err)
	}
	s := &Store{db: db, name: collection}
	if gens := s.generations(); len(gens) > 0 {
		s.active = gens[len(gens)-1]
	}
	return s, nil
}

// generations lists this store's collections, oldest first.
func (s *Store) generations() []string {
	prefix := s.name + "-"
	var names []string
	for name := range s.db.ListCollections() {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Replace writes entries to a new generation and only then drops the older
// ones, so a failed build leaves the previous index searchable.
func (s *Store) Replace(ctx context.Context, entries []index.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	gen := fmt.Sprintf("%s-%020d", s.name, now.UnixNano())
	meta := map[string]string{"built_at": now.Format(time.RFC3339)}
	c, err := s.db.CreateCollection(gen, meta, noEmbed)
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	docs := make([]chromem.Document, 0, len(entries))
	for _, e := range entries {
		docs = append(docs, chromem.Document{
			ID:        e.ID,
			Content:   e.Content,
			Metadata:  map[string]string{metaChunkIndex: strconv.Itoa(e.Index)},
			Embedding: e.Vector,
		})
	}
	if err := c.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		if dropErr := s.db.DeleteCollection(gen); dropErr != nil {
			slog.WarnContext(ctx, "failed to drop incomplete index", "collection", gen, "error", dropErr)
		}
		return fmt.Errorf("add documents: %w", err)
	}

	s.active = gen
	for _, old := range s.generations() {
		if old == gen {
			continue
		}
		if err := s.db.DeleteCollection(old); err != nil {
			slog.WarnContext(ctx, "failed to drop previous index", "collection", old, "error", err)
		}
	}

	slog.InfoContext(ctx, "chromem index replaced", "collection", gen, "documents", len(docs))
	return nil
}

func (s *Store) collection() *chromem.Collection {
	if s.active == "" {
		return nil
	}
	return s.db.GetCollection(s.active, noEmbed)
}

// Search scores every stored chunk so that equal scores can be ordered by
// chunk index before the limit is applied.
func (s *Store) Search(ctx context.Context, vector []float32, limit int) ([]index.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.collection()
	if c == nil {
		return nil, index.ErrIndexNotFound
	}
	n := c.Count()
	if n == 0 || limit < 1 {
		return nil, nil
	}

	res, err := c.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: vector,
		NResults:       n,
	})
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	matches := make([]index.Match, 0, len(res))
	for _, r := range res {
		matches = append(matches, index.Match{
			Chunk: index.Chunk{ID: r.ID, Index: chunkIndex(r.Metadata), Content: r.Content},
			Score: r.Similarity,
		})
	}
	index.SortMatches(matches)
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (s *Store) Chunks(ctx context.Context) ([]index.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.collection()
	if c == nil {
		return nil, index.ErrIndexNotFound
	}

	n := c.Count()
	chunks := make([]index.Chunk, 0, n)
	for i := 0; i < n; i++ {
		doc, err := c.GetByID(ctx, index.ChunkID(i))
		if err != nil {
			return nil, fmt.Errorf("get chunk %d: %w", i, err)
		}
		chunks = append(chunks, index.Chunk{ID: doc.ID, Index: i, Content: doc.Content})
	}
	return chunks, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.collection()
	if c == nil {
		return 0, nil
	}
	return c.Count(), nil
}

func chunkIndex(meta map[string]string) int {
	i, err := strconv.Atoi(meta[metaChunkIndex])
	if err != nil {
		return -1
	}
	return i
}
