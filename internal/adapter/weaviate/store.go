package weaviate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"chemtutor/internal/index"
	"chemtutor/internal/vector"
)

const (
	batchSize = 100
	pageSize  = 100
)

// Store keeps the index as one Weaviate class with caller-supplied vectors.
type Store struct {
	mu     sync.RWMutex
	client *weaviate.Client
	schema *vector.Class
	class  string
}

func NewStore(client *weaviate.Client, class string) *Store {
	return &Store{client: client, schema: vector.NewClass(client, class), class: class}
}

func (s *Store) Replace(ctx context.Context, entries []index.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.schema.Reset(ctx); err != nil {
		return fmt.Errorf("reset class: %w", err)
	}

	for start := 0; start < len(entries); start += batchSize {
		end := start + batchSize
		if end > len(entries) {
			end = len(entries)
		}

		objs := make([]*models.Object, 0, end-start)
		for _, e := range entries[start:end] {
			objs = append(objs, &models.Object{
				Class: s.class,
				Properties: map[string]interface{}{
					"content":    e.Content,
					"chunkId":    e.ID,
					"chunkIndex": e.Index,
				},
				Vector: e.Vector,
			})
		}

		resp, err := s.client.Batch().ObjectsBatcher().WithObjects(objs...).Do(ctx)
		if err != nil {
			return fmt.Errorf("batch insert: %w", err)
		}
		for _, r := range resp {
			if r.Result != nil && r.Result.Errors != nil && len(r.Result.Errors.Error) > 0 {
				return fmt.Errorf("batch insert: %s", r.Result.Errors.Error[0].Message)
			}
		}
	}

	slog.InfoContext(ctx, "weaviate index replaced", "class", s.class, "objects", len(entries))
	return nil
}

// Search ranks every stored chunk so that equal scores at the top-k boundary
// are ordered by chunk index, not by Weaviate.
func (s *Store) Search(ctx context.Context, vec []float32, limit int) ([]index.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, err := s.requireIndex(ctx)
	if err != nil {
		return nil, err
	}
	if limit < 1 {
		return nil, nil
	}

	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(vec)
	fields := []graphql.Field{
		{Name: "content"},
		{Name: "chunkId"},
		{Name: "chunkIndex"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}}},
	}

	res, err := s.client.GraphQL().Get().
		WithClassName(s.class).
		WithNearVector(nearVector).
		WithLimit(n).
		WithFields(fields...).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %v", res.Errors[0].Message)
	}

	var matches []index.Match
	for _, props := range s.rows(res.Data) {
		m := index.Match{Chunk: chunkFromProps(props)}
		if additional, ok := props["_additional"].(map[string]interface{}); ok {
			m.Score = 1 - toFloat32(additional["distance"])
		}
		matches = append(matches, m)
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

	if _, err := s.requireIndex(ctx); err != nil {
		return nil, err
	}

	fields := []graphql.Field{{Name: "content"}, {Name: "chunkId"}, {Name: "chunkIndex"}}
	var chunks []index.Chunk
	for offset := 0; ; offset += pageSize {
		res, err := s.client.GraphQL().Get().
			WithClassName(s.class).
			WithLimit(pageSize).
			WithOffset(offset).
			WithFields(fields...).
			Do(ctx)
		if err != nil {
			return nil, err
		}
		if len(res.Errors) > 0 {
			return nil, fmt.Errorf("graphql error: %v", res.Errors[0].Message)
		}

		rows := s.rows(res.Data)
		for _, props := range rows {
			chunks = append(chunks, chunkFromProps(props))
		}
		if len(rows) < pageSize {
			break
		}
	}

	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Index < chunks[j].Index })
	return chunks, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exists, err := s.schema.Exists(ctx)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}
	return s.count(ctx)
}

func (s *Store) count(ctx context.Context) (int, error) {
	res, err := s.client.GraphQL().Aggregate().
		WithClassName(s.class).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		return 0, err
	}
	if len(res.Errors) > 0 {
		return 0, fmt.Errorf("graphql error: %v", res.Errors[0].Message)
	}

	agg, ok := res.Data["Aggregate"].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	groups, ok := agg[s.class].([]interface{})
	if !ok || len(groups) == 0 {
		return 0, nil
	}
	group, _ := groups[0].(map[string]interface{})
	meta, _ := group["meta"].(map[string]interface{})
	return int(toFloat32(meta["count"])), nil
}

// requireIndex returns the number of stored chunks. The class is created
// empty at startup, so an empty class means nothing has been built yet.
func (s *Store) requireIndex(ctx context.Context) (int, error) {
	exists, err := s.schema.Exists(ctx)
	if err != nil {
		return 0, fmt.Errorf("check class: %w", err)
	}
	if !exists {
		return 0, index.ErrIndexNotFound
	}
	n, err := s.count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count objects: %w", err)
	}
	if n == 0 {
		return 0, index.ErrIndexNotFound
	}
	return n, nil
}

func (s *Store) rows(data map[string]models.JSONObject) []map[string]interface{} {
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return nil
	}
	raw, ok := get[s.class].([]interface{})
	if !ok {
		return nil
	}
	rows := make([]map[string]interface{}, 0, len(raw))
	for _, r := range raw {
		if props, ok := r.(map[string]interface{}); ok {
			rows = append(rows, props)
		}
	}
	return rows
}

func chunkFromProps(props map[string]interface{}) index.Chunk {
	c := index.Chunk{}
	if content, ok := props["content"].(string); ok {
		c.Content = content
	}
	if id, ok := props["chunkId"].(string); ok {
		c.ID = id
	}
	if idx, ok := props["chunkIndex"].(float64); ok {
		c.Index = int(idx)
	}
	return c
}

// toFloat32 accepts the number or string forms GraphQL additional fields come back in.
func toFloat32(v interface{}) float32 {
	switch x := v.(type) {
	case float64:
		return float32(x)
	case string:
		var f float64
		fmt.Sscanf(x, "%f", &f)
		return float32(f)
	default:
		return 0
	}
}
