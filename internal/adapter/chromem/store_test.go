package chromem

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chemtutor/internal/index"
)

func entry(i int, content string, vec ...float32) index.Entry {
	return index.Entry{
		Chunk:  index.Chunk{ID: index.ChunkID(i), Index: i, Content: content},
		Vector: vec,
	}
}

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), false, "ChemistryChunk")
	require.NoError(t, err)
	return s
}

func TestStore_SearchBeforeBuild(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.Search(ctx, []float32{1, 0}, 4)
	assert.ErrorIs(t, err, index.ErrIndexNotFound)

	_, err = s.Chunks(ctx)
	assert.ErrorIs(t, err, index.ErrIndexNotFound)

	n, err := s.Count(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestStore_ReplaceDropsPreviousIndex(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Replace(ctx, []index.Entry{
		entry(0, "Benzene (C6H6) is an aromatic hydrocarbon.", 1, 0, 0),
		entry(1, "Methane is CH4.", 0.9, 0.1, 0),
	}))

	res, err := s.Search(ctx, []float32{1, 0, 0}, 4)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "Benzene (C6H6) is an aromatic hydrocarbon.", res[0].Content)

	require.NoError(t, s.Replace(ctx, []index.Entry{
		entry(0, "Sodium chloride is ionic.", 0, 1, 0),
	}))

	res, err = s.Search(ctx, []float32{1, 0, 0}, 4)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "Sodium chloride is ionic.", res[0].Content)

	chunks, err := s.Chunks(ctx)
	require.NoError(t, err)
	assert.Len(t, chunks, 1)
}

func TestStore_SearchLimitAndTieOrder(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	var entries []index.Entry
	for i := 0; i < 6; i++ {
		entries = append(entries, entry(i, "same", 0, 1))
	}
	entries = append(entries, entry(6, "mirror", 1, 0))
	require.NoError(t, s.Replace(ctx, entries))

	res, err := s.Search(ctx, []float32{1, 1}, 4)
	require.NoError(t, err)
	require.Len(t, res, 4)

	assert.Equal(t, 0, res[0].Index)
	for i := 1; i < len(res); i++ {
		assert.Equal(t, i, res[i].Index)
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewStore(dir, false, "ChemistryChunk")
	require.NoError(t, err)
	require.NoError(t, s.Replace(ctx, []index.Entry{entry(0, "Water is H2O.", 1, 0)}))

	reopened, err := NewStore(dir, false, "ChemistryChunk")
	require.NoError(t, err)

	chunks, err := reopened.Chunks(ctx)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Water is H2O.", chunks[0].Content)
}

func TestStore_FailedReplaceKeepsPreviousIndex(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewStore(dir, false, "ChemistryChunk")
	require.NoError(t, err)
	require.NoError(t, s.Replace(ctx, []index.Entry{entry(0, "Water is H2O.", 1, 0)}))

	// No vector, so chromem falls back to the embedding func, which refuses.
	err = s.Replace(ctx, []index.Entry{
		entry(0, "Ammonia is NH3.", 0, 1),
		{Chunk: index.Chunk{ID: index.ChunkID(1), Index: 1, Content: "missing vector"}},
	})
	require.Error(t, err)

	res, err := s.Search(ctx, []float32{1, 0}, 4)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "Water is H2O.", res[0].Content)
	assert.Len(t, s.generations(), 1)

	reopened, err := NewStore(dir, false, "ChemistryChunk")
	require.NoError(t, err)
	chunks, err := reopened.Chunks(ctx)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Water is H2O.", chunks[0].Content)
}
