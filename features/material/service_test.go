package material

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chemtutor/internal/document"
	"chemtutor/internal/index"
)

type MockRepo struct{ mock.Mock }

func (m *MockRepo) Save(ctx context.Context, mat *Material) error {
	return m.Called(ctx, mat).Error(0)
}

func (m *MockRepo) UpdateStatus(ctx context.Context, id, status string, chunks int, errMsg string) error {
	return m.Called(ctx, id, status, chunks, errMsg).Error(0)
}

func (m *MockRepo) Get(ctx context.Context, id string) (*Material, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Material), args.Error(1)
}

func (m *MockRepo) Latest(ctx context.Context) (*Material, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Material), args.Error(1)
}

func (m *MockRepo) List(ctx context.Context) ([]Material, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Material), args.Error(1)
}

func (m *MockRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockRunner struct{ mock.Mock }

func (m *MockRunner) Run(ctx context.Context, docs []document.Document) (int, error) {
	args := m.Called(ctx, docs)
	return args.Int(0), args.Error(1)
}

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) Publish(topic string, body []byte) error {
	return m.Called(topic, body).Error(0)
}

func pdf(name, body string) document.Document {
	return document.Document{Name: name, Data: []byte("%PDF-1.4\n" + body)}
}

func TestService_UploadValidation(t *testing.T) {
	s := NewService(new(MockRepo), new(MockRunner), nil, t.TempDir())

	_, err := s.Upload(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoDocuments)

	_, err = s.Upload(context.Background(), []document.Document{{Name: "notes.txt", Data: []byte("hello")}})
	assert.ErrorIs(t, err, ErrUnsupportedFile)

	_, err = s.Upload(context.Background(), []document.Document{{Name: "fake.pdf", Data: []byte("hello")}})
	assert.ErrorIs(t, err, ErrUnsupportedFile)
}

func TestService_UploadSkipsDamagedFile(t *testing.T) {
	repo, runner := new(MockRepo), new(MockRunner)
	good := pdf("benzene.pdf", "benzene")
	damaged := document.Document{Name: "damaged.pdf", Data: []byte("\x00\x00garbage")}

	repo.On("Latest", mock.Anything).Return(nil, ErrNotFound)
	repo.On("Save", mock.Anything, mock.MatchedBy(func(m *Material) bool {
		return len(m.Files) == 1 && m.Files[0] == "benzene.pdf" && m.ContentHash == BatchHash([]document.Document{good})
	})).Return(nil)
	runner.On("Run", mock.Anything, []document.Document{good}).Return(2, nil)
	repo.On("UpdateStatus", mock.Anything, mock.Anything, StatusCompleted, 2, "").Return(nil)

	m, err := NewService(repo, runner, nil, t.TempDir()).Upload(context.Background(), []document.Document{good, damaged})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, m.Status)
	assert.Equal(t, []string{"damaged.pdf"}, m.Skipped)
	runner.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestService_UploadInline(t *testing.T) {
	repo, runner := new(MockRepo), new(MockRunner)
	docs := []document.Document{pdf("benzene.pdf", "benzene")}

	repo.On("Latest", mock.Anything).Return(nil, ErrNotFound)
	repo.On("Save", mock.Anything, mock.MatchedBy(func(m *Material) bool {
		return m.Status == StatusProcessing && m.ContentHash == BatchHash(docs) && m.Files[0] == "benzene.pdf"
	})).Return(nil)
	runner.On("Run", mock.Anything, docs).Return(1, nil)
	repo.On("UpdateStatus", mock.Anything, mock.Anything, StatusCompleted, 1, "").Return(nil)

	dir := t.TempDir()
	m, err := NewService(repo, runner, nil, dir).Upload(context.Background(), docs)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, m.Status)
	assert.Equal(t, 1, m.Chunks)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	repo.AssertExpectations(t)
}

func TestService_UploadInlineFailure(t *testing.T) {
	repo, runner := new(MockRepo), new(MockRunner)
	docs := []document.Document{pdf("scan.pdf", "")}
	buildErr := errors.New("build index from 1 documents: " + index.ErrEmptyCorpus.Error())

	repo.On("Latest", mock.Anything).Return(nil, ErrNotFound)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	runner.On("Run", mock.Anything, docs).Return(0, buildErr)
	repo.On("UpdateStatus", mock.Anything, mock.Anything, StatusFailed, 0, buildErr.Error()).Return(nil)

	m, err := NewService(repo, runner, nil, t.TempDir()).Upload(context.Background(), docs)
	assert.Equal(t, buildErr, err)
	require.NotNil(t, m)
	assert.Equal(t, StatusFailed, m.Status)
	repo.AssertExpectations(t)
}

func TestService_UploadDuplicate(t *testing.T) {
	repo, runner := new(MockRepo), new(MockRunner)
	docs := []document.Document{pdf("a.pdf", "one"), pdf("b.pdf", "two")}
	repo.On("Latest", mock.Anything).Return(&Material{ID: "m1", ContentHash: BatchHash(docs), Status: StatusCompleted}, nil)

	m, err := NewService(repo, runner, nil, t.TempDir()).Upload(context.Background(), docs)
	require.NoError(t, err)
	assert.True(t, m.Duplicate)
	assert.Equal(t, "m1", m.ID)
	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestService_UploadAsync(t *testing.T) {
	repo, runner, pub := new(MockRepo), new(MockRunner), new(MockPublisher)
	docs := []document.Document{pdf("a.pdf", "one")}

	repo.On("Latest", mock.Anything).Return(nil, ErrNotFound)
	repo.On("Save", mock.Anything, mock.MatchedBy(func(m *Material) bool { return m.Status == StatusQueued })).Return(nil)

	var task Task
	pub.On("Publish", TopicIngest, mock.Anything).Run(func(args mock.Arguments) {
		require.NoError(t, json.Unmarshal(args.Get(1).([]byte), &task))
	}).Return(nil)

	m, err := NewService(repo, runner, pub, t.TempDir()).Upload(context.Background(), docs)
	require.NoError(t, err)
	assert.Equal(t, StatusQueued, m.Status)
	assert.Equal(t, m.ID, task.MaterialID)
	require.Len(t, task.Paths, 1)

	data, err := os.ReadFile(task.Paths[0])
	require.NoError(t, err)
	assert.Equal(t, docs[0].Data, data)
	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestService_Process(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/00_a.pdf"
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 x"), 0o600))

	t.Run("Success", func(t *testing.T) {
		repo, runner := new(MockRepo), new(MockRunner)
		repo.On("UpdateStatus", mock.Anything, "m1", StatusProcessing, 0, "").Return(nil)
		runner.On("Run", mock.Anything, []document.Document{{Name: "00_a.pdf", Data: []byte("%PDF-1.4 x")}}).Return(4, nil)
		repo.On("UpdateStatus", mock.Anything, "m1", StatusCompleted, 4, "").Return(nil)

		err := NewService(repo, runner, nil, dir).Process(context.Background(), Task{MaterialID: "m1", Paths: []string{path}})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("Missing File", func(t *testing.T) {
		repo := new(MockRepo)
		repo.On("UpdateStatus", mock.Anything, "m1", StatusFailed, 0, mock.Anything).Return(nil)

		err := NewService(repo, new(MockRunner), nil, dir).Process(context.Background(), Task{MaterialID: "m1", Paths: []string{dir + "/gone.pdf"}})
		assert.Error(t, err)
		repo.AssertExpectations(t)
	})
}

type stubExtractor struct{ text string }

func (s stubExtractor) Extract(context.Context, []document.Document) string { return s.text }

type stubSplitter struct{}

func (stubSplitter) Split(text string) []string {
	if text == "" {
		return nil
	}
	return []string{text}
}

type stubBuilder struct{}

func (stubBuilder) Build(_ context.Context, chunks []string) (int, error) {
	if len(chunks) == 0 {
		return 0, index.ErrEmptyCorpus
	}
	return len(chunks), nil
}

func TestPipeline_Run(t *testing.T) {
	n, err := NewPipeline(stubExtractor{"benzene"}, stubSplitter{}, stubBuilder{}).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = NewPipeline(stubExtractor{""}, stubSplitter{}, stubBuilder{}).Run(context.Background(), nil)
	assert.ErrorIs(t, err, index.ErrEmptyCorpus)
}
