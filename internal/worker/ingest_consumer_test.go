package worker_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nsqio/go-nsq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chemtutor/features/job"
	"chemtutor/features/material"
	"chemtutor/internal/index"
	"chemtutor/internal/middleware"
	"chemtutor/internal/worker"
)

type MockProcessor struct{ mock.Mock }

func (m *MockProcessor) Process(ctx context.Context, task material.Task) error {
	return m.Called(ctx, task).Error(0)
}

type MockJobRepo struct{ mock.Mock }

func (m *MockJobRepo) Save(ctx context.Context, j *job.Job) error {
	return m.Called(ctx, j).Error(0)
}
func (m *MockJobRepo) List(ctx context.Context) ([]job.Job, error)          { return nil, nil }
func (m *MockJobRepo) Get(ctx context.Context, id string) (*job.Job, error) { return nil, nil }
func (m *MockJobRepo) Delete(ctx context.Context, id string) error          { return nil }
func (m *MockJobRepo) Count(ctx context.Context) (int, error)               { return 0, nil }

func taskMessage(t *testing.T, attempts uint16) *nsq.Message {
	body, err := json.Marshal(material.Task{MaterialID: "m1", Paths: []string{"uploads/m1/00_a.pdf"}, CorrelationID: "corr-1"})
	require.NoError(t, err)
	return &nsq.Message{Body: body, Attempts: attempts}
}

func TestIngestConsumer_Success(t *testing.T) {
	p, jobs := new(MockProcessor), new(MockJobRepo)
	p.On("Process", mock.MatchedBy(func(ctx context.Context) bool {
		return middleware.GetCorrelationID(ctx) == "corr-1"
	}), material.Task{MaterialID: "m1", Paths: []string{"uploads/m1/00_a.pdf"}, CorrelationID: "corr-1"}).Return(nil)

	c := worker.NewIngestConsumer(p, jobs, 3, time.Minute)
	require.NoError(t, c.HandleMessage(taskMessage(t, 1)))
	p.AssertExpectations(t)
	jobs.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestIngestConsumer_Failures(t *testing.T) {
	upstream := errors.New("embedding quota exceeded")

	tests := []struct {
		name     string
		err      error
		attempts uint16
		saveErr  error
		wantErr  bool
		wantSave bool
	}{
		{"Transient Requeues", upstream, 1, nil, true, false},
		{"Last Attempt Parks Job", upstream, 3, nil, false, true},
		{"Empty Corpus Is Permanent", fmt.Errorf("build index: %w", index.ErrEmptyCorpus), 1, nil, false, true},
		{"Save Failure Requeues", upstream, 3, errors.New("db down"), true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, jobs := new(MockProcessor), new(MockJobRepo)
			p.On("Process", mock.Anything, mock.Anything).Return(tt.err)
			jobs.On("Save", mock.Anything, mock.MatchedBy(func(j *job.Job) bool {
				return j.MaterialID == "m1" && j.Handler == worker.HandlerName && j.Retries == int(tt.attempts)
			})).Return(tt.saveErr)

			err := worker.NewIngestConsumer(p, jobs, 3, 0).HandleMessage(taskMessage(t, tt.attempts))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			if tt.wantSave {
				jobs.AssertCalled(t, "Save", mock.Anything, mock.Anything)
			} else {
				jobs.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestIngestConsumer_PoisonPill(t *testing.T) {
	p := new(MockProcessor)
	c := worker.NewIngestConsumer(p, new(MockJobRepo), 3, 0)

	assert.NoError(t, c.HandleMessage(&nsq.Message{Body: []byte("invalid json")}))
	assert.NoError(t, c.HandleMessage(&nsq.Message{Body: []byte(`{"paths":[]}`)}))
	assert.NoError(t, c.HandleMessage(&nsq.Message{}))
	p.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
}
