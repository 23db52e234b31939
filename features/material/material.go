package material

import (
	"context"
	"errors"
	"time"

	"chemtutor/internal/config"
)

const TopicIngest = config.TopicIngestMaterial

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

var (
	ErrNoDocuments     = errors.New("no documents uploaded")
	ErrUnsupportedFile = errors.New("only PDF files are supported")
	ErrNotFound        = errors.New("material not found")
)

// Material is one upload batch and the outcome of indexing it.
type Material struct {
	ID          string    `json:"id"`
	Files       []string  `json:"files"`
	ContentHash string    `json:"-"`
	Status      string    `json:"status"`
	Chunks      int       `json:"chunks"`
	Error       string    `json:"error,omitempty"`
	Duplicate   bool      `json:"duplicate,omitempty"`
	Skipped     []string  `json:"skipped,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Task is the ingest.task message body.
type Task struct {
	MaterialID    string   `json:"material_id"`
	Paths         []string `json:"paths"`
	CorrelationID string   `json:"correlation_id,omitempty"`
}

type Repository interface {
	Save(ctx context.Context, m *Material) error
	UpdateStatus(ctx context.Context, id, status string, chunks int, errMsg string) error
	Get(ctx context.Context, id string) (*Material, error)
	Latest(ctx context.Context) (*Material, error)
	List(ctx context.Context) ([]Material, error)
	Count(ctx context.Context) (int, error)
}
