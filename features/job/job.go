package job

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("job not found")
	ErrQueueDisabled = errors.New("ingest queue is not configured")
)

// Job is an ingest task that exhausted its attempts on the worker.
type Job struct {
	ID         string          `json:"id"`
	MaterialID string          `json:"materialId"`
	Handler    string          `json:"handler"`
	Payload    json.RawMessage `json:"payload"`
	Error      string          `json:"error"`
	Retries    int             `json:"retries"`
	CreatedAt  time.Time       `json:"createdAt"`
}
