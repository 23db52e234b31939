package job

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

const publishTimeout = 5 * time.Second

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

type Service struct {
	repo    Repository
	pub     EventPublisher
	topic   string
	timeout time.Duration
}

// NewService retries jobs by republishing their payload on topic. pub may be
// nil when ingestion runs inline.
func NewService(repo Repository, pub EventPublisher, topic string) *Service {
	return &Service{repo: repo, pub: pub, topic: topic, timeout: publishTimeout}
}

func (s *Service) List(ctx context.Context) ([]Job, error) {
	return s.repo.List(ctx)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *Service) Retry(ctx context.Context, id string) error {
	if s.pub == nil {
		return ErrQueueDisabled
	}
	job, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- s.pub.Publish(s.topic, job.Payload)
	}()
	select {
	case err := <-done:
		if err != nil {
			return err
		}
	case <-time.After(s.timeout):
		return errors.New("timeout waiting for NSQ publish")
	case <-ctx.Done():
		return ctx.Err()
	}

	slog.InfoContext(ctx, "failed job republished", "job_id", id, "material_id", job.MaterialID)
	return s.repo.Delete(ctx, id)
}
