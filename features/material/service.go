package material

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"chemtutor/internal/document"
	"chemtutor/internal/middleware"
)

type Runner interface {
	Run(ctx context.Context, docs []document.Document) (int, error)
}

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

// Service records upload batches and indexes them, inline when no
// publisher is configured and on the ingest worker otherwise.
type Service struct {
	repo      Repository
	runner    Runner
	pub       EventPublisher
	uploadDir string
}

func NewService(repo Repository, runner Runner, pub EventPublisher, uploadDir string) *Service {
	return &Service{repo: repo, runner: runner, pub: pub, uploadDir: uploadDir}
}

func (s *Service) Upload(ctx context.Context, docs []document.Document) (*Material, error) {
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}
	for _, d := range docs {
		if !strings.EqualFold(filepath.Ext(d.Name), ".pdf") {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, d.Name)
		}
	}

	// A damaged file contributes nothing; the rest of the batch is still indexed.
	var skipped []string
	kept := docs[:0:0]
	for _, d := range docs {
		if !IsPDF(d) {
			slog.WarnContext(ctx, "skipping file without PDF header", "file", d.Name)
			skipped = append(skipped, filepath.Base(d.Name))
			continue
		}
		kept = append(kept, d)
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("%w: no readable PDF in upload", ErrUnsupportedFile)
	}
	docs = kept

	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = filepath.Base(d.Name)
	}

	hash := BatchHash(docs)
	latest, err := s.repo.Latest(ctx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("load latest material: %w", err)
	}
	if latest != nil && latest.ContentHash == hash {
		slog.InfoContext(ctx, "material already indexed, skipping", "material_id", latest.ID)
		latest.Duplicate = true
		latest.Skipped = skipped
		return latest, nil
	}

	m := &Material{ID: uuid.New().String(), Files: names, Skipped: skipped, ContentHash: hash, Status: StatusProcessing}
	if s.pub != nil {
		m.Status = StatusQueued
	}
	paths, err := s.store(m.ID, docs)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, m); err != nil {
		return nil, fmt.Errorf("save material: %w", err)
	}

	if s.pub != nil {
		return m, s.enqueue(ctx, m, paths)
	}
	return m, s.ingest(ctx, m, docs)
}

func (s *Service) List(ctx context.Context) ([]Material, error) {
	return s.repo.List(ctx)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// Process runs a queued task. Every attempt records its outcome.
func (s *Service) Process(ctx context.Context, task Task) error {
	docs := make([]document.Document, 0, len(task.Paths))
	for _, p := range task.Paths {
		data, err := os.ReadFile(p) // #nosec G304 -- paths are written by Upload
		if err != nil {
			s.markFailed(ctx, task.MaterialID, err)
			return fmt.Errorf("read upload: %w", err)
		}
		docs = append(docs, document.Document{Name: filepath.Base(p), Data: data})
	}

	if err := s.repo.UpdateStatus(ctx, task.MaterialID, StatusProcessing, 0, ""); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}
	return s.ingest(ctx, &Material{ID: task.MaterialID}, docs)
}

func (s *Service) ingest(ctx context.Context, m *Material, docs []document.Document) error {
	n, err := s.runner.Run(ctx, docs)
	if err != nil {
		s.markFailed(ctx, m.ID, err)
		m.Status, m.Error = StatusFailed, err.Error()
		return err
	}
	if err := s.repo.UpdateStatus(ctx, m.ID, StatusCompleted, n, ""); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	m.Status, m.Chunks = StatusCompleted, n
	slog.InfoContext(ctx, "material indexed", "material_id", m.ID, "chunks", n)
	return nil
}

func (s *Service) enqueue(ctx context.Context, m *Material, paths []string) error {
	payload, err := json.Marshal(Task{
		MaterialID:    m.ID,
		Paths:         paths,
		CorrelationID: middleware.GetCorrelationID(ctx),
	})
	if err != nil {
		return err
	}
	if err := s.pub.Publish(TopicIngest, payload); err != nil {
		s.markFailed(ctx, m.ID, err)
		m.Status, m.Error = StatusFailed, err.Error()
		return fmt.Errorf("publish %s: %w", TopicIngest, err)
	}
	slog.InfoContext(ctx, "published ingest task", "material_id", m.ID, "files", len(paths))
	return nil
}

func (s *Service) markFailed(ctx context.Context, id string, cause error) {
	if err := s.repo.UpdateStatus(ctx, id, StatusFailed, 0, cause.Error()); err != nil {
		slog.WarnContext(ctx, "failed to update material status", "material_id", id, "error", err)
	}
}

func (s *Service) store(id string, docs []document.Document) ([]string, error) {
	dir := filepath.Join(s.uploadDir, id)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	paths := make([]string, len(docs))
	for i, d := range docs {
		p := filepath.Join(dir, fmt.Sprintf("%02d_%s", i, filepath.Base(d.Name)))
		if err := os.WriteFile(p, d.Data, 0o600); err != nil {
			return nil, fmt.Errorf("write upload: %w", err)
		}
		paths[i] = p
	}
	return paths, nil
}

// BatchHash is the sha256 over each document's own digest, in upload order.
func BatchHash(docs []document.Document) string {
	h := sha256.New()
	for _, d := range docs {
		sum := sha256.Sum256(d.Data)
		h.Write(sum[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

func IsPDF(d document.Document) bool {
	return strings.EqualFold(filepath.Ext(d.Name), ".pdf") && strings.HasPrefix(string(d.Data[:min(len(d.Data), 5)]), "%PDF-")
}
