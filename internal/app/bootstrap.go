package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/nsqio/go-nsq"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	"chemtutor/internal/adapter/chromem"
	wstore "chemtutor/internal/adapter/weaviate"
	"chemtutor/internal/config"
	"chemtutor/internal/index"
	"chemtutor/internal/vector"
)

type Dependencies struct {
	DB    *sql.DB
	Index index.Store
	// NSQProducer is nil unless ingestion is asynchronous.
	NSQProducer *nsq.Producer
}

// SchemaEnsurer prepares a vector backend before first use.
type SchemaEnsurer interface {
	EnsureSchema(ctx context.Context) error
}

func Bootstrap(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	retryDelay := time.Duration(cfg.BootstrapRetryDelaySeconds) * time.Second

	db, err := openDB(cfg, retryDelay)
	if err != nil {
		return nil, err
	}
	if err := migrateUp(db, cfg.MigrationPath); err != nil {
		db.Close()
		return nil, err
	}

	store, err := openIndex(ctx, cfg, retryDelay)
	if err != nil {
		db.Close()
		return nil, err
	}

	deps := &Dependencies{DB: db, Index: store}
	if cfg.AsyncIngest || cfg.EnableIngestWorker {
		producer, err := nsq.NewProducer(cfg.NSQDHost, nsq.NewConfig())
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("nsq producer error: %w", err)
		}
		deps.NSQProducer = producer
		createTopics(cfg.NSQDHTTP)
	}
	return deps, nil
}

func openDB(cfg *config.Config, retryDelay time.Duration) (*sql.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPass, cfg.DBName)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	for i := 0; i < cfg.BootstrapRetryAttempts; i++ {
		if err := db.Ping(); err == nil {
			break
		}
		slog.Warn("failed to ping db, retrying...", "attempt", i+1)
		time.Sleep(retryDelay)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}
	return db, nil
}

func migrateUp(db *sql.DB, path string) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("migration driver error: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance(path, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migration instance error: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up error: %w", err)
	}
	slog.Info("migrations applied successfully")
	return nil
}

func openIndex(ctx context.Context, cfg *config.Config, retryDelay time.Duration) (index.Store, error) {
	if cfg.IndexBackend != config.IndexBackendWeaviate {
		store, err := chromem.NewStore(cfg.IndexDir, cfg.IndexCompress, cfg.IndexCollection)
		if err != nil {
			return nil, fmt.Errorf("chromem index error: %w", err)
		}
		return store, nil
	}

	client, err := weaviate.NewClient(weaviate.Config{Host: cfg.WeaviateHost, Scheme: cfg.WeaviateScheme})
	if err != nil {
		return nil, fmt.Errorf("weaviate client error: %w", err)
	}
	schema := vector.NewClass(client, cfg.IndexCollection)
	if err := EnsureSchemaWithRetry(ctx, schema, cfg.BootstrapRetryAttempts, retryDelay); err != nil {
		return nil, fmt.Errorf("weaviate schema error: %w", err)
	}
	return wstore.NewStore(client, cfg.IndexCollection), nil
}

func createTopics(nsqdHTTP string) {
	create := func(topic string) {
		url := fmt.Sprintf("http://%s/topic/create?topic=%s", nsqdHTTP, topic)
		resp, err := http.Post(url, "application/json", nil) // #nosec G107 -- URL is built from internal NSQ config, not user input
		if err != nil {
			slog.Warn("failed to create NSQ topic", "topic", topic, "error", err)
			return
		}
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Warn("failed to close NSQ topic creation response body", "error", closeErr)
		}
	}

	go func() {
		time.Sleep(2 * time.Second)
		create(config.TopicIngestMaterial)
	}()
}

// EnsureSchemaWithRetry retries the schema check until it succeeds or attempts run out.
func EnsureSchemaWithRetry(ctx context.Context, store SchemaEnsurer, attempts int, delay time.Duration) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = store.EnsureSchema(ctx); err == nil {
			return nil
		}
		if i < attempts-1 {
			time.Sleep(delay)
		}
	}
	return err
}
