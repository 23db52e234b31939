package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/nsqio/go-nsq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	"chemtutor/internal/config"
)

// IntegrationSuite starts Postgres, Weaviate and nsqd in containers.
type IntegrationSuite struct {
	T        *testing.T
	DB       *sql.DB
	Weaviate *weaviate.Client
	NSQ      *nsq.Producer

	pgHost, pgPort    string
	weaviateHost      string
	nsqTCP, nsqHTTP   string
	pgContainer       *postgres.PostgresContainer
	weaviateContainer testcontainers.Container
	nsqContainer      testcontainers.Container
}

func NewIntegrationSuite(t *testing.T) *IntegrationSuite {
	return &IntegrationSuite{T: t}
}

func (s *IntegrationSuite) Setup() {
	ctx := context.Background()

	// 1. Postgres
	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("chemtutor_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(s.T, err)
	s.pgContainer = pgContainer

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(s.T, err)
	s.DB, err = sql.Open("postgres", connStr)
	require.NoError(s.T, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(s.T, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(s.T, err)
	s.pgHost, s.pgPort = host, port.Port()

	_, b, _, _ := runtime.Caller(0)
	m, err := migrate.New(fmt.Sprintf("file://%s/../../migrations", filepath.Dir(b)), connStr)
	require.NoError(s.T, err)
	require.NoError(s.T, m.Up())

	// 2. Weaviate
	weaviateC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "semitechnologies/weaviate:latest",
			ExposedPorts: []string{"8080/tcp", "50051/tcp"},
			Env: map[string]string{
				"AUTHENTICATION_ANONYMOUS_ACCESS_ENABLED": "true",
				"DEFAULT_VECTORIZER_MODULE":               "none",
				"PERSISTENCE_DATA_PATH":                   "/var/lib/weaviate",
			},
			WaitingFor: wait.ForHTTP("/v1/meta").WithPort("8080/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(s.T, err)
	s.weaviateContainer = weaviateC

	wHost, err := weaviateC.Host(ctx)
	require.NoError(s.T, err)
	wPort, err := weaviateC.MappedPort(ctx, "8080")
	require.NoError(s.T, err)
	s.weaviateHost = fmt.Sprintf("%s:%s", wHost, wPort.Port())
	s.Weaviate, err = weaviate.NewClient(weaviate.Config{Host: s.weaviateHost, Scheme: "http"})
	require.NoError(s.T, err)

	// 3. NSQ
	nsqC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "nsqio/nsq:v1.3.0",
			ExposedPorts: []string{"4150/tcp", "4151/tcp"},
			Cmd:          []string{"/nsqd", "--broadcast-address=localhost"},
			WaitingFor:   wait.ForLog("TCP: listening on").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(s.T, err)
	s.nsqContainer = nsqC

	nsqHost, err := nsqC.Host(ctx)
	require.NoError(s.T, err)
	tcpPort, err := nsqC.MappedPort(ctx, "4150")
	require.NoError(s.T, err)
	httpPort, err := nsqC.MappedPort(ctx, "4151")
	require.NoError(s.T, err)
	s.nsqTCP = fmt.Sprintf("%s:%s", nsqHost, tcpPort.Port())
	s.nsqHTTP = fmt.Sprintf("%s:%s", nsqHost, httpPort.Port())

	s.NSQ, err = nsq.NewProducer(s.nsqTCP, nsq.NewConfig())
	require.NoError(s.T, err)
}

// GetAppConfig returns a config pointing at the suite's containers with
// every other value at its default.
func (s *IntegrationSuite) GetAppConfig() *config.Config {
	var port int
	_, err := fmt.Sscanf(s.pgPort, "%d", &port)
	require.NoError(s.T, err)

	return &config.Config{
		DBHost: s.pgHost,
		DBPort: port,
		DBUser: "test",
		DBPass: "test",
		DBName: "chemtutor_test",

		GeminiAPIKey:    "test-key",
		SpeechAPIKey:    "test-key",
		ChatModel:       "gemini-2.5-flash",
		EmbeddingModel:  "gemini-embedding-001",
		ChatTemperature: 0.3,
		QuizTemperature: 0.7,

		ChunkSize:       10000,
		ChunkOverlap:    1000,
		RetrievalTopK:   4,
		IndexBackend:    config.IndexBackendChromem,
		IndexCollection: "ChemistryChunk",

		WeaviateHost:   s.weaviateHost,
		WeaviateScheme: "http",

		NSQLookupd:        s.nsqHTTP,
		NSQDHost:          s.nsqTCP,
		NSQDHTTP:          s.nsqHTTP,
		IngestMaxAttempts: 3,
		IngestTimeout:     time.Minute,

		SpeechLanguage:      "si-LK",
		TTSLanguage:         "si-LK",
		TTSEnglishLanguage:  "en-US",
		VoiceMaxRetries:     2,
		VoiceAttemptTimeout: 10 * time.Second,
		LLMTimeout:          time.Minute,
		EmbedTimeout:        30 * time.Second,
		SpeechTimeout:       30 * time.Second,

		SessionTTL:   time.Hour,
		SessionSweep: time.Minute,

		ServerPort:      8081,
		MaxUploadSizeMB: 50,

		BootstrapRetryAttempts:     5,
		BootstrapRetryDelaySeconds: 1,
	}
}

func (s *IntegrationSuite) Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func (s *IntegrationSuite) Teardown() {
	ctx := context.Background()
	if s.NSQ != nil {
		s.NSQ.Stop()
	}
	if s.DB != nil {
		_ = s.DB.Close()
	}
	for _, c := range []testcontainers.Container{s.pgContainer, s.weaviateContainer, s.nsqContainer} {
		if c != nil {
			if err := c.Terminate(ctx); err != nil {
				s.T.Logf("failed to terminate container: %v", err)
			}
		}
	}
}
