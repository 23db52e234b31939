package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var (
	ErrMissingRequired = errors.New("missing required configuration")
	ErrInvalidValue    = errors.New("invalid configuration value")
)

const (
	IndexBackendChromem  = "chromem"
	IndexBackendWeaviate = "weaviate"
)

type Config struct {
	DBHost string `envconfig:"DB_HOST" default:"postgres"`
	DBPort int    `envconfig:"DB_PORT" default:"5432"`
	DBUser string `envconfig:"DB_USER" default:"chemtutor"`
	DBPass string `envconfig:"DB_PASS" default:"password"`
	DBName string `envconfig:"DB_NAME" default:"chemtutor"`

	MigrationPath string `envconfig:"MIGRATION_PATH" default:"file://migrations"`

	// Gemini
	GeminiAPIKey    string  `envconfig:"GOOGLE_API_KEY"`
	ChatModel       string  `envconfig:"CHAT_MODEL" default:"gemini-2.5-flash"`
	EmbeddingModel  string  `envconfig:"EMBEDDING_MODEL" default:"gemini-embedding-001"`
	ChatTemperature float32 `envconfig:"CHAT_TEMPERATURE" default:"0.3"`
	QuizTemperature float32 `envconfig:"QUIZ_TEMPERATURE" default:"0.7"`

	// Ingestion and retrieval
	ChunkSize     int `envconfig:"CHUNK_SIZE" default:"10000"`
	ChunkOverlap  int `envconfig:"CHUNK_OVERLAP" default:"1000"`
	RetrievalTopK int `envconfig:"RETRIEVAL_TOP_K" default:"4"`

	IndexBackend    string `envconfig:"INDEX_BACKEND" default:"chromem"`
	IndexDir        string `envconfig:"INDEX_DIR" default:"data/vector_index"`
	IndexCollection string `envconfig:"INDEX_COLLECTION" default:"ChemistryChunk"`
	IndexCompress   bool   `envconfig:"INDEX_COMPRESS" default:"false"`

	WeaviateHost   string `envconfig:"WEAVIATE_HOST" default:"localhost:8080"`
	WeaviateScheme string `envconfig:"WEAVIATE_SCHEME" default:"http"`

	NSQLookupd         string        `envconfig:"NSQ_LOOKUPD" default:"nsqlookupd:4161"`
	NSQDHost           string        `envconfig:"NSQD_HOST" default:"nsqd:4150"`
	NSQDHTTP           string        `envconfig:"NSQD_HTTP" default:"nsqd:4151"`
	IngestMaxAttempts  uint16        `envconfig:"INGEST_MAX_ATTEMPTS" default:"3"`
	IngestTimeout      time.Duration `envconfig:"INGEST_TIMEOUT" default:"30m"`
	AsyncIngest        bool          `envconfig:"ASYNC_INGEST" default:"false"`
	EnableIngestWorker bool          `envconfig:"ENABLE_INGEST_WORKER" default:"false"`

	EnableAPI bool `envconfig:"ENABLE_API" default:"true"`

	// Speech. Application default credentials are used when SPEECH_API_KEY is empty.
	SpeechAPIKey        string        `envconfig:"SPEECH_API_KEY"`
	SpeechLanguage      string        `envconfig:"SPEECH_LANGUAGE" default:"si-LK"`
	TTSLanguage         string        `envconfig:"TTS_LANGUAGE" default:"si-LK"`
	TTSEnglishLanguage  string        `envconfig:"TTS_ENGLISH_LANGUAGE" default:"en-US"`
	VoiceMaxRetries     int           `envconfig:"VOICE_MAX_RETRIES" default:"2"`
	VoiceAttemptTimeout time.Duration `envconfig:"VOICE_ATTEMPT_TIMEOUT" default:"10s"`

	// Timeouts for external calls
	LLMTimeout    time.Duration `envconfig:"LLM_TIMEOUT" default:"60s"`
	EmbedTimeout  time.Duration `envconfig:"EMBED_TIMEOUT" default:"30s"`
	SpeechTimeout time.Duration `envconfig:"SPEECH_TIMEOUT" default:"30s"`

	ElementsPath     string        `envconfig:"ELEMENTS_PATH" default:"data/elements.json"`
	LabsPath         string        `envconfig:"LABS_PATH"`
	DepictionBaseURL string        `envconfig:"DEPICTION_BASE_URL" default:"https://cactus.nci.nih.gov/chemical/structure"`
	SessionTTL       time.Duration `envconfig:"SESSION_TTL" default:"2h"`
	SessionSweep     time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"10m"`

	// Server
	ServerPort      int    `envconfig:"SERVER_PORT" default:"8081"`
	QueryLogPath    string `envconfig:"QUERY_LOG_PATH" default:"data/logs/query.log"`
	MaxUploadSizeMB int64  `envconfig:"MAX_UPLOAD_SIZE_MB" default:"50"`
	UploadDir       string `envconfig:"UPLOAD_DIR" default:"./uploads"`

	// Resilience
	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

func Load() (*Config, error) {
	// Ignore errors, as env vars might be set in the shell
	_ = godotenv.Load(".env")

	cwd, _ := os.Getwd()
	_ = godotenv.Load(filepath.Join(cwd, "../.env"))

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DBHost == "" {
		return fmt.Errorf("%w: DB_HOST", ErrMissingRequired)
	}
	if c.DBUser == "" {
		return fmt.Errorf("%w: DB_USER", ErrMissingRequired)
	}
	if c.DBName == "" {
		return fmt.Errorf("%w: DB_NAME", ErrMissingRequired)
	}
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("%w: GOOGLE_API_KEY", ErrMissingRequired)
	}
	if c.ChunkSize < 1 {
		return fmt.Errorf("%w: CHUNK_SIZE must be positive", ErrInvalidValue)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: CHUNK_OVERLAP must be in [0, CHUNK_SIZE)", ErrInvalidValue)
	}
	if c.RetrievalTopK < 1 {
		return fmt.Errorf("%w: RETRIEVAL_TOP_K must be at least 1", ErrInvalidValue)
	}
	if c.VoiceMaxRetries < 0 {
		return fmt.Errorf("%w: VOICE_MAX_RETRIES must not be negative", ErrInvalidValue)
	}
	switch c.IndexBackend {
	case IndexBackendChromem, IndexBackendWeaviate:
	default:
		return fmt.Errorf("%w: INDEX_BACKEND %q", ErrInvalidValue, c.IndexBackend)
	}
	return nil
}
