package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"time"

	"github.com/nsqio/go-nsq"
	"google.golang.org/api/option"

	"chemtutor/features/chat"
	"chemtutor/features/exam"
	"chemtutor/features/job"
	"chemtutor/features/labs"
	"chemtutor/features/material"
	"chemtutor/features/molecule"
	"chemtutor/features/periodic"
	"chemtutor/features/quiz"
	"chemtutor/features/screenshot"
	"chemtutor/features/stats"
	"chemtutor/features/voice"
	"chemtutor/internal/adapter/gemini"
	"chemtutor/internal/adapter/speech"
	"chemtutor/internal/config"
	"chemtutor/internal/document"
	"chemtutor/internal/index"
	"chemtutor/internal/middleware"
	"chemtutor/internal/retrieval"
	"chemtutor/internal/session"
	"chemtutor/internal/text"
	"chemtutor/internal/worker"
)

type TaskPublisher interface {
	Publish(topic string, body []byte) error
}

// Clients are the external model and speech services.
type Clients struct {
	Embedder    index.Embedder
	Generator   chat.Generator
	Sinhala     chat.Synthesizer
	English     chat.Synthesizer
	Transcriber voice.Transcriber

	closers []func() error
}

func NewClients(ctx context.Context, cfg *config.Config) (*Clients, error) {
	gc := gemini.NewClient(cfg.GeminiAPIKey)

	var speechOpts []option.ClientOption
	if cfg.SpeechAPIKey != "" {
		speechOpts = append(speechOpts, option.WithAPIKey(cfg.SpeechAPIKey))
	}
	si, err := speech.NewCloudSynthesizer(ctx, cfg.TTSLanguage, speechOpts...)
	if err != nil {
		return nil, err
	}
	en, err := speech.NewCloudSynthesizer(ctx, cfg.TTSEnglishLanguage, speechOpts...)
	if err != nil {
		return nil, err
	}
	rec, err := speech.NewCloudRecognizer(ctx, cfg.SpeechLanguage, speechOpts...)
	if err != nil {
		return nil, err
	}

	return &Clients{
		Embedder:    gemini.NewEmbedder(gc, cfg.EmbeddingModel, cfg.EmbedTimeout),
		Generator:   gemini.NewGenerator(gc, cfg.ChatModel, cfg.ChatTemperature, cfg.LLMTimeout),
		Sinhala:     si.WithTimeout(cfg.SpeechTimeout),
		English:     en.WithTimeout(cfg.SpeechTimeout),
		Transcriber: speech.NewTranscriber(rec, cfg.VoiceMaxRetries, cfg.VoiceAttemptTimeout),
		closers:     []func() error{gc.Close},
	}, nil
}

func (c *Clients) Close() {
	for _, fn := range c.closers {
		if err := fn(); err != nil {
			slog.Warn("failed to close client", "error", err)
		}
	}
}

type App struct {
	Handler   http.Handler
	Sessions  *session.Store
	Materials *material.Service
	Ingest    *worker.IngestConsumer

	cfg         *config.Config
	queryLogger *retrieval.QueryLogger
}

// New wires every feature onto one mux. pub may be nil, in which case
// uploads are indexed inline and failed jobs cannot be retried.
func New(cfg *config.Config, db *sql.DB, store index.Store, pub TaskPublisher, clients *Clients) (*App, error) {
	queryLogger, err := retrieval.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		slog.Warn("failed to create query logger, falling back to stdout", "error", err)
		queryLogger = retrieval.NewQueryLogger(os.Stdout)
	}

	splitter, err := text.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("chunk splitter: %w", err)
	}
	table, err := periodic.Load(cfg.ElementsPath)
	if err != nil {
		return nil, fmt.Errorf("periodic table: %w", err)
	}
	catalog, err := labs.LoadCatalog(cfg.LabsPath)
	if err != nil {
		return nil, fmt.Errorf("lab catalog: %w", err)
	}

	rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), uint64(os.Getpid())))
	sessions := session.NewStore(cfg.SessionTTL)
	retriever := retrieval.NewService(clients.Embedder, store, cfg.RetrievalTopK, queryLogger)

	// Feature: Material
	materialRepo := material.NewPostgresRepo(db)
	pipeline := material.NewPipeline(document.NewPDFExtractor(), splitter, index.NewBuilder(clients.Embedder, store))
	var ingestPub material.EventPublisher
	if cfg.AsyncIngest && pub != nil {
		ingestPub = pub
	}
	materialService := material.NewService(materialRepo, pipeline, ingestPub, cfg.UploadDir)
	materialHandler := material.NewHandler(materialService, cfg.MaxUploadSizeMB<<20)

	// Feature: Job
	jobRepo := job.NewPostgresRepo(db)
	var jobPub job.EventPublisher
	if pub != nil {
		jobPub = pub
	}
	jobHandler := job.NewHandler(job.NewService(jobRepo, jobPub, config.TopicIngestMaterial))

	// Feature: Chat
	moleculeService := molecule.NewService(clients.Generator, clients.Sinhala, cfg.DepictionBaseURL)
	composer := chat.NewComposer(retriever, clients.Generator, clients.Sinhala, moleculeService, cfg.DepictionBaseURL)
	chatHandler := chat.NewHandler(composer)

	quizHandler := quiz.NewHandler(quiz.NewService(retriever, clients.Generator, cfg.QuizTemperature, rng))
	examHandler := exam.NewHandler(exam.NewService(clients.Generator, cfg.QuizTemperature, rng))
	moleculeHandler := molecule.NewHandler(moleculeService)
	screenshotHandler := screenshot.NewHandler(screenshot.NewService(clients.Generator, composer), cfg.MaxUploadSizeMB<<20)
	periodicHandler := periodic.NewHandler(table, clients.English)
	labsHandler := labs.NewHandler(labs.NewService(catalog, clients.Generator, clients.Sinhala))
	voiceHandler := voice.NewHandler(clients.Transcriber, clients.Sinhala, clients.English)
	statsHandler := stats.NewHandler(materialRepo, jobRepo, store, sessions)

	// Routes
	mux := http.NewServeMux()

	mux.HandleFunc("POST /materials", materialHandler.Upload)
	mux.HandleFunc("GET /materials", materialHandler.List)

	mux.HandleFunc("POST /chat", chatHandler.Ask)
	mux.HandleFunc("GET /chat/history", chatHandler.History)
	mux.HandleFunc("DELETE /chat/history", chatHandler.ClearHistory)
	mux.HandleFunc("GET /session", chatHandler.GetSession)
	mux.HandleFunc("PUT /session/mode", chatHandler.SetMode)

	mux.HandleFunc("POST /quizzes", quizHandler.Create)
	mux.HandleFunc("POST /quizzes/submit", quizHandler.Submit)

	mux.HandleFunc("GET /exams/topics", examHandler.Topics)
	mux.HandleFunc("POST /exams", examHandler.Create)
	mux.HandleFunc("POST /exams/submit", examHandler.Submit)

	mux.HandleFunc("POST /molecules", moleculeHandler.Visualize)
	mux.HandleFunc("POST /screenshots", screenshotHandler.Solve)

	mux.HandleFunc("GET /elements", periodicHandler.List)
	mux.HandleFunc("GET /elements/{symbol}", periodicHandler.Get)

	mux.HandleFunc("GET /labs", labsHandler.List)
	mux.HandleFunc("GET /labs/{id}", labsHandler.Get)
	mux.HandleFunc("POST /labs/{id}/ask", labsHandler.Ask)
	mux.HandleFunc("POST /labs/{id}/intro", labsHandler.Intro)

	mux.HandleFunc("POST /voice/transcribe", voiceHandler.Transcribe)
	mux.HandleFunc("POST /voice/navigate", voiceHandler.Navigate)

	mux.HandleFunc("GET /jobs/failed", jobHandler.List)
	mux.HandleFunc("POST /jobs/{id}/retry", jobHandler.Retry)

	mux.HandleFunc("GET /stats", statsHandler.GetStats)

	// Liveness checks stay outside the session middleware so they never mint sessions.
	root := http.NewServeMux()
	root.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	root.Handle("/", session.Middleware(sessions)(mux))

	handler := middleware.CorrelationID(enableCORS(root))

	return &App{
		Handler:     handler,
		Sessions:    sessions,
		Materials:   materialService,
		Ingest:      worker.NewIngestConsumer(materialService, jobRepo, cfg.IngestMaxAttempts, cfg.IngestTimeout),
		cfg:         cfg,
		queryLogger: queryLogger,
	}, nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+session.Header+", X-Correlation-ID")
		w.Header().Set("Access-Control-Expose-Headers", session.Header+", X-Correlation-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StartIngestWorker subscribes the ingest consumer to its topic.
func (a *App) StartIngestWorker() (*nsq.Consumer, error) {
	consumer, err := nsq.NewConsumer(config.TopicIngestMaterial, config.ChannelIngestWorker, nsq.NewConfig())
	if err != nil {
		return nil, fmt.Errorf("create ingest consumer: %w", err)
	}
	consumer.AddHandler(a.Ingest)
	if err := consumer.ConnectToNSQLookupd(a.cfg.NSQLookupd); err != nil {
		consumer.Stop()
		return nil, fmt.Errorf("connect to nsqlookupd: %w", err)
	}
	slog.Info("ingest worker connected", "topic", config.TopicIngestMaterial)
	return consumer, nil
}

func (a *App) Run(ctx context.Context) error {
	if a.cfg.SessionSweep > 0 {
		go a.Sessions.RunJanitor(ctx, a.cfg.SessionSweep)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.ServerPort),
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
		if err := a.queryLogger.Close(); err != nil {
			slog.Warn("failed to close query log", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.cfg.ServerPort)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
