package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"chemtutor/internal/app"
	"chemtutor/internal/config"
	"chemtutor/internal/logger"
)

func main() {
	log := slog.New(logger.NewContextHandler(slog.NewJSONHandler(os.Stdout, nil)))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		slog.Error("application exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.DB.Close()

	clients, err := app.NewClients(ctx, cfg)
	if err != nil {
		return err
	}
	defer clients.Close()

	var pub app.TaskPublisher
	if deps.NSQProducer != nil {
		pub = deps.NSQProducer
		defer deps.NSQProducer.Stop()
	}

	a, err := app.New(cfg, deps.DB, deps.Index, pub, clients)
	if err != nil {
		return err
	}

	if cfg.EnableIngestWorker {
		consumer, err := a.StartIngestWorker()
		if err != nil {
			return err
		}
		defer consumer.Stop()
	}

	if !cfg.EnableAPI {
		log.Info("api disabled, running ingest worker only")
		<-ctx.Done()
		return nil
	}
	return a.Run(ctx)
}
