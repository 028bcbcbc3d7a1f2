// Package main provides the HTTP server for podrag.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raphaelgruber/podrag-go/internal/catalog"
	"github.com/raphaelgruber/podrag-go/internal/config"
	"github.com/raphaelgruber/podrag-go/internal/history"
	"github.com/raphaelgruber/podrag-go/internal/index"
	"github.com/raphaelgruber/podrag-go/internal/llm"
	"github.com/raphaelgruber/podrag-go/internal/pipeline"
	"github.com/raphaelgruber/podrag-go/internal/server"
	"github.com/raphaelgruber/podrag-go/internal/surreal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, closeLogger := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer func() { _ = closeLogger() }()
	slog.SetDefault(logger)

	logger.Info("starting podrag-server", "port", cfg.ServerPort)

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	dbClient, err := surreal.NewClient(startCtx, surreal.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
	}, logger)
	if err != nil {
		cancel()
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(context.Background()); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	embedder, err := llm.NewEmbedder(cfg)
	if err != nil {
		cancel()
		logger.Error("failed to create embedder", "error", err)
		os.Exit(1)
	}

	idx, err := index.NewSurreal(startCtx, dbClient, embedder, embedder.Dimension(), logger)
	if err != nil {
		cancel()
		logger.Error("failed to init index", "error", err)
		os.Exit(1)
	}
	store, err := history.NewSurrealStore(startCtx, dbClient)
	cancel()
	if err != nil {
		logger.Error("failed to init history store", "error", err)
		os.Exit(1)
	}

	p, err := pipeline.New(pipeline.Config{
		Models: func(ctx context.Context, modelID string) (pipeline.ChatModel, error) {
			return llm.NewClient(ctx, cfg, modelID)
		},
		Index:         idx,
		History:       store,
		Tags:          catalog.Default(),
		PromptVariant: pipeline.ParseVariant(cfg.PromptVariant),
		HistoryWindow: cfg.HistoryWindow,
		Logger:        logger,
	})
	if err != nil {
		logger.Error("failed to create pipeline", "error", err)
		os.Exit(1)
	}

	srv := server.New(":"+cfg.ServerPort, p, cfg.DefaultModel, logger)

	// Run until interrupted.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
