package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sheetqa/sheetqa/internal/answer"
	"github.com/sheetqa/sheetqa/internal/api"
	"github.com/sheetqa/sheetqa/internal/config"
	"github.com/sheetqa/sheetqa/internal/ingest"
	"github.com/sheetqa/sheetqa/internal/observability"
	"github.com/sheetqa/sheetqa/internal/oracle"
	"github.com/sheetqa/sheetqa/internal/storage"
	s3store "github.com/sheetqa/sheetqa/internal/storage/s3"
	"github.com/sheetqa/sheetqa/internal/store"
	"github.com/sheetqa/sheetqa/internal/store/sqlstore"
)

// The service boots in degraded mode when optional dependencies fail:
// requests still get well-formed responses and readiness reports the
// missing pieces.
func main() {
	cfg, err := config.LoadFromEnv("sheetqa-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var db store.Store
	sqlDB, err := sqlstore.Open(ctx, sqlstore.Config{
		Driver:          cfg.Store.Driver,
		DSN:             cfg.Store.DSN,
		MaxOpenConns:    cfg.Store.MaxOpenConns,
		MaxIdleConns:    cfg.Store.MaxIdleConns,
		ConnMaxIdleTime: cfg.Store.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.Store.ConnMaxLifetime,
	})
	if err != nil {
		logger.Error("store unavailable, continuing degraded", slog.Any("error", err))
	} else {
		db = sqlDB
		defer func() { _ = sqlDB.Close() }()
	}

	var archive storage.ObjectStore
	if cfg.Archive.Enabled {
		s3Archive, err := s3store.New(ctx, s3store.Config{
			Endpoint:         cfg.Archive.Endpoint,
			Region:           cfg.Archive.Region,
			Bucket:           cfg.Archive.Bucket,
			AccessKeyID:      cfg.Archive.AccessKeyID,
			SecretAccessKey:  cfg.Archive.SecretAccessKey,
			UseSSL:           cfg.Archive.UseSSL,
			Prefix:           cfg.Archive.Prefix,
			AutoCreateBucket: cfg.Archive.AutoCreateBucket,
		})
		if err != nil {
			logger.Error("upload archive unavailable, continuing without it", slog.Any("error", err))
		} else {
			archive = s3Archive
		}
	}

	completer := newCompleter(ctx, cfg, logger)

	ingestor := &ingest.Service{Store: db, Logger: logger, Archive: archive}
	asker := &answer.Service{
		Store:            db,
		Oracle:           completer,
		Logger:           logger,
		Policy:           cfg.Ask.Policy,
		SchemaSampleRows: cfg.Ask.SchemaSampleRows,
		AnswerSampleRows: cfg.Ask.AnswerSampleRows,
		RowCap:           cfg.Ask.RowCap,
	}

	handler := api.NewHandler(cfg, api.Dependencies{
		Logger:   logger,
		Ingestor: ingestor,
		Asker:    asker,
		Store:    db,
		Readiness: api.CombineReadinessChecks(
			api.CheckStore(db),
			api.CheckOracle(completer != nil),
		),
		DependencyTimeout: time.Second,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}

func newCompleter(ctx context.Context, cfg config.Config, logger *slog.Logger) oracle.Completer {
	if cfg.Oracle.APIKey == "" {
		logger.Warn("oracle api key not configured, question pipeline will run degraded")
		return nil
	}
	switch cfg.Oracle.Provider {
	case "gemini":
		client, err := oracle.NewGeminiClient(ctx, oracle.GeminiConfig{
			APIKey: cfg.Oracle.APIKey,
			Model:  cfg.Oracle.Model,
		})
		if err != nil {
			logger.Error("gemini oracle unavailable, continuing degraded", slog.Any("error", err))
			return nil
		}
		return client
	case "openai":
		client, err := oracle.NewOpenAIClient(oracle.OpenAIConfig{
			BaseURL:     cfg.Oracle.BaseURL,
			APIKey:      cfg.Oracle.APIKey,
			Model:       cfg.Oracle.Model,
			Temperature: cfg.Oracle.Temperature,
			Timeout:     cfg.Oracle.Timeout,
		})
		if err != nil {
			logger.Error("openai oracle unavailable, continuing degraded", slog.Any("error", err))
			return nil
		}
		return client
	default:
		logger.Error("unknown oracle provider, continuing degraded", slog.String("provider", cfg.Oracle.Provider))
		return nil
	}
}
