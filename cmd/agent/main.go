// Package main is the entry point for the stocksync integration agent.
// It serves the control API and runs the scheduled import/export jobs.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stocksync/internal/config"
	"stocksync/internal/domain/export"
	"stocksync/internal/domain/produce"
	syncjob "stocksync/internal/domain/sync"
	v1 "stocksync/internal/infrastructure/http/v1"
	"stocksync/internal/infrastructure/storage/postgres"
	"stocksync/internal/infrastructure/storage/postgres/produce_repo"
	"stocksync/internal/infrastructure/storage/postgres/stock_repo"
	"stocksync/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.AppEnv == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)
	log.Info("starting stocksync agent")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = cfg.DBMaxConns
	poolCfg.MinConns = cfg.DBMinConns
	poolCfg.MaxConnLifetime = cfg.DBMaxConnLife
	poolCfg.MaxConnIdleTime = cfg.DBMaxConnIdle
	poolCfg.StatementTimeout = cfg.StatementTimeout

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)
	probe := postgres.NewSchemaProbe(txManager)

	// --- Production engine ---
	produceRepo := produce_repo.New(txManager, probe)
	produceService := produce.NewService(produceRepo, txManager)

	// --- Jobs ---
	var importer *syncjob.Runner
	if cfg.SyncAPIURL != "" {
		fetcher := syncjob.NewFetcher(syncjob.FetcherConfig{
			URL:       cfg.SyncAPIURL,
			Token:     cfg.SyncAPIToken,
			UserAgent: cfg.UploadUserAgent,
			Timeout:   cfg.HTTPTimeout,
			VerifyTLS: cfg.VerifyTLS,
		})
		importer = syncjob.NewRunner(fetcher, produceService)
	}

	var exporter *export.Service
	if cfg.StockSelectSQL != "" {
		var uploader export.FileUploader
		if cfg.UploadURL != "" {
			token := cfg.UploadAPIToken
			if token == "" {
				token = cfg.SyncAPIToken
			}
			uploader = export.NewUploader(export.UploaderConfig{
				URL:           cfg.UploadURL,
				FieldName:     cfg.UploadFieldName,
				Token:         token,
				TokenQueryKey: cfg.UploadTokenQueryKey,
				UserAgent:     cfg.UploadUserAgent,
				ExtraHeaders:  cfg.UploadHeaders,
				ExtraFields:   cfg.ExtraUploadFields,
				Timeout:       cfg.HTTPTimeout,
				VerifyTLS:     cfg.VerifyTLS,
			})
		}
		exporter = export.NewService(export.Config{
			StockSelectSQL: cfg.StockSelectSQL,
			CSVDirectory:   cfg.CSVDirectory,
			UploadEnabled:  cfg.UploadURL != "",
		}, stock_repo.New(txManager), uploader, export.NewAuditLog(cfg.AuditLogDirectory))
	}

	// --- Scheduler ---
	scheduler := syncjob.NewScheduler()
	scheduler.Start(ctx)
	if cfg.SyncEnabled && importer != nil {
		scheduler.Every(cfg.SyncInterval, "import", func(ctx context.Context) error {
			_, err := importer.RunOnce(ctx)
			return err
		})
	}
	if cfg.ExportEnabled && exporter != nil {
		scheduler.Every(cfg.ExportInterval, "export", func(ctx context.Context) error {
			_, err := exporter.Run(ctx)
			return err
		})
	}

	// --- HTTP server ---
	routerCfg := v1.RouterConfig{
		Pool:           pool,
		Logger:         log,
		ProduceService: produceService,
	}
	if importer != nil {
		routerCfg.Importer = importer
	}
	if exporter != nil {
		routerCfg.Exporter = exporter
	}
	router := v1.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infow("control API listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("http server failed", "error", err)
		}
	}()

	// --- Shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnw("http server shutdown failed", "error", err)
	}
	log.Info("stopped")
}
