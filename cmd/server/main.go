// Package main is the entry point for the salesboard API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"salesboard/internal/config"
	"salesboard/internal/domain/reports"
	"salesboard/internal/infrastructure/cache"
	v1 "salesboard/internal/infrastructure/http/v1"
	"salesboard/internal/infrastructure/storage/postgres"
	"salesboard/internal/infrastructure/storage/postgres/report_repo"
	"salesboard/internal/ingest"
	"salesboard/pkg/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	flags := pflag.NewFlagSet("server", pflag.ExitOnError)
	configPath := flags.String("config", "", "path to a YAML config file")
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath, nil)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Development: cfg.App.IsDevelopment(),
		Fields:      map[string]any{"app": "salesboard", "version": version},
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Infow("starting salesboard server", "version", version, "source", cfg.Source.Kind)

	// --- Sales source ---
	var (
		source reports.Repository
		pool   *postgres.Pool
	)
	switch cfg.Source.Kind {
	case config.SourcePostgres:
		poolCfg := postgres.DefaultPoolConfig(cfg.Database.URL)
		poolCfg.MaxConns = cfg.Database.MaxConns
		poolCfg.MinConns = cfg.Database.MinConns
		poolCfg.SlowQuery = cfg.Database.SlowQuery

		pool, err = postgres.NewPool(ctx, poolCfg)
		if err != nil {
			log.Fatalw("failed to connect to database", "error", err)
		}
		defer pool.Close()
		log.Info("database connection established")

		repo := report_repo.NewSalesRepo(postgres.NewTxManager(pool), cfg.Source.Table)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatalw("failed to prepare sales table", "table", cfg.Source.Table, "error", err)
		}
		source = repo

	case config.SourceCSV:
		source = ingest.NewCSVSource(cfg.Source.CSVPath)
		log.Infow("serving sales from file", "path", cfg.Source.CSVPath)
	}

	// --- Analysis cache ---
	var analysisCache *cache.AnalysisCache
	service := reports.NewService(source, nil)
	if cfg.Cache.Enabled {
		var opts []cache.Option
		if pool != nil {
			opts = append(opts, cache.WithPool(pool.Pool), cache.WithChannel(report_repo.NotifyChannel))
		}
		opts = append(opts, cache.WithMaxEntries(cfg.Cache.MaxEntries))
		analysisCache = cache.NewAnalysisCache(cfg.Cache.TTL, opts...)
		if pool != nil {
			if err := analysisCache.Start(ctx); err != nil {
				log.Fatalw("failed to start analysis cache", "error", err)
			}
			defer analysisCache.Stop()
		}
		service = reports.NewService(cache.NewCachedRepository(source, analysisCache), analysisCache)
		log.Infow("analysis cache enabled", "ttl", cfg.Cache.TTL, "max_entries", cfg.Cache.MaxEntries, "listen", pool != nil)
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:      log,
		Reports:     service,
		Pool:        pool,
		Cache:       analysisCache,
		Version:     version,
		Compression: cfg.HTTP.Compression,
		Development: cfg.App.IsDevelopment(),
	})

	// --- HTTP Server ---
	port := strconv.Itoa(cfg.App.Port)
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	if pool != nil {
		go logPoolStats(ctx, pool)
	}

	// --- Graceful shutdown ---
	<-ctx.Done()
	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func logPoolStats(ctx context.Context, pool *postgres.Pool) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pool.LogStats(ctx)
		}
	}
}
