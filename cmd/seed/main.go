// Package main fills the sales table with reproducible demo transactions.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"salesboard/internal/config"
	"salesboard/internal/domain/sales"
	"salesboard/internal/infrastructure/storage/postgres"
	"salesboard/internal/infrastructure/storage/postgres/report_repo"
	"salesboard/internal/ingest"
	"salesboard/pkg/logger"
)

func main() {
	flags := pflag.NewFlagSet("seed", pflag.ExitOnError)
	configPath := flags.String("config", "", "path to a YAML config file")
	from := flags.String("from", "2026-01-01", "first day to generate")
	to := flags.String("to", "2026-01-31", "last day to generate")
	seed := flags.Uint64("seed", ingest.SampleSeed, "random seed")
	truncate := flags.Bool("truncate", false, "delete existing rows first")
	_ = flags.Parse(os.Args[1:])

	log, err := logger.New(logger.Config{
		Level:       "info",
		Format:      logger.FormatConsole,
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx := context.Background()

	cfg, err := config.Load(*configPath, nil)
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}
	if cfg.Source.Kind != config.SourcePostgres {
		log.Fatalw("seed writes to PostgreSQL; set source.kind=postgres", "source", cfg.Source.Kind)
	}

	fromDay, err := time.Parse(sales.DateLayout, *from)
	if err != nil {
		log.Fatalw("invalid --from", "error", err)
	}
	toDay, err := time.Parse(sales.DateLayout, *to)
	if err != nil {
		log.Fatalw("invalid --to", "error", err)
	}
	if toDay.Before(fromDay) {
		log.Fatalw("--to is before --from", "from", *from, "to", *to)
	}

	poolCfg := postgres.DefaultPoolConfig(cfg.Database.URL)
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns
	poolCfg.SlowQuery = cfg.Database.SlowQuery
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	repo := report_repo.NewSalesRepo(postgres.NewTxManager(pool), cfg.Source.Table)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatalw("failed to prepare sales table", "error", err)
	}

	if *truncate {
		if err := repo.Truncate(ctx); err != nil {
			log.Fatalw("failed to truncate sales table", "error", err)
		}
		log.Infow("sales table truncated", "table", cfg.Source.Table)
	}

	table := ingest.Sample(*seed, fromDay, toDay)
	n, err := repo.Insert(ctx, table)
	if err != nil {
		log.Fatalw("failed to insert demo transactions", "error", err)
	}

	log.Infow("seeding completed successfully",
		"table", cfg.Source.Table,
		"rows", n,
		"from", *from,
		"to", *to,
		"seed", *seed,
	)
}
