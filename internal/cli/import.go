package cli

import (
	"context"
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"salesboard/internal/config"
	"salesboard/internal/domain/sales"
	"salesboard/internal/infrastructure/storage/postgres"
	"salesboard/internal/infrastructure/storage/postgres/report_repo"
	"salesboard/internal/ingest"
)

// NewImportCommand creates the import command.
func NewImportCommand() *cobra.Command {
	var (
		cfgFile  string
		file     string
		truncate bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy a CSV sales export into PostgreSQL",
		Long: `Import streams a CSV export into the sales table with COPY, inside one
transaction. Invalid rows are skipped and counted. The table and its change
trigger are created when missing.

Connection settings come from the usual configuration layers; the
--database.url and --source.table flags override them.`,
		Example: `  salesctl import --file ventas.csv --database.url postgres://localhost/sales`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			if cfg.Source.Kind != config.SourcePostgres {
				return fmt.Errorf("import needs source.kind=postgres, got %q", cfg.Source.Kind)
			}
			return runImport(cmd, cfg, file, truncate)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfgFile, "config", "", "config file")
	f.StringVarP(&file, "file", "f", "", "CSV file to import (required)")
	f.BoolVar(&truncate, "truncate", false, "delete existing rows first")
	f.String("database.url", "", "PostgreSQL connection URL")
	f.String("source.table", "", "sales table name")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runImport(cmd *cobra.Command, cfg *config.Config, file string, truncate bool) error {
	ctx := cmd.Context()

	fh, err := os.Open(file)
	if err != nil {
		return err
	}
	defer fh.Close()

	poolCfg := postgres.DefaultPoolConfig(cfg.Database.URL)
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns
	poolCfg.SlowQuery = cfg.Database.SlowQuery
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := report_repo.NewSalesRepo(postgres.NewTxManager(pool), cfg.Source.Table)
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}
	if truncate {
		if err := repo.Truncate(ctx); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	in := make(chan sales.Transaction, 256)
	errc := make(chan error, 1)
	reportc := make(chan ingest.Report, 1)
	go func() {
		defer close(in)
		report, err := ingest.StreamCSV(fh, func(tx sales.Transaction) error {
			select {
			case in <- tx:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			errc <- fmt.Errorf("read %s: %w", file, err)
		}
		reportc <- report
	}()

	n, err := repo.InsertStream(ctx, in, errc)
	if err != nil {
		return err
	}
	report := <-reportc

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Imported %d rows into %s (read %d, skipped %d)\n",
		n, cfg.Source.Table, report.Read, report.DroppedTotal())
	for _, reason := range slices.Sorted(maps.Keys(report.Dropped)) {
		_, _ = fmt.Fprintf(out, "  %-15s %d\n", reason, report.Dropped[reason])
	}
	return nil
}
