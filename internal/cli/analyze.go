package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"salesboard/internal/domain/reports"
	"salesboard/internal/domain/sales"
	"salesboard/internal/infrastructure/http/v1/dto"
	"salesboard/internal/ingest"
)

type analyzeOptions struct {
	file   string
	output string
	query  dto.SalesQuery
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a CSV sales export",
		Long: `Analyze loads a CSV export, applies the filters and prints metrics,
breakdowns and the price-variation report.

Without --from/--to the date range spans the whole file.`,
		Example: `  # Whole file
  salesctl analyze --file ventas.csv

  # One client in January, as JSON
  salesctl analyze --file ventas.csv --client DREAMS --from 2026-01-01 --to 2026-01-31 -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalyze(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", "CSV file to analyze (required)")
	f.StringVar(&opts.query.FromDate, "from", "", "first day, YYYY-MM-DD")
	f.StringVar(&opts.query.ToDate, "to", "", "last day, YYYY-MM-DD")
	f.StringVar(&opts.query.ProductLine, "line", "", "product line")
	f.StringVar(&opts.query.Product, "product", "", "product code")
	f.StringVar(&opts.query.Channel, "channel", "", "channel")
	f.StringVar(&opts.query.Client, "client", "", "client")
	f.StringVar(&opts.query.Salesperson, "salesperson", "", "salesperson")
	f.StringVarP(&opts.output, "output", "o", "table", "output format (table|json)")
	_ = cmd.MarkFlagRequired("file")

	_ = cmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runAnalyze(cmd *cobra.Command, opts analyzeOptions) error {
	if opts.output != "table" && opts.output != "json" {
		return fmt.Errorf("unknown output format %q", opts.output)
	}

	ctx := cmd.Context()
	service := reports.NewService(ingest.NewCSVSource(opts.file), nil)

	q := opts.query
	if q.FromDate == "" || q.ToDate == "" {
		bounds, err := service.FilterOptions(ctx)
		if err != nil {
			return err
		}
		if bounds.MinDate == nil {
			return errors.New("no valid transactions in " + opts.file)
		}
		if q.FromDate == "" {
			q.FromDate = bounds.MinDate.Format(sales.DateLayout)
		}
		if q.ToDate == "" {
			q.ToDate = bounds.MaxDate.Format(sales.DateLayout)
		}
	}

	analysis, err := service.AnalyzeItems(ctx, q.Items())
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	w := cmd.OutOrStdout()
	if opts.output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(dto.FromSalesAnalysis(analysis))
	}
	renderAnalysis(w, analysis)
	return nil
}
