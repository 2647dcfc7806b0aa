package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"salesboard/internal/domain/sales"
	"salesboard/internal/ingest"
)

// NewSampleCommand creates the sample command.
func NewSampleCommand() *cobra.Command {
	var (
		out      string
		from, to string
		seed     uint64
	)

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write demo transactions as CSV",
		Example: `  salesctl sample --out ventas.csv
  salesctl sample --from 2026-02-01 --to 2026-02-28 --seed 7 | salesctl analyze --file /dev/stdin`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fromDay, err := time.Parse(sales.DateLayout, from)
			if err != nil {
				return fmt.Errorf("invalid --from: %w", err)
			}
			toDay, err := time.Parse(sales.DateLayout, to)
			if err != nil {
				return fmt.Errorf("invalid --to: %w", err)
			}
			if toDay.Before(fromDay) {
				return fmt.Errorf("--to %s is before --from %s", to, from)
			}

			table := ingest.Sample(seed, fromDay, toDay)

			w := cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return ingest.WriteCSV(w, table)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&out, "out", "o", "", "output file (default stdout)")
	f.StringVar(&from, "from", "2026-01-01", "first day")
	f.StringVar(&to, "to", "2026-01-31", "last day")
	f.Uint64Var(&seed, "seed", ingest.SampleSeed, "random seed")

	return cmd
}
