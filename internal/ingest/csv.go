package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"salesboard/internal/core/apperror"
	"salesboard/internal/core/id"
	"salesboard/internal/domain/reports"
	"salesboard/internal/domain/sales"
	"salesboard/pkg/logger"
)

// ReadCSV parses a CSV export with a header row into a table.
func ReadCSV(r io.Reader) (sales.Table, Report, error) {
	var table sales.Table
	report, err := StreamCSV(r, func(tx sales.Transaction) error {
		table = append(table, tx)
		return nil
	})
	if err != nil {
		return nil, Report{}, err
	}
	if table == nil {
		table = sales.Table{}
	}
	return table, report, nil
}

// StreamCSV parses a CSV export record by record and passes every kept row to
// fn. An error from fn stops the read and is returned as is.
func StreamCSV(r io.Reader, fn func(sales.Transaction) error) (Report, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Report{}, fmt.Errorf("read csv header: empty input")
		}
		return Report{}, fmt.Errorf("read csv header: %w", err)
	}
	header = append([]string(nil), header...)
	if len(header) > 0 {
		// Excel writes a UTF-8 BOM in front of the first header.
		header[0] = trimBOM(header[0])
	}

	cols, err := ResolveColumns(header)
	if err != nil {
		return Report{}, err
	}

	report := Report{Dropped: make(map[DropReason]int)}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return report, fmt.Errorf("read csv record %d: %w", report.Read+2, err)
		}
		report.Read++

		tx, reason, ok := parseRow(rec, cols)
		if !ok {
			report.Dropped[reason]++
			continue
		}
		if err := fn(tx); err != nil {
			return report, err
		}
		report.Kept++
	}
	return report, nil
}

// CSVSource serves a CSV file as a reports.Repository. The file is re-read on
// every Load.
type CSVSource struct {
	Path string
}

var _ reports.Repository = (*CSVSource)(nil)

// NewCSVSource creates a source for path.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{Path: path}
}

// Load reads and cleans the whole file.
func (s *CSVSource) Load(ctx context.Context) (*reports.Snapshot, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, apperror.NewUnavailable("csv", err)
	}
	defer f.Close()

	table, report, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.Path, err)
	}

	if n := report.DroppedTotal(); n > 0 {
		logger.Warn(ctx, "dropped invalid sales rows", "path", s.Path, "dropped", n, "reasons", report.Dropped)
	}

	return &reports.Snapshot{
		ID:       id.New(),
		Table:    table,
		LoadedAt: time.Now(),
		Source:   "csv:" + s.Path,
	}, nil
}

// Ping checks that the file exists and is readable.
func (s *CSVSource) Ping(context.Context) error {
	f, err := os.Open(s.Path)
	if err != nil {
		return apperror.NewUnavailable("csv", err)
	}
	return f.Close()
}

func trimBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}

// exportHeader uses the first alias of every column, the layout of the
// spreadsheets the loader was built for.
func exportHeader() []string {
	header := make([]string, len(Canonical))
	for i, col := range Canonical {
		header[i] = Aliases[col][0]
	}
	return header
}

// WriteCSV writes table with a header that ReadCSV resolves.
func WriteCSV(w io.Writer, table sales.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, tx := range table {
		rec := []string{
			tx.Date.Format(sales.DateLayout),
			tx.Client,
			tx.Salesperson,
			tx.Channel,
			tx.ProductCode,
			tx.ProductDescription,
			tx.ProductLine,
			tx.Quantity.Decimal().String(),
			tx.SaleAmount.String(),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv record %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
