// Package report_repo loads the sales transaction table from PostgreSQL.
package report_repo

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"salesboard/internal/core/apperror"
	"salesboard/internal/core/id"
	"salesboard/internal/domain/reports"
	"salesboard/internal/domain/sales"
	"salesboard/internal/infrastructure/storage/postgres"
	"salesboard/internal/ingest"
	"salesboard/pkg/logger"
)

// SalesRecord is one row of the sales table as written by Insert.
type SalesRecord struct {
	SoldOn             time.Time      `db:"sold_on"`
	Client             string         `db:"client"`
	Salesperson        string         `db:"salesperson"`
	Channel            string         `db:"channel"`
	ProductCode        string         `db:"product_code"`
	ProductDescription string         `db:"product_description"`
	ProductLine        string         `db:"product_line"`
	Quantity           pgtype.Numeric `db:"quantity"`
	SaleAmount         pgtype.Numeric `db:"sale_amount"`
}

// rawRecord receives every resolved column as text, aliased to its canonical
// name. Columns missing from the source (description) scan as NULL.
type rawRecord struct {
	Date               *string `db:"date"`
	Client             *string `db:"client"`
	Salesperson        *string `db:"salesperson"`
	Channel            *string `db:"channel"`
	ProductCode        *string `db:"product_code"`
	ProductDescription *string `db:"product_description"`
	ProductLine        *string `db:"product_line"`
	Quantity           *string `db:"quantity"`
	SaleAmount         *string `db:"sale_amount"`
}

func (r rawRecord) row() ingest.RawRow {
	return ingest.RawRow{
		deref(r.Date), deref(r.Client), deref(r.Salesperson), deref(r.Channel),
		deref(r.ProductCode), deref(r.ProductDescription), deref(r.ProductLine),
		deref(r.Quantity), deref(r.SaleAmount),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// SalesRepo implements reports.Repository over a PostgreSQL table.
type SalesRepo struct {
	txm     *postgres.TxManager
	table   string
	builder squirrel.StatementBuilderType
}

var _ reports.Repository = (*SalesRepo)(nil)

// NewSalesRepo creates a repository for table.
func NewSalesRepo(txm *postgres.TxManager, table string) *SalesRepo {
	return &SalesRepo{
		txm:     txm,
		table:   table,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Load reads the whole table inside one snapshot transaction. Physical
// column names are resolved through the ingest alias list on every load.
func (r *SalesRepo) Load(ctx context.Context) (*reports.Snapshot, error) {
	var records []rawRecord

	err := r.txm.Snapshot(ctx, func(ctx context.Context) error {
		header, err := r.columns(ctx)
		if err != nil {
			return err
		}
		if len(header) == 0 {
			return apperror.NewNotFound("table", r.table)
		}

		cols, err := ingest.ResolveColumns(header)
		if err != nil {
			return fmt.Errorf("resolve columns of %s: %w", r.table, err)
		}

		query, args, err := r.selectQuery(cols, slices.Contains(header, "id")).ToSql()
		if err != nil {
			return fmt.Errorf("build select: %w", err)
		}
		return pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &records, query, args...)
	})
	if err != nil {
		if _, ok := apperror.AsAppError(err); ok {
			return nil, err
		}
		return nil, apperror.NewUnavailable("postgres", err)
	}

	raw := make([]ingest.RawRow, 0, len(records))
	for _, rec := range records {
		raw = append(raw, rec.row())
	}
	table, report := ingest.Clean(raw, ingest.CanonicalColumns())
	if n := report.DroppedTotal(); n > 0 {
		logger.Warn(ctx, "dropped invalid sales rows", "table", r.table, "dropped", n, "reasons", report.Dropped)
	}

	return &reports.Snapshot{
		ID:       id.New(),
		Table:    table,
		LoadedAt: time.Now(),
		Source:   "postgres:" + r.table,
	}, nil
}

// Ping checks the database connection.
func (r *SalesRepo) Ping(ctx context.Context) error {
	if err := r.txm.Ping(ctx); err != nil {
		return apperror.NewUnavailable("postgres", err)
	}
	return nil
}

// columns lists the table's columns in ordinal order.
func (r *SalesRepo) columns(ctx context.Context) ([]string, error) {
	query, args, err := r.columnsQuery().ToSql()
	if err != nil {
		return nil, fmt.Errorf("build columns query: %w", err)
	}

	var names []string
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &names, query, args...); err != nil {
		return nil, fmt.Errorf("list columns of %s: %w", r.table, err)
	}
	return names, nil
}

func (r *SalesRepo) columnsQuery() squirrel.SelectBuilder {
	return r.builder.
		Select("column_name").
		From("information_schema.columns").
		Where(squirrel.Expr("table_schema = current_schema()")).
		Where(squirrel.Eq{"table_name": r.table}).
		OrderBy("ordinal_position")
}

// selectQuery reads every resolved column as text under its canonical name.
func (r *SalesRepo) selectQuery(cols ingest.ColumnMap, ordered bool) squirrel.SelectBuilder {
	q := r.builder.Select().From(pgx.Identifier{r.table}.Sanitize())
	for _, col := range ingest.Canonical {
		name, ok := cols.Name(col)
		if !ok {
			q = q.Column(fmt.Sprintf("NULL::text AS %s", col))
			continue
		}
		q = q.Column(fmt.Sprintf("%s::text AS %s", pgx.Identifier{name}.Sanitize(), col))
	}
	if ordered {
		q = q.OrderBy("id")
	}
	return q
}

// Insert appends rows to the table with COPY inside one transaction.
func (r *SalesRepo) Insert(ctx context.Context, rows sales.Table) (int64, error) {
	inserter := postgres.NewBatchInserter(r.txm)
	columns := postgres.ExtractDBColumns[SalesRecord]()

	values := make([][]any, 0, len(rows))
	for _, tx := range rows {
		values = append(values, postgres.RowValues(NewSalesRecord(tx)))
	}

	var n int64
	err := r.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		n, err = inserter.CopyFromSlice(ctx, r.table, columns, values)
		return err
	})
	return n, err
}

// InsertStream copies rows received on in until it is closed. The producer
// reports a failure on errc, which aborts and rolls back the whole copy.
func (r *SalesRepo) InsertStream(ctx context.Context, in <-chan sales.Transaction, errc <-chan error) (int64, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	inserter := postgres.NewBatchInserter(r.txm)
	columns := postgres.ExtractDBColumns[SalesRecord]()

	rows := make(chan []any)
	go func() {
		defer close(rows)
		for tx := range in {
			select {
			case rows <- postgres.RowValues(NewSalesRecord(tx)):
			case <-ctx.Done():
				return
			}
		}
	}()

	var n int64
	err := r.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		n, err = inserter.CopyFromRows(ctx, r.table, columns, rows, errc)
		return err
	})
	return n, err
}

// Truncate removes every row. The change trigger fires once.
func (r *SalesRepo) Truncate(ctx context.Context) error {
	return r.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		_, err := r.txm.GetQuerier(ctx).Exec(ctx, "TRUNCATE "+pgx.Identifier{r.table}.Sanitize())
		if err != nil {
			return fmt.Errorf("truncate %s: %w", r.table, err)
		}
		return nil
	})
}

// NewSalesRecord converts a transaction to its stored form.
func NewSalesRecord(tx sales.Transaction) SalesRecord {
	return SalesRecord{
		SoldOn:             sales.CivilDay(tx.Date),
		Client:             tx.Client,
		Salesperson:        tx.Salesperson,
		Channel:            tx.Channel,
		ProductCode:        tx.ProductCode,
		ProductDescription: tx.ProductDescription,
		ProductLine:        tx.ProductLine,
		Quantity:           numeric(tx.Quantity.Decimal()),
		SaleAmount:         numeric(tx.SaleAmount),
	}
}

func numeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}
