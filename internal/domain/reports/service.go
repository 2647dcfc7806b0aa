package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"salesboard/internal/domain/filter"
	"salesboard/internal/domain/sales"
	"salesboard/pkg/logger"
)

var tracer = otel.Tracer("salesboard/reports")

// Service runs sales analyses against snapshots loaded from a Repository.
type Service struct {
	repo Repository
	memo Memo
}

// NewService creates a new reports service. memo may be nil.
func NewService(repo Repository, memo Memo) *Service {
	return &Service{repo: repo, memo: memo}
}

// Analyze filters the current table with spec and computes the full bundle.
func (s *Service) Analyze(ctx context.Context, spec sales.FilterSpec) (*SalesAnalysis, error) {
	ctx, span := tracer.Start(ctx, "reports.Analyze")
	defer span.End()

	if err := spec.Validate(); err != nil {
		return nil, err
	}

	started := time.Now()
	snap, err := s.repo.Load(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("load sales snapshot: %w", err)
	}

	key := snap.ID.String() + "|" + spec.Key()
	bundle, cached := s.lookup(key)
	if !cached {
		bundle, err = sales.Run(snap.Table, spec)
		if err != nil {
			return nil, err
		}
		if s.memo != nil {
			s.memo.Put(key, bundle)
		}
	}

	span.SetAttributes(
		attribute.Int("sales.table_rows", len(snap.Table)),
		attribute.Int("sales.filtered_rows", len(bundle.Filtered)),
		attribute.Bool("sales.cached", cached),
	)
	logger.Info(ctx, "sales analysis",
		"snapshot_id", snap.ID,
		"table_rows", len(snap.Table),
		"filtered_rows", len(bundle.Filtered),
		"cached", cached,
		"duration", time.Since(started),
	)

	return &SalesAnalysis{
		Bundle:              bundle,
		SnapshotID:          snap.ID,
		FromDate:            spec.Dates.From,
		ToDate:              spec.Dates.To,
		TableRows:           len(snap.Table),
		ShareOfTransactions: share(len(bundle.Filtered), len(snap.Table)),
		Cached:              cached,
	}, nil
}

// AnalyzeItems is Analyze for a spec given as generic filter rows.
func (s *Service) AnalyzeItems(ctx context.Context, items []filter.Item) (*SalesAnalysis, error) {
	spec, err := sales.SpecFromItems(items)
	if err != nil {
		return nil, err
	}
	return s.Analyze(ctx, spec)
}

// FilterOptions returns the sorted distinct values of every categorical
// dimension and the date bounds of the table.
func (s *Service) FilterOptions(ctx context.Context) (*FilterOptions, error) {
	ctx, span := tracer.Start(ctx, "reports.FilterOptions")
	defer span.End()

	snap, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sales snapshot: %w", err)
	}

	lines, products, channels := newValueSet(), newValueSet(), newValueSet()
	clients, salespeople := newValueSet(), newValueSet()
	opts := &FilterOptions{}

	for _, tx := range snap.Table {
		lines.add(tx.ProductLine)
		products.add(tx.ProductCode)
		channels.add(tx.Channel)
		clients.add(tx.Client)
		salespeople.add(tx.Salesperson)

		day := sales.CivilDay(tx.Date)
		if opts.MinDate == nil || day.Before(*opts.MinDate) {
			opts.MinDate = &day
		}
		if opts.MaxDate == nil || day.After(*opts.MaxDate) {
			d := day
			opts.MaxDate = &d
		}
	}

	opts.ProductLines = lines.sorted()
	opts.Products = products.sorted()
	opts.Channels = channels.sorted()
	opts.Clients = clients.sorted()
	opts.Salespeople = salespeople.sorted()
	return opts, nil
}

// LatestTransactions returns the filtered rows, newest first. Rows of the
// same day keep their table order. limit <= 0 means DefaultTransactionsLimit.
func (s *Service) LatestTransactions(ctx context.Context, spec sales.FilterSpec, limit int) (*TransactionPage, error) {
	ctx, span := tracer.Start(ctx, "reports.LatestTransactions")
	defer span.End()

	if limit <= 0 {
		limit = DefaultTransactionsLimit
	}
	if limit > MaxTransactionsLimit {
		limit = MaxTransactionsLimit
	}

	subset, err := s.Subset(ctx, spec)
	if err != nil {
		return nil, err
	}

	sorted := append(sales.Table(nil), subset...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.After(sorted[j].Date) })

	page := &TransactionPage{Total: len(sorted), Limit: limit, Items: sorted}
	if len(sorted) > limit {
		page.Items = sorted[:limit]
	}
	if page.Items == nil {
		page.Items = sales.Table{}
	}
	return page, nil
}

// Subset returns the rows of the current table matching spec, in table order.
func (s *Service) Subset(ctx context.Context, spec sales.FilterSpec) (sales.Table, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	snap, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sales snapshot: %w", err)
	}
	return sales.Filter(snap.Table, spec)
}

// Ping checks the underlying source.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *Service) lookup(key string) (*sales.Bundle, bool) {
	if s.memo == nil {
		return nil, false
	}
	return s.memo.Get(key)
}

func share(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

type valueSet map[string]struct{}

func newValueSet() valueSet { return make(valueSet) }

// add ignores empty values; they are not selectable options.
func (v valueSet) add(s string) {
	if s != "" {
		v[s] = struct{}{}
	}
}

func (v valueSet) sorted() []string {
	out := make([]string, 0, len(v))
	for s := range v {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
