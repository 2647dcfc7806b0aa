package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesboard/internal/core/apperror"
	"salesboard/internal/core/id"
	"salesboard/internal/core/types"
	"salesboard/internal/domain/filter"
	"salesboard/internal/domain/sales"
)

type fakeRepo struct {
	snap  *Snapshot
	err   error
	loads int
}

func (f *fakeRepo) Load(context.Context) (*Snapshot, error) {
	f.loads++
	if f.err != nil {
		return nil, f.err
	}
	return f.snap, nil
}

func (f *fakeRepo) Ping(context.Context) error { return f.err }

type mapMemo map[string]*sales.Bundle

func (m mapMemo) Get(key string) (*sales.Bundle, bool) {
	b, ok := m[key]
	return b, ok
}

func (m mapMemo) Put(key string, b *sales.Bundle) { m[key] = b }

func mkTx(date, client, line, code string, qty int64, amount string) sales.Transaction {
	d, _ := time.Parse(sales.DateLayout, date)
	a := types.MustMoney(amount)
	q := types.NewQuantityFromInt(qty)
	p, _ := sales.DeriveUnitPrice(a, q)
	return sales.Transaction{
		Date: d, Client: client, ProductLine: line, ProductCode: code, ProductDescription: code,
		Channel: "B2B", Salesperson: "Javier", Quantity: q, SaleAmount: a, UnitPrice: p,
	}
}

func newRepo() *fakeRepo {
	return &fakeRepo{snap: &Snapshot{
		ID: id.New(),
		Table: sales.Table{
			mkTx("2026-01-01", "IBEROSTAR", "PASTAS", "P1", 10, "100"),
			mkTx("2026-01-02", "DREAMS", "PASTAS", "P1", 20, "220"),
			mkTx("2026-01-02", "DREAMS", "ARROCES", "P2", 1, "50"),
			mkTx("2026-02-01", "HYATT ZIVA", "TOMATES", "P3", 1, "10"),
		},
		LoadedAt: time.Now(),
	}}
}

func januaryRange() sales.DateRange {
	from, _ := time.Parse(sales.DateLayout, "2026-01-01")
	to, _ := time.Parse(sales.DateLayout, "2026-01-31")
	return sales.NewDateRange(from, to)
}

func TestService_Analyze(t *testing.T) {
	svc := NewService(newRepo(), nil)

	got, err := svc.Analyze(context.Background(), sales.FilterSpec{
		ProductLine: sales.Eq("PASTAS"),
		Dates:       januaryRange(),
	})
	require.NoError(t, err)

	assert.Equal(t, 4, got.TableRows)
	assert.Equal(t, 2, got.Metrics.Transactions)
	assert.InDelta(t, 50.0, got.ShareOfTransactions, 1e-9)
	assert.True(t, types.MustMoney("320").Equal(got.Metrics.TotalSales))
	assert.False(t, got.Cached)
	require.Len(t, got.PriceVariations, 1)
}

func TestService_Analyze_RequiresDates(t *testing.T) {
	repo := newRepo()
	svc := NewService(repo, nil)

	_, err := svc.Analyze(context.Background(), sales.FilterSpec{Client: sales.Eq("DREAMS")})
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidArgument(err))
	assert.Zero(t, repo.loads)
}

func TestService_Analyze_LoadError(t *testing.T) {
	boom := errors.New("connection refused")
	svc := NewService(&fakeRepo{err: boom}, nil)

	_, err := svc.Analyze(context.Background(), sales.FilterSpec{Dates: januaryRange()})
	assert.ErrorIs(t, err, boom)
}

func TestService_Analyze_Memo(t *testing.T) {
	memo := mapMemo{}
	svc := NewService(newRepo(), memo)
	spec := sales.FilterSpec{Dates: januaryRange()}

	first, err := svc.Analyze(context.Background(), spec)
	require.NoError(t, err)
	second, err := svc.Analyze(context.Background(), spec)
	require.NoError(t, err)

	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Same(t, first.Bundle, second.Bundle)
	assert.Len(t, memo, 1)
}

func TestService_AnalyzeItems(t *testing.T) {
	svc := NewService(newRepo(), nil)

	got, err := svc.AnalyzeItems(context.Background(), []filter.Item{
		filter.Eq(filter.FieldClient, "DREAMS"),
		{Field: filter.FieldDate, Operator: filter.Between, Value: []any{"2026-01-01", "2026-01-31"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, got.Metrics.Transactions)

	_, err = svc.AnalyzeItems(context.Background(), []filter.Item{filter.Eq(filter.FieldClient, "DREAMS")})
	assert.True(t, apperror.IsInvalidArgument(err))
}

func TestService_Analyze_EmptyTable(t *testing.T) {
	svc := NewService(&fakeRepo{snap: &Snapshot{ID: id.New(), Table: sales.Table{}}}, nil)

	got, err := svc.Analyze(context.Background(), sales.FilterSpec{Dates: januaryRange()})
	require.NoError(t, err)
	assert.Zero(t, got.ShareOfTransactions)
	assert.Zero(t, got.Metrics.Transactions)
}

func TestService_FilterOptions(t *testing.T) {
	svc := NewService(newRepo(), nil)

	opts, err := svc.FilterOptions(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"ARROCES", "PASTAS", "TOMATES"}, opts.ProductLines)
	assert.Equal(t, []string{"DREAMS", "HYATT ZIVA", "IBEROSTAR"}, opts.Clients)
	assert.Equal(t, []string{"P1", "P2", "P3"}, opts.Products)
	assert.Equal(t, []string{"B2B"}, opts.Channels)
	require.NotNil(t, opts.MinDate)
	require.NotNil(t, opts.MaxDate)
	assert.Equal(t, "2026-01-01", opts.MinDate.Format(sales.DateLayout))
	assert.Equal(t, "2026-02-01", opts.MaxDate.Format(sales.DateLayout))
}

func TestService_LatestTransactions(t *testing.T) {
	svc := NewService(newRepo(), nil)
	spec := sales.FilterSpec{Dates: januaryRange()}

	page, err := svc.LatestTransactions(context.Background(), spec, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Items, 2)
	// Same-day rows keep table order.
	assert.Equal(t, "P1", page.Items[0].ProductCode)
	assert.Equal(t, "P2", page.Items[1].ProductCode)

	page, err = svc.LatestTransactions(context.Background(), spec, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTransactionsLimit, page.Limit)
	assert.Len(t, page.Items, 3)
}
