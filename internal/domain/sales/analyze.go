package sales

import (
	"sort"

	"github.com/shopspring/decimal"

	"salesboard/internal/core/types"
)

// TopN is the row limit of the product and client breakdowns and of the
// price-variation report.
const TopN = 10

// Metrics are the scalar totals of a subset.
type Metrics struct {
	TotalSales    types.Money    `json:"totalSales"`
	TotalQuantity types.Quantity `json:"totalQuantity"`
	Transactions  int            `json:"transactions"`
	// AverageTicket is TotalSales / Transactions, zero for an empty subset.
	AverageTicket types.Money `json:"averageTicket"`
}

// GroupTotal is one row of a breakdown keyed by a single categorical value.
type GroupTotal struct {
	Key          string         `json:"key"`
	SaleAmount   types.Money    `json:"saleAmount"`
	Quantity     types.Quantity `json:"quantity"`
	Transactions int            `json:"transactions"`
}

// ProductTotal is one row of the by-product breakdown.
type ProductTotal struct {
	Code           string         `json:"code"`
	Description    string         `json:"description"`
	SaleAmount     types.Money    `json:"saleAmount"`
	Quantity       types.Quantity `json:"quantity"`
	Transactions   int            `json:"transactions"`
	DistinctPrices int            `json:"distinctPrices"`
}

// DayTotal is one row of the by-day-of-month breakdown.
type DayTotal struct {
	Day          int            `json:"day"`
	SaleAmount   types.Money    `json:"saleAmount"`
	Quantity     types.Quantity `json:"quantity"`
	Transactions int            `json:"transactions"`
}

// Bundle is the complete result of one analysis. It is built once and not
// modified afterwards.
type Bundle struct {
	Filtered        Table            `json:"-"`
	Metrics         Metrics          `json:"metrics"`
	ByProductLine   []GroupTotal     `json:"byProductLine"`
	ByProduct       []ProductTotal   `json:"byProduct"`
	ByChannel       []GroupTotal     `json:"byChannel"`
	ByClient        []GroupTotal     `json:"byClient"`
	BySalesperson   []GroupTotal     `json:"bySalesperson"`
	ByDay           []DayTotal       `json:"byDay"`
	PriceVariations []PriceVariation `json:"priceVariations"`
}

// Analyze computes metrics, the six breakdowns and the price-variation report
// for subset. An empty subset yields zero metrics and empty sequences.
func Analyze(subset Table) *Bundle {
	return &Bundle{
		Filtered:        subset,
		Metrics:         metricsOf(subset),
		ByProductLine:   byCategory(subset, func(tx Transaction) string { return tx.ProductLine }, 0),
		ByProduct:       byProduct(subset),
		ByChannel:       byCategory(subset, func(tx Transaction) string { return tx.Channel }, 0),
		ByClient:        byCategory(subset, func(tx Transaction) string { return tx.Client }, TopN),
		BySalesperson:   byCategory(subset, func(tx Transaction) string { return tx.Salesperson }, 0),
		ByDay:           byDayOfMonth(subset),
		PriceVariations: DetectPriceVariations(subset),
	}
}

func metricsOf(rows Table) Metrics {
	m := Metrics{TotalSales: types.Zero(), AverageTicket: types.Zero()}
	for _, tx := range rows {
		m.TotalSales = m.TotalSales.Add(tx.SaleAmount)
		m.TotalQuantity += tx.Quantity
	}
	m.Transactions = len(rows)
	if m.Transactions > 0 {
		m.AverageTicket = m.TotalSales.Div(decimal.NewFromInt(int64(m.Transactions)))
	}
	return m
}

// bucket accumulates one group.
type bucket struct {
	amount types.Money
	qty    types.Quantity
	count  int
}

func (b *bucket) add(tx Transaction) {
	b.amount = b.amount.Add(tx.SaleAmount)
	b.qty += tx.Quantity
	b.count++
}

// grouping keeps buckets in first-encountered key order.
type grouping[K comparable] struct {
	order   []K
	buckets map[K]*bucket
}

func groupRows[K comparable](rows Table, key func(Transaction) K) grouping[K] {
	g := grouping[K]{buckets: make(map[K]*bucket)}
	for _, tx := range rows {
		k := key(tx)
		b, ok := g.buckets[k]
		if !ok {
			b = &bucket{amount: types.Zero()}
			g.buckets[k] = b
			g.order = append(g.order, k)
		}
		b.add(tx)
	}
	return g
}

func byCategory(rows Table, key func(Transaction) string, limit int) []GroupTotal {
	g := groupRows(rows, key)
	out := make([]GroupTotal, 0, len(g.order))
	for _, k := range g.order {
		b := g.buckets[k]
		out = append(out, GroupTotal{Key: k, SaleAmount: b.amount, Quantity: b.qty, Transactions: b.count})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SaleAmount.GreaterThan(out[j].SaleAmount)
	})
	return truncate(out, limit)
}

func byProduct(rows Table) []ProductTotal {
	g := groupRows(rows, Transaction.product)

	// Distinct unit prices are counted on the derived values, not rounded.
	prices := make(map[productKey]map[string]struct{}, len(g.order))
	for _, tx := range rows {
		set, ok := prices[tx.product()]
		if !ok {
			set = make(map[string]struct{})
			prices[tx.product()] = set
		}
		set[types.PriceKey(tx.UnitPrice)] = struct{}{}
	}

	out := make([]ProductTotal, 0, len(g.order))
	for _, k := range g.order {
		b := g.buckets[k]
		out = append(out, ProductTotal{
			Code:           k.Code,
			Description:    k.Description,
			SaleAmount:     b.amount,
			Quantity:       b.qty,
			Transactions:   b.count,
			DistinctPrices: len(prices[k]),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SaleAmount.GreaterThan(out[j].SaleAmount)
	})
	return truncate(out, TopN)
}

// byDayOfMonth merges the same day number across months (Jan 5 and Feb 5 share
// bucket 5). Rows are ordered by day ascending.
func byDayOfMonth(rows Table) []DayTotal {
	g := groupRows(rows, func(tx Transaction) int { return tx.Date.Day() })
	out := make([]DayTotal, 0, len(g.order))
	for _, day := range g.order {
		b := g.buckets[day]
		out = append(out, DayTotal{Day: day, SaleAmount: b.amount, Quantity: b.qty, Transactions: b.count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

func truncate[T any](rows []T, limit int) []T {
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}
