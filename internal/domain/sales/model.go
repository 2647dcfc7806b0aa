// Package sales is the analysis engine over a flat table of sales transactions.
//
// The engine is pure and synchronous: Filter reduces a Table to the rows matching
// a FilterSpec, Analyze turns a subset into a Bundle of metrics, ranked breakdowns
// and a price-variation report. Neither function performs I/O, keeps state between
// calls, or mutates its input, so a shared read-only Table can be analyzed from
// several goroutines at once.
package sales

import (
	"time"

	"salesboard/internal/core/types"
)

// Transaction is one sale event. Loaders guarantee Date, Client, ProductCode,
// Quantity and SaleAmount are present and that UnitPrice was derived from a
// non-zero quantity.
type Transaction struct {
	Date               time.Time      `json:"date"`
	Client             string         `json:"client"`
	Salesperson        string         `json:"salesperson"`
	Channel            string         `json:"channel"`
	ProductCode        string         `json:"productCode"`
	ProductDescription string         `json:"productDescription"`
	ProductLine        string         `json:"productLine"`
	Quantity           types.Quantity `json:"quantity"`
	SaleAmount         types.Money    `json:"saleAmount"`
	UnitPrice          types.Money    `json:"unitPrice"`
}

// Table is an ordered set of transactions. The engine treats it as read-only.
type Table []Transaction

// Len returns the number of rows.
func (t Table) Len() int { return len(t) }

// DeriveUnitPrice returns SaleAmount / Quantity.
// ok is false when the quantity is zero and no price can be derived.
func DeriveUnitPrice(amount types.Money, qty types.Quantity) (price types.Money, ok bool) {
	if qty.IsZero() {
		return types.Zero(), false
	}
	return amount.Div(qty.Decimal()), true
}

// CivilDay truncates t to its calendar date in t's own location, returned as
// midnight UTC so that days compare independently of time zones.
func CivilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// productKey identifies a product by its code and description pair.
type productKey struct {
	Code        string
	Description string
}

func (tx Transaction) product() productKey {
	return productKey{Code: tx.ProductCode, Description: tx.ProductDescription}
}
