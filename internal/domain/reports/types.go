package reports

import (
	"time"

	"salesboard/internal/core/id"
	"salesboard/internal/domain/sales"
)

// DefaultTransactionsLimit is the page size of LatestTransactions.
const DefaultTransactionsLimit = 10

// MaxTransactionsLimit caps LatestTransactions.
const MaxTransactionsLimit = 1000

// SalesAnalysis is a Bundle plus the context it was computed in.
type SalesAnalysis struct {
	*sales.Bundle

	SnapshotID id.ID     `json:"snapshotId"`
	FromDate   time.Time `json:"fromDate"`
	ToDate     time.Time `json:"toDate"`
	// TableRows counts rows in the whole table, before filtering.
	TableRows int `json:"tableRows"`
	// ShareOfTransactions is the filtered row count as a percentage of
	// TableRows; zero when the table is empty.
	ShareOfTransactions float64 `json:"shareOfTransactions"`
	Cached              bool    `json:"cached"`
}

// FilterOptions lists the values a client can choose from.
type FilterOptions struct {
	ProductLines []string   `json:"productLines"`
	Products     []string   `json:"products"`
	Channels     []string   `json:"channels"`
	Clients      []string   `json:"clients"`
	Salespeople  []string   `json:"salespeople"`
	MinDate      *time.Time `json:"minDate,omitempty"`
	MaxDate      *time.Time `json:"maxDate,omitempty"`
}

// TransactionPage is a bounded list of filtered transactions.
type TransactionPage struct {
	Items []sales.Transaction `json:"items"`
	Total int                 `json:"total"`
	Limit int                 `json:"limit"`
}
