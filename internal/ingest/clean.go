package ingest

import (
	"strings"
	"time"

	"salesboard/internal/core/types"
	"salesboard/internal/domain/sales"
)

// RawRow is one untyped source record, indexed through a ColumnMap.
type RawRow []string

// DropReason says why a row was left out of the table.
type DropReason string

const (
	DropMissingKey    DropReason = "missing_key"
	DropInvalidDate   DropReason = "invalid_date"
	DropInvalidNumber DropReason = "invalid_number"
	DropZeroQuantity  DropReason = "zero_quantity"
	DropShortRecord   DropReason = "short_record"
)

// Report summarizes one Clean call.
type Report struct {
	Read    int                `json:"read"`
	Kept    int                `json:"kept"`
	Dropped map[DropReason]int `json:"dropped"`
}

// DroppedTotal returns the number of discarded rows.
func (r Report) DroppedTotal() int {
	n := 0
	for _, c := range r.Dropped {
		n += c
	}
	return n
}

// dateLayouts are tried in order.
var dateLayouts = []string{
	sales.DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05-07",
	"02/01/2006",
	time.RFC3339,
}

// Clean converts raw rows into transactions. A row is dropped when its date,
// client or product code is empty, the date or a number does not parse, or the
// quantity is zero. An empty description falls back to the product code.
func Clean(raw []RawRow, cols ColumnMap) (sales.Table, Report) {
	report := Report{Read: len(raw), Dropped: make(map[DropReason]int)}
	table := make(sales.Table, 0, len(raw))

	for _, r := range raw {
		tx, reason, ok := parseRow(r, cols)
		if !ok {
			report.Dropped[reason]++
			continue
		}
		table = append(table, tx)
	}

	report.Kept = len(table)
	return table, report
}

func parseRow(r RawRow, cols ColumnMap) (sales.Transaction, DropReason, bool) {
	field := func(col Column) (string, bool) {
		i, ok := cols.Index(col)
		if !ok {
			return "", true
		}
		if i >= len(r) {
			return "", false
		}
		return strings.TrimSpace(r[i]), true
	}

	values := make([]string, len(Canonical))
	for slot, col := range Canonical {
		v, ok := field(col)
		if !ok {
			return sales.Transaction{}, DropShortRecord, false
		}
		values[slot] = v
	}
	date, client, salesperson, channel := values[0], values[1], values[2], values[3]
	code, desc, line, qtyRaw, amountRaw := values[4], values[5], values[6], values[7], values[8]

	if date == "" || client == "" || code == "" {
		return sales.Transaction{}, DropMissingKey, false
	}

	day, err := ParseDate(date)
	if err != nil {
		return sales.Transaction{}, DropInvalidDate, false
	}

	qty, err := types.ParseQuantity(qtyRaw)
	if err != nil {
		return sales.Transaction{}, DropInvalidNumber, false
	}
	amount, err := types.NewMoneyFromString(amountRaw)
	if err != nil {
		return sales.Transaction{}, DropInvalidNumber, false
	}

	price, ok := sales.DeriveUnitPrice(amount, qty)
	if !ok {
		return sales.Transaction{}, DropZeroQuantity, false
	}

	if desc == "" {
		desc = code
	}

	return sales.Transaction{
		Date:               day,
		Client:             client,
		Salesperson:        salesperson,
		Channel:            channel,
		ProductCode:        code,
		ProductDescription: desc,
		ProductLine:        line,
		Quantity:           qty,
		SaleAmount:         amount,
		UnitPrice:          price,
	}, "", true
}

// ParseDate accepts the date formats found in sales exports.
func ParseDate(s string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
