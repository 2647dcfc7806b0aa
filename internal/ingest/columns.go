// Package ingest turns raw tabular sales data into a typed sales.Table.
//
// Source headers are matched against an explicit, ordered alias list once per
// load; rows are then parsed, cleaned and given a derived unit price.
package ingest

import (
	"errors"
	"fmt"
	"strings"
)

// Column is a canonical transaction column.
type Column string

const (
	ColDate               Column = "date"
	ColClient             Column = "client"
	ColSalesperson        Column = "salesperson"
	ColChannel            Column = "channel"
	ColProductCode        Column = "product_code"
	ColProductDescription Column = "product_description"
	ColProductLine        Column = "product_line"
	ColQuantity           Column = "quantity"
	ColSaleAmount         Column = "sale_amount"
)

// Canonical lists the columns in the order RawRow values follow when built
// with CanonicalColumns.
var Canonical = []Column{
	ColDate,
	ColClient,
	ColSalesperson,
	ColChannel,
	ColProductCode,
	ColProductDescription,
	ColProductLine,
	ColQuantity,
	ColSaleAmount,
}

// Aliases are the accepted source headers per column, in priority order.
var Aliases = map[Column][]string{
	ColDate:               {"Fecha", "date", "sold_on"},
	ColClient:             {"Cliente", "client"},
	ColSalesperson:        {"Vendedor", "salesperson"},
	ColChannel:            {"Giro", "channel"},
	ColProductCode:        {"Producto", "product_code"},
	ColProductDescription: {"Descripcion", "product_description"},
	ColProductLine:        {"Linea", "product_line"},
	ColQuantity:           {"Cantidad", "quantity"},
	ColSaleAmount:         {"Importe_Venta", "Precio", "Total", "Monto", "Venta", "Importe", "sale_amount"},
}

// optional columns may be absent from the source.
var optional = map[Column]bool{
	ColProductDescription: true,
}

// ErrMissingColumn is matched by every *MissingColumnError.
var ErrMissingColumn = errors.New("missing column")

// MissingColumnError names a required column none of whose aliases is present.
type MissingColumnError struct {
	Column Column
	Tried  []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing column %s (tried %s)", e.Column, strings.Join(e.Tried, ", "))
}

func (e *MissingColumnError) Unwrap() error { return ErrMissingColumn }

// ColumnMap records where each canonical column lives in a source.
type ColumnMap struct {
	names map[Column]string
	index map[Column]int
}

// ResolveColumns matches header against Aliases. For each column, aliases are
// tried in order, first exactly, then ignoring case and surrounding spaces.
func ResolveColumns(header []string) (ColumnMap, error) {
	m := ColumnMap{names: make(map[Column]string), index: make(map[Column]int)}

	for _, col := range Canonical {
		pos, ok := lookup(header, Aliases[col])
		if !ok {
			if optional[col] {
				continue
			}
			return ColumnMap{}, &MissingColumnError{Column: col, Tried: Aliases[col]}
		}
		m.names[col] = header[pos]
		m.index[col] = pos
	}
	return m, nil
}

// CanonicalColumns maps every column to its position in Canonical.
func CanonicalColumns() ColumnMap {
	m := ColumnMap{names: make(map[Column]string), index: make(map[Column]int)}
	for i, col := range Canonical {
		m.names[col] = string(col)
		m.index[col] = i
	}
	return m
}

// Name returns the source header matched for col.
func (m ColumnMap) Name(col Column) (string, bool) {
	name, ok := m.names[col]
	return name, ok
}

// Index returns the position of col in the source header.
func (m ColumnMap) Index(col Column) (int, bool) {
	i, ok := m.index[col]
	return i, ok
}

func lookup(header []string, aliases []string) (int, bool) {
	for _, alias := range aliases {
		for i, h := range header {
			if h == alias {
				return i, true
			}
		}
	}
	for _, alias := range aliases {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), alias) {
				return i, true
			}
		}
	}
	return 0, false
}
