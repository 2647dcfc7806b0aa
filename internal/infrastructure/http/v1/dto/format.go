package dto

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"salesboard/internal/core/types"
)

// Palette colors breakdown rows by rank.
var Palette = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4", "#FFEAA7",
	"#DDA0DD", "#98D8C8", "#F7DC6F", "#BB8FCE", "#85C1E2",
	"#F1948A", "#7DCEA0", "#F5B7B1", "#AED6F1", "#F9E79F",
}

// ColorAt returns the palette color for the row at rank (0-based). Colors
// repeat after len(Palette) rows.
func ColorAt(rank int) string {
	if rank < 0 {
		rank = -rank
	}
	return Palette[rank%len(Palette)]
}

// FormatMoney renders m as "$1,234.56", rounded half away from zero.
func FormatMoney(m types.Money) string {
	rounded := m.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
	}
	abs := rounded.Abs()
	_, frac, _ := strings.Cut(abs.StringFixed(2), ".")
	return sign + "$" + humanize.BigComma(abs.Truncate(0).BigInt()) + "." + frac
}

// FormatNumber renders d rounded to an integer with thousands separators,
// e.g. "1,235".
func FormatNumber(d decimal.Decimal) string {
	return humanize.BigComma(d.Round(0).BigInt())
}

// FormatQuantity is FormatNumber for a quantity.
func FormatQuantity(q types.Quantity) string {
	return FormatNumber(q.Decimal())
}
