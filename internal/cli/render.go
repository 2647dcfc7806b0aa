package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"

	"salesboard/internal/domain/reports"
	"salesboard/internal/domain/sales"
	"salesboard/internal/infrastructure/http/v1/dto"
)

var rightAligned = []table.ColumnConfig{
	{Number: 2, Align: text.AlignRight},
	{Number: 3, Align: text.AlignRight},
	{Number: 4, Align: text.AlignRight},
	{Number: 5, Align: text.AlignRight},
}

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	t.SetColumnConfigs(rightAligned)
	return t
}

func renderAnalysis(w io.Writer, a *reports.SalesAnalysis) {
	m := a.Metrics
	_, _ = fmt.Fprintf(w, "Period %s .. %s  (%d of %d rows, %.1f%%)\n\n",
		a.FromDate.Format(sales.DateLayout), a.ToDate.Format(sales.DateLayout),
		m.Transactions, a.TableRows, a.ShareOfTransactions)

	t := newTable(w, "Metrics")
	t.AppendHeader(table.Row{"Total sales", "Quantity", "Transactions", "Average ticket"})
	t.SetColumnConfigs(nil)
	t.AppendRow(table.Row{
		dto.FormatMoney(m.TotalSales),
		dto.FormatQuantity(m.TotalQuantity),
		dto.FormatNumber(decimal.NewFromInt(int64(m.Transactions))),
		dto.FormatMoney(m.AverageTicket),
	})
	t.Render()

	renderGroups(w, "By product line", "Line", a.ByProductLine)
	renderProducts(w, a.ByProduct)
	renderGroups(w, "By channel", "Channel", a.ByChannel)
	renderGroups(w, "Top clients", "Client", a.ByClient)
	renderGroups(w, "By salesperson", "Salesperson", a.BySalesperson)
	renderDays(w, a.ByDay)
	renderVariations(w, a.PriceVariations)
}

func renderGroups(w io.Writer, title, keyHeader string, rows []sales.GroupTotal) {
	_, _ = fmt.Fprintln(w)
	t := newTable(w, title)
	t.AppendHeader(table.Row{keyHeader, "Sales", "Quantity", "Transactions"})
	for _, r := range rows {
		t.AppendRow(table.Row{
			r.Key,
			dto.FormatMoney(r.SaleAmount),
			dto.FormatQuantity(r.Quantity),
			r.Transactions,
		})
	}
	t.Render()
}

func renderProducts(w io.Writer, rows []sales.ProductTotal) {
	_, _ = fmt.Fprintln(w)
	t := newTable(w, "Top products")
	t.AppendHeader(table.Row{"Product", "Sales", "Quantity", "Transactions", "Prices"})
	for _, r := range rows {
		t.AppendRow(table.Row{
			productLabel(r.Code, r.Description),
			dto.FormatMoney(r.SaleAmount),
			dto.FormatQuantity(r.Quantity),
			r.Transactions,
			r.DistinctPrices,
		})
	}
	t.Render()
}

func renderDays(w io.Writer, rows []sales.DayTotal) {
	_, _ = fmt.Fprintln(w)
	t := newTable(w, "By day of month")
	t.AppendHeader(table.Row{"Day", "Sales", "Quantity", "Transactions"})
	for _, r := range rows {
		t.AppendRow(table.Row{
			r.Day,
			dto.FormatMoney(r.SaleAmount),
			dto.FormatQuantity(r.Quantity),
			r.Transactions,
		})
	}
	t.Render()
}

func renderVariations(w io.Writer, rows []sales.PriceVariation) {
	_, _ = fmt.Fprintln(w)
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "No price variations.")
		return
	}
	_, _ = fmt.Fprintf(w, "%d products with price variations\n", len(rows))
	t := newTable(w, "Price variations")
	t.AppendHeader(table.Row{"Product", "Prices", "Transactions"})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 3, Align: text.AlignRight}})
	for _, r := range rows {
		prices := make([]string, len(r.Prices))
		for i, p := range r.Prices {
			prices[i] = dto.FormatMoney(p)
		}
		t.AppendRow(table.Row{
			productLabel(r.Code, r.Description),
			strings.Join(prices, ", "),
			r.Transactions,
		})
	}
	t.Render()
}

func productLabel(code, description string) string {
	if description == "" || description == code {
		return code
	}
	return code + " " + description
}
