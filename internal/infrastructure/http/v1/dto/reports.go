package dto

import (
	"salesboard/internal/core/types"
	"salesboard/internal/domain/filter"
	"salesboard/internal/domain/reports"
	"salesboard/internal/domain/sales"
)

// --- Sales Analysis ---

// SalesQuery is the query-string form of a filter. Empty values do not
// constrain; fromDate and toDate are required by the service.
type SalesQuery struct {
	ProductLine string `form:"productLine"`
	Product     string `form:"product"`
	Channel     string `form:"channel"`
	Client      string `form:"client"`
	Salesperson string `form:"salesperson"`
	FromDate    string `form:"fromDate"`
	ToDate      string `form:"toDate"`
}

// Items converts the query into generic filter rows.
func (q SalesQuery) Items() []filter.Item {
	var items []filter.Item
	add := func(field, value string) {
		if value != "" {
			items = append(items, filter.Eq(field, value))
		}
	}
	add(filter.FieldProductLine, q.ProductLine)
	add(filter.FieldProductCode, q.Product)
	add(filter.FieldChannel, q.Channel)
	add(filter.FieldClient, q.Client)
	add(filter.FieldSalesperson, q.Salesperson)

	if q.FromDate != "" {
		items = append(items, filter.Item{Field: filter.FieldDate, Operator: filter.GreaterOrEqual, Value: q.FromDate})
	}
	if q.ToDate != "" {
		items = append(items, filter.Item{Field: filter.FieldDate, Operator: filter.LessOrEqual, Value: q.ToDate})
	}
	return items
}

// TransactionsQuery adds a page size to SalesQuery.
type TransactionsQuery struct {
	SalesQuery
	Limit int `form:"limit" binding:"min=0,max=1000"`
}

// MetricsResponse carries scalar totals, raw and formatted.
type MetricsResponse struct {
	TotalSales        float64 `json:"totalSales"`
	TotalSalesText    string  `json:"totalSalesText"`
	TotalQuantity     float64 `json:"totalQuantity"`
	TotalQuantityText string  `json:"totalQuantityText"`
	Transactions      int     `json:"transactions"`
	AverageTicket     float64 `json:"averageTicket"`
	AverageTicketText string  `json:"averageTicketText"`
}

// GroupRowResponse is one ranked row of a categorical breakdown.
type GroupRowResponse struct {
	Key          string  `json:"key"`
	SaleAmount   float64 `json:"saleAmount"`
	Quantity     float64 `json:"quantity"`
	Transactions int     `json:"transactions"`
	Color        string  `json:"color"`
}

// ProductRowResponse is one ranked row of the product breakdown.
type ProductRowResponse struct {
	Code           string  `json:"code"`
	Description    string  `json:"description"`
	SaleAmount     float64 `json:"saleAmount"`
	Quantity       float64 `json:"quantity"`
	Transactions   int     `json:"transactions"`
	DistinctPrices int     `json:"distinctPrices"`
	Color          string  `json:"color"`
}

// DayRowResponse is one row of the day-of-month breakdown.
type DayRowResponse struct {
	Day          int     `json:"day"`
	SaleAmount   float64 `json:"saleAmount"`
	Quantity     float64 `json:"quantity"`
	Transactions int     `json:"transactions"`
}

// PriceVariationResponse lists the distinct prices of one product.
type PriceVariationResponse struct {
	Code         string    `json:"code"`
	Description  string    `json:"description"`
	Prices       []float64 `json:"prices"`
	PricesText   []string  `json:"pricesText"`
	Transactions int       `json:"transactions"`
}

// SalesAnalysisResponse is the full analysis payload.
type SalesAnalysisResponse struct {
	SnapshotID          string  `json:"snapshotId"`
	FromDate            string  `json:"fromDate"`
	ToDate              string  `json:"toDate"`
	TableRows           int     `json:"tableRows"`
	ShareOfTransactions float64 `json:"shareOfTransactions"`
	Cached              bool    `json:"cached"`

	Metrics         MetricsResponse          `json:"metrics"`
	ByProductLine   []GroupRowResponse       `json:"byProductLine"`
	ByProduct       []ProductRowResponse     `json:"byProduct"`
	ByChannel       []GroupRowResponse       `json:"byChannel"`
	ByClient        []GroupRowResponse       `json:"byClient"`
	BySalesperson   []GroupRowResponse       `json:"bySalesperson"`
	ByDay           []DayRowResponse         `json:"byDay"`
	PriceVariations []PriceVariationResponse `json:"priceVariations"`
}

// FromSalesAnalysis converts domain analysis to response DTO.
func FromSalesAnalysis(a *reports.SalesAnalysis) *SalesAnalysisResponse {
	m := a.Metrics
	resp := &SalesAnalysisResponse{
		SnapshotID:          a.SnapshotID.String(),
		FromDate:            a.FromDate.Format(sales.DateLayout),
		ToDate:              a.ToDate.Format(sales.DateLayout),
		TableRows:           a.TableRows,
		ShareOfTransactions: a.ShareOfTransactions,
		Cached:              a.Cached,
		Metrics: MetricsResponse{
			TotalSales:        m.TotalSales.InexactFloat64(),
			TotalSalesText:    FormatMoney(m.TotalSales),
			TotalQuantity:     m.TotalQuantity.Float64(),
			TotalQuantityText: FormatQuantity(m.TotalQuantity),
			Transactions:      m.Transactions,
			AverageTicket:     m.AverageTicket.InexactFloat64(),
			AverageTicketText: FormatMoney(m.AverageTicket),
		},
		ByProductLine:   groupRows(a.ByProductLine),
		ByChannel:       groupRows(a.ByChannel),
		ByClient:        groupRows(a.ByClient),
		BySalesperson:   groupRows(a.BySalesperson),
		ByProduct:       make([]ProductRowResponse, len(a.ByProduct)),
		ByDay:           make([]DayRowResponse, len(a.ByDay)),
		PriceVariations: make([]PriceVariationResponse, len(a.PriceVariations)),
	}

	for i, p := range a.ByProduct {
		resp.ByProduct[i] = ProductRowResponse{
			Code:           p.Code,
			Description:    p.Description,
			SaleAmount:     p.SaleAmount.InexactFloat64(),
			Quantity:       p.Quantity.Float64(),
			Transactions:   p.Transactions,
			DistinctPrices: p.DistinctPrices,
			Color:          ColorAt(i),
		}
	}
	for i, d := range a.ByDay {
		resp.ByDay[i] = DayRowResponse{
			Day:          d.Day,
			SaleAmount:   d.SaleAmount.InexactFloat64(),
			Quantity:     d.Quantity.Float64(),
			Transactions: d.Transactions,
		}
	}
	for i, v := range a.PriceVariations {
		row := PriceVariationResponse{
			Code:         v.Code,
			Description:  v.Description,
			Prices:       make([]float64, len(v.Prices)),
			PricesText:   make([]string, len(v.Prices)),
			Transactions: v.Transactions,
		}
		for j, p := range v.Prices {
			row.Prices[j] = p.InexactFloat64()
			row.PricesText[j] = FormatMoney(p)
		}
		resp.PriceVariations[i] = row
	}

	return resp
}

func groupRows(rows []sales.GroupTotal) []GroupRowResponse {
	out := make([]GroupRowResponse, len(rows))
	for i, r := range rows {
		out[i] = GroupRowResponse{
			Key:          r.Key,
			SaleAmount:   r.SaleAmount.InexactFloat64(),
			Quantity:     r.Quantity.Float64(),
			Transactions: r.Transactions,
			Color:        ColorAt(i),
		}
	}
	return out
}

// --- Filter Options ---

// FilterOptionsResponse lists selectable values and the table's date bounds.
type FilterOptionsResponse struct {
	ProductLines []string `json:"productLines"`
	Products     []string `json:"products"`
	Channels     []string `json:"channels"`
	Clients      []string `json:"clients"`
	Salespeople  []string `json:"salespeople"`
	MinDate      string   `json:"minDate,omitempty"`
	MaxDate      string   `json:"maxDate,omitempty"`
}

// FromFilterOptions converts domain options to response DTO.
func FromFilterOptions(o *reports.FilterOptions) *FilterOptionsResponse {
	resp := &FilterOptionsResponse{
		ProductLines: o.ProductLines,
		Products:     o.Products,
		Channels:     o.Channels,
		Clients:      o.Clients,
		Salespeople:  o.Salespeople,
	}
	if o.MinDate != nil {
		resp.MinDate = o.MinDate.Format(sales.DateLayout)
	}
	if o.MaxDate != nil {
		resp.MaxDate = o.MaxDate.Format(sales.DateLayout)
	}
	return resp
}

// --- Transactions ---

// TransactionResponse is one sale row.
type TransactionResponse struct {
	Date               string  `json:"date"`
	Client             string  `json:"client"`
	Salesperson        string  `json:"salesperson"`
	Channel            string  `json:"channel"`
	ProductCode        string  `json:"productCode"`
	ProductDescription string  `json:"productDescription"`
	ProductLine        string  `json:"productLine"`
	Quantity           float64 `json:"quantity"`
	SaleAmount         float64 `json:"saleAmount"`
	UnitPrice          float64 `json:"unitPrice"`
}

// TransactionPageResponse is a bounded list of transactions.
type TransactionPageResponse struct {
	Items []TransactionResponse `json:"items"`
	Total int                   `json:"total"`
	Limit int                   `json:"limit"`
}

// FromTransaction converts a transaction to response DTO. The unit price is
// rounded to cents.
func FromTransaction(tx sales.Transaction) TransactionResponse {
	return TransactionResponse{
		Date:               tx.Date.Format(sales.DateLayout),
		Client:             tx.Client,
		Salesperson:        tx.Salesperson,
		Channel:            tx.Channel,
		ProductCode:        tx.ProductCode,
		ProductDescription: tx.ProductDescription,
		ProductLine:        tx.ProductLine,
		Quantity:           tx.Quantity.Float64(),
		SaleAmount:         tx.SaleAmount.InexactFloat64(),
		UnitPrice:          types.RoundPrice(tx.UnitPrice).InexactFloat64(),
	}
}

// FromTransactionPage converts a page to response DTO.
func FromTransactionPage(p *reports.TransactionPage) *TransactionPageResponse {
	resp := &TransactionPageResponse{
		Items: make([]TransactionResponse, len(p.Items)),
		Total: p.Total,
		Limit: p.Limit,
	}
	for i, tx := range p.Items {
		resp.Items[i] = FromTransaction(tx)
	}
	return resp
}

// TransactionCSVHeader is the header row of a transaction export.
var TransactionCSVHeader = []string{
	"date", "client", "salesperson", "channel", "product_code",
	"product_description", "product_line", "quantity", "sale_amount", "unit_price",
}

// TransactionCSVRecord renders tx in TransactionCSVHeader order.
func TransactionCSVRecord(tx sales.Transaction) []string {
	return []string{
		tx.Date.Format(sales.DateLayout),
		tx.Client,
		tx.Salesperson,
		tx.Channel,
		tx.ProductCode,
		tx.ProductDescription,
		tx.ProductLine,
		tx.Quantity.Decimal().String(),
		tx.SaleAmount.String(),
		types.RoundPrice(tx.UnitPrice).StringFixed(2),
	}
}
