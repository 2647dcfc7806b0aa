package v1

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesboard/internal/core/apperror"
	"salesboard/internal/core/id"
	"salesboard/internal/core/types"
	"salesboard/internal/domain/reports"
	"salesboard/internal/domain/sales"
	"salesboard/internal/infrastructure/http/v1/dto"
	"salesboard/pkg/logger"
)

type stubRepo struct {
	snap *reports.Snapshot
	err  error
}

func (s *stubRepo) Load(context.Context) (*reports.Snapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.snap, nil
}

func (s *stubRepo) Ping(context.Context) error { return s.err }

func saleRow(date, client, line, code string, qty int64, amount string) sales.Transaction {
	d, _ := time.Parse(sales.DateLayout, date)
	a := types.MustMoney(amount)
	q := types.NewQuantityFromInt(qty)
	p, _ := sales.DeriveUnitPrice(a, q)
	return sales.Transaction{
		Date: d, Client: client, Salesperson: "Javier", Channel: "B2B",
		ProductCode: code, ProductDescription: code, ProductLine: line,
		Quantity: q, SaleAmount: a, UnitPrice: p,
	}
}

func newTestRouter(t *testing.T, repo reports.Repository, compression bool) http.Handler {
	t.Helper()
	return NewRouter(RouterConfig{
		Logger:      logger.NewNop(),
		Reports:     reports.NewService(repo, nil),
		Version:     "test",
		Compression: compression,
	})
}

func sampleRepo() *stubRepo {
	return &stubRepo{snap: &reports.Snapshot{
		ID: id.New(),
		Table: sales.Table{
			saleRow("2026-01-01", "IBEROSTAR", "PASTAS", "P1", 10, "100"),
			saleRow("2026-01-02", "DREAMS", "PASTAS", "P1", 20, "220"),
			saleRow("2026-01-02", "DREAMS", "ARROCES", "P2", 1, "50"),
			saleRow("2026-02-01", "HYATT ZIVA", "TOMATES", "P3", 1, "10"),
		},
		LoadedAt: time.Now(),
	}}
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestSalesAnalysis_Get(t *testing.T) {
	r := newTestRouter(t, sampleRepo(), false)

	w := do(t, r, httptest.NewRequest(http.MethodGet,
		"/api/v1/reports/sales-analysis?productLine=PASTAS&fromDate=2026-01-01&toDate=2026-01-31", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.SalesAnalysisResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, 2, resp.Metrics.Transactions)
	assert.InDelta(t, 320.0, resp.Metrics.TotalSales, 1e-9)
	assert.Equal(t, "$320.00", resp.Metrics.TotalSalesText)
	assert.Equal(t, "$160.00", resp.Metrics.AverageTicketText)
	assert.Equal(t, 4, resp.TableRows)
	assert.InDelta(t, 50.0, resp.ShareOfTransactions, 1e-9)
	assert.Equal(t, "2026-01-01", resp.FromDate)
	assert.Equal(t, "2026-01-31", resp.ToDate)

	require.Len(t, resp.ByClient, 2)
	assert.Equal(t, "DREAMS", resp.ByClient[0].Key)
	assert.Equal(t, dto.Palette[0], resp.ByClient[0].Color)
	assert.Equal(t, dto.Palette[1], resp.ByClient[1].Color)

	require.Len(t, resp.PriceVariations, 1)
	assert.Equal(t, []string{"$10.00", "$11.00"}, resp.PriceVariations[0].PricesText)
}

func TestSalesAnalysis_Get_Errors(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantCode string
	}{
		{
			name:     "missing toDate",
			url:      "/api/v1/reports/sales-analysis?fromDate=2026-01-01",
			wantCode: apperror.CodeInvalidArgument,
		},
		{
			name:     "no dates at all",
			url:      "/api/v1/reports/sales-analysis?client=DREAMS",
			wantCode: apperror.CodeInvalidArgument,
		},
		{
			name:     "malformed date",
			url:      "/api/v1/reports/sales-analysis?fromDate=01/13/2026&toDate=2026-01-31",
			wantCode: apperror.CodeInvalidArgument,
		},
	}

	r := newTestRouter(t, sampleRepo(), false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, httptest.NewRequest(http.MethodGet, tt.url, nil))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, w).Code)
		})
	}
}

func TestSalesAnalysis_Post(t *testing.T) {
	r := newTestRouter(t, sampleRepo(), false)

	body := `{"filters":[
		{"field":"client","operator":"eq","value":"DREAMS"},
		{"field":"date","operator":"between","value":["2026-01-01","2026-01-31"]}
	]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/sales-analysis", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := do(t, r, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.SalesAnalysisResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Metrics.Transactions)
	require.Len(t, resp.ByProductLine, 2)
	assert.Equal(t, "PASTAS", resp.ByProductLine[0].Key)
}

func TestSalesAnalysis_Post_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{name: "malformed json", body: `{"filters":`, wantCode: apperror.CodeValidation},
		{
			name:     "unknown field",
			body:     `{"filters":[{"field":"region","operator":"eq","value":"N"},{"field":"date","operator":"between","value":["2026-01-01","2026-01-31"]}]}`,
			wantCode: apperror.CodeInvalidArgument,
		},
		{
			name:     "number for categorical",
			body:     `{"filters":[{"field":"client","operator":"eq","value":7},{"field":"date","operator":"between","value":["2026-01-01","2026-01-31"]}]}`,
			wantCode: apperror.CodeInvalidArgument,
		},
	}

	r := newTestRouter(t, sampleRepo(), false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/sales-analysis", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := do(t, r, req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, w).Code)
		})
	}
}

func TestSalesFilters(t *testing.T) {
	r := newTestRouter(t, sampleRepo(), false)

	w := do(t, r, httptest.NewRequest(http.MethodGet, "/api/v1/reports/sales-filters", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.FilterOptionsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"ARROCES", "PASTAS", "TOMATES"}, resp.ProductLines)
	assert.Equal(t, "2026-01-01", resp.MinDate)
	assert.Equal(t, "2026-02-01", resp.MaxDate)
}

func TestSalesTransactions(t *testing.T) {
	r := newTestRouter(t, sampleRepo(), false)

	w := do(t, r, httptest.NewRequest(http.MethodGet,
		"/api/v1/reports/sales-transactions?fromDate=2026-01-01&toDate=2026-12-31&limit=2", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.TransactionPageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.Total)
	assert.Equal(t, 2, resp.Limit)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "2026-02-01", resp.Items[0].Date)
	assert.InDelta(t, 11.0, resp.Items[1].UnitPrice, 1e-9)

	w = do(t, r, httptest.NewRequest(http.MethodGet,
		"/api/v1/reports/sales-transactions?fromDate=2026-01-01&toDate=2026-12-31&limit=5000", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperror.CodeValidation, decodeError(t, w).Code)
}

func TestExportSalesTransactions(t *testing.T) {
	r := newTestRouter(t, sampleRepo(), false)

	w := do(t, r, httptest.NewRequest(http.MethodGet,
		"/api/v1/reports/sales-transactions/export?client=DREAMS&fromDate=2026-01-01&toDate=2026-01-31", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "sales_2026-01-01_2026-01-31.csv")

	records, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, dto.TransactionCSVHeader, records[0])
	assert.Equal(t, []string{"2026-01-02", "DREAMS", "Javier", "B2B", "P1", "P1", "PASTAS", "20", "220", "11.00"}, records[1])
}

func TestCompression(t *testing.T) {
	r := newTestRouter(t, sampleRepo(), true)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/sales-filters", nil)
	req.Header.Set("Accept-Encoding", "gzip, zstd")
	w := do(t, r, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "zstd", w.Header().Get("Content-Encoding"))

	dec, err := zstd.NewReader(w.Body)
	require.NoError(t, err)
	defer dec.Close()

	var resp dto.FilterOptionsResponse
	require.NoError(t, json.NewDecoder(dec).Decode(&resp))
	assert.Equal(t, []string{"B2B"}, resp.Channels)

	plain := do(t, r, httptest.NewRequest(http.MethodGet, "/api/v1/reports/sales-filters", nil))
	assert.Empty(t, plain.Header().Get("Content-Encoding"))
	assert.True(t, json.Valid(plain.Body.Bytes()))
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, sampleRepo(), false)

	w := do(t, r, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = do(t, r, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	down := newTestRouter(t, &stubRepo{err: apperror.NewUnavailable("csv", errors.New("no such file"))}, false)
	w = do(t, down, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(t, r, httptest.NewRequest(http.MethodGet, "/health/info", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var info map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "test", info["version"])
	assert.NotContains(t, info, "database")
}

func TestSourceUnavailable(t *testing.T) {
	r := newTestRouter(t, &stubRepo{err: apperror.NewUnavailable("postgres", errors.New("refused"))}, false)

	w := do(t, r, httptest.NewRequest(http.MethodGet,
		"/api/v1/reports/sales-analysis?fromDate=2026-01-01&toDate=2026-01-31", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, apperror.CodeUnavailable, decodeError(t, w).Code)
}
