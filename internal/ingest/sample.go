package ingest

import (
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"salesboard/internal/core/types"
	"salesboard/internal/domain/sales"
)

// SampleSeed makes Sample reproducible across runs.
const SampleSeed = 42

var (
	sampleClients     = []string{"SECRETS MAROMA", "GRAND PALLADIUM", "IBEROSTAR", "DREAMS", "HYATT ZIVA"}
	sampleSalespeople = []string{"Eduardo Cantillo", "José Carlos", "Javier"}
	sampleProducts    = []string{"TOMATE ENTERO PELADO", "PENNE MEDITERRANEA", "SPAGUETTI", "FUSILLI", "ARROZ ARBORIO"}
	sampleLines       = []string{"TOMATES", "PASTAS", "ARROCES", "ACEITES Y VINAGRES"}
	sampleChannels    = []string{"Foodservice", "B2B", "Retail"}
	samplePrices      = []string{"96.5", "97.5", "98", "100", "102"}
)

// Sample generates demo transactions for every day in [from, to]: 10 to 29
// rows a day, quantities 10 to 499 and a unit price drawn from a short fixed
// list, so that most products show price variations. The description equals
// the product code.
func Sample(seed uint64, from, to time.Time) sales.Table {
	r := rand.New(rand.NewPCG(seed, seed))
	pick := func(values []string) string { return values[r.IntN(len(values))] }

	var table sales.Table
	for day := sales.CivilDay(from); !day.After(sales.CivilDay(to)); day = day.AddDate(0, 0, 1) {
		n := 10 + r.IntN(20)
		for range n {
			product := pick(sampleProducts)
			qty := int64(10 + r.IntN(490))
			price := types.MustMoney(pick(samplePrices))
			amount := price.Mul(decimal.NewFromInt(qty))

			table = append(table, sales.Transaction{
				Date:               day,
				Client:             pick(sampleClients),
				Salesperson:        pick(sampleSalespeople),
				Channel:            pick(sampleChannels),
				ProductCode:        product,
				ProductDescription: product,
				ProductLine:        pick(sampleLines),
				Quantity:           types.NewQuantityFromInt(qty),
				SaleAmount:         amount,
				UnitPrice:          price,
			})
		}
	}
	return table
}
