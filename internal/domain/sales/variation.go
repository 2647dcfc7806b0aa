package sales

import (
	"sort"

	"salesboard/internal/core/types"
)

// PriceVariation reports a product sold at two or more distinct unit prices.
type PriceVariation struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	// Prices are the distinct unit prices rounded to two places, ascending.
	Prices       []types.Money `json:"prices"`
	Transactions int           `json:"transactions"`
}

// DetectPriceVariations groups rows by product, keeps products whose unit
// prices (rounded to two places) take more than one value, and returns the
// TopN of them by transaction count, descending. Ties keep first-seen order.
func DetectPriceVariations(rows Table) []PriceVariation {
	type acc struct {
		seen   map[string]struct{}
		prices []types.Money
		count  int
	}

	var order []productKey
	groups := make(map[productKey]*acc)
	for _, tx := range rows {
		k := tx.product()
		a, ok := groups[k]
		if !ok {
			a = &acc{seen: make(map[string]struct{})}
			groups[k] = a
			order = append(order, k)
		}
		a.count++

		price := types.RoundPrice(tx.UnitPrice)
		if _, dup := a.seen[types.PriceKey(price)]; !dup {
			a.seen[types.PriceKey(price)] = struct{}{}
			a.prices = append(a.prices, price)
		}
	}

	out := make([]PriceVariation, 0)
	for _, k := range order {
		a := groups[k]
		if len(a.prices) < 2 {
			continue
		}
		sort.Slice(a.prices, func(i, j int) bool { return a.prices[i].LessThan(a.prices[j]) })
		out = append(out, PriceVariation{
			Code:         k.Code,
			Description:  k.Description,
			Prices:       a.prices,
			Transactions: a.count,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Transactions > out[j].Transactions })
	return truncate(out, TopN)
}
