package models

import (
	"github.com/shopspring/decimal"
)

// Holding is one position in a user's portfolio.
type Holding struct {
	Symbol  string  `json:"symbol"`
	Shares  float64 `json:"shares"`
	AvgCost float64 `json:"avg_cost"`
}

// PositionValue is a holding marked to the live price.
type PositionValue struct {
	Holding
	Price float64 `json:"price"`
	Value float64 `json:"value"`
	Gain  float64 `json:"gain"`
	Live  bool    `json:"live"` // false when priced at avg cost
}

type PortfolioValuation struct {
	Positions  []PositionValue `json:"positions"`
	TotalValue float64         `json:"total_value"`
	TotalCost  float64         `json:"total_cost"`
	TotalGain  float64         `json:"total_gain"`
}

// QuoteLookup returns the live quote for a symbol, ok=false if there is none.
type QuoteLookup func(symbol string) (Quote, bool)

// ValuePortfolio marks every holding to the live price. Holdings without a
// quote are valued at their average cost and contribute no gain.
func ValuePortfolio(holdings []Holding, lookup QuoteLookup) PortfolioValuation {
	totalValue := decimal.Zero
	totalCost := decimal.Zero

	out := PortfolioValuation{Positions: make([]PositionValue, 0, len(holdings))}
	for _, h := range holdings {
		shares := decimal.NewFromFloat(h.Shares)
		cost := decimal.NewFromFloat(h.AvgCost).Mul(shares)

		price := h.AvgCost
		q, live := lookup(h.Symbol)
		if live {
			price = q.Price
		}
		value := decimal.NewFromFloat(price).Mul(shares)

		totalValue = totalValue.Add(value)
		totalCost = totalCost.Add(cost)

		out.Positions = append(out.Positions, PositionValue{
			Holding: h,
			Price:   price,
			Value:   value.InexactFloat64(),
			Gain:    value.Sub(cost).InexactFloat64(),
			Live:    live,
		})
	}

	out.TotalValue = totalValue.InexactFloat64()
	out.TotalCost = totalCost.InexactFloat64()
	out.TotalGain = totalValue.Sub(totalCost).InexactFloat64()
	return out
}
