package portfolio

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding is one position in the ledger. Quantity is always positive; a sell
// that brings it to zero removes the holding entirely.
type Holding struct {
	Symbol          string          `json:"symbol"`
	Quantity        int64           `json:"quantity"`
	AveragePrice    decimal.Decimal `json:"average_price"`
	LastTradedPrice decimal.Decimal `json:"last_traded_price"`
	LastUpdated     time.Time       `json:"last_updated"`
}

// CurrentValue is the position marked at the last traded price.
func (h Holding) CurrentValue() decimal.Decimal {
	return h.LastTradedPrice.Mul(decimal.NewFromInt(h.Quantity))
}

// UnrealizedPnL is (last traded price - average cost) x quantity.
func (h Holding) UnrealizedPnL() decimal.Decimal {
	return h.LastTradedPrice.Sub(h.AveragePrice).Mul(decimal.NewFromInt(h.Quantity))
}
