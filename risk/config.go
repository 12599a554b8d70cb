package risk

import "github.com/shopspring/decimal"

// Config holds the scoring thresholds and weights. Read-only after startup.
//
// Percentage fields are fractions (0.05 == 5%); amount fields are in account
// currency. The five category weights should sum to 1 so the composite score
// stays on the 0-1 scale.
type Config struct {
	MaxRiskScore float64

	MaxPositionSizePct      decimal.Decimal
	MaxPositionSizeAbsolute decimal.Decimal
	MaxSectorExposurePct    decimal.Decimal
	MaxDrawdownAmount       decimal.Decimal
	PositionSizePct         decimal.Decimal

	LowRiskPositionPct        decimal.Decimal
	MediumRiskPositionPct     decimal.Decimal
	LowRiskSectorPct          decimal.Decimal
	MediumRiskSectorPct       decimal.Decimal
	LowRiskDailyLossAmount    decimal.Decimal
	MediumRiskDailyLossAmount decimal.Decimal
	MaxDailyLossPct           decimal.Decimal

	PositionSizeWeight        float64
	SectorConcentrationWeight float64
	DailyLossWeight           float64
	VolatilityWeight          float64
	LiquidityWeight           float64
}

// DefaultConfig mirrors the limits the service shipped with.
func DefaultConfig() Config {
	return Config{
		MaxRiskScore: 0.7,

		MaxPositionSizePct:      decimal.NewFromFloat(0.05),
		MaxPositionSizeAbsolute: decimal.NewFromInt(50000),
		MaxSectorExposurePct:    decimal.NewFromFloat(0.25),
		MaxDrawdownAmount:       decimal.NewFromInt(10000),
		PositionSizePct:         decimal.NewFromFloat(0.02),

		LowRiskPositionPct:        decimal.NewFromFloat(0.02),
		MediumRiskPositionPct:     decimal.NewFromFloat(0.05),
		LowRiskSectorPct:          decimal.NewFromFloat(0.15),
		MediumRiskSectorPct:       decimal.NewFromFloat(0.25),
		LowRiskDailyLossAmount:    decimal.NewFromInt(1000),
		MediumRiskDailyLossAmount: decimal.NewFromInt(5000),
		MaxDailyLossPct:           decimal.NewFromFloat(0.02),

		PositionSizeWeight:        0.3,
		SectorConcentrationWeight: 0.2,
		DailyLossWeight:           0.25,
		VolatilityWeight:          0.15,
		LiquidityWeight:           0.1,
	}
}
