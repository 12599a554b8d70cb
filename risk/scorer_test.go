package risk

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rustyeddy/tradegate/portfolio"
)

type fakeView struct {
	holdings []portfolio.Holding
	cash     decimal.Decimal
}

func (v fakeView) Portfolio() []portfolio.Holding { return v.holdings }
func (v fakeView) CashBalance() decimal.Decimal   { return v.cash }

type mappedSectors map[string]string

func (m mappedSectors) Sector(symbol string) (string, bool) {
	s, ok := m[symbol]
	return s, ok
}

func holding(symbol string, qty int64, avg, ltp int64) portfolio.Holding {
	return portfolio.Holding{
		Symbol:          symbol,
		Quantity:        qty,
		AveragePrice:    decimal.NewFromInt(avg),
		LastTradedPrice: decimal.NewFromInt(ltp),
		LastUpdated:     time.Now(),
	}
}

func TestPositionSizeRiskLowAtOnePercent(t *testing.T) {
	t.Parallel()

	view := fakeView{cash: decimal.NewFromInt(100000)}
	s := NewScorer(DefaultConfig(), view, zap.NewNop())

	a, err := s.AssessTradeRisk("INFY", 10, decimal.NewFromInt(100), portfolio.SideBuy, portfolio.TypeIntraday)
	require.NoError(t, err)
	assert.Equal(t, Low, a.PositionSizeRisk)
}

func TestPositionSizeRiskBuckets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		qty   int64
		price int64
		want  Level
	}{
		{"one percent is low", 10, 100, Low},
		{"four percent is medium", 40, 100, Medium},
		{"ten percent is high", 100, 100, High},
	}

	view := fakeView{cash: decimal.NewFromInt(100000)}
	s := NewScorer(DefaultConfig(), view, zap.NewNop())

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a, err := s.AssessTradeRisk("INFY", tt.qty, decimal.NewFromInt(tt.price), portfolio.SideBuy, portfolio.TypeIntraday)
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.PositionSizeRisk)
		})
	}
}

func TestCompositeScoreWithDefaultStubs(t *testing.T) {
	t.Parallel()

	view := fakeView{cash: decimal.NewFromInt(100000)}
	s := NewScorer(DefaultConfig(), view, zap.NewNop())

	a, err := s.AssessTradeRisk("INFY", 10, decimal.NewFromInt(100), portfolio.SideBuy, portfolio.TypeIntraday)
	require.NoError(t, err)

	// position Low, sector Low, daily-loss Low, volatility Medium, liquidity Low:
	// 0.2*0.3 + 0.2*0.2 + 0.2*0.25 + 0.5*0.15 + 0.2*0.1 = 0.245
	assert.InDelta(t, 0.245, a.OverallRiskScore, 1e-9)
	assert.True(t, a.IsTradeAllowed)
	assert.Empty(t, a.Reason)
}

func TestScoreAboveMaxBlocksAdvisory(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.MaxRiskScore = 0.2
	view := fakeView{cash: decimal.NewFromInt(100000)}
	s := NewScorer(cfg, view, zap.NewNop())

	a, err := s.AssessTradeRisk("INFY", 10, decimal.NewFromInt(100), portfolio.SideBuy, portfolio.TypeIntraday)
	require.NoError(t, err)
	assert.False(t, a.IsTradeAllowed)
	assert.NotEmpty(t, a.Reason)
}

func TestLiquidityRiskQuantityThreshold(t *testing.T) {
	t.Parallel()

	view := fakeView{cash: decimal.NewFromInt(10000000)}
	s := NewScorer(DefaultConfig(), view, zap.NewNop())

	a, err := s.AssessTradeRisk("INFY", 1000, decimal.NewFromInt(10), portfolio.SideBuy, portfolio.TypeIntraday)
	require.NoError(t, err)
	assert.Equal(t, Low, a.LiquidityRisk)

	a, err = s.AssessTradeRisk("INFY", 1001, decimal.NewFromInt(10), portfolio.SideBuy, portfolio.TypeIntraday)
	require.NoError(t, err)
	assert.Equal(t, Medium, a.LiquidityRisk)
}

func TestVolatilityRiskIsMediumPlaceholder(t *testing.T) {
	t.Parallel()

	view := fakeView{cash: decimal.NewFromInt(100000)}
	s := NewScorer(DefaultConfig(), view, zap.NewNop())

	a, err := s.AssessTradeRisk("ANY", 1, decimal.NewFromInt(1), portfolio.SideSell, portfolio.TypeIntraday)
	require.NoError(t, err)
	assert.Equal(t, Medium, a.VolatilityRisk)
}

func TestSectorConcentrationWithMapping(t *testing.T) {
	t.Parallel()

	view := fakeView{
		holdings: []portfolio.Holding{
			holding("INFY", 10, 1500, 1540), // 15400 in Technology
			holding("HDFC", 10, 2000, 2000), // 20000 in Banking
		},
		cash: decimal.NewFromInt(64600), // total 100000
	}
	sectors := mappedSectors{"INFY": "Technology", "TCS": "Technology", "HDFC": "Banking"}
	s := NewScorer(DefaultConfig(), view, zap.NewNop(), WithSectors(sectors))

	// Existing Technology exposure 15400 + trade 10000 = 25.4% > 25% -> High.
	a, err := s.AssessTradeRisk("TCS", 100, decimal.NewFromInt(100), portfolio.SideBuy, portfolio.TypeIntraday)
	require.NoError(t, err)
	assert.Equal(t, High, a.SectorConcentrationRisk)

	// Banking trade: 20000 + 1000 = 21% -> Medium.
	a, err = s.AssessTradeRisk("HDFC", 10, decimal.NewFromInt(100), portfolio.SideBuy, portfolio.TypeIntraday)
	require.NoError(t, err)
	assert.Equal(t, Medium, a.SectorConcentrationRisk)
}

func TestSectorExposureZeroWithStubMapping(t *testing.T) {
	t.Parallel()

	view := fakeView{
		holdings: []portfolio.Holding{holding("INFY", 100, 1500, 1500)},
		cash:     decimal.NewFromInt(850000), // total 1000000
	}
	s := NewScorer(DefaultConfig(), view, zap.NewNop())

	// The stub maps no holdings, so only the trade's own value counts:
	// 10000 / 1000000 = 1% -> Low even though every symbol says "Technology".
	a, err := s.AssessTradeRisk("TCS", 100, decimal.NewFromInt(100), portfolio.SideBuy, portfolio.TypeIntraday)
	require.NoError(t, err)
	assert.Equal(t, Low, a.SectorConcentrationRisk)
}

func TestDailyLossRiskSides(t *testing.T) {
	t.Parallel()

	// Holdings carry a -4900 aggregate P&L.
	view := fakeView{
		holdings: []portfolio.Holding{holding("TCS", 49, 3300, 3200)},
		cash:     decimal.NewFromInt(10000000),
	}
	s := NewScorer(DefaultConfig(), view, zap.NewNop())

	// Buy adds 2% of 15000 = 300 modeled loss: |-5200| > 5000 -> High.
	a, err := s.AssessTradeRisk("INFY", 10, decimal.NewFromInt(1500), portfolio.SideBuy, portfolio.TypeIntraday)
	require.NoError(t, err)
	assert.Equal(t, High, a.DailyLossRisk)

	// Sell models no incremental loss: |-4900| <= 5000 -> Medium.
	a, err = s.AssessTradeRisk("TCS", 10, decimal.NewFromInt(3200), portfolio.SideSell, portfolio.TypeIntraday)
	require.NoError(t, err)
	assert.Equal(t, Medium, a.DailyLossRisk)
}

func TestZeroPortfolioBucketsHighWithoutFaulting(t *testing.T) {
	t.Parallel()

	view := fakeView{cash: decimal.Zero}
	s := NewScorer(DefaultConfig(), view, zap.NewNop())

	a, err := s.AssessTradeRisk("INFY", 1, decimal.NewFromInt(100), portfolio.SideBuy, portfolio.TypeIntraday)
	require.NoError(t, err)
	assert.Equal(t, High, a.PositionSizeRisk)
	assert.Equal(t, High, a.SectorConcentrationRisk)

	m := s.Metrics()
	assert.True(t, m.TotalPortfolioValue.IsZero())
	assert.True(t, m.CashPct.IsZero())
	assert.True(t, m.LargestPositionPct.IsZero())
}

func TestAssessValidation(t *testing.T) {
	t.Parallel()

	s := NewScorer(DefaultConfig(), fakeView{cash: decimal.NewFromInt(1000)}, zap.NewNop())

	_, err := s.AssessTradeRisk("INFY", 0, decimal.NewFromInt(100), portfolio.SideBuy, portfolio.TypeIntraday)
	assert.ErrorIs(t, err, portfolio.ErrInvalidQuantity)

	_, err = s.AssessTradeRisk("INFY", 1, decimal.Zero, portfolio.SideBuy, portfolio.TypeIntraday)
	assert.ErrorIs(t, err, portfolio.ErrInvalidPrice)

	_, err = s.AssessTradeRisk("INFY", 1, decimal.NewFromInt(100), portfolio.Side("hold"), portfolio.TypeIntraday)
	assert.ErrorIs(t, err, portfolio.ErrUnknownSide)
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	view := fakeView{
		holdings: []portfolio.Holding{
			holding("INFY", 10, 1500, 1540), // value 15400, pnl +400
			holding("TCS", 5, 3200, 3100),   // value 15500, pnl -500
		},
		cash: decimal.NewFromInt(100000),
	}
	sectors := mappedSectors{"INFY": "Technology", "TCS": "Technology"}
	s := NewScorer(DefaultConfig(), view, zap.NewNop(), WithSectors(sectors))

	m := s.Metrics()
	assert.True(t, m.TotalPortfolioValue.Equal(decimal.NewFromInt(130900)))
	assert.Equal(t, 2, m.Positions)
	assert.True(t, m.CurrentDrawdown.Equal(decimal.NewFromInt(500)))
	assert.True(t, m.DailyPnL.Equal(decimal.NewFromInt(-100)))
	assert.True(t, m.LargestPositionPct.Equal(decimal.NewFromInt(15500).Div(decimal.NewFromInt(130900))))
	assert.True(t, m.SectorExposures["Technology"].Equal(decimal.NewFromInt(30900)))
}

func TestValidateHelpers(t *testing.T) {
	t.Parallel()

	view := fakeView{
		holdings: []portfolio.Holding{holding("TCS", 10, 3300, 3200)}, // pnl -1000
		cash:     decimal.NewFromInt(68000),                           // total 100000
	}
	s := NewScorer(DefaultConfig(), view, zap.NewNop())

	assert.True(t, s.ValidatePositionSize("INFY", 10, decimal.NewFromInt(100)))
	assert.False(t, s.ValidatePositionSize("INFY", 100, decimal.NewFromInt(100)), "10% breaches the 5% limit")

	assert.True(t, s.ValidateDrawdown(decimal.NewFromInt(5000)))
	assert.False(t, s.ValidateDrawdown(decimal.NewFromInt(9500)))

	size := s.PositionSize(decimal.NewFromInt(100000))
	assert.True(t, size.Equal(decimal.NewFromInt(2000)))

	capped := s.PositionSize(decimal.NewFromInt(10000000))
	assert.True(t, capped.Equal(decimal.NewFromInt(50000)))
}
