package risk

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rustyeddy/tradegate/portfolio"
)

// Level buckets a sub-assessment.
type Level int

const (
	Low Level = iota
	Medium
	High
)

func (l Level) String() string {
	switch l {
	case Low:
		return "Low"
	case Medium:
		return "Medium"
	case High:
		return "High"
	}
	return "Unknown"
}

// MarshalText renders the bucket name into JSON responses.
func (l Level) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// score maps a bucket to its fixed numeric weight.
func (l Level) score() float64 {
	switch l {
	case Low:
		return 0.2
	case High:
		return 0.8
	default:
		return 0.5
	}
}

// View is the read surface the scorer needs from the ledger. Snapshots are
// taken under the engine lock by the implementation; the scorer itself never
// locks, so its output can be briefly stale. That is fine: the assessment is
// advisory and does not gate or mutate anything by itself.
type View interface {
	Portfolio() []portfolio.Holding
	CashBalance() decimal.Decimal
}

// SectorSource maps a symbol to its sector. The second result reports whether
// the symbol is actually mapped; unmapped symbols contribute nothing to
// exposure sums.
type SectorSource interface {
	Sector(symbol string) (string, bool)
}

// MarketData supplies volatility and liquidity buckets when a price-history or
// volume feed exists. The stub implementation reproduces the placeholder
// behavior: volatility is always Medium, liquidity only distinguishes small
// orders from large ones.
type MarketData interface {
	VolatilityRisk(symbol string) Level
	LiquidityRisk(symbol string, quantity int64) Level
}

// StubSectors is the default SectorSource: every symbol nominally belongs to
// "Technology" but none is considered mapped, so sector exposure stays zero.
type StubSectors struct{}

func (StubSectors) Sector(string) (string, bool) { return "Technology", false }

// StubMarketData is the default MarketData placeholder.
type StubMarketData struct{}

func (StubMarketData) VolatilityRisk(string) Level { return Medium }

func (StubMarketData) LiquidityRisk(_ string, quantity int64) Level {
	if quantity <= 1000 {
		return Low
	}
	return Medium
}

// Assessment is the ephemeral result of one risk evaluation.
type Assessment struct {
	Symbol    string              `json:"symbol"`
	Quantity  int64               `json:"quantity"`
	Price     decimal.Decimal     `json:"price"`
	Side      portfolio.Side      `json:"side"`
	TradeType portfolio.TradeType `json:"-"`

	PositionSizeRisk        Level `json:"position_size_risk"`
	SectorConcentrationRisk Level `json:"sector_concentration_risk"`
	DailyLossRisk           Level `json:"daily_loss_risk"`
	VolatilityRisk          Level `json:"volatility_risk"`
	LiquidityRisk           Level `json:"liquidity_risk"`

	OverallRiskScore float64   `json:"overall_risk_score"`
	IsTradeAllowed   bool      `json:"is_trade_allowed"`
	Reason           string    `json:"reason,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// Metrics is a point-in-time view of portfolio risk.
type Metrics struct {
	TotalPortfolioValue decimal.Decimal            `json:"total_portfolio_value"`
	CashPct             decimal.Decimal            `json:"cash_pct"`
	Positions           int                        `json:"positions"`
	LargestPositionPct  decimal.Decimal            `json:"largest_position_pct"`
	CurrentDrawdown     decimal.Decimal            `json:"current_drawdown"`
	DailyPnL            decimal.Decimal            `json:"daily_pnl"`
	SectorExposures     map[string]decimal.Decimal `json:"sector_exposures"`
	Timestamp           time.Time                  `json:"timestamp"`
}

// Scorer derives a composite 0-1 risk score from portfolio composition.
type Scorer struct {
	cfg     Config
	view    View
	sectors SectorSource
	market  MarketData
	log     *zap.Logger

	now func() time.Time
}

// Option customizes a Scorer.
type Option func(*Scorer)

// WithSectors installs a real sector mapping.
func WithSectors(s SectorSource) Option { return func(sc *Scorer) { sc.sectors = s } }

// WithMarketData installs a real volatility/volume feed.
func WithMarketData(m MarketData) Option { return func(sc *Scorer) { sc.market = m } }

func NewScorer(cfg Config, view View, log *zap.Logger, opts ...Option) *Scorer {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Scorer{
		cfg:     cfg,
		view:    view,
		sectors: StubSectors{},
		market:  StubMarketData{},
		log:     log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AssessTradeRisk computes the five bucketed sub-assessments and their
// weighted composite for a proposed trade. It reads ledger snapshots only and
// never blocks a trade itself; callers combine the result with the admission
// decision as they see fit.
func (s *Scorer) AssessTradeRisk(symbol string, quantity int64, price decimal.Decimal, side portfolio.Side, tt portfolio.TradeType) (Assessment, error) {
	if quantity <= 0 {
		return Assessment{}, portfolio.ErrInvalidQuantity
	}
	if price.Sign() <= 0 {
		return Assessment{}, portfolio.ErrInvalidPrice
	}
	if side != portfolio.SideBuy && side != portfolio.SideSell {
		return Assessment{}, portfolio.ErrUnknownSide
	}

	a := Assessment{
		Symbol:    symbol,
		Quantity:  quantity,
		Price:     price,
		Side:      side,
		TradeType: tt,
		Timestamp: s.now().UTC(),
	}

	tradeValue := price.Mul(decimal.NewFromInt(quantity))
	holdings := s.view.Portfolio()
	totalValue := s.totalValue(holdings)

	a.PositionSizeRisk = s.positionSizeRisk(tradeValue, totalValue)
	a.SectorConcentrationRisk = s.sectorRisk(symbol, tradeValue, holdings, totalValue)
	a.DailyLossRisk = s.dailyLossRisk(tradeValue, side, holdings)
	a.VolatilityRisk = s.market.VolatilityRisk(symbol)
	a.LiquidityRisk = s.market.LiquidityRisk(symbol, quantity)

	a.OverallRiskScore = a.PositionSizeRisk.score()*s.cfg.PositionSizeWeight +
		a.SectorConcentrationRisk.score()*s.cfg.SectorConcentrationWeight +
		a.DailyLossRisk.score()*s.cfg.DailyLossWeight +
		a.VolatilityRisk.score()*s.cfg.VolatilityWeight +
		a.LiquidityRisk.score()*s.cfg.LiquidityWeight

	a.IsTradeAllowed = a.OverallRiskScore <= s.cfg.MaxRiskScore
	if !a.IsTradeAllowed {
		a.Reason = "Overall risk score exceeds configured maximum."
	}

	s.log.Info("risk assessment",
		zap.String("symbol", symbol),
		zap.Float64("score", a.OverallRiskScore),
		zap.Bool("allowed", a.IsTradeAllowed))

	return a, nil
}

// Metrics returns the point-in-time portfolio risk snapshot. With a zero-value
// portfolio the percentage fields report zero rather than dividing by zero.
func (s *Scorer) Metrics() Metrics {
	holdings := s.view.Portfolio()
	cash := s.view.CashBalance()
	total := s.totalValueWith(holdings, cash)

	m := Metrics{
		TotalPortfolioValue: total,
		CashPct:             decimal.Zero,
		Positions:           len(holdings),
		LargestPositionPct:  decimal.Zero,
		CurrentDrawdown:     drawdown(holdings),
		DailyPnL:            aggregatePnL(holdings),
		SectorExposures:     s.sectorExposures(holdings),
		Timestamp:           s.now().UTC(),
	}

	if total.Sign() > 0 {
		m.CashPct = cash.Div(total)
		var largest decimal.Decimal
		for _, h := range holdings {
			if v := h.CurrentValue(); v.GreaterThan(largest) {
				largest = v
			}
		}
		m.LargestPositionPct = largest.Div(total)
	}
	return m
}

// ValidatePositionSize reports whether a trade stays inside both the relative
// and absolute position-size limits.
func (s *Scorer) ValidatePositionSize(symbol string, quantity int64, price decimal.Decimal) bool {
	tradeValue := price.Mul(decimal.NewFromInt(quantity))
	total := s.totalValue(s.view.Portfolio())
	if total.Sign() <= 0 {
		return false
	}
	if tradeValue.Div(total).GreaterThan(s.cfg.MaxPositionSizePct) {
		s.log.Warn("position size over relative limit", zap.String("symbol", symbol))
		return false
	}
	if tradeValue.GreaterThan(s.cfg.MaxPositionSizeAbsolute) {
		s.log.Warn("position size over absolute limit", zap.String("symbol", symbol))
		return false
	}
	return true
}

// ValidateDrawdown reports whether taking the given potential loss keeps the
// portfolio inside the configured drawdown cap.
func (s *Scorer) ValidateDrawdown(potentialLoss decimal.Decimal) bool {
	return drawdown(s.view.Portfolio()).Add(potentialLoss).LessThanOrEqual(s.cfg.MaxDrawdownAmount)
}

// PositionSize suggests a position budget as a fixed fraction of available
// capital, capped by the absolute limit.
func (s *Scorer) PositionSize(availableCapital decimal.Decimal) decimal.Decimal {
	size := availableCapital.Mul(s.cfg.PositionSizePct)
	if size.GreaterThan(s.cfg.MaxPositionSizeAbsolute) {
		return s.cfg.MaxPositionSizeAbsolute
	}
	return size
}

func (s *Scorer) totalValue(holdings []portfolio.Holding) decimal.Decimal {
	return s.totalValueWith(holdings, s.view.CashBalance())
}

func (s *Scorer) totalValueWith(holdings []portfolio.Holding, cash decimal.Decimal) decimal.Decimal {
	total := cash
	for _, h := range holdings {
		total = total.Add(h.CurrentValue())
	}
	return total
}

// positionSizeRisk buckets trade value as a fraction of total portfolio
// value. A zero-value portfolio buckets High: any trade would be the whole
// book.
func (s *Scorer) positionSizeRisk(tradeValue, totalValue decimal.Decimal) Level {
	if totalValue.Sign() <= 0 {
		return High
	}
	pct := tradeValue.Div(totalValue)
	switch {
	case pct.LessThanOrEqual(s.cfg.LowRiskPositionPct):
		return Low
	case pct.LessThanOrEqual(s.cfg.MediumRiskPositionPct):
		return Medium
	default:
		return High
	}
}

func (s *Scorer) sectorRisk(symbol string, tradeValue decimal.Decimal, holdings []portfolio.Holding, totalValue decimal.Decimal) Level {
	if totalValue.Sign() <= 0 {
		return High
	}
	sector, _ := s.sectors.Sector(symbol)
	exposure := s.sectorExposure(sector, holdings).Add(tradeValue).Div(totalValue)
	switch {
	case exposure.LessThanOrEqual(s.cfg.LowRiskSectorPct):
		return Low
	case exposure.LessThanOrEqual(s.cfg.MediumRiskSectorPct):
		return Medium
	default:
		return High
	}
}

// dailyLossRisk models the loss a buy could take (a configured fraction of
// trade value) against today's aggregate P&L. Sells add no modeled loss.
func (s *Scorer) dailyLossRisk(tradeValue decimal.Decimal, side portfolio.Side, holdings []portfolio.Holding) Level {
	potentialLoss := decimal.Zero
	if side == portfolio.SideBuy {
		potentialLoss = tradeValue.Mul(s.cfg.MaxDailyLossPct)
	}
	projected := aggregatePnL(holdings).Sub(potentialLoss).Abs()
	switch {
	case projected.LessThanOrEqual(s.cfg.LowRiskDailyLossAmount):
		return Low
	case projected.LessThanOrEqual(s.cfg.MediumRiskDailyLossAmount):
		return Medium
	default:
		return High
	}
}

func (s *Scorer) sectorExposure(sector string, holdings []portfolio.Holding) decimal.Decimal {
	exposure := decimal.Zero
	for _, h := range holdings {
		if hs, ok := s.sectors.Sector(h.Symbol); ok && hs == sector {
			exposure = exposure.Add(h.CurrentValue())
		}
	}
	return exposure
}

func (s *Scorer) sectorExposures(holdings []portfolio.Holding) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, h := range holdings {
		if sector, ok := s.sectors.Sector(h.Symbol); ok {
			out[sector] = out[sector].Add(h.CurrentValue())
		}
	}
	return out
}

func drawdown(holdings []portfolio.Holding) decimal.Decimal {
	dd := decimal.Zero
	for _, h := range holdings {
		if pnl := h.UnrealizedPnL(); pnl.Sign() < 0 {
			dd = dd.Add(pnl.Abs())
		}
	}
	return dd
}

func aggregatePnL(holdings []portfolio.Holding) decimal.Decimal {
	total := decimal.Zero
	for _, h := range holdings {
		total = total.Add(h.UnrealizedPnL())
	}
	return total
}
