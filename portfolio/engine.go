package portfolio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rustyeddy/tradegate/journal"
	"github.com/rustyeddy/tradegate/pkg/id"
)

// Validation faults. These are rejected before any state or audit write and
// are distinct from denials, which are ordinary Decision values.
var (
	ErrInvalidQuantity  = errors.New("quantity must be positive")
	ErrInvalidPrice     = errors.New("price must be positive")
	ErrUnknownTradeType = errors.New("unknown trade type")
	ErrUnknownSide      = errors.New("unknown side")
)

// Settings are the admission limits. Owned by process startup and read-only
// once the engine is constructed.
type Settings struct {
	EnableAutoBuy      bool
	EnableAutoSell     bool
	SignalOnly         bool
	MaxDailyBuyAmount  decimal.Decimal
	MaxDailySellAmount decimal.Decimal
	MaxDailyTrades     int
	EnabledTradeTypes  TradeType

	// Location is the reference timezone for all daily accounting.
	Location *time.Location
}

// Decision is the outcome of an admission check. A denial is a normal result,
// not an error; Reason says which limit failed.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func allowed() Decision             { return Decision{Allowed: true} }
func denied(reason string) Decision { return Decision{Reason: reason} }

// Engine gates trades against daily limits, holdings and cash, and owns the
// ledger they mutate. Every operation runs under one mutex so an admission
// check and the apply that follows it can never interleave with another
// caller's reads or writes of the same totals.
type Engine struct {
	mu       sync.Mutex
	settings Settings
	holdings []*Holding
	cash     decimal.Decimal
	journal  journal.Journal
	log      *zap.Logger

	now func() time.Time // overridable in tests
}

// NewEngine builds an engine over the given journal. The seed holdings and
// cash become the initial ledger; today's statistics record is created
// immediately if absent so later reads never race its creation.
func NewEngine(settings Settings, seed []Holding, cash decimal.Decimal, j journal.Journal, log *zap.Logger) (*Engine, error) {
	if settings.Location == nil {
		return nil, errors.New("portfolio: settings.Location is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		settings: settings,
		cash:     cash,
		journal:  j,
		log:      log,
		now:      time.Now,
	}
	for i := range seed {
		h := seed[i]
		e.holdings = append(e.holdings, &h)
	}
	if _, err := e.todayStatsLocked(); err != nil {
		return nil, fmt.Errorf("ensure today stats: %w", err)
	}
	return e, nil
}

func (e *Engine) today() string {
	return e.now().In(e.settings.Location).Format(journal.DateFormat)
}

// todayStatsLocked returns today's record, lazily creating a zeroed one the
// first time a new day is touched.
func (e *Engine) todayStatsLocked() (journal.DailyStats, error) {
	date := e.today()
	s, err := e.journal.DailyStats(date)
	if errors.Is(err, journal.ErrNoStats) {
		s = journal.NewDailyStats(date)
		if err := e.journal.UpsertDailyStats(s); err != nil {
			return journal.DailyStats{}, err
		}
		return s, nil
	}
	return s, err
}

func (e *Engine) auditLocked(decision, reason, symbol string, qty int64, price decimal.Decimal, tt TradeType, isBuy bool, user string) error {
	return e.journal.AppendAudit(journal.AuditEntry{
		ID:        id.New(),
		Timestamp: e.now().UTC(),
		Symbol:    symbol,
		Quantity:  qty,
		Price:     price,
		TradeType: tt.String(),
		IsBuy:     isBuy,
		Decision:  decision,
		Reason:    reason,
		User:      user,
	})
}

func (e *Engine) denyLocked(reason, symbol string, qty int64, price decimal.Decimal, tt TradeType, isBuy bool, user string) (Decision, error) {
	if err := e.auditLocked("Blocked", reason, symbol, qty, price, tt, isBuy, user); err != nil {
		return Decision{}, err
	}
	return denied(reason), nil
}

func (e *Engine) findLocked(symbol string) (int, *Holding) {
	for i, h := range e.holdings {
		if h.Symbol == symbol {
			return i, h
		}
	}
	return -1, nil
}

// CanBuy evaluates the buy-side admission checks in a fixed order and
// short-circuits on the first failure. Every outcome, allowed or denied,
// appends exactly one audit entry.
func (e *Engine) CanBuy(symbol string, quantity int64, price decimal.Decimal, tt TradeType, user string) (Decision, error) {
	if quantity <= 0 {
		return Decision{}, ErrInvalidQuantity
	}
	if price.Sign() <= 0 {
		return Decision{}, ErrInvalidPrice
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.canBuyLocked(symbol, quantity, price, tt, user)
}

func (e *Engine) canBuyLocked(symbol string, quantity int64, price decimal.Decimal, tt TradeType, user string) (Decision, error) {
	stats, err := e.todayStatsLocked()
	if err != nil {
		return Decision{}, err
	}

	if e.settings.SignalOnly {
		return e.denyLocked("Signal-only mode enabled.", symbol, quantity, price, tt, true, user)
	}
	if !e.settings.EnableAutoBuy {
		return e.denyLocked("Auto-buy disabled in config.", symbol, quantity, price, tt, true, user)
	}
	if !tt.Matches(e.settings.EnabledTradeTypes) {
		return e.denyLocked("Trade type not enabled in config.", symbol, quantity, price, tt, true, user)
	}

	cost := price.Mul(decimal.NewFromInt(quantity))
	if cost.GreaterThan(e.cash) {
		return e.denyLocked("Insufficient cash for buy.", symbol, quantity, price, tt, true, user)
	}
	if stats.BuyAmount.Add(cost).GreaterThan(e.settings.MaxDailyBuyAmount) {
		return e.denyLocked("Max daily buy amount exceeded.", symbol, quantity, price, tt, true, user)
	}
	if stats.TradeCount+1 > e.settings.MaxDailyTrades {
		return e.denyLocked("Max daily trades exceeded.", symbol, quantity, price, tt, true, user)
	}

	if err := e.auditLocked("Allowed", "", symbol, quantity, price, tt, true, user); err != nil {
		return Decision{}, err
	}
	return allowed(), nil
}

// CanSell evaluates the sell-side checks. The sale is valued at the holding's
// last traded price, never a caller-supplied one.
func (e *Engine) CanSell(symbol string, quantity int64, tt TradeType, user string) (Decision, error) {
	if quantity <= 0 {
		return Decision{}, ErrInvalidQuantity
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.canSellLocked(symbol, quantity, tt, user)
}

func (e *Engine) canSellLocked(symbol string, quantity int64, tt TradeType, user string) (Decision, error) {
	stats, err := e.todayStatsLocked()
	if err != nil {
		return Decision{}, err
	}

	if e.settings.SignalOnly {
		return e.denyLocked("Signal-only mode enabled.", symbol, quantity, decimal.Zero, tt, false, user)
	}
	if !e.settings.EnableAutoSell {
		return e.denyLocked("Auto-sell disabled in config.", symbol, quantity, decimal.Zero, tt, false, user)
	}
	if !tt.Matches(e.settings.EnabledTradeTypes) {
		return e.denyLocked("Trade type not enabled in config.", symbol, quantity, decimal.Zero, tt, false, user)
	}

	_, h := e.findLocked(symbol)
	if h == nil || h.Quantity < quantity {
		return e.denyLocked("Insufficient holdings for sell.", symbol, quantity, decimal.Zero, tt, false, user)
	}

	sellValue := h.LastTradedPrice.Mul(decimal.NewFromInt(quantity))
	if stats.SellAmount.Add(sellValue).GreaterThan(e.settings.MaxDailySellAmount) {
		return e.denyLocked("Max daily sell amount exceeded.", symbol, quantity, h.LastTradedPrice, tt, false, user)
	}
	if stats.TradeCount+1 > e.settings.MaxDailyTrades {
		return e.denyLocked("Max daily trades exceeded.", symbol, quantity, h.LastTradedPrice, tt, false, user)
	}

	if err := e.auditLocked("Allowed", "", symbol, quantity, h.LastTradedPrice, tt, false, user); err != nil {
		return Decision{}, err
	}
	return allowed(), nil
}

// ApplyTrade unconditionally commits an already-accepted trade. The caller is
// responsible for having obtained an allowed Decision first; no checks are
// re-run here. The statistics write is persisted before the in-memory ledger
// mutation so a journal failure leaves no partial state behind.
func (e *Engine) ApplyTrade(symbol string, quantity int64, price decimal.Decimal, tt TradeType, isBuy bool, user string) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if price.Sign() <= 0 {
		return ErrInvalidPrice
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.applyLocked(symbol, quantity, price, tt, isBuy, user)
}

func (e *Engine) applyLocked(symbol string, quantity int64, price decimal.Decimal, tt TradeType, isBuy bool, user string) error {
	stats, err := e.todayStatsLocked()
	if err != nil {
		return err
	}

	amount := price.Mul(decimal.NewFromInt(quantity))
	stats.TradeCount++
	if isBuy {
		stats.BuyAmount = stats.BuyAmount.Add(amount)
	} else {
		stats.SellAmount = stats.SellAmount.Add(amount)
	}
	if err := e.journal.UpsertDailyStats(stats); err != nil {
		return fmt.Errorf("persist stats: %w", err)
	}

	now := e.now()
	if isBuy {
		e.cash = e.cash.Sub(amount)
		_, h := e.findLocked(symbol)
		if h == nil {
			e.holdings = append(e.holdings, &Holding{
				Symbol:          symbol,
				Quantity:        quantity,
				AveragePrice:    price,
				LastTradedPrice: price,
				LastUpdated:     now,
			})
		} else {
			totalCost := h.AveragePrice.Mul(decimal.NewFromInt(h.Quantity)).Add(amount)
			h.Quantity += quantity
			h.AveragePrice = totalCost.Div(decimal.NewFromInt(h.Quantity))
			h.LastTradedPrice = price
			h.LastUpdated = now
		}
		e.log.Info("applied buy",
			zap.String("symbol", symbol),
			zap.Int64("quantity", quantity),
			zap.String("price", price.String()),
			zap.String("user", user))
		return nil
	}

	e.cash = e.cash.Add(amount)
	if i, h := e.findLocked(symbol); h != nil {
		h.Quantity -= quantity
		h.LastTradedPrice = price
		h.LastUpdated = now
		if h.Quantity <= 0 {
			e.holdings = append(e.holdings[:i], e.holdings[i+1:]...)
		}
	}
	e.log.Info("applied sell",
		zap.String("symbol", symbol),
		zap.Int64("quantity", quantity),
		zap.String("price", price.String()),
		zap.String("user", user))
	return nil
}

// ExecuteBuy runs the check, an optional order placement, and the apply as one
// critical section, so concurrent buys can never both pass a cap that only one
// of them fits under. place may be nil when there is no external order to send;
// a placement failure aborts before anything is applied.
func (e *Engine) ExecuteBuy(ctx context.Context, symbol string, quantity int64, price decimal.Decimal, tt TradeType, user string, place func(ctx context.Context) (string, error)) (Decision, string, error) {
	if quantity <= 0 {
		return Decision{}, "", ErrInvalidQuantity
	}
	if price.Sign() <= 0 {
		return Decision{}, "", ErrInvalidPrice
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	d, err := e.canBuyLocked(symbol, quantity, price, tt, user)
	if err != nil || !d.Allowed {
		return d, "", err
	}

	var orderID string
	if place != nil {
		if orderID, err = place(ctx); err != nil {
			return d, "", fmt.Errorf("place order: %w", err)
		}
	}
	if err := e.applyLocked(symbol, quantity, price, tt, true, user); err != nil {
		return d, orderID, err
	}
	return d, orderID, nil
}

// ExecuteSell is the sell-side counterpart of ExecuteBuy. The placement
// callback receives the valuation price taken from the holding.
func (e *Engine) ExecuteSell(ctx context.Context, symbol string, quantity int64, tt TradeType, user string, place func(ctx context.Context, price decimal.Decimal) (string, error)) (Decision, string, error) {
	if quantity <= 0 {
		return Decision{}, "", ErrInvalidQuantity
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	d, err := e.canSellLocked(symbol, quantity, tt, user)
	if err != nil || !d.Allowed {
		return d, "", err
	}

	_, h := e.findLocked(symbol)
	price := h.LastTradedPrice

	var orderID string
	if place != nil {
		if orderID, err = place(ctx, price); err != nil {
			return d, "", fmt.Errorf("place order: %w", err)
		}
	}
	if err := e.applyLocked(symbol, quantity, price, tt, false, user); err != nil {
		return d, orderID, err
	}
	return d, orderID, nil
}

// DailyTradeStats returns a snapshot of today's cumulative totals.
func (e *Engine) DailyTradeStats() (journal.DailyStats, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.todayStatsLocked()
}

// ResetDailyLimits zeroes today's totals in place and records a "Reset" audit
// entry. Calling it again the same day is a no-op on the stored values.
func (e *Engine) ResetDailyLimits(user string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats := journal.NewDailyStats(e.today())
	if err := e.journal.UpsertDailyStats(stats); err != nil {
		return fmt.Errorf("reset stats: %w", err)
	}
	if err := e.auditLocked("Reset", "Manual or scheduled reset", "", 0, decimal.Zero, TypeNone, false, user); err != nil {
		return err
	}
	e.log.Info("daily limits reset", zap.String("user", user), zap.String("date", stats.Date))
	return nil
}

// Portfolio returns a copy of the holdings so callers never observe a partial
// mutation mid-iteration.
func (e *Engine) Portfolio() []Holding {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Holding, 0, len(e.holdings))
	for _, h := range e.holdings {
		out = append(out, *h)
	}
	return out
}

// CashBalance returns the current cash balance.
func (e *Engine) CashBalance() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cash
}

// Settings returns the engine's admission limits.
func (e *Engine) Settings() Settings {
	return e.settings
}
