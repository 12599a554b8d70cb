package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/tradegate/broker/kite"
	"github.com/rustyeddy/tradegate/portfolio"
	"github.com/rustyeddy/tradegate/risk"
)

// Config is the complete service configuration. It is loaded once at startup
// and handed down read-only; nothing reads it through a global.
type Config struct {
	Server    ServerConfig    `json:"server" yaml:"server"`
	Trade     TradeConfig     `json:"trade" yaml:"trade"`
	Risk      RiskConfig      `json:"risk" yaml:"risk"`
	Journal   JournalConfig   `json:"journal" yaml:"journal"`
	Broker    BrokerConfig    `json:"broker" yaml:"broker"`
	Portfolio PortfolioConfig `json:"portfolio" yaml:"portfolio"`

	// Timezone is the reference timezone for all daily accounting.
	Timezone string `json:"timezone" yaml:"timezone" env:"TRADEGATE_TIMEZONE"`
}

type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" env:"TRADEGATE_ADDR"`
}

// TradeConfig holds the admission limits.
type TradeConfig struct {
	EnableAutoBuy      bool     `json:"enable_auto_buy" yaml:"enable_auto_buy"`
	EnableAutoSell     bool     `json:"enable_auto_sell" yaml:"enable_auto_sell"`
	EnableSignalOnly   bool     `json:"enable_signal_only" yaml:"enable_signal_only" env:"TRADEGATE_SIGNAL_ONLY"`
	MaxDailyBuyAmount  float64  `json:"max_daily_buy_amount" yaml:"max_daily_buy_amount"`
	MaxDailySellAmount float64  `json:"max_daily_sell_amount" yaml:"max_daily_sell_amount"`
	MaxDailyTrades     int      `json:"max_daily_trades" yaml:"max_daily_trades"`
	TradeTypesEnabled  []string `json:"trade_types_enabled" yaml:"trade_types_enabled"`
}

// RiskConfig holds scorer thresholds. Percentages are fractions (0.05 == 5%).
type RiskConfig struct {
	MaxRiskScore            float64 `json:"max_risk_score" yaml:"max_risk_score"`
	MaxPositionSizePct      float64 `json:"max_position_size_pct" yaml:"max_position_size_pct"`
	MaxPositionSizeAbsolute float64 `json:"max_position_size_absolute" yaml:"max_position_size_absolute"`
	MaxSectorExposurePct    float64 `json:"max_sector_exposure_pct" yaml:"max_sector_exposure_pct"`
	MaxDrawdownAmount       float64 `json:"max_drawdown_amount" yaml:"max_drawdown_amount"`
	PositionSizePct         float64 `json:"position_size_pct" yaml:"position_size_pct"`

	LowRiskPositionPct        float64 `json:"low_risk_position_pct" yaml:"low_risk_position_pct"`
	MediumRiskPositionPct     float64 `json:"medium_risk_position_pct" yaml:"medium_risk_position_pct"`
	LowRiskSectorPct          float64 `json:"low_risk_sector_pct" yaml:"low_risk_sector_pct"`
	MediumRiskSectorPct       float64 `json:"medium_risk_sector_pct" yaml:"medium_risk_sector_pct"`
	LowRiskDailyLossAmount    float64 `json:"low_risk_daily_loss_amount" yaml:"low_risk_daily_loss_amount"`
	MediumRiskDailyLossAmount float64 `json:"medium_risk_daily_loss_amount" yaml:"medium_risk_daily_loss_amount"`
	MaxDailyLossPct           float64 `json:"max_daily_loss_pct" yaml:"max_daily_loss_pct"`

	PositionSizeWeight        float64 `json:"position_size_weight" yaml:"position_size_weight"`
	SectorConcentrationWeight float64 `json:"sector_concentration_weight" yaml:"sector_concentration_weight"`
	DailyLossWeight           float64 `json:"daily_loss_weight" yaml:"daily_loss_weight"`
	VolatilityWeight          float64 `json:"volatility_weight" yaml:"volatility_weight"`
	LiquidityWeight           float64 `json:"liquidity_weight" yaml:"liquidity_weight"`
}

type JournalConfig struct {
	Type   string `json:"type" yaml:"type" env:"TRADEGATE_JOURNAL"` // "sqlite" or "memory"
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty" env:"TRADEGATE_DB_PATH"`
}

type BrokerConfig struct {
	Kind string      `json:"kind" yaml:"kind" env:"TRADEGATE_BROKER"` // "mock" or "kite"
	Kite kite.Config `json:"kite" yaml:"kite"`
}

// PortfolioConfig seeds the ledger at startup.
type PortfolioConfig struct {
	Cash float64       `json:"cash" yaml:"cash"`
	Seed []SeedHolding `json:"seed,omitempty" yaml:"seed,omitempty"`
}

type SeedHolding struct {
	Symbol          string  `json:"symbol" yaml:"symbol"`
	Quantity        int64   `json:"quantity" yaml:"quantity"`
	AveragePrice    float64 `json:"average_price" yaml:"average_price"`
	LastTradedPrice float64 `json:"last_traded_price" yaml:"last_traded_price"`
}

// LoadFromFile loads configuration from a YAML or JSON file, then applies
// environment overrides on top.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("apply env overrides: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Load returns the defaults with environment overrides applied, for running
// without a config file.
func Load() (*Config, error) {
	cfg := Default()
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("apply env overrides: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration as YAML (or JSON for a .json path).
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.HasSuffix(path, ".json") {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("unknown timezone %q: %w", c.Timezone, err)
	}
	if c.Trade.MaxDailyBuyAmount <= 0 {
		return fmt.Errorf("trade.max_daily_buy_amount must be positive")
	}
	if c.Trade.MaxDailySellAmount <= 0 {
		return fmt.Errorf("trade.max_daily_sell_amount must be positive")
	}
	if c.Trade.MaxDailyTrades <= 0 {
		return fmt.Errorf("trade.max_daily_trades must be positive")
	}
	if _, err := portfolio.ParseTradeTypes(c.Trade.TradeTypesEnabled); len(c.Trade.TradeTypesEnabled) > 0 && err != nil {
		return fmt.Errorf("trade.trade_types_enabled: %w", err)
	}
	if c.Risk.MaxRiskScore <= 0 || c.Risk.MaxRiskScore > 1 {
		return fmt.Errorf("risk.max_risk_score must be in (0, 1]")
	}
	if c.Journal.Type != "sqlite" && c.Journal.Type != "memory" {
		return fmt.Errorf("journal.type must be 'sqlite' or 'memory'")
	}
	if c.Journal.Type == "sqlite" && c.Journal.DBPath == "" {
		return fmt.Errorf("journal.db_path required for sqlite journal")
	}
	if c.Broker.Kind != "mock" && c.Broker.Kind != "kite" {
		return fmt.Errorf("broker.kind must be 'mock' or 'kite'")
	}
	if c.Broker.Kind == "kite" && (c.Broker.Kite.APIKey == "" || c.Broker.Kite.AccessToken == "") {
		return fmt.Errorf("broker.kite requires api_key and access_token")
	}
	if c.Portfolio.Cash < 0 {
		return fmt.Errorf("portfolio.cash may not be negative")
	}
	return nil
}

// Location resolves the reference timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Settings builds the engine's admission limits from the raw config.
func (c *Config) Settings() (portfolio.Settings, error) {
	loc, err := c.Location()
	if err != nil {
		return portfolio.Settings{}, err
	}
	var mask portfolio.TradeType
	if len(c.Trade.TradeTypesEnabled) > 0 {
		if mask, err = portfolio.ParseTradeTypes(c.Trade.TradeTypesEnabled); err != nil {
			return portfolio.Settings{}, err
		}
	}
	return portfolio.Settings{
		EnableAutoBuy:      c.Trade.EnableAutoBuy,
		EnableAutoSell:     c.Trade.EnableAutoSell,
		SignalOnly:         c.Trade.EnableSignalOnly,
		MaxDailyBuyAmount:  decimal.NewFromFloat(c.Trade.MaxDailyBuyAmount),
		MaxDailySellAmount: decimal.NewFromFloat(c.Trade.MaxDailySellAmount),
		MaxDailyTrades:     c.Trade.MaxDailyTrades,
		EnabledTradeTypes:  mask,
		Location:           loc,
	}, nil
}

// RiskSettings builds the scorer configuration from the raw config.
func (c *Config) RiskSettings() risk.Config {
	return risk.Config{
		MaxRiskScore:            c.Risk.MaxRiskScore,
		MaxPositionSizePct:      decimal.NewFromFloat(c.Risk.MaxPositionSizePct),
		MaxPositionSizeAbsolute: decimal.NewFromFloat(c.Risk.MaxPositionSizeAbsolute),
		MaxSectorExposurePct:    decimal.NewFromFloat(c.Risk.MaxSectorExposurePct),
		MaxDrawdownAmount:       decimal.NewFromFloat(c.Risk.MaxDrawdownAmount),
		PositionSizePct:         decimal.NewFromFloat(c.Risk.PositionSizePct),

		LowRiskPositionPct:        decimal.NewFromFloat(c.Risk.LowRiskPositionPct),
		MediumRiskPositionPct:     decimal.NewFromFloat(c.Risk.MediumRiskPositionPct),
		LowRiskSectorPct:          decimal.NewFromFloat(c.Risk.LowRiskSectorPct),
		MediumRiskSectorPct:       decimal.NewFromFloat(c.Risk.MediumRiskSectorPct),
		LowRiskDailyLossAmount:    decimal.NewFromFloat(c.Risk.LowRiskDailyLossAmount),
		MediumRiskDailyLossAmount: decimal.NewFromFloat(c.Risk.MediumRiskDailyLossAmount),
		MaxDailyLossPct:           decimal.NewFromFloat(c.Risk.MaxDailyLossPct),

		PositionSizeWeight:        c.Risk.PositionSizeWeight,
		SectorConcentrationWeight: c.Risk.SectorConcentrationWeight,
		DailyLossWeight:           c.Risk.DailyLossWeight,
		VolatilityWeight:          c.Risk.VolatilityWeight,
		LiquidityWeight:           c.Risk.LiquidityWeight,
	}
}

// SeedHoldings converts the configured seed positions into ledger holdings.
func (c *Config) SeedHoldings() []portfolio.Holding {
	now := time.Now()
	out := make([]portfolio.Holding, 0, len(c.Portfolio.Seed))
	for _, s := range c.Portfolio.Seed {
		out = append(out, portfolio.Holding{
			Symbol:          s.Symbol,
			Quantity:        s.Quantity,
			AveragePrice:    decimal.NewFromFloat(s.AveragePrice),
			LastTradedPrice: decimal.NewFromFloat(s.LastTradedPrice),
			LastUpdated:     now,
		})
	}
	return out
}

// Cash returns the configured starting cash balance.
func (c *Config) Cash() decimal.Decimal {
	return decimal.NewFromFloat(c.Portfolio.Cash)
}

// Default returns a configuration with sensible defaults: mock broker, local
// SQLite journal, IST day boundaries, and the demo seed portfolio.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Trade: TradeConfig{
			EnableAutoBuy:      true,
			EnableAutoSell:     true,
			MaxDailyBuyAmount:  50000,
			MaxDailySellAmount: 50000,
			MaxDailyTrades:     5,
			TradeTypesEnabled:  []string{"Intraday", "Swing"},
		},
		Risk: RiskConfig{
			MaxRiskScore:            0.7,
			MaxPositionSizePct:      0.05,
			MaxPositionSizeAbsolute: 50000,
			MaxSectorExposurePct:    0.25,
			MaxDrawdownAmount:       10000,
			PositionSizePct:         0.02,

			LowRiskPositionPct:        0.02,
			MediumRiskPositionPct:     0.05,
			LowRiskSectorPct:          0.15,
			MediumRiskSectorPct:       0.25,
			LowRiskDailyLossAmount:    1000,
			MediumRiskDailyLossAmount: 5000,
			MaxDailyLossPct:           0.02,

			PositionSizeWeight:        0.3,
			SectorConcentrationWeight: 0.2,
			DailyLossWeight:           0.25,
			VolatilityWeight:          0.15,
			LiquidityWeight:           0.1,
		},
		Journal: JournalConfig{Type: "sqlite", DBPath: "./tradegate.db"},
		Broker:  BrokerConfig{Kind: "mock", Kite: kite.DefaultConfig()},
		Portfolio: PortfolioConfig{
			Cash: 100000,
			Seed: []SeedHolding{
				{Symbol: "INFY", Quantity: 10, AveragePrice: 1500, LastTradedPrice: 1540},
				{Symbol: "TCS", Quantity: 5, AveragePrice: 3200, LastTradedPrice: 3225},
			},
		},
		Timezone: "Asia/Kolkata",
	}
}
