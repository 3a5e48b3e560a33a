package platform

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is the latest price snapshot for a symbol.
type Quote struct {
	Symbol       string          `json:"symbol"`
	Price        decimal.Decimal `json:"price"`
	Change24h    decimal.Decimal `json:"change_24h"`
	ChangePct24h decimal.Decimal `json:"change_pct_24h"`
	High24h      decimal.Decimal `json:"high_24h"`
	Low24h       decimal.Decimal `json:"low_24h"`
	Volume24h    decimal.Decimal `json:"volume_24h"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// WatchlistEntry is a symbol on the user's watchlist.
type WatchlistEntry struct {
	Symbol       string          `json:"symbol"`
	Price        decimal.Decimal `json:"price"`
	ChangePct24h decimal.Decimal `json:"change_pct_24h"`
	AddedAt      time.Time       `json:"added_at"`
}

// Trade is an executed or pending order fill.
type Trade struct {
	ID         string          `json:"id"`
	Symbol     string          `json:"symbol"`
	Side       string          `json:"side"`
	Quantity   decimal.Decimal `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Fee        decimal.Decimal `json:"fee"`
	Status     string          `json:"status"`
	StrategyID string          `json:"strategy_id,omitempty"`
	ExecutedAt time.Time       `json:"executed_at"`
}

// Notional returns quantity times price.
func (t Trade) Notional() decimal.Decimal {
	return t.Quantity.Mul(t.Price)
}

// PortfolioSummary aggregates account value and P&L.
type PortfolioSummary struct {
	Currency      string          `json:"currency"`
	TotalValue    decimal.Decimal `json:"total_value"`
	Cash          decimal.Decimal `json:"cash"`
	InvestedValue decimal.Decimal `json:"invested_value"`
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"`
	RealizedPnL   decimal.Decimal `json:"realized_pnl"`
	DayChange     decimal.Decimal `json:"day_change"`
	DayChangePct  decimal.Decimal `json:"day_change_pct"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Holding is one open position.
type Holding struct {
	Symbol           string          `json:"symbol"`
	Quantity         decimal.Decimal `json:"quantity"`
	AverageCost      decimal.Decimal `json:"average_cost"`
	Price            decimal.Decimal `json:"price"`
	MarketValue      decimal.Decimal `json:"market_value"`
	UnrealizedPnL    decimal.Decimal `json:"unrealized_pnl"`
	UnrealizedPnLPct decimal.Decimal `json:"unrealized_pnl_pct"`
	AllocationPct    decimal.Decimal `json:"allocation_pct"`
}

// Signal is a trading signal emitted by a platform strategy.
type Signal struct {
	ID         string          `json:"id"`
	Symbol     string          `json:"symbol"`
	Strategy   string          `json:"strategy"`
	Direction  string          `json:"direction"`
	Confidence float64         `json:"confidence"`
	Price      decimal.Decimal `json:"price"`
	Target     decimal.Decimal `json:"target"`
	StopLoss   decimal.Decimal `json:"stop_loss"`
	Reason     string          `json:"reason"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Event is a market event (listing, earnings, halt, whale transfer, ...).
type Event struct {
	ID         string    `json:"id"`
	Symbol     string    `json:"symbol"`
	Type       string    `json:"type"`
	Severity   string    `json:"severity"`
	Title      string    `json:"title"`
	Source     string    `json:"source"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Candle is one OHLCV bar.
type Candle struct {
	Time   time.Time       `json:"time"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume decimal.Decimal `json:"volume"`
}

// Indicator is a computed technical indicator for a symbol.
type Indicator struct {
	Name     string             `json:"name"`
	Interval string             `json:"interval"`
	Values   map[string]float64 `json:"values"`
	Signal   string             `json:"signal"`
	AsOf     time.Time          `json:"as_of"`
}

// Strategy describes a platform trading strategy.
type Strategy struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Timeframe   string    `json:"timeframe"`
	Active      bool      `json:"active"`
	Symbols     []string  `json:"symbols"`
	CreatedAt   time.Time `json:"created_at"`
}

// Activation is the result of activating or deactivating a strategy on a symbol.
type Activation struct {
	StrategyID string `json:"strategy_id"`
	Symbol     string `json:"symbol"`
	Active     bool   `json:"active"`
	Status     string `json:"status"`
}

// BacktestRequest starts a backtest.
type BacktestRequest struct {
	StrategyID     string          `json:"strategy_id"`
	Symbol         string          `json:"symbol"`
	Interval       string          `json:"interval,omitempty"`
	Start          string          `json:"start,omitempty"`
	End            string          `json:"end,omitempty"`
	InitialCapital decimal.Decimal `json:"initial_capital"`
}

// Backtest is a backtest run and, once finished, its results.
type Backtest struct {
	ID             string          `json:"id"`
	StrategyID     string          `json:"strategy_id"`
	Symbol         string          `json:"symbol"`
	Status         string          `json:"status"`
	Start          string          `json:"start"`
	End            string          `json:"end"`
	InitialCapital decimal.Decimal `json:"initial_capital"`
	FinalValue     decimal.Decimal `json:"final_value"`
	TotalReturnPct decimal.Decimal `json:"total_return_pct"`
	MaxDrawdownPct decimal.Decimal `json:"max_drawdown_pct"`
	SharpeRatio    float64         `json:"sharpe_ratio"`
	WinRate        float64         `json:"win_rate"`
	TradeCount     int             `json:"trade_count"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Account identifies the owner of an API key.
type Account struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Plan  string `json:"plan"`
}
