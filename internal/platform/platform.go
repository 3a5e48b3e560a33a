// Package platform exposes the market-data and trading-signals REST endpoints
// as typed calls over a resilient api.Client.
package platform

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tickerdesk/tickerdesk/internal/api"
)

const apiPrefix = "/api/v1"

// Service issues platform calls through a single api.Client.
type Service struct {
	client *api.Client
}

// New returns a service backed by client.
func New(client *api.Client) *Service {
	return &Service{client: client}
}

// Client returns the underlying request wrapper.
func (s *Service) Client() *api.Client {
	return s.client
}

// TradeFilter narrows trade history.
type TradeFilter struct {
	Symbol string
	Side   string
	Limit  int
	Since  time.Time
}

// SignalFilter narrows signal listings.
type SignalFilter struct {
	Symbol        string
	Strategy      string
	Limit         int
	MinConfidence float64
}

// EventFilter narrows event listings.
type EventFilter struct {
	Symbol string
	Type   string
	Limit  int
}

// CandleQuery selects a candle series.
type CandleQuery struct {
	Interval string
	Limit    int
}

// IndicatorQuery selects indicators for a symbol.
type IndicatorQuery struct {
	Names    []string
	Interval string
}

// VerifyCredentials checks the configured API key and returns its account.
func (s *Service) VerifyCredentials(ctx context.Context) (*Account, error) {
	var payload struct {
		Account Account `json:"account"`
	}
	if err := s.client.Get(ctx, path("auth", "verify"), nil, &payload); err != nil {
		return nil, err
	}
	return &payload.Account, nil
}

// Quotes returns the latest quotes for the given canonical symbols.
func (s *Service) Quotes(ctx context.Context, symbols []string) ([]Quote, error) {
	if len(symbols) == 0 {
		return nil, errors.New("at least one symbol is required")
	}
	var payload struct {
		Quotes []Quote `json:"quotes"`
	}
	query := map[string]any{"symbols": symbols}
	if err := s.client.Get(ctx, path("prices"), query, &payload); err != nil {
		return nil, err
	}
	return payload.Quotes, nil
}

// Quote returns the latest quote for one canonical symbol.
func (s *Service) Quote(ctx context.Context, symbol string) (*Quote, error) {
	if strings.TrimSpace(symbol) == "" {
		return nil, errors.New("symbol is required")
	}
	var quote Quote
	if err := s.client.Get(ctx, path("prices", symbol), nil, &quote); err != nil {
		return nil, err
	}
	return &quote, nil
}

// Watchlist returns the user's watchlist.
func (s *Service) Watchlist(ctx context.Context) ([]WatchlistEntry, error) {
	var payload struct {
		Symbols []WatchlistEntry `json:"symbols"`
	}
	if err := s.client.Get(ctx, path("watchlist"), nil, &payload); err != nil {
		return nil, err
	}
	return payload.Symbols, nil
}

// AddToWatchlist adds a symbol to the watchlist.
func (s *Service) AddToWatchlist(ctx context.Context, symbol string) (*WatchlistEntry, error) {
	var entry WatchlistEntry
	body := map[string]string{"symbol": symbol}
	if err := s.client.Post(ctx, path("watchlist"), body, &entry); err != nil {
		return nil, err
	}
	if entry.Symbol == "" {
		entry.Symbol = symbol
	}
	return &entry, nil
}

// RemoveFromWatchlist removes a symbol from the watchlist.
func (s *Service) RemoveFromWatchlist(ctx context.Context, symbol string) error {
	return s.client.Delete(ctx, path("watchlist", symbol), nil)
}

// Trades returns trade history.
func (s *Service) Trades(ctx context.Context, filter TradeFilter) ([]Trade, error) {
	query := map[string]any{
		"symbol": optionalString(filter.Symbol),
		"side":   optionalString(strings.ToLower(filter.Side)),
		"limit":  optionalInt(filter.Limit),
		"since":  optionalTime(filter.Since),
	}
	var payload struct {
		Trades []Trade `json:"trades"`
	}
	if err := s.client.Get(ctx, path("trades"), query, &payload); err != nil {
		return nil, err
	}
	return payload.Trades, nil
}

// Portfolio returns the account summary.
func (s *Service) Portfolio(ctx context.Context) (*PortfolioSummary, error) {
	var summary PortfolioSummary
	if err := s.client.Get(ctx, path("portfolio"), nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Holdings returns open positions.
func (s *Service) Holdings(ctx context.Context) ([]Holding, error) {
	var payload struct {
		Holdings []Holding `json:"holdings"`
	}
	if err := s.client.Get(ctx, path("portfolio", "holdings"), nil, &payload); err != nil {
		return nil, err
	}
	return payload.Holdings, nil
}

// Signals returns recent trading signals.
func (s *Service) Signals(ctx context.Context, filter SignalFilter) ([]Signal, error) {
	query := map[string]any{
		"symbol":         optionalString(filter.Symbol),
		"strategy":       optionalString(filter.Strategy),
		"limit":          optionalInt(filter.Limit),
		"min_confidence": optionalFloat(filter.MinConfidence),
	}
	var payload struct {
		Signals []Signal `json:"signals"`
	}
	if err := s.client.Get(ctx, path("signals"), query, &payload); err != nil {
		return nil, err
	}
	return payload.Signals, nil
}

// Events returns market events.
func (s *Service) Events(ctx context.Context, filter EventFilter) ([]Event, error) {
	query := map[string]any{
		"symbol": optionalString(filter.Symbol),
		"type":   optionalString(filter.Type),
		"limit":  optionalInt(filter.Limit),
	}
	var payload struct {
		Events []Event `json:"events"`
	}
	if err := s.client.Get(ctx, path("events"), query, &payload); err != nil {
		return nil, err
	}
	return payload.Events, nil
}

// Candles returns OHLCV bars for a symbol, oldest first.
func (s *Service) Candles(ctx context.Context, symbol string, q CandleQuery) ([]Candle, error) {
	if strings.TrimSpace(symbol) == "" {
		return nil, errors.New("symbol is required")
	}
	query := map[string]any{
		"interval": optionalString(q.Interval),
		"limit":    optionalInt(q.Limit),
	}
	var payload struct {
		Candles []Candle `json:"candles"`
	}
	if err := s.client.Get(ctx, path("candles", symbol), query, &payload); err != nil {
		return nil, err
	}
	return payload.Candles, nil
}

// Indicators returns technical indicators for a symbol.
func (s *Service) Indicators(ctx context.Context, symbol string, q IndicatorQuery) ([]Indicator, error) {
	if strings.TrimSpace(symbol) == "" {
		return nil, errors.New("symbol is required")
	}
	query := map[string]any{
		"interval": optionalString(q.Interval),
	}
	if len(q.Names) > 0 {
		query["names"] = q.Names
	}
	var payload struct {
		Indicators []Indicator `json:"indicators"`
	}
	if err := s.client.Get(ctx, path("indicators", symbol), query, &payload); err != nil {
		return nil, err
	}
	return payload.Indicators, nil
}

// Strategies lists available strategies.
func (s *Service) Strategies(ctx context.Context) ([]Strategy, error) {
	var payload struct {
		Strategies []Strategy `json:"strategies"`
	}
	if err := s.client.Get(ctx, path("strategies"), nil, &payload); err != nil {
		return nil, err
	}
	return payload.Strategies, nil
}

// Strategy returns one strategy.
func (s *Service) Strategy(ctx context.Context, id string) (*Strategy, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("strategy id is required")
	}
	var strategy Strategy
	if err := s.client.Get(ctx, path("strategies", id), nil, &strategy); err != nil {
		return nil, err
	}
	return &strategy, nil
}

// ActivateStrategy enables a strategy for a symbol.
func (s *Service) ActivateStrategy(ctx context.Context, id, symbol string) (*Activation, error) {
	return s.toggleStrategy(ctx, id, symbol, "activate")
}

// DeactivateStrategy disables a strategy for a symbol.
func (s *Service) DeactivateStrategy(ctx context.Context, id, symbol string) (*Activation, error) {
	return s.toggleStrategy(ctx, id, symbol, "deactivate")
}

func (s *Service) toggleStrategy(ctx context.Context, id, symbol, action string) (*Activation, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("strategy id is required")
	}
	var activation Activation
	body := map[string]string{"symbol": symbol}
	if err := s.client.Post(ctx, path("strategies", id, action), body, &activation); err != nil {
		return nil, err
	}
	if activation.StrategyID == "" {
		activation.StrategyID = id
	}
	if activation.Symbol == "" {
		activation.Symbol = symbol
	}
	return &activation, nil
}

// RunBacktest starts a backtest.
func (s *Service) RunBacktest(ctx context.Context, req BacktestRequest) (*Backtest, error) {
	if strings.TrimSpace(req.StrategyID) == "" || strings.TrimSpace(req.Symbol) == "" {
		return nil, errors.New("strategy and symbol are required")
	}
	var backtest Backtest
	if err := s.client.Post(ctx, path("backtests"), req, &backtest); err != nil {
		return nil, err
	}
	return &backtest, nil
}

// Backtest returns one backtest run.
func (s *Service) Backtest(ctx context.Context, id string) (*Backtest, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("backtest id is required")
	}
	var backtest Backtest
	if err := s.client.Get(ctx, path("backtests", id), nil, &backtest); err != nil {
		return nil, err
	}
	return &backtest, nil
}

// Backtests lists recent backtest runs.
func (s *Service) Backtests(ctx context.Context, limit int) ([]Backtest, error) {
	var payload struct {
		Backtests []Backtest `json:"backtests"`
	}
	query := map[string]any{"limit": optionalInt(limit)}
	if err := s.client.Get(ctx, path("backtests"), query, &payload); err != nil {
		return nil, err
	}
	return payload.Backtests, nil
}

// path joins escaped segments under the API prefix.
func path(segments ...string) string {
	escaped := make([]string, 0, len(segments))
	for _, segment := range segments {
		escaped = append(escaped, url.PathEscape(strings.TrimSpace(segment)))
	}
	return fmt.Sprintf("%s/%s", apiPrefix, strings.Join(escaped, "/"))
}

// Optional helpers return nil for unset values so the request wrapper drops them.

func optionalString(value string) any {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return value
}

func optionalInt(value int) any {
	if value <= 0 {
		return nil
	}
	return value
}

func optionalFloat(value float64) any {
	if value <= 0 {
		return nil
	}
	return value
}

func optionalTime(value time.Time) any {
	if value.IsZero() {
		return nil
	}
	return value
}
