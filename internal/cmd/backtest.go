package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	errwrap "github.com/tickerdesk/tickerdesk/internal/errors"
	"github.com/tickerdesk/tickerdesk/internal/output"
	"github.com/tickerdesk/tickerdesk/internal/platform"
)

var (
	backtestStart    string
	backtestEnd      string
	backtestCapital  string
	backtestInterval string
	backtestLimit    int
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run and inspect strategy backtests",
}

var backtestRunCmd = &cobra.Command{
	Use:   "run <strategy> <symbol>",
	Short: "Start a backtest",
	Long: `Start a backtest of a strategy on a symbol.

Examples:
  tickerdesk backtest run momentum btc --start 2025-01-01 --end 2025-06-30
  tickerdesk backtest run mean-revert AAPL --capital 25000 --interval 1d`,
	Args: cobra.ExactArgs(2),
	RunE: runBacktest,
}

var backtestShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a backtest and its results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		backtest, err := svc.Backtest(commandContext(cmd), args[0])
		if err != nil {
			return err
		}
		return render(cmd, backtestDataset(backtest))
	},
}

var backtestListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent backtests",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		backtests, err := svc.Backtests(commandContext(cmd), limitOrDefault(cmd, backtestLimit))
		if err != nil {
			return err
		}
		return render(cmd, backtestsDataset(backtests))
	},
}

func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.AddCommand(backtestRunCmd)
	backtestCmd.AddCommand(backtestShowCmd)
	backtestCmd.AddCommand(backtestListCmd)

	backtestRunCmd.Flags().StringVar(&backtestStart, "start", "", "start date (YYYY-MM-DD)")
	backtestRunCmd.Flags().StringVar(&backtestEnd, "end", "", "end date (YYYY-MM-DD)")
	backtestRunCmd.Flags().StringVar(&backtestCapital, "capital", "10000", "initial capital")
	backtestRunCmd.Flags().StringVar(&backtestInterval, "interval", "", "bar interval (e.g. 1h, 1d)")

	backtestListCmd.Flags().IntVar(&backtestLimit, "limit", 20, "maximum number of backtests")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	sym, err := parseSymbol(args[1])
	if err != nil {
		return err
	}

	req, err := backtestRequest(strings.TrimSpace(args[0]), sym)
	if err != nil {
		return err
	}

	svc, err := newService()
	if err != nil {
		return err
	}

	backtest, err := svc.RunBacktest(commandContext(cmd), req)
	if err != nil {
		return err
	}
	return render(cmd, backtestDataset(backtest))
}

func backtestRequest(strategyID, sym string) (platform.BacktestRequest, error) {
	req := platform.BacktestRequest{
		StrategyID: strategyID,
		Symbol:     sym,
		Interval:   strings.TrimSpace(backtestInterval),
	}

	capital, err := decimal.NewFromString(strings.TrimSpace(backtestCapital))
	if err != nil || !capital.IsPositive() {
		return req, errwrap.NewInvalidInputError(fmt.Sprintf("invalid --capital %q: want a positive number", backtestCapital))
	}
	req.InitialCapital = capital

	start, err := parseDate("--start", backtestStart)
	if err != nil {
		return req, err
	}
	end, err := parseDate("--end", backtestEnd)
	if err != nil {
		return req, err
	}
	if !start.IsZero() && !end.IsZero() && !end.After(start) {
		return req, errwrap.NewInvalidInputError("--end must be after --start")
	}
	if !start.IsZero() {
		req.Start = start.Format(time.DateOnly)
	}
	if !end.IsZero() {
		req.End = end.Format(time.DateOnly)
	}
	return req, nil
}

func parseDate(flag, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, errwrap.NewInvalidInputError(fmt.Sprintf("invalid %s %q: want YYYY-MM-DD", flag, value))
	}
	return t, nil
}

func backtestDataset(b *platform.Backtest) *output.Dataset {
	ds := &output.Dataset{
		Title:   "Backtest " + b.ID,
		Columns: []string{"FIELD", "VALUE"},
		Raw:     b,
	}
	ds.AddRow("Strategy", b.StrategyID)
	ds.AddRow("Symbol", b.Symbol)
	ds.AddRow("Status", output.Text(b.Status))
	ds.AddRow("Period", fmt.Sprintf("%s to %s", output.Text(b.Start), output.Text(b.End)))
	ds.AddRow("Initial capital", output.Money(b.InitialCapital))
	if strings.EqualFold(b.Status, "completed") {
		ds.AddRow("Final value", output.Money(b.FinalValue))
		ds.AddRow("Total return", output.Percent(b.TotalReturnPct))
		ds.AddRow("Max drawdown", output.Percent(b.MaxDrawdownPct))
		ds.AddRow("Sharpe ratio", output.Float(b.SharpeRatio, 2))
		ds.AddRow("Win rate", fmt.Sprintf("%.1f%%", b.WinRate*100))
		ds.AddRow("Trades", fmt.Sprintf("%d", b.TradeCount))
	}
	ds.AddRow("Created", output.Time(b.CreatedAt))
	return ds
}

func backtestsDataset(backtests []platform.Backtest) *output.Dataset {
	ds := &output.Dataset{
		Title:   "Backtests",
		Columns: []string{"ID", "STRATEGY", "SYMBOL", "STATUS", "RETURN", "SHARPE", "CREATED"},
		Raw:     backtests,
	}
	for _, b := range backtests {
		ret, sharpe := output.Dash, output.Dash
		if strings.EqualFold(b.Status, "completed") {
			ret = output.Percent(b.TotalReturnPct)
			sharpe = output.Float(b.SharpeRatio, 2)
		}
		ds.AddRow(b.ID, b.StrategyID, b.Symbol, output.Text(b.Status), ret, sharpe, output.Time(b.CreatedAt))
	}
	return ds
}
