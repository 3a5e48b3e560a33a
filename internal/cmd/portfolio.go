package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tickerdesk/tickerdesk/internal/api"
	"github.com/tickerdesk/tickerdesk/internal/output"
	"github.com/tickerdesk/tickerdesk/internal/platform"
)

var portfolioHoldingsOnly bool

var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Show portfolio summary and holdings",
	Long: `Show the account summary and open positions.

The summary and holdings are fetched concurrently; if one of them fails the
other is still shown and the command exits non-zero.`,
	Args: cobra.NoArgs,
	RunE: runPortfolio,
}

func init() {
	rootCmd.AddCommand(portfolioCmd)
	portfolioCmd.Flags().BoolVar(&portfolioHoldingsOnly, "holdings-only", false, "show holdings without the account summary")
}

func runPortfolio(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	if portfolioHoldingsOnly {
		holdings, err := svc.Holdings(ctx)
		if err != nil {
			return err
		}
		return render(cmd, holdingsDataset(holdings, precision()))
	}

	results := api.SettleAll(ctx, fanOutLimit,
		func(ctx context.Context) (any, error) { return svc.Portfolio(ctx) },
		func(ctx context.Context) (any, error) { return svc.Holdings(ctx) },
	)

	var datasets []*output.Dataset
	if summary, ok := results[0].Value.(*platform.PortfolioSummary); ok && results[0].OK() {
		datasets = append(datasets, portfolioDataset(summary))
	}
	if holdings, ok := results[1].Value.([]platform.Holding); ok && results[1].OK() {
		datasets = append(datasets, holdingsDataset(holdings, precision()))
	}

	if len(datasets) > 0 {
		if err := render(cmd, datasets...); err != nil {
			return err
		}
	}
	return reportSettled(cmd, []string{"portfolio", "holdings"}, results)
}

func portfolioDataset(summary *platform.PortfolioSummary) *output.Dataset {
	currency := summary.Currency
	if currency == "" {
		currency = "USD"
	}
	ds := &output.Dataset{
		Title:   fmt.Sprintf("Portfolio (%s)", currency),
		Columns: []string{"METRIC", "VALUE"},
		Raw:     summary,
	}
	ds.AddRow("Total value", output.Money(summary.TotalValue))
	ds.AddRow("Cash", output.Money(summary.Cash))
	ds.AddRow("Invested", output.Money(summary.InvestedValue))
	ds.AddRow("Unrealized P&L", output.Money(summary.UnrealizedPnL))
	ds.AddRow("Realized P&L", output.Money(summary.RealizedPnL))
	ds.AddRow("Day change", fmt.Sprintf("%s (%s)", output.Money(summary.DayChange), output.Percent(summary.DayChangePct)))
	ds.AddRow("Updated", output.Time(summary.UpdatedAt))
	return ds
}

func holdingsDataset(holdings []platform.Holding, places int32) *output.Dataset {
	ds := &output.Dataset{
		Title:   "Holdings",
		Columns: []string{"SYMBOL", "QUANTITY", "AVG COST", "PRICE", "VALUE", "P&L", "P&L %", "ALLOC %"},
		Raw:     holdings,
	}
	for _, h := range holdings {
		ds.AddRow(
			h.Symbol,
			h.Quantity.String(),
			output.Price(h.AverageCost, places),
			output.Price(h.Price, places),
			output.Money(h.MarketValue),
			output.Money(h.UnrealizedPnL),
			output.Percent(h.UnrealizedPnLPct),
			output.Decimal(h.AllocationPct, 1),
		)
	}
	return ds
}
