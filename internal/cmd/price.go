package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tickerdesk/tickerdesk/internal/output"
	"github.com/tickerdesk/tickerdesk/internal/platform"
	"github.com/tickerdesk/tickerdesk/internal/symbol"
)

var priceCmd = &cobra.Command{
	Use:   "price <symbol>...",
	Short: "Show latest prices",
	Long: `Show the latest quote for one or more symbols.

Examples:
  tickerdesk price btc eth
  tickerdesk price AAPL BTC/USD --format json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPrice,
}

func init() {
	rootCmd.AddCommand(priceCmd)
}

func runPrice(cmd *cobra.Command, args []string) error {
	symbols, err := parseSymbols(args)
	if err != nil {
		return err
	}

	svc, err := newService()
	if err != nil {
		return err
	}

	quotes, err := svc.Quotes(commandContext(cmd), symbols)
	if err != nil {
		return err
	}

	return render(cmd, quotesDataset(quotes, precision()))
}

func quotesDataset(quotes []platform.Quote, places int32) *output.Dataset {
	ds := &output.Dataset{
		Title:   "Prices",
		Columns: []string{"SYMBOL", "CLASS", "PRICE", "24H CHANGE", "24H %", "24H HIGH", "24H LOW", "VOLUME", "UPDATED"},
		Raw:     quotes,
	}
	for _, q := range quotes {
		ds.AddRow(
			q.Symbol,
			symbol.AssetClass(q.Symbol),
			output.Price(q.Price, places),
			output.Decimal(q.Change24h, places),
			output.Percent(q.ChangePct24h),
			output.Price(q.High24h, places),
			output.Price(q.Low24h, places),
			output.Money(q.Volume24h),
			output.Time(q.UpdatedAt),
		)
	}
	return ds
}
