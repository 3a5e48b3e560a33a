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
	tradesSymbol string
	tradesSide   string
	tradesLimit  int
	tradesSince  string
)

var tradesCmd = &cobra.Command{
	Use:   "trades",
	Short: "Show trade history",
	Long: `Show executed trades, newest first.

Examples:
  tickerdesk trades --symbol btc --since 7d
  tickerdesk trades --side sell --limit 50 --format csv`,
	Args: cobra.NoArgs,
	RunE: runTrades,
}

func init() {
	rootCmd.AddCommand(tradesCmd)

	tradesCmd.Flags().StringVar(&tradesSymbol, "symbol", "", "filter by symbol")
	tradesCmd.Flags().StringVar(&tradesSide, "side", "", "filter by side: buy or sell")
	tradesCmd.Flags().IntVar(&tradesLimit, "limit", 20, "maximum number of trades")
	tradesCmd.Flags().StringVar(&tradesSince, "since", "", "only trades after this time (RFC 3339, YYYY-MM-DD, or 24h/7d)")
}

func runTrades(cmd *cobra.Command, args []string) error {
	filter := platform.TradeFilter{Limit: limitOrDefault(cmd, tradesLimit)}

	if strings.TrimSpace(tradesSymbol) != "" {
		sym, err := parseSymbol(tradesSymbol)
		if err != nil {
			return err
		}
		filter.Symbol = sym
	}

	side := strings.ToLower(strings.TrimSpace(tradesSide))
	if side != "" && side != "buy" && side != "sell" {
		return errwrap.NewInvalidInputError(fmt.Sprintf("invalid --side %q: want buy or sell", tradesSide))
	}
	filter.Side = side

	since, err := parseSince(tradesSince, time.Now())
	if err != nil {
		return err
	}
	filter.Since = since

	svc, err := newService()
	if err != nil {
		return err
	}

	trades, err := svc.Trades(commandContext(cmd), filter)
	if err != nil {
		return err
	}

	return render(cmd, tradesDataset(trades, precision()))
}

func tradesDataset(trades []platform.Trade, places int32) *output.Dataset {
	ds := &output.Dataset{
		Title:   "Trades",
		Columns: []string{"TIME", "SYMBOL", "SIDE", "QUANTITY", "PRICE", "NOTIONAL", "FEE", "STATUS"},
		Raw:     trades,
	}

	bought, sold, fees := decimal.Zero, decimal.Zero, decimal.Zero
	for _, t := range trades {
		notional := t.Notional()
		switch strings.ToLower(t.Side) {
		case "buy":
			bought = bought.Add(notional)
		case "sell":
			sold = sold.Add(notional)
		}
		fees = fees.Add(t.Fee)

		ds.AddRow(
			output.Time(t.ExecutedAt),
			t.Symbol,
			strings.ToUpper(t.Side),
			t.Quantity.String(),
			output.Price(t.Price, places),
			output.Money(notional),
			output.Money(t.Fee),
			output.Text(t.Status),
		)
	}

	if len(trades) > 0 {
		ds.Footer = []string{fmt.Sprintf("%d trades", len(trades)), "", "", "", "", "", output.Money(fees), ""}
		ds.Notes = append(ds.Notes,
			fmt.Sprintf("Bought: %s  Sold: %s  Fees: %s", output.Money(bought), output.Money(sold), output.Money(fees)))
	}
	return ds
}
