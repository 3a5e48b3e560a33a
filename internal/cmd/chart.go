package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tickerdesk/tickerdesk/internal/output"
	"github.com/tickerdesk/tickerdesk/internal/platform"
	"github.com/tickerdesk/tickerdesk/internal/stats"
)

var (
	chartInterval string
	chartLimit    int
)

var chartCmd = &cobra.Command{
	Use:   "chart <symbol>",
	Short: "Show OHLCV candles with a summary",
	Long: `Show recent OHLCV candles for a symbol followed by a summary of the
closing prices: range, mean, standard deviation, change and volatility.

Examples:
  tickerdesk chart btc --interval 1h --limit 48
  tickerdesk chart AAPL --interval 1d --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runChart,
}

func init() {
	rootCmd.AddCommand(chartCmd)

	chartCmd.Flags().StringVar(&chartInterval, "interval", "1h", "candle interval (e.g. 1m, 15m, 1h, 1d)")
	chartCmd.Flags().IntVar(&chartLimit, "limit", 24, "number of candles")
}

// chartPayload is the JSON shape of the chart command.
type chartPayload struct {
	Symbol   string            `json:"symbol"`
	Interval string            `json:"interval"`
	Candles  []platform.Candle `json:"candles"`
	Summary  stats.Summary     `json:"summary"`
}

func runChart(cmd *cobra.Command, args []string) error {
	sym, err := parseSymbol(args[0])
	if err != nil {
		return err
	}

	svc, err := newService()
	if err != nil {
		return err
	}

	interval := strings.TrimSpace(chartInterval)
	candles, err := svc.Candles(commandContext(cmd), sym, platform.CandleQuery{
		Interval: interval,
		Limit:    chartLimit,
	})
	if err != nil {
		return err
	}

	return render(cmd, chartDataset(sym, interval, candles, precision()))
}

func chartDataset(sym, interval string, candles []platform.Candle, places int32) *output.Dataset {
	closes := make([]float64, 0, len(candles))
	for _, c := range candles {
		closes = append(closes, c.Close.InexactFloat64())
	}
	summary := stats.Summarize(closes)

	ds := &output.Dataset{
		Title:   fmt.Sprintf("%s %s", sym, interval),
		Columns: []string{"TIME", "OPEN", "HIGH", "LOW", "CLOSE", "VOLUME"},
		Raw: chartPayload{
			Symbol:   sym,
			Interval: interval,
			Candles:  candles,
			Summary:  summary,
		},
	}
	for _, c := range candles {
		ds.AddRow(
			output.Time(c.Time),
			output.Price(c.Open, places),
			output.Price(c.High, places),
			output.Price(c.Low, places),
			output.Price(c.Close, places),
			output.Money(c.Volume),
		)
	}

	if summary.Count > 0 {
		p := int(places)
		ds.Notes = append(ds.Notes,
			fmt.Sprintf("Range: %s - %s  Mean: %s  StdDev: %s",
				output.Float(summary.Min, p), output.Float(summary.Max, p),
				output.Float(summary.Mean, p), output.Float(summary.StdDev, p)),
			fmt.Sprintf("Change: %s (%+.2f%%)  Volatility: %.2f%%",
				output.Float(summary.Change, p), summary.ChangePct, summary.Volatility),
		)
	}
	return ds
}
