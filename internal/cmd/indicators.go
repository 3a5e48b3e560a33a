package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tickerdesk/tickerdesk/internal/output"
	"github.com/tickerdesk/tickerdesk/internal/platform"
)

var (
	indicatorNames    []string
	indicatorInterval string
)

var indicatorsCmd = &cobra.Command{
	Use:   "indicators <symbol>",
	Short: "Show technical indicators",
	Long: `Show technical indicators computed by the platform for a symbol.

Examples:
  tickerdesk indicators btc
  tickerdesk indicators eth --names rsi,macd --interval 4h`,
	Args: cobra.ExactArgs(1),
	RunE: runIndicators,
}

func init() {
	rootCmd.AddCommand(indicatorsCmd)

	indicatorsCmd.Flags().StringSliceVar(&indicatorNames, "names", nil, "indicators to include (e.g. rsi,macd,sma)")
	indicatorsCmd.Flags().StringVar(&indicatorInterval, "interval", "", "indicator interval (e.g. 1h, 1d)")
}

func runIndicators(cmd *cobra.Command, args []string) error {
	sym, err := parseSymbol(args[0])
	if err != nil {
		return err
	}

	names := make([]string, 0, len(indicatorNames))
	for _, name := range indicatorNames {
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
			names = append(names, name)
		}
	}

	svc, err := newService()
	if err != nil {
		return err
	}

	indicators, err := svc.Indicators(commandContext(cmd), sym, platform.IndicatorQuery{
		Names:    names,
		Interval: strings.TrimSpace(indicatorInterval),
	})
	if err != nil {
		return err
	}

	return render(cmd, indicatorsDataset(sym, indicators, int(precision())))
}

func indicatorsDataset(sym string, indicators []platform.Indicator, places int) *output.Dataset {
	ds := &output.Dataset{
		Title:   "Indicators " + sym,
		Columns: []string{"INDICATOR", "INTERVAL", "VALUES", "SIGNAL", "AS OF"},
		Raw:     indicators,
	}
	for _, ind := range indicators {
		ds.AddRow(
			strings.ToUpper(ind.Name),
			output.Text(ind.Interval),
			formatIndicatorValues(ind.Values, places),
			output.Text(strings.ToUpper(ind.Signal)),
			output.Time(ind.AsOf),
		)
	}
	return ds
}

// formatIndicatorValues renders values as "k=v" pairs in key order.
func formatIndicatorValues(values map[string]float64, places int) string {
	if len(values) == 0 {
		return output.Dash
	}
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", key, output.Float(values[key], places)))
	}
	return strings.Join(parts, " ")
}
