package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	errwrap "github.com/tickerdesk/tickerdesk/internal/errors"
	"github.com/tickerdesk/tickerdesk/internal/output"
	"github.com/tickerdesk/tickerdesk/internal/platform"
)

var (
	signalsSymbol        string
	signalsStrategy      string
	signalsLimit         int
	signalsMinConfidence float64
)

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "Show trading signals",
	Long: `Show recent trading signals emitted by platform strategies.

Examples:
  tickerdesk signals --symbol eth
  tickerdesk signals --strategy momentum --min-confidence 0.7`,
	Args: cobra.NoArgs,
	RunE: runSignals,
}

func init() {
	rootCmd.AddCommand(signalsCmd)

	signalsCmd.Flags().StringVar(&signalsSymbol, "symbol", "", "filter by symbol")
	signalsCmd.Flags().StringVar(&signalsStrategy, "strategy", "", "filter by strategy id")
	signalsCmd.Flags().IntVar(&signalsLimit, "limit", 20, "maximum number of signals")
	signalsCmd.Flags().Float64Var(&signalsMinConfidence, "min-confidence", 0, "minimum confidence between 0 and 1")
}

func runSignals(cmd *cobra.Command, args []string) error {
	if signalsMinConfidence < 0 || signalsMinConfidence > 1 {
		return errwrap.NewInvalidInputError(fmt.Sprintf("invalid --min-confidence %g: want a value between 0 and 1", signalsMinConfidence))
	}

	filter := platform.SignalFilter{
		Strategy:      strings.TrimSpace(signalsStrategy),
		Limit:         limitOrDefault(cmd, signalsLimit),
		MinConfidence: signalsMinConfidence,
	}
	if strings.TrimSpace(signalsSymbol) != "" {
		sym, err := parseSymbol(signalsSymbol)
		if err != nil {
			return err
		}
		filter.Symbol = sym
	}

	svc, err := newService()
	if err != nil {
		return err
	}

	signals, err := svc.Signals(commandContext(cmd), filter)
	if err != nil {
		return err
	}

	return render(cmd, signalsDataset(signals, precision()))
}

func signalsDataset(signals []platform.Signal, places int32) *output.Dataset {
	ds := &output.Dataset{
		Title:   "Signals",
		Columns: []string{"TIME", "SYMBOL", "STRATEGY", "DIRECTION", "CONFIDENCE", "PRICE", "TARGET", "STOP", "REASON"},
		Raw:     signals,
	}
	for _, s := range signals {
		ds.AddRow(
			output.Time(s.CreatedAt),
			s.Symbol,
			output.Text(s.Strategy),
			strings.ToUpper(s.Direction),
			fmt.Sprintf("%.0f%%", s.Confidence*100),
			output.Price(s.Price, places),
			output.Price(s.Target, places),
			output.Price(s.StopLoss, places),
			output.Text(s.Reason),
		)
	}
	return ds
}
