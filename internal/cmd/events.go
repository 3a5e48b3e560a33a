package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/tickerdesk/tickerdesk/internal/output"
	"github.com/tickerdesk/tickerdesk/internal/platform"
)

var (
	eventsSymbol string
	eventsType   string
	eventsLimit  int
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show market events",
	Long: `Show market events such as listings, earnings, halts and large transfers.

Examples:
  tickerdesk events --symbol btc
  tickerdesk events --type earnings --limit 10`,
	Args: cobra.NoArgs,
	RunE: runEvents,
}

func init() {
	rootCmd.AddCommand(eventsCmd)

	eventsCmd.Flags().StringVar(&eventsSymbol, "symbol", "", "filter by symbol")
	eventsCmd.Flags().StringVar(&eventsType, "type", "", "filter by event type")
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 20, "maximum number of events")
}

func runEvents(cmd *cobra.Command, args []string) error {
	filter := platform.EventFilter{
		Type:  strings.ToLower(strings.TrimSpace(eventsType)),
		Limit: limitOrDefault(cmd, eventsLimit),
	}
	if strings.TrimSpace(eventsSymbol) != "" {
		sym, err := parseSymbol(eventsSymbol)
		if err != nil {
			return err
		}
		filter.Symbol = sym
	}

	svc, err := newService()
	if err != nil {
		return err
	}

	events, err := svc.Events(commandContext(cmd), filter)
	if err != nil {
		return err
	}

	return render(cmd, eventsDataset(events))
}

func eventsDataset(events []platform.Event) *output.Dataset {
	ds := &output.Dataset{
		Title:   "Events",
		Columns: []string{"TIME", "SYMBOL", "TYPE", "SEVERITY", "TITLE", "SOURCE"},
		Raw:     events,
	}
	for _, e := range events {
		ds.AddRow(
			output.Time(e.OccurredAt),
			output.Text(e.Symbol),
			e.Type,
			output.Text(e.Severity),
			e.Title,
			output.Text(e.Source),
		)
	}
	return ds
}
