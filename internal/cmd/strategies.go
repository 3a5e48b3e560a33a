package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tickerdesk/tickerdesk/internal/api"
	"github.com/tickerdesk/tickerdesk/internal/output"
	"github.com/tickerdesk/tickerdesk/internal/platform"
)

var strategiesCmd = &cobra.Command{
	Use:     "strategies",
	Aliases: []string{"strategy"},
	Short:   "List and control trading strategies",
}

var strategiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available strategies",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		strategies, err := svc.Strategies(commandContext(cmd))
		if err != nil {
			return err
		}
		return render(cmd, strategiesDataset(strategies))
	},
}

var strategiesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one strategy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		strategy, err := svc.Strategy(commandContext(cmd), args[0])
		if err != nil {
			return err
		}
		return render(cmd, strategyDataset(strategy))
	},
}

var strategiesActivateCmd = &cobra.Command{
	Use:   "activate <id> <symbol>...",
	Short: "Activate a strategy on one or more symbols",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStrategyToggle(cmd, args, true)
	},
}

var strategiesDeactivateCmd = &cobra.Command{
	Use:   "deactivate <id> <symbol>...",
	Short: "Deactivate a strategy on one or more symbols",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStrategyToggle(cmd, args, false)
	},
}

func init() {
	rootCmd.AddCommand(strategiesCmd)
	strategiesCmd.AddCommand(strategiesListCmd)
	strategiesCmd.AddCommand(strategiesShowCmd)
	strategiesCmd.AddCommand(strategiesActivateCmd)
	strategiesCmd.AddCommand(strategiesDeactivateCmd)
}

// runStrategyToggle toggles one strategy across symbols concurrently; each
// symbol succeeds or fails on its own.
func runStrategyToggle(cmd *cobra.Command, args []string, activate bool) error {
	id := strings.TrimSpace(args[0])
	symbols, err := parseSymbols(args[1:])
	if err != nil {
		return err
	}

	svc, err := newService()
	if err != nil {
		return err
	}
	toggle := svc.DeactivateStrategy
	if activate {
		toggle = svc.ActivateStrategy
	}

	tasks := make([]func(context.Context) (*platform.Activation, error), 0, len(symbols))
	for _, sym := range symbols {
		tasks = append(tasks, func(ctx context.Context) (*platform.Activation, error) {
			return toggle(ctx, id, sym)
		})
	}
	results := api.SettleAll(commandContext(cmd), fanOutLimit, tasks...)

	activations := make([]platform.Activation, 0, len(results))
	for _, result := range results {
		if result.OK() && result.Value != nil {
			activations = append(activations, *result.Value)
		}
	}
	if len(activations) > 0 {
		if err := render(cmd, activationsDataset(activations)); err != nil {
			return err
		}
	}
	return reportSettled(cmd, symbols, results)
}

func strategiesDataset(strategies []platform.Strategy) *output.Dataset {
	ds := &output.Dataset{
		Title:   "Strategies",
		Columns: []string{"ID", "NAME", "TIMEFRAME", "ACTIVE", "SYMBOLS"},
		Raw:     strategies,
	}
	for _, s := range strategies {
		ds.AddRow(s.ID, s.Name, output.Text(s.Timeframe), yesNo(s.Active), output.Text(strings.Join(s.Symbols, ",")))
	}
	return ds
}

func strategyDataset(s *platform.Strategy) *output.Dataset {
	ds := &output.Dataset{
		Title:   "Strategy " + s.ID,
		Columns: []string{"FIELD", "VALUE"},
		Raw:     s,
	}
	ds.AddRow("Name", s.Name)
	ds.AddRow("Description", output.Text(s.Description))
	ds.AddRow("Timeframe", output.Text(s.Timeframe))
	ds.AddRow("Active", yesNo(s.Active))
	ds.AddRow("Symbols", output.Text(strings.Join(s.Symbols, ", ")))
	ds.AddRow("Created", output.Time(s.CreatedAt))
	return ds
}

func activationsDataset(activations []platform.Activation) *output.Dataset {
	ds := &output.Dataset{
		Columns: []string{"STRATEGY", "SYMBOL", "ACTIVE", "STATUS"},
		Raw:     activations,
	}
	for _, a := range activations {
		ds.AddRow(a.StrategyID, a.Symbol, yesNo(a.Active), output.Text(a.Status))
	}
	return ds
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
