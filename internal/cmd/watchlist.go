package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/tickerdesk/tickerdesk/internal/api"
	"github.com/tickerdesk/tickerdesk/internal/output"
	"github.com/tickerdesk/tickerdesk/internal/platform"
)

var watchlistCmd = &cobra.Command{
	Use:     "watchlist",
	Aliases: []string{"wl"},
	Short:   "Manage the watchlist",
}

var watchlistListCmd = &cobra.Command{
	Use:   "list",
	Short: "List watched symbols",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		entries, err := svc.Watchlist(commandContext(cmd))
		if err != nil {
			return err
		}
		return render(cmd, watchlistDataset(entries, precision()))
	},
}

var watchlistAddCmd = &cobra.Command{
	Use:   "add <symbol>...",
	Short: "Add symbols to the watchlist",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatchlistChange(cmd, args, "Added", func(ctx context.Context, svc *platform.Service, sym string) error {
			_, err := svc.AddToWatchlist(ctx, sym)
			return err
		})
	},
}

var watchlistRemoveCmd = &cobra.Command{
	Use:     "remove <symbol>...",
	Aliases: []string{"rm"},
	Short:   "Remove symbols from the watchlist",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatchlistChange(cmd, args, "Removed", func(ctx context.Context, svc *platform.Service, sym string) error {
			return svc.RemoveFromWatchlist(ctx, sym)
		})
	},
}

func init() {
	rootCmd.AddCommand(watchlistCmd)
	watchlistCmd.AddCommand(watchlistListCmd)
	watchlistCmd.AddCommand(watchlistAddCmd)
	watchlistCmd.AddCommand(watchlistRemoveCmd)
}

// runWatchlistChange applies change to every symbol concurrently and reports
// each failure without aborting the others.
func runWatchlistChange(cmd *cobra.Command, args []string, verb string, change func(context.Context, *platform.Service, string) error) error {
	symbols, err := parseSymbols(args)
	if err != nil {
		return err
	}

	svc, err := newService()
	if err != nil {
		return err
	}

	tasks := make([]func(context.Context) (string, error), 0, len(symbols))
	for _, sym := range symbols {
		tasks = append(tasks, func(ctx context.Context) (string, error) {
			return sym, change(ctx, svc, sym)
		})
	}
	results := api.SettleAll(commandContext(cmd), fanOutLimit, tasks...)

	ds := &output.Dataset{Columns: []string{"SYMBOL", "STATUS"}}
	raw := make([]map[string]string, 0, len(results))
	for i, result := range results {
		status := verb
		if !result.OK() {
			status = "failed"
		}
		ds.AddRow(symbols[i], status)
		raw = append(raw, map[string]string{"symbol": symbols[i], "status": status})
	}
	ds.Raw = raw

	if err := render(cmd, ds); err != nil {
		return err
	}
	return reportSettled(cmd, symbols, results)
}

func watchlistDataset(entries []platform.WatchlistEntry, places int32) *output.Dataset {
	ds := &output.Dataset{
		Title:   "Watchlist",
		Columns: []string{"SYMBOL", "PRICE", "24H %", "ADDED"},
		Raw:     entries,
	}
	for _, e := range entries {
		ds.AddRow(e.Symbol, output.Price(e.Price, places), output.Percent(e.ChangePct24h), output.Time(e.AddedAt))
	}
	return ds
}
