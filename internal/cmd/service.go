package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tickerdesk/tickerdesk/internal/api"
	errwrap "github.com/tickerdesk/tickerdesk/internal/errors"
	"github.com/tickerdesk/tickerdesk/internal/observability"
	"github.com/tickerdesk/tickerdesk/internal/platform"
	"github.com/tickerdesk/tickerdesk/internal/symbol"
)

// fanOutLimit bounds concurrent requests in a fan-out.
const fanOutLimit = 4

// newService builds the platform service for the running command. One
// service, and so one client and one rate limiter, serves the invocation.
func newService() (*platform.Service, error) {
	state, err := currentApp()
	if err != nil {
		return nil, err
	}
	if err := state.cfg.Validate(); err != nil {
		return nil, errwrap.WrapConfigInvalid(err, err.Error())
	}
	svc, err := buildService(state, state.cfg.APIConfig())
	if err != nil {
		return nil, err
	}
	if !svc.Client().HasCredentials() {
		return nil, errwrap.NewMissingCredentialsError(
			"no API key configured; run 'tickerdesk login' or set TICKERDESK_API_KEY")
	}
	return svc, nil
}

func buildService(state *appState, cfg api.Config) (*platform.Service, error) {
	cfg.UserAgent = userAgent()
	cfg.Tracer = state.tracer
	cfg.Logger = observability.CLILogger

	client, err := api.New(cfg)
	if err != nil {
		return nil, errwrap.WrapConfigInvalid(err, err.Error())
	}
	return platform.New(client), nil
}

// reportSettled prints one line per failed branch to stderr and returns a
// partial-failure error when any branch failed.
func reportSettled[T any](cmd *cobra.Command, labels []string, results []api.Settled[T]) error {
	failed := api.Failed(results)
	if failed == 0 {
		return nil
	}

	for i, result := range results {
		if result.OK() {
			continue
		}
		label := fmt.Sprintf("#%d", i+1)
		if i < len(labels) {
			label = labels[i]
		}
		envelope := errwrap.EnsureEnvelope(result.Err)
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", label, envelope.Message)
		observability.Logger().Debug("Fan-out branch failed",
			zap.String("branch", label),
			zap.String("error_code", envelope.Code),
			zap.String("correlation_id", envelope.CorrelationID),
		)
	}

	return errwrap.NewPartialFailureError(failed, len(results))
}

// parseSymbols normalizes symbol arguments and rejects an empty result.
func parseSymbols(args []string) ([]string, error) {
	symbols := symbol.NormalizeAll(args)
	if len(symbols) == 0 {
		return nil, errwrap.NewInvalidInputError("at least one symbol is required")
	}
	return symbols, nil
}

// parseSymbol normalizes one symbol argument.
func parseSymbol(arg string) (string, error) {
	normalized := symbol.Normalize(arg)
	if normalized == "" {
		return "", errwrap.NewInvalidInputError("symbol is required")
	}
	return normalized, nil
}

// parseSince accepts an RFC 3339 timestamp, a date (2006-01-02), or a
// lookback such as 12h or 7d.
func parseSince(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	if days, ok := strings.CutSuffix(value, "d"); ok {
		if n, err := strconv.Atoi(days); err == nil && n > 0 {
			return now.AddDate(0, 0, -n), nil
		}
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return now.Add(-d), nil
	}
	return time.Time{}, errwrap.NewInvalidInputError(
		fmt.Sprintf("invalid --since %q: use RFC 3339, YYYY-MM-DD, or a lookback like 24h or 7d", value))
}

// limitOrDefault returns flagValue when set, else the configured display limit.
func limitOrDefault(cmd *cobra.Command, flagValue int) int {
	if cmd.Flags().Changed("limit") {
		return flagValue
	}
	if state, err := currentApp(); err == nil && state.cfg.Display.Limit > 0 {
		return state.cfg.Display.Limit
	}
	return flagValue
}

func precision() int32 {
	if state, err := currentApp(); err == nil && state.cfg.Display.Precision >= 0 {
		return int32(state.cfg.Display.Precision)
	}
	return 2
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
