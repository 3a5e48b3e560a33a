package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fulmenhq/gofulmen/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tickerdesk/tickerdesk/internal/api"
	"github.com/tickerdesk/tickerdesk/internal/config"
	errwrap "github.com/tickerdesk/tickerdesk/internal/errors"
	"github.com/tickerdesk/tickerdesk/internal/observability"
	"github.com/tickerdesk/tickerdesk/internal/output"
)

const binaryName = "tickerdesk"

// annotationConfig marks commands that may run against a config file that
// does not exist yet.
const (
	annotationConfig   = "tickerdesk/config"
	configMayBeMissing = "may-be-missing"
	configNotRequired  = "not-required"
)

var (
	cfgFile    string
	verbose    bool
	traceFile  string
	apiURLFlag string
	formatFlag string
	outFile    string

	// Version info set by main package
	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}

	// app is the state loaded once per invocation by the root pre-run hook.
	app *appState
)

// appState is the configuration resolved for the running command.
type appState struct {
	store  *config.Store
	cfg    *config.Config
	format output.Format
	tracer *api.Tracer

	// loadErr is set instead of failing for commands that do not need config.
	loadErr error
}

// SetVersionInfo is called by main package to set version information
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   binaryName,
	Short: "Market data and trading signals from the terminal",
	Long: `tickerdesk - market data and trading signals from the terminal.

Query prices, manage a watchlist, review trades and portfolio, follow signals
and events, and drive strategies and backtests on the platform.

Symbols are accepted loosely: btc, BTC/USD, BTCUSD and BTC-USD all resolve to
BTC-USD; known equities such as AAPL are kept as-is.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initApp,
}

// Execute runs the command tree under ctx. It is called by main.main().
func Execute(ctx context.Context) error {
	defer closeApp()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Disable global telemetry early; a CLI invocation exports no metrics.
	disabledConfig := &telemetry.Config{Enabled: false}
	if sys, err := telemetry.NewSystem(disabledConfig); err == nil {
		telemetry.SetGlobalSystem(sys)
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/tickerdesk/config.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")
	rootCmd.PersistentFlags().StringVar(&traceFile, "trace", "", "append one NDJSON entry per HTTP attempt to this file")
	rootCmd.PersistentFlags().StringVar(&apiURLFlag, "api-url", "", "platform API base URL (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "", "output format: "+output.FormatNames()+" (default from config)")
	rootCmd.PersistentFlags().StringVarP(&outFile, "out", "o", "", "write output to file instead of stdout")
}

// initApp loads configuration, applies global flag overrides, and initializes
// logging and request tracing.
func initApp(cmd *cobra.Command, args []string) error {
	closeApp()

	state, err := loadApp(cmd)
	if err != nil {
		observability.InitCLILogger(binaryName, "info", observability.FormatText, verbose)
		if cmd.Annotations[annotationConfig] != configNotRequired {
			return err
		}
		observability.CLILogger.Debug("Configuration unavailable", zap.Error(err))
		app = &appState{format: output.FormatTable, loadErr: err}
		return nil
	}

	// Initialize CLI logger early so later steps can log
	observability.InitCLILogger(binaryName, state.cfg.Logging.Level, state.cfg.Logging.Format, verbose)
	logger := observability.CLILogger

	if traceFile != "" {
		tracer, err := api.OpenTracer(traceFile)
		if err != nil {
			logger.Warn("Failed to enable request tracing", zap.Error(err))
		} else {
			logger.Debug("Request tracing enabled", zap.String("file", traceFile))
			state.tracer = tracer
		}
	}

	if state.store.Exists() {
		logger.Debug("Using config file", zap.String("path", state.store.Path()))
	} else {
		logger.Debug("No config file found, using defaults and environment variables",
			zap.String("path", state.store.Path()))
	}

	app = state
	return nil
}

func loadApp(cmd *cobra.Command) (*appState, error) {
	store, err := openStore(cmd)
	if err != nil {
		return nil, err
	}

	cfg, err := store.Config()
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(apiURLFlag) != "" {
		cfg.APIURL = strings.TrimRight(strings.TrimSpace(apiURLFlag), "/")
	}

	formatValue := cfg.Display.Format
	if strings.TrimSpace(formatFlag) != "" {
		formatValue = formatFlag
	}
	format, err := output.ParseFormat(formatValue)
	if err != nil {
		return nil, errwrap.WrapInvalidInput(err, err.Error())
	}

	return &appState{store: store, cfg: cfg, format: format}, nil
}

func openStore(cmd *cobra.Command) (*config.Store, error) {
	switch cmd.Annotations[annotationConfig] {
	case configMayBeMissing, configNotRequired:
		return config.OpenForWrite(cfgFile)
	default:
		return config.Open(cfgFile)
	}
}

func closeApp() {
	if app == nil {
		return
	}
	if err := app.tracer.Close(); err != nil && observability.CLILogger != nil {
		observability.CLILogger.Warn("Failed to close trace file", zap.Error(err))
	}
	app = nil
}

// currentApp returns the state loaded by the root pre-run hook.
func currentApp() (*appState, error) {
	if app == nil {
		return nil, errors.New("configuration not loaded")
	}
	if app.loadErr != nil {
		return nil, app.loadErr
	}
	return app, nil
}

func userAgent() string {
	version := strings.TrimSpace(versionInfo.Version)
	if version == "" {
		version = "dev"
	}
	return fmt.Sprintf("%s/%s", binaryName, version)
}
