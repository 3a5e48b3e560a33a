package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/tickerdesk/tickerdesk/internal/api"
	"github.com/tickerdesk/tickerdesk/internal/config"
	errwrap "github.com/tickerdesk/tickerdesk/internal/errors"
	"github.com/tickerdesk/tickerdesk/internal/observability"
	"github.com/tickerdesk/tickerdesk/internal/platform"
)

// doctorTimeout bounds each network check.
const doctorTimeout = 15 * time.Second

// doctorQuoteSymbol is quoted by the market data check.
const doctorQuoteSymbol = "BTC-USD"

var doctorCmd = &cobra.Command{
	Use:         "doctor",
	Short:       "Run diagnostic checks",
	Long:        "Run diagnostic checks on configuration, credentials, platform connectivity and market data.",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationConfig: configNotRequired},
	RunE:        runDoctor,
}

var doctorConfigCmd = &cobra.Command{
	Use:         "config",
	Short:       "Show configuration status and paths",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationConfig: configNotRequired},
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.CLILogger
		configPath := resolvedConfigPath()

		logger.Info("Configuration:")
		logger.Info(fmt.Sprintf("  Config file:    %s (%s)", configPath, existenceStatus(fileExists(configPath))))
		if info, err := os.Stat(configPath); err == nil {
			logger.Info(fmt.Sprintf("  Permissions:    %s", info.Mode().Perm()))
		}

		logger.Info("")
		logger.Info("Environment:")
		for _, name := range []string{"API_KEY", "API_URL"} {
			logger.Info(fmt.Sprintf("  %s%s: %s", config.EnvPrefix, name, envStatus(config.EnvPrefix+name)))
		}
		logger.Info("  .env: " + existenceStatus(fileExists(".env")))

		state, err := currentApp()
		if err != nil {
			logger.Warn("Config load failed", zap.Error(err))
			return nil
		}
		logger.Info("")
		logger.Info("Effective Settings:")
		logger.Info("  api_url: " + state.cfg.APIURL)
		logger.Info("  api_key: " + apiKeyStatus(state.cfg))
		logger.Info("  display.format: " + string(state.format))
		return nil
	},
}

var doctorResetCmd = &cobra.Command{
	Use:         "reset",
	Short:       "Remove the config file and stored credentials",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationConfig: configNotRequired},
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := resolvedConfigPath()
		if err := os.Remove(configPath); err == nil {
			observability.CLILogger.Info("Config removed", zap.String("path", configPath))
		} else if os.IsNotExist(err) {
			observability.CLILogger.Info("Config already removed", zap.String("path", configPath))
		} else {
			return fmt.Errorf("remove config file: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.AddCommand(doctorConfigCmd)
	doctorCmd.AddCommand(doctorResetCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	logger := observability.CLILogger
	logger.Info("=== " + binaryName + " doctor ===")
	logger.Info("")
	logger.Info("Running diagnostic checks...")
	logger.Info("")

	allChecks := true
	const totalChecks = 6

	// Check 1: Gofulmen and Crucible
	version := crucible.GetVersion()
	if version.Gofulmen != "" && version.Crucible != "" {
		logger.Info(fmt.Sprintf("[1/%d] Checking Gofulmen/Crucible... ✅ v%s / v%s (%s)", totalChecks, version.Gofulmen, version.Crucible, runtime.Version()),
			zap.String("gofulmen_version", version.Gofulmen),
			zap.String("crucible_version", version.Crucible))
	} else {
		logger.Warn(fmt.Sprintf("[1/%d] Checking Gofulmen/Crucible... ⚠️  version information unavailable", totalChecks))
		allChecks = false
	}

	// Check 2: Config file
	state, stateErr := currentApp()
	configPath := resolvedConfigPath()
	switch {
	case stateErr != nil:
		logger.Error(fmt.Sprintf("[2/%d] Checking config file... ❌ %s", totalChecks, configPath), zap.Error(stateErr))
		allChecks = false
	case state.store.Exists():
		logger.Info(fmt.Sprintf("[2/%d] Checking config file... ✅ %s", totalChecks, state.store.Path()),
			zap.String("config_file", state.store.Path()))
	default:
		logger.Info(fmt.Sprintf("[2/%d] Checking config file... ✅ %s (not created yet, using defaults)", totalChecks, state.store.Path()),
			zap.String("config_file", state.store.Path()))
	}

	// Check 3: Settings
	var validateErr error
	if stateErr == nil {
		validateErr = state.cfg.Validate()
	}
	switch {
	case stateErr != nil:
		logger.Warn(fmt.Sprintf("[3/%d] Checking settings... ⚠️  skipped (config not loaded)", totalChecks))
	case validateErr != nil:
		logger.Error(fmt.Sprintf("[3/%d] Checking settings... ❌ %v", totalChecks, validateErr))
		allChecks = false
	default:
		logger.Info(fmt.Sprintf("[3/%d] Checking settings... ✅ %s", totalChecks, state.cfg.APIURL),
			zap.String("api_url", state.cfg.APIURL))
	}

	// Check 4: Credentials
	hasCredentials := stateErr == nil && state.cfg.HasCredentials()
	switch {
	case stateErr != nil:
		logger.Warn(fmt.Sprintf("[4/%d] Checking credentials... ⚠️  skipped (config not loaded)", totalChecks))
	case hasCredentials:
		logger.Info(fmt.Sprintf("[4/%d] Checking credentials... ✅ %s", totalChecks, state.cfg.MaskedAPIKey()))
	default:
		logger.Warn(fmt.Sprintf("[4/%d] Checking credentials... ⚠️  no API key (run '%s login' or set %sAPI_KEY)", totalChecks, binaryName, config.EnvPrefix))
		allChecks = false
	}

	// Check 5: Platform connectivity
	var (
		checkErr error
		svc      *platform.Service
	)
	if hasCredentials && validateErr == nil {
		svc, checkErr = doctorService(state)
	}
	if svc != nil {
		account, latency, err := checkConnectivity(commandContext(cmd), svc)
		if err != nil {
			checkErr = err
			envelope := errwrap.EnsureEnvelope(err)
			logger.Error(fmt.Sprintf("[5/%d] Checking platform connectivity... ❌ %s", totalChecks, envelope.Message),
				zap.String("error_code", envelope.Code),
				zap.String("correlation_id", envelope.CorrelationID))
			allChecks = false
		} else {
			logger.Info(fmt.Sprintf("[5/%d] Checking platform connectivity... ✅ %s (%s)", totalChecks, accountLabel(account), latency.Round(time.Millisecond)),
				zap.Duration("latency", latency),
				zap.String("account_id", account.ID))
		}
	} else if checkErr != nil {
		logger.Error(fmt.Sprintf("[5/%d] Checking platform connectivity... ❌ %v", totalChecks, checkErr))
		allChecks = false
	} else {
		logger.Warn(fmt.Sprintf("[5/%d] Checking platform connectivity... ⚠️  skipped", totalChecks))
	}

	// Check 6: Market data
	if svc != nil && checkErr == nil {
		quote, err := checkMarketData(commandContext(cmd), svc)
		if err != nil {
			checkErr = err
			envelope := errwrap.EnsureEnvelope(err)
			logger.Error(fmt.Sprintf("[6/%d] Checking market data... ❌ %s", totalChecks, envelope.Message),
				zap.String("error_code", envelope.Code),
				zap.String("correlation_id", envelope.CorrelationID))
			allChecks = false
		} else {
			logger.Info(fmt.Sprintf("[6/%d] Checking market data... ✅ %s %s", totalChecks, quote.Symbol, quote.Price.String()),
				zap.String("symbol", quote.Symbol))
		}
	} else {
		logger.Warn(fmt.Sprintf("[6/%d] Checking market data... ⚠️  skipped", totalChecks))
	}

	logger.Info("")
	if allChecks {
		logger.Info(fmt.Sprintf("✅ All checks passed! Your %s installation is healthy.", binaryName))
	} else {
		logger.Warn("⚠️  Some checks failed. Review the output above for details.")
	}
	logger.Info("")
	logger.Info("=== End Diagnostics ===")

	return checkErr
}

// doctorService builds a single-attempt service so checks report what the
// platform does right now.
func doctorService(state *appState) (*platform.Service, error) {
	apiCfg := state.cfg.APIConfig()
	apiCfg.Retry = &api.RetryPolicy{MaxRetries: 0}
	return buildService(state, apiCfg)
}

func checkConnectivity(ctx context.Context, svc *platform.Service) (*platform.Account, time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, doctorTimeout)
	defer cancel()

	started := time.Now()
	account, err := svc.VerifyCredentials(ctx)
	latency := time.Since(started)
	if err != nil {
		return nil, latency, err
	}
	return account, latency, nil
}

func checkMarketData(ctx context.Context, svc *platform.Service) (*platform.Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, doctorTimeout)
	defer cancel()
	return svc.Quote(ctx, doctorQuoteSymbol)
}

func accountLabel(account *platform.Account) string {
	label := account.Email
	if label == "" {
		label = account.ID
	}
	if account.Plan != "" {
		label = fmt.Sprintf("%s, %s plan", label, account.Plan)
	}
	return label
}

// resolvedConfigPath returns --config or the default path.
func resolvedConfigPath() string {
	if path := strings.TrimSpace(cfgFile); path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return path
		}
		return abs
	}
	return config.DefaultPath()
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func existenceStatus(exists bool) string {
	if exists {
		return "exists"
	}
	return "missing"
}

func envStatus(name string) string {
	if strings.TrimSpace(os.Getenv(name)) != "" {
		return "(set)"
	}
	return "(not set)"
}
