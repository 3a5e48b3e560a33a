package cmd

import (
	"fmt"
	"runtime"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tickerdesk/tickerdesk/internal/config"
	"github.com/tickerdesk/tickerdesk/internal/observability"
)

var envInfoCmd = &cobra.Command{
	Use:         "envinfo",
	Short:       "Display environment information",
	Long:        "Display environment, configuration, and version information.",
	Annotations: map[string]string{annotationConfig: configNotRequired},
	Run: func(cmd *cobra.Command, args []string) {
		logger := observability.CLILogger
		version := crucible.GetVersion()

		logger.Info("=== tickerdesk Environment Information ===")
		logger.Info("")

		// Application Info
		logger.Info("Application:")
		logger.Info("  Name:       " + binaryName)
		logger.Info("  Version:    " + versionInfo.Version)
		logger.Info("  Commit:     " + versionInfo.Commit)
		logger.Info("  Built:      " + versionInfo.BuildDate)
		logger.Info("  User-Agent: " + userAgent())
		logger.Info("")

		// SSOT Info
		logger.Info("SSOT:")
		logger.Info("  Gofulmen:   "+version.Gofulmen, zap.String("gofulmen_version", version.Gofulmen))
		logger.Info("  Crucible:   "+version.Crucible, zap.String("crucible_version", version.Crucible))
		logger.Info("")

		// Runtime Info
		logger.Info("Runtime:")
		logger.Info("  Go Version: "+runtime.Version(), zap.String("go_version", runtime.Version()))
		logger.Info("  GOOS:       "+runtime.GOOS, zap.String("goos", runtime.GOOS))
		logger.Info("  GOARCH:     "+runtime.GOARCH, zap.String("goarch", runtime.GOARCH))
		logger.Info(fmt.Sprintf("  NumCPU:     %d", runtime.NumCPU()), zap.Int("num_cpu", runtime.NumCPU()))
		logger.Info("")

		state, err := currentApp()
		if err != nil {
			logger.Warn("Config load failed", zap.Error(err))
			return
		}
		cfg := state.cfg

		// Configuration
		logger.Info("Configuration:")
		logger.Info(fmt.Sprintf("  Config File:    %s (%s)", state.store.Path(), existenceStatus(state.store.Exists())),
			zap.String("config_file", state.store.Path()))
		logger.Info("  API URL:        "+cfg.APIURL, zap.String("api_url", cfg.APIURL))
		logger.Info("  API Key:        "+apiKeyStatus(cfg), zap.Bool("api_key_set", cfg.HasCredentials()))
		logger.Info("  Timeout:        "+cfg.Timeout.String(), zap.Duration("timeout", cfg.Timeout))
		logger.Info("  Log Level:      "+cfg.Logging.Level, zap.String("log_level", cfg.Logging.Level))
		logger.Info("  Log Format:     "+cfg.Logging.Format, zap.String("log_format", cfg.Logging.Format))
		logger.Info("  Output Format:  "+string(state.format), zap.String("format", string(state.format)))
		logger.Info("")

		// Request policy
		logger.Info("Requests:")
		logger.Info(fmt.Sprintf("  Max Retries:    %d", cfg.Retry.MaxRetries), zap.Int("max_retries", cfg.Retry.MaxRetries))
		logger.Info("  Base Delay:     "+cfg.Retry.BaseDelay.String(), zap.Duration("base_delay", cfg.Retry.BaseDelay))
		logger.Info("  Max Delay:      "+cfg.Retry.MaxDelay.String(), zap.Duration("max_delay", cfg.Retry.MaxDelay))
		logger.Info(fmt.Sprintf("  Multiplier:     %g", cfg.Retry.Multiplier), zap.Float64("multiplier", cfg.Retry.Multiplier))
		if cfg.RateLimit.MaxRequests > 0 {
			logger.Info(fmt.Sprintf("  Rate Limit:     %d per %s", cfg.RateLimit.MaxRequests, cfg.RateLimit.Window),
				zap.Int("rate_limit_max_requests", cfg.RateLimit.MaxRequests),
				zap.Duration("rate_limit_window", cfg.RateLimit.Window))
		} else {
			logger.Info("  Rate Limit:     off")
		}
		logger.Info("")

		// Environment overrides
		logger.Info("Environment:")
		for _, name := range []string{"API_KEY", "API_URL", "TIMEOUT", "FORMAT", "LOG_LEVEL"} {
			logger.Info(fmt.Sprintf("  %s%s: %s", config.EnvPrefix, name, envStatus(config.EnvPrefix+name)))
		}
		logger.Info("")

		logger.Info("=== End Environment Information ===")
	},
}

func init() {
	rootCmd.AddCommand(envInfoCmd)
}

func apiKeyStatus(cfg *config.Config) string {
	if !cfg.HasCredentials() {
		return "(not set)"
	}
	return cfg.MaskedAPIKey()
}
