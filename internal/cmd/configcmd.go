package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/tickerdesk/tickerdesk/internal/config"
	errwrap "github.com/tickerdesk/tickerdesk/internal/errors"
	"github.com/tickerdesk/tickerdesk/internal/observability"
	"github.com/tickerdesk/tickerdesk/internal/output"
)

var (
	configShowYAML bool
	configShowFile bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and change stored settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective settings (API key masked)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := currentApp()
		if err != nil {
			return err
		}
		var settings map[string]string
		if configShowFile {
			settings = fileSettings(state.store)
		} else {
			settings, err = effectiveSettings(state.store)
			if err != nil {
				return err
			}
		}
		if configShowYAML {
			data, err := yaml.Marshal(settings)
			if err != nil {
				return errwrap.WrapDataProcessing(err, "failed to encode settings")
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		return render(cmd, settingsDataset(state.store.Path(), settings))
	},
}

var configPathCmd = &cobra.Command{
	Use:         "path",
	Short:       "Print the config file path",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationConfig: configMayBeMissing},
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := currentApp()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), state.store.Path())
		return err
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one effective setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := currentApp()
		if err != nil {
			return err
		}
		value, err := state.store.Get(args[0])
		if err != nil {
			return errwrap.WrapInvalidInput(err, err.Error())
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), displaySetting(args[0], value))
		return err
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting in the config file",
	Long: `Change a setting in the config file.

Keys:
  ` + strings.Join(config.Keys(), "\n  "),
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{annotationConfig: configMayBeMissing},
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := currentApp()
		if err != nil {
			return err
		}
		if err := state.store.Set(args[0], args[1]); err != nil {
			return errwrap.WrapInvalidInput(err, err.Error())
		}
		if err := state.store.Save(); err != nil {
			return err
		}
		observability.CLILogger.Debug("Config updated",
			zap.String("key", args[0]),
			zap.String("path", state.store.Path()))
		printMessage(cmd, "Set %s in %s", strings.ToLower(strings.TrimSpace(args[0])), state.store.Path())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)

	configShowCmd.Flags().BoolVar(&configShowYAML, "yaml", false, "print settings as YAML")
	configShowCmd.Flags().BoolVar(&configShowFile, "file", false, "show only settings stored in the config file")
}

// effectiveSettings resolves every settable key, masking the API key.
func effectiveSettings(store *config.Store) (map[string]string, error) {
	settings := make(map[string]string, len(config.Keys()))
	for _, key := range config.Keys() {
		value, err := store.Get(key)
		if err != nil {
			return nil, err
		}
		settings[key] = displaySetting(key, value)
	}
	return settings, nil
}

// fileSettings returns the keys stored in the config file, masking the API key.
func fileSettings(store *config.Store) map[string]string {
	stored := store.Settings()
	settings := make(map[string]string, len(stored))
	for key, value := range stored {
		settings[key] = displaySetting(key, value)
	}
	return settings
}

func displaySetting(key string, value any) string {
	text := ""
	if value != nil {
		text = fmt.Sprint(value)
	}
	if strings.EqualFold(strings.TrimSpace(key), "api_key") {
		if strings.TrimSpace(text) == "" {
			return "(not set)"
		}
		return config.MaskSecret(text)
	}
	return text
}

func settingsDataset(path string, settings map[string]string) *output.Dataset {
	ds := &output.Dataset{
		Title:   "Configuration",
		Columns: []string{"KEY", "VALUE"},
		Notes:   []string{"Config file: " + path},
		Raw:     settings,
	}
	for _, key := range config.Keys() {
		if value, ok := settings[key]; ok {
			ds.AddRow(key, value)
		}
	}
	return ds
}
