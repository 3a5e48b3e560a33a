// Package config loads and persists the client configuration.
//
// Values are resolved in three layers:
// Layer 1: built-in defaults
// Layer 2: the JSON config file ($XDG_CONFIG_HOME/tickerdesk/config.json)
// Layer 3: environment variables (TICKERDESK_*), including a local .env file
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/tickerdesk/tickerdesk/internal/output"
)

const (
	// AppName names the config directory.
	AppName = "tickerdesk"
	// EnvPrefix prefixes environment overrides.
	EnvPrefix = "TICKERDESK_"

	fileName = "config.json"
	fileMode = 0o600
	dirMode  = 0o700
)

// ErrConfigNotFound is returned when an explicitly requested config file does
// not exist.
var ErrConfigNotFound = errors.New("config file not found")

// EnvVarSpec defines environment variable mappings for config fields
// following the pattern: {PREFIX}{NAME} maps to config path
type EnvVarSpec = gfconfig.EnvVarSpec

// keyKind describes how `config set` parses a value.
type keyKind int

const (
	kindSecret keyKind = iota
	kindURL
	kindInt
	kindFloat
	kindDuration
	kindFormat
	kindLevel
	kindLogFormat
)

// keys lists every settable key.
var keys = map[string]keyKind{
	"api_key":                 kindSecret,
	"api_url":                 kindURL,
	"timeout":                 kindDuration,
	"retry.max_retries":       kindInt,
	"retry.base_delay":        kindDuration,
	"retry.max_delay":         kindDuration,
	"retry.multiplier":        kindFloat,
	"rate_limit.max_requests": kindInt,
	"rate_limit.window":       kindDuration,
	"display.format":          kindFormat,
	"display.precision":       kindInt,
	"display.limit":           kindInt,
	"logging.level":           kindLevel,
	"logging.format":          kindLogFormat,
}

// Store is the config file layer plus the resolved view over it. Only the
// file layer is written back by Save; environment overrides never are.
type Store struct {
	path     string
	explicit bool
	exists   bool
	file     *viper.Viper
}

// Keys returns the settable keys in sorted order.
func Keys() []string {
	names := make([]string, 0, len(keys))
	for name := range keys {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultPath returns the XDG-compliant path to the config file.
func DefaultPath() string {
	configDir := gfconfig.GetAppConfigDir(AppName)
	if strings.TrimSpace(configDir) == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fileName
		}
		return filepath.Join(home, "."+AppName, fileName)
	}
	return filepath.Join(configDir, fileName)
}

// Open reads the config file at path, or at DefaultPath when path is empty.
// A missing default file is not an error; a missing explicit file is.
func Open(path string) (*Store, error) {
	return open(path, false)
}

// OpenForWrite is like Open but accepts a missing explicit file, which Save
// will create.
func OpenForWrite(path string) (*Store, error) {
	return open(path, true)
}

func open(path string, allowMissing bool) (*Store, error) {
	loadDotEnv()

	store := &Store{
		path:     strings.TrimSpace(path),
		explicit: strings.TrimSpace(path) != "",
		file:     newFileLayer(),
	}
	if store.path == "" {
		store.path = DefaultPath()
	}
	store.file.SetConfigFile(store.path)

	if err := store.file.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) || isNotFound(err) {
			if store.explicit && !allowMissing {
				return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, store.path)
			}
			return store, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", store.path, err)
	}
	store.exists = true

	return store, nil
}

// Path returns the config file path.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether the config file was present when opened.
func (s *Store) Exists() bool {
	return s.exists
}

// Config resolves defaults, the file layer and environment overrides into a
// typed Config.
func (s *Store) Config() (*Config, error) {
	resolved, err := s.resolve()
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToFloat64HookFunc(),
	)
	if err := resolved.Unmarshal(cfg, viper.DecodeHook(decodeHook)); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.APIURL = strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}

	return cfg, nil
}

// Get returns the resolved value for key.
func (s *Store) Get(key string) (any, error) {
	key = normalizeKey(key)
	if _, ok := keys[key]; !ok {
		return nil, unknownKeyError(key)
	}
	resolved, err := s.resolve()
	if err != nil {
		return nil, err
	}
	return resolved.Get(key), nil
}

// Set validates value for key and stores it in the file layer.
func (s *Store) Set(key, value string) error {
	key = normalizeKey(key)
	kind, ok := keys[key]
	if !ok {
		return unknownKeyError(key)
	}

	parsed, err := parseValue(kind, strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	s.file.Set(key, parsed)
	return nil
}

// SetCredentials stores the API key and, when non-empty, the API URL.
func (s *Store) SetCredentials(apiKey, apiURL string) error {
	if strings.TrimSpace(apiKey) == "" {
		return errors.New("api key is required")
	}
	if err := s.Set("api_key", apiKey); err != nil {
		return err
	}
	if strings.TrimSpace(apiURL) != "" {
		return s.Set("api_url", apiURL)
	}
	return nil
}

// Settings returns the settable keys present in the file layer, keyed by
// dotted name. Defaults and environment overrides are not included.
func (s *Store) Settings() map[string]any {
	settings := make(map[string]any)
	for key := range keys {
		if s.file.IsSet(key) {
			settings[key] = s.file.Get(key)
		}
	}
	return settings
}

// Save writes the file layer to disk. The file is created with owner-only
// permissions and replaced atomically.
func (s *Store) Save() error {
	data, err := json.MarshalIndent(s.file.AllSettings(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+fileName+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp config file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // nolint:errcheck // no-op after a successful rename

	if err := tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to replace config file: %w", err)
	}

	s.exists = true
	return nil
}

func newFileLayer() *viper.Viper {
	v := viper.New()
	v.SetConfigType("json")
	return v
}

func (s *Store) resolve() (*viper.Viper, error) {
	resolved := viper.New()
	setDefaults(resolved)

	if err := resolved.MergeConfigMap(s.file.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to merge config file: %w", err)
	}

	envOverrides, err := gfconfig.LoadEnvOverrides(envSpecs())
	if err != nil {
		return nil, fmt.Errorf("failed to load environment overrides: %w", err)
	}
	if err := resolved.MergeConfigMap(envOverrides); err != nil {
		return nil, fmt.Errorf("failed to merge environment overrides: %w", err)
	}

	return resolved, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("api_key", "")
	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("timeout", "30s")

	// Retry defaults
	v.SetDefault("retry.max_retries", 3)
	v.SetDefault("retry.base_delay", "1s")
	v.SetDefault("retry.max_delay", "10s")
	v.SetDefault("retry.multiplier", 2.0)

	// Rate limiting is off unless max_requests is set
	v.SetDefault("rate_limit.max_requests", 0)
	v.SetDefault("rate_limit.window", "1m")

	// Display defaults
	v.SetDefault("display.format", string(output.FormatTable))
	v.SetDefault("display.precision", 2)
	v.SetDefault("display.limit", 20)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// envSpecs maps {PREFIX}{NAME} environment variables to config paths.
func envSpecs() []EnvVarSpec {
	return []EnvVarSpec{
		{Name: EnvPrefix + "API_KEY", Path: []string{"api_key"}, Type: gfconfig.EnvString},
		{Name: EnvPrefix + "API_URL", Path: []string{"api_url"}, Type: gfconfig.EnvString},
		// Duration fields are parsed as strings and converted by mapstructure decode hook
		{Name: EnvPrefix + "TIMEOUT", Path: []string{"timeout"}, Type: gfconfig.EnvString},
		{Name: EnvPrefix + "MAX_RETRIES", Path: []string{"retry", "max_retries"}, Type: gfconfig.EnvInt},
		{Name: EnvPrefix + "RATE_LIMIT_MAX_REQUESTS", Path: []string{"rate_limit", "max_requests"}, Type: gfconfig.EnvInt},
		{Name: EnvPrefix + "RATE_LIMIT_WINDOW", Path: []string{"rate_limit", "window"}, Type: gfconfig.EnvString},
		{Name: EnvPrefix + "FORMAT", Path: []string{"display", "format"}, Type: gfconfig.EnvString},
		{Name: EnvPrefix + "LOG_LEVEL", Path: []string{"logging", "level"}, Type: gfconfig.EnvString},
		{Name: EnvPrefix + "LOG_FORMAT", Path: []string{"logging", "format"}, Type: gfconfig.EnvString},
	}
}

// loadDotEnv loads .env from the working directory without overriding
// variables already set in the environment.
func loadDotEnv() {
	if _, err := os.Stat(".env"); err != nil {
		return
	}
	_ = godotenv.Load(".env")
}

func parseValue(kind keyKind, value string) (any, error) {
	switch kind {
	case kindSecret:
		if value == "" {
			return nil, errors.New("must not be empty")
		}
		return value, nil
	case kindURL:
		cfg := Config{APIURL: value, Display: DisplayConfig{Format: string(output.FormatTable)}}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return strings.TrimRight(value, "/"), nil
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("not an integer: %q", value)
		}
		if n < 0 {
			return nil, errors.New("must not be negative")
		}
		return n, nil
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", value)
		}
		return f, nil
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("not a duration: %q (e.g. 30s, 500ms)", value)
		}
		if d < 0 {
			return nil, errors.New("must not be negative")
		}
		return d.String(), nil
	case kindFormat:
		format, err := output.ParseFormat(value)
		if err != nil {
			return nil, err
		}
		return string(format), nil
	case kindLevel:
		level := strings.ToLower(value)
		switch level {
		case "debug", "info", "warn", "error":
			return level, nil
		default:
			return nil, fmt.Errorf("unknown level %q (want debug, info, warn or error)", value)
		}
	case kindLogFormat:
		format := strings.ToLower(value)
		if format != "text" && format != "json" {
			return nil, fmt.Errorf("unknown log format %q (want text or json)", value)
		}
		return format, nil
	default:
		return value, nil
	}
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func unknownKeyError(key string) error {
	return fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(Keys(), ", "))
}

func isNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound)
}
