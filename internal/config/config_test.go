package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func loadConfig(path string) (*Config, error) {
	store, err := Open(path)
	if err != nil {
		return nil, err
	}
	return store.Config()
}

func TestStoreSettingsFileLayerOnly(t *testing.T) {
	t.Setenv("TICKERDESK_TIMEOUT", "5s")
	store, err := Open(writeConfig(t, `{"api_key":"k","display":{"precision":4}}`))
	require.NoError(t, err)

	settings := store.Settings()
	require.Len(t, settings, 2)
	require.Equal(t, "k", settings["api_key"])
	require.EqualValues(t, 4, settings["display.precision"])
	require.NotContains(t, settings, "timeout")

	require.NoError(t, store.Set("display.format", "csv"))
	require.Equal(t, "csv", store.Settings()["display.format"])
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	store, err := Open("")
	require.NoError(t, err)
	require.False(t, store.Exists())
	require.True(t, strings.HasSuffix(store.Path(), "config.json"))

	cfg, err := store.Config()
	require.NoError(t, err)

	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, "", cfg.APIKey)
	assert.False(t, cfg.HasCredentials())
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
	assert.Equal(t, time.Second, cfg.Retry.BaseDelay)
	assert.Equal(t, 10*time.Second, cfg.Retry.MaxDelay)
	assert.Equal(t, 2.0, cfg.Retry.Multiplier)
	assert.Equal(t, 0, cfg.RateLimit.MaxRequests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, "table", cfg.Display.Format)
	assert.Equal(t, 2, cfg.Display.Precision)
	assert.Equal(t, 20, cfg.Display.Limit)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	require.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `{
		"api_key": "file-key",
		"api_url": "https://staging.example.com/",
		"timeout": "5s",
		"retry": {"max_retries": 1, "base_delay": "250ms"},
		"rate_limit": {"max_requests": 10, "window": "1s"},
		"display": {"format": "csv"}
	}`)

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.APIKey)
	assert.Equal(t, "https://staging.example.com", cfg.APIURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 1, cfg.Retry.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.BaseDelay)
	assert.Equal(t, 10*time.Second, cfg.Retry.MaxDelay)
	assert.Equal(t, 10, cfg.RateLimit.MaxRequests)
	assert.Equal(t, time.Second, cfg.RateLimit.Window)
	assert.Equal(t, "csv", cfg.Display.Format)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorIs(t, err, ErrConfigNotFound)
}

func TestOpenForWriteAcceptsMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.json")
	store, err := OpenForWrite(path)
	require.NoError(t, err)
	require.False(t, store.Exists())
	require.Equal(t, path, store.Path())

	require.NoError(t, store.Set("logging.format", "json"))
	require.NoError(t, store.Save())

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeConfig(t, `{"api_key": `)
	_, err := Open(path)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrConfigNotFound)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `{"api_key": "file-key", "api_url": "https://file.example.com"}`)
	t.Setenv("TICKERDESK_API_KEY", "env-key")
	t.Setenv("TICKERDESK_RATE_LIMIT_MAX_REQUESTS", "5")
	t.Setenv("TICKERDESK_RATE_LIMIT_WINDOW", "2s")

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.APIKey)
	assert.Equal(t, "https://file.example.com", cfg.APIURL)
	assert.Equal(t, 5, cfg.RateLimit.MaxRequests)
	assert.Equal(t, 2*time.Second, cfg.RateLimit.Window)
}

func TestEnvOverrideIsNotSaved(t *testing.T) {
	path := writeConfig(t, `{"api_key": "file-key"}`)
	t.Setenv("TICKERDESK_API_KEY", "env-key")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Set("display.limit", "50"))
	require.NoError(t, store.Save())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "file-key")
	require.NotContains(t, string(data), "env-key")
}

func TestDotEnvLoaded(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TICKERDESK_LOG_LEVEL=debug\n"), 0o600))
	t.Chdir(dir)
	t.Cleanup(func() { _ = os.Unsetenv("TICKERDESK_LOG_LEVEL") })

	cfg, err := loadConfig(writeConfig(t, `{}`))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	store := &Store{path: path, file: newFileLayer()}

	require.NoError(t, store.SetCredentials("secret-key-1234", "https://api.example.com/"))
	require.NoError(t, store.Set("timeout", "45s"))
	require.NoError(t, store.Set("display.format", "JSON"))
	require.NoError(t, store.Save())
	require.True(t, store.Exists())

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "secret-key-1234", cfg.APIKey)
	assert.Equal(t, "https://api.example.com", cfg.APIURL)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
	assert.Equal(t, "json", cfg.Display.Format)
	assert.Equal(t, "********1234", cfg.MaskedAPIKey())
}

func TestSetRejectsInvalidValues(t *testing.T) {
	store := &Store{path: filepath.Join(t.TempDir(), "config.json"), file: newFileLayer()}

	cases := map[string]string{
		"timeout":           "soon",
		"retry.max_retries": "-1",
		"display.format":    "markdown",
		"api_url":           "ftp://example.com",
		"logging.level":     "verbose",
		"api_key":           " ",
	}
	for key, value := range cases {
		require.Error(t, store.Set(key, value), key)
	}

	err := store.Set("nope", "1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "valid keys")
}

func TestGetResolvedValue(t *testing.T) {
	path := writeConfig(t, `{"display": {"limit": 7}}`)
	store, err := Open(path)
	require.NoError(t, err)

	value, err := store.Get("display.limit")
	require.NoError(t, err)
	require.EqualValues(t, 7, value)

	value, err = store.Get("DISPLAY.FORMAT")
	require.NoError(t, err)
	require.Equal(t, "table", value)

	_, err = store.Get("server.port")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, `{}`))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	cfg.RateLimit.MaxRequests = 3
	cfg.RateLimit.Window = 0
	require.Error(t, cfg.Validate())

	cfg.RateLimit.Window = time.Second
	cfg.APIURL = "not a url"
	require.Error(t, cfg.Validate())
}

func TestAPIConfig(t *testing.T) {
	cfg := &Config{
		APIKey:  " key ",
		APIURL:  "https://api.example.com",
		Timeout: 2 * time.Second,
		Retry:   RetryConfig{MaxRetries: 2, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 3},
	}

	apiCfg := cfg.APIConfig()
	require.Equal(t, "key", apiCfg.APIKey)
	require.Equal(t, 2*time.Second, apiCfg.Timeout)
	require.Nil(t, apiCfg.RateLimit)
	require.Equal(t, 2, apiCfg.Retry.MaxRetries)
	require.Equal(t, 3.0, apiCfg.Retry.Multiplier)

	cfg.RateLimit = RateLimitConfig{MaxRequests: 5, Window: time.Second}
	require.NotNil(t, cfg.APIConfig().RateLimit)
}

func TestMaskSecret(t *testing.T) {
	require.Equal(t, "", MaskSecret(""))
	require.Equal(t, "***", MaskSecret("abc"))
	require.Equal(t, "********wxyz", MaskSecret("abcdefwxyz"))
}
