package cmd

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/tickerdesk/tickerdesk/internal/api"
	errwrap "github.com/tickerdesk/tickerdesk/internal/errors"
)

// fakePlatform records requests and serves canned responses.
type fakePlatform struct {
	mu       sync.Mutex
	requests []string
	queries  map[string]string
	// holdings is served by /portfolio/holdings when set; otherwise the
	// route fails with a 500.
	holdings string
}

func (f *fakePlatform) record(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	if f.queries == nil {
		f.queries = make(map[string]string)
	}
	f.queries[r.URL.Path] = r.URL.RawQuery
}

func writeJSON(w http.ResponseWriter, status int, payload string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(payload))
}

func newFakePlatform(t *testing.T) (*httptest.Server, *fakePlatform) {
	t.Helper()

	fake := &fakePlatform{}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			fake.record(req)
			if req.Header.Get(api.APIKeyHeader) != "test-key" {
				writeJSON(w, http.StatusUnauthorized, `{"error":"unknown api key"}`)
				return
			}
			next.ServeHTTP(w, req)
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/prices", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, `{"quotes":[
				{"symbol":"BTC-USD","price":"64250.5","change_pct_24h":"1.25","updated_at":"2026-01-02T03:04:05Z"},
				{"symbol":"AAPL","price":"189.3","change_pct_24h":"-0.4","updated_at":"2026-01-02T03:04:05Z"}
			]}`)
		})
		r.Post("/watchlist", func(w http.ResponseWriter, req *http.Request) {
			var body map[string]string
			_ = json.NewDecoder(req.Body).Decode(&body)
			if body["symbol"] == "DOGE-USD" {
				writeJSON(w, http.StatusNotFound, `{"error":"unknown symbol"}`)
				return
			}
			writeJSON(w, http.StatusCreated, `{"symbol":"`+body["symbol"]+`"}`)
		})
		r.Get("/portfolio", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, `{"currency":"USD","total_value":"12500.75","cash":"2500"}`)
		})
		r.Get("/prices/{symbol}", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, `{"symbol":"`+chi.URLParam(req, "symbol")+`","price":"64250.5"}`)
		})
		r.Get("/portfolio/holdings", func(w http.ResponseWriter, req *http.Request) {
			fake.mu.Lock()
			holdings := fake.holdings
			fake.mu.Unlock()
			if holdings == "" {
				writeJSON(w, http.StatusInternalServerError, `{"error":"holdings unavailable"}`)
				return
			}
			writeJSON(w, http.StatusOK, holdings)
		})
		r.Post("/strategies/{id}/activate", func(w http.ResponseWriter, req *http.Request) {
			var body map[string]string
			_ = json.NewDecoder(req.Body).Decode(&body)
			writeJSON(w, http.StatusOK, `{"strategy_id":"`+chi.URLParam(req, "id")+`","symbol":"`+body["symbol"]+`","active":true,"status":"running"}`)
		})
		r.Post("/strategies/{id}/deactivate", func(w http.ResponseWriter, req *http.Request) {
			var body map[string]string
			_ = json.NewDecoder(req.Body).Decode(&body)
			writeJSON(w, http.StatusOK, `{"symbol":"`+body["symbol"]+`","active":false,"status":"stopped"}`)
		})
		r.Get("/auth/verify", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, `{"account":{"id":"acct_1","email":"dev@example.com","plan":"pro"}}`)
		})
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server, fake
}

// writeTestConfig writes a config file pointing at serverURL. Retries are off
// so failures surface immediately.
func writeTestConfig(t *testing.T, serverURL, apiKey string) string {
	t.Helper()
	settings := map[string]any{
		"api_url": serverURL,
		"retry":   map[string]any{"max_retries": 0},
	}
	if apiKey != "" {
		settings["api_key"] = apiKey
	}
	data, err := json.Marshal(settings)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

// resetFlags restores every flag in the tree to its default between runs.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if slice, ok := f.Value.(pflag.SliceValue); ok {
			_ = slice.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}

func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := Execute(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestPriceJSON(t *testing.T) {
	server, fake := newFakePlatform(t)
	cfgPath := writeTestConfig(t, server.URL, "test-key")

	stdout, _, err := executeCommand(t, "--config", cfgPath, "--format", "json", "price", "btc", "aapl", "BTC/USD")
	require.NoError(t, err)

	var quotes []map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &quotes))
	require.Len(t, quotes, 2)
	require.Equal(t, "BTC-USD", quotes[0]["symbol"])
	require.Equal(t, "symbols=BTC-USD%2CAAPL", fake.queries["/api/v1/prices"])
}

func TestPriceCSVToFile(t *testing.T) {
	server, _ := newFakePlatform(t)
	cfgPath := writeTestConfig(t, server.URL, "test-key")
	outPath := filepath.Join(t.TempDir(), "prices.csv")

	stdout, _, err := executeCommand(t, "--config", cfgPath, "-f", "csv", "-o", outPath, "price", "btc")
	require.NoError(t, err)
	require.Empty(t, stdout)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "SYMBOL,CLASS,PRICE"))
	require.Contains(t, string(data), `BTC-USD,crypto,"64,250.50"`)
}

func TestWatchlistAddPartialFailure(t *testing.T) {
	server, _ := newFakePlatform(t)
	cfgPath := writeTestConfig(t, server.URL, "test-key")

	stdout, stderr, err := executeCommand(t, "--config", cfgPath, "-f", "json", "watchlist", "add", "btc", "doge", "eth")
	require.Error(t, err)
	require.Equal(t, errwrap.CodePartialFailure, errwrap.EnsureEnvelope(err).Code)

	var rows []map[string]string
	require.NoError(t, json.Unmarshal([]byte(stdout), &rows))
	require.Equal(t, []map[string]string{
		{"symbol": "BTC-USD", "status": "Added"},
		{"symbol": "DOGE-USD", "status": "failed"},
		{"symbol": "ETH-USD", "status": "Added"},
	}, rows)
	require.Contains(t, stderr, "DOGE-USD: resource not found: unknown symbol")
}

func TestPortfolioRendersSummaryWhenHoldingsFail(t *testing.T) {
	server, _ := newFakePlatform(t)
	cfgPath := writeTestConfig(t, server.URL, "test-key")

	stdout, stderr, err := executeCommand(t, "--config", cfgPath, "portfolio")
	require.Error(t, err)
	require.Equal(t, "1 of 2 requests failed", errwrap.EnsureEnvelope(err).Message)
	require.Contains(t, stdout, "Portfolio (USD)")
	require.Contains(t, stdout, "12,500.75")
	require.NotContains(t, stdout, "Holdings")
	require.Contains(t, stderr, "holdings: server error (500): holdings unavailable")
}

func TestPortfolioCSVWritesOneSectionPerDataset(t *testing.T) {
	server, fake := newFakePlatform(t)
	fake.mu.Lock()
	fake.holdings = `{"holdings":[{"symbol":"BTC-USD","quantity":"0.5","average_cost":"60000","price":"64250.5","market_value":"32125.25"}]}`
	fake.mu.Unlock()
	cfgPath := writeTestConfig(t, server.URL, "test-key")

	stdout, _, err := executeCommand(t, "--config", cfgPath, "-f", "csv", "portfolio")
	require.NoError(t, err)

	sections := strings.Split(strings.TrimSuffix(stdout, "\n"), "\n\n")
	require.Len(t, sections, 2)

	summary, err := csv.NewReader(strings.NewReader(sections[0])).ReadAll()
	require.NoError(t, err)
	require.Equal(t, []string{"METRIC", "VALUE"}, summary[0])
	require.Equal(t, []string{"Total value", "12,500.75"}, summary[1])

	holdings, err := csv.NewReader(strings.NewReader(sections[1])).ReadAll()
	require.NoError(t, err)
	require.Len(t, holdings, 2)
	require.Equal(t, "SYMBOL", holdings[0][0])
	require.Equal(t, "BTC-USD", holdings[1][0])
	require.Equal(t, "64,250.50", holdings[1][3])
	require.Equal(t, "32,125.25", holdings[1][4])
}

func TestStrategiesActivateAcrossSymbols(t *testing.T) {
	server, fake := newFakePlatform(t)
	cfgPath := writeTestConfig(t, server.URL, "test-key")

	stdout, _, err := executeCommand(t, "--config", cfgPath, "-f", "json", "strategies", "activate", "momentum", "btc", "eth")
	require.NoError(t, err)

	var activations []map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &activations))
	require.Len(t, activations, 2)
	require.Equal(t, "momentum", activations[0]["strategy_id"])
	require.Equal(t, true, activations[1]["active"])
	require.Contains(t, fake.requests, "POST /api/v1/strategies/momentum/activate")
}

func TestStrategiesDeactivateFillsStrategyID(t *testing.T) {
	server, fake := newFakePlatform(t)
	cfgPath := writeTestConfig(t, server.URL, "test-key")

	stdout, _, err := executeCommand(t, "--config", cfgPath, "-f", "json", "strategies", "deactivate", "momentum", "eth")
	require.NoError(t, err)

	var activations []map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &activations))
	require.Len(t, activations, 1)
	require.Equal(t, "momentum", activations[0]["strategy_id"])
	require.Equal(t, "ETH-USD", activations[0]["symbol"])
	require.Equal(t, false, activations[0]["active"])
	require.Contains(t, fake.requests, "POST /api/v1/strategies/momentum/deactivate")
	require.NotContains(t, fake.requests, "POST /api/v1/strategies/momentum/activate")
}

func TestMissingCredentials(t *testing.T) {
	server, fake := newFakePlatform(t)
	cfgPath := writeTestConfig(t, server.URL, "")

	_, _, err := executeCommand(t, "--config", cfgPath, "price", "btc")
	require.Error(t, err)
	require.Equal(t, errwrap.CodeMissingCredentials, errwrap.EnsureEnvelope(err).Code)
	require.Empty(t, fake.requests)
}

func TestUnauthorizedMapsToEnvelope(t *testing.T) {
	server, _ := newFakePlatform(t)
	cfgPath := writeTestConfig(t, server.URL, "wrong-key")

	_, _, err := executeCommand(t, "--config", cfgPath, "price", "btc")
	require.Error(t, err)
	envelope := errwrap.EnsureEnvelope(err)
	require.Equal(t, errwrap.CodeUnauthorized, envelope.Code)
	require.Equal(t, "invalid credentials: unknown api key", envelope.Message)
	require.NotEmpty(t, envelope.CorrelationID)
}

func TestExplicitConfigMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.json")

	_, _, err := executeCommand(t, "--config", missing, "price", "btc")
	require.Error(t, err)
	require.Equal(t, errwrap.CodeConfigNotFound, errwrap.EnsureEnvelope(err).Code)

	// version runs without any config
	stdout, _, err := executeCommand(t, "--config", missing, "version")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(stdout, "tickerdesk "))
}

func TestInvalidFormatFlag(t *testing.T) {
	server, _ := newFakePlatform(t)
	cfgPath := writeTestConfig(t, server.URL, "test-key")

	_, _, err := executeCommand(t, "--config", cfgPath, "--format", "xml", "price", "btc")
	require.Error(t, err)
	require.Equal(t, errwrap.CodeInvalidInput, errwrap.EnsureEnvelope(err).Code)
}

func TestConfigSetAndGet(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "tickerdesk", "config.json")

	_, _, err := executeCommand(t, "--config", cfgPath, "config", "set", "display.format", "csv")
	require.NoError(t, err)

	info, err := os.Stat(cfgPath)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	stdout, _, err := executeCommand(t, "--config", cfgPath, "config", "get", "display.format")
	require.NoError(t, err)
	require.Equal(t, "csv\n", stdout)

	_, _, err = executeCommand(t, "--config", cfgPath, "config", "set", "retry.max_retries", "many")
	require.Error(t, err)

	stdout, _, err = executeCommand(t, "--config", cfgPath, "config", "path")
	require.NoError(t, err)
	require.Equal(t, cfgPath+"\n", stdout)
}

func TestLoginVerifiesAndSaves(t *testing.T) {
	server, fake := newFakePlatform(t)
	cfgPath := filepath.Join(t.TempDir(), "config.json")

	_, _, err := executeCommand(t, "--config", cfgPath, "--api-url", server.URL, "login", "--api-key", "wrong-key")
	require.Error(t, err)
	require.Equal(t, errwrap.CodeUnauthorized, errwrap.EnsureEnvelope(err).Code)
	_, statErr := os.Stat(cfgPath)
	require.True(t, os.IsNotExist(statErr))

	_, _, err = executeCommand(t, "--config", cfgPath, "--api-url", server.URL, "login", "--api-key", "test-key")
	require.NoError(t, err)
	require.Contains(t, fake.requests, "GET /api/v1/auth/verify")

	stdout, _, err := executeCommand(t, "--config", cfgPath, "config", "show", "--yaml")
	require.NoError(t, err)
	require.Contains(t, stdout, "********-key")
	require.Contains(t, stdout, server.URL)
	require.NotContains(t, stdout, "test-key")
}

func TestConfigShowFileLayer(t *testing.T) {
	server, _ := newFakePlatform(t)
	cfgPath := writeTestConfig(t, server.URL, "test-key")
	t.Setenv("TICKERDESK_TIMEOUT", "5s")

	stdout, _, err := executeCommand(t, "--config", cfgPath, "-f", "json", "config", "show", "--file")
	require.NoError(t, err)

	var settings map[string]string
	require.NoError(t, json.Unmarshal([]byte(stdout), &settings))
	require.Equal(t, map[string]string{
		"api_key":           "********-key",
		"api_url":           server.URL,
		"retry.max_retries": "0",
	}, settings)

	stdout, _, err = executeCommand(t, "--config", cfgPath, "-f", "json", "config", "show")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(stdout), &settings))
	require.Equal(t, "5s", settings["timeout"])
}

func TestDoctorQuotesMarketData(t *testing.T) {
	server, fake := newFakePlatform(t)
	cfgPath := writeTestConfig(t, server.URL, "test-key")

	_, _, err := executeCommand(t, "--config", cfgPath, "doctor")
	require.NoError(t, err)
	require.Contains(t, fake.requests, "GET /api/v1/auth/verify")
	require.Contains(t, fake.requests, "GET /api/v1/prices/"+doctorQuoteSymbol)
}

func TestDoctorSkipsMarketDataWhenUnauthorized(t *testing.T) {
	server, fake := newFakePlatform(t)
	cfgPath := writeTestConfig(t, server.URL, "wrong-key")

	_, _, err := executeCommand(t, "--config", cfgPath, "doctor")
	require.Error(t, err)
	require.Equal(t, errwrap.CodeUnauthorized, errwrap.EnsureEnvelope(err).Code)
	require.NotContains(t, fake.requests, "GET /api/v1/prices/"+doctorQuoteSymbol)
}
