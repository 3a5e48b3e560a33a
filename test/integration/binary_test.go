package integration

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/go-chi/chi/v5"
)

func buildBinary(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("binary exec test is unix-focused")
	}
	goModPathBytes, err := exec.Command("go", "env", "GOMOD").Output()
	if err != nil {
		t.Fatalf("go env GOMOD: %v", err)
	}
	goModPath := strings.TrimSpace(string(goModPathBytes))
	if goModPath == "" {
		t.Fatalf("go env GOMOD returned empty")
	}
	repoRoot := filepath.Dir(goModPath)

	binaryPath := filepath.Join(t.TempDir(), "tickerdesk")
	build := exec.Command("go", "build", "-o", binaryPath, "./cmd/tickerdesk")
	build.Dir = repoRoot
	build.Env = os.Environ()
	if out, err := build.CombinedOutput(); err != nil {
		t.Fatalf("go build: %v\n%s", err, string(out))
	}
	return binaryPath
}

// isolatedEnv points config lookups at an empty directory and clears
// TICKERDESK_* variables from the parent environment.
func isolatedEnv(t *testing.T, extra ...string) []string {
	t.Helper()
	env := make([]string, 0, len(os.Environ())+len(extra)+1)
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "TICKERDESK_") || strings.HasPrefix(kv, "XDG_CONFIG_HOME=") {
			continue
		}
		env = append(env, kv)
	}
	env = append(env, "XDG_CONFIG_HOME="+t.TempDir())
	return append(env, extra...)
}

func run(t *testing.T, binary string, env []string, args ...string) (string, int) {
	t.Helper()
	command := exec.Command(binary, args...)
	command.Dir = t.TempDir()
	command.Env = env
	out, err := command.CombinedOutput()
	if err == nil {
		return string(out), 0
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("run %v: %v\n%s", args, err, string(out))
	}
	return string(out), exitErr.ExitCode()
}

func fakePlatform(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.Header.Get("X-API-Key") != "good-key" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"bad key"}`))
				return
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Get("/api/v1/prices", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Query().Get("symbols") != "BTC-USD,AAPL" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"unexpected symbols ` + req.URL.Query().Get("symbols") + `"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"quotes":[
			{"symbol":"BTC-USD","price":"64250.5","change_pct_24h":"1.25","updated_at":"2026-01-02T03:04:05Z"},
			{"symbol":"AAPL","price":"189.3","change_pct_24h":"-0.4","updated_at":"2026-01-02T03:04:05Z"}
		]}`))
	})
	r.Get("/api/v1/auth/verify", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"account":{"id":"acct_1","email":"dev@example.com","plan":"pro"}}`))
	})
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

func TestBinaryVersionAndHelpWithoutConfig(t *testing.T) {
	binary := buildBinary(t)
	env := isolatedEnv(t)

	out, code := run(t, binary, env, "version")
	if code != 0 || !strings.HasPrefix(out, "tickerdesk ") {
		t.Fatalf("version: exit %d\n%s", code, out)
	}

	if out, code := run(t, binary, env, "--help"); code != 0 {
		t.Fatalf("--help: exit %d\n%s", code, out)
	}
}

func TestBinaryPriceAgainstFakePlatform(t *testing.T) {
	binary := buildBinary(t)
	server := fakePlatform(t)

	env := isolatedEnv(t, "TICKERDESK_API_KEY=good-key")
	out, code := run(t, binary, env, "--api-url", server.URL, "--format", "csv", "price", "btc", "aapl")
	if code != 0 {
		t.Fatalf("price: exit %d\n%s", code, out)
	}
	if !strings.Contains(out, "BTC-USD") || !strings.Contains(out, "64,250.50") {
		t.Fatalf("price output missing quote:\n%s", out)
	}
}

func TestBinaryExitCodes(t *testing.T) {
	binary := buildBinary(t)
	server := fakePlatform(t)

	// No API key anywhere
	out, code := run(t, binary, isolatedEnv(t), "--api-url", server.URL, "price", "btc")
	if code != int(foundry.ExitConfigInvalid) || !strings.Contains(out, "no API key configured") {
		t.Fatalf("missing key: exit %d\n%s", code, out)
	}

	// Rejected API key
	out, code = run(t, binary, isolatedEnv(t, "TICKERDESK_API_KEY=bad-key"), "--api-url", server.URL, "price", "btc")
	if code != int(foundry.ExitConfigInvalid) || !strings.Contains(out, "invalid credentials") {
		t.Fatalf("bad key: exit %d\n%s", code, out)
	}

	// Explicit config file that does not exist
	missing := filepath.Join(t.TempDir(), "missing.json")
	out, code = run(t, binary, isolatedEnv(t, "TICKERDESK_API_KEY=good-key"), "--config", missing, "price", "btc")
	if code != int(foundry.ExitFileNotFound) {
		t.Fatalf("missing config: exit %d\n%s", code, out)
	}
}

func TestBinaryLoginWritesPrivateConfig(t *testing.T) {
	binary := buildBinary(t)
	server := fakePlatform(t)

	configPath := filepath.Join(t.TempDir(), "tickerdesk", "config.json")
	env := isolatedEnv(t)
	out, code := run(t, binary, env, "--config", configPath, "--api-url", server.URL, "login", "--api-key", "good-key")
	if code != 0 {
		t.Fatalf("login: exit %d\n%s", code, out)
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("stat config: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("config permissions = %o, want 600", perm)
	}

	out, code = run(t, binary, env, "--config", configPath, "config", "get", "api_key")
	if code != 0 || strings.Contains(out, "good-key") {
		t.Fatalf("config get api_key should be masked: exit %d\n%s", code, out)
	}
}
