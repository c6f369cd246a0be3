package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rigado/mgmt"
	"github.com/sirupsen/logrus"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "mgmtctl.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvConfig, "")
	t.Setenv(EnvLogLevel, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Transport.ChunkSize != mgmt.DefaultChunkSize {
		t.Fatalf("unexpected chunk size %d", cfg.Transport.ChunkSize)
	}
	if cfg.Transport.RetryIntervalMs != 10 || cfg.Transport.MaxRetryTimeMs != 1000 {
		t.Fatalf("unexpected retry timing %+v", cfg.Transport)
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	p := writeConfig(t, `
transport:
  chunkSize: 256
  maxResponseSize: 4096
  maxRetryTimeMs: 500
  retryIntervalMs: 20
log:
  level: debug
  format: json
`)

	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := TransportConfig{ChunkSize: 256, MaxResponseSize: 4096, MaxRetryTimeMs: 500, RetryIntervalMs: 20}
	if cfg.Transport != want {
		t.Fatalf("got %+v, want %+v", cfg.Transport, want)
	}

	l, err := cfg.Logger()
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	if l.Level != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %v", l.Level)
	}
	if _, ok := l.Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatalf("expected json formatter, got %T", l.Formatter)
	}

	if _, err := mgmt.New(cfg.Options()...); err != nil {
		t.Fatalf("options rejected by transport: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	p := writeConfig(t, "transport:\n  chunkSize: 64\n")
	t.Setenv(EnvConfig, p)
	t.Setenv(EnvLogLevel, "warning")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Transport.ChunkSize != 64 {
		t.Fatalf("expected chunk size from env file, got %d", cfg.Transport.ChunkSize)
	}
	if cfg.Transport.MaxResponseSize != mgmt.DefaultMaxResponseSize {
		t.Fatalf("unset fields should keep defaults, got %d", cfg.Transport.MaxResponseSize)
	}
	if cfg.Log.Level != "warning" {
		t.Fatalf("expected env log level override, got %q", cfg.Log.Level)
	}
}

func TestLoadRejects(t *testing.T) {
	t.Setenv(EnvLogLevel, "")

	cases := map[string]string{
		"unknown field":  "transport:\n  chunk: 1\n",
		"zero interval":  "transport:\n  retryIntervalMs: 0\n",
		"short budget":   "transport:\n  maxRetryTimeMs: 5\n  retryIntervalMs: 10\n",
		"small max size": "transport:\n  chunkSize: 2048\n  maxResponseSize: 1024\n",
		"bad level":      "log:\n  level: loud\n",
		"bad format":     "log:\n  format: xml\n",
	}
	for name, body := range cases {
		if _, err := Load(writeConfig(t, body)); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "failed to load config") {
		t.Fatalf("expected load failure for missing file, got %v", err)
	}
}
