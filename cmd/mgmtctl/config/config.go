package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rigado/mgmt"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// EnvConfig names a YAML file to load when no path is given explicitly.
const EnvConfig = "MGMTCTL_CONFIG"

// EnvLogLevel overrides log.level.
const EnvLogLevel = "MGMTCTL_LOG_LEVEL"

// Config is the mgmtctl configuration file.
type Config struct {
	Transport TransportConfig `yaml:"transport"`
	Log       LogConfig       `yaml:"log"`
}

// TransportConfig tunes the control-channel transport
type TransportConfig struct {
	ChunkSize       int `yaml:"chunkSize"`
	MaxResponseSize int `yaml:"maxResponseSize"`
	MaxRetryTimeMs  int `yaml:"maxRetryTimeMs"`
	RetryIntervalMs int `yaml:"retryIntervalMs"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// Default returns the built-in configuration, matching the transport's own
// defaults.
func Default() *Config {
	return &Config{
		Transport: TransportConfig{
			ChunkSize:       mgmt.DefaultChunkSize,
			MaxResponseSize: mgmt.DefaultMaxResponseSize,
			MaxRetryTimeMs:  int(mgmt.DefaultMaxRetryTime / time.Millisecond),
			RetryIntervalMs: int(mgmt.DefaultRetryInterval / time.Millisecond),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path, or the file named by MGMTCTL_CONFIG when path is empty,
// over the defaults. With neither set the defaults are returned. Environment
// overrides are applied last, then the result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfig)
	}

	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %v", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %v", err)
	}

	return cfg, nil
}

func loadFromFile(cfg *Config, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	return yaml.UnmarshalStrict(data, cfg)
}

func applyEnvOverrides(cfg *Config) {
	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		cfg.Log.Level = lvl
	}
}

// Validate checks the configuration for values the transport would reject.
func (c *Config) Validate() error {
	t := c.Transport
	if t.ChunkSize <= 0 {
		return fmt.Errorf("transport.chunkSize must be positive, got %d", t.ChunkSize)
	}
	if t.MaxResponseSize < t.ChunkSize {
		return fmt.Errorf("transport.maxResponseSize (%d) must be at least chunkSize (%d)", t.MaxResponseSize, t.ChunkSize)
	}
	if t.RetryIntervalMs <= 0 {
		return fmt.Errorf("transport.retryIntervalMs must be positive, got %d", t.RetryIntervalMs)
	}
	if t.MaxRetryTimeMs < t.RetryIntervalMs {
		return fmt.Errorf("transport.maxRetryTimeMs (%d) must be at least retryIntervalMs (%d)", t.MaxRetryTimeMs, t.RetryIntervalMs)
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// Options converts the transport section into transport options.
func (c *Config) Options() []mgmt.Option {
	t := c.Transport
	return []mgmt.Option{
		mgmt.OptChunkSize(t.ChunkSize),
		mgmt.OptMaxResponseSize(t.MaxResponseSize),
		mgmt.OptMaxRetryTime(time.Duration(t.MaxRetryTimeMs) * time.Millisecond),
		mgmt.OptRetryInterval(time.Duration(t.RetryIntervalMs) * time.Millisecond),
	}
}

// Logger builds a logrus logger writing to stderr from the log section.
func (c *Config) Logger() (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}

	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(lvl)
	if strings.ToLower(c.Log.Format) == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}
	return l, nil
}
