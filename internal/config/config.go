package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	logpkg "github.com/rzbill/rendezq/pkg/log"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	// ListenAddr is the TCP address of the queue protocol.
	ListenAddr string `json:"listenAddr" toml:"listenAddr" yaml:"listenAddr"`
	// HealthAddr serves grpc.health.v1; empty disables it.
	HealthAddr string `json:"healthAddr" toml:"healthAddr" yaml:"healthAddr"`
	// MetricsAddr serves Prometheus metrics over HTTP; empty disables it.
	MetricsAddr string `json:"metricsAddr" toml:"metricsAddr" yaml:"metricsAddr"`

	MaxSessions      int   `json:"maxSessions" toml:"maxSessions" yaml:"maxSessions"`
	AdmissionWaitMs  int64 `json:"admissionWaitMs" toml:"admissionWaitMs" yaml:"admissionWaitMs"`
	DrainTimeoutMs   int64 `json:"drainTimeoutMs" toml:"drainTimeoutMs" yaml:"drainTimeoutMs"`
	DefaultTimeoutMs int64 `json:"defaultTimeoutMs" toml:"defaultTimeoutMs" yaml:"defaultTimeoutMs"`
	HealthProbeMs    int64 `json:"healthProbeMs" toml:"healthProbeMs" yaml:"healthProbeMs"`

	// PersistCatalog records queue names in DataDir so they survive restarts.
	PersistCatalog bool   `json:"persistCatalog" toml:"persistCatalog" yaml:"persistCatalog"`
	DataDir        string `json:"dataDir" toml:"dataDir" yaml:"dataDir"`
	// Fsync is one of "always", "interval", "never" or empty for the store default.
	Fsync string `json:"fsync" toml:"fsync" yaml:"fsync"`

	Log logpkg.Config `json:"log" toml:"log" yaml:"log"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		ListenAddr:       "127.0.0.1:8081",
		HealthAddr:       "127.0.0.1:8082",
		MaxSessions:      5,
		AdmissionWaitMs:  4000,
		DrainTimeoutMs:   10000,
		DefaultTimeoutMs: 0,
		HealthProbeMs:    5000,
		PersistCatalog:   true,
		Log:              logpkg.Config{Level: "info", Format: "text"},
	}
}

// Load reads configuration from a JSON, TOML or YAML file chosen by
// extension; unknown extensions are read as JSON. Fields absent from the
// file keep their defaults. If path is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(b), &cfg); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	}
	return cfg, nil
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.ListenAddr == "":
		return fmt.Errorf("config: listenAddr is required")
	case c.MaxSessions < 1:
		return fmt.Errorf("config: maxSessions must be at least 1, got %d", c.MaxSessions)
	case c.AdmissionWaitMs < 0, c.DrainTimeoutMs < 0, c.DefaultTimeoutMs < 0, c.HealthProbeMs < 0:
		return fmt.Errorf("config: durations must not be negative")
	}
	switch c.Fsync {
	case "", "always", "interval", "never":
	default:
		return fmt.Errorf("config: unknown fsync mode %q", c.Fsync)
	}
	return nil
}

func (c Config) AdmissionWait() time.Duration  { return ms(c.AdmissionWaitMs) }
func (c Config) DrainTimeout() time.Duration   { return ms(c.DrainTimeoutMs) }
func (c Config) DefaultTimeout() time.Duration { return ms(c.DefaultTimeoutMs) }
func (c Config) HealthProbe() time.Duration    { return ms(c.HealthProbeMs) }

func ms(n int64) time.Duration { return time.Duration(n) * time.Millisecond }
