package config

import (
	"os"
	"strconv"
)

// FromEnv overlays RENDEZQ_* environment variables onto cfg. Unparsable
// numbers and booleans are ignored.
func FromEnv(cfg *Config) {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	i64 := func(key string, dst *int64) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				*dst = n
			}
		}
	}

	str("RENDEZQ_LISTEN_ADDR", &cfg.ListenAddr)
	str("RENDEZQ_HEALTH_ADDR", &cfg.HealthAddr)
	str("RENDEZQ_METRICS_ADDR", &cfg.MetricsAddr)
	if v := os.Getenv("RENDEZQ_MAX_SESSIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxSessions = n
		}
	}
	i64("RENDEZQ_ADMISSION_WAIT_MS", &cfg.AdmissionWaitMs)
	i64("RENDEZQ_DRAIN_TIMEOUT_MS", &cfg.DrainTimeoutMs)
	i64("RENDEZQ_DEFAULT_TIMEOUT_MS", &cfg.DefaultTimeoutMs)
	i64("RENDEZQ_HEALTH_PROBE_MS", &cfg.HealthProbeMs)
	if v := os.Getenv("RENDEZQ_PERSIST_CATALOG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.PersistCatalog = b
		}
	}
	if v := os.Getenv(DataDirEnv); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("RENDEZQ_FSYNC"); v != "" {
		cfg.Fsync = v
	}
	if v := os.Getenv("RENDEZQ_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("RENDEZQ_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("RENDEZQ_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
}
