// Package config provides loading and environment overlay for rendezq
// configuration. It exposes a Default() baseline, file loading by extension
// (JSON, TOML, YAML) and a RENDEZQ_* environment overlay.
//
// Example:
//
//	cfg := config.Default()
//	if fileCfg, err := config.Load("/etc/rendezq.toml"); err == nil {
//	    cfg = fileCfg
//	}
//	config.FromEnv(&cfg)
//	if err := cfg.Validate(); err != nil { /* handle */ }
package config
