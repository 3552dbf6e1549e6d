package log

import (
	"fmt"
	"log/slog"
	"strings"
)

// Config declares a logger.
type Config struct {
	Level  string `json:"level" toml:"level" yaml:"level"`
	Format string `json:"format" toml:"format" yaml:"format"`
	// File, when set, adds a rotating file output next to the console.
	File string `json:"file" toml:"file" yaml:"file"`
	// Quiet drops the console output; useful with File or in tests.
	Quiet            bool     `json:"quiet" toml:"quiet" yaml:"quiet"`
	Redact           []string `json:"redact" toml:"redact" yaml:"redact"`
	SampleInitial    int      `json:"sampleInitial" toml:"sampleInitial" yaml:"sampleInitial"`
	SampleThereafter int      `json:"sampleThereafter" toml:"sampleThereafter" yaml:"sampleThereafter"`
}

// ApplyConfig builds a Logger from cfg.
func ApplyConfig(cfg *Config) (Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var formatter Formatter
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		formatter = &TextFormatter{}
	case "json":
		formatter = &JSONFormatter{}
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	opts := []LoggerOption{WithLevel(level), WithFormatter(formatter)}
	switch {
	case cfg.Quiet && cfg.File == "":
		opts = append(opts, WithOutput(NullOutput{}))
	case !cfg.Quiet:
		opts = append(opts, WithOutput(NewConsoleOutput()))
	}
	if cfg.File != "" {
		opts = append(opts, WithOutput(NewFileOutput(FileOptions{Path: cfg.File, MaxSizeMB: 100, MaxBackups: 5})))
	}

	l := NewLogger(opts...).(*BaseLogger)
	h := newBridgeHandler(l).withRedactions(cfg.Redact).withSampler(cfg.SampleInitial, cfg.SampleThereafter)
	l.slogLogger = slog.New(h)
	return l, nil
}
